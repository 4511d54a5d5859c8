package queue

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/seu-repo/ocpp-csms/internal/ports"
)

// NATSQueue implements ports.MessageQueue over a NATS core connection,
// used for the transaction/billing domain event bus.
type NATSQueue struct {
	conn *nats.Conn
	log  *zap.Logger
}

func NewNATSQueue(url string, log *zap.Logger) (ports.MessageQueue, error) {
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	log.Info("Successfully connected to NATS", zap.String("url", url))
	return &NATSQueue{
		conn: nc,
		log:  log,
	}, nil
}

func (q *NATSQueue) Publish(topic string, message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("nats: marshal message: %w", err)
	}
	return q.conn.Publish(topic, data)
}

func (q *NATSQueue) Subscribe(topic string, handler func(message []byte)) error {
	_, err := q.conn.Subscribe(topic, func(msg *nats.Msg) {
		handler(msg.Data)
	})
	return err
}

func (q *NATSQueue) Close() error {
	q.conn.Close()
	return nil
}
