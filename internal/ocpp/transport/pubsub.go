package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/seu-repo/ocpp-csms/internal/registry"
)

const (
	requestTopicPattern = "ocpp/%s/requests"
	responseTopicPrefix = "ocpp/"
	responseTopicSuffix = "/responses"
	subscribeWildcard   = "ocpp/+/requests"
	qosAtLeastOnce      = 1
)

// pubsubHandle adapts one charger's response topic to registry.Handle.
type pubsubHandle struct {
	client    mqtt.Client
	chargerID string
}

func (h *pubsubHandle) SendMessage(ctx context.Context, payload []byte) error {
	topic := responseTopicPrefix + h.chargerID + responseTopicSuffix
	token := h.client.Publish(topic, qosAtLeastOnce, false, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("transport: mqtt publish to %s timed out", topic)
	}
	return token.Error()
}

func (h *pubsubHandle) Transport() string { return "pubsub" }

// PubSub carries OCPP frames over a shared MQTT broker: each charger
// publishes on ocpp/<id>/requests and subscribes to ocpp/<id>/responses.
// Attachment happens on first inbound message rather than a handshake,
// since MQTT has no notion of a per-client connection to the CSMS.
type PubSub struct {
	registry registry.Registry
	inbound  InboundHandler
	log      *zap.Logger

	brokerURL string
	clientID  string
	client    mqtt.Client
}

func NewPubSub(brokerURL, clientID string, reg registry.Registry, log *zap.Logger) *PubSub {
	return &PubSub{
		registry:  reg,
		log:       log,
		brokerURL: brokerURL,
		clientID:  clientID,
	}
}

func (p *PubSub) Name() string { return "pubsub" }

func (p *PubSub) SetInboundHandler(h InboundHandler) { p.inbound = h }

func (p *PubSub) Start(ctx context.Context) error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(p.brokerURL)
	opts.SetClientID(p.clientID)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(10 * time.Second)
	opts.SetConnectionLostHandler(func(c mqtt.Client, err error) {
		p.log.Warn("mqtt connection lost", zap.Error(err))
	})
	opts.SetOnConnectHandler(func(c mqtt.Client) {
		p.log.Info("mqtt connected, subscribing", zap.String("topic", subscribeWildcard))
		if token := c.Subscribe(subscribeWildcard, qosAtLeastOnce, p.onMessage); token.Wait() && token.Error() != nil {
			p.log.Error("mqtt subscribe failed", zap.Error(token.Error()))
		}
	})

	p.client = mqtt.NewClient(opts)
	token := p.client.Connect()
	if token.WaitTimeout(10*time.Second) && token.Error() != nil {
		return fmt.Errorf("transport: mqtt connect failed: %w", token.Error())
	}
	return nil
}

func (p *PubSub) Stop(ctx context.Context) error {
	if p.client != nil && p.client.IsConnected() {
		p.client.Disconnect(250)
	}
	return nil
}

func (p *PubSub) IsConnected(chargerID string) bool {
	h, ok := p.registry.Lookup(chargerID)
	if !ok {
		return false
	}
	return h.Transport() == "pubsub"
}

func (p *PubSub) SendMessage(ctx context.Context, chargerID string, frame []byte) error {
	h, ok := p.registry.Lookup(chargerID)
	if !ok || h.Transport() != "pubsub" {
		return fmt.Errorf("transport: charger %s not attached via pubsub", chargerID)
	}
	return h.SendMessage(ctx, frame)
}

func (p *PubSub) onMessage(client mqtt.Client, msg mqtt.Message) {
	chargerID := chargerIDFromTopic(msg.Topic())
	if chargerID == "" {
		return
	}

	if _, ok := p.registry.Lookup(chargerID); !ok {
		p.registry.Attach(chargerID, &pubsubHandle{client: client, chargerID: chargerID})
		p.log.Info("charger attached via pubsub", zap.String("charger_id", chargerID))
	}

	var frame []json.RawMessage
	if err := json.Unmarshal(msg.Payload(), &frame); err != nil || len(frame) < 3 {
		p.log.Warn("pubsub: malformed frame", zap.String("charger_id", chargerID))
		return
	}

	var uniqueID, action string
	if err := json.Unmarshal(frame[0], new(int)); err != nil {
		return
	}
	if err := json.Unmarshal(frame[1], &uniqueID); err != nil {
		return
	}
	if err := json.Unmarshal(frame[2], &action); err != nil {
		return
	}
	if len(frame) < 4 || p.inbound == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := p.inbound(ctx, chargerID, action, frame[3])
	if err != nil {
		p.log.Warn("pubsub: handler error", zap.String("charger_id", chargerID), zap.Error(err))
		return
	}
	payload, _ := json.Marshal([]interface{}{3, uniqueID, result})
	p.SendMessage(ctx, chargerID, payload)
}

func chargerIDFromTopic(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) != 3 || parts[0] != "ocpp" || parts[2] != "requests" {
		return ""
	}
	return parts[1]
}
