// Package transport implements the three OCPP 1.6J carriers (socket, pull,
// pubsub) behind one common Adapter interface.
package transport

import "context"

// InboundHandler processes one decoded Call from a charger and returns the
// CallResult payload (or an error to be framed as CallError).
type InboundHandler func(ctx context.Context, chargerID, action string, payload []byte) (interface{}, error)

// Adapter is implemented by each transport carrier.
type Adapter interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	SendMessage(ctx context.Context, chargerID string, frame []byte) error
	IsConnected(chargerID string) bool
	SetInboundHandler(h InboundHandler)
}
