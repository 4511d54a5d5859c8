package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/ocpp-csms/internal/registry"
)

// Manager owns every enabled carrier and presents them as one outbound
// surface. The configured priority list only sets the order in which Start
// brings carriers up. SendFrame writes through the carrier the charger is
// currently attached by, and SendCall/SendCallWithResult go through the
// socket carrier only; there is no fallback to another carrier, and nothing
// is queued for a charger that is not attached.
type Manager struct {
	registry registry.Registry
	log      *zap.Logger

	adapters map[string]Adapter
	priority []string
}

func NewManager(reg registry.Registry, log *zap.Logger, priority []string) *Manager {
	return &Manager{
		registry: reg,
		log:      log,
		adapters: make(map[string]Adapter),
		priority: priority,
	}
}

// Register wires one carrier into the manager and installs the shared
// inbound handler so every carrier routes through the same dispatch path.
func (m *Manager) Register(a Adapter, inbound InboundHandler) {
	a.SetInboundHandler(inbound)
	m.adapters[a.Name()] = a
}

func (m *Manager) Start(ctx context.Context) error {
	for _, name := range m.priority {
		a, ok := m.adapters[name]
		if !ok {
			continue
		}
		if err := a.Start(ctx); err != nil {
			return fmt.Errorf("transport: starting %s: %w", name, err)
		}
		m.log.Info("transport carrier started", zap.String("carrier", name))
	}
	return nil
}

func (m *Manager) Stop(ctx context.Context) error {
	var firstErr error
	for name, a := range m.adapters {
		if err := a.Stop(ctx); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("transport: stopping %s: %w", name, err)
		}
	}
	return firstErr
}

// IsConnected reports whether a charger holds a live attachment on any
// registered carrier.
func (m *Manager) IsConnected(chargerID string) bool {
	_, ok := m.registry.Lookup(chargerID)
	return ok
}

// Transport returns the name of the carrier a charger is currently
// attached through, if any.
func (m *Manager) Transport(chargerID string) (string, bool) {
	h, ok := m.registry.Lookup(chargerID)
	if !ok {
		return "", false
	}
	return h.Transport(), true
}

// SendFrame routes an outbound encoded frame to whichever carrier the
// charger is currently attached through.
func (m *Manager) SendFrame(ctx context.Context, chargerID string, frame []byte) error {
	h, ok := m.registry.Lookup(chargerID)
	if !ok {
		return fmt.Errorf("transport: charger %s is not connected on any carrier", chargerID)
	}
	a, ok := m.adapters[h.Transport()]
	if !ok {
		return fmt.Errorf("transport: carrier %s not registered", h.Transport())
	}
	return a.SendMessage(ctx, chargerID, frame)
}

// SendCall sends a CSMS-initiated Call and waits for the CALLRESULT. Only
// the socket carrier supports blocking request/response today; other
// carriers are fire-and-forget from the CSMS side, matching how
// battery-backed chargers behind NAT/polling links behave in practice.
func (m *Manager) SendCall(ctx context.Context, chargerID, uniqueID, action string, payload interface{}, timeout time.Duration) (ok bool, err error) {
	h, attached := m.registry.Lookup(chargerID)
	if !attached {
		return false, fmt.Errorf("transport: charger %s is not connected", chargerID)
	}
	if h.Transport() != "socket" {
		return false, fmt.Errorf("transport: charger %s is attached via %s, which does not support synchronous calls", chargerID, h.Transport())
	}
	socket, ok := m.adapters["socket"].(*Socket)
	if !ok {
		return false, fmt.Errorf("transport: socket carrier unavailable")
	}
	result, err := socket.SendCall(ctx, chargerID, uniqueID, action, payload, timeout)
	if err != nil {
		return false, err
	}
	if result.TimedOut {
		return false, fmt.Errorf("transport: call %s to %s timed out", action, chargerID)
	}
	if result.ErrorCode != "" {
		return false, fmt.Errorf("transport: charger %s rejected %s: %s", chargerID, action, result.ErrorCode)
	}
	return true, nil
}

// SendCallWithResult behaves like SendCall but decodes and returns the
// CALLRESULT payload, for commands whose response the CSMS needs to read
// (e.g. GetConfiguration).
func (m *Manager) SendCallWithResult(ctx context.Context, chargerID, uniqueID, action string, payload interface{}, timeout time.Duration) (map[string]interface{}, error) {
	h, attached := m.registry.Lookup(chargerID)
	if !attached {
		return nil, fmt.Errorf("transport: charger %s is not connected", chargerID)
	}
	if h.Transport() != "socket" {
		return nil, fmt.Errorf("transport: charger %s is attached via %s, which does not support synchronous calls", chargerID, h.Transport())
	}
	socket, ok := m.adapters["socket"].(*Socket)
	if !ok {
		return nil, fmt.Errorf("transport: socket carrier unavailable")
	}
	result, err := socket.SendCall(ctx, chargerID, uniqueID, action, payload, timeout)
	if err != nil {
		return nil, err
	}
	if result.TimedOut {
		return nil, fmt.Errorf("transport: call %s to %s timed out", action, chargerID)
	}
	if result.ErrorCode != "" {
		return nil, fmt.Errorf("transport: charger %s rejected %s: %s", chargerID, action, result.ErrorCode)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(result.Payload, &decoded); err != nil {
		return nil, fmt.Errorf("transport: decode %s result: %w", action, err)
	}
	return decoded, nil
}

// ConnectedChargers lists every charger attached on any registered carrier.
func (m *Manager) ConnectedChargers() []string {
	return m.registry.List()
}
