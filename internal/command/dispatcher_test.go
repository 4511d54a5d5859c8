package command

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/ocpp-csms/internal/domain"
	"github.com/seu-repo/ocpp-csms/internal/mocks"
	"github.com/seu-repo/ocpp-csms/internal/ocpp/transport"
	"github.com/seu-repo/ocpp-csms/internal/registry"
)

// fakeHandle satisfies registry.Handle without opening a real connection.
type fakeHandle struct {
	transport string
}

func (h *fakeHandle) SendMessage(ctx context.Context, payload []byte) error { return nil }
func (h *fakeHandle) Transport() string                                    { return h.transport }

func newTestDispatcher(t *testing.T) (*Dispatcher, registry.Registry) {
	t.Helper()
	reg := registry.NewLocalRegistry()
	log := zap.NewNop()
	mgr := transport.NewManager(reg, log, []string{"socket"})
	return NewDispatcher(mgr, nil, log, Options{}), reg
}

func TestRemoteStartTransaction_ChargerNotConnected(t *testing.T) {
	d, _ := newTestDispatcher(t)

	err := d.RemoteStartTransaction(context.Background(), "CP001", "TAG001", nil)
	if err == nil {
		t.Fatal("expected error for unconnected charger")
	}
}

func TestReset_RejectsNonSocketAttachment(t *testing.T) {
	d, reg := newTestDispatcher(t)
	reg.Attach("CP001", &fakeHandle{transport: "pull"})

	err := d.Reset(context.Background(), "CP001", "Soft")
	if err == nil {
		t.Fatal("expected error for pull-attached charger on a synchronous call")
	}
}

func TestGetConfiguration_ChargerNotConnected(t *testing.T) {
	d, _ := newTestDispatcher(t)

	_, err := d.GetConfiguration(context.Background(), "CP001", []string{"HeartbeatInterval"})
	if err == nil {
		t.Fatal("expected error for unconnected charger")
	}
}

func TestChangeConfiguration_ChargerNotConnected(t *testing.T) {
	d, _ := newTestDispatcher(t)

	err := d.ChangeConfiguration(context.Background(), "CP001", "HeartbeatInterval", "60")
	if err == nil {
		t.Fatal("expected error for unconnected charger")
	}
}

func TestIsConnected_ReflectsRegistry(t *testing.T) {
	d, reg := newTestDispatcher(t)

	if d.IsConnected("CP001") {
		t.Fatal("expected charger to be reported as not connected")
	}

	reg.Attach("CP001", &fakeHandle{transport: "socket"})
	if !d.IsConnected("CP001") {
		t.Fatal("expected charger to be reported as connected")
	}
}

func TestGetConnectedChargers_ListsAttached(t *testing.T) {
	d, reg := newTestDispatcher(t)
	reg.Attach("CP001", &fakeHandle{transport: "socket"})
	reg.Attach("CP002", &fakeHandle{transport: "pull"})

	chargers := d.GetConnectedChargers()
	if len(chargers) != 2 {
		t.Fatalf("expected 2 connected chargers, got %d", len(chargers))
	}
}

func TestRemoteStopTransaction_FailsWithoutSocketCarrier(t *testing.T) {
	d, reg := newTestDispatcher(t)
	reg.Attach("CP001", &fakeHandle{transport: "socket"})
	d.timeout = 50 * time.Millisecond

	err := d.RemoteStopTransaction(context.Background(), "CP001", 1)
	if err == nil {
		t.Fatal("expected error: socket carrier never registered on the manager")
	}
}

func TestRemoteStartTransaction_SimulatesWhenDisconnectedAndEnabled(t *testing.T) {
	reg := registry.NewLocalRegistry()
	log := zap.NewNop()
	mgr := transport.NewManager(reg, log, []string{"socket"})

	var startedChargerID, startedIdTag string
	txSvc := &mocks.MockTransactionService{
		StartTransactionFunc: func(ctx context.Context, chargerID string, connectorID int, idTag string, transactionID int64, meterStart int) (*domain.Transaction, error) {
			startedChargerID = chargerID
			startedIdTag = idTag
			return &domain.Transaction{ChargerID: chargerID, TransactionID: 1}, nil
		},
	}
	d := NewDispatcher(mgr, nil, log, Options{
		SimulateOnDisconnect: true,
		ChargerSvc:           &mocks.MockChargerService{},
		TxSvc:                txSvc,
	})

	if err := d.RemoteStartTransaction(context.Background(), "CP001", "TAG001", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if startedChargerID != "CP001" || startedIdTag != "TAG001" {
		t.Fatalf("expected simulated start to reach the transaction service, got charger=%q idTag=%q", startedChargerID, startedIdTag)
	}
}

func TestRemoteStartTransaction_NoSimulationWithoutOptIn(t *testing.T) {
	d, _ := newTestDispatcher(t)

	err := d.RemoteStartTransaction(context.Background(), "CP001", "TAG001", nil)
	if err == nil {
		t.Fatal("expected error for unconnected charger when simulation is disabled")
	}
}
