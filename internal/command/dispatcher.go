// Package command implements the CSMS-initiated OCPP 1.6J commands
// (RemoteStartTransaction, Reset, ChangeConfiguration, ...) on top of the
// transport manager's synchronous Call/CallResult plumbing.
package command

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/seu-repo/ocpp-csms/internal/domain"
	"github.com/seu-repo/ocpp-csms/internal/ocpp/transport"
	"github.com/seu-repo/ocpp-csms/internal/ocpperr"
	"github.com/seu-repo/ocpp-csms/internal/ports"
	"github.com/seu-repo/ocpp-csms/internal/registry"
)

const (
	defaultCallTimeout  = 30 * time.Second
	defaultPollInterval = 100 * time.Millisecond
)

// Options configures a Dispatcher. The distributed fields (DistributedRegistry,
// Redis, NodeID) are optional: a zero Options relays nothing and degrades
// every remote command to a plain ChargerNotConnected for chargers not
// attached to this node, matching single-node deployments.
type Options struct {
	Timeout              time.Duration
	PollInterval         time.Duration
	SimulateOnDisconnect bool
	DistributedRegistry  *registry.DistributedRegistry
	Redis                *redis.Client
	NodeID               string
	ChargerSvc           ports.ChargerService
	TxSvc                ports.TransactionService
}

// Dispatcher implements ports.OCPPCommandService by encoding each command as
// an OCPP 1.6J Call and routing it through the transport manager. A charger
// attached to this node is reached directly; one attached to another node
// in a distributed deployment is reached by relaying the call over Redis
// pub/sub (see relay.go). A charger attached nowhere either fails with
// ChargerNotConnected or, if SimulateOnDisconnect is set, is driven through
// the transaction service directly so demos and tests can proceed without a
// live socket (§ simulate.go).
type Dispatcher struct {
	transport            *transport.Manager
	cfgRepo              ports.ChargerConfigurationRepository
	log                  *zap.Logger
	timeout              time.Duration
	pollInterval         time.Duration
	simulateOnDisconnect bool
	distributedReg       *registry.DistributedRegistry
	redis                *redis.Client
	nodeID               string
	chargerSvc           ports.ChargerService
	txSvc                ports.TransactionService
}

func NewDispatcher(mgr *transport.Manager, cfgRepo ports.ChargerConfigurationRepository, log *zap.Logger, opts Options) *Dispatcher {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}
	pollInterval := opts.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	return &Dispatcher{
		transport:            mgr,
		cfgRepo:              cfgRepo,
		log:                  log,
		timeout:              timeout,
		pollInterval:         pollInterval,
		simulateOnDisconnect: opts.SimulateOnDisconnect,
		distributedReg:       opts.DistributedRegistry,
		redis:                opts.Redis,
		nodeID:               opts.NodeID,
		chargerSvc:           opts.ChargerSvc,
		txSvc:                opts.TxSvc,
	}
}

// call dispatches a fire-and-forget command (no CallResult payload the
// caller needs back), relaying to another node when the charger isn't
// attached here.
func (d *Dispatcher) call(ctx context.Context, chargerID, action string, payload interface{}) error {
	uniqueID := uuid.NewString()
	ok, err := d.send(ctx, chargerID, uniqueID, action, payload)
	if err != nil {
		d.log.Warn("ocpp command failed", zap.String("charger_id", chargerID), zap.String("action", action), zap.Error(err))
		return err
	}
	if !ok {
		return fmt.Errorf("command: %s to %s was rejected", action, chargerID)
	}
	return nil
}

func (d *Dispatcher) send(ctx context.Context, chargerID, uniqueID, action string, payload interface{}) (bool, error) {
	if d.transport.IsConnected(chargerID) {
		return d.transport.SendCall(ctx, chargerID, uniqueID, action, payload, d.timeout)
	}
	if d.distributedReg != nil {
		return d.relay(ctx, chargerID, uniqueID, action, payload)
	}
	return false, ocpperr.New(ocpperr.ChargerNotConnected, fmt.Sprintf("charger %s is not connected", chargerID))
}

func (d *Dispatcher) sendWithResult(ctx context.Context, chargerID, uniqueID, action string, payload interface{}) (map[string]interface{}, error) {
	if d.transport.IsConnected(chargerID) {
		return d.transport.SendCallWithResult(ctx, chargerID, uniqueID, action, payload, d.timeout)
	}
	if d.distributedReg != nil {
		return d.relayWithResult(ctx, chargerID, uniqueID, action, payload)
	}
	return nil, ocpperr.New(ocpperr.ChargerNotConnected, fmt.Sprintf("charger %s is not connected", chargerID))
}

// reachable reports whether chargerID can receive a command right now,
// either attached to this node or to another node in the cluster.
func (d *Dispatcher) reachable(ctx context.Context, chargerID string) bool {
	if d.transport.IsConnected(chargerID) {
		return true
	}
	if d.distributedReg == nil {
		return false
	}
	_, found, err := d.distributedReg.LocateRemote(ctx, chargerID)
	return err == nil && found
}

func (d *Dispatcher) RemoteStartTransaction(ctx context.Context, chargerID, idTag string, connectorID *int) error {
	if !d.reachable(ctx, chargerID) {
		if d.simulateOnDisconnect {
			return d.simulateRemoteStart(ctx, chargerID, idTag, connectorID)
		}
		return ocpperr.New(ocpperr.ChargerNotConnected, fmt.Sprintf("charger %s is not connected", chargerID))
	}
	return d.call(ctx, chargerID, "RemoteStartTransaction", map[string]interface{}{
		"idTag":       idTag,
		"connectorId": connectorID,
	})
}

func (d *Dispatcher) RemoteStopTransaction(ctx context.Context, chargerID string, transactionID int64) error {
	if !d.reachable(ctx, chargerID) {
		if d.simulateOnDisconnect {
			return d.simulateRemoteStop(ctx, chargerID, transactionID)
		}
		return ocpperr.New(ocpperr.ChargerNotConnected, fmt.Sprintf("charger %s is not connected", chargerID))
	}
	return d.call(ctx, chargerID, "RemoteStopTransaction", map[string]interface{}{
		"transactionId": transactionID,
	})
}

func (d *Dispatcher) Reset(ctx context.Context, chargerID string, resetType string) error {
	return d.call(ctx, chargerID, "Reset", map[string]interface{}{
		"type": resetType,
	})
}

func (d *Dispatcher) TriggerMessage(ctx context.Context, chargerID, requestedMessage string, connectorID *int) error {
	return d.call(ctx, chargerID, "TriggerMessage", map[string]interface{}{
		"requestedMessage": requestedMessage,
		"connectorId":      connectorID,
	})
}

func (d *Dispatcher) UnlockConnector(ctx context.Context, chargerID string, connectorID int) error {
	return d.call(ctx, chargerID, "UnlockConnector", map[string]interface{}{
		"connectorId": connectorID,
	})
}

func (d *Dispatcher) ChangeAvailability(ctx context.Context, chargerID string, connectorID int, availabilityType string) error {
	return d.call(ctx, chargerID, "ChangeAvailability", map[string]interface{}{
		"connectorId": connectorID,
		"type":        availabilityType,
	})
}

func (d *Dispatcher) GetConfiguration(ctx context.Context, chargerID string, keys []string) (map[string]string, error) {
	uniqueID := uuid.NewString()
	result, err := d.sendWithResult(ctx, chargerID, uniqueID, "GetConfiguration", map[string]interface{}{
		"key": keys,
	})
	if err != nil {
		return nil, err
	}

	configKeys, _ := result["configurationKey"].([]interface{})
	out := make(map[string]string, len(configKeys))
	for _, raw := range configKeys {
		entry, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		key, _ := entry["key"].(string)
		value, _ := entry["value"].(string)
		readonly, _ := entry["readonly"].(bool)
		out[key] = value

		if d.cfgRepo != nil {
			if err := d.cfgRepo.Upsert(ctx, &domain.ChargerConfiguration{
				ChargerID: chargerID,
				Key:       key,
				Value:     value,
				Readonly:  readonly,
				UpdatedAt: time.Now(),
			}); err != nil {
				d.log.Warn("failed to persist charger configuration", zap.String("charger_id", chargerID), zap.String("key", key), zap.Error(err))
			}
		}
	}
	return out, nil
}

func (d *Dispatcher) ChangeConfiguration(ctx context.Context, chargerID, key, value string) error {
	if err := d.call(ctx, chargerID, "ChangeConfiguration", map[string]interface{}{
		"key":   key,
		"value": value,
	}); err != nil {
		return err
	}

	if d.cfgRepo != nil {
		if err := d.cfgRepo.Upsert(ctx, &domain.ChargerConfiguration{
			ChargerID: chargerID,
			Key:       key,
			Value:     value,
			UpdatedAt: time.Now(),
		}); err != nil {
			d.log.Warn("failed to persist changed charger configuration", zap.String("charger_id", chargerID), zap.String("key", key), zap.Error(err))
		}
	}
	return nil
}

func (d *Dispatcher) SetChargingProfile(ctx context.Context, chargerID string, connectorID int, profile ports.ChargingProfile) error {
	return d.call(ctx, chargerID, "SetChargingProfile", map[string]interface{}{
		"connectorId":         connectorID,
		"csChargingProfiles": profile,
	})
}

func (d *Dispatcher) ClearChargingProfile(ctx context.Context, chargerID string, profileID *int) error {
	return d.call(ctx, chargerID, "ClearChargingProfile", map[string]interface{}{
		"id": profileID,
	})
}

func (d *Dispatcher) UpdateFirmware(ctx context.Context, chargerID, firmwareURL string, retrieveDateTime time.Time) error {
	return d.call(ctx, chargerID, "UpdateFirmware", map[string]interface{}{
		"location":     firmwareURL,
		"retrieveDate": retrieveDateTime.UTC().Format(time.RFC3339),
	})
}

func (d *Dispatcher) GetDiagnostics(ctx context.Context, chargerID, uploadURL string) error {
	return d.call(ctx, chargerID, "GetDiagnostics", map[string]interface{}{
		"location": uploadURL,
	})
}

func (d *Dispatcher) ReserveNow(ctx context.Context, chargerID string, connectorID int, expiryDate time.Time, idTag string, reservationID int) error {
	return d.call(ctx, chargerID, "ReserveNow", map[string]interface{}{
		"connectorId":   connectorID,
		"expiryDate":    expiryDate.UTC().Format(time.RFC3339),
		"idTag":         idTag,
		"reservationId": reservationID,
	})
}

func (d *Dispatcher) CancelReservation(ctx context.Context, chargerID string, reservationID int) error {
	return d.call(ctx, chargerID, "CancelReservation", map[string]interface{}{
		"reservationId": reservationID,
	})
}

func (d *Dispatcher) IsConnected(chargerID string) bool {
	return d.reachableLocalOrRemote(chargerID)
}

func (d *Dispatcher) reachableLocalOrRemote(chargerID string) bool {
	if d.transport.IsConnected(chargerID) {
		return true
	}
	if d.distributedReg == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return d.reachable(ctx, chargerID)
}

func (d *Dispatcher) GetConnectedChargers() []string {
	return d.transport.ConnectedChargers()
}
