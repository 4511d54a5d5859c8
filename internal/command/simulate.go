package command

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/seu-repo/ocpp-csms/internal/ocpperr"
)

// simulateRemoteStart drives the transaction service directly, as if the
// charger itself had sent StartTransaction, when the charger is not
// reachable on any node and SimulateOnDisconnect is enabled. Used for demos
// and integration tests that exercise the billing/session side effects of
// RemoteStartTransaction without a live charger socket.
func (d *Dispatcher) simulateRemoteStart(ctx context.Context, chargerID, idTag string, connectorID *int) error {
	if d.chargerSvc == nil || d.txSvc == nil {
		return ocpperr.New(ocpperr.ChargerNotConnected, fmt.Sprintf("charger %s is not connected", chargerID))
	}
	conn := 1
	if connectorID != nil {
		conn = *connectorID
	}
	if _, err := d.txSvc.StartTransaction(ctx, chargerID, conn, idTag, 0, 0); err != nil {
		return fmt.Errorf("command: simulate remote start for %s: %w", chargerID, err)
	}
	d.log.Info("simulated RemoteStartTransaction on disconnected charger", zap.String("charger_id", chargerID))
	return nil
}

func (d *Dispatcher) simulateRemoteStop(ctx context.Context, chargerID string, transactionID int64) error {
	if d.chargerSvc == nil || d.txSvc == nil {
		return ocpperr.New(ocpperr.ChargerNotConnected, fmt.Sprintf("charger %s is not connected", chargerID))
	}
	if _, err := d.txSvc.StopTransaction(ctx, chargerID, transactionID, 0, "Remote"); err != nil {
		return fmt.Errorf("command: simulate remote stop for %s: %w", chargerID, err)
	}
	d.log.Info("simulated RemoteStopTransaction on disconnected charger", zap.String("charger_id", chargerID))
	return nil
}
