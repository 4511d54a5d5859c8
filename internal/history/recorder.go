// Package history persists heartbeat and status-change events and answers
// the fleet-uptime/status-distribution queries the admin surface needs.
package history

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/seu-repo/ocpp-csms/internal/domain"
	"github.com/seu-repo/ocpp-csms/internal/ports"
)

// Recorder commits heartbeat/status events as part of the same request
// that triggered them.
type Recorder struct {
	heartbeats ports.HeartbeatEventRepository
	statuses   ports.StatusEventRepository
}

func NewRecorder(heartbeats ports.HeartbeatEventRepository, statuses ports.StatusEventRepository) *Recorder {
	return &Recorder{heartbeats: heartbeats, statuses: statuses}
}

func (r *Recorder) RecordHeartbeat(ctx context.Context, chargerID string) error {
	return r.heartbeats.Record(ctx, &domain.HeartbeatEvent{
		ID:        uuid.New().String(),
		ChargerID: chargerID,
		Timestamp: time.Now().UTC(),
	})
}

func (r *Recorder) RecordStatusChange(ctx context.Context, chargerID string, connectorID int, status domain.ChargePointStatus, errorCode string) error {
	return r.statuses.Record(ctx, &domain.StatusEvent{
		ID:          uuid.New().String(),
		ChargerID:   chargerID,
		ConnectorID: connectorID,
		Status:      status,
		ErrorCode:   errorCode,
		Timestamp:   time.Now().UTC(),
	})
}

// DailyCounts returns heartbeat counts per day for a charger in [from, to).
func (r *Recorder) DailyCounts(ctx context.Context, chargerID string, from, to time.Time) (map[string]int, error) {
	return r.heartbeats.DailyCounts(ctx, chargerID, from, to)
}

// HourlyDistribution returns status-change counts per hour-of-day for a
// charger in [from, to).
func (r *Recorder) HourlyDistribution(ctx context.Context, chargerID string, from, to time.Time) (map[int]int, error) {
	return r.statuses.HourlyDistribution(ctx, chargerID, from, to)
}
