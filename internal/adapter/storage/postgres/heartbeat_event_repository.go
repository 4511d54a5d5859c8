package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/seu-repo/ocpp-csms/internal/domain"
	"github.com/seu-repo/ocpp-csms/internal/ports"
)

type HeartbeatEventRepository struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewHeartbeatEventRepository(db *gorm.DB, log *zap.Logger) ports.HeartbeatEventRepository {
	return &HeartbeatEventRepository{
		db:  db,
		log: log,
	}
}

func (r *HeartbeatEventRepository) Record(ctx context.Context, ev *domain.HeartbeatEvent) error {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	return r.db.WithContext(ctx).Create(ev).Error
}

// DailyCounts buckets heartbeats by calendar day for the uptime dashboard,
// keyed by an ISO date string ("2006-01-02").
func (r *HeartbeatEventRepository) DailyCounts(ctx context.Context, chargerID string, from, to time.Time) (map[string]int, error) {
	type row struct {
		Day   string
		Count int
	}
	var rows []row
	err := r.db.WithContext(ctx).Model(&domain.HeartbeatEvent{}).
		Select("to_char(timestamp, 'YYYY-MM-DD') as day, count(*) as count").
		Where("charger_id = ? AND timestamp >= ? AND timestamp < ?", chargerID, from, to).
		Group("day").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int, len(rows))
	for _, rr := range rows {
		counts[rr.Day] = rr.Count
	}
	return counts, nil
}
