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

type StatusEventRepository struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewStatusEventRepository(db *gorm.DB, log *zap.Logger) ports.StatusEventRepository {
	return &StatusEventRepository{
		db:  db,
		log: log,
	}
}

func (r *StatusEventRepository) Record(ctx context.Context, ev *domain.StatusEvent) error {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	return r.db.WithContext(ctx).Create(ev).Error
}

// HourlyDistribution buckets StatusNotification occurrences by hour-of-day
// (0-23), used to spot recurring connector fault windows.
func (r *StatusEventRepository) HourlyDistribution(ctx context.Context, chargerID string, from, to time.Time) (map[int]int, error) {
	type row struct {
		Hour  int
		Count int
	}
	var rows []row
	err := r.db.WithContext(ctx).Model(&domain.StatusEvent{}).
		Select("extract(hour from timestamp)::int as hour, count(*) as count").
		Where("charger_id = ? AND timestamp >= ? AND timestamp < ?", chargerID, from, to).
		Group("hour").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	dist := make(map[int]int, len(rows))
	for _, rr := range rows {
		dist[rr.Hour] = rr.Count
	}
	return dist, nil
}
