package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/seu-repo/ocpp-csms/internal/ports"
)

// alertRow is the gorm-mapped persistence shape for ports.Alert, which is
// defined in the ports package and carries no gorm tags of its own.
type alertRow struct {
	ID           string `gorm:"primaryKey"`
	Type         string
	Severity     string
	Title        string
	Message      string
	Source       string
	SourceID     string `gorm:"index"`
	Acknowledged bool   `gorm:"index"`
	CreatedAt    time.Time
}

func (alertRow) TableName() string { return "alerts" }

func toAlertRow(a *ports.Alert) *alertRow {
	return &alertRow{
		ID:           a.ID,
		Type:         a.Type,
		Severity:     a.Severity,
		Title:        a.Title,
		Message:      a.Message,
		Source:       a.Source,
		SourceID:     a.SourceID,
		Acknowledged: a.Acknowledged,
		CreatedAt:    a.CreatedAt,
	}
}

func (r alertRow) toAlert() *ports.Alert {
	return &ports.Alert{
		ID:           r.ID,
		Type:         r.Type,
		Severity:     r.Severity,
		Title:        r.Title,
		Message:      r.Message,
		Source:       r.Source,
		SourceID:     r.SourceID,
		Acknowledged: r.Acknowledged,
		CreatedAt:    r.CreatedAt,
	}
}

type AlertRepository struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewAlertRepository(db *gorm.DB, log *zap.Logger) ports.AlertRepository {
	return &AlertRepository{
		db:  db,
		log: log,
	}
}

func (r *AlertRepository) Save(ctx context.Context, alert *ports.Alert) error {
	if alert.ID == "" {
		alert.ID = uuid.NewString()
	}
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now()
	}
	return r.db.WithContext(ctx).Create(toAlertRow(alert)).Error
}

func (r *AlertRepository) GetByID(ctx context.Context, id string) (*ports.Alert, error) {
	var row alertRow
	err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return row.toAlert(), nil
}

func (r *AlertRepository) GetAll(ctx context.Context, acknowledged bool, limit, offset int) ([]ports.Alert, error) {
	var rows []alertRow
	query := r.db.WithContext(ctx).Where("acknowledged = ?", acknowledged).Order("created_at desc")
	if limit > 0 {
		query = query.Limit(limit).Offset(offset)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	alerts := make([]ports.Alert, 0, len(rows))
	for _, row := range rows {
		alerts = append(alerts, *row.toAlert())
	}
	return alerts, nil
}

func (r *AlertRepository) Acknowledge(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&alertRow{}).Where("id = ?", id).Update("acknowledged", true).Error
}

func (r *AlertRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&alertRow{}, "id = ?", id).Error
}

func (r *AlertRepository) CountUnacknowledged(ctx context.Context) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&alertRow{}).Where("acknowledged = ?", false).Count(&count).Error
	return int(count), err
}
