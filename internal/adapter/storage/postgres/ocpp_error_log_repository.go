package postgres

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/seu-repo/ocpp-csms/internal/domain"
	"github.com/seu-repo/ocpp-csms/internal/ports"
)

type OCPPErrorLogRepository struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewOCPPErrorLogRepository(db *gorm.DB, log *zap.Logger) ports.OCPPErrorLogRepository {
	return &OCPPErrorLogRepository{
		db:  db,
		log: log,
	}
}

func (r *OCPPErrorLogRepository) Append(ctx context.Context, entry *domain.OCPPErrorLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *OCPPErrorLogRepository) FindByChargerID(ctx context.Context, chargerID string, limit, offset int) ([]domain.OCPPErrorLog, error) {
	var entries []domain.OCPPErrorLog
	query := r.db.WithContext(ctx).Where("charger_id = ?", chargerID).Order("created_at desc")
	if limit > 0 {
		query = query.Limit(limit).Offset(offset)
	}
	err := query.Find(&entries).Error
	return entries, err
}
