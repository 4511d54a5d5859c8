package postgres

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/seu-repo/ocpp-csms/internal/domain"
	"github.com/seu-repo/ocpp-csms/internal/ports"
)

type MeterValueRepository struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewMeterValueRepository(db *gorm.DB, log *zap.Logger) ports.MeterValueRepository {
	return &MeterValueRepository{
		db:  db,
		log: log,
	}
}

func (r *MeterValueRepository) Save(ctx context.Context, mv *domain.MeterValue) error {
	return r.db.WithContext(ctx).Create(mv).Error
}

func (r *MeterValueRepository) FindByTransactionID(ctx context.Context, transactionID int64) ([]domain.MeterValue, error) {
	var mvs []domain.MeterValue
	err := r.db.WithContext(ctx).
		Where("transaction_id = ?", transactionID).
		Order("timestamp asc").
		Find(&mvs).Error
	return mvs, err
}
