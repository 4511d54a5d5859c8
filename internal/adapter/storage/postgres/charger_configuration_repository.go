package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/seu-repo/ocpp-csms/internal/domain"
	"github.com/seu-repo/ocpp-csms/internal/ports"
)

type ChargerConfigurationRepository struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewChargerConfigurationRepository(db *gorm.DB, log *zap.Logger) ports.ChargerConfigurationRepository {
	return &ChargerConfigurationRepository{
		db:  db,
		log: log,
	}
}

// Upsert writes cfg keyed by (charger_id, key), overwriting Value/Readonly
// on conflict so repeated ChangeConfiguration.req calls stay idempotent.
func (r *ChargerConfigurationRepository) Upsert(ctx context.Context, cfg *domain.ChargerConfiguration) error {
	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "charger_id"}, {Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "readonly", "updated_at"}),
	}).Create(cfg).Error
}

func (r *ChargerConfigurationRepository) Get(ctx context.Context, chargerID, key string) (*domain.ChargerConfiguration, error) {
	var cfg domain.ChargerConfiguration
	err := r.db.WithContext(ctx).First(&cfg, "charger_id = ? AND key = ?", chargerID, key).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cfg, nil
}

func (r *ChargerConfigurationRepository) List(ctx context.Context, chargerID string) ([]domain.ChargerConfiguration, error) {
	var cfgs []domain.ChargerConfiguration
	err := r.db.WithContext(ctx).Where("charger_id = ?", chargerID).Order("key asc").Find(&cfgs).Error
	return cfgs, err
}
