package postgres

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/seu-repo/ocpp-csms/internal/domain"
	"github.com/seu-repo/ocpp-csms/internal/ports"
)

type TransactionRepository struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewTransactionRepository(db *gorm.DB, log *zap.Logger) ports.TransactionRepository {
	return &TransactionRepository{
		db:  db,
		log: log,
	}
}

func (r *TransactionRepository) Save(ctx context.Context, tx *domain.Transaction) error {
	return r.db.WithContext(ctx).Save(tx).Error
}

func (r *TransactionRepository) FindByID(ctx context.Context, id string) (*domain.Transaction, error) {
	var tx domain.Transaction
	err := r.db.WithContext(ctx).First(&tx, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &tx, nil
}

func (r *TransactionRepository) FindByTransactionID(ctx context.Context, transactionID int64) (*domain.Transaction, error) {
	var tx domain.Transaction
	err := r.db.WithContext(ctx).First(&tx, "transaction_id = ?", transactionID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &tx, nil
}

// FindOngoingByChargerID enforces invariant T1 at the read path: at most one
// TransactionStatusOngoing row may exist per charger.
func (r *TransactionRepository) FindOngoingByChargerID(ctx context.Context, chargerID string) (*domain.Transaction, error) {
	var tx domain.Transaction
	err := r.db.WithContext(ctx).
		Where("charger_id = ? AND status = ?", chargerID, domain.TransactionStatusOngoing).
		First(&tx).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &tx, nil
}

func (r *TransactionRepository) FindHistoryByUserID(ctx context.Context, userID string, limit, offset int) ([]domain.Transaction, error) {
	var txs []domain.Transaction
	query := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at desc")
	if limit > 0 {
		query = query.Limit(limit).Offset(offset)
	}
	err := query.Find(&txs).Error
	return txs, err
}

func (r *TransactionRepository) FindByDateRange(ctx context.Context, from, to time.Time, limit, offset int) ([]domain.Transaction, int, error) {
	var txs []domain.Transaction
	var total int64

	base := r.db.WithContext(ctx).Model(&domain.Transaction{}).
		Where("start_time >= ? AND start_time < ?", from, to)
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := base.Order("start_time desc")
	if limit > 0 {
		query = query.Limit(limit).Offset(offset)
	}
	if err := query.Find(&txs).Error; err != nil {
		return nil, 0, err
	}
	return txs, int(total), nil
}

func (r *TransactionRepository) Update(ctx context.Context, tx *domain.Transaction) error {
	return r.db.WithContext(ctx).Save(tx).Error
}
