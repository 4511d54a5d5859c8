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

type ReservationRepository struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewReservationRepository(db *gorm.DB, log *zap.Logger) ports.ReservationRepository {
	return &ReservationRepository{
		db:  db,
		log: log,
	}
}

func (r *ReservationRepository) Save(ctx context.Context, reservation *domain.Reservation) error {
	return r.db.WithContext(ctx).Save(reservation).Error
}

func (r *ReservationRepository) GetByID(ctx context.Context, id string) (*domain.Reservation, error) {
	var res domain.Reservation
	err := r.db.WithContext(ctx).First(&res, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &res, nil
}

func (r *ReservationRepository) GetByUserID(ctx context.Context, userID string, status string, limit, offset int) ([]domain.Reservation, error) {
	var reservations []domain.Reservation
	query := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	query = query.Order("start_time desc")
	if limit > 0 {
		query = query.Limit(limit).Offset(offset)
	}
	err := query.Find(&reservations).Error
	return reservations, err
}

func (r *ReservationRepository) GetByChargePointID(ctx context.Context, chargePointID string, date time.Time) ([]domain.Reservation, error) {
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	dayEnd := dayStart.Add(24 * time.Hour)

	var reservations []domain.Reservation
	err := r.db.WithContext(ctx).
		Where("charge_point_id = ? AND start_time >= ? AND start_time < ?", chargePointID, dayStart, dayEnd).
		Order("start_time asc").
		Find(&reservations).Error
	return reservations, err
}

// GetByTimeRange finds reservations on a connector overlapping [startTime,
// endTime), used by the service layer's slot-conflict check.
func (r *ReservationRepository) GetByTimeRange(ctx context.Context, chargePointID string, connectorID int, startTime, endTime time.Time) ([]domain.Reservation, error) {
	var reservations []domain.Reservation
	err := r.db.WithContext(ctx).
		Where("charge_point_id = ? AND connector_id = ?", chargePointID, connectorID).
		Where("status IN ?", []domain.ReservationStatus{
			domain.ReservationStatusPending,
			domain.ReservationStatusConfirmed,
			domain.ReservationStatusActive,
		}).
		Where("start_time < ? AND end_time > ?", endTime, startTime).
		Find(&reservations).Error
	return reservations, err
}

func (r *ReservationRepository) GetActiveByUserID(ctx context.Context, userID string) ([]domain.Reservation, error) {
	var reservations []domain.Reservation
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status IN ?", userID, []domain.ReservationStatus{
			domain.ReservationStatusPending,
			domain.ReservationStatusConfirmed,
			domain.ReservationStatusActive,
		}).
		Order("start_time asc").
		Find(&reservations).Error
	return reservations, err
}

// GetExpired finds confirmed reservations whose start time plus gracePeriod
// has elapsed without the user arriving, for the no-show sweep job.
func (r *ReservationRepository) GetExpired(ctx context.Context, gracePeriod time.Duration) ([]domain.Reservation, error) {
	var reservations []domain.Reservation
	cutoff := time.Now().Add(-gracePeriod)
	err := r.db.WithContext(ctx).
		Where("status = ? AND start_time < ?", domain.ReservationStatusConfirmed, cutoff).
		Find(&reservations).Error
	return reservations, err
}

func (r *ReservationRepository) UpdateStatus(ctx context.Context, id string, status domain.ReservationStatus) error {
	return r.db.WithContext(ctx).Model(&domain.Reservation{}).Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "updated_at": time.Now()}).Error
}

func (r *ReservationRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&domain.Reservation{}, "id = ?", id).Error
}

func (r *ReservationRepository) CountByUserAndStatus(ctx context.Context, userID string, statuses []domain.ReservationStatus) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Reservation{}).
		Where("user_id = ? AND status IN ?", userID, statuses).
		Count(&count).Error
	return int(count), err
}
