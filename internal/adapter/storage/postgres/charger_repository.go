package postgres

import (
	"context"
	"errors"
	"math"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/seu-repo/ocpp-csms/internal/domain"
	"github.com/seu-repo/ocpp-csms/internal/ports"
)

type ChargerRepository struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewChargerRepository(db *gorm.DB, log *zap.Logger) ports.ChargerRepository {
	return &ChargerRepository{
		db:  db,
		log: log,
	}
}

func (r *ChargerRepository) Save(ctx context.Context, cp *domain.ChargePoint) error {
	result := r.db.WithContext(ctx).Save(cp)
	if result.Error != nil {
		r.log.Error("failed to save charger", zap.Error(result.Error))
		return result.Error
	}
	return nil
}

func (r *ChargerRepository) FindByID(ctx context.Context, id string) (*domain.ChargePoint, error) {
	var cp domain.ChargePoint
	result := r.db.WithContext(ctx).First(&cp, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &cp, nil
}

func (r *ChargerRepository) FindAll(ctx context.Context, filter map[string]interface{}) ([]domain.ChargePoint, error) {
	var cps []domain.ChargePoint
	query := r.db.WithContext(ctx)
	if status, ok := filter["status"]; ok {
		query = query.Where("status = ?", status)
	}
	if vendor, ok := filter["vendor"]; ok {
		query = query.Where("vendor = ?", vendor)
	}
	if search, ok := filter["search"]; ok {
		like := "%" + search.(string) + "%"
		query = query.Where("id ILIKE ? OR vendor ILIKE ? OR model ILIKE ?", like, like, like)
	}

	result := query.Find(&cps)
	if result.Error != nil {
		return nil, result.Error
	}
	return cps, nil
}

func (r *ChargerRepository) UpdateStatus(ctx context.Context, id string, status domain.ChargePointStatus) error {
	result := r.db.WithContext(ctx).Model(&domain.ChargePoint{}).Where("id = ?", id).Update("status", status)
	return result.Error
}

// FindNearby computes a bounding-box pre-filter in SQL (cheap index-friendly
// range scan) and refines with the Haversine formula in Go, avoiding a
// PostGIS dependency for what is a small, rarely-called admin query.
func (r *ChargerRepository) FindNearby(ctx context.Context, lat, lon, radius float64) ([]domain.ChargePoint, error) {
	const earthRadiusKM = 6371.0
	latDelta := radius / earthRadiusKM * (180 / math.Pi)
	lonDelta := radius / (earthRadiusKM * math.Cos(lat*math.Pi/180)) * (180 / math.Pi)

	var candidates []domain.ChargePoint
	result := r.db.WithContext(ctx).
		Where("latitude BETWEEN ? AND ?", lat-latDelta, lat+latDelta).
		Where("longitude BETWEEN ? AND ?", lon-lonDelta, lon+lonDelta).
		Find(&candidates)
	if result.Error != nil {
		return nil, result.Error
	}

	nearby := make([]domain.ChargePoint, 0, len(candidates))
	for _, cp := range candidates {
		if haversineKM(lat, lon, cp.Latitude, cp.Longitude) <= radius {
			nearby = append(nearby, cp)
		}
	}
	return nearby, nil
}

func haversineKM(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadiusKM = 6371.0
	toRad := math.Pi / 180
	dLat := (lat2 - lat1) * toRad
	dLon := (lon2 - lon1) * toRad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*toRad)*math.Cos(lat2*toRad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKM * c
}
