// Package charger implements ports.ChargerService: cache-aside reads over
// the charger repository, with status-change events published for
// downstream consumers (admin dashboard, history recorder).
package charger

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/ocpp-csms/internal/domain"
	"github.com/seu-repo/ocpp-csms/internal/ports"
)

const (
	cacheKeyPrefix = "charger:"
	cacheTTL       = 30 * time.Second
)

type Service struct {
	repo               ports.ChargerRepository
	cache              ports.Cache
	mq                 ports.MessageQueue
	defaultRateKW      float64
	defaultPricePerKWh float64
	log                *zap.Logger
}

// NewService wires a charger service whose first-registration defaults
// (ChargingRateKW, PricePerKWh) come from configuration rather than the
// Go zero value, so a brand-new charger's first Transaction snapshots a
// real rate/price instead of 0.
func NewService(repo ports.ChargerRepository, cache ports.Cache, mq ports.MessageQueue, defaultRateKW, defaultPricePerKWh float64, log *zap.Logger) ports.ChargerService {
	return &Service{repo: repo, cache: cache, mq: mq, defaultRateKW: defaultRateKW, defaultPricePerKWh: defaultPricePerKWh, log: log}
}

func (s *Service) GetCharger(ctx context.Context, id string) (*domain.ChargePoint, error) {
	cacheKey := cacheKeyPrefix + id
	if cached, err := s.cache.Get(ctx, cacheKey); err == nil && cached != "" {
		var cp domain.ChargePoint
		if err := json.Unmarshal([]byte(cached), &cp); err == nil {
			return &cp, nil
		}
	}

	cp, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if cp != nil {
		if data, err := json.Marshal(cp); err == nil {
			if err := s.cache.Set(ctx, cacheKey, string(data), cacheTTL); err != nil {
				s.log.Warn("failed to cache charger", zap.String("id", id), zap.Error(err))
			}
		}
	}

	return cp, nil
}

func (s *Service) ListChargers(ctx context.Context, filter map[string]interface{}) ([]domain.ChargePoint, error) {
	return s.repo.FindAll(ctx, filter)
}

func (s *Service) UpdateStatus(ctx context.Context, id string, status domain.ChargePointStatus) error {
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return err
	}

	if err := s.cache.Delete(ctx, cacheKeyPrefix+id); err != nil {
		s.log.Warn("failed to invalidate charger cache", zap.String("id", id), zap.Error(err))
	}

	if s.mq != nil {
		event := map[string]interface{}{
			"charger_id": id,
			"status":     status,
			"timestamp":  time.Now().UTC().Format(time.RFC3339),
		}
		if err := s.mq.Publish("charger.status.changed", event); err != nil {
			s.log.Warn("failed to publish status change event", zap.Error(err))
		}
	}

	return nil
}

func (s *Service) GetNearby(ctx context.Context, lat, lon, radius float64) ([]domain.ChargePoint, error) {
	return s.repo.FindNearby(ctx, lat, lon, radius)
}

// EnsureRegistered implements invariant C2: a BootNotification from an
// unknown chargerID creates the Charger row instead of rejecting the boot.
func (s *Service) EnsureRegistered(ctx context.Context, id, vendor, model, serial, firmware string) (*domain.ChargePoint, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		existing.Vendor = vendor
		existing.Model = model
		existing.SerialNumber = serial
		existing.FirmwareVersion = firmware
		existing.LastSeen = time.Now().UTC()
		existing.Active = true
		if err := s.repo.Save(ctx, existing); err != nil {
			return nil, err
		}
		return existing, nil
	}

	cp := &domain.ChargePoint{
		ID:              id,
		Vendor:          vendor,
		Model:           model,
		SerialNumber:    serial,
		FirmwareVersion: firmware,
		ChargingRateKW:  s.defaultRateKW,
		PricePerKWh:     s.defaultPricePerKWh,
		Status:          domain.ChargePointStatusAvailable,
		Active:          true,
		LastSeen:        time.Now().UTC(),
	}
	if err := s.repo.Save(ctx, cp); err != nil {
		return nil, err
	}
	return cp, nil
}
