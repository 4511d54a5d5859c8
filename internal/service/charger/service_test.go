package charger

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/seu-repo/ocpp-csms/internal/domain"
	"github.com/seu-repo/ocpp-csms/internal/mocks"
)

func newTestService(repo *mocks.MockChargerRepository, cache *mocks.MockCache, mq *mocks.MockMessageQueue) *Service {
	return &Service{repo: repo, cache: cache, mq: mq, defaultRateKW: 7.0, defaultPricePerKWh: 2700, log: zap.NewNop()}
}

func TestGetCharger_CacheMiss_FallsThroughToRepo(t *testing.T) {
	repo := &mocks.MockChargerRepository{
		FindByIDFunc: func(ctx context.Context, id string) (*domain.ChargePoint, error) {
			return &domain.ChargePoint{ID: id, Vendor: "Acme"}, nil
		},
	}
	cache := mocks.NewMockCache()
	svc := newTestService(repo, cache, mocks.NewMockMessageQueue())

	cp, err := svc.GetCharger(context.Background(), "CP001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cp == nil || cp.Vendor != "Acme" {
		t.Fatalf("expected charger loaded from repo, got %+v", cp)
	}
}

func TestGetCharger_CacheHit_SkipsRepo(t *testing.T) {
	repoCalled := false
	repo := &mocks.MockChargerRepository{
		FindByIDFunc: func(ctx context.Context, id string) (*domain.ChargePoint, error) {
			repoCalled = true
			return &domain.ChargePoint{ID: id}, nil
		},
	}
	cache := mocks.NewMockCache()
	svc := newTestService(repo, cache, mocks.NewMockMessageQueue())

	cache.Set(context.Background(), cacheKeyPrefix+"CP001", `{"id":"CP001","vendor":"Cached"}`, cacheTTL)

	cp, err := svc.GetCharger(context.Background(), "CP001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repoCalled {
		t.Fatal("expected cache hit to bypass the repository")
	}
	if cp.Vendor != "Cached" {
		t.Fatalf("expected cached value, got %+v", cp)
	}
}

func TestUpdateStatus_InvalidatesCacheAndPublishesEvent(t *testing.T) {
	repo := &mocks.MockChargerRepository{}
	cache := mocks.NewMockCache()
	mq := mocks.NewMockMessageQueue()
	svc := newTestService(repo, cache, mq)

	cache.Set(context.Background(), cacheKeyPrefix+"CP001", "stale", cacheTTL)

	if err := svc.UpdateStatus(context.Background(), "CP001", domain.ChargePointStatusCharging); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if v, _ := cache.Get(context.Background(), cacheKeyPrefix+"CP001"); v != "" {
		t.Fatalf("expected cache entry invalidated, still got %q", v)
	}

	events := mq.GetPublishedMessages("charger.status.changed")
	if len(events) != 1 {
		t.Fatalf("expected exactly one status-change event, got %d", len(events))
	}
}

func TestEnsureRegistered_CreatesUnknownCharger(t *testing.T) {
	var saved *domain.ChargePoint
	repo := &mocks.MockChargerRepository{
		FindByIDFunc: func(ctx context.Context, id string) (*domain.ChargePoint, error) { return nil, nil },
		SaveFunc: func(ctx context.Context, cp *domain.ChargePoint) error {
			saved = cp
			return nil
		},
	}
	svc := newTestService(repo, mocks.NewMockCache(), mocks.NewMockMessageQueue())

	cp, err := svc.EnsureRegistered(context.Background(), "CP999", "Acme", "ModelX", "SN1", "1.0.0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cp.Status != domain.ChargePointStatusAvailable {
		t.Fatalf("expected new charger defaulted to Available, got %v", cp.Status)
	}
	if saved == nil || saved.ID != "CP999" {
		t.Fatal("expected the new charger to be persisted")
	}
	if cp.ChargingRateKW != 7.0 || cp.PricePerKWh != 2700 {
		t.Fatalf("expected new charger to snapshot the configured defaults, got rate=%v price=%v", cp.ChargingRateKW, cp.PricePerKWh)
	}
}

func TestEnsureRegistered_UpdatesExistingCharger(t *testing.T) {
	existing := &domain.ChargePoint{ID: "CP001", Vendor: "Old", Active: false}
	var saved *domain.ChargePoint
	repo := &mocks.MockChargerRepository{
		FindByIDFunc: func(ctx context.Context, id string) (*domain.ChargePoint, error) { return existing, nil },
		SaveFunc: func(ctx context.Context, cp *domain.ChargePoint) error {
			saved = cp
			return nil
		},
	}
	svc := newTestService(repo, mocks.NewMockCache(), mocks.NewMockMessageQueue())

	cp, err := svc.EnsureRegistered(context.Background(), "CP001", "NewVendor", "ModelY", "SN2", "2.0.0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cp.Vendor != "NewVendor" || !cp.Active {
		t.Fatalf("expected existing charger refreshed, got %+v", cp)
	}
	if saved != existing {
		t.Fatal("expected the same charger row to be re-saved, not a new one")
	}
}

func TestGetNearby_DelegatesToRepo(t *testing.T) {
	called := false
	repo := &mocks.MockChargerRepository{
		FindNearbyFunc: func(ctx context.Context, lat, lon, radius float64) ([]domain.ChargePoint, error) {
			called = true
			return []domain.ChargePoint{{ID: "CP001"}}, nil
		},
	}
	svc := newTestService(repo, mocks.NewMockCache(), mocks.NewMockMessageQueue())

	results, err := svc.GetNearby(context.Background(), 40.0, -3.0, 5.0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called || len(results) != 1 {
		t.Fatalf("expected repo delegation to return one charger, got %d", len(results))
	}
}
