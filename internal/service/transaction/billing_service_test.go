package transaction

import (
	"context"
	"testing"
	"time"

	"github.com/seu-repo/ocpp-csms/internal/domain"
	"github.com/seu-repo/ocpp-csms/internal/mocks"
)

func offPeakPricing() *PricingConfig {
	return &PricingConfig{PeakRateMultiplier: 1.5, PeakHoursStart: 25, PeakHoursEnd: 26}
}

func TestOpenOrder_Success(t *testing.T) {
	ctx := context.Background()
	var saved *domain.Order
	mockOrderRepo := &mocks.MockOrderRepository{
		SaveFunc: func(ctx context.Context, order *domain.Order) error {
			saved = order
			return nil
		},
	}

	svc := NewBillingService(mockOrderRepo, offPeakPricing(), newTestLogger())
	tx := &domain.Transaction{
		TransactionID: 42,
		ChargerID:     "charger-1",
		UserID:        "user-1",
		PriceSnapshot: 0.5,
		StartTime:     time.Now(),
	}

	order, err := svc.OpenOrder(ctx, tx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.Status != domain.OrderStatusOpen {
		t.Errorf("expected status open, got %s", order.Status)
	}
	if saved == nil || saved.TransactionID != 42 {
		t.Errorf("expected order to be saved with transaction id 42")
	}
}

func TestOpenOrder_NilTransaction(t *testing.T) {
	svc := NewBillingService(&mocks.MockOrderRepository{}, offPeakPricing(), newTestLogger())
	if _, err := svc.OpenOrder(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil transaction")
	}
}

func TestSettleOrder_Success(t *testing.T) {
	ctx := context.Background()
	existing := &domain.Order{
		ID:            "order-1",
		TransactionID: 42,
		Status:        domain.OrderStatusOpen,
		PricePerKWh:   0.5,
		StartTime:     time.Now().Add(-time.Hour),
	}

	var updated *domain.Order
	mockOrderRepo := &mocks.MockOrderRepository{
		FindByTransactionIDFunc: func(ctx context.Context, transactionID int64) (*domain.Order, error) {
			return existing, nil
		},
		UpdateFunc: func(ctx context.Context, order *domain.Order) error {
			updated = order
			return nil
		},
	}

	svc := NewBillingService(mockOrderRepo, offPeakPricing(), newTestLogger())
	energy := 10.0
	now := time.Now()
	tx := &domain.Transaction{TransactionID: 42, EnergyKWh: &energy, EndTime: &now}

	order, err := svc.SettleOrder(ctx, tx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.Status != domain.OrderStatusSettled {
		t.Errorf("expected settled status, got %s", order.Status)
	}
	if order.TotalCost != 5.0 {
		t.Errorf("expected total cost 5.0 (10kWh * 0.5), got %f", order.TotalCost)
	}
	if updated == nil {
		t.Error("expected order to be persisted via Update")
	}
}

func TestSettleOrder_NoOpenOrder(t *testing.T) {
	mockOrderRepo := &mocks.MockOrderRepository{
		FindByTransactionIDFunc: func(ctx context.Context, transactionID int64) (*domain.Order, error) {
			return nil, nil
		},
	}
	svc := NewBillingService(mockOrderRepo, offPeakPricing(), newTestLogger())
	if _, err := svc.SettleOrder(context.Background(), &domain.Transaction{TransactionID: 99}); err == nil {
		t.Fatal("expected error when no order is open for the transaction")
	}
}

func TestSettleOrder_AlreadySettled(t *testing.T) {
	mockOrderRepo := &mocks.MockOrderRepository{
		FindByTransactionIDFunc: func(ctx context.Context, transactionID int64) (*domain.Order, error) {
			return &domain.Order{ID: "order-1", TransactionID: 42, Status: domain.OrderStatusSettled}, nil
		},
	}
	svc := NewBillingService(mockOrderRepo, offPeakPricing(), newTestLogger())
	if _, err := svc.SettleOrder(context.Background(), &domain.Transaction{TransactionID: 42}); err == nil {
		t.Fatal("expected error when settling an already-settled order")
	}
}

func TestCalculateCost_OffPeak(t *testing.T) {
	svc := NewBillingService(&mocks.MockOrderRepository{}, offPeakPricing(), newTestLogger())
	cost := svc.CalculateCost(context.Background(), 10.0, 0.5)
	if cost != 5.0 {
		t.Errorf("expected 5.0, got %f", cost)
	}
}

func TestCalculateCost_PeakHours(t *testing.T) {
	allHoursPeak := &PricingConfig{PeakRateMultiplier: 2.0, PeakHoursStart: 0, PeakHoursEnd: 24}
	svc := NewBillingService(&mocks.MockOrderRepository{}, allHoursPeak, newTestLogger())
	cost := svc.CalculateCost(context.Background(), 10.0, 0.5)
	if cost != 10.0 {
		t.Errorf("expected 10.0 (2x peak multiplier), got %f", cost)
	}
}
