package transaction

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/seu-repo/ocpp-csms/internal/domain"
	"github.com/seu-repo/ocpp-csms/internal/ports"
)

// PricingConfig holds the pricing configuration used when a Transaction's
// own PriceSnapshot does not already account for time-of-day surcharges.
type PricingConfig struct {
	PeakRateMultiplier float64 // Multiplier applied to energy cost during peak hours
	PeakHoursStart     int     // Peak hours start (e.g., 18 for 6 PM)
	PeakHoursEnd       int     // Peak hours end (e.g., 21 for 9 PM)
}

// DefaultPricingConfig returns the default pricing configuration
func DefaultPricingConfig() *PricingConfig {
	return &PricingConfig{
		PeakRateMultiplier: 1.5, // 50% more during peak hours
		PeakHoursStart:     18,  // 6 PM
		PeakHoursEnd:       21,  // 9 PM
	}
}

// BillingService implements ports.BillingService: an Order is opened when a
// Transaction starts and settled with its final energy/cost when the
// Transaction stops (invariant O1). Orders carry their own snapshot so
// billing survives even after a Transaction row is pruned.
type BillingService struct {
	orderRepo ports.OrderRepository
	pricing   *PricingConfig
	log       *zap.Logger
}

// NewBillingService creates a new billing service
func NewBillingService(orderRepo ports.OrderRepository, pricing *PricingConfig, log *zap.Logger) ports.BillingService {
	if pricing == nil {
		pricing = DefaultPricingConfig()
	}
	return &BillingService{
		orderRepo: orderRepo,
		pricing:   pricing,
		log:       log,
	}
}

func (s *BillingService) OpenOrder(ctx context.Context, tx *domain.Transaction) (*domain.Order, error) {
	if tx == nil {
		return nil, fmt.Errorf("billing: transaction cannot be nil")
	}

	now := time.Now()
	order := &domain.Order{
		ID:            uuid.NewString(),
		TransactionID: tx.TransactionID,
		ChargerID:     tx.ChargerID,
		UserID:        tx.UserID,
		Status:        domain.OrderStatusOpen,
		PricePerKWh:   tx.PriceSnapshot,
		StartTime:     tx.StartTime,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.orderRepo.Save(ctx, order); err != nil {
		return nil, fmt.Errorf("billing: save order: %w", err)
	}

	s.log.Info("order opened",
		zap.String("order_id", order.ID),
		zap.Int64("transaction_id", order.TransactionID),
		zap.String("charger_id", order.ChargerID),
	)
	return order, nil
}

func (s *BillingService) SettleOrder(ctx context.Context, tx *domain.Transaction) (*domain.Order, error) {
	if tx == nil {
		return nil, fmt.Errorf("billing: transaction cannot be nil")
	}

	order, err := s.orderRepo.FindByTransactionID(ctx, tx.TransactionID)
	if err != nil {
		return nil, fmt.Errorf("billing: lookup order for transaction %d: %w", tx.TransactionID, err)
	}
	if order == nil {
		return nil, fmt.Errorf("billing: no order open for transaction %d", tx.TransactionID)
	}
	if order.Status != domain.OrderStatusOpen {
		return nil, fmt.Errorf("billing: order %s is not open, current status %s", order.ID, order.Status)
	}

	var energyKWh float64
	if tx.EnergyKWh != nil {
		energyKWh = *tx.EnergyKWh
	}

	order.EnergyKWh = energyKWh
	order.TotalCost = s.CalculateCost(ctx, energyKWh, order.PricePerKWh)
	order.EndTime = tx.EndTime
	order.Status = domain.OrderStatusSettled
	order.UpdatedAt = time.Now()

	if err := s.orderRepo.Update(ctx, order); err != nil {
		return nil, fmt.Errorf("billing: update order: %w", err)
	}

	s.log.Info("order settled",
		zap.String("order_id", order.ID),
		zap.Int64("transaction_id", order.TransactionID),
		zap.Float64("energy_kwh", energyKWh),
		zap.Float64("total_cost", order.TotalCost),
	)
	return order, nil
}

// CalculateCost applies a peak-hour surcharge on top of the per-kWh price
// snapshot taken at transaction start.
func (s *BillingService) CalculateCost(ctx context.Context, energyKWh, pricePerKWh float64) float64 {
	rate := pricePerKWh
	hour := time.Now().Hour()
	if hour >= s.pricing.PeakHoursStart && hour < s.pricing.PeakHoursEnd {
		rate *= s.pricing.PeakRateMultiplier
	}
	return energyKWh * rate
}
