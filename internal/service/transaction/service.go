package transaction

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/seu-repo/ocpp-csms/internal/domain"
	"github.com/seu-repo/ocpp-csms/internal/ocpperr"
	"github.com/seu-repo/ocpp-csms/internal/ports"
)

// Service implements ports.TransactionService: invariant T1 (exactly one
// ongoing Transaction per charger) and T2/T3 (energy and duration derived
// from the charger's rate/price snapshot taken at StartTransaction time).
// It also opens and settles the billing Order tied to each Transaction when
// a billing service is configured. An OpenOrder/SettleOrder failure is only
// logged and does not fail the call, so a cycle can end without an Order or
// with the Order still open.
type Service struct {
	repo       ports.TransactionRepository
	mvRepo     ports.MeterValueRepository
	chargerSvc ports.ChargerService
	billingSvc ports.BillingService
	mq         ports.MessageQueue
	log        *zap.Logger
}

func NewService(repo ports.TransactionRepository, mvRepo ports.MeterValueRepository, chargerSvc ports.ChargerService, billingSvc ports.BillingService, mq ports.MessageQueue, log *zap.Logger) ports.TransactionService {
	return &Service{
		repo:       repo,
		mvRepo:     mvRepo,
		chargerSvc: chargerSvc,
		billingSvc: billingSvc,
		mq:         mq,
		log:        log,
	}
}

// StartTransaction allocates transactionID from the caller if one was
// supplied (non-zero), otherwise epoch-seconds at start.
func (s *Service) StartTransaction(ctx context.Context, chargerID string, connectorID int, idTag string, transactionID int64, meterStart int) (*domain.Transaction, error) {
	charger, err := s.chargerSvc.GetCharger(ctx, chargerID)
	if err != nil {
		return nil, fmt.Errorf("transaction: lookup charger %s: %w", chargerID, err)
	}
	if charger == nil {
		return nil, fmt.Errorf("transaction: charger %s not registered", chargerID)
	}

	existing, _ := s.repo.FindOngoingByChargerID(ctx, chargerID)
	if existing != nil {
		return nil, ocpperr.New(ocpperr.ConcurrentTx, fmt.Sprintf("charger %s already has an ongoing transaction %d", chargerID, existing.TransactionID))
	}

	now := time.Now()
	if transactionID == 0 {
		transactionID = now.Unix()
	}
	tx := &domain.Transaction{
		ID:            uuid.NewString(),
		TransactionID: transactionID,
		ChargerID:     chargerID,
		IdTag:         idTag,
		StartTime:     now,
		MeterStart:    meterStart,
		ChargingRate:  charger.ChargingRateKW,
		PriceSnapshot: charger.PricePerKWh,
		Status:        domain.TransactionStatusOngoing,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.Save(ctx, tx); err != nil {
		return nil, fmt.Errorf("transaction: save: %w", err)
	}

	if err := s.chargerSvc.UpdateStatus(ctx, chargerID, domain.ChargePointStatusCharging); err != nil {
		s.log.Warn("failed to mark charger charging", zap.String("charger_id", chargerID), zap.Error(err))
	}

	if s.billingSvc != nil {
		if _, err := s.billingSvc.OpenOrder(ctx, tx); err != nil {
			s.log.Warn("failed to open billing order", zap.String("charger_id", chargerID), zap.Int64("transaction_id", tx.TransactionID), zap.Error(err))
		}
	}

	s.publish("transaction.started", tx)

	s.log.Info("transaction started",
		zap.String("charger_id", chargerID),
		zap.Int64("transaction_id", tx.TransactionID),
		zap.String("id_tag", idTag),
	)

	return tx, nil
}

func (s *Service) StopTransaction(ctx context.Context, chargerID string, transactionID int64, meterStop int, reason string) (*domain.Transaction, error) {
	tx, err := s.repo.FindByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("transaction: lookup %d: %w", transactionID, err)
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction: %d not found", transactionID)
	}
	if tx.ChargerID != chargerID {
		return nil, fmt.Errorf("transaction: %d belongs to charger %s, not %s", transactionID, tx.ChargerID, chargerID)
	}
	if tx.Status != domain.TransactionStatusOngoing {
		return nil, fmt.Errorf("transaction: %d is not ongoing, current status %s", transactionID, tx.Status)
	}

	now := time.Now()
	tx.EndTime = &now
	tx.MeterStop = &meterStop
	tx.Status = domain.TransactionStatusCompleted
	tx.UpdatedAt = now

	duration := domain.DurationMinutesBetween(tx.StartTime, now)
	tx.DurationMinutes = &duration

	if meterStop > tx.MeterStart {
		energy := float64(meterStop-tx.MeterStart) / 1000.0
		tx.EnergyKWh = &energy
	} else {
		energy := domain.DerivedEnergyKWh(tx.ChargingRate, duration)
		tx.EnergyKWh = &energy
		tx.MeterDerived = true
	}

	cost := *tx.EnergyKWh * tx.PriceSnapshot
	tx.TotalCost = &cost

	if err := s.repo.Update(ctx, tx); err != nil {
		return nil, fmt.Errorf("transaction: update: %w", err)
	}

	if err := s.chargerSvc.UpdateStatus(ctx, chargerID, domain.ChargePointStatusAvailable); err != nil {
		s.log.Warn("failed to mark charger available", zap.String("charger_id", chargerID), zap.Error(err))
	}

	if s.billingSvc != nil {
		if _, err := s.billingSvc.SettleOrder(ctx, tx); err != nil {
			s.log.Warn("failed to settle billing order", zap.String("charger_id", chargerID), zap.Int64("transaction_id", transactionID), zap.Error(err))
		}
	}

	s.publish("transaction.stopped", tx)

	s.log.Info("transaction stopped",
		zap.String("charger_id", chargerID),
		zap.Int64("transaction_id", transactionID),
		zap.String("reason", reason),
		zap.Float64p("energy_kwh", tx.EnergyKWh),
	)

	return tx, nil
}

func (s *Service) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *Service) GetOngoingByChargerID(ctx context.Context, chargerID string) (*domain.Transaction, error) {
	return s.repo.FindOngoingByChargerID(ctx, chargerID)
}

func (s *Service) GetTransactionHistory(ctx context.Context, userID string, limit, offset int) ([]domain.Transaction, error) {
	return s.repo.FindHistoryByUserID(ctx, userID, limit, offset)
}

func (s *Service) RecordMeterValue(ctx context.Context, chargerID string, transactionID int64, mv domain.MeterValue) error {
	mv.ID = uuid.NewString()
	mv.ChargerID = chargerID
	mv.TransactionID = transactionID
	mv.CreatedAt = time.Now()
	return s.mvRepo.Save(ctx, &mv)
}

func (s *Service) publish(topic string, tx *domain.Transaction) {
	if s.mq == nil {
		return
	}
	if err := s.mq.Publish(topic, tx); err != nil {
		s.log.Warn("failed to publish transaction event", zap.String("topic", topic), zap.Error(err))
	}
}
