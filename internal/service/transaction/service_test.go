package transaction

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/ocpp-csms/internal/domain"
	"github.com/seu-repo/ocpp-csms/internal/mocks"
	"github.com/seu-repo/ocpp-csms/internal/ocpperr"
)

func newTestLogger() *zap.Logger {
	logger, _ := zap.NewDevelopment()
	return logger
}

func TestStartTransaction_Success(t *testing.T) {
	ctx := context.Background()
	chargerID := "charger-123"

	mockCharger := &domain.ChargePoint{
		ID:             chargerID,
		Status:         domain.ChargePointStatusAvailable,
		ChargingRateKW: 7.0,
		PricePerKWh:    0.75,
	}

	var savedTx *domain.Transaction
	mockTxRepo := &mocks.MockTransactionRepository{
		FindOngoingByChargerIDFunc: func(ctx context.Context, id string) (*domain.Transaction, error) {
			return nil, nil
		},
		SaveFunc: func(ctx context.Context, tx *domain.Transaction) error {
			savedTx = tx
			return nil
		},
	}

	mockChargerSvc := &mocks.MockChargerService{
		GetChargerFunc: func(ctx context.Context, id string) (*domain.ChargePoint, error) {
			return mockCharger, nil
		},
		UpdateStatusFunc: func(ctx context.Context, id string, status domain.ChargePointStatus) error {
			return nil
		},
	}

	mockQueue := mocks.NewMockMessageQueue()
	service := NewService(mockTxRepo, &mocks.MockMeterValueRepository{}, mockChargerSvc, &mocks.MockBillingService{}, mockQueue, newTestLogger())

	tx, err := service.StartTransaction(ctx, chargerID, 1, "rfid-tag", 0, 0)

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if tx == nil {
		t.Fatal("expected transaction, got nil")
	}
	if tx.ChargerID != chargerID {
		t.Errorf("expected charger ID %q, got %q", chargerID, tx.ChargerID)
	}
	if tx.Status != domain.TransactionStatusOngoing {
		t.Errorf("expected status ongoing, got %s", tx.Status)
	}
	if savedTx == nil {
		t.Error("expected transaction to be saved")
	}

	messages := mockQueue.GetPublishedMessages("transaction.started")
	if len(messages) != 1 {
		t.Errorf("expected 1 message published, got %d", len(messages))
	}
}

func TestStartTransaction_OpensBillingOrder(t *testing.T) {
	ctx := context.Background()
	chargerID := "charger-123"

	mockCharger := &domain.ChargePoint{ID: chargerID, ChargingRateKW: 7.0, PricePerKWh: 2700}
	mockTxRepo := &mocks.MockTransactionRepository{
		FindOngoingByChargerIDFunc: func(ctx context.Context, id string) (*domain.Transaction, error) { return nil, nil },
		SaveFunc:                   func(ctx context.Context, tx *domain.Transaction) error { return nil },
	}
	mockChargerSvc := &mocks.MockChargerService{
		GetChargerFunc:   func(ctx context.Context, id string) (*domain.ChargePoint, error) { return mockCharger, nil },
		UpdateStatusFunc: func(ctx context.Context, id string, status domain.ChargePointStatus) error { return nil },
	}

	var openedTx *domain.Transaction
	billingSvc := &mocks.MockBillingService{
		OpenOrderFunc: func(ctx context.Context, tx *domain.Transaction) (*domain.Order, error) {
			openedTx = tx
			return &domain.Order{TransactionID: tx.TransactionID}, nil
		},
	}
	service := NewService(mockTxRepo, &mocks.MockMeterValueRepository{}, mockChargerSvc, billingSvc, mocks.NewMockMessageQueue(), newTestLogger())

	tx, err := service.StartTransaction(ctx, chargerID, 1, "rfid-tag", 99, 500)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if tx.TransactionID != 99 {
		t.Fatalf("expected caller-supplied transactionId 99 to be honored, got %d", tx.TransactionID)
	}
	if tx.MeterStart != 500 {
		t.Fatalf("expected caller-supplied meterStart 500 to be honored, got %d", tx.MeterStart)
	}
	if openedTx == nil || openedTx.TransactionID != 99 {
		t.Fatal("expected billing order to be opened for the started transaction")
	}
}

func TestStartTransaction_ConcurrentReturnsConcurrentTxKind(t *testing.T) {
	ctx := context.Background()
	chargerID := "charger-123"

	mockCharger := &domain.ChargePoint{ID: chargerID}
	mockTxRepo := &mocks.MockTransactionRepository{
		FindOngoingByChargerIDFunc: func(ctx context.Context, id string) (*domain.Transaction, error) {
			return &domain.Transaction{TransactionID: 1}, nil
		},
	}
	mockChargerSvc := &mocks.MockChargerService{
		GetChargerFunc: func(ctx context.Context, id string) (*domain.ChargePoint, error) { return mockCharger, nil },
	}
	service := NewService(mockTxRepo, &mocks.MockMeterValueRepository{}, mockChargerSvc, &mocks.MockBillingService{}, mocks.NewMockMessageQueue(), newTestLogger())

	_, err := service.StartTransaction(ctx, chargerID, 1, "rfid", 0, 0)
	if ocpperr.KindOf(err) != ocpperr.ConcurrentTx {
		t.Fatalf("expected ConcurrentTx error kind, got %v", err)
	}
}

func TestStopTransaction_SettlesBillingOrder(t *testing.T) {
	ctx := context.Background()
	chargerID := "charger-123"
	startTime := time.Now().Add(-10 * time.Minute)

	existing := &domain.Transaction{
		TransactionID: 42,
		ChargerID:     chargerID,
		MeterStart:    1000,
		StartTime:     startTime,
		Status:        domain.TransactionStatusOngoing,
	}
	mockTxRepo := &mocks.MockTransactionRepository{
		FindByTransactionIDFunc: func(ctx context.Context, id int64) (*domain.Transaction, error) { return existing, nil },
		UpdateFunc:              func(ctx context.Context, tx *domain.Transaction) error { return nil },
	}
	mockChargerSvc := &mocks.MockChargerService{
		UpdateStatusFunc: func(ctx context.Context, id string, status domain.ChargePointStatus) error { return nil },
	}

	var settledTx *domain.Transaction
	billingSvc := &mocks.MockBillingService{
		SettleOrderFunc: func(ctx context.Context, tx *domain.Transaction) (*domain.Order, error) {
			settledTx = tx
			return &domain.Order{TransactionID: tx.TransactionID}, nil
		},
	}
	service := NewService(mockTxRepo, &mocks.MockMeterValueRepository{}, mockChargerSvc, billingSvc, mocks.NewMockMessageQueue(), newTestLogger())

	_, err := service.StopTransaction(ctx, chargerID, 42, 2000, "Local")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if settledTx == nil || settledTx.TransactionID != 42 {
		t.Fatal("expected billing order to be settled for the stopped transaction")
	}
}

func TestStartTransaction_ChargerNotFound(t *testing.T) {
	ctx := context.Background()

	mockTxRepo := &mocks.MockTransactionRepository{}
	mockChargerSvc := &mocks.MockChargerService{
		GetChargerFunc: func(ctx context.Context, id string) (*domain.ChargePoint, error) {
			return nil, nil
		},
	}
	mockQueue := mocks.NewMockMessageQueue()
	service := NewService(mockTxRepo, &mocks.MockMeterValueRepository{}, mockChargerSvc, &mocks.MockBillingService{}, mockQueue, newTestLogger())

	_, err := service.StartTransaction(ctx, "nonexistent", 1, "rfid", 0, 0)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestStartTransaction_AlreadyOngoing(t *testing.T) {
	ctx := context.Background()
	chargerID := "charger-123"

	mockCharger := &domain.ChargePoint{ID: chargerID, Status: domain.ChargePointStatusAvailable}
	existing := &domain.Transaction{ChargerID: chargerID, TransactionID: 1, Status: domain.TransactionStatusOngoing}

	mockTxRepo := &mocks.MockTransactionRepository{
		FindOngoingByChargerIDFunc: func(ctx context.Context, id string) (*domain.Transaction, error) {
			return existing, nil
		},
	}
	mockChargerSvc := &mocks.MockChargerService{
		GetChargerFunc: func(ctx context.Context, id string) (*domain.ChargePoint, error) {
			return mockCharger, nil
		},
	}
	mockQueue := mocks.NewMockMessageQueue()
	service := NewService(mockTxRepo, &mocks.MockMeterValueRepository{}, mockChargerSvc, &mocks.MockBillingService{}, mockQueue, newTestLogger())

	_, err := service.StartTransaction(ctx, chargerID, 1, "rfid", 0, 0)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestStopTransaction_Success(t *testing.T) {
	ctx := context.Background()
	chargerID := "charger-123"
	var txID int64 = 1001

	existingTx := &domain.Transaction{
		ID:            "tx-1",
		TransactionID: txID,
		ChargerID:     chargerID,
		Status:        domain.TransactionStatusOngoing,
		StartTime:     time.Now().Add(-30 * time.Minute),
		MeterStart:    0,
		ChargingRate:  7.0,
		PriceSnapshot: 0.75,
	}

	var updatedTx *domain.Transaction
	mockTxRepo := &mocks.MockTransactionRepository{
		FindByTransactionIDFunc: func(ctx context.Context, id int64) (*domain.Transaction, error) {
			if id == txID {
				return existingTx, nil
			}
			return nil, nil
		},
		UpdateFunc: func(ctx context.Context, tx *domain.Transaction) error {
			updatedTx = tx
			return nil
		},
	}

	mockChargerSvc := &mocks.MockChargerService{
		UpdateStatusFunc: func(ctx context.Context, id string, status domain.ChargePointStatus) error {
			return nil
		},
	}

	mockQueue := mocks.NewMockMessageQueue()
	service := NewService(mockTxRepo, &mocks.MockMeterValueRepository{}, mockChargerSvc, &mocks.MockBillingService{}, mockQueue, newTestLogger())

	tx, err := service.StopTransaction(ctx, chargerID, txID, 10000, "Local")

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if tx.Status != domain.TransactionStatusCompleted {
		t.Errorf("expected status completed, got %s", tx.Status)
	}
	if tx.EndTime == nil {
		t.Error("expected EndTime to be set")
	}
	if tx.EnergyKWh == nil || *tx.EnergyKWh != 10.0 {
		t.Errorf("expected 10 kWh derived from meter reading, got %v", tx.EnergyKWh)
	}
	if updatedTx == nil {
		t.Error("expected transaction to be updated")
	}

	messages := mockQueue.GetPublishedMessages("transaction.stopped")
	if len(messages) != 1 {
		t.Errorf("expected 1 transaction.stopped message, got %d", len(messages))
	}
}

func TestStopTransaction_MeterDerivedFallback(t *testing.T) {
	ctx := context.Background()
	chargerID := "charger-123"
	var txID int64 = 1002

	existingTx := &domain.Transaction{
		TransactionID: txID,
		ChargerID:     chargerID,
		Status:        domain.TransactionStatusOngoing,
		StartTime:     time.Now().Add(-60 * time.Minute),
		MeterStart:    5000,
		ChargingRate:  7.0,
		PriceSnapshot: 0.5,
	}

	mockTxRepo := &mocks.MockTransactionRepository{
		FindByTransactionIDFunc: func(ctx context.Context, id int64) (*domain.Transaction, error) {
			return existingTx, nil
		},
		UpdateFunc: func(ctx context.Context, tx *domain.Transaction) error { return nil },
	}
	mockChargerSvc := &mocks.MockChargerService{}
	mockQueue := mocks.NewMockMessageQueue()
	service := NewService(mockTxRepo, &mocks.MockMeterValueRepository{}, mockChargerSvc, &mocks.MockBillingService{}, mockQueue, newTestLogger())

	// meterStop <= meterStart: falls back to rate*duration derivation.
	tx, err := service.StopTransaction(ctx, chargerID, txID, 4000, "Local")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !tx.MeterDerived {
		t.Error("expected MeterDerived to be true")
	}
}

func TestStopTransaction_NotFound(t *testing.T) {
	ctx := context.Background()

	mockTxRepo := &mocks.MockTransactionRepository{
		FindByTransactionIDFunc: func(ctx context.Context, id int64) (*domain.Transaction, error) {
			return nil, nil
		},
	}
	mockChargerSvc := &mocks.MockChargerService{}
	mockQueue := mocks.NewMockMessageQueue()
	service := NewService(mockTxRepo, &mocks.MockMeterValueRepository{}, mockChargerSvc, &mocks.MockBillingService{}, mockQueue, newTestLogger())

	_, err := service.StopTransaction(ctx, "charger-1", 999, 100, "Local")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestStopTransaction_AlreadyCompleted(t *testing.T) {
	ctx := context.Background()

	completedTx := &domain.Transaction{TransactionID: 1, ChargerID: "charger-1", Status: domain.TransactionStatusCompleted}

	mockTxRepo := &mocks.MockTransactionRepository{
		FindByTransactionIDFunc: func(ctx context.Context, id int64) (*domain.Transaction, error) {
			return completedTx, nil
		},
	}
	mockChargerSvc := &mocks.MockChargerService{}
	mockQueue := mocks.NewMockMessageQueue()
	service := NewService(mockTxRepo, &mocks.MockMeterValueRepository{}, mockChargerSvc, &mocks.MockBillingService{}, mockQueue, newTestLogger())

	_, err := service.StopTransaction(ctx, "charger-1", 1, 100, "Local")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestGetTransactionHistory_Success(t *testing.T) {
	ctx := context.Background()
	userID := "user-123"

	history := []domain.Transaction{
		{ID: "tx-1", UserID: userID, Status: domain.TransactionStatusCompleted},
		{ID: "tx-2", UserID: userID, Status: domain.TransactionStatusCompleted},
	}

	mockTxRepo := &mocks.MockTransactionRepository{
		FindHistoryByUserIDFunc: func(ctx context.Context, uid string, limit, offset int) ([]domain.Transaction, error) {
			if uid == userID {
				return history, nil
			}
			return nil, nil
		},
	}
	mockChargerSvc := &mocks.MockChargerService{}
	mockQueue := mocks.NewMockMessageQueue()
	service := NewService(mockTxRepo, &mocks.MockMeterValueRepository{}, mockChargerSvc, &mocks.MockBillingService{}, mockQueue, newTestLogger())

	txs, err := service.GetTransactionHistory(ctx, userID, 20, 0)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(txs) != 2 {
		t.Errorf("expected 2 transactions, got %d", len(txs))
	}
}

func TestRecordMeterValue_Success(t *testing.T) {
	ctx := context.Background()
	var saved *domain.MeterValue

	mockMVRepo := &mocks.MockMeterValueRepository{
		SaveFunc: func(ctx context.Context, mv *domain.MeterValue) error {
			saved = mv
			return nil
		},
	}
	mockQueue := mocks.NewMockMessageQueue()
	service := NewService(&mocks.MockTransactionRepository{}, mockMVRepo, &mocks.MockChargerService{}, &mocks.MockBillingService{}, mockQueue, newTestLogger())

	err := service.RecordMeterValue(ctx, "charger-1", 42, domain.MeterValue{
		Measurand: "Energy.Active.Import.Register",
		Value:     123.4,
		Unit:      "Wh",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if saved == nil || saved.ChargerID != "charger-1" || saved.TransactionID != 42 {
		t.Errorf("meter value not persisted with expected charger/transaction IDs: %+v", saved)
	}
}

func TestStartTransaction_RepositoryError(t *testing.T) {
	ctx := context.Background()

	mockCharger := &domain.ChargePoint{ID: "charger-1", Status: domain.ChargePointStatusAvailable}

	mockTxRepo := &mocks.MockTransactionRepository{
		FindOngoingByChargerIDFunc: func(ctx context.Context, id string) (*domain.Transaction, error) {
			return nil, nil
		},
		SaveFunc: func(ctx context.Context, tx *domain.Transaction) error {
			return errors.New("database error")
		},
	}
	mockChargerSvc := &mocks.MockChargerService{
		GetChargerFunc: func(ctx context.Context, id string) (*domain.ChargePoint, error) {
			return mockCharger, nil
		},
	}
	mockQueue := mocks.NewMockMessageQueue()
	service := NewService(mockTxRepo, &mocks.MockMeterValueRepository{}, mockChargerSvc, &mocks.MockBillingService{}, mockQueue, newTestLogger())

	_, err := service.StartTransaction(ctx, "charger-1", 1, "rfid", 0, 0)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}
