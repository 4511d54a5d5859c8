package mocks

import (
	"context"

	"github.com/seu-repo/ocpp-csms/internal/domain"
)

// MockChargerService is a mock implementation of ports.ChargerService.
type MockChargerService struct {
	GetChargerFunc        func(ctx context.Context, id string) (*domain.ChargePoint, error)
	ListChargersFunc      func(ctx context.Context, filter map[string]interface{}) ([]domain.ChargePoint, error)
	UpdateStatusFunc      func(ctx context.Context, id string, status domain.ChargePointStatus) error
	GetNearbyFunc         func(ctx context.Context, lat, lon, radius float64) ([]domain.ChargePoint, error)
	EnsureRegisteredFunc  func(ctx context.Context, id, vendor, model, serial, firmware string) (*domain.ChargePoint, error)
}

func (m *MockChargerService) GetCharger(ctx context.Context, id string) (*domain.ChargePoint, error) {
	if m.GetChargerFunc != nil {
		return m.GetChargerFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockChargerService) ListChargers(ctx context.Context, filter map[string]interface{}) ([]domain.ChargePoint, error) {
	if m.ListChargersFunc != nil {
		return m.ListChargersFunc(ctx, filter)
	}
	return []domain.ChargePoint{}, nil
}

func (m *MockChargerService) UpdateStatus(ctx context.Context, id string, status domain.ChargePointStatus) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, id, status)
	}
	return nil
}

func (m *MockChargerService) GetNearby(ctx context.Context, lat, lon, radius float64) ([]domain.ChargePoint, error) {
	if m.GetNearbyFunc != nil {
		return m.GetNearbyFunc(ctx, lat, lon, radius)
	}
	return []domain.ChargePoint{}, nil
}

func (m *MockChargerService) EnsureRegistered(ctx context.Context, id, vendor, model, serial, firmware string) (*domain.ChargePoint, error) {
	if m.EnsureRegisteredFunc != nil {
		return m.EnsureRegisteredFunc(ctx, id, vendor, model, serial, firmware)
	}
	return &domain.ChargePoint{ID: id, Vendor: vendor, Model: model}, nil
}

// MockAuthService is a mock implementation of ports.AuthService.
type MockAuthService struct {
	LoginFunc         func(ctx context.Context, email, password string) (string, string, error)
	RegisterFunc      func(ctx context.Context, user *domain.User) error
	RefreshTokenFunc  func(ctx context.Context, token string) (string, error)
	ValidateTokenFunc func(ctx context.Context, token string) (*domain.User, error)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (string, string, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, email, password)
	}
	return "", "", nil
}

func (m *MockAuthService) Register(ctx context.Context, user *domain.User) error {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, user)
	}
	return nil
}

func (m *MockAuthService) RefreshToken(ctx context.Context, token string) (string, error) {
	if m.RefreshTokenFunc != nil {
		return m.RefreshTokenFunc(ctx, token)
	}
	return "", nil
}

func (m *MockAuthService) ValidateToken(ctx context.Context, token string) (*domain.User, error) {
	if m.ValidateTokenFunc != nil {
		return m.ValidateTokenFunc(ctx, token)
	}
	return nil, nil
}

// MockTransactionService is a mock implementation of ports.TransactionService.
type MockTransactionService struct {
	StartTransactionFunc      func(ctx context.Context, chargerID string, connectorID int, idTag string, transactionID int64, meterStart int) (*domain.Transaction, error)
	StopTransactionFunc       func(ctx context.Context, chargerID string, transactionID int64, meterStop int, reason string) (*domain.Transaction, error)
	GetTransactionFunc        func(ctx context.Context, id string) (*domain.Transaction, error)
	GetOngoingByChargerIDFunc func(ctx context.Context, chargerID string) (*domain.Transaction, error)
	GetTransactionHistoryFunc func(ctx context.Context, userID string, limit, offset int) ([]domain.Transaction, error)
	RecordMeterValueFunc      func(ctx context.Context, chargerID string, transactionID int64, mv domain.MeterValue) error
}

func (m *MockTransactionService) StartTransaction(ctx context.Context, chargerID string, connectorID int, idTag string, transactionID int64, meterStart int) (*domain.Transaction, error) {
	if m.StartTransactionFunc != nil {
		return m.StartTransactionFunc(ctx, chargerID, connectorID, idTag, transactionID, meterStart)
	}
	return nil, nil
}

func (m *MockTransactionService) StopTransaction(ctx context.Context, chargerID string, transactionID int64, meterStop int, reason string) (*domain.Transaction, error) {
	if m.StopTransactionFunc != nil {
		return m.StopTransactionFunc(ctx, chargerID, transactionID, meterStop, reason)
	}
	return nil, nil
}

func (m *MockTransactionService) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	if m.GetTransactionFunc != nil {
		return m.GetTransactionFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockTransactionService) GetOngoingByChargerID(ctx context.Context, chargerID string) (*domain.Transaction, error) {
	if m.GetOngoingByChargerIDFunc != nil {
		return m.GetOngoingByChargerIDFunc(ctx, chargerID)
	}
	return nil, nil
}

func (m *MockTransactionService) GetTransactionHistory(ctx context.Context, userID string, limit, offset int) ([]domain.Transaction, error) {
	if m.GetTransactionHistoryFunc != nil {
		return m.GetTransactionHistoryFunc(ctx, userID, limit, offset)
	}
	return []domain.Transaction{}, nil
}

func (m *MockTransactionService) RecordMeterValue(ctx context.Context, chargerID string, transactionID int64, mv domain.MeterValue) error {
	if m.RecordMeterValueFunc != nil {
		return m.RecordMeterValueFunc(ctx, chargerID, transactionID, mv)
	}
	return nil
}

// MockBillingService is a mock implementation of ports.BillingService.
type MockBillingService struct {
	OpenOrderFunc      func(ctx context.Context, tx *domain.Transaction) (*domain.Order, error)
	SettleOrderFunc    func(ctx context.Context, tx *domain.Transaction) (*domain.Order, error)
	CalculateCostFunc  func(ctx context.Context, energyKWh, pricePerKWh float64) float64
}

func (m *MockBillingService) OpenOrder(ctx context.Context, tx *domain.Transaction) (*domain.Order, error) {
	if m.OpenOrderFunc != nil {
		return m.OpenOrderFunc(ctx, tx)
	}
	return &domain.Order{TransactionID: tx.TransactionID, ChargerID: tx.ChargerID}, nil
}

func (m *MockBillingService) SettleOrder(ctx context.Context, tx *domain.Transaction) (*domain.Order, error) {
	if m.SettleOrderFunc != nil {
		return m.SettleOrderFunc(ctx, tx)
	}
	return &domain.Order{TransactionID: tx.TransactionID, ChargerID: tx.ChargerID}, nil
}

func (m *MockBillingService) CalculateCost(ctx context.Context, energyKWh, pricePerKWh float64) float64 {
	if m.CalculateCostFunc != nil {
		return m.CalculateCostFunc(ctx, energyKWh, pricePerKWh)
	}
	return energyKWh * pricePerKWh
}
