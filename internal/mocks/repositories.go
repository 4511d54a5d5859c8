package mocks

import (
	"context"
	"time"

	"github.com/seu-repo/ocpp-csms/internal/domain"
)

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	SaveFunc        func(ctx context.Context, user *domain.User) error
	FindByIDFunc    func(ctx context.Context, id string) (*domain.User, error)
	FindByEmailFunc func(ctx context.Context, email string) (*domain.User, error)
	FindByIdTagFunc func(ctx context.Context, idTag string) (*domain.User, error)
}

func (m *MockUserRepository) Save(ctx context.Context, user *domain.User) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, user)
	}
	return nil
}

func (m *MockUserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.FindByEmailFunc != nil {
		return m.FindByEmailFunc(ctx, email)
	}
	return nil, nil
}

func (m *MockUserRepository) FindByIdTag(ctx context.Context, idTag string) (*domain.User, error) {
	if m.FindByIdTagFunc != nil {
		return m.FindByIdTagFunc(ctx, idTag)
	}
	return nil, nil
}

// MockChargerRepository is a mock implementation of ChargerRepository
type MockChargerRepository struct {
	SaveFunc         func(ctx context.Context, cp *domain.ChargePoint) error
	FindByIDFunc     func(ctx context.Context, id string) (*domain.ChargePoint, error)
	FindAllFunc      func(ctx context.Context, filter map[string]interface{}) ([]domain.ChargePoint, error)
	UpdateStatusFunc func(ctx context.Context, id string, status domain.ChargePointStatus) error
	FindNearbyFunc   func(ctx context.Context, lat, lon, radius float64) ([]domain.ChargePoint, error)
}

func (m *MockChargerRepository) Save(ctx context.Context, cp *domain.ChargePoint) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, cp)
	}
	return nil
}

func (m *MockChargerRepository) FindByID(ctx context.Context, id string) (*domain.ChargePoint, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockChargerRepository) FindAll(ctx context.Context, filter map[string]interface{}) ([]domain.ChargePoint, error) {
	if m.FindAllFunc != nil {
		return m.FindAllFunc(ctx, filter)
	}
	return []domain.ChargePoint{}, nil
}

func (m *MockChargerRepository) UpdateStatus(ctx context.Context, id string, status domain.ChargePointStatus) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, id, status)
	}
	return nil
}

func (m *MockChargerRepository) FindNearby(ctx context.Context, lat, lon, radius float64) ([]domain.ChargePoint, error) {
	if m.FindNearbyFunc != nil {
		return m.FindNearbyFunc(ctx, lat, lon, radius)
	}
	return []domain.ChargePoint{}, nil
}

// MockTransactionRepository is a mock implementation of TransactionRepository
type MockTransactionRepository struct {
	SaveFunc                   func(ctx context.Context, tx *domain.Transaction) error
	FindByIDFunc               func(ctx context.Context, id string) (*domain.Transaction, error)
	FindByTransactionIDFunc    func(ctx context.Context, transactionID int64) (*domain.Transaction, error)
	FindOngoingByChargerIDFunc func(ctx context.Context, chargerID string) (*domain.Transaction, error)
	FindHistoryByUserIDFunc    func(ctx context.Context, userID string, limit, offset int) ([]domain.Transaction, error)
	FindByDateRangeFunc        func(ctx context.Context, from, to time.Time, limit, offset int) ([]domain.Transaction, int, error)
	UpdateFunc                 func(ctx context.Context, tx *domain.Transaction) error
}

func (m *MockTransactionRepository) Save(ctx context.Context, tx *domain.Transaction) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx)
	}
	return nil
}

func (m *MockTransactionRepository) FindByID(ctx context.Context, id string) (*domain.Transaction, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockTransactionRepository) FindByTransactionID(ctx context.Context, transactionID int64) (*domain.Transaction, error) {
	if m.FindByTransactionIDFunc != nil {
		return m.FindByTransactionIDFunc(ctx, transactionID)
	}
	return nil, nil
}

func (m *MockTransactionRepository) FindOngoingByChargerID(ctx context.Context, chargerID string) (*domain.Transaction, error) {
	if m.FindOngoingByChargerIDFunc != nil {
		return m.FindOngoingByChargerIDFunc(ctx, chargerID)
	}
	return nil, nil
}

func (m *MockTransactionRepository) FindHistoryByUserID(ctx context.Context, userID string, limit, offset int) ([]domain.Transaction, error) {
	if m.FindHistoryByUserIDFunc != nil {
		return m.FindHistoryByUserIDFunc(ctx, userID, limit, offset)
	}
	return []domain.Transaction{}, nil
}

func (m *MockTransactionRepository) FindByDateRange(ctx context.Context, from, to time.Time, limit, offset int) ([]domain.Transaction, int, error) {
	if m.FindByDateRangeFunc != nil {
		return m.FindByDateRangeFunc(ctx, from, to, limit, offset)
	}
	return []domain.Transaction{}, 0, nil
}

func (m *MockTransactionRepository) Update(ctx context.Context, tx *domain.Transaction) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, tx)
	}
	return nil
}

// MockMeterValueRepository is a mock implementation of MeterValueRepository
type MockMeterValueRepository struct {
	SaveFunc                func(ctx context.Context, mv *domain.MeterValue) error
	FindByTransactionIDFunc func(ctx context.Context, transactionID int64) ([]domain.MeterValue, error)
}

func (m *MockMeterValueRepository) Save(ctx context.Context, mv *domain.MeterValue) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, mv)
	}
	return nil
}

func (m *MockMeterValueRepository) FindByTransactionID(ctx context.Context, transactionID int64) ([]domain.MeterValue, error) {
	if m.FindByTransactionIDFunc != nil {
		return m.FindByTransactionIDFunc(ctx, transactionID)
	}
	return []domain.MeterValue{}, nil
}

// MockOrderRepository is a mock implementation of OrderRepository
type MockOrderRepository struct {
	SaveFunc                func(ctx context.Context, order *domain.Order) error
	FindByTransactionIDFunc func(ctx context.Context, transactionID int64) (*domain.Order, error)
	FindByUserIDFunc        func(ctx context.Context, userID string, limit, offset int) ([]domain.Order, error)
	UpdateFunc              func(ctx context.Context, order *domain.Order) error
}

func (m *MockOrderRepository) Save(ctx context.Context, order *domain.Order) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, order)
	}
	return nil
}

func (m *MockOrderRepository) FindByTransactionID(ctx context.Context, transactionID int64) (*domain.Order, error) {
	if m.FindByTransactionIDFunc != nil {
		return m.FindByTransactionIDFunc(ctx, transactionID)
	}
	return nil, nil
}

func (m *MockOrderRepository) FindByUserID(ctx context.Context, userID string, limit, offset int) ([]domain.Order, error) {
	if m.FindByUserIDFunc != nil {
		return m.FindByUserIDFunc(ctx, userID, limit, offset)
	}
	return []domain.Order{}, nil
}

// MockOCPPErrorLogRepository is a mock implementation of OCPPErrorLogRepository
type MockOCPPErrorLogRepository struct {
	AppendFunc          func(ctx context.Context, entry *domain.OCPPErrorLog) error
	FindByChargerIDFunc func(ctx context.Context, chargerID string, limit, offset int) ([]domain.OCPPErrorLog, error)
}

func (m *MockOCPPErrorLogRepository) Append(ctx context.Context, entry *domain.OCPPErrorLog) error {
	if m.AppendFunc != nil {
		return m.AppendFunc(ctx, entry)
	}
	return nil
}

func (m *MockOCPPErrorLogRepository) FindByChargerID(ctx context.Context, chargerID string, limit, offset int) ([]domain.OCPPErrorLog, error) {
	if m.FindByChargerIDFunc != nil {
		return m.FindByChargerIDFunc(ctx, chargerID, limit, offset)
	}
	return []domain.OCPPErrorLog{}, nil
}

// MockHeartbeatEventRepository is a mock implementation of HeartbeatEventRepository
type MockHeartbeatEventRepository struct {
	RecordFunc      func(ctx context.Context, ev *domain.HeartbeatEvent) error
	DailyCountsFunc func(ctx context.Context, chargerID string, from, to time.Time) (map[string]int, error)
}

func (m *MockHeartbeatEventRepository) Record(ctx context.Context, ev *domain.HeartbeatEvent) error {
	if m.RecordFunc != nil {
		return m.RecordFunc(ctx, ev)
	}
	return nil
}

func (m *MockHeartbeatEventRepository) DailyCounts(ctx context.Context, chargerID string, from, to time.Time) (map[string]int, error) {
	if m.DailyCountsFunc != nil {
		return m.DailyCountsFunc(ctx, chargerID, from, to)
	}
	return map[string]int{}, nil
}

// MockStatusEventRepository is a mock implementation of StatusEventRepository
type MockStatusEventRepository struct {
	RecordFunc             func(ctx context.Context, ev *domain.StatusEvent) error
	HourlyDistributionFunc func(ctx context.Context, chargerID string, from, to time.Time) (map[int]int, error)
}

func (m *MockStatusEventRepository) Record(ctx context.Context, ev *domain.StatusEvent) error {
	if m.RecordFunc != nil {
		return m.RecordFunc(ctx, ev)
	}
	return nil
}

func (m *MockStatusEventRepository) HourlyDistribution(ctx context.Context, chargerID string, from, to time.Time) (map[int]int, error) {
	if m.HourlyDistributionFunc != nil {
		return m.HourlyDistributionFunc(ctx, chargerID, from, to)
	}
	return map[int]int{}, nil
}

func (m *MockOrderRepository) Update(ctx context.Context, order *domain.Order) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, order)
	}
	return nil
}
