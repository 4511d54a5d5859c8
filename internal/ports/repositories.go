package ports

import (
	"context"
	"time"

	"github.com/seu-repo/ocpp-csms/internal/domain"
)

// Cache is the key-value cache abstraction backing device status and
// session lookups, satisfied by both internal/adapter/cache.RedisCache and
// its in-memory LocalCache fallback.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, key string) error
	Ping() error
	Close() error
}

// ChargerRepository persists Charger aggregates.
type ChargerRepository interface {
	Save(ctx context.Context, cp *domain.ChargePoint) error
	FindByID(ctx context.Context, id string) (*domain.ChargePoint, error)
	FindAll(ctx context.Context, filter map[string]interface{}) ([]domain.ChargePoint, error)
	UpdateStatus(ctx context.Context, id string, status domain.ChargePointStatus) error
	FindNearby(ctx context.Context, lat, lon, radius float64) ([]domain.ChargePoint, error)
}

// TransactionRepository persists Transaction records.
type TransactionRepository interface {
	Save(ctx context.Context, tx *domain.Transaction) error
	FindByID(ctx context.Context, id string) (*domain.Transaction, error)
	FindByTransactionID(ctx context.Context, transactionID int64) (*domain.Transaction, error)
	FindOngoingByChargerID(ctx context.Context, chargerID string) (*domain.Transaction, error)
	FindHistoryByUserID(ctx context.Context, userID string, limit, offset int) ([]domain.Transaction, error)
	FindByDateRange(ctx context.Context, from, to time.Time, limit, offset int) ([]domain.Transaction, int, error)
	Update(ctx context.Context, tx *domain.Transaction) error
}

// OrderRepository persists Order billing records.
type OrderRepository interface {
	Save(ctx context.Context, order *domain.Order) error
	FindByTransactionID(ctx context.Context, transactionID int64) (*domain.Order, error)
	FindByUserID(ctx context.Context, userID string, limit, offset int) ([]domain.Order, error)
	Update(ctx context.Context, order *domain.Order) error
}

// MeterValueRepository persists sampled meter readings.
type MeterValueRepository interface {
	Save(ctx context.Context, mv *domain.MeterValue) error
	FindByTransactionID(ctx context.Context, transactionID int64) ([]domain.MeterValue, error)
}

// ChargerConfigurationRepository persists per-charger OCPP configuration keys.
type ChargerConfigurationRepository interface {
	Upsert(ctx context.Context, cfg *domain.ChargerConfiguration) error
	Get(ctx context.Context, chargerID, key string) (*domain.ChargerConfiguration, error)
	List(ctx context.Context, chargerID string) ([]domain.ChargerConfiguration, error)
}

// OCPPErrorLogRepository persists the handler/persistence failure audit trail.
type OCPPErrorLogRepository interface {
	Append(ctx context.Context, entry *domain.OCPPErrorLog) error
	FindByChargerID(ctx context.Context, chargerID string, limit, offset int) ([]domain.OCPPErrorLog, error)
}

// HeartbeatEventRepository persists Heartbeat occurrences for uptime queries.
type HeartbeatEventRepository interface {
	Record(ctx context.Context, ev *domain.HeartbeatEvent) error
	DailyCounts(ctx context.Context, chargerID string, from, to time.Time) (map[string]int, error)
}

// StatusEventRepository persists StatusNotification occurrences.
type StatusEventRepository interface {
	Record(ctx context.Context, ev *domain.StatusEvent) error
	HourlyDistribution(ctx context.Context, chargerID string, from, to time.Time) (map[int]int, error)
}

// UserRepository persists User accounts.
type UserRepository interface {
	Save(ctx context.Context, user *domain.User) error
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByIdTag(ctx context.Context, idTag string) (*domain.User, error)
}

// ReservationRepository handles reservation persistence.
type ReservationRepository interface {
	Save(ctx context.Context, reservation *domain.Reservation) error
	GetByID(ctx context.Context, id string) (*domain.Reservation, error)
	GetByUserID(ctx context.Context, userID string, status string, limit, offset int) ([]domain.Reservation, error)
	GetByChargePointID(ctx context.Context, chargePointID string, date time.Time) ([]domain.Reservation, error)
	GetByTimeRange(ctx context.Context, chargePointID string, connectorID int, startTime, endTime time.Time) ([]domain.Reservation, error)
	GetActiveByUserID(ctx context.Context, userID string) ([]domain.Reservation, error)
	GetExpired(ctx context.Context, gracePeriod time.Duration) ([]domain.Reservation, error)
	UpdateStatus(ctx context.Context, id string, status domain.ReservationStatus) error
	Delete(ctx context.Context, id string) error
	CountByUserAndStatus(ctx context.Context, userID string, statuses []domain.ReservationStatus) (int, error)
}

// AlertRepository handles operator alert persistence.
type AlertRepository interface {
	Save(ctx context.Context, alert *Alert) error
	GetByID(ctx context.Context, id string) (*Alert, error)
	GetAll(ctx context.Context, acknowledged bool, limit, offset int) ([]Alert, error)
	Acknowledge(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	CountUnacknowledged(ctx context.Context) (int, error)
}

// Alert is an operator-facing notice surfaced from OCPPErrorLog/health checks.
type Alert struct {
	ID           string
	Type         string
	Severity     string
	Title        string
	Message      string
	Source       string
	SourceID     string
	Acknowledged bool
	CreatedAt    time.Time
}
