package ports

import (
	"context"
	"time"

	"github.com/seu-repo/ocpp-csms/internal/domain"
)

type AuthService interface {
	Login(ctx context.Context, email, password string) (string, string, error) // access, refresh, err
	Register(ctx context.Context, user *domain.User) error
	RefreshToken(ctx context.Context, token string) (string, error)
	ValidateToken(ctx context.Context, token string) (*domain.User, error)
}

// ChargerService backs the admin API's charger listing/lookup and the
// dispatcher's status-transition writes.
type ChargerService interface {
	GetCharger(ctx context.Context, id string) (*domain.ChargePoint, error)
	ListChargers(ctx context.Context, filter map[string]interface{}) ([]domain.ChargePoint, error)
	UpdateStatus(ctx context.Context, id string, status domain.ChargePointStatus) error
	GetNearby(ctx context.Context, lat, lon, radius float64) ([]domain.ChargePoint, error)
	EnsureRegistered(ctx context.Context, id, vendor, model, serial, firmware string) (*domain.ChargePoint, error)
}

// TransactionService implements the StartTransaction/StopTransaction
// lifecycle and invariants T1-T3.
type TransactionService interface {
	StartTransaction(ctx context.Context, chargerID string, connectorID int, idTag string, transactionID int64, meterStart int) (*domain.Transaction, error)
	StopTransaction(ctx context.Context, chargerID string, transactionID int64, meterStop int, reason string) (*domain.Transaction, error)
	GetTransaction(ctx context.Context, id string) (*domain.Transaction, error)
	GetOngoingByChargerID(ctx context.Context, chargerID string) (*domain.Transaction, error)
	GetTransactionHistory(ctx context.Context, userID string, limit, offset int) ([]domain.Transaction, error)
	RecordMeterValue(ctx context.Context, chargerID string, transactionID int64, mv domain.MeterValue) error
}

// BillingService derives Order records and cost snapshots from Transactions.
type BillingService interface {
	OpenOrder(ctx context.Context, tx *domain.Transaction) (*domain.Order, error)
	SettleOrder(ctx context.Context, tx *domain.Transaction) (*domain.Order, error)
	CalculateCost(ctx context.Context, energyKWh, pricePerKWh float64) float64
}

// ReservationService handles charging station reservations.
type ReservationService interface {
	CreateReservation(ctx context.Context, req *ReservationRequest) (*domain.Reservation, error)
	GetReservation(ctx context.Context, id string) (*domain.Reservation, error)
	GetUserReservations(ctx context.Context, userID string, status string, limit, offset int) ([]domain.Reservation, error)
	GetStationReservations(ctx context.Context, chargePointID string, date time.Time) ([]domain.Reservation, error)
	CancelReservation(ctx context.Context, id string, userID string, reason string) error
	ConfirmReservation(ctx context.Context, id string) error
	ActivateReservation(ctx context.Context, id string, transactionID string) error
	CompleteReservation(ctx context.Context, id string) error
	CheckAvailability(ctx context.Context, chargePointID string, connectorID int, startTime, endTime time.Time) (bool, error)
	ProcessExpiredReservations(ctx context.Context) error
}

// ReservationRequest represents a reservation creation request.
type ReservationRequest struct {
	UserID        string
	ChargePointID string
	ConnectorID   int
	StartTime     time.Time
	Duration      int // minutes
	Notes         string
}

// AdminService backs the chi-mounted operator surface.
type AdminService interface {
	GetDashboardStats(ctx context.Context) (*DashboardStats, error)
	GetStations(ctx context.Context, filter StationFilter, limit, offset int) ([]domain.ChargePoint, int, error)
	GetStationDetails(ctx context.Context, stationID string) (*StationDetails, error)
	GetTransactions(ctx context.Context, filter TransactionFilter, limit, offset int) ([]domain.Transaction, int, error)
	GetAlerts(ctx context.Context, limit, offset int) ([]Alert, error)
	AcknowledgeAlert(ctx context.Context, alertID string) error
}

// DashboardStats summarizes fleet-wide state for the admin dashboard.
type DashboardStats struct {
	TotalStations      int     `json:"total_stations"`
	OnlineStations     int     `json:"online_stations"`
	ActiveTransactions int     `json:"active_transactions"`
	TodayTransactions  int     `json:"today_transactions"`
	TodayRevenue       float64 `json:"today_revenue"`
	TodayEnergyKWh     float64 `json:"today_energy_kwh"`
	ActiveAlerts       int     `json:"active_alerts"`
}

// StationFilter filters the station listing.
type StationFilter struct {
	Status string
	Vendor string
	Search string
}

// TransactionFilter filters the transaction listing.
type TransactionFilter struct {
	Status    string
	UserID    string
	ChargerID string
	StartDate time.Time
	EndDate   time.Time
}

// StationDetails provides detailed station information for the admin API.
type StationDetails struct {
	Station            *domain.ChargePoint  `json:"station"`
	TodayTransactions  int                  `json:"today_transactions"`
	TodayRevenue       float64              `json:"today_revenue"`
	TodayEnergyKWh     float64              `json:"today_energy_kwh"`
	LastHeartbeat      *time.Time           `json:"last_heartbeat,omitempty"`
	OngoingTransaction *domain.Transaction  `json:"ongoing_transaction,omitempty"`
	RecentTransactions []domain.Transaction `json:"recent_transactions,omitempty"`
}

// --- OCPP Command Service ---

// OCPPCommandService provides OCPP commands from CSMS to charge points,
// implemented by internal/command.Dispatcher.
type OCPPCommandService interface {
	RemoteStartTransaction(ctx context.Context, chargerID, idTag string, connectorID *int) error
	RemoteStopTransaction(ctx context.Context, chargerID string, transactionID int64) error
	Reset(ctx context.Context, chargerID string, resetType string) error
	TriggerMessage(ctx context.Context, chargerID, requestedMessage string, connectorID *int) error
	UnlockConnector(ctx context.Context, chargerID string, connectorID int) error
	ChangeAvailability(ctx context.Context, chargerID string, connectorID int, availabilityType string) error
	GetConfiguration(ctx context.Context, chargerID string, keys []string) (map[string]string, error)
	ChangeConfiguration(ctx context.Context, chargerID, key, value string) error
	SetChargingProfile(ctx context.Context, chargerID string, connectorID int, profile ChargingProfile) error
	ClearChargingProfile(ctx context.Context, chargerID string, profileID *int) error
	UpdateFirmware(ctx context.Context, chargerID, firmwareURL string, retrieveDateTime time.Time) error
	GetDiagnostics(ctx context.Context, chargerID, uploadURL string) error
	ReserveNow(ctx context.Context, chargerID string, connectorID int, expiryDate time.Time, idTag string, reservationID int) error
	CancelReservation(ctx context.Context, chargerID string, reservationID int) error

	IsConnected(chargerID string) bool
	GetConnectedChargers() []string
}

// ChargingProfile is the SetChargingProfile payload, carried as an opaque
// struct through the dispatcher since the CSMS never interprets it.
type ChargingProfile struct {
	ProfileID        int     `json:"chargingProfileId"`
	StackLevel       int     `json:"stackLevel"`
	ProfilePurpose   string  `json:"chargingProfilePurpose"`
	ProfileKind      string  `json:"chargingProfileKind"`
	LimitA           float64 `json:"limitAmps,omitempty"`
	ValidFrom        *time.Time `json:"validFrom,omitempty"`
	ValidTo          *time.Time `json:"validTo,omitempty"`
}

// --- Message Queue ---

// MessageQueue publishes domain events (transaction.started, billing.events,
// ...) to whichever broker the node is configured with.
type MessageQueue interface {
	Publish(topic string, message interface{}) error
	Subscribe(topic string, handler func(message []byte)) error
	Close() error
}
