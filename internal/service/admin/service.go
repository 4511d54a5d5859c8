package admin

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/ocpp-csms/internal/domain"
	"github.com/seu-repo/ocpp-csms/internal/ports"
)

// Service implements ports.AdminService, the operator-facing dashboard and
// fleet-inspection surface.
type Service struct {
	chargerRepo     ports.ChargerRepository
	txRepo          ports.TransactionRepository
	reservationRepo ports.ReservationRepository
	alertRepo       ports.AlertRepository
	log             *zap.Logger
}

func NewService(
	chargerRepo ports.ChargerRepository,
	txRepo ports.TransactionRepository,
	reservationRepo ports.ReservationRepository,
	alertRepo ports.AlertRepository,
	log *zap.Logger,
) *Service {
	return &Service{
		chargerRepo:     chargerRepo,
		txRepo:          txRepo,
		reservationRepo: reservationRepo,
		alertRepo:       alertRepo,
		log:             log,
	}
}

func (s *Service) GetDashboardStats(ctx context.Context) (*ports.DashboardStats, error) {
	stations, err := s.chargerRepo.FindAll(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("list stations: %w", err)
	}

	stats := &ports.DashboardStats{
		TotalStations: len(stations),
	}
	activeTx := 0
	for _, st := range stations {
		if st.Status != domain.ChargePointStatusOffline && st.Status != domain.ChargePointStatusUnavailable {
			stats.OnlineStations++
		}
		if st.Status == domain.ChargePointStatusCharging {
			activeTx++
		}
	}
	stats.ActiveTransactions = activeTx

	from := time.Now().Truncate(24 * time.Hour)
	to := from.Add(24 * time.Hour)
	todays, total, err := s.txRepo.FindByDateRange(ctx, from, to, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("list today's transactions: %w", err)
	}
	stats.TodayTransactions = total
	for _, tx := range todays {
		if tx.TotalCost != nil {
			stats.TodayRevenue += *tx.TotalCost
		}
		if tx.EnergyKWh != nil {
			stats.TodayEnergyKWh += *tx.EnergyKWh
		}
	}

	unack, err := s.alertRepo.CountUnacknowledged(ctx)
	if err != nil {
		return nil, fmt.Errorf("count alerts: %w", err)
	}
	stats.ActiveAlerts = unack

	return stats, nil
}

func (s *Service) GetStations(ctx context.Context, filter ports.StationFilter, limit, offset int) ([]domain.ChargePoint, int, error) {
	f := map[string]interface{}{}
	if filter.Status != "" {
		f["status"] = filter.Status
	}
	if filter.Vendor != "" {
		f["vendor"] = filter.Vendor
	}
	if filter.Search != "" {
		f["search"] = filter.Search
	}

	stations, err := s.chargerRepo.FindAll(ctx, f)
	if err != nil {
		return nil, 0, fmt.Errorf("list stations: %w", err)
	}

	total := len(stations)
	if offset >= total {
		return []domain.ChargePoint{}, total, nil
	}
	end := offset + limit
	if limit <= 0 || end > total {
		end = total
	}
	return stations[offset:end], total, nil
}

func (s *Service) GetStationDetails(ctx context.Context, stationID string) (*ports.StationDetails, error) {
	station, err := s.chargerRepo.FindByID(ctx, stationID)
	if err != nil {
		return nil, fmt.Errorf("find station: %w", err)
	}
	if station == nil {
		return nil, fmt.Errorf("station %s not found", stationID)
	}

	details := &ports.StationDetails{Station: station}
	if !station.LastSeen.IsZero() {
		lastSeen := station.LastSeen
		details.LastHeartbeat = &lastSeen
	}

	ongoing, err := s.txRepo.FindOngoingByChargerID(ctx, stationID)
	if err != nil {
		s.log.Warn("find ongoing transaction failed", zap.String("charger_id", stationID), zap.Error(err))
	} else {
		details.OngoingTransaction = ongoing
	}

	from := time.Now().Truncate(24 * time.Hour)
	to := from.Add(24 * time.Hour)
	todays, _, err := s.txRepo.FindByDateRange(ctx, from, to, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("list today's transactions: %w", err)
	}
	var recent []domain.Transaction
	for _, tx := range todays {
		if tx.ChargerID != stationID {
			continue
		}
		details.TodayTransactions++
		if tx.TotalCost != nil {
			details.TodayRevenue += *tx.TotalCost
		}
		if tx.EnergyKWh != nil {
			details.TodayEnergyKWh += *tx.EnergyKWh
		}
		recent = append(recent, tx)
	}
	details.RecentTransactions = recent

	return details, nil
}

func (s *Service) GetTransactions(ctx context.Context, filter ports.TransactionFilter, limit, offset int) ([]domain.Transaction, int, error) {
	from, to := filter.StartDate, filter.EndDate
	if from.IsZero() {
		from = time.Now().AddDate(0, 0, -30)
	}
	if to.IsZero() {
		to = time.Now()
	}

	txs, total, err := s.txRepo.FindByDateRange(ctx, from, to, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}

	if filter.Status == "" && filter.UserID == "" && filter.ChargerID == "" {
		return txs, total, nil
	}

	filtered := make([]domain.Transaction, 0, len(txs))
	for _, tx := range txs {
		if filter.Status != "" && string(tx.Status) != filter.Status {
			continue
		}
		if filter.UserID != "" && tx.UserID != filter.UserID {
			continue
		}
		if filter.ChargerID != "" && tx.ChargerID != filter.ChargerID {
			continue
		}
		filtered = append(filtered, tx)
	}
	return filtered, len(filtered), nil
}

func (s *Service) GetAlerts(ctx context.Context, limit, offset int) ([]ports.Alert, error) {
	return s.alertRepo.GetAll(ctx, false, limit, offset)
}

func (s *Service) AcknowledgeAlert(ctx context.Context, alertID string) error {
	if err := s.alertRepo.Acknowledge(ctx, alertID); err != nil {
		return fmt.Errorf("acknowledge alert %s: %w", alertID, err)
	}
	s.log.Info("alert acknowledged", zap.String("alert_id", alertID))
	return nil
}
