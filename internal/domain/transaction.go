package domain

import (
	"time"
)

// TransactionStatus is the lifecycle state of a Transaction/Order pair.
type TransactionStatus string

const (
	TransactionStatusOngoing   TransactionStatus = "ongoing"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusCancelled TransactionStatus = "cancelled"
)

// Transaction is the protocol-level record of one charging event.
// TransactionID is the integer surfaced on the wire (caller-supplied or
// epoch-seconds); ID is the surrogate primary key. Exactly one row per
// charger may be TransactionStatusOngoing at a time (invariant T1).
type Transaction struct {
	ID              string            `json:"id" gorm:"primaryKey"`
	TransactionID   int64             `json:"transaction_id" gorm:"uniqueIndex"`
	ChargerID       string            `json:"charger_id" gorm:"index"`
	IdTag           string            `json:"id_tag"`
	UserID          string            `json:"user_id" gorm:"index"`
	StartTime       time.Time         `json:"start_time"`
	EndTime         *time.Time        `json:"end_time,omitempty"`
	MeterStart      int               `json:"meter_start"`
	MeterStop       *int              `json:"meter_stop,omitempty"`
	EnergyKWh       *float64          `json:"energy_kwh,omitempty"`
	DurationMinutes *float64          `json:"duration_minutes,omitempty"`
	ChargingRate    float64           `json:"charging_rate_kw"`
	PriceSnapshot   float64           `json:"price_snapshot"`
	TotalCost       *float64          `json:"total_cost,omitempty"`
	Status          TransactionStatus `json:"status" gorm:"index"`
	MeterDerived    bool              `json:"meter_derived"` // true when EnergyKWh came from the rate/duration formula rather than a real meter reading
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// DerivedEnergyKWh applies invariant T3's derivation rule: rate(kW) * duration(min) / 60.
func DerivedEnergyKWh(chargingRateKW float64, durationMinutes float64) float64 {
	return chargingRateKW * durationMinutes / 60.0
}

// DurationMinutesBetween computes the minutes between start and end.
func DurationMinutesBetween(start, end time.Time) float64 {
	return end.Sub(start).Seconds() / 60.0
}
