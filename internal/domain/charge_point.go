package domain

import (
	"time"
)

// ChargePointStatus mirrors the OCPP 1.6 ChargePointStatus vocabulary.
type ChargePointStatus string

const (
	ChargePointStatusUnknown        ChargePointStatus = "Unknown"
	ChargePointStatusAvailable      ChargePointStatus = "Available"
	ChargePointStatusPreparing      ChargePointStatus = "Preparing"
	ChargePointStatusCharging       ChargePointStatus = "Charging"
	ChargePointStatusSuspendedEV    ChargePointStatus = "SuspendedEV"
	ChargePointStatusSuspendedEVSE  ChargePointStatus = "SuspendedEVSE"
	ChargePointStatusFinishing      ChargePointStatus = "Finishing"
	ChargePointStatusReserved       ChargePointStatus = "Reserved"
	ChargePointStatusUnavailable    ChargePointStatus = "Unavailable"
	ChargePointStatusFaulted        ChargePointStatus = "Faulted"
	ChargePointStatusOffline        ChargePointStatus = "Offline"
)

// ChargePoint is the aggregate root for a physical charger. Session state
// (active transaction/order, authorization, meter) is not stored here - it
// lives in the in-memory session store and is derived at load, see
// internal/session.
type ChargePoint struct {
	ID              string            `json:"id" gorm:"primaryKey"`
	Vendor          string            `json:"vendor"`
	Model           string            `json:"model"`
	SerialNumber    string            `json:"serial_number"`
	FirmwareVersion string            `json:"firmware_version"`
	ConnectorType   string            `json:"connector_type"`
	ChargingRateKW  float64           `json:"charging_rate_kw"`
	PricePerKWh     float64           `json:"price_per_kwh"`
	Status          ChargePointStatus `json:"status"`
	Latitude        float64           `json:"latitude"`
	Longitude       float64           `json:"longitude"`
	Address         string            `json:"address"`
	LastSeen        time.Time         `json:"last_seen"`
	Active          bool              `json:"active" gorm:"default:true"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// IsAvailableInvariantSatisfied checks invariant C1: a charger reporting
// Available must carry no active transaction/order in its session.
func (c *ChargePoint) IsAvailableInvariantSatisfied(hasActiveTx bool) bool {
	if c.Status != ChargePointStatusAvailable {
		return true
	}
	return !hasActiveTx
}
