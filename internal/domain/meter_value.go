package domain

import "time"

// MeterValue is one sampled reading from a charger's nested
// meterValue[].sampledValue[] array, measurand Energy.Active.Import.Register.
type MeterValue struct {
	ID            string    `json:"id" gorm:"primaryKey"`
	ChargerID     string    `json:"charger_id" gorm:"index"`
	TransactionID int64     `json:"transaction_id" gorm:"index"`
	Timestamp     time.Time `json:"timestamp"`
	Measurand     string    `json:"measurand"`
	Value         float64   `json:"value"`
	Unit          string    `json:"unit"`
	Context       string    `json:"context,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// ChargerConfiguration is a persisted OCPP configuration key/value pair,
// scoped per charger, populated by GetConfiguration/ChangeConfiguration.
type ChargerConfiguration struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	ChargerID string    `json:"charger_id" gorm:"index:idx_charger_key,unique"`
	Key       string    `json:"key" gorm:"index:idx_charger_key,unique"`
	Value     string    `json:"value"`
	Readonly  bool      `json:"readonly"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OCPPErrorLogKind mirrors ocpperr.Kind for persisted rows without an
// import cycle back into the ocpperr package.
type OCPPErrorLogKind string

// OCPPErrorLog is the durable record behind the "failure logged" requirement:
// every handler error and every persistence Transient failure is appended
// here for operator visibility.
type OCPPErrorLog struct {
	ID        string           `json:"id" gorm:"primaryKey"`
	ChargerID string           `json:"charger_id" gorm:"index"`
	Action    string           `json:"action"`
	Kind      OCPPErrorLogKind `json:"kind" gorm:"index"`
	Message   string           `json:"message"`
	CreatedAt time.Time        `json:"created_at" gorm:"index"`
}
