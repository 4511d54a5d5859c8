package domain

import "time"

// OrderStatus mirrors TransactionStatus but lives on the operator-facing
// Order record, which may outlive the protocol-level Transaction it bills.
type OrderStatus string

const (
	OrderStatusOpen      OrderStatus = "open"
	OrderStatusSettled   OrderStatus = "settled"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Order is the billing record derived from a Transaction (invariant O1):
// it is created when the transaction starts and settled when it stops,
// carrying the same energy/cost snapshot so billing survives even if the
// Transaction row is later pruned.
type Order struct {
	ID            string      `json:"id" gorm:"primaryKey"`
	TransactionID int64       `json:"transaction_id" gorm:"uniqueIndex"`
	ChargerID     string      `json:"charger_id" gorm:"index"`
	UserID        string      `json:"user_id" gorm:"index"`
	Status        OrderStatus `json:"status" gorm:"index"`
	EnergyKWh     float64     `json:"energy_kwh"`
	PricePerKWh   float64     `json:"price_per_kwh"`
	TotalCost     float64     `json:"total_cost"`
	StartTime     time.Time   `json:"start_time"`
	EndTime       *time.Time  `json:"end_time,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}
