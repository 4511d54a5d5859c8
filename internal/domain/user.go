package domain

import (
	"time"
)

type UserRole string

const (
	UserRoleAdmin    UserRole = "admin"
	UserRoleOperator UserRole = "operator"
	UserRoleUser     UserRole = "user"
)

type User struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name"`
	Email     string    `json:"email" gorm:"uniqueIndex"`
	IdTag     string    `json:"id_tag" gorm:"index"` // RFID/authorization tag bound to this user
	Password  string    `json:"-"`                   // Hashed password
	Role      UserRole  `json:"role"`
	Status    string    `json:"status"` // Active, Inactive, Blocked
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
