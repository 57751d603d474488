package model

import "time"

// Operator roles.
const (
	RoleAdmin    = "admin"
	RoleOperator = "operator"
)

// Operator is a staff member allowed to act on rooms.
type Operator struct {
	ID           int64     `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:128;not null" json:"name"`
	Email        string    `gorm:"uniqueIndex;size:256;not null" json:"email"`
	PasswordHash string    `gorm:"size:128;not null" json:"-"`
	Role         string    `gorm:"size:32;not null;default:operator" json:"role"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
}
