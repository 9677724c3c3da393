package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/scrapbid/scrapbid-backend/pkg/enums"
)

// User represents the canonical identity entity: buyers, sellers and admins.
type User struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email        string          `gorm:"column:email;type:text;not null;uniqueIndex"`
	PasswordHash string          `gorm:"column:password_hash;not null"`
	Name         string          `gorm:"column:name;not null"`
	Role         enums.UserRole  `gorm:"column:role;type:user_role;not null;default:'buyer'"`
	IsApproved   bool            `gorm:"column:is_approved;not null;default:false"`
	Funds        decimal.Decimal `gorm:"column:funds;type:numeric(12,2);not null;default:0"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
