package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Bid is an immutable offer tied to one auction and one bidder. Rows are
// append-only; they form the audit trail behind every price movement.
type Bid struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AuctionID uuid.UUID       `gorm:"column:auction_id;type:uuid;not null;index"`
	BidderID  uuid.UUID       `gorm:"column:bidder_id;type:uuid;not null;index"`
	Bidder    *User           `gorm:"foreignKey:BidderID"`
	Amount    decimal.Decimal `gorm:"column:amount;type:numeric(12,2);not null"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}
