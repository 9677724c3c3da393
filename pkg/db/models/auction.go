package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/scrapbid/scrapbid-backend/pkg/enums"
)

// Auction represents a timed listing whose price rises with competing bids.
//
// CurrentPrice is the single contended column: every accepted bid advances it
// through a guarded update, so it always equals the highest accepted bid (or
// StartPrice when no bids exist).
type Auction struct {
	ID           uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Title        string              `gorm:"column:title;not null"`
	Description  string              `gorm:"column:description;not null"`
	StartPrice   decimal.Decimal     `gorm:"column:start_price;type:numeric(12,2);not null"`
	CurrentPrice decimal.Decimal     `gorm:"column:current_price;type:numeric(12,2);not null"`
	ItemType     enums.ItemType      `gorm:"column:item_type;type:item_type;not null"`
	Images       pq.StringArray      `gorm:"column:images;type:text[];default:ARRAY[]::text[]"`
	Status       enums.AuctionStatus `gorm:"column:status;type:auction_status;not null;default:'pending'"`
	IsApproved   bool                `gorm:"column:is_approved;not null;default:false"`
	SellerID     uuid.UUID           `gorm:"column:seller_id;type:uuid;not null;index"`
	Seller       *User               `gorm:"foreignKey:SellerID"`
	WinnerID     *uuid.UUID          `gorm:"column:winner_id;type:uuid"`
	EndTime      time.Time           `gorm:"column:end_time;not null;index"`
	Bids         []Bid               `gorm:"foreignKey:AuctionID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
