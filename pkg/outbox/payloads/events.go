package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/scrapbid/scrapbid-backend/pkg/enums"
)

// AuctionCreatedEvent signals a seller submitted a listing for review.
type AuctionCreatedEvent struct {
	AuctionID  uuid.UUID       `json:"auction_id"`
	SellerID   uuid.UUID       `json:"seller_id"`
	Title      string          `json:"title"`
	ItemType   enums.ItemType  `json:"item_type"`
	StartPrice decimal.Decimal `json:"start_price"`
	EndTime    time.Time       `json:"end_time"`
}

// AuctionApprovedEvent is emitted when an admin activates a pending listing.
type AuctionApprovedEvent struct {
	AuctionID  uuid.UUID `json:"auction_id"`
	SellerID   uuid.UUID `json:"seller_id"`
	ApprovedBy uuid.UUID `json:"approved_by"`
	EndTime    time.Time `json:"end_time"`
}

// AuctionRejectedEvent is emitted when an admin rejects a pending listing.
type AuctionRejectedEvent struct {
	AuctionID  uuid.UUID `json:"auction_id"`
	SellerID   uuid.UUID `json:"seller_id"`
	RejectedBy uuid.UUID `json:"rejected_by"`
	Reason     string    `json:"reason,omitempty"`
}

// AuctionCancelledEvent is emitted when an active listing is pulled down.
type AuctionCancelledEvent struct {
	AuctionID   uuid.UUID `json:"auction_id"`
	SellerID    uuid.UUID `json:"seller_id"`
	CancelledBy uuid.UUID `json:"cancelled_by"`
	CancelledAt time.Time `json:"cancelled_at"`
}

// AuctionEndedEvent carries the settlement result for an expired auction.
type AuctionEndedEvent struct {
	AuctionID  uuid.UUID       `json:"auction_id"`
	SellerID   uuid.UUID       `json:"seller_id"`
	WinnerID   *uuid.UUID      `json:"winner_id,omitempty"`
	FinalPrice decimal.Decimal `json:"final_price"`
	BidCount   int             `json:"bid_count"`
	EndedAt    time.Time       `json:"ended_at"`
}

// BidPlacedEvent is emitted for every accepted bid.
type BidPlacedEvent struct {
	BidID     uuid.UUID       `json:"bid_id"`
	AuctionID uuid.UUID       `json:"auction_id"`
	BidderID  uuid.UUID       `json:"bidder_id"`
	Amount    decimal.Decimal `json:"amount"`
	PlacedAt  time.Time       `json:"placed_at"`
}

// SellerApprovedEvent signals an admin verified a seller account.
type SellerApprovedEvent struct {
	UserID     uuid.UUID `json:"user_id"`
	ApprovedBy uuid.UUID `json:"approved_by"`
	ApprovedAt time.Time `json:"approved_at"`
}
