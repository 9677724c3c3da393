package bids

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/scrapbid/scrapbid-backend/pkg/db/models"
)

// PlaceBidRequest is the payload buyers submit against an auction.
type PlaceBidRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"required"`
}

// BidDTO is the transport shape for an accepted bid.
type BidDTO struct {
	ID        uuid.UUID       `json:"id"`
	AuctionID uuid.UUID       `json:"auction_id"`
	BidderID  uuid.UUID       `json:"bidder_id"`
	Amount    decimal.Decimal `json:"amount"`
	CreatedAt time.Time       `json:"created_at"`
}

// ListResult carries one page of bids plus the follow-up cursor.
type ListResult struct {
	Bids       []BidDTO `json:"bids"`
	NextCursor string   `json:"next_cursor,omitempty"`
}

func FromModel(b *models.Bid) *BidDTO {
	if b == nil {
		return nil
	}
	return &BidDTO{
		ID:        b.ID,
		AuctionID: b.AuctionID,
		BidderID:  b.BidderID,
		Amount:    b.Amount,
		CreatedAt: b.CreatedAt,
	}
}

func fromModels(rows []models.Bid) []BidDTO {
	out := make([]BidDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out
}
