package auctions

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/scrapbid/scrapbid-backend/pkg/db/models"
	"github.com/scrapbid/scrapbid-backend/pkg/enums"
	"github.com/scrapbid/scrapbid-backend/pkg/pagination"
)

// CreateAuctionRequest is the payload sellers submit to list an item.
type CreateAuctionRequest struct {
	Title       string          `json:"title" validate:"required,max=200"`
	Description string          `json:"description" validate:"required"`
	StartPrice  decimal.Decimal `json:"start_price" validate:"required"`
	ItemType    string          `json:"item_type" validate:"required"`
	Images      []string        `json:"images" validate:"max=10,dive,url"`
	EndTime     time.Time       `json:"end_time" validate:"required"`
}

// AuctionDTO is the transport shape for a listing.
type AuctionDTO struct {
	ID           uuid.UUID           `json:"id"`
	Title        string              `json:"title"`
	Description  string              `json:"description"`
	StartPrice   decimal.Decimal     `json:"start_price"`
	CurrentPrice decimal.Decimal     `json:"current_price"`
	ItemType     enums.ItemType      `json:"item_type"`
	Images       []string            `json:"images"`
	Status       enums.AuctionStatus `json:"status"`
	IsApproved   bool                `json:"is_approved"`
	SellerID     uuid.UUID           `json:"seller_id"`
	WinnerID     *uuid.UUID          `json:"winner_id,omitempty"`
	EndTime      time.Time           `json:"end_time"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// BidSummary is the compact bid shape embedded in an auction detail view.
type BidSummary struct {
	ID        uuid.UUID       `json:"id"`
	BidderID  uuid.UUID       `json:"bidder_id"`
	Amount    decimal.Decimal `json:"amount"`
	CreatedAt time.Time       `json:"created_at"`
}

// AuctionDetailDTO is a listing together with its bid history, highest first.
type AuctionDetailDTO struct {
	AuctionDTO
	Bids     []BidSummary `json:"bids"`
	BidCount int64        `json:"bid_count"`
}

// ListParams filters the auction listing queries.
type ListParams struct {
	Status     *enums.AuctionStatus
	ItemType   *enums.ItemType
	SellerID   *uuid.UUID
	IsApproved *bool
	Page       pagination.Params
}

// ListResult carries one page of auctions plus the follow-up cursor.
type ListResult struct {
	Auctions   []AuctionDTO `json:"auctions"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

// SweepResult summarizes one lifecycle sweep pass.
type SweepResult struct {
	Processed int
	Ended     []uuid.UUID
}

func FromModel(a *models.Auction) *AuctionDTO {
	if a == nil {
		return nil
	}
	return &AuctionDTO{
		ID:           a.ID,
		Title:        a.Title,
		Description:  a.Description,
		StartPrice:   a.StartPrice,
		CurrentPrice: a.CurrentPrice,
		ItemType:     a.ItemType,
		Images:       append([]string(nil), []string(a.Images)...),
		Status:       a.Status,
		IsApproved:   a.IsApproved,
		SellerID:     a.SellerID,
		WinnerID:     a.WinnerID,
		EndTime:      a.EndTime,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

func fromModels(rows []models.Auction) []AuctionDTO {
	out := make([]AuctionDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out
}

func imagesToArray(images []string) pq.StringArray {
	if images == nil {
		return pq.StringArray{}
	}
	return pq.StringArray(images)
}
