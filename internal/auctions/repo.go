package auctions

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/scrapbid/scrapbid-backend/pkg/db/models"
	"github.com/scrapbid/scrapbid-backend/pkg/enums"
	"github.com/scrapbid/scrapbid-backend/pkg/pagination"
)

// Repository defines persistence operations for auctions.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, auction *models.Auction) (*models.Auction, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Auction, error)
	List(ctx context.Context, opts ListQuery) ([]models.Auction, error)
	ListEndingSoon(ctx context.Context, now time.Time, window time.Duration, limit int) ([]models.Auction, error)
	FindExpiredActive(ctx context.Context, now time.Time, limit int) ([]models.Auction, error)
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to enums.AuctionStatus, extra map[string]any) (int64, error)
	AdvancePrice(ctx context.Context, id uuid.UUID, observed, amount decimal.Decimal, now time.Time) (int64, error)
	MarkEnded(ctx context.Context, id uuid.UUID) (int64, error)
	SetWinner(ctx context.Context, id, winnerID uuid.UUID) error
	HighestBid(ctx context.Context, auctionID uuid.UUID) (*models.Bid, error)
	CountBids(ctx context.Context, auctionID uuid.UUID) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository constructs an auctions repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// WithTx returns a copy of the repository bound to the supplied transaction.
func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Create inserts a new auction row.
func (r *repository) Create(ctx context.Context, auction *models.Auction) (*models.Auction, error) {
	if err := r.db.WithContext(ctx).Create(auction).Error; err != nil {
		return nil, err
	}
	return auction, nil
}

// FindByID loads a single auction.
func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Auction, error) {
	var auction models.Auction
	if err := r.db.WithContext(ctx).First(&auction, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &auction, nil
}

// ListQuery carries the filters and cursor for a paginated auction listing.
type ListQuery struct {
	Status     *enums.AuctionStatus
	ItemType   *enums.ItemType
	SellerID   *uuid.UUID
	IsApproved *bool
	Cursor     *pagination.Cursor
	Limit      int
}

// List returns auctions using cursor pagination, newest first.
func (r *repository) List(ctx context.Context, opts ListQuery) ([]models.Auction, error) {
	query := r.db.WithContext(ctx).Model(&models.Auction{})

	if opts.Status != nil {
		query = query.Where("status = ?", *opts.Status)
	}
	if opts.ItemType != nil {
		query = query.Where("item_type = ?", *opts.ItemType)
	}
	if opts.SellerID != nil {
		query = query.Where("seller_id = ?", *opts.SellerID)
	}
	if opts.IsApproved != nil {
		query = query.Where("is_approved = ?", *opts.IsApproved)
	}
	if opts.Cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", opts.Cursor.CreatedAt, opts.Cursor.CreatedAt, opts.Cursor.ID)
	}

	query = query.Order("created_at DESC").Order("id DESC").Limit(opts.Limit)

	var rows []models.Auction
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListEndingSoon returns active auctions closing within the window, soonest first.
func (r *repository) ListEndingSoon(ctx context.Context, now time.Time, window time.Duration, limit int) ([]models.Auction, error) {
	var rows []models.Auction
	err := r.db.WithContext(ctx).
		Where("status = ? AND end_time > ? AND end_time <= ?", enums.AuctionStatusActive, now, now.Add(window)).
		Order("end_time ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// FindExpiredActive returns active auctions whose end time has passed.
func (r *repository) FindExpiredActive(ctx context.Context, now time.Time, limit int) ([]models.Auction, error) {
	var rows []models.Auction
	err := r.db.WithContext(ctx).
		Where("status = ? AND end_time <= ?", enums.AuctionStatusActive, now).
		Order("end_time ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// TransitionStatus moves an auction between states only when it still sits in
// the expected source state. RowsAffected reveals lost races.
func (r *repository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to enums.AuctionStatus, extra map[string]any) (int64, error) {
	updates := map[string]any{"status": to}
	for k, v := range extra {
		updates[k] = v
	}
	result := r.db.WithContext(ctx).
		Model(&models.Auction{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	return result.RowsAffected, result.Error
}

// AdvancePrice performs the compare-and-swap that accepts a bid: the update
// only lands when the auction is still active, unexpired, and priced exactly
// as the caller last observed it.
func (r *repository) AdvancePrice(ctx context.Context, id uuid.UUID, observed, amount decimal.Decimal, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Auction{}).
		Where("id = ? AND status = ? AND current_price = ? AND end_time > ?", id, enums.AuctionStatusActive, observed, now).
		UpdateColumn("current_price", amount)
	return result.RowsAffected, result.Error
}

// MarkEnded closes an expired auction with a guarded status flip. A zero
// RowsAffected means another sweep got there first. The update also takes
// the row lock, so callers inside a transaction can resolve the winner
// afterwards without racing late bids.
func (r *repository) MarkEnded(ctx context.Context, id uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Auction{}).
		Where("id = ? AND status = ?", id, enums.AuctionStatusActive).
		UpdateColumn("status", enums.AuctionStatusEnded)
	return result.RowsAffected, result.Error
}

// SetWinner records the winning bidder on an auction.
func (r *repository) SetWinner(ctx context.Context, id, winnerID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Auction{}).
		Where("id = ?", id).
		UpdateColumn("winner_id", winnerID).Error
}

// HighestBid returns the winning candidate for an auction: highest amount,
// earliest placed on a tie. Nil result means the auction drew no bids.
func (r *repository) HighestBid(ctx context.Context, auctionID uuid.UUID) (*models.Bid, error) {
	var bid models.Bid
	err := r.db.WithContext(ctx).
		Where("auction_id = ?", auctionID).
		Order("amount DESC").
		Order("created_at ASC").
		Order("id ASC").
		First(&bid).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &bid, nil
}

// CountBids reports how many bids an auction received.
func (r *repository) CountBids(ctx context.Context, auctionID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Bid{}).
		Where("auction_id = ?", auctionID).
		Count(&count).Error
	return count, err
}
