package bids

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/scrapbid/scrapbid-backend/pkg/db/models"
	"github.com/scrapbid/scrapbid-backend/pkg/pagination"
)

// Repository exposes bid persistence operations. Bids are append-only; there
// are no update or delete paths.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Insert(ctx context.Context, bid *models.Bid) error
	ListByAuction(ctx context.Context, auctionID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Bid, error)
	ListByBidder(ctx context.Context, bidderID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Bid, error)
	TopByAuction(ctx context.Context, auctionID uuid.UUID, limit int) ([]models.Bid, error)
	Highest(ctx context.Context, auctionID uuid.UUID) (*models.Bid, error)
	CountByAuction(ctx context.Context, auctionID uuid.UUID) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository constructs a bids repo bound to the provided GORM DB.
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

// Insert appends a bid row.
func (r *repository) Insert(ctx context.Context, bid *models.Bid) error {
	return r.db.WithContext(ctx).Create(bid).Error
}

// ListByAuction returns an auction's bids using cursor pagination, newest first.
func (r *repository) ListByAuction(ctx context.Context, auctionID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Bid, error) {
	query := r.db.WithContext(ctx).Model(&models.Bid{}).Where("auction_id = ?", auctionID)

	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	query = query.Order("created_at DESC").Order("id DESC").Limit(limit)

	var rows []models.Bid
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListByBidder returns a bidder's bids using cursor pagination, newest first.
func (r *repository) ListByBidder(ctx context.Context, bidderID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Bid, error) {
	query := r.db.WithContext(ctx).Model(&models.Bid{}).Where("bidder_id = ?", bidderID)

	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	query = query.Order("created_at DESC").Order("id DESC").Limit(limit)

	var rows []models.Bid
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// TopByAuction returns an auction's bids ranked by amount, highest first.
// Ties resolve in placement order.
func (r *repository) TopByAuction(ctx context.Context, auctionID uuid.UUID, limit int) ([]models.Bid, error) {
	var rows []models.Bid
	err := r.db.WithContext(ctx).
		Where("auction_id = ?", auctionID).
		Order("amount DESC").
		Order("created_at ASC").
		Order("id ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Highest returns the winning candidate: highest amount, earliest placed on a
// tie. Nil result means the auction received no bids.
func (r *repository) Highest(ctx context.Context, auctionID uuid.UUID) (*models.Bid, error) {
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

// CountByAuction reports how many bids an auction received.
func (r *repository) CountByAuction(ctx context.Context, auctionID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Bid{}).
		Where("auction_id = ?", auctionID).
		Count(&count).Error
	return count, err
}
