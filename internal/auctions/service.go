package auctions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/scrapbid/scrapbid-backend/internal/users"
	"github.com/scrapbid/scrapbid-backend/pkg/config"
	"github.com/scrapbid/scrapbid-backend/pkg/db"
	"github.com/scrapbid/scrapbid-backend/pkg/db/models"
	"github.com/scrapbid/scrapbid-backend/pkg/enums"
	pkgerrors "github.com/scrapbid/scrapbid-backend/pkg/errors"
	"github.com/scrapbid/scrapbid-backend/pkg/logger"
	"github.com/scrapbid/scrapbid-backend/pkg/outbox"
	"github.com/scrapbid/scrapbid-backend/pkg/outbox/payloads"
	"github.com/scrapbid/scrapbid-backend/pkg/pagination"
)

const sweepBatchSize = 100

// Service defines the auction lifecycle operations.
type Service interface {
	Create(ctx context.Context, sellerID uuid.UUID, req CreateAuctionRequest) (*AuctionDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*AuctionDetailDTO, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
	EndingSoon(ctx context.Context, limit int) ([]AuctionDTO, error)
	Approve(ctx context.Context, adminID, auctionID uuid.UUID, approve bool) (*AuctionDTO, error)
	SweepExpired(ctx context.Context, now time.Time) (*SweepResult, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type userRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type bidRepository interface {
	TopByAuction(ctx context.Context, auctionID uuid.UUID, limit int) ([]models.Bid, error)
	CountByAuction(ctx context.Context, auctionID uuid.UUID) (int64, error)
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// ServiceParams bundles the dependencies for the auctions service.
type ServiceParams struct {
	DB      txRunner
	Repo    Repository
	Users   userRepository
	Bids    bidRepository
	Outbox  outboxEmitter
	Logger  *logger.Logger
	Auction config.AuctionConfig
}

type service struct {
	db     txRunner
	repo   Repository
	users  userRepository
	bids   bidRepository
	outbox outboxEmitter
	logg   *logger.Logger
	cfg    config.AuctionConfig
}

// NewService constructs the auctions service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("database client is required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("auction repository is required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.Bids == nil {
		return nil, fmt.Errorf("bid repository is required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox service is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{
		db:     params.DB,
		repo:   params.Repo,
		users:  params.Users,
		bids:   params.Bids,
		outbox: params.Outbox,
		logg:   params.Logger,
		cfg:    params.Auction,
	}, nil
}

func (s *service) Create(ctx context.Context, sellerID uuid.UUID, req CreateAuctionRequest) (*AuctionDTO, error) {
	seller, err := s.users.FindByID(ctx, sellerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "seller not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup seller")
	}
	if seller.Role != enums.UserRoleSeller {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only sellers can create auctions")
	}
	if !seller.IsApproved {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "seller account awaiting approval")
	}

	itemType, err := enums.ParseItemType(strings.ToLower(strings.TrimSpace(req.ItemType)))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid item type")
	}
	if req.StartPrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "start price cannot be negative")
	}
	now := time.Now().UTC()
	if req.EndTime.Before(now.Add(s.cfg.MinDuration)) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("end time must be at least %s from now", s.cfg.MinDuration))
	}

	var created *models.Auction
	txErr := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		auction := &models.Auction{
			Title:        strings.TrimSpace(req.Title),
			Description:  strings.TrimSpace(req.Description),
			StartPrice:   req.StartPrice,
			CurrentPrice: req.StartPrice,
			ItemType:     itemType,
			Images:       imagesToArray(req.Images),
			Status:       enums.AuctionStatusPending,
			SellerID:     sellerID,
			EndTime:      req.EndTime.UTC(),
		}
		if _, err := s.repo.WithTx(tx).Create(ctx, auction); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create auction")
		}
		created = auction

		event := outbox.DomainEvent{
			EventType:     enums.EventAuctionCreated,
			AggregateType: enums.AggregateAuction,
			AggregateID:   auction.ID,
			Actor:         &outbox.ActorRef{UserID: sellerID, Role: string(seller.Role)},
			Data: payloads.AuctionCreatedEvent{
				AuctionID:  auction.ID,
				SellerID:   sellerID,
				Title:      auction.Title,
				ItemType:   auction.ItemType,
				StartPrice: auction.StartPrice,
				EndTime:    auction.EndTime,
			},
			Version: 1,
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit auction created")
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	s.logg.Info(s.logg.WithAuctionID(ctx, created.ID.String()), "auction created")
	return FromModel(created), nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*AuctionDetailDTO, error) {
	auction, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "auction not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load auction")
	}

	top, err := s.bids.TopByAuction(ctx, id, pagination.MaxLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load auction bids")
	}
	count, err := s.bids.CountByAuction(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count auction bids")
	}

	detail := &AuctionDetailDTO{
		AuctionDTO: *FromModel(auction),
		Bids:       make([]BidSummary, 0, len(top)),
		BidCount:   count,
	}
	for _, bid := range top {
		detail.Bids = append(detail.Bids, BidSummary{
			ID:        bid.ID,
			BidderID:  bid.BidderID,
			Amount:    bid.Amount,
			CreatedAt: bid.CreatedAt,
		})
	}
	return detail, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	cursor, err := pagination.ParseCursor(params.Page.Cursor)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(params.Page.Limit)

	rows, err := s.repo.List(ctx, ListQuery{
		Status:     params.Status,
		ItemType:   params.ItemType,
		SellerID:   params.SellerID,
		IsApproved: params.IsApproved,
		Cursor:     cursor,
		Limit:      limit + 1,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list auctions")
	}

	next := ""
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}

	return &ListResult{Auctions: fromModels(rows), NextCursor: next}, nil
}

func (s *service) EndingSoon(ctx context.Context, limit int) ([]AuctionDTO, error) {
	limit = pagination.NormalizeLimit(limit)
	rows, err := s.repo.ListEndingSoon(ctx, time.Now().UTC(), s.cfg.EndingSoon, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list ending soon")
	}
	return fromModels(rows), nil
}

// Approve resolves a moderation decision. Approving activates a pending
// listing. Declining rejects a pending listing, or cancels one that is
// already active.
func (s *service) Approve(ctx context.Context, adminID, auctionID uuid.UUID, approve bool) (*AuctionDTO, error) {
	auction, err := s.repo.FindByID(ctx, auctionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "auction not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load auction")
	}

	if approve {
		return s.activate(ctx, adminID, auction)
	}

	switch auction.Status {
	case enums.AuctionStatusPending:
		return s.reject(ctx, adminID, auction)
	case enums.AuctionStatusActive:
		return s.cancel(ctx, adminID, auction)
	default:
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("auction in state %s cannot be declined", auction.Status))
	}
}

func (s *service) activate(ctx context.Context, adminID uuid.UUID, auction *models.Auction) (*AuctionDTO, error) {
	if auction.Status != enums.AuctionStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("auction in state %s cannot be approved", auction.Status))
	}

	seller, err := s.users.FindByID(ctx, auction.SellerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup seller")
	}
	if !seller.IsApproved {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "seller account awaiting approval")
	}
	if !auction.EndTime.After(time.Now().UTC()) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "auction end time already passed")
	}

	txErr := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		rows, err := repo.TransitionStatus(ctx, auction.ID, enums.AuctionStatusPending, enums.AuctionStatusActive,
			map[string]any{"is_approved": true})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "activate auction")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "auction is no longer pending")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventAuctionApproved,
			AggregateType: enums.AggregateAuction,
			AggregateID:   auction.ID,
			Actor:         &outbox.ActorRef{UserID: adminID, Role: string(enums.UserRoleSuperAdmin)},
			Data: payloads.AuctionApprovedEvent{
				AuctionID:  auction.ID,
				SellerID:   auction.SellerID,
				ApprovedBy: adminID,
				EndTime:    auction.EndTime,
			},
			Version: 1,
		}
		return s.outbox.Emit(ctx, tx, event)
	})
	if txErr != nil {
		return nil, txErr
	}

	auction.Status = enums.AuctionStatusActive
	auction.IsApproved = true
	s.logg.Info(s.logg.WithAuctionID(ctx, auction.ID.String()), "auction approved")
	return FromModel(auction), nil
}

func (s *service) reject(ctx context.Context, adminID uuid.UUID, auction *models.Auction) (*AuctionDTO, error) {
	txErr := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		rows, err := repo.TransitionStatus(ctx, auction.ID, enums.AuctionStatusPending, enums.AuctionStatusRejected,
			map[string]any{"is_approved": false})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reject auction")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "auction is no longer pending")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventAuctionRejected,
			AggregateType: enums.AggregateAuction,
			AggregateID:   auction.ID,
			Actor:         &outbox.ActorRef{UserID: adminID, Role: string(enums.UserRoleSuperAdmin)},
			Data: payloads.AuctionRejectedEvent{
				AuctionID:  auction.ID,
				SellerID:   auction.SellerID,
				RejectedBy: adminID,
			},
			Version: 1,
		}
		return s.outbox.Emit(ctx, tx, event)
	})
	if txErr != nil {
		return nil, txErr
	}

	auction.Status = enums.AuctionStatusRejected
	auction.IsApproved = false
	s.logg.Info(s.logg.WithAuctionID(ctx, auction.ID.String()), "auction rejected")
	return FromModel(auction), nil
}

func (s *service) cancel(ctx context.Context, adminID uuid.UUID, auction *models.Auction) (*AuctionDTO, error) {
	txErr := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		rows, err := repo.TransitionStatus(ctx, auction.ID, enums.AuctionStatusActive, enums.AuctionStatusCancelled,
			map[string]any{"is_approved": false})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "cancel auction")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "auction is no longer active")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventAuctionCancelled,
			AggregateType: enums.AggregateAuction,
			AggregateID:   auction.ID,
			Actor:         &outbox.ActorRef{UserID: adminID, Role: string(enums.UserRoleSuperAdmin)},
			Data: payloads.AuctionCancelledEvent{
				AuctionID:   auction.ID,
				SellerID:    auction.SellerID,
				CancelledBy: adminID,
				CancelledAt: time.Now().UTC(),
			},
			Version: 1,
		}
		return s.outbox.Emit(ctx, tx, event)
	})
	if txErr != nil {
		return nil, txErr
	}

	auction.Status = enums.AuctionStatusCancelled
	auction.IsApproved = false
	s.logg.Info(s.logg.WithAuctionID(ctx, auction.ID.String()), "auction cancelled")
	return FromModel(auction), nil
}

// SweepExpired closes every active auction whose end time has passed. Each
// auction settles in its own transaction so one failure cannot poison the
// batch; the returned error aggregates per-auction failures.
func (s *service) SweepExpired(ctx context.Context, now time.Time) (*SweepResult, error) {
	expired, err := s.repo.FindExpiredActive(ctx, now, sweepBatchSize)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find expired auctions")
	}

	result := &SweepResult{}
	var sweepErr error
	for i := range expired {
		auction := expired[i]
		if err := s.endAuction(ctx, &auction); err != nil {
			sweepErr = multierr.Append(sweepErr, fmt.Errorf("auction %s: %w", auction.ID, err))
			continue
		}
		result.Processed++
		result.Ended = append(result.Ended, auction.ID)
	}
	return result, sweepErr
}

func (s *service) endAuction(ctx context.Context, auction *models.Auction) error {
	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		rows, err := repo.MarkEnded(ctx, auction.ID)
		if err != nil {
			return fmt.Errorf("mark ended: %w", err)
		}
		if rows == 0 {
			// Another sweep or an admin already resolved this auction.
			return nil
		}

		// The guarded update above holds the auction row lock. A bid
		// transaction still in flight has either committed, making its
		// bid visible here, or will fail its active-status guard when
		// it resumes. Reading the winner any earlier can miss the last
		// bid and settle on a stale price.
		winner, err := repo.HighestBid(ctx, auction.ID)
		if err != nil {
			return fmt.Errorf("find highest bid: %w", err)
		}
		var winnerID *uuid.UUID
		finalPrice := auction.StartPrice
		if winner != nil {
			winnerID = &winner.BidderID
			finalPrice = winner.Amount
			if err := repo.SetWinner(ctx, auction.ID, winner.BidderID); err != nil {
				return fmt.Errorf("record winner: %w", err)
			}
		}

		count, err := repo.CountBids(ctx, auction.ID)
		if err != nil {
			return fmt.Errorf("count bids: %w", err)
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventAuctionEnded,
			AggregateType: enums.AggregateAuction,
			AggregateID:   auction.ID,
			Data: payloads.AuctionEndedEvent{
				AuctionID:  auction.ID,
				SellerID:   auction.SellerID,
				WinnerID:   winnerID,
				FinalPrice: finalPrice,
				BidCount:   int(count),
				EndedAt:    time.Now().UTC(),
			},
			Version: 1,
		}
		if err := s.outbox.EmitIfNotExists(ctx, tx, event); err != nil {
			return fmt.Errorf("emit auction ended: %w", err)
		}

		fields := map[string]any{"winner_present": winnerID != nil, "final_price": finalPrice.String()}
		s.logg.Info(s.logg.WithFields(s.logg.WithAuctionID(ctx, auction.ID.String()), fields), "auction ended")
		return nil
	})
}

var (
	_ txRunner       = (*db.Client)(nil)
	_ userRepository = (users.Repository)(nil)
)
