package bids

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/scrapbid/scrapbid-backend/internal/auctions"
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

// Service defines bid placement and read operations.
type Service interface {
	Place(ctx context.Context, bidderID, auctionID uuid.UUID, req PlaceBidRequest) (*BidDTO, error)
	ListByAuction(ctx context.Context, auctionID uuid.UUID, page pagination.Params) (*ListResult, error)
	ListByBidder(ctx context.Context, bidderID uuid.UUID, page pagination.Params) (*ListResult, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type userRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// ServiceParams bundles the dependencies for the bids service.
type ServiceParams struct {
	DB       txRunner
	Repo     Repository
	Auctions auctions.Repository
	Users    userRepository
	Outbox   outboxEmitter
	Logger   *logger.Logger
	Auction  config.AuctionConfig
	Now      func() time.Time
}

type service struct {
	db       txRunner
	repo     Repository
	auctions auctions.Repository
	users    userRepository
	outbox   outboxEmitter
	logg     *logger.Logger
	cfg      config.AuctionConfig
	now      func() time.Time
}

// NewService constructs the bids service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("database client is required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("bid repository is required")
	}
	if params.Auctions == nil {
		return nil, fmt.Errorf("auction repository is required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox service is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if params.Auction.MaxBidAttempts <= 0 {
		return nil, fmt.Errorf("max bid attempts must be positive")
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{
		db:       params.DB,
		repo:     params.Repo,
		auctions: params.Auctions,
		users:    params.Users,
		outbox:   params.Outbox,
		logg:     params.Logger,
		cfg:      params.Auction,
		now:      now,
	}, nil
}

// Place validates a bid against the auction's current state and accepts it
// with a compare-and-swap on the auction price. When a concurrent bid moves
// the price first, the checks rerun against the fresh row and the swap is
// retried up to the configured attempt limit.
func (s *service) Place(ctx context.Context, bidderID, auctionID uuid.UUID, req PlaceBidRequest) (*BidDTO, error) {
	bidder, err := s.users.FindByID(ctx, bidderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "bidder not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup bidder")
	}

	for attempt := 1; attempt <= s.cfg.MaxBidAttempts; attempt++ {
		auction, err := s.auctions.FindByID(ctx, auctionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "auction not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load auction")
		}

		now := s.now()
		if err := s.checkBid(auction, bidder, req, now); err != nil {
			return nil, err
		}

		bid, err := s.tryAccept(ctx, auction, bidder, req, now)
		if err != nil {
			return nil, err
		}
		if bid == nil {
			// Price moved under us; reload and revalidate.
			continue
		}

		fields := map[string]any{"bid_id": bid.ID.String(), "amount": bid.Amount.String(), "attempt": attempt}
		s.logg.Info(s.logg.WithFields(s.logg.WithAuctionID(ctx, auctionID.String()), fields), "bid accepted")
		return FromModel(bid), nil
	}

	return nil, pkgerrors.New(pkgerrors.CodeConflict, "auction is receiving heavy bidding, please retry")
}

// checkBid runs the acceptance preconditions in a fixed order so a request
// that fails several always reports the same error.
func (s *service) checkBid(auction *models.Auction, bidder *models.User, req PlaceBidRequest, now time.Time) error {
	switch auction.Status {
	case enums.AuctionStatusActive:
	case enums.AuctionStatusPending:
		return pkgerrors.New(pkgerrors.CodeStateConflict, "auction is not open for bidding yet")
	default:
		return pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("auction in state %s does not accept bids", auction.Status))
	}
	if !auction.IsApproved {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "auction has not been approved")
	}
	if !auction.EndTime.After(now) {
		return pkgerrors.New(pkgerrors.CodeExpired, "auction has ended")
	}
	if auction.SellerID == bidder.ID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "sellers cannot bid on their own auctions")
	}
	if !req.Amount.GreaterThan(auction.CurrentPrice) {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("bid must exceed current price %s", auction.CurrentPrice.String()))
	}
	if bidder.Funds.LessThan(req.Amount) {
		return pkgerrors.New(pkgerrors.CodeInsufficientFunds, "insufficient funds to cover this bid")
	}
	return nil
}

// tryAccept performs one swap attempt. A nil bid with a nil error means the
// observed price was stale and the caller should retry.
func (s *service) tryAccept(ctx context.Context, auction *models.Auction, bidder *models.User, req PlaceBidRequest, now time.Time) (*models.Bid, error) {
	var accepted *models.Bid
	txErr := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := s.auctions.WithTx(tx).AdvancePrice(ctx, auction.ID, auction.CurrentPrice, req.Amount, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "advance price")
		}
		if rows == 0 {
			return errStalePrice
		}

		bid := &models.Bid{
			AuctionID: auction.ID,
			BidderID:  bidder.ID,
			Amount:    req.Amount,
		}
		if err := s.repo.WithTx(tx).Insert(ctx, bid); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "insert bid")
		}
		accepted = bid

		event := outbox.DomainEvent{
			EventType:     enums.EventBidPlaced,
			AggregateType: enums.AggregateBid,
			AggregateID:   bid.ID,
			Actor:         &outbox.ActorRef{UserID: bidder.ID, Role: string(bidder.Role)},
			Data: payloads.BidPlacedEvent{
				BidID:     bid.ID,
				AuctionID: auction.ID,
				BidderID:  bidder.ID,
				Amount:    bid.Amount,
				PlacedAt:  bid.CreatedAt,
			},
			Version: 1,
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit bid placed")
		}
		return nil
	})
	if txErr != nil {
		if errors.Is(txErr, errStalePrice) {
			return nil, nil
		}
		return nil, txErr
	}
	return accepted, nil
}

func (s *service) ListByAuction(ctx context.Context, auctionID uuid.UUID, page pagination.Params) (*ListResult, error) {
	cursor, err := pagination.ParseCursor(page.Cursor)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(page.Limit)

	rows, err := s.repo.ListByAuction(ctx, auctionID, cursor, limit+1)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list auction bids")
	}
	return paginate(rows, limit), nil
}

func (s *service) ListByBidder(ctx context.Context, bidderID uuid.UUID, page pagination.Params) (*ListResult, error) {
	cursor, err := pagination.ParseCursor(page.Cursor)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(page.Limit)

	rows, err := s.repo.ListByBidder(ctx, bidderID, cursor, limit+1)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list bidder bids")
	}
	return paginate(rows, limit), nil
}

func paginate(rows []models.Bid, limit int) *ListResult {
	next := ""
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return &ListResult{Bids: fromModels(rows), NextCursor: next}
}

var errStalePrice = errors.New("observed price is stale")

var (
	_ txRunner       = (*db.Client)(nil)
	_ userRepository = (users.Repository)(nil)
)
