package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/scrapbid/scrapbid-backend/pkg/db"
	"github.com/scrapbid/scrapbid-backend/pkg/enums"
	pkgerrors "github.com/scrapbid/scrapbid-backend/pkg/errors"
	"github.com/scrapbid/scrapbid-backend/pkg/logger"
	"github.com/scrapbid/scrapbid-backend/pkg/outbox"
	"github.com/scrapbid/scrapbid-backend/pkg/outbox/payloads"
)

// Service exposes account reads and the seller approval gate.
type Service interface {
	Get(ctx context.Context, id uuid.UUID) (*UserDTO, error)
	ListPendingSellers(ctx context.Context, limit int) ([]UserDTO, error)
	ApproveSeller(ctx context.Context, adminID, sellerID uuid.UUID) (*UserDTO, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// ServiceParams bundles the dependencies for the users service.
type ServiceParams struct {
	DB     txRunner
	Repo   Repository
	Outbox outboxEmitter
	Logger *logger.Logger
}

type service struct {
	db     txRunner
	repo   Repository
	outbox outboxEmitter
	logg   *logger.Logger
}

// NewService constructs the users service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("database client is required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("user repository is required")
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
		outbox: params.Outbox,
		logg:   params.Logger,
	}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*UserDTO, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	return FromModel(user), nil
}

func (s *service) ListPendingSellers(ctx context.Context, limit int) ([]UserDTO, error) {
	rows, err := s.repo.ListPendingSellers(ctx, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list pending sellers")
	}
	out := make([]UserDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, nil
}

// ApproveSeller verifies a seller account so its listings can go live. The
// flip is guarded, so approving twice reports a state conflict rather than
// emitting a duplicate event.
func (s *service) ApproveSeller(ctx context.Context, adminID, sellerID uuid.UUID) (*UserDTO, error) {
	seller, err := s.repo.FindByID(ctx, sellerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "seller not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load seller")
	}
	if seller.Role != enums.UserRoleSeller {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user is not a seller account")
	}

	txErr := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := s.repo.WithTx(tx).Approve(ctx, sellerID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "approve seller")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "seller is already approved")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventSellerApproved,
			AggregateType: enums.AggregateUser,
			AggregateID:   sellerID,
			Actor:         &outbox.ActorRef{UserID: adminID, Role: string(enums.UserRoleSuperAdmin)},
			Data: payloads.SellerApprovedEvent{
				UserID:     sellerID,
				ApprovedBy: adminID,
				ApprovedAt: time.Now().UTC(),
			},
			Version: 1,
		}
		return s.outbox.EmitIfNotExists(ctx, tx, event)
	})
	if txErr != nil {
		return nil, txErr
	}

	seller.IsApproved = true
	s.logg.Info(s.logg.WithUserID(ctx, sellerID.String()), "seller approved")
	return FromModel(seller), nil
}

var _ txRunner = (*db.Client)(nil)
