package users

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/scrapbid/scrapbid-backend/pkg/db/models"
	"github.com/scrapbid/scrapbid-backend/pkg/enums"
	pkgerrors "github.com/scrapbid/scrapbid-backend/pkg/errors"
	"github.com/scrapbid/scrapbid-backend/pkg/logger"
	"github.com/scrapbid/scrapbid-backend/pkg/outbox"
)

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeUserRepo struct {
	users       map[uuid.UUID]*models.User
	approveRows map[uuid.UUID]int64
	approved    []uuid.UUID
}

func (f *fakeUserRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeUserRepo) Create(ctx context.Context, dto CreateUserDTO) (*models.User, error) {
	return nil, nil
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserRepo) ListPendingSellers(ctx context.Context, limit int) ([]models.User, error) {
	var rows []models.User
	for _, u := range f.users {
		if u.Role == enums.UserRoleSeller && !u.IsApproved {
			rows = append(rows, *u)
		}
	}
	return rows, nil
}

func (f *fakeUserRepo) Approve(ctx context.Context, id uuid.UUID) (int64, error) {
	rows, ok := f.approveRows[id]
	if !ok {
		rows = 1
	}
	if rows > 0 {
		f.approved = append(f.approved, id)
	}
	return rows, nil
}

type fakeOutbox struct {
	dedupEvents []outbox.DomainEvent
}

func (f *fakeOutbox) EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	f.dedupEvents = append(f.dedupEvents, event)
	return nil
}

func buildService(t *testing.T, repo *fakeUserRepo, emitter *fakeOutbox) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		DB:     stubTxRunner{},
		Repo:   repo,
		Outbox: emitter,
		Logger: logger.New(logger.Options{Output: io.Discard}),
	})
	require.NoError(t, err)
	return svc
}

func assertCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	require.Error(t, err)
	var appErr *pkgerrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, code, appErr.Code())
}

func TestApproveSellerFlipsFlagAndEmits(t *testing.T) {
	sellerID := uuid.New()
	adminID := uuid.New()
	repo := &fakeUserRepo{users: map[uuid.UUID]*models.User{
		sellerID: {ID: sellerID, Role: enums.UserRoleSeller},
	}}
	emitter := &fakeOutbox{}
	svc := buildService(t, repo, emitter)

	dto, err := svc.ApproveSeller(context.Background(), adminID, sellerID)
	require.NoError(t, err)

	assert.True(t, dto.IsApproved)
	assert.Equal(t, []uuid.UUID{sellerID}, repo.approved)

	require.Len(t, emitter.dedupEvents, 1)
	event := emitter.dedupEvents[0]
	assert.Equal(t, enums.EventSellerApproved, event.EventType)
	assert.Equal(t, enums.AggregateUser, event.AggregateType)
	assert.Equal(t, sellerID, event.AggregateID)
}

func TestApproveSellerTwiceConflicts(t *testing.T) {
	sellerID := uuid.New()
	repo := &fakeUserRepo{
		users:       map[uuid.UUID]*models.User{sellerID: {ID: sellerID, Role: enums.UserRoleSeller, IsApproved: true}},
		approveRows: map[uuid.UUID]int64{sellerID: 0},
	}
	emitter := &fakeOutbox{}
	svc := buildService(t, repo, emitter)

	_, err := svc.ApproveSeller(context.Background(), uuid.New(), sellerID)
	assertCode(t, err, pkgerrors.CodeStateConflict)
	assert.Empty(t, emitter.dedupEvents)
}

func TestApproveSellerRejectsBuyerAccount(t *testing.T) {
	buyerID := uuid.New()
	repo := &fakeUserRepo{users: map[uuid.UUID]*models.User{
		buyerID: {ID: buyerID, Role: enums.UserRoleBuyer},
	}}
	svc := buildService(t, repo, &fakeOutbox{})

	_, err := svc.ApproveSeller(context.Background(), uuid.New(), buyerID)
	assertCode(t, err, pkgerrors.CodeValidation)
}

func TestApproveSellerUnknownUser(t *testing.T) {
	svc := buildService(t, &fakeUserRepo{users: map[uuid.UUID]*models.User{}}, &fakeOutbox{})

	_, err := svc.ApproveSeller(context.Background(), uuid.New(), uuid.New())
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func TestListPendingSellers(t *testing.T) {
	sellerID := uuid.New()
	repo := &fakeUserRepo{users: map[uuid.UUID]*models.User{
		sellerID:   {ID: sellerID, Role: enums.UserRoleSeller},
		uuid.New(): {ID: uuid.New(), Role: enums.UserRoleBuyer},
	}}
	svc := buildService(t, repo, &fakeOutbox{})

	rows, err := svc.ListPendingSellers(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, sellerID, rows[0].ID)
}
