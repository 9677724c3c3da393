package bids

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/scrapbid/scrapbid-backend/internal/auctions"
	"github.com/scrapbid/scrapbid-backend/internal/users"
	"github.com/scrapbid/scrapbid-backend/pkg/config"
	"github.com/scrapbid/scrapbid-backend/pkg/db/models"
	"github.com/scrapbid/scrapbid-backend/pkg/enums"
	pkgerrors "github.com/scrapbid/scrapbid-backend/pkg/errors"
	"github.com/scrapbid/scrapbid-backend/pkg/outbox"
)

// gormTxRunner adapts a raw GORM connection to the service's transaction
// interface for tests that run against a real database.
type gormTxRunner struct {
	conn *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.conn.WithContext(ctx).Transaction(fn)
}

// lockedOutbox counts emits under a mutex so concurrent bid transactions can
// share it.
type lockedOutbox struct {
	mu     sync.Mutex
	events int
}

func (o *lockedOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events++
	return nil
}

func (o *lockedOutbox) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.events
}

// openBidDB opens a file-backed SQLite database so every connection sees the
// same data. Immediate transactions take the write lock at BEGIN, which makes
// concurrent bid transactions queue on the database the way they queue on the
// auction row in Postgres.
func openBidDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "bids.db") + "?_busy_timeout=5000&_txlock=immediate"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	// The models declare Postgres column defaults that SQLite cannot parse,
	// so the schema is written out by hand instead of through AutoMigrate.
	ddl := []string{
		`CREATE TABLE users (
			id text PRIMARY KEY,
			email text NOT NULL,
			password_hash text NOT NULL,
			name text NOT NULL,
			role text NOT NULL,
			is_approved numeric NOT NULL,
			funds numeric NOT NULL,
			created_at datetime,
			updated_at datetime
		)`,
		`CREATE TABLE auctions (
			id text PRIMARY KEY,
			title text NOT NULL,
			description text NOT NULL,
			start_price numeric NOT NULL,
			current_price numeric NOT NULL,
			item_type text NOT NULL,
			images text,
			status text NOT NULL,
			is_approved numeric NOT NULL,
			seller_id text NOT NULL,
			winner_id text,
			end_time datetime NOT NULL,
			created_at datetime,
			updated_at datetime
		)`,
		`CREATE TABLE bids (
			id text PRIMARY KEY DEFAULT (lower(hex(randomblob(16)))),
			auction_id text NOT NULL,
			bidder_id text NOT NULL,
			amount numeric NOT NULL,
			created_at datetime
		)`,
	}
	for _, stmt := range ddl {
		require.NoError(t, conn.Exec(stmt).Error)
	}
	return conn
}

func seedDBUser(t *testing.T, conn *gorm.DB, role enums.UserRole, funds string) uuid.UUID {
	t.Helper()

	id := uuid.New()
	now := time.Now().UTC()
	err := conn.Exec(
		`INSERT INTO users (id, email, password_hash, name, role, is_approved, funds, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, id.String()+"@example.com", "x", "Seeded "+string(role), string(role), true, funds, now, now,
	).Error
	require.NoError(t, err)
	return id
}

func seedDBAuction(t *testing.T, conn *gorm.DB, sellerID uuid.UUID, price string, endTime time.Time) uuid.UUID {
	t.Helper()

	id := uuid.New()
	now := time.Now().UTC()
	err := conn.Exec(
		`INSERT INTO auctions (id, title, description, start_price, current_price, item_type, images, status, is_approved, seller_id, end_time, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, '{}', ?, ?, ?, ?, ?, ?)`,
		id, "Shredded iron lot", "mill grade", price, price, string(enums.ItemTypeIron),
		string(enums.AuctionStatusActive), true, sellerID, endTime, now, now,
	).Error
	require.NoError(t, err)
	return id
}

func newDBBidService(t *testing.T, conn *gorm.DB, attempts int) (Service, *lockedOutbox) {
	t.Helper()

	emitter := &lockedOutbox{}
	svc, err := NewService(ServiceParams{
		DB:       gormTxRunner{conn: conn},
		Repo:     NewRepository(conn),
		Auctions: auctions.NewRepository(conn),
		Users:    users.NewRepository(conn),
		Outbox:   emitter,
		Logger:   testLogger(),
		Auction:  config.AuctionConfig{MaxBidAttempts: attempts},
	})
	require.NoError(t, err)
	return svc, emitter
}

func TestPlaceConcurrentBiddersKeepPriceConsistent(t *testing.T) {
	conn := openBidDB(t)
	sellerID := seedDBUser(t, conn, enums.UserRoleSeller, "0")
	auctionID := seedDBAuction(t, conn, sellerID, "50000", time.Now().UTC().Add(time.Hour))
	svc, emitter := newDBBidService(t, conn, 12)

	const bidders = 8
	bidderIDs := make([]uuid.UUID, bidders)
	amounts := make([]decimal.Decimal, bidders)
	for i := range bidderIDs {
		bidderIDs[i] = seedDBUser(t, conn, enums.UserRoleBuyer, "100000")
		amounts[i] = money(fmt.Sprintf("%d", 50001+i))
	}

	errs := make([]error, bidders)
	var wg sync.WaitGroup
	for i := 0; i < bidders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Place(context.Background(), bidderIDs[i], auctionID, PlaceBidRequest{Amount: amounts[i]})
		}(i)
	}
	wg.Wait()

	accepted := 0
	for _, err := range errs {
		if err == nil {
			accepted++
			continue
		}
		// A loser re-reads the auction and finds the price already past its
		// amount; no other failure is acceptable here.
		assertCode(t, err, pkgerrors.CodeValidation)
	}
	require.NotZero(t, accepted)
	// The top bid beats any price it can observe, so it always lands.
	assert.NoError(t, errs[bidders-1])

	var auction models.Auction
	require.NoError(t, conn.First(&auction, "id = ?", auctionID).Error)
	var rows []models.Bid
	require.NoError(t, conn.Where("auction_id = ?", auctionID).Find(&rows).Error)

	require.Len(t, rows, accepted)
	assert.Equal(t, accepted, emitter.count())

	highest := decimal.Zero
	seen := make(map[string]bool, len(rows))
	for _, row := range rows {
		assert.True(t, row.Amount.GreaterThan(money("50000")), "accepted bid %s at or below start price", row.Amount)
		assert.False(t, seen[row.Amount.String()], "amount %s accepted twice", row.Amount)
		seen[row.Amount.String()] = true
		if row.Amount.GreaterThan(highest) {
			highest = row.Amount
		}
	}
	assert.True(t, auction.CurrentPrice.Equal(highest),
		"current price %s must equal highest accepted bid %s", auction.CurrentPrice, highest)
}

func TestPlaceRejectsBidBelowCommittedPrice(t *testing.T) {
	conn := openBidDB(t)
	sellerID := seedDBUser(t, conn, enums.UserRoleSeller, "0")
	auctionID := seedDBAuction(t, conn, sellerID, "50000", time.Now().UTC().Add(time.Hour))
	svc, _ := newDBBidService(t, conn, 3)

	first := seedDBUser(t, conn, enums.UserRoleBuyer, "100000")
	second := seedDBUser(t, conn, enums.UserRoleBuyer, "100000")

	_, err := svc.Place(context.Background(), first, auctionID, PlaceBidRequest{Amount: money("50500")})
	require.NoError(t, err)

	_, err = svc.Place(context.Background(), second, auctionID, PlaceBidRequest{Amount: money("50200")})
	assertCode(t, err, pkgerrors.CodeValidation)

	var auction models.Auction
	require.NoError(t, conn.First(&auction, "id = ?", auctionID).Error)
	assert.True(t, auction.CurrentPrice.Equal(money("50500")))
}
