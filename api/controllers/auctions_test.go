package controllers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrapbid/scrapbid-backend/api/middleware"
	"github.com/scrapbid/scrapbid-backend/internal/auctions"
	"github.com/scrapbid/scrapbid-backend/pkg/enums"
	pkgerrors "github.com/scrapbid/scrapbid-backend/pkg/errors"
	"github.com/scrapbid/scrapbid-backend/pkg/logger"
)

type fakeAuctionsService struct {
	auction  *auctions.AuctionDTO
	page     *auctions.ListResult
	err      error
	approve  *bool
	lastList *auctions.ListParams
	sweep    *auctions.SweepResult
	sweepErr error
}

func (f *fakeAuctionsService) Create(ctx context.Context, sellerID uuid.UUID, req auctions.CreateAuctionRequest) (*auctions.AuctionDTO, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.auction, nil
}

func (f *fakeAuctionsService) Get(ctx context.Context, id uuid.UUID) (*auctions.AuctionDetailDTO, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &auctions.AuctionDetailDTO{AuctionDTO: *f.auction}, nil
}

func (f *fakeAuctionsService) List(ctx context.Context, params auctions.ListParams) (*auctions.ListResult, error) {
	f.lastList = &params
	if f.err != nil {
		return nil, f.err
	}
	if f.page != nil {
		return f.page, nil
	}
	return &auctions.ListResult{}, nil
}

func (f *fakeAuctionsService) EndingSoon(ctx context.Context, limit int) ([]auctions.AuctionDTO, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.auction != nil {
		return []auctions.AuctionDTO{*f.auction}, nil
	}
	return nil, nil
}

func (f *fakeAuctionsService) Approve(ctx context.Context, adminID, auctionID uuid.UUID, approve bool) (*auctions.AuctionDTO, error) {
	f.approve = &approve
	if f.err != nil {
		return nil, f.err
	}
	return f.auction, nil
}

func (f *fakeAuctionsService) SweepExpired(ctx context.Context, now time.Time) (*auctions.SweepResult, error) {
	if f.sweep != nil || f.sweepErr != nil {
		return f.sweep, f.sweepErr
	}
	return &auctions.SweepResult{}, nil
}

func sampleAuction() *auctions.AuctionDTO {
	return &auctions.AuctionDTO{
		ID:           uuid.New(),
		Title:        "20t shredded iron",
		StartPrice:   decimal.RequireFromString("50000"),
		CurrentPrice: decimal.RequireFromString("50000"),
		ItemType:     enums.ItemTypeIron,
		Status:       enums.AuctionStatusPending,
		SellerID:     uuid.New(),
		EndTime:      time.Now().Add(48 * time.Hour),
	}
}

func authedRequest(method, target, body string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	return req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))
}

func withAuctionParam(req *http.Request, auctionID string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("auctionID", auctionID)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func TestCreateAuctionReturnsCreated(t *testing.T) {
	auction := sampleAuction()
	svc := &fakeAuctionsService{auction: auction}
	handler := CreateAuction(svc, logger.New(logger.Options{Output: io.Discard}))

	body := `{"title":"20t shredded iron","description":"mill grade","start_price":"50000","item_type":"iron","end_time":"2026-09-15T12:00:00Z"}`
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(http.MethodPost, "/auctions", body))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), auction.ID.String())
}

func TestCreateAuctionRequiresActor(t *testing.T) {
	svc := &fakeAuctionsService{auction: sampleAuction()}
	handler := CreateAuction(svc, logger.New(logger.Options{Output: io.Discard}))

	req := httptest.NewRequest(http.MethodPost, "/auctions", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetAuctionMapsNotFound(t *testing.T) {
	svc := &fakeAuctionsService{err: pkgerrors.New(pkgerrors.CodeNotFound, "auction not found")}
	handler := GetAuction(svc, logger.New(logger.Options{Output: io.Discard}))

	req := withAuctionParam(httptest.NewRequest(http.MethodGet, "/auctions/"+uuid.NewString(), nil), uuid.NewString())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "NOT_FOUND")
}

func TestGetAuctionRejectsBadID(t *testing.T) {
	svc := &fakeAuctionsService{}
	handler := GetAuction(svc, logger.New(logger.Options{Output: io.Discard}))

	req := withAuctionParam(httptest.NewRequest(http.MethodGet, "/auctions/nope", nil), "nope")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListAuctionsParsesFilters(t *testing.T) {
	svc := &fakeAuctionsService{}
	handler := ListAuctions(svc, logger.New(logger.Options{Output: io.Discard}))

	sellerID := uuid.New()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/auctions?status=active&item_type=iron&seller_id="+sellerID.String()+"&limit=10", nil)
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.lastList)
	require.NotNil(t, svc.lastList.Status)
	assert.Equal(t, enums.AuctionStatusActive, *svc.lastList.Status)
	require.NotNil(t, svc.lastList.ItemType)
	assert.Equal(t, enums.ItemTypeIron, *svc.lastList.ItemType)
	require.NotNil(t, svc.lastList.SellerID)
	assert.Equal(t, sellerID, *svc.lastList.SellerID)
	assert.Equal(t, 10, svc.lastList.Page.Limit)
}

func TestListAuctionsRejectsBadStatus(t *testing.T) {
	svc := &fakeAuctionsService{}
	handler := ListAuctions(svc, logger.New(logger.Options{Output: io.Discard}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auctions?status=bogus", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, svc.lastList)
}

func TestReviewAuctionPassesDecision(t *testing.T) {
	auction := sampleAuction()
	auction.Status = enums.AuctionStatusActive
	svc := &fakeAuctionsService{auction: auction}
	handler := ReviewAuction(svc, logger.New(logger.Options{Output: io.Discard}))

	req := withAuctionParam(authedRequest(http.MethodPost, "/auctions/"+auction.ID.String()+"/review", `{"approve":true}`), auction.ID.String())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.approve)
	assert.True(t, *svc.approve)
}

func TestSweepAuctionsReportsPartialFailure(t *testing.T) {
	endedID := uuid.New()
	svc := &fakeAuctionsService{
		sweep:    &auctions.SweepResult{Processed: 1, Ended: []uuid.UUID{endedID}},
		sweepErr: pkgerrors.New(pkgerrors.CodeInternal, "settle auction: connection reset"),
	}
	handler := SweepAuctions(svc, logger.New(logger.Options{Output: io.Discard}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(http.MethodPost, "/auctions/sweep", ""))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"processed":1`)
	assert.Contains(t, rec.Body.String(), endedID.String())
	assert.Contains(t, rec.Body.String(), `"partial":true`)
}

func TestSweepAuctionsMapsTotalFailure(t *testing.T) {
	svc := &fakeAuctionsService{
		sweepErr: pkgerrors.New(pkgerrors.CodeInternal, "list expired auctions: connection refused"),
	}
	handler := SweepAuctions(svc, logger.New(logger.Options{Output: io.Discard}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(http.MethodPost, "/auctions/sweep", ""))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "processed")
}

func TestReviewAuctionMapsStateConflict(t *testing.T) {
	svc := &fakeAuctionsService{err: pkgerrors.New(pkgerrors.CodeStateConflict, "auction is not awaiting review")}
	handler := ReviewAuction(svc, logger.New(logger.Options{Output: io.Discard}))

	id := uuid.NewString()
	req := withAuctionParam(authedRequest(http.MethodPost, "/auctions/"+id+"/review", `{"approve":false}`), id)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "STATE_CONFLICT")
}
