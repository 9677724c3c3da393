package controllers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/scrapbid/scrapbid-backend/api/middleware"
	"github.com/scrapbid/scrapbid-backend/api/responses"
	"github.com/scrapbid/scrapbid-backend/api/validators"
	"github.com/scrapbid/scrapbid-backend/internal/auctions"
	"github.com/scrapbid/scrapbid-backend/pkg/enums"
	pkgerrors "github.com/scrapbid/scrapbid-backend/pkg/errors"
	"github.com/scrapbid/scrapbid-backend/pkg/logger"
	"github.com/scrapbid/scrapbid-backend/pkg/pagination"
)

// CreateAuction lets an approved seller list an item.
func CreateAuction(svc auctions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auctions service unavailable"))
			return
		}

		sellerID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body auctions.CreateAuctionRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.Create(r.Context(), sellerID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

// GetAuction returns one listing by ID.
func GetAuction(svc auctions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auctions service unavailable"))
			return
		}

		auctionID, err := parseAuctionID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		auction, err := svc.Get(r.Context(), auctionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, auction)
	}
}

// ListAuctions returns a filtered, cursor-paginated page of listings.
func ListAuctions(svc auctions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auctions service unavailable"))
			return
		}

		params, err := buildListParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.List(r.Context(), *params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// EndingSoonAuctions returns active listings closing within the configured window.
func EndingSoonAuctions(svc auctions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auctions service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.EndingSoon(r.Context(), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"auctions": rows})
	}
}

type reviewAuctionBody struct {
	Approve bool `json:"approve"`
}

// ReviewAuction resolves a moderation decision on a listing.
func ReviewAuction(svc auctions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auctions service unavailable"))
			return
		}

		adminID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		auctionID, err := parseAuctionID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body reviewAuctionBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		auction, err := svc.Approve(r.Context(), adminID, auctionID, body.Approve)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, auction)
	}
}

// SweepAuctions runs the expiry sweep on demand. The cron worker remains the
// canonical trigger; this endpoint exists for operational intervention.
func SweepAuctions(svc auctions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auctions service unavailable"))
			return
		}

		result, err := svc.SweepExpired(r.Context(), time.Now().UTC())
		if err != nil && (result == nil || result.Processed == 0) {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		body := map[string]any{"processed": result.Processed, "ended": result.Ended}
		if err != nil {
			// A partial sweep still closed auctions; report the count and
			// leave the failed ones for the next pass.
			logCtx := logg.WithField(r.Context(), "auctions_ended", result.Processed)
			logg.Error(logCtx, "expiry sweep finished with failures", err)
			body["partial"] = true
		}
		responses.WriteSuccess(w, body)
	}
}

func actorID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid actor id")
	}
	return id, nil
}

func parseAuctionID(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "auctionID"))
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid auction id")
	}
	return id, nil
}

func buildListParams(r *http.Request) (*auctions.ListParams, error) {
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return nil, err
	}

	params := &auctions.ListParams{
		Page: pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		},
	}

	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		status, err := enums.ParseAuctionStatus(raw)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter")
		}
		params.Status = &status
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("item_type")); raw != "" {
		itemType, err := enums.ParseItemType(raw)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid item type filter")
		}
		params.ItemType = &itemType
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("seller_id")); raw != "" {
		sellerID, err := uuid.Parse(raw)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid seller id filter")
		}
		params.SellerID = &sellerID
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("is_approved")); raw != "" {
		approved, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid is_approved filter")
		}
		params.IsApproved = &approved
	}
	return params, nil
}
