package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/scrapbid/scrapbid-backend/api/controllers"
	"github.com/scrapbid/scrapbid-backend/api/middleware"
	"github.com/scrapbid/scrapbid-backend/internal/auctions"
	"github.com/scrapbid/scrapbid-backend/internal/auth"
	"github.com/scrapbid/scrapbid-backend/internal/bids"
	"github.com/scrapbid/scrapbid-backend/internal/users"
	"github.com/scrapbid/scrapbid-backend/pkg/config"
	"github.com/scrapbid/scrapbid-backend/pkg/db"
	"github.com/scrapbid/scrapbid-backend/pkg/enums"
	"github.com/scrapbid/scrapbid-backend/pkg/logger"
	"github.com/scrapbid/scrapbid-backend/pkg/redis"
)

// RouterParams carries everything the HTTP surface depends on.
type RouterParams struct {
	Config          *config.Config
	Logger          *logger.Logger
	DB              db.Pinger
	Redis           *redis.Client
	AuthService     auth.Service
	RegisterService auth.RegisterService
	UsersService    users.Service
	AuctionsService auctions.Service
	BidsService     bids.Service
}

// NewRouter assembles the chi router with middleware, public routes, and the
// authenticated API surface.
func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.DB, p.Redis))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
		r.Get("/auctions", controllers.ListAuctions(p.AuctionsService, logg))
		r.Get("/auctions/ending-soon", controllers.EndingSoonAuctions(p.AuctionsService, logg))
		r.Get("/auctions/{auctionID}", controllers.GetAuction(p.AuctionsService, logg))
		r.Get("/auctions/{auctionID}/bids", controllers.ListAuctionBids(p.BidsService, logg))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, p.Redis, logg)).Post("/login", controllers.AuthLogin(p.AuthService, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, p.Redis, logg)).Post("/register", controllers.AuthRegister(p.RegisterService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Get("/ping", controllers.PrivatePing())
		r.Get("/me", controllers.Me(p.UsersService, logg))
		r.Get("/me/bids", controllers.ListMyBids(p.BidsService, logg))

		r.Route("/auctions", func(r chi.Router) {
			r.With(middleware.RequireRole(string(enums.UserRoleSeller), logg)).
				Post("/", controllers.CreateAuction(p.AuctionsService, logg))
			r.With(middleware.RequireRole(string(enums.UserRoleBuyer), logg)).
				Post("/{auctionID}/bids", controllers.PlaceBid(p.BidsService, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(string(enums.UserRoleSuperAdmin), logg))

		r.Get("/ping", controllers.AdminPing())
		r.Post("/auctions/sweep", controllers.SweepAuctions(p.AuctionsService, logg))
		r.Post("/auctions/{auctionID}/review", controllers.ReviewAuction(p.AuctionsService, logg))
		r.Get("/sellers/pending", controllers.ListPendingSellers(p.UsersService, logg))
		r.Post("/sellers/{userID}/approve", controllers.ApproveSeller(p.UsersService, logg))
	})

	return r
}
