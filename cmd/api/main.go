package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/scrapbid/scrapbid-backend/api/routes"
	"github.com/scrapbid/scrapbid-backend/internal/auctions"
	"github.com/scrapbid/scrapbid-backend/internal/auth"
	"github.com/scrapbid/scrapbid-backend/internal/bids"
	"github.com/scrapbid/scrapbid-backend/internal/users"
	"github.com/scrapbid/scrapbid-backend/pkg/config"
	"github.com/scrapbid/scrapbid-backend/pkg/db"
	"github.com/scrapbid/scrapbid-backend/pkg/logger"
	"github.com/scrapbid/scrapbid-backend/pkg/migrate"
	"github.com/scrapbid/scrapbid-backend/pkg/outbox"
	"github.com/scrapbid/scrapbid-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	userRepo := users.NewRepository(dbClient.DB())
	auctionRepo := auctions.NewRepository(dbClient.DB())
	bidRepo := bids.NewRepository(dbClient.DB())
	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:  userRepo,
		JWTConfig: cfg.JWT,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		DB:             dbClient,
		PasswordConfig: cfg.Password,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create register service", err)
		os.Exit(1)
	}

	usersService, err := users.NewService(users.ServiceParams{
		DB:     dbClient,
		Repo:   userRepo,
		Outbox: outboxService,
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create users service", err)
		os.Exit(1)
	}

	auctionsService, err := auctions.NewService(auctions.ServiceParams{
		DB:      dbClient,
		Repo:    auctionRepo,
		Users:   userRepo,
		Bids:    bidRepo,
		Outbox:  outboxService,
		Logger:  logg,
		Auction: cfg.Auction,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auctions service", err)
		os.Exit(1)
	}

	bidsService, err := bids.NewService(bids.ServiceParams{
		DB:       dbClient,
		Repo:     bidRepo,
		Auctions: auctionRepo,
		Users:    userRepo,
		Outbox:   outboxService,
		Logger:   logg,
		Auction:  cfg.Auction,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create bids service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:          cfg,
			Logger:          logg,
			DB:              dbClient,
			Redis:           redisClient,
			AuthService:     authService,
			RegisterService: registerService,
			UsersService:    usersService,
			AuctionsService: auctionsService,
			BidsService:     bidsService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
