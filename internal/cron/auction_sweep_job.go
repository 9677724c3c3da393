package cron

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/scrapbid/scrapbid-backend/internal/auctions"
	"github.com/scrapbid/scrapbid-backend/pkg/logger"
	"github.com/scrapbid/scrapbid-backend/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type auctionSweeper interface {
	SweepExpired(ctx context.Context, now time.Time) (*auctions.SweepResult, error)
}

type AuctionSweepJobParams struct {
	Logger   *logger.Logger
	Auctions auctionSweeper
	Metrics  *metrics.CronJobMetrics
}

// NewAuctionSweepJob builds the job that closes expired auctions and settles
// their winners.
func NewAuctionSweepJob(params AuctionSweepJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Auctions == nil {
		return nil, fmt.Errorf("auctions service required")
	}
	return &auctionSweepJob{
		logg:     params.Logger,
		auctions: params.Auctions,
		metrics:  params.Metrics,
		now:      time.Now,
	}, nil
}

type auctionSweepJob struct {
	logg     *logger.Logger
	auctions auctionSweeper
	metrics  *metrics.CronJobMetrics
	now      func() time.Time
}

func (j *auctionSweepJob) Name() string { return "auction-sweep" }

func (j *auctionSweepJob) Run(ctx context.Context) error {
	result, err := j.auctions.SweepExpired(ctx, j.now().UTC())
	if result != nil {
		j.metrics.AddAuctionsSwept(result.Processed)
		logCtx := j.logg.WithFields(ctx, map[string]any{
			"auctions_ended": result.Processed,
		})
		j.logg.Info(logCtx, "auction sweep pass complete")
	}
	if err != nil {
		return fmt.Errorf("auction sweep: %w", err)
	}
	return nil
}
