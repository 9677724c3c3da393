package cron

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/scrapbid/scrapbid-backend/pkg/logger"
)

// Published outbox rows are kept for a month so recent deliveries stay
// inspectable, then pruned once they have clearly been drained.
const (
	outboxRetentionDays = 30
	outboxMinAttempts   = 5
)

type outboxRetentionRepo interface {
	DeletePublishedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time, minAttemptCount int) (int64, error)
}

type OutboxRetentionJobParams struct {
	Logger      *logger.Logger
	DB          txRunner
	Repository  outboxRetentionRepo
	Retention   int
	MinAttempts int
}

type outboxRetentionJob struct {
	logg          *logger.Logger
	db            txRunner
	repo          outboxRetentionRepo
	retentionDays int
	minAttempts   int
	now           func() time.Time
}

// NewOutboxRetentionJob builds the job that prunes published outbox
// rows past the retention window.
func NewOutboxRetentionJob(params OutboxRetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("outbox repository required")
	}

	job := &outboxRetentionJob{
		logg:          params.Logger,
		db:            params.DB,
		repo:          params.Repository,
		retentionDays: params.Retention,
		minAttempts:   params.MinAttempts,
		now:           time.Now,
	}
	if job.retentionDays <= 0 {
		job.retentionDays = outboxRetentionDays
	}
	if job.minAttempts <= 0 {
		job.minAttempts = outboxMinAttempts
	}
	return job, nil
}

func (j *outboxRetentionJob) Name() string { return "outbox-retention" }

func (j *outboxRetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().AddDate(0, 0, -j.retentionDays)

	var deleted int64
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		var txErr error
		deleted, txErr = j.repo.DeletePublishedBefore(ctx, tx, cutoff, j.minAttempts)
		return txErr
	})
	if err != nil {
		return fmt.Errorf("outbox retention: %w", err)
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":         cutoff,
		"retention_days": j.retentionDays,
		"min_attempts":   j.minAttempts,
		"rows_deleted":   deleted,
	})
	j.logg.Info(logCtx, "outbox retention cleanup complete")
	return nil
}
