package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/logger"
)

const (
	outboxRetentionJobName = "outbox-retention"

	defaultOutboxRetentionDays = 30
	defaultTerminalAttempts    = 10
	defaultRetentionBatch      = 5000
)

type outboxPruner interface {
	DeleteSettledBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time, terminalAttempts, limit int) (int64, error)
}

type OutboxRetentionJobParams struct {
	Logger     *logger.Logger
	DB         txRunner
	Repository outboxPruner
	// RetentionDays keeps settled rows this many days; 0 means 30.
	RetentionDays int
	// TerminalAttempts must match the relay's max attempts; 0 means 10.
	TerminalAttempts int
	// BatchSize rows are deleted per transaction; 0 means 5000.
	BatchSize int
}

// outboxRetentionJob deletes published or parked outbox rows older than the
// retention window, one short transaction per batch.
type outboxRetentionJob struct {
	logg     *logger.Logger
	db       txRunner
	repo     outboxPruner
	keep     int
	terminal int
	batch    int
	now      func() time.Time
}

func NewOutboxRetentionJob(params OutboxRetentionJobParams) (Job, error) {
	switch {
	case params.Logger == nil:
		return nil, errors.New("outbox retention: logger required")
	case params.DB == nil:
		return nil, errors.New("outbox retention: db required")
	case params.Repository == nil:
		return nil, errors.New("outbox retention: repository required")
	}
	return &outboxRetentionJob{
		logg:     params.Logger,
		db:       params.DB,
		repo:     params.Repository,
		keep:     orDefault(params.RetentionDays, defaultOutboxRetentionDays),
		terminal: orDefault(params.TerminalAttempts, defaultTerminalAttempts),
		batch:    orDefault(params.BatchSize, defaultRetentionBatch),
		now:      time.Now,
	}, nil
}

func (j *outboxRetentionJob) Name() string { return outboxRetentionJobName }

func (j *outboxRetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().AddDate(0, 0, -j.keep)

	var total int64
	for batches := 0; ; batches++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		var n int64
		err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
			var err error
			n, err = j.repo.DeleteSettledBefore(ctx, tx, cutoff, j.terminal, j.batch)
			return err
		})
		if err != nil {
			return fmt.Errorf("prune outbox batch %d: %w", batches+1, err)
		}
		total += n
		if n < int64(j.batch) {
			break
		}
	}

	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"cutoff":       cutoff.Format(time.RFC3339),
		"rows_deleted": total,
	}), "outbox rows pruned")
	return nil
}

func orDefault(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}
