package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/db/models"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/logger"
)

const (
	defaultStaleRegisterAfter = 16 * time.Hour
	staleRegisterJobName      = "stale-registers"
)

type openRegisterLister interface {
	ListOpenedBefore(ctx context.Context, cutoff time.Time) ([]models.CashRegister, error)
}

type StaleRegisterJobParams struct {
	Logger     *logger.Logger
	Repository openRegisterLister
	After      time.Duration
}

// NewStaleRegisterJob warns about registers that were never closed at the end of a shift.
// Registers are left open; closing requires the counted cash amount.
func NewStaleRegisterJob(params StaleRegisterJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("register repository required")
	}
	after := params.After
	if after <= 0 {
		after = defaultStaleRegisterAfter
	}
	return &staleRegisterJob{
		logg:  params.Logger,
		repo:  params.Repository,
		after: after,
		now:   time.Now,
	}, nil
}

type staleRegisterJob struct {
	logg  *logger.Logger
	repo  openRegisterLister
	after time.Duration
	now   func() time.Time
	// last run's findings, read by tests
	found int
}

func (j *staleRegisterJob) Name() string { return staleRegisterJobName }

func (j *staleRegisterJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	registers, err := j.repo.ListOpenedBefore(ctx, now.Add(-j.after))
	if err != nil {
		return fmt.Errorf("list stale registers: %w", err)
	}
	j.found = len(registers)
	for _, register := range registers {
		warnCtx := j.logg.WithFields(ctx, map[string]any{
			"register_id": register.ID.String(),
			"operator_id": register.OperatorID.String(),
			"opened_at":   register.OpenedAt.UTC().Format(time.RFC3339),
			"open_hours":  int(now.Sub(register.OpenedAt).Hours()),
		})
		j.logg.Warn(warnCtx, "cash register still open past shift limit")
	}
	return nil
}
