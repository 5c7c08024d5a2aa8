package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/db/models"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/enums"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/logger"
)

type fakeOpenRegisters struct {
	cutoff    time.Time
	registers []models.CashRegister
	err       error
}

func (f *fakeOpenRegisters) ListOpenedBefore(_ context.Context, cutoff time.Time) ([]models.CashRegister, error) {
	f.cutoff = cutoff
	return f.registers, f.err
}

func TestStaleRegisterJobReportsOpenRegisters(t *testing.T) {
	now := time.Date(2026, 5, 2, 9, 0, 0, 0, time.UTC)
	repo := &fakeOpenRegisters{registers: []models.CashRegister{
		{ID: uuid.New(), OperatorID: uuid.New(), Status: enums.RegisterStatusOpen, OpenedAt: now.Add(-20 * time.Hour)},
	}}
	jobIface, err := NewStaleRegisterJob(StaleRegisterJobParams{Logger: logger.Nop(), Repository: repo, After: 12 * time.Hour})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	job := jobIface.(*staleRegisterJob)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !repo.cutoff.Equal(now.Add(-12 * time.Hour)) {
		t.Fatalf("unexpected cutoff %s", repo.cutoff)
	}
	if job.found != 1 {
		t.Fatalf("expected one stale register, got %d", job.found)
	}
}

func TestStaleRegisterJobPropagatesError(t *testing.T) {
	repo := &fakeOpenRegisters{err: errors.New("db down")}
	job, err := NewStaleRegisterJob(StaleRegisterJobParams{Logger: logger.Nop(), Repository: repo})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if job.Name() != staleRegisterJobName {
		t.Fatalf("unexpected name %q", job.Name())
	}
}
