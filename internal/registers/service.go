// Package registers manages cash register sessions. Sales and cart writes are only
// accepted against an open register.
package registers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/db"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/db/models"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/enums"
	pkgerrors "github.com/gleilsonbarbosa2/elitepedidos2/pkg/errors"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/logger"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/money"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/outbox"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/outbox/payloads"
)

// Service exposes the register lifecycle.
type Service interface {
	Open(ctx context.Context, operatorID uuid.UUID, openingAmount decimal.Decimal) (*RegisterDTO, error)
	Current(ctx context.Context, operatorID uuid.UUID) (*RegisterDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*RegisterDTO, error)
	Close(ctx context.Context, id uuid.UUID, closingAmount decimal.Decimal, actor *outbox.ActorRef) (*Summary, error)
	Summary(ctx context.Context, id uuid.UUID) (*Summary, error)
	EnsureOpen(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo     *Repository
	dbClient *db.Client
	outbox   *outbox.Service
	logg     *logger.Logger
	now      func() time.Time
}

// NewService builds the register service.
func NewService(repo *Repository, dbClient *db.Client, outboxSvc *outbox.Service, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("register repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     repo,
		dbClient: dbClient,
		outbox:   outboxSvc,
		logg:     logg,
		now:      time.Now,
	}, nil
}

func (s *service) Open(ctx context.Context, operatorID uuid.UUID, openingAmount decimal.Decimal) (*RegisterDTO, error) {
	if operatorID == uuid.Nil {
		return nil, pkgerrors.Validation("invalid register", pkgerrors.FieldError{Field: "operator_id", Message: "operator is required"})
	}
	if openingAmount.IsNegative() {
		return nil, pkgerrors.Validation("invalid register", pkgerrors.FieldError{Field: "opening_amount", Message: "opening amount must not be negative"})
	}

	var register *models.CashRegister
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		existing, err := txRepo.FindOpenByOperator(ctx, operatorID)
		if err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "operator already has an open register").
				WithDetails(map[string]any{"register_id": existing.ID})
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find open register")
		}

		register = &models.CashRegister{
			OperatorID:    operatorID,
			Status:        enums.RegisterStatusOpen,
			OpeningAmount: money.Round(openingAmount),
			OpenedAt:      s.now().UTC(),
		}
		if err := txRepo.Create(ctx, register); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert register")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventRegisterOpened,
			AggregateType: enums.AggregateRegister,
			AggregateID:   register.ID,
			Actor:         &outbox.ActorRef{OperatorID: operatorID},
			Data: payloads.RegisterOpenedEvent{
				RegisterID:    register.ID,
				OperatorID:    operatorID,
				OpeningAmount: register.OpeningAmount,
				OpenedAt:      register.OpenedAt,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithRegisterID(s.logg.WithOperatorID(ctx, operatorID.String()), register.ID.String())
	s.logg.Info(logCtx, "register.opened")
	return mapRegisterDTO(register), nil
}

func (s *service) Current(ctx context.Context, operatorID uuid.UUID) (*RegisterDTO, error) {
	register, err := s.repo.FindOpenByOperator(ctx, operatorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no open register")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find open register")
	}
	return mapRegisterDTO(register), nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*RegisterDTO, error) {
	register, err := s.load(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	return mapRegisterDTO(register), nil
}

func (s *service) Close(ctx context.Context, id uuid.UUID, closingAmount decimal.Decimal, actor *outbox.ActorRef) (*Summary, error) {
	if closingAmount.IsNegative() {
		return nil, pkgerrors.Validation("invalid register", pkgerrors.FieldError{Field: "closing_amount", Message: "closing amount must not be negative"})
	}

	var summary *Summary
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		register, err := loadLocked(ctx, txRepo, id, clause.LockingStrengthUpdate)
		if err != nil {
			return err
		}
		if register.Status != enums.RegisterStatusOpen {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "register already closed")
		}

		closedAt := s.now().UTC()
		closing := money.Round(closingAmount)
		register.ClosingAmount = &closing
		register.ClosedAt = &closedAt
		ok, err := txRepo.MarkClosed(ctx, register)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: close register")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "register already closed")
		}
		register.Status = enums.RegisterStatusClosed

		summary, err = s.summarize(ctx, txRepo, register)
		if err != nil {
			return err
		}
		if actor == nil {
			actor = &outbox.ActorRef{OperatorID: register.OperatorID}
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventRegisterClosed,
			AggregateType: enums.AggregateRegister,
			AggregateID:   register.ID,
			Actor:         actor,
			Data: payloads.RegisterClosedEvent{
				RegisterID:    register.ID,
				OperatorID:    register.OperatorID,
				ClosingAmount: closing,
				ExpectedCash:  summary.ExpectedCash,
				SalesCount:    summary.SalesCount,
				SalesTotal:    summary.SalesTotal,
				ClosedAt:      closedAt,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithFields(s.logg.WithRegisterID(ctx, id.String()), map[string]any{
		"sales_count":   summary.SalesCount,
		"expected_cash": summary.ExpectedCash.StringFixed(money.Places),
		"difference":    summary.Difference.StringFixed(money.Places),
	})
	s.logg.Info(logCtx, "register.closed")
	return summary, nil
}

func (s *service) Summary(ctx context.Context, id uuid.UUID) (*Summary, error) {
	register, err := s.load(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	return s.summarize(ctx, s.repo, register)
}

// EnsureOpen fails with NotFound for unknown registers and StateConflict for closed ones.
func (s *service) EnsureOpen(ctx context.Context, id uuid.UUID) error {
	register, err := s.load(ctx, s.repo, id)
	if err != nil {
		return err
	}
	return ensureOpen(register)
}

func ensureOpen(register *models.CashRegister) error {
	if register.Status != enums.RegisterStatusOpen {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "cash register is closed")
	}
	return nil
}

func (s *service) load(ctx context.Context, repo *Repository, id uuid.UUID) (*models.CashRegister, error) {
	register, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "register not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load register")
	}
	return register, nil
}

func (s *service) summarize(ctx context.Context, repo *Repository, register *models.CashRegister) (*Summary, error) {
	totals, err := repo.SalesTotals(ctx, register.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: sum register sales")
	}
	expected := money.Round(register.OpeningAmount.Add(totals.CashTotal))
	summary := &Summary{
		RegisterID:    register.ID,
		Status:        register.Status,
		SalesCount:    totals.Count,
		SalesTotal:    money.Round(totals.Total),
		CashSales:     money.Round(totals.CashTotal),
		OpeningAmount: register.OpeningAmount,
		ExpectedCash:  expected,
		ClosingAmount: register.ClosingAmount,
	}
	if register.ClosingAmount != nil {
		diff := money.Round(register.ClosingAmount.Sub(expected))
		summary.Difference = &diff
	}
	return summary, nil
}

// EnsureOpenTx is EnsureOpen evaluated inside tx. The register row stays share
// locked until tx ends, so a concurrent Close waits and its summary counts the sale.
func EnsureOpenTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	register, err := loadLocked(ctx, NewRepository(tx), id, clause.LockingStrengthShare)
	if err != nil {
		return err
	}
	return ensureOpen(register)
}

func loadLocked(ctx context.Context, repo *Repository, id uuid.UUID, strength string) (*models.CashRegister, error) {
	register, err := repo.FindByIDLocked(ctx, id, strength)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "register not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load register")
	}
	return register, nil
}
