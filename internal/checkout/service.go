// Package checkout turns a register's cart into a persisted sale. Only one
// submission per register runs at a time.
package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/gleilsonbarbosa2/elitepedidos2/internal/cart"
	"github.com/gleilsonbarbosa2/elitepedidos2/internal/notifications"
	"github.com/gleilsonbarbosa2/elitepedidos2/internal/receipt"
	"github.com/gleilsonbarbosa2/elitepedidos2/internal/sales"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/config"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/enums"
	pkgerrors "github.com/gleilsonbarbosa2/elitepedidos2/pkg/errors"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/logger"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/metrics"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/money"
)

const printTimeout = 15 * time.Second

type flagStore interface {
	AcquireFlag(ctx context.Context, key string, ttl time.Duration) (string, bool, error)
	ReleaseFlag(ctx context.Context, key, token string) error
	RenewFlag(ctx context.Context, key, token string, ttl time.Duration) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	CheckoutLockKey(registerID string) string
	CheckoutStateKey(registerID string) string
}

type salesCreator interface {
	Create(ctx context.Context, record sales.Record, registerID uuid.UUID) (*sales.SaleDTO, error)
}

// SubmitInput identifies who is checking out which register.
type SubmitInput struct {
	RegisterID   uuid.UUID
	OperatorID   *uuid.UUID
	OperatorName string
}

// Result is a committed checkout.
type Result struct {
	Sale    *sales.SaleDTO `json:"sale"`
	Receipt string         `json:"receipt"`
	Status  *StatusDTO     `json:"status"`
}

// StatusDTO is the last known submission state of a register.
type StatusDTO struct {
	RegisterID uuid.UUID           `json:"register_id"`
	State      enums.CheckoutState `json:"state"`
	SaleID     *uuid.UUID          `json:"sale_id,omitempty"`
	Error      string              `json:"error,omitempty"`
	UpdatedAt  time.Time           `json:"updated_at"`
}

// Service runs checkout submissions.
type Service interface {
	Submit(ctx context.Context, input SubmitInput) (*Result, error)
	Status(ctx context.Context, registerID uuid.UUID) (*StatusDTO, error)
}

// Params groups the checkout dependencies.
type Params struct {
	Carts    cart.Store
	Sales    salesCreator
	Flags    flagStore
	Printer  receipt.Printer
	Notifier notifications.Publisher
	Metrics  *metrics.CheckoutMetrics
	Config   config.CheckoutConfig
	Store    config.StoreConfig
	Location *time.Location
	Logger   *logger.Logger
}

type service struct {
	carts    cart.Store
	sales    salesCreator
	flags    flagStore
	printer  receipt.Printer
	notifier notifications.Publisher
	metrics  *metrics.CheckoutMetrics
	cfg      config.CheckoutConfig
	store    config.StoreConfig
	loc      *time.Location
	logg     *logger.Logger
	now      func() time.Time
	printed  func()
}

// NewService validates the dependencies and builds the checkout service. Printer,
// Notifier and Metrics are optional.
func NewService(p Params) (Service, error) {
	if p.Carts == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if p.Sales == nil {
		return nil, fmt.Errorf("sales service required")
	}
	if p.Flags == nil {
		return nil, fmt.Errorf("redis flag store required")
	}
	if p.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if p.Config.LockTTL <= 0 {
		return nil, fmt.Errorf("checkout lock ttl must be positive")
	}
	if p.Location == nil {
		p.Location = time.UTC
	}
	return &service{
		carts:    p.Carts,
		sales:    p.Sales,
		flags:    p.Flags,
		printer:  p.Printer,
		notifier: p.Notifier,
		metrics:  p.Metrics,
		cfg:      p.Config,
		store:    p.Store,
		loc:      p.Location,
		logg:     p.Logger,
		now:      time.Now,
	}, nil
}

// Submit moves the register through Submitting to Committed or Failed. A second
// submit while one is running returns a Conflict without touching the cart.
func (s *service) Submit(ctx context.Context, input SubmitInput) (*Result, error) {
	if input.RegisterID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "register id required")
	}
	started := s.now()
	registerKey := input.RegisterID.String()
	ctx = s.logg.WithRegisterID(ctx, registerKey)

	lockKey := s.flags.CheckoutLockKey(registerKey)
	token, ok, err := s.flags.AcquireFlag(ctx, lockKey, s.cfg.LockTTL)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire checkout lock")
	}
	if !ok {
		s.metrics.ObserveSubmission(metrics.OutcomeBusy, s.now().Sub(started))
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "checkout already in progress for this register")
	}
	defer func() {
		if err := s.flags.ReleaseFlag(context.WithoutCancel(ctx), lockKey, token); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "checkout lock release failed")
		}
	}()

	s.saveStatus(ctx, StatusDTO{RegisterID: input.RegisterID, State: enums.CheckoutStateSubmitting})

	stopRenewing := s.holdFlag(ctx, lockKey, token)
	result, err := s.commit(ctx, input)
	stopRenewing()
	if err != nil {
		s.saveStatus(ctx, StatusDTO{RegisterID: input.RegisterID, State: enums.CheckoutStateFailed, Error: publicMessage(err)})
		notifications.Notify(s.notifier, input.RegisterID, enums.NotificationKindError, "Erro ao finalizar venda: "+publicMessage(err))
		s.metrics.ObserveSubmission(metrics.OutcomeFailed, s.now().Sub(started))
		s.logg.Error(ctx, "checkout.failed", err)
		return nil, err
	}

	saleID := result.Sale.ID
	status := StatusDTO{RegisterID: input.RegisterID, State: enums.CheckoutStateCommitted, SaleID: &saleID}
	result.Status = s.saveStatus(ctx, status)

	notifications.Notify(s.notifier, input.RegisterID, enums.NotificationKindSuccess,
		"Venda finalizada! Total: "+money.FormatBRL(result.Sale.TotalAmount))
	s.metrics.ObserveSubmission(metrics.OutcomeCommitted, s.now().Sub(started))
	s.metrics.AddRevenue(string(result.Sale.PaymentType), result.Sale.TotalAmount)

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"sale_id":      saleID.String(),
		"total_amount": result.Sale.TotalAmount.String(),
	})
	s.logg.Info(logCtx, "sale.committed")

	s.printAsync(ctx, input.RegisterID, saleID, result.Receipt)
	return result, nil
}

func (s *service) commit(ctx context.Context, input SubmitInput) (*Result, error) {
	current, err := s.carts.Load(ctx, input.RegisterID)
	if err != nil {
		return nil, err
	}
	if err := current.ReadyForCheckout(); err != nil {
		return nil, err
	}

	record := BuildSaleRecord(current, input.OperatorID)
	sale, err := s.sales.Create(ctx, record, input.RegisterID)
	if err != nil {
		return nil, err
	}

	// only the sold lines leave the cart; a line added by another screen while the
	// sale was being written is still there for the next checkout
	sold := current.Lines
	left, err := s.carts.Update(ctx, input.RegisterID, func(c *cart.Aggregate) error {
		c.Settle(sold)
		return nil
	})
	switch {
	case err != nil:
		// the sale is committed; a stale cart is cleared by the operator or expires
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "checkout cart clear failed")
	case !left.IsEmpty():
		s.logg.Info(s.logg.WithField(ctx, "lines_left", len(left.Lines)), "lines added during checkout kept in cart")
	}

	soldAt := sale.CreatedAt
	if soldAt.IsZero() {
		soldAt = s.now()
	}
	text := receipt.Render(receipt.FromRecord(record, sale.ID, s.store, input.OperatorName, soldAt), s.now(), s.loc)
	return &Result{Sale: sale, Receipt: text}, nil
}

// holdFlag renews the busy flag every third of LockTTL until the returned stop
// runs, so a slow sale write never lets a second submission in.
func (s *service) holdFlag(ctx context.Context, key, token string) (stop func()) {
	ctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})
	every := max(s.cfg.LockTTL/3, time.Millisecond)

	go func() {
		defer close(done)
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			held, err := s.flags.RenewFlag(ctx, key, token, s.cfg.LockTTL)
			switch {
			case ctx.Err() != nil:
				return
			case err != nil:
				s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "checkout lock renew failed")
			case !held:
				s.logg.Warn(ctx, "checkout lock lost before commit finished")
				return
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}

// printAsync sends the receipt without holding up the response. Failures only warn.
func (s *service) printAsync(ctx context.Context, registerID, saleID uuid.UUID, text string) {
	if s.printer == nil {
		return
	}
	printCtx := context.WithoutCancel(ctx)
	go func() {
		defer func() {
			if s.printed != nil {
				s.printed()
			}
		}()
		ctx, cancel := context.WithTimeout(printCtx, printTimeout)
		defer cancel()
		err := s.printer.Print(ctx, receipt.Job{
			RegisterID: registerID,
			SaleID:     saleID,
			Text:       text,
			CreatedAt:  s.now().UTC(),
		})
		if err != nil {
			s.metrics.IncPrintFailure()
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "receipt print failed")
			notifications.Notify(s.notifier, registerID, enums.NotificationKindWarning,
				"Venda salva, mas não foi possível imprimir o cupom")
		}
	}()
}

func (s *service) Status(ctx context.Context, registerID uuid.UUID) (*StatusDTO, error) {
	raw, err := s.flags.Get(ctx, s.flags.CheckoutStateKey(registerID.String()))
	if errors.Is(err, redis.Nil) {
		return &StatusDTO{RegisterID: registerID, State: enums.CheckoutStateIdle}, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load checkout status")
	}
	var status StatusDTO
	if err := json.Unmarshal([]byte(raw), &status); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode checkout status")
	}
	return &status, nil
}

// saveStatus records the state for Status. Losing it is only logged.
func (s *service) saveStatus(ctx context.Context, status StatusDTO) *StatusDTO {
	status.UpdatedAt = s.now().UTC()
	payload, err := json.Marshal(status)
	if err == nil {
		err = s.flags.Set(ctx, s.flags.CheckoutStateKey(status.RegisterID.String()), payload, s.cfg.StateTTL)
	}
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "checkout status not saved")
	}
	return &status
}

func publicMessage(err error) string {
	if typed := pkgerrors.As(err); typed != nil {
		return typed.Message()
	}
	return "erro inesperado"
}
