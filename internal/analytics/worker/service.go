package worker

import (
	"context"
	"errors"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/gleilsonbarbosa2/elitepedidos2/internal/analytics/types"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/logger"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/metrics"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/outbox/idempotency"
)

const consumerName = "analytics"

// Receiver is the part of a Pub/Sub subscriber the worker needs.
type Receiver interface {
	Receive(ctx context.Context, f func(context.Context, *gcppubsub.Message)) error
}

type Handler interface {
	Handle(ctx context.Context, envelope types.Envelope) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, envelope types.Envelope) error

func (fn HandlerFunc) Handle(ctx context.Context, envelope types.Envelope) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, envelope)
}

type eventLedger interface {
	Claim(ctx context.Context, consumer string, eventID uuid.UUID) (idempotency.Claim, error)
	Complete(ctx context.Context, consumer string, eventID uuid.UUID) error
	Release(ctx context.Context, consumer string, eventID uuid.UUID) error
}

type verdict bool

const (
	ack  verdict = true
	nack verdict = false
)

// Service applies domain events from the analytics subscription at most once
// per dedup window.
type Service struct {
	subscription Receiver
	handler      Handler
	ledger       eventLedger
	metrics      *metrics.WorkerMetrics
	logg         *logger.Logger
}

// NewService wires the consumer. workerMetrics may be nil.
func NewService(subscription Receiver, handler Handler, ledger eventLedger, workerMetrics *metrics.WorkerMetrics, logg *logger.Logger) (*Service, error) {
	switch {
	case subscription == nil:
		return nil, errors.New("analytics worker: subscription is required")
	case handler == nil:
		return nil, errors.New("analytics worker: handler is required")
	case ledger == nil:
		return nil, errors.New("analytics worker: idempotency ledger is required")
	case logg == nil:
		return nil, errors.New("analytics worker: logger is required")
	}
	return &Service{subscription: subscription, handler: handler, ledger: ledger, metrics: workerMetrics, logg: logg}, nil
}

// Run blocks receiving messages until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	return s.subscription.Receive(ctx, func(msgCtx context.Context, msg *gcppubsub.Message) {
		started := time.Now()
		v := s.handle(msgCtx, msg)
		s.metrics.ObserveBatch(consumerName, time.Since(started))
		if v == nack {
			s.metrics.IncFailed(consumerName)
			msg.Nack()
			return
		}
		s.metrics.AddProcessed(consumerName, 1)
		msg.Ack()
	})
}

func (s *Service) handle(ctx context.Context, msg *gcppubsub.Message) verdict {
	ctx = s.logg.WithField(ctx, "message_id", msg.ID)

	env, err := envelopeFromMessage(msg)
	if err != nil {
		// poison message, redelivery cannot fix it
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "dropping malformed analytics message")
		return ack
	}
	ctx = s.logg.WithFields(ctx, env.LogFields())

	eventID, err := uuid.Parse(env.EventID)
	if err != nil {
		s.logg.Warn(ctx, "dropping message with non-uuid event id")
		return ack
	}

	claim, err := s.ledger.Claim(ctx, consumerName, eventID)
	if err != nil {
		s.logg.Error(ctx, "idempotency claim failed", err)
		return nack
	}
	switch claim {
	case idempotency.Done:
		s.logg.Debug(ctx, "event already applied")
		return ack
	case idempotency.InFlight:
		s.logg.Info(ctx, "event is being applied by another delivery")
		return nack
	}

	err = s.handler.Handle(ctx, env)
	switch {
	case err == nil:
		s.logg.Info(ctx, "analytics event applied")
	case errors.Is(err, types.ErrUnsupportedEvent):
		s.logg.Debug(ctx, "event not recorded by analytics")
	case errors.Is(err, types.ErrInvalidPayload):
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "dropping event with invalid payload")
	default:
		s.logg.Error(ctx, "analytics handler failed", err)
		if relErr := s.ledger.Release(context.WithoutCancel(ctx), consumerName, eventID); relErr != nil {
			s.logg.Error(ctx, "failed to release idempotency claim", relErr)
		}
		return nack
	}

	if err := s.ledger.Complete(context.WithoutCancel(ctx), consumerName, eventID); err != nil {
		// the claim expires on its own; a redelivery after that is deduped by the BigQuery insert id
		s.logg.Error(ctx, "failed to record applied event", err)
	}
	return ack
}
