// Package idempotency tracks which outbox events a consumer has already applied.
//
// A marker moves through two states in Redis: "claimed" while a handler runs
// (short TTL, so a crashed consumer does not hold the event forever) and
// "done" once the handler succeeded (kept for the dedup window).
package idempotency

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/redis"
)

// ClaimTTL bounds how long an in-flight claim survives a crashed handler.
const ClaimTTL = 5 * time.Minute

const (
	stateClaimed = "claimed"
	stateDone    = "done"
)

// Claim is the outcome of trying to take an event.
type Claim int

const (
	// Acquired means the caller owns the event and must Complete or Release it.
	Acquired Claim = iota
	// InFlight means another delivery of the same event is being handled right now.
	InFlight
	// Done means the event was already applied.
	Done
)

func (c Claim) String() string {
	switch c {
	case Acquired:
		return "acquired"
	case InFlight:
		return "in_flight"
	case Done:
		return "done"
	}
	return "unknown"
}

var (
	errNoStore    = errors.New("idempotency: store is required")
	errNoConsumer = errors.New("idempotency: consumer name is required")
	errNoEvent    = errors.New("idempotency: event id is required")
)

// Ledger records per-consumer event markers.
// Keys look like `pdv:idempotency:consumer:<consumer>:<event_id>`.
type Ledger struct {
	store redis.IdempotencyStore
	ttl   time.Duration
}

// NewLedger keeps "done" markers for ttl. A zero ttl keeps them forever.
func NewLedger(store redis.IdempotencyStore, ttl time.Duration) (*Ledger, error) {
	if store == nil {
		return nil, errNoStore
	}
	if ttl < 0 {
		return nil, errors.New("idempotency: ttl must not be negative")
	}
	return &Ledger{store: store, ttl: ttl}, nil
}

// Claim tries to take eventID for consumer.
func (l *Ledger) Claim(ctx context.Context, consumer string, eventID uuid.UUID) (Claim, error) {
	key, err := l.key(consumer, eventID)
	if err != nil {
		return Acquired, err
	}
	ok, err := l.store.SetNX(ctx, key, stateClaimed, ClaimTTL)
	if err != nil {
		return Acquired, err
	}
	if ok {
		return Acquired, nil
	}

	state, err := l.store.Get(ctx, key)
	if errors.Is(err, redis.Nil) {
		// the claim expired between the two calls; let the redelivery retry
		return InFlight, nil
	}
	if err != nil {
		return Acquired, err
	}
	if state == stateDone {
		return Done, nil
	}
	return InFlight, nil
}

// Complete marks eventID as applied for the dedup window.
func (l *Ledger) Complete(ctx context.Context, consumer string, eventID uuid.UUID) error {
	key, err := l.key(consumer, eventID)
	if err != nil {
		return err
	}
	return l.store.Set(ctx, key, stateDone, l.ttl)
}

// Release drops a claim so a redelivery can try again.
func (l *Ledger) Release(ctx context.Context, consumer string, eventID uuid.UUID) error {
	key, err := l.key(consumer, eventID)
	if err != nil {
		return err
	}
	return l.store.Del(ctx, key)
}

func (l *Ledger) key(consumer string, eventID uuid.UUID) (string, error) {
	consumer = strings.TrimSpace(consumer)
	if consumer == "" {
		return "", errNoConsumer
	}
	if eventID == uuid.Nil {
		return "", errNoEvent
	}
	return l.store.IdempotencyKey("consumer:"+consumer, eventID.String()), nil
}
