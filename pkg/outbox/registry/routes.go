// Package registry routes committed outbox rows to their Pub/Sub topic and
// decodes their typed payload before the relay publishes them.
package registry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/config"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/db/models"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/enums"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/outbox"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/outbox/payloads"
)

// ErrPermanent marks failures that retrying cannot fix. The relay parks such
// rows in the DLQ straight away.
var ErrPermanent = errors.New("permanent relay failure")

// Permanent tags err with ErrPermanent.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrPermanent, err)
}

// IsPermanent reports whether err carries ErrPermanent.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrPermanent)
}

// Route binds an event type to the aggregate it must come from and the
// topic it is published on.
type Route struct {
	EventType     enums.OutboxEventType
	AggregateType enums.OutboxAggregateType
	Topic         string
	decode        func(json.RawMessage) (any, error)
}

func route[T any](eventType enums.OutboxEventType, aggregate enums.OutboxAggregateType, topic string) Route {
	return Route{
		EventType:     eventType,
		AggregateType: aggregate,
		Topic:         topic,
		decode: func(raw json.RawMessage) (any, error) {
			payload := new(T)
			if err := json.Unmarshal(raw, payload); err != nil {
				return nil, err
			}
			return payload, nil
		},
	}
}

// Resolved is an outbox row that passed routing and decoding.
type Resolved struct {
	Route    Route
	Envelope outbox.PayloadEnvelope
	Payload  any
}

// Routes is the routing table of the relay.
type Routes struct {
	byType map[enums.OutboxEventType]Route
}

// NewRoutes builds the table. Every store event goes to the domain topic.
func NewRoutes(cfg config.PubSubConfig) (*Routes, error) {
	if cfg.DomainTopic == "" {
		return nil, errors.New("domain topic is required")
	}
	topic := cfg.DomainTopic
	table := []Route{
		route[payloads.SaleCreatedEvent](enums.EventSaleCreated, enums.AggregateSale, topic),
		route[payloads.RegisterOpenedEvent](enums.EventRegisterOpened, enums.AggregateRegister, topic),
		route[payloads.RegisterClosedEvent](enums.EventRegisterClosed, enums.AggregateRegister, topic),
		route[payloads.ProductDeletedEvent](enums.EventProductArchived, enums.AggregateProduct, topic),
	}

	r := &Routes{byType: make(map[enums.OutboxEventType]Route, len(table))}
	for _, rt := range table {
		r.byType[rt.EventType] = rt
	}
	return r, nil
}

// EventTypes lists the routed event types in a stable order.
func (r *Routes) EventTypes() []enums.OutboxEventType {
	out := make([]enums.OutboxEventType, 0, len(r.byType))
	for t := range r.byType {
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}

// Resolve checks the row against its route and decodes the envelope and
// payload. Every error it returns is permanent.
func (r *Routes) Resolve(event models.OutboxEvent) (*Resolved, error) {
	rt, ok := r.byType[event.EventType]
	switch {
	case !ok:
		return nil, Permanent(fmt.Errorf("no route for event type %q", event.EventType))
	case rt.AggregateType != event.AggregateType:
		return nil, Permanent(fmt.Errorf("%s must come from a %s aggregate, got %s", event.EventType, rt.AggregateType, event.AggregateType))
	case event.AggregateID == uuid.Nil:
		return nil, Permanent(errors.New("aggregate id missing"))
	}

	var env outbox.PayloadEnvelope
	if err := json.Unmarshal(event.Payload, &env); err != nil {
		return nil, Permanent(fmt.Errorf("decode envelope: %w", err))
	}
	if env.Version > outbox.CurrentVersion {
		return nil, Permanent(fmt.Errorf("envelope version %d is newer than %d", env.Version, outbox.CurrentVersion))
	}
	data := bytes.TrimSpace(env.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, Permanent(fmt.Errorf("%s envelope carries no data", event.EventType))
	}

	payload, err := rt.decode(data)
	if err != nil {
		return nil, Permanent(fmt.Errorf("decode %s: %w", event.EventType, err))
	}
	return &Resolved{Route: rt, Envelope: env, Payload: payload}, nil
}
