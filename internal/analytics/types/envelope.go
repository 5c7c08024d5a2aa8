package types

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/enums"
)

var (
	// ErrUnsupportedEvent marks events the analytics sink does not record.
	ErrUnsupportedEvent = errors.New("unsupported analytics event")
	// ErrInvalidPayload marks payloads that can never be decoded; redelivery will not help.
	ErrInvalidPayload = errors.New("invalid analytics payload")
)

// Envelope is a domain event as delivered to the analytics subscription.
type Envelope struct {
	EventID       string                    `json:"event_id"`
	EventType     enums.OutboxEventType     `json:"event_type"`
	AggregateType enums.OutboxAggregateType `json:"aggregate_type"`
	AggregateID   string                    `json:"aggregate_id"`
	OccurredAt    time.Time                 `json:"occurred_at"`
	Payload       json.RawMessage           `json:"payload"`
}

// Decode unmarshals the payload into out. An empty payload is an error.
func (e Envelope) Decode(out any) error {
	if len(bytes.TrimSpace(e.Payload)) == 0 {
		return fmt.Errorf("%w: empty payload", ErrInvalidPayload)
	}
	if err := json.Unmarshal(e.Payload, out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}

// LogFields describes the event for structured logs.
func (e Envelope) LogFields() map[string]any {
	return map[string]any{
		"event_id":       e.EventID,
		"event_type":     string(e.EventType),
		"aggregate_type": string(e.AggregateType),
		"aggregate_id":   e.AggregateID,
		"occurred_at":    e.OccurredAt.Format(time.RFC3339Nano),
	}
}
