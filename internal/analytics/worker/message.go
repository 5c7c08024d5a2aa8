package worker

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"

	"github.com/gleilsonbarbosa2/elitepedidos2/internal/analytics/types"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/enums"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/outbox"
)

// envelopeFromMessage rebuilds the domain event from the relay's message body
// and attributes. Body fields win over attributes when both are present.
func envelopeFromMessage(msg *gcppubsub.Message) (types.Envelope, error) {
	var body outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &body); err != nil {
		return types.Envelope{}, fmt.Errorf("decode message body: %w", err)
	}
	attrs := msg.Attributes

	eventType, err := enums.ParseOutboxEventType(strings.TrimSpace(attrs["event_type"]))
	if err != nil {
		return types.Envelope{}, fmt.Errorf("event_type attribute: %w", err)
	}
	aggregateType, err := enums.ParseOutboxAggregateType(strings.TrimSpace(attrs["aggregate_type"]))
	if err != nil {
		return types.Envelope{}, fmt.Errorf("aggregate_type attribute: %w", err)
	}

	env := types.Envelope{
		EventID:       firstNonBlank(body.EventID, attrs["event_id"]),
		EventType:     eventType,
		AggregateType: aggregateType,
		AggregateID:   strings.TrimSpace(attrs["aggregate_id"]),
		OccurredAt:    body.OccurredAt,
		Payload:       body.Data,
	}
	if env.EventID == "" {
		return types.Envelope{}, errors.New("event id missing from body and attributes")
	}
	if env.AggregateID == "" {
		return types.Envelope{}, errors.New("aggregate_id attribute missing")
	}
	if env.OccurredAt.IsZero() {
		env.OccurredAt, _ = time.Parse(time.RFC3339Nano, attrs["created_at"])
	}
	env.OccurredAt = env.OccurredAt.UTC()
	return env, nil
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
