package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/db/models"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/logger"
)

// Service appends domain events to the outbox table. It never talks to Pub/Sub;
// the outbox-publisher relays committed rows.
type Service struct {
	repo *Repository
	logg *logger.Logger
	now  func() time.Time
}

// NewService builds the emitter. logg may be nil.
func NewService(repo *Repository, logg *logger.Logger) *Service {
	return &Service{repo: repo, logg: logg, now: time.Now}
}

// Emit appends event inside tx, so the event exists if and only if the
// business write it describes commits.
func (s *Service) Emit(ctx context.Context, tx *gorm.DB, event DomainEvent) error {
	if tx == nil {
		return errors.New("outbox: emit requires a transaction")
	}
	if err := event.validate(); err != nil {
		return fmt.Errorf("outbox: %w", err)
	}

	eventID := uuid.New()
	env, err := event.seal(eventID, s.now())
	if err != nil {
		return fmt.Errorf("outbox: %w", err)
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("outbox: encode envelope: %w", err)
	}

	if err := s.repo.Insert(tx, models.OutboxEvent{
		ID:            eventID,
		EventType:     event.EventType,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		Payload:       payload,
	}); err != nil {
		return err
	}

	if s.logg != nil {
		s.logg.Debug(s.logg.WithFields(ctx, map[string]any{
			"event_id":       env.EventID,
			"event_type":     string(event.EventType),
			"aggregate_type": string(event.AggregateType),
			"aggregate_id":   event.AggregateID.String(),
		}), "outbox event appended")
	}
	return nil
}
