package receipt

import (
	"context"
	"errors"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/logger"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/pubsub"
)

const contentTypeText = "text/plain; charset=utf-8"

// Job is one receipt sent to the in-store print agent.
type Job struct {
	RegisterID uuid.UUID
	SaleID     uuid.UUID
	Text       string
	CreatedAt  time.Time
}

// Printer delivers print jobs. Failures are reported to the caller, who decides
// whether they matter.
type Printer interface {
	Print(ctx context.Context, job Job) error
}

// NewPrinter returns a Pub/Sub printer, or a log printer when publisher is nil.
func NewPrinter(publisher pubsub.MessagePublisher, logg *logger.Logger) Printer {
	if publisher == nil {
		return &LogPrinter{logg: logg}
	}
	return &PubSubPrinter{publisher: publisher, logg: logg}
}

// PubSubPrinter publishes jobs on the print topic consumed by the print agent.
type PubSubPrinter struct {
	publisher pubsub.MessagePublisher
	logg      *logger.Logger
}

func (p *PubSubPrinter) Print(ctx context.Context, job Job) error {
	if job.Text == "" {
		return errors.New("empty receipt")
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	msg := &gcppubsub.Message{
		Data: []byte(job.Text),
		Attributes: map[string]string{
			"register_id":  job.RegisterID.String(),
			"sale_id":      job.SaleID.String(),
			"content_type": contentTypeText,
			"created_at":   job.CreatedAt.Format(time.RFC3339),
		},
	}
	result := p.publisher.Publish(ctx, msg)
	if result == nil {
		return errors.New("print publisher unavailable")
	}
	serverID, err := result.Get(ctx)
	if err != nil {
		return fmt.Errorf("publish print job: %w", err)
	}
	if p.logg != nil {
		logCtx := p.logg.WithFields(ctx, map[string]any{
			"sale_id":    job.SaleID.String(),
			"message_id": serverID,
		})
		p.logg.Info(logCtx, "receipt.sent")
	}
	return nil
}

// LogPrinter writes the receipt to the log; used when no print topic is configured.
type LogPrinter struct {
	logg *logger.Logger
}

func (p *LogPrinter) Print(ctx context.Context, job Job) error {
	if job.Text == "" {
		return errors.New("empty receipt")
	}
	if p.logg != nil {
		logCtx := p.logg.WithFields(ctx, map[string]any{
			"sale_id": job.SaleID.String(),
			"receipt": job.Text,
		})
		p.logg.Info(logCtx, "receipt.logged")
	}
	return nil
}
