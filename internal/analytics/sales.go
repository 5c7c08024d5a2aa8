package analytics

import (
	"context"
	"errors"
	"fmt"
	"time"

	cbigquery "cloud.google.com/go/bigquery"

	"github.com/gleilsonbarbosa2/elitepedidos2/internal/analytics/types"
	"github.com/gleilsonbarbosa2/elitepedidos2/internal/analytics/writer"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/enums"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/logger"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/money"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/outbox/payloads"
)

type saleWriter interface {
	InsertSale(ctx context.Context, row types.SaleRow) error
}

// SalesHandler turns sale_created events into rows of the sales table.
type SalesHandler struct {
	writer saleWriter
	loc    *time.Location
	logg   *logger.Logger
}

// NewSalesHandler builds the handler. loc is the store timezone used for sale_date.
func NewSalesHandler(w saleWriter, loc *time.Location, logg *logger.Logger) (*SalesHandler, error) {
	if w == nil {
		return nil, errors.New("sales writer is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	if loc == nil {
		loc = time.UTC
	}
	return &SalesHandler{writer: w, loc: loc, logg: logg}, nil
}

// Handle records sale_created events. Other domain events return types.ErrUnsupportedEvent.
func (h *SalesHandler) Handle(ctx context.Context, env types.Envelope) error {
	if env.EventType != enums.EventSaleCreated {
		return types.ErrUnsupportedEvent
	}
	row, err := SaleRowFromEnvelope(env, h.loc)
	if err != nil {
		return err
	}
	if err := h.writer.InsertSale(ctx, row); err != nil {
		return fmt.Errorf("insert sale %s: %w", row.SaleID, err)
	}
	h.logg.Debug(h.logg.WithField(ctx, "sale_id", row.SaleID), "analytics sale row written")
	return nil
}

// SaleRowFromEnvelope decodes a sale_created payload into a BigQuery row.
func SaleRowFromEnvelope(env types.Envelope, loc *time.Location) (types.SaleRow, error) {
	var event payloads.SaleCreatedEvent
	if err := env.Decode(&event); err != nil {
		return types.SaleRow{}, err
	}
	if event.SaleID.String() != env.AggregateID && env.AggregateID != "" {
		return types.SaleRow{}, fmt.Errorf("%w: sale id %s does not match aggregate %s", types.ErrInvalidPayload, event.SaleID, env.AggregateID)
	}

	occurredAt := SaleTimestamp(event.CreatedAt, env.OccurredAt)
	payload, err := writer.EncodeJSON(env.Payload)
	if err != nil {
		return types.SaleRow{}, err
	}

	row := types.SaleRow{
		EventID:       env.EventID,
		SaleID:        event.SaleID.String(),
		RegisterID:    event.RegisterID.String(),
		Channel:       event.Channel,
		PaymentType:   string(event.PaymentType),
		SaleDate:      BusinessDate(occurredAt, loc),
		OccurredAt:    occurredAt,
		SubtotalCents: money.Cents(event.Subtotal),
		DiscountCents: money.Cents(event.DiscountAmount),
		TotalCents:    money.Cents(event.TotalAmount),
		ChangeCents:   money.Cents(event.ChangeAmount),
		SplitParts:    int64(event.SplitParts),
		ItemCount:     int64(len(event.Items)),
		Items:         make([]types.SaleItemRow, 0, len(event.Items)),
		Payload:       payload,
	}
	if event.OperatorID != nil {
		id := event.OperatorID.String()
		row.OperatorID = &id
	}
	for _, item := range event.Items {
		itemRow := types.SaleItemRow{
			ProductID:     item.ProductID.String(),
			ProductName:   item.ProductName,
			Quantity:      int64(item.Quantity),
			SubtotalCents: money.Cents(item.Subtotal),
		}
		if item.WeightKg != nil {
			itemRow.WeightKg = cbigquery.NullFloat64{Float64: item.WeightKg.InexactFloat64(), Valid: true}
		}
		row.Items = append(row.Items, itemRow)
	}
	return row, nil
}
