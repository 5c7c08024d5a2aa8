package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gleilsonbarbosa2/elitepedidos2/internal/analytics/types"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/enums"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/logger"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/outbox/payloads"
)

type recordingWriter struct {
	rows []types.SaleRow
	err  error
}

func (w *recordingWriter) InsertSale(_ context.Context, row types.SaleRow) error {
	if w.err != nil {
		return w.err
	}
	w.rows = append(w.rows, row)
	return nil
}

func saleEnvelope(t *testing.T, event payloads.SaleCreatedEvent) types.Envelope {
	t.Helper()
	data, err := json.Marshal(event)
	require.NoError(t, err)
	return types.Envelope{
		EventID:       uuid.NewString(),
		EventType:     enums.EventSaleCreated,
		AggregateType: enums.AggregateSale,
		AggregateID:   event.SaleID.String(),
		OccurredAt:    event.CreatedAt.Add(time.Second),
		Payload:       data,
	}
}

func sampleSale() payloads.SaleCreatedEvent {
	operator := uuid.New()
	weight := decimal.RequireFromString("0.5")
	return payloads.SaleCreatedEvent{
		SaleID:         uuid.New(),
		RegisterID:     uuid.New(),
		OperatorID:     &operator,
		Channel:        "pdv",
		PaymentType:    enums.PaymentMethodCash,
		Subtotal:       decimal.NewFromInt(35),
		DiscountAmount: decimal.RequireFromString("3.5"),
		TotalAmount:    decimal.RequireFromString("31.5"),
		ChangeAmount:   decimal.RequireFromString("18.5"),
		Items: []payloads.SaleItemSummary{
			{ProductID: uuid.New(), ProductName: "Açaí 300ml", Quantity: 2, Subtotal: decimal.NewFromInt(20)},
			{ProductID: uuid.New(), ProductName: "Açaí no kg", Quantity: 1, WeightKg: &weight, Subtotal: decimal.NewFromInt(15)},
		},
		CreatedAt: time.Date(2025, 3, 2, 1, 30, 0, 0, time.UTC),
	}
}

func TestSaleRowFromEnvelope(t *testing.T) {
	event := sampleSale()
	env := saleEnvelope(t, event)

	row, err := SaleRowFromEnvelope(env, time.UTC)
	require.NoError(t, err)

	assert.Equal(t, env.EventID, row.EventID)
	assert.Equal(t, event.SaleID.String(), row.SaleID)
	require.NotNil(t, row.OperatorID)
	assert.Equal(t, event.OperatorID.String(), *row.OperatorID)
	assert.Equal(t, "cash", row.PaymentType)
	assert.Equal(t, "2025-03-02", row.SaleDate)
	assert.True(t, row.OccurredAt.Equal(event.CreatedAt))
	assert.Equal(t, int64(3500), row.SubtotalCents)
	assert.Equal(t, int64(350), row.DiscountCents)
	assert.Equal(t, int64(3150), row.TotalCents)
	assert.Equal(t, int64(1850), row.ChangeCents)
	assert.Equal(t, int64(2), row.ItemCount)
	require.Len(t, row.Items, 2)
	assert.False(t, row.Items[0].WeightKg.Valid)
	assert.True(t, row.Items[1].WeightKg.Valid)
	assert.InDelta(t, 0.5, row.Items[1].WeightKg.Float64, 1e-9)
	assert.True(t, row.Payload.Valid)
}

func TestSaleRowFromEnvelopeRejectsBadPayload(t *testing.T) {
	env := saleEnvelope(t, sampleSale())

	mismatched := env
	mismatched.AggregateID = uuid.NewString()
	_, err := SaleRowFromEnvelope(mismatched, time.UTC)
	assert.ErrorIs(t, err, types.ErrInvalidPayload)

	broken := env
	broken.Payload = json.RawMessage(`{"sale_id":`)
	_, err = SaleRowFromEnvelope(broken, time.UTC)
	assert.ErrorIs(t, err, types.ErrInvalidPayload)

	empty := env
	empty.Payload = nil
	_, err = SaleRowFromEnvelope(empty, time.UTC)
	assert.ErrorIs(t, err, types.ErrInvalidPayload)
}

func TestSalesHandler(t *testing.T) {
	w := &recordingWriter{}
	h, err := NewSalesHandler(w, nil, logger.Nop())
	require.NoError(t, err)

	require.NoError(t, h.Handle(context.Background(), saleEnvelope(t, sampleSale())))
	require.Len(t, w.rows, 1)

	other := types.Envelope{EventID: uuid.NewString(), EventType: enums.EventRegisterOpened}
	assert.ErrorIs(t, h.Handle(context.Background(), other), types.ErrUnsupportedEvent)
	assert.Len(t, w.rows, 1)

	w.err = errors.New("bigquery down")
	err = h.Handle(context.Background(), saleEnvelope(t, sampleSale()))
	require.Error(t, err)
	assert.NotErrorIs(t, err, types.ErrInvalidPayload)
}

func TestNewSalesHandlerValidation(t *testing.T) {
	_, err := NewSalesHandler(nil, time.UTC, logger.Nop())
	assert.Error(t, err)
	_, err = NewSalesHandler(&recordingWriter{}, time.UTC, nil)
	assert.Error(t, err)
}
