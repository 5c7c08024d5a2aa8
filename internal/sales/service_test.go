package sales

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gleilsonbarbosa2/elitepedidos2/internal/registers"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/db/dbtest"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/enums"
	pkgerrors "github.com/gleilsonbarbosa2/elitepedidos2/pkg/errors"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/logger"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/outbox"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/outbox/payloads"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/pagination"
)

type fixture struct {
	sales      Service
	registers  registers.Service
	outboxRepo *outbox.Repository
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	client := dbtest.Open(t)
	outboxRepo := outbox.NewRepository(client.DB())
	outboxSvc := outbox.NewService(outboxRepo, logger.Nop())

	registerSvc, err := registers.NewService(registers.NewRepository(client.DB()), client, outboxSvc, logger.Nop())
	require.NoError(t, err)
	salesSvc, err := NewService(NewRepository(client.DB()), client, outboxSvc, logger.Nop())
	require.NoError(t, err)
	return fixture{sales: salesSvc, registers: registerSvc, outboxRepo: outboxRepo}
}

func sampleRecord(operatorID uuid.UUID) Record {
	unit := decimal.RequireFromString("15.00")
	perGram := decimal.RequireFromString("0.0399")
	weight := decimal.RequireFromString("0.5")
	tendered := decimal.RequireFromString("40")
	change := decimal.RequireFromString("5.05")
	return Record{
		OperatorID:   &operatorID,
		CustomerName: "Cliente PDV",
		Items: []ItemRecord{
			{ProductID: uuid.New(), ProductCode: "ACAI-300", ProductName: "Açaí 300ml", Quantity: 1, UnitPrice: &unit, DiscountAmount: decimal.Zero, Subtotal: unit},
			{ProductID: uuid.New(), ProductCode: "ACAI-KG", ProductName: "Açaí no peso", Quantity: 1, WeightKg: &weight, PricePerGram: &perGram, DiscountAmount: decimal.Zero, Subtotal: decimal.RequireFromString("19.95")},
		},
		Subtotal:           decimal.RequireFromString("34.95"),
		DiscountAmount:     decimal.Zero,
		DiscountPercentage: decimal.Zero,
		TotalAmount:        decimal.RequireFromString("34.95"),
		PaymentType:        enums.PaymentMethodCash,
		PaymentDetails: PaymentDetails{
			Method:       enums.PaymentMethodCash,
			ChangeFor:    &tendered,
			ChangeAmount: &change,
		},
		ChangeAmount: change,
		Notes:        "Venda PDV - Dinheiro",
		Channel:      ChannelPDV,
	}
}

func TestCreatePersistsSaleAndEvent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	operatorID := uuid.New()
	register, err := f.registers.Open(ctx, operatorID, decimal.Zero)
	require.NoError(t, err)

	created, err := f.sales.Create(ctx, sampleRecord(operatorID), register.ID)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Len(t, created.Items, 2)

	loaded, err := f.sales.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, register.ID, loaded.RegisterID)
	assert.Equal(t, "pdv", loaded.Channel)
	assert.True(t, loaded.TotalAmount.Equal(decimal.RequireFromString("34.95")))
	require.Len(t, loaded.Items, 2)

	var details PaymentDetails
	require.NoError(t, json.Unmarshal(loaded.PaymentDetails, &details))
	require.NotNil(t, details.ChangeAmount)
	assert.Equal(t, "5.05", details.ChangeAmount.String())

	events, err := f.outboxRepo.FetchUnpublished(10)
	require.NoError(t, err)
	var saleEvents int
	for _, event := range events {
		if event.EventType != enums.EventSaleCreated {
			continue
		}
		saleEvents++
		var envelope outbox.PayloadEnvelope
		require.NoError(t, json.Unmarshal(event.Payload, &envelope))
		var payload payloads.SaleCreatedEvent
		require.NoError(t, json.Unmarshal(envelope.Data, &payload))
		assert.Equal(t, created.ID, payload.SaleID)
		assert.Len(t, payload.Items, 2)
	}
	assert.Equal(t, 1, saleEvents)

	listed, err := f.sales.ListByRegister(ctx, register.ID, pagination.Params{})
	require.NoError(t, err)
	assert.Len(t, listed.Sales, 1)
	assert.Empty(t, listed.NextCursor)

	summary, err := f.registers.Summary(ctx, register.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), summary.SalesCount)
}

func TestCreateRequiresOpenRegister(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	operatorID := uuid.New()

	_, err := f.sales.Create(ctx, sampleRecord(operatorID), uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	register, err := f.registers.Open(ctx, operatorID, decimal.Zero)
	require.NoError(t, err)
	_, err = f.registers.Close(ctx, register.ID, decimal.Zero, nil)
	require.NoError(t, err)

	_, err = f.sales.Create(ctx, sampleRecord(operatorID), register.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	listed, err := f.sales.ListByRegister(ctx, register.ID, pagination.Params{Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, listed.Sales)
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)

	cases := []struct {
		name   string
		mutate func(*Record)
	}{
		{name: "no items", mutate: func(r *Record) { r.Items = nil }},
		{name: "unknown payment", mutate: func(r *Record) { r.PaymentType = "cheque" }},
		{name: "negative total", mutate: func(r *Record) { r.TotalAmount = decimal.RequireFromString("-1") }},
		{name: "blank customer", mutate: func(r *Record) { r.CustomerName = " " }},
		{name: "zero quantity", mutate: func(r *Record) { r.Items[0].Quantity = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			record := sampleRecord(uuid.New())
			tc.mutate(&record)
			_, err := f.sales.Create(context.Background(), record, uuid.New())
			assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)
		})
	}
}

func TestListByRegisterPages(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	operatorID := uuid.New()
	register, err := f.registers.Open(ctx, operatorID, decimal.Zero)
	require.NoError(t, err)

	seen := map[uuid.UUID]bool{}
	for i := 0; i < 3; i++ {
		created, err := f.sales.Create(ctx, sampleRecord(operatorID), register.ID)
		require.NoError(t, err)
		seen[created.ID] = false
	}

	first, err := f.sales.ListByRegister(ctx, register.ID, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Sales, 2)
	require.NotEmpty(t, first.NextCursor)

	second, err := f.sales.ListByRegister(ctx, register.ID, pagination.Params{Limit: 2, Cursor: first.NextCursor})
	require.NoError(t, err)
	require.Len(t, second.Sales, 1)
	assert.Empty(t, second.NextCursor)

	for _, sale := range append(first.Sales, second.Sales...) {
		assert.False(t, seen[sale.ID], "sale %s listed twice", sale.ID)
		seen[sale.ID] = true
	}

	_, err = f.sales.ListByRegister(ctx, register.ID, pagination.Params{Cursor: "%%%"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestGetUnknownSale(t *testing.T) {
	f := newFixture(t)
	_, err := f.sales.Get(context.Background(), uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestRecordSplitParts(t *testing.T) {
	record := sampleRecord(uuid.New())
	assert.Equal(t, 0, record.SplitParts())
	record.PaymentDetails.SplitInfo = &SplitDetails{Enabled: true, Parts: 3}
	assert.Equal(t, 3, record.SplitParts())
}
