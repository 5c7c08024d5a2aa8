package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/db/dbtest"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/db/models"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/enums"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/logger"
)

func TestEmitWritesEnvelope(t *testing.T) {
	ctx := context.Background()
	client := dbtest.Open(t)
	repo := NewRepository(client.DB())
	svc := NewService(repo, logger.Nop())

	aggregateID := uuid.New()
	operatorID := uuid.New()
	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		return svc.Emit(ctx, tx, DomainEvent{
			EventType:     enums.EventRegisterOpened,
			AggregateType: enums.AggregateRegister,
			AggregateID:   aggregateID,
			Actor:         &ActorRef{OperatorID: operatorID, Role: "operator"},
			Data:          map[string]string{"opening_amount": "100.00"},
		})
	})
	require.NoError(t, err)

	rows, err := repo.FetchUnpublished(10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, aggregateID, rows[0].AggregateID)

	var envelope PayloadEnvelope
	require.NoError(t, json.Unmarshal(rows[0].Payload, &envelope))
	assert.Equal(t, CurrentVersion, envelope.Version)
	assert.Equal(t, rows[0].ID.String(), envelope.EventID, "event id is the row id")
	assert.False(t, envelope.OccurredAt.IsZero())
	require.NotNil(t, envelope.Actor)
	assert.Equal(t, operatorID, envelope.Actor.OperatorID)
	assert.JSONEq(t, `{"opening_amount":"100.00"}`, string(envelope.Data))
}

func TestEmitRollsBackWithTransaction(t *testing.T) {
	ctx := context.Background()
	client := dbtest.Open(t)
	repo := NewRepository(client.DB())
	svc := NewService(repo, nil)

	boom := errors.New("boom")
	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := svc.Emit(ctx, tx, DomainEvent{
			EventType:     enums.EventSaleCreated,
			AggregateType: enums.AggregateSale,
			AggregateID:   uuid.New(),
			Data:          map[string]string{},
		}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	rows, err := repo.FetchUnpublished(10)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestEmitRequiresTransaction(t *testing.T) {
	svc := NewService(NewRepository(nil), nil)
	err := svc.Emit(context.Background(), nil, DomainEvent{})
	assert.Error(t, err)
}

func TestEmitRejectsIncompleteEvents(t *testing.T) {
	ctx := context.Background()
	client := dbtest.Open(t)
	svc := NewService(NewRepository(client.DB()), nil)

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		return svc.Emit(ctx, tx, DomainEvent{EventType: "order_created", AggregateType: enums.AggregateSale})
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown event type")
	assert.Contains(t, err.Error(), "aggregate id is required")
}

func TestSealKeepsCallerTimestamp(t *testing.T) {
	occurred := time.Date(2026, 2, 10, 18, 0, 0, 0, time.FixedZone("BRT", -3*3600))
	env, err := DomainEvent{EventType: enums.EventSaleCreated, Version: 2, OccurredAt: occurred}.seal(uuid.New(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, 2, env.Version)
	assert.True(t, env.OccurredAt.Equal(occurred))
	assert.Equal(t, time.UTC, env.OccurredAt.Location())
}

func TestRepositoryPublishLifecycle(t *testing.T) {
	ctx := context.Background()
	client := dbtest.Open(t)
	repo := NewRepository(client.DB())
	dlq := NewDLQRepository(client.DB())

	first := models.OutboxEvent{EventType: enums.EventSaleCreated, AggregateType: enums.AggregateSale, AggregateID: uuid.New(), Payload: json.RawMessage(`{}`)}
	second := models.OutboxEvent{EventType: enums.EventSaleCreated, AggregateType: enums.AggregateSale, AggregateID: uuid.New(), Payload: json.RawMessage(`{}`)}
	require.NoError(t, repo.Insert(client.DB(), first))
	require.NoError(t, repo.Insert(client.DB(), second))

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := repo.FetchUnpublishedForPublish(tx, 10, 3)
		if err != nil {
			return err
		}
		require.Len(t, rows, 2)
		if err := repo.MarkPublishedTx(tx, rows[0].ID); err != nil {
			return err
		}
		if err := repo.MarkFailedTx(tx, rows[1].ID, errors.New("publish timeout")); err != nil {
			return err
		}
		return nil
	})
	require.NoError(t, err)

	pending, err := repo.FetchUnpublished(10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, 1, pending[0].AttemptCount)
	require.NotNil(t, pending[0].LastError)
	assert.Equal(t, "publish timeout", *pending[0].LastError)

	err = client.WithTx(ctx, func(tx *gorm.DB) error {
		msg := "gave up"
		if err := dlq.Park(tx, models.OutboxDLQ{
			EventID:       pending[0].ID,
			EventType:     pending[0].EventType,
			AggregateType: pending[0].AggregateType,
			AggregateID:   pending[0].AggregateID,
			Payload:       pending[0].Payload,
			ErrorReason:   enums.OutboxDLQReasonMaxAttempts,
			ErrorMessage:  &msg,
			AttemptCount:  pending[0].AttemptCount,
		}); err != nil {
			return err
		}
		return repo.MarkTerminalTx(tx, pending[0].ID, errors.New(msg), 3)
	})
	require.NoError(t, err)

	err = client.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := repo.FetchUnpublishedForPublish(tx, 10, 3)
		require.Empty(t, rows)
		return err
	})
	require.NoError(t, err)

	parked, err := dlq.FindByEventID(ctx, pending[0].ID)
	require.NoError(t, err)
	require.NotNil(t, parked)
	assert.Equal(t, enums.OutboxDLQReasonMaxAttempts, parked.ErrorReason)

	missing, err := dlq.FindByEventID(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRepositoryDeleteSettledBefore(t *testing.T) {
	ctx := context.Background()
	client := dbtest.Open(t)
	repo := NewRepository(client.DB())

	old := time.Now().UTC().Add(-40 * 24 * time.Hour)
	recent := time.Now().UTC().Add(-time.Hour)
	publishedAt := old.Add(time.Minute)
	rows := []models.OutboxEvent{
		{ID: uuid.New(), EventType: enums.EventSaleCreated, AggregateType: enums.AggregateSale, AggregateID: uuid.New(), Payload: json.RawMessage(`{}`), CreatedAt: old, PublishedAt: &publishedAt},
		{ID: uuid.New(), EventType: enums.EventSaleCreated, AggregateType: enums.AggregateSale, AggregateID: uuid.New(), Payload: json.RawMessage(`{}`), CreatedAt: old, AttemptCount: 10},
		{ID: uuid.New(), EventType: enums.EventSaleCreated, AggregateType: enums.AggregateSale, AggregateID: uuid.New(), Payload: json.RawMessage(`{}`), CreatedAt: old, AttemptCount: 2},
		{ID: uuid.New(), EventType: enums.EventRegisterOpened, AggregateType: enums.AggregateRegister, AggregateID: uuid.New(), Payload: json.RawMessage(`{}`), CreatedAt: recent, PublishedAt: &publishedAt},
	}
	for _, row := range rows {
		require.NoError(t, repo.Insert(client.DB(), row))
	}

	cutoff := time.Now().UTC().Add(-30 * 24 * time.Hour)
	deleted, err := repo.DeleteSettledBefore(ctx, nil, cutoff, 10, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted, "limit caps one batch")

	deleted, err = repo.DeleteSettledBefore(ctx, nil, cutoff, 10, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	var remaining int64
	require.NoError(t, client.DB().Model(&models.OutboxEvent{}).Count(&remaining).Error)
	assert.Equal(t, int64(2), remaining)
}

func TestTruncateDLQError(t *testing.T) {
	long := make([]byte, maxDLQErrorLen+10)
	for i := range long {
		long[i] = 'x'
	}
	assert.Len(t, truncateDLQError(string(long)), maxDLQErrorLen)
	assert.Equal(t, "short", truncateDLQError("short"))

	accented := strings.Repeat("a", maxDLQErrorLen-1) + "ção"
	cut := truncateDLQError(accented)
	assert.True(t, utf8.ValidString(cut))
	assert.Len(t, cut, maxDLQErrorLen-1)
}
