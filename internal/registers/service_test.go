package registers

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/db"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/db/dbtest"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/db/models"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/enums"
	pkgerrors "github.com/gleilsonbarbosa2/elitepedidos2/pkg/errors"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/logger"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/outbox"
)

func newTestService(t *testing.T) (*service, *db.Client, *outbox.Repository) {
	t.Helper()
	client := dbtest.Open(t)
	outboxRepo := outbox.NewRepository(client.DB())
	svc, err := NewService(NewRepository(client.DB()), client, outbox.NewService(outboxRepo, logger.Nop()), logger.Nop())
	require.NoError(t, err)
	impl := svc.(*service)
	impl.now = func() time.Time { return time.Date(2026, 10, 18, 14, 0, 0, 0, time.UTC) }
	return impl, client, outboxRepo
}

func insertSale(t *testing.T, client *db.Client, registerID uuid.UUID, method enums.PaymentMethod, total string, cancelled bool) {
	t.Helper()
	amount := decimal.RequireFromString(total)
	sale := models.Sale{
		RegisterID:         registerID,
		CustomerName:       "Cliente PDV",
		Subtotal:           amount,
		DiscountAmount:     decimal.Zero,
		DiscountPercentage: decimal.Zero,
		TotalAmount:        amount,
		PaymentType:        method,
		PaymentDetails:     json.RawMessage(`{}`),
		ChangeAmount:       decimal.Zero,
		IsCancelled:        cancelled,
		Channel:            "pdv",
	}
	require.NoError(t, client.DB().Create(&sale).Error)
}

func TestOpenAndCurrent(t *testing.T) {
	ctx := context.Background()
	svc, _, outboxRepo := newTestService(t)
	operatorID := uuid.New()

	opened, err := svc.Open(ctx, operatorID, decimal.RequireFromString("100"))
	require.NoError(t, err)
	assert.Equal(t, enums.RegisterStatusOpen, opened.Status)
	assert.Equal(t, operatorID, opened.OperatorID)

	current, err := svc.Current(ctx, operatorID)
	require.NoError(t, err)
	assert.Equal(t, opened.ID, current.ID)

	require.NoError(t, svc.EnsureOpen(ctx, opened.ID))

	events, err := outboxRepo.FetchUnpublished(10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, enums.EventRegisterOpened, events[0].EventType)

	_, err = svc.Current(ctx, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestOpenTwiceConflicts(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	operatorID := uuid.New()

	_, err := svc.Open(ctx, operatorID, decimal.Zero)
	require.NoError(t, err)
	_, err = svc.Open(ctx, operatorID, decimal.Zero)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict), "got %v", err)

	_, err = svc.Open(ctx, uuid.New(), decimal.Zero)
	require.NoError(t, err, "another operator may open their own register")
}

func TestOpenValidation(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Open(context.Background(), uuid.Nil, decimal.Zero)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	_, err = svc.Open(context.Background(), uuid.New(), decimal.RequireFromString("-1"))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestSummaryAndClose(t *testing.T) {
	ctx := context.Background()
	svc, client, outboxRepo := newTestService(t)
	operatorID := uuid.New()

	opened, err := svc.Open(ctx, operatorID, decimal.RequireFromString("100"))
	require.NoError(t, err)

	insertSale(t, client, opened.ID, enums.PaymentMethodCash, "31.50", false)
	insertSale(t, client, opened.ID, enums.PaymentMethodPix, "20", false)
	insertSale(t, client, opened.ID, enums.PaymentMethodCash, "50", true)
	insertSale(t, client, uuid.New(), enums.PaymentMethodCash, "999", false)

	summary, err := svc.Summary(ctx, opened.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), summary.SalesCount)
	assert.Equal(t, "51.5", summary.SalesTotal.String())
	assert.Equal(t, "31.5", summary.CashSales.String())
	assert.Equal(t, "131.5", summary.ExpectedCash.String())
	assert.Nil(t, summary.Difference)

	closed, err := svc.Close(ctx, opened.ID, decimal.RequireFromString("130"), nil)
	require.NoError(t, err)
	assert.Equal(t, enums.RegisterStatusClosed, closed.Status)
	require.NotNil(t, closed.Difference)
	assert.Equal(t, "-1.5", closed.Difference.String())

	err = svc.EnsureOpen(ctx, opened.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	_, err = svc.Close(ctx, opened.ID, decimal.Zero, nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	events, err := outboxRepo.FetchUnpublished(10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	types := []enums.OutboxEventType{events[0].EventType, events[1].EventType}
	assert.ElementsMatch(t, []enums.OutboxEventType{enums.EventRegisterOpened, enums.EventRegisterClosed}, types)

	_, err = svc.Open(ctx, operatorID, decimal.Zero)
	require.NoError(t, err, "a closed register frees the operator")
}

func TestEnsureOpenUnknownRegister(t *testing.T) {
	svc, client, _ := newTestService(t)

	err := svc.EnsureOpen(context.Background(), uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	err = EnsureOpenTx(context.Background(), client.DB(), uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestRegisterRowLocks(t *testing.T) {
	// statements are only rendered, never sent
	conn, err := gorm.Open(postgres.New(postgres.Config{DSN: "host=localhost user=pdv dbname=pdv sslmode=disable"}),
		&gorm.Config{DisableAutomaticPing: true})
	require.NoError(t, err)
	id := uuid.New()

	cases := map[string]string{
		clause.LockingStrengthShare:  "FOR SHARE",
		clause.LockingStrengthUpdate: "FOR UPDATE",
	}
	for strength, want := range cases {
		t.Run(strength, func(t *testing.T) {
			sql := conn.ToSQL(func(tx *gorm.DB) *gorm.DB {
				return NewRepository(tx).lockedByID(context.Background(), id, strength).First(&models.CashRegister{})
			})
			assert.Contains(t, sql, `FROM "cash_registers"`)
			assert.Contains(t, sql, id.String())
			assert.True(t, strings.HasSuffix(sql, want), "got %s", sql)
		})
	}
}

func TestEnsureOpenTxAfterClose(t *testing.T) {
	svc, client, _ := newTestService(t)
	ctx := context.Background()

	register, err := svc.Open(ctx, uuid.New(), decimal.NewFromInt(50))
	require.NoError(t, err)
	require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error {
		return EnsureOpenTx(ctx, tx, register.ID)
	}))

	_, err = svc.Close(ctx, register.ID, decimal.NewFromInt(50), nil)
	require.NoError(t, err)

	err = client.WithTx(ctx, func(tx *gorm.DB) error {
		return EnsureOpenTx(ctx, tx, register.ID)
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict), "got %v", err)
}
