package product

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/db"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/db/dbtest"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/enums"
	pkgerrors "github.com/gleilsonbarbosa2/elitepedidos2/pkg/errors"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/logger"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/outbox"
)

type stubImages struct {
	urls map[uuid.UUID]string
	err  error
}

func (s stubImages) URL(_ context.Context, productID uuid.UUID) (*string, error) {
	if s.err != nil {
		return nil, s.err
	}
	if url, ok := s.urls[productID]; ok {
		return &url, nil
	}
	return nil, nil
}

func newTestService(t *testing.T, images imageLookup) (Service, *db.Client, *outbox.Repository) {
	t.Helper()
	client := dbtest.Open(t)
	outboxRepo := outbox.NewRepository(client.DB())
	svc, err := NewService(NewRepository(client.DB()), client, outbox.NewService(outboxRepo, logger.Nop()), images, logger.Nop())
	require.NoError(t, err)
	return svc, client, outboxRepo
}

func acaiInput(code string) CreateProductInput {
	return CreateProductInput{
		Code:        &code,
		Name:        "Açaí 300ml",
		Description: "Açaí tradicional no copo",
		Category:    enums.ProductCategoryAcai,
		Price:       decimal.RequireFromString("15.00"),
	}
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	client := dbtest.Open(t)
	repo := NewRepository(client.DB())
	outboxSvc := outbox.NewService(outbox.NewRepository(client.DB()), nil)

	_, err := NewService(nil, client, outboxSvc, nil, logger.Nop())
	require.Error(t, err)
	_, err = NewService(repo, nil, outboxSvc, nil, logger.Nop())
	require.Error(t, err)
	_, err = NewService(repo, client, nil, nil, logger.Nop())
	require.Error(t, err)
	_, err = NewService(repo, client, outboxSvc, nil, nil)
	require.Error(t, err)
}

func TestCreateAndGet(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t, nil)

	input := acaiInput("  ACAI-300 ")
	original := decimal.RequireFromString("18.00")
	input.OriginalPrice = &original
	input.AvailableDays = []int{5, 1, 5}

	created, err := svc.Create(ctx, input)
	require.NoError(t, err)
	require.NotNil(t, created.Code)
	assert.Equal(t, "ACAI-300", *created.Code)
	assert.Equal(t, "Açaí", created.CategoryLabel)
	assert.True(t, created.IsActive)
	assert.True(t, created.HasPromotion)
	assert.Equal(t, []int{1, 5}, created.AvailableDays)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("15")))
}

func TestCreateValidation(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t, nil)

	cases := []struct {
		name   string
		mutate func(*CreateProductInput)
		field  string
	}{
		{name: "missing name", mutate: func(in *CreateProductInput) { in.Name = "  " }, field: "name"},
		{name: "missing description", mutate: func(in *CreateProductInput) { in.Description = "" }, field: "description"},
		{name: "zero price", mutate: func(in *CreateProductInput) { in.Price = decimal.Zero }, field: "price"},
		{name: "unknown category", mutate: func(in *CreateProductInput) { in.Category = "pizza" }, field: "category"},
		{name: "weighable without price per gram", mutate: func(in *CreateProductInput) { in.IsWeighable = true }, field: "price_per_gram"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := acaiInput("X-" + tc.name)
			tc.mutate(&input)
			_, err := svc.Create(ctx, input)
			require.Error(t, err)
			typed := pkgerrors.As(err)
			require.NotNil(t, typed)
			assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
			fields, ok := typed.Details().([]pkgerrors.FieldError)
			require.True(t, ok)
			assert.Equal(t, tc.field, fields[0].Field)
		})
	}

	t.Run("invalid schedule day", func(t *testing.T) {
		input := acaiInput("X-day")
		input.AvailableDays = []int{7}
		_, err := svc.Create(ctx, input)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	})
}

func TestCreateDuplicateCodeConflicts(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t, nil)

	_, err := svc.Create(ctx, acaiInput("ACAI-300"))
	require.NoError(t, err)
	_, err = svc.Create(ctx, acaiInput("ACAI-300"))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict), "got %v", err)
}

func TestCreateWithoutCodeAllowsMany(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t, nil)

	for i := 0; i < 2; i++ {
		input := acaiInput("   ")
		created, err := svc.Create(ctx, input)
		require.NoError(t, err)
		assert.Nil(t, created.Code)
	}
}

func TestUpdatePatchesFields(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t, nil)

	input := acaiInput("ACAI-500")
	original := decimal.RequireFromString("20")
	input.OriginalPrice = &original
	created, err := svc.Create(ctx, input)
	require.NoError(t, err)

	name := "Açaí 500ml"
	inactive := false
	stock := 2
	minStock := 5
	updated, err := svc.Update(ctx, created.ID, UpdateProductInput{
		Name:               &name,
		IsActive:           &inactive,
		StockQuantity:      &stock,
		MinStock:           &minStock,
		ClearOriginalPrice: true,
	})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)
	assert.False(t, updated.IsActive)
	assert.Nil(t, updated.OriginalPrice)
	assert.False(t, updated.HasPromotion)
	assert.True(t, updated.LowStock)
	assert.Equal(t, "Açaí tradicional no copo", updated.Description)

	_, err = svc.Update(ctx, uuid.New(), UpdateProductInput{Name: &name})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	negative := decimal.RequireFromString("-1")
	_, err = svc.Update(ctx, created.ID, UpdateProductInput{Price: &negative})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestDeleteEmitsOutboxEvent(t *testing.T) {
	ctx := context.Background()
	svc, _, outboxRepo := newTestService(t, nil)

	input := acaiInput("ACAI-700")
	input.AvailableDays = []int{0, 6}
	created, err := svc.Create(ctx, input)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created.ID, &outbox.ActorRef{OperatorID: uuid.New(), Role: "admin"}))

	_, err = svc.Get(ctx, created.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	events, err := outboxRepo.FetchUnpublished(10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, enums.EventProductArchived, events[0].EventType)
	assert.Equal(t, created.ID, events[0].AggregateID)

	err = svc.Delete(ctx, created.ID, nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestListFiltersAndSearch(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t, nil)

	acai, err := svc.Create(ctx, acaiInput("ACAI-300"))
	require.NoError(t, err)

	shake := CreateProductInput{
		Code:          strPtr("MS-100"),
		Name:          "Milkshake de Morango",
		Description:   "Milkshake cremoso",
		Category:      enums.ProductCategoryMilkshake,
		Price:         decimal.RequireFromString("12.00"),
		AvailableDays: []int{int(time.Saturday)},
	}
	_, err = svc.Create(ctx, shake)
	require.NoError(t, err)

	inactive := false
	hidden := acaiInput("ACAI-OFF")
	hidden.Name = "Açaí 100% Fruta"
	hidden.IsActive = &inactive
	_, err = svc.Create(ctx, hidden)
	require.NoError(t, err)

	all, err := svc.List(ctx, ListFilters{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	category := enums.ProductCategoryMilkshake
	shakes, err := svc.List(ctx, ListFilters{Category: &category})
	require.NoError(t, err)
	require.Len(t, shakes, 1)
	assert.Equal(t, "Milkshake de Morango", shakes[0].Name)

	monday := int(time.Monday)
	onMonday, err := svc.List(ctx, ListFilters{AvailableOn: &monday})
	require.NoError(t, err)
	assert.Len(t, onMonday, 2)

	found, err := svc.Search(ctx, "acai-3")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, acai.ID, found[0].ID)

	percent, err := svc.Search(ctx, "100%")
	require.NoError(t, err)
	assert.Empty(t, percent, "inactive products are not searchable")

	blank, err := svc.Search(ctx, "  ")
	require.NoError(t, err)
	assert.Empty(t, blank)

	bad := enums.ProductCategory("pizza")
	_, err = svc.List(ctx, ListFilters{Category: &bad})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestSetSchedule(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t, nil)

	created, err := svc.Create(ctx, acaiInput("ACAI-300"))
	require.NoError(t, err)
	assert.Empty(t, created.AvailableDays)

	updated, err := svc.SetSchedule(ctx, created.ID, []int{3, 1, 3})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, updated.AvailableDays)
	assert.True(t, updated.AvailableOn(time.Wednesday))
	assert.False(t, updated.AvailableOn(time.Sunday))

	cleared, err := svc.SetSchedule(ctx, created.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, cleared.AvailableDays)
	assert.True(t, cleared.AvailableOn(time.Sunday))

	_, err = svc.SetSchedule(ctx, created.ID, []int{-1})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestCartProduct(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t, nil)

	perGram := decimal.RequireFromString("0.0399")
	input := acaiInput("ACAI-KG")
	input.IsWeighable = true
	input.PricePerGram = &perGram
	created, err := svc.Create(ctx, input)
	require.NoError(t, err)

	got, err := svc.CartProduct(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, got.Active)
	assert.Equal(t, "ACAI-KG", got.Ref.Code)
	assert.True(t, got.Ref.IsWeighable)
	require.NotNil(t, got.Ref.PricePerGram)
	assert.True(t, got.Ref.PricePerGram.Equal(perGram))

	_, err = svc.CartProduct(ctx, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestImagesAreBestEffort(t *testing.T) {
	ctx := context.Background()

	svc, _, _ := newTestService(t, stubImages{err: errors.New("bucket down")})
	input := acaiInput("ACAI-IMG")
	input.ImageURL = strPtr("https://cdn.example.com/acai.png")
	created, err := svc.Create(ctx, input)
	require.NoError(t, err)
	require.NotNil(t, created.ImageURL)
	assert.Equal(t, "https://cdn.example.com/acai.png", *created.ImageURL)

	stored := "https://storage.example.com/products/acai.png"
	withImages, _, _ := newTestService(t, nil)
	other, err := withImages.Create(ctx, acaiInput("ACAI-IMG2"))
	require.NoError(t, err)
	assert.Nil(t, other.ImageURL)

	svcWithURL := withImages.(*service)
	svcWithURL.images = stubImages{urls: map[uuid.UUID]string{other.ID: stored}}
	got, err := withImages.Get(ctx, other.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ImageURL)
	assert.Equal(t, stored, *got.ImageURL)
}

func strPtr(s string) *string {
	return &s
}
