package product

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/gleilsonbarbosa2/elitepedidos2/internal/cart"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/db"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/db/models"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/enums"
	pkgerrors "github.com/gleilsonbarbosa2/elitepedidos2/pkg/errors"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/logger"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/outbox"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/outbox/payloads"
)

// imageLoadConcurrency bounds the parallel image lookups of one list call.
const imageLoadConcurrency = 8

// Service exposes catalog management and lookup operations.
type Service interface {
	List(ctx context.Context, filters ListFilters) ([]ProductDTO, error)
	Search(ctx context.Context, term string) ([]ProductDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	Create(ctx context.Context, input CreateProductInput) (*ProductDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	Delete(ctx context.Context, id uuid.UUID, actor *outbox.ActorRef) error
	SetSchedule(ctx context.Context, id uuid.UUID, days []int) (*ProductDTO, error)
	CartProduct(ctx context.Context, id uuid.UUID) (cart.CatalogProduct, error)
}

// CreateProductInput holds the payload to create a product.
type CreateProductInput struct {
	Code          *string
	Name          string
	Description   string
	Category      enums.ProductCategory
	Price         decimal.Decimal
	OriginalPrice *decimal.Decimal
	PricePerGram  *decimal.Decimal
	IsWeighable   bool
	IsActive      *bool
	StockQuantity *int
	MinStock      *int
	ImageURL      *string
	AvailableDays []int
}

// UpdateProductInput holds optional mutation values for a product.
type UpdateProductInput struct {
	Code               *string
	Name               *string
	Description        *string
	Category           *enums.ProductCategory
	Price              *decimal.Decimal
	OriginalPrice      *decimal.Decimal
	ClearOriginalPrice bool
	PricePerGram       *decimal.Decimal
	IsWeighable        *bool
	IsActive           *bool
	StockQuantity      *int
	MinStock           *int
	ImageURL           *string
}

type imageLookup interface {
	URL(ctx context.Context, productID uuid.UUID) (*string, error)
}

type service struct {
	repo     *Repository
	dbClient *db.Client
	outbox   *outbox.Service
	images   imageLookup
	logg     *logger.Logger
}

// NewService constructs a product service instance. images may be nil, in which case
// the image_url column is the only image source.
func NewService(repo *Repository, dbClient *db.Client, outboxSvc *outbox.Service, images imageLookup, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     repo,
		dbClient: dbClient,
		outbox:   outboxSvc,
		images:   images,
		logg:     logg,
	}, nil
}

func (s *service) List(ctx context.Context, filters ListFilters) ([]ProductDTO, error) {
	if filters.Category != nil && !filters.Category.IsValid() {
		return nil, pkgerrors.Validation("invalid filter", pkgerrors.FieldError{Field: "category", Message: "unknown category"})
	}
	if filters.AvailableOn != nil && !validWeekday(*filters.AvailableOn) {
		return nil, pkgerrors.Validation("invalid filter", pkgerrors.FieldError{Field: "available_on", Message: "day must be between 0 and 6"})
	}

	rows, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list products")
	}

	out := make([]ProductDTO, len(rows))
	for i := range rows {
		out[i] = mapProductDTO(&rows[i])
	}
	s.attachImages(ctx, out)
	return out, nil
}

func (s *service) Search(ctx context.Context, term string) ([]ProductDTO, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return []ProductDTO{}, nil
	}
	return s.List(ctx, ListFilters{Query: term, ActiveOnly: true})
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	product, err := s.load(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	out := []ProductDTO{mapProductDTO(product)}
	s.attachImages(ctx, out)
	return &out[0], nil
}

func (s *service) Create(ctx context.Context, input CreateProductInput) (*ProductDTO, error) {
	product := &models.Product{
		Code:          normalizeCode(input.Code),
		Name:          strings.TrimSpace(input.Name),
		Description:   strings.TrimSpace(input.Description),
		Category:      input.Category,
		Price:         input.Price,
		OriginalPrice: input.OriginalPrice,
		PricePerGram:  input.PricePerGram,
		IsWeighable:   input.IsWeighable,
		IsActive:      true,
		StockQuantity: input.StockQuantity,
		MinStock:      input.MinStock,
		ImageURL:      trimmedOrNil(input.ImageURL),
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}
	if err := validateProduct(product); err != nil {
		return nil, err
	}
	days, err := normalizeDays(input.AvailableDays)
	if err != nil {
		return nil, err
	}

	var createdID uuid.UUID
	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if err := txRepo.Create(ctx, product); err != nil {
			return mapWriteError(err, "db: insert product")
		}
		createdID = product.ID
		if err := txRepo.ReplaceSchedule(ctx, product.ID, days); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert product schedule")
		}
		return nil
	}); err != nil {
		return nil, err
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"product_id": createdID.String(),
		"category":   product.Category,
	})
	s.logg.Info(logCtx, "product.created")
	return s.Get(ctx, createdID)
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		product, err := s.load(ctx, txRepo, id)
		if err != nil {
			return err
		}
		applyUpdateToProduct(product, input)
		if err := validateProduct(product); err != nil {
			return err
		}
		if err := txRepo.Save(ctx, product); err != nil {
			return mapWriteError(err, "db: update product")
		}
		return nil
	}); err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithField(ctx, "product_id", id.String()), "product.updated")
	return s.Get(ctx, id)
}

func (s *service) Delete(ctx context.Context, id uuid.UUID, actor *outbox.ActorRef) error {
	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		product, err := s.load(ctx, txRepo, id)
		if err != nil {
			return err
		}
		if err := txRepo.Delete(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete product")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventProductArchived,
			AggregateType: enums.AggregateProduct,
			AggregateID:   id,
			Actor:         actor,
			Data: payloads.ProductDeletedEvent{
				ProductID: id,
				Code:      product.Code,
				Name:      product.Name,
			},
		})
	}); err != nil {
		return err
	}

	s.logg.Info(s.logg.WithField(ctx, "product_id", id.String()), "product.deleted")
	return nil
}

func (s *service) SetSchedule(ctx context.Context, id uuid.UUID, days []int) (*ProductDTO, error) {
	normalized, err := normalizeDays(days)
	if err != nil {
		return nil, err
	}
	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if _, err := s.load(ctx, txRepo, id); err != nil {
			return err
		}
		if err := txRepo.ReplaceSchedule(ctx, id, normalized); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: replace product schedule")
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// CartProduct snapshots the product for a cart line.
func (s *service) CartProduct(ctx context.Context, id uuid.UUID) (cart.CatalogProduct, error) {
	product, err := s.load(ctx, s.repo, id)
	if err != nil {
		return cart.CatalogProduct{}, err
	}
	ref := cart.ProductRef{
		ID:           product.ID,
		Name:         product.Name,
		Category:     product.Category,
		UnitPrice:    product.Price,
		PricePerGram: product.PricePerGram,
		IsWeighable:  product.IsWeighable,
	}
	if product.Code != nil {
		ref.Code = *product.Code
	}
	return cart.CatalogProduct{Ref: ref, Active: product.IsActive}, nil
}

func (s *service) load(ctx context.Context, repo *Repository, id uuid.UUID) (*models.Product, error) {
	product, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load product")
	}
	return product, nil
}

// attachImages resolves stored images concurrently. A failed lookup keeps the
// product's own image_url and is only logged.
func (s *service) attachImages(ctx context.Context, products []ProductDTO) {
	if s.images == nil || len(products) == 0 {
		return
	}
	var group errgroup.Group
	group.SetLimit(imageLoadConcurrency)
	for i := range products {
		i := i
		group.Go(func() error {
			url, err := s.images.URL(ctx, products[i].ID)
			if err != nil {
				warnCtx := s.logg.WithFields(ctx, map[string]any{
					"product_id": products[i].ID.String(),
					"error":      err.Error(),
				})
				s.logg.Warn(warnCtx, "product image lookup failed")
				return nil
			}
			if url != nil {
				products[i].ImageURL = url
			}
			return nil
		})
	}
	_ = group.Wait()
}

func applyUpdateToProduct(product *models.Product, input UpdateProductInput) {
	if input.Code != nil {
		product.Code = normalizeCode(input.Code)
	}
	if input.Name != nil {
		product.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		product.Description = strings.TrimSpace(*input.Description)
	}
	if input.Category != nil {
		product.Category = *input.Category
	}
	if input.Price != nil {
		product.Price = *input.Price
	}
	if input.ClearOriginalPrice {
		product.OriginalPrice = nil
	} else if input.OriginalPrice != nil {
		product.OriginalPrice = input.OriginalPrice
	}
	if input.PricePerGram != nil {
		product.PricePerGram = input.PricePerGram
	}
	if input.IsWeighable != nil {
		product.IsWeighable = *input.IsWeighable
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}
	if input.StockQuantity != nil {
		product.StockQuantity = input.StockQuantity
	}
	if input.MinStock != nil {
		product.MinStock = input.MinStock
	}
	if input.ImageURL != nil {
		product.ImageURL = trimmedOrNil(input.ImageURL)
	}
}

func validateProduct(product *models.Product) error {
	var fields []pkgerrors.FieldError
	if product.Name == "" {
		fields = append(fields, pkgerrors.FieldError{Field: "name", Message: "name is required"})
	}
	if product.Description == "" {
		fields = append(fields, pkgerrors.FieldError{Field: "description", Message: "description is required"})
	}
	if !product.Category.IsValid() {
		fields = append(fields, pkgerrors.FieldError{Field: "category", Message: "unknown category"})
	}
	if !product.Price.IsPositive() {
		fields = append(fields, pkgerrors.FieldError{Field: "price", Message: "price must be greater than zero"})
	}
	if product.OriginalPrice != nil && product.OriginalPrice.IsNegative() {
		fields = append(fields, pkgerrors.FieldError{Field: "original_price", Message: "original price must not be negative"})
	}
	if product.IsWeighable && (product.PricePerGram == nil || !product.PricePerGram.IsPositive()) {
		fields = append(fields, pkgerrors.FieldError{Field: "price_per_gram", Message: "weighable products need a price per gram greater than zero"})
	}
	if product.StockQuantity != nil && *product.StockQuantity < 0 {
		fields = append(fields, pkgerrors.FieldError{Field: "stock_quantity", Message: "stock must not be negative"})
	}
	if product.MinStock != nil && *product.MinStock < 0 {
		fields = append(fields, pkgerrors.FieldError{Field: "min_stock", Message: "minimum stock must not be negative"})
	}
	if len(fields) > 0 {
		return pkgerrors.Validation("invalid product", fields...)
	}
	return nil
}

func normalizeDays(days []int) ([]int, error) {
	seen := make(map[int]struct{}, len(days))
	out := make([]int, 0, len(days))
	for _, day := range days {
		if !validWeekday(day) {
			return nil, pkgerrors.Validation("invalid schedule", pkgerrors.FieldError{Field: "available_days", Message: "days must be between 0 and 6"})
		}
		if _, ok := seen[day]; ok {
			continue
		}
		seen[day] = struct{}{}
		out = append(out, day)
	}
	sort.Ints(out)
	return out, nil
}

func validWeekday(day int) bool {
	return day >= 0 && day <= 6
}

func normalizeCode(code *string) *string {
	return trimmedOrNil(code)
}

func trimmedOrNil(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func mapWriteError(err error, msg string) error {
	if db.IsUniqueViolation(err, codeUniqueConstraint) || db.IsUniqueViolation(err, "products.code") {
		return pkgerrors.New(pkgerrors.CodeConflict, "product code already exists")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
}
