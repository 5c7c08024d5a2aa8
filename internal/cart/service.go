package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gleilsonbarbosa2/elitepedidos2/internal/scale"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/enums"
	pkgerrors "github.com/gleilsonbarbosa2/elitepedidos2/pkg/errors"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/logger"
)

// CatalogProduct is what the catalog hands the cart for one product.
type CatalogProduct struct {
	Ref    ProductRef
	Active bool
}

// ProductCatalog resolves products for the cart.
type ProductCatalog interface {
	CartProduct(ctx context.Context, productID uuid.UUID) (CatalogProduct, error)
}

// RegisterGuard rejects cart writes against a closed register.
type RegisterGuard interface {
	EnsureOpen(ctx context.Context, registerID uuid.UUID) error
}

// Service exposes the register cart operations.
type Service interface {
	Get(ctx context.Context, registerID uuid.UUID) (*Aggregate, error)
	AddItem(ctx context.Context, registerID uuid.UUID, input AddItemInput) (*Aggregate, error)
	AddWeighed(ctx context.Context, registerID, productID uuid.UUID) (*Aggregate, error)
	UpdateItem(ctx context.Context, registerID, productID uuid.UUID, input UpdateItemInput) (*Aggregate, error)
	RemoveItem(ctx context.Context, registerID, productID uuid.UUID) (*Aggregate, error)
	SetDiscount(ctx context.Context, registerID uuid.UUID, spec DiscountSpec) (*Aggregate, error)
	SetPayment(ctx context.Context, registerID uuid.UUID, input PaymentInput) (*Aggregate, error)
	ConfigureSplit(ctx context.Context, registerID uuid.UUID, input SplitInput) (*Aggregate, error)
	SetSplitPart(ctx context.Context, registerID uuid.UUID, index int, amount decimal.Decimal) (*Aggregate, error)
	Clear(ctx context.Context, registerID uuid.UUID) error
}

// AddItemInput adds a unit line (Quantity) or a weighed line (WeightKg).
type AddItemInput struct {
	ProductID uuid.UUID
	Quantity  int
	WeightKg  *decimal.Decimal
}

// UpdateItemInput changes the first line of a product. Exactly one field is expected.
type UpdateItemInput struct {
	Quantity    *int
	WeightKg    *decimal.Decimal
	WeightSteps *int
}

// PaymentInput patches the payment info; nil fields are left alone.
type PaymentInput struct {
	Method         *enums.PaymentMethod
	CustomerName   *string
	CustomerPhone  *string
	AmountTendered *decimal.Decimal
	ClearTendered  bool
}

// SplitInput turns splitting on with Parts shares, or off.
type SplitInput struct {
	Enabled bool
	Parts   int
	Reset   bool
}

type service struct {
	store     Store
	catalog   ProductCatalog
	registers RegisterGuard
	scale     scale.Reader
	logg      *logger.Logger
}

// NewService wires the cart service. scaleReader may be nil when no scale is installed.
func NewService(store Store, catalog ProductCatalog, registers RegisterGuard, scaleReader scale.Reader, logg *logger.Logger) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("product catalog required")
	}
	if registers == nil {
		return nil, fmt.Errorf("register guard required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		store:     store,
		catalog:   catalog,
		registers: registers,
		scale:     scaleReader,
		logg:      logg,
	}, nil
}

func (s *service) Get(ctx context.Context, registerID uuid.UUID) (*Aggregate, error) {
	return s.store.Load(ctx, registerID)
}

func (s *service) AddItem(ctx context.Context, registerID uuid.UUID, input AddItemInput) (*Aggregate, error) {
	if err := s.registers.EnsureOpen(ctx, registerID); err != nil {
		return nil, err
	}
	ref, err := s.productForCart(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	agg, err := s.store.Update(ctx, registerID, func(a *Aggregate) error {
		_, err := a.Add(ref, input.Quantity, input.WeightKg)
		return err
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"register_id": registerID.String(),
		"product_id":  ref.ID.String(),
		"lines":       len(agg.Lines),
	})
	s.logg.Debug(logCtx, "cart.line_added")
	return agg, nil
}

func (s *service) AddWeighed(ctx context.Context, registerID, productID uuid.UUID) (*Aggregate, error) {
	if s.scale == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "no scale configured")
	}
	if err := s.registers.EnsureOpen(ctx, registerID); err != nil {
		return nil, err
	}
	ref, err := s.productForCart(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !ref.IsWeighable {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product is not sold by weight")
	}

	reading, err := s.scale.Read(ctx)
	if err != nil {
		return nil, err
	}
	weight := reading.Kilograms()
	return s.store.Update(ctx, registerID, func(a *Aggregate) error {
		_, err := a.Add(ref, 0, &weight)
		return err
	})
}

func (s *service) UpdateItem(ctx context.Context, registerID, productID uuid.UUID, input UpdateItemInput) (*Aggregate, error) {
	if err := s.registers.EnsureOpen(ctx, registerID); err != nil {
		return nil, err
	}
	return s.store.Update(ctx, registerID, func(a *Aggregate) error {
		var err error
		switch {
		case input.Quantity != nil:
			_, err = a.UpdateQuantity(productID, *input.Quantity)
		case input.WeightKg != nil:
			_, err = a.UpdateWeight(productID, *input.WeightKg)
		case input.WeightSteps != nil:
			_, err = a.StepWeight(productID, *input.WeightSteps)
		default:
			err = pkgerrors.New(pkgerrors.CodeValidation, "quantity, weight_kg or weight_steps is required")
		}
		return err
	})
}

func (s *service) RemoveItem(ctx context.Context, registerID, productID uuid.UUID) (*Aggregate, error) {
	if err := s.registers.EnsureOpen(ctx, registerID); err != nil {
		return nil, err
	}
	return s.store.Update(ctx, registerID, func(a *Aggregate) error {
		_, err := a.Remove(productID)
		return err
	})
}

func (s *service) SetDiscount(ctx context.Context, registerID uuid.UUID, spec DiscountSpec) (*Aggregate, error) {
	if err := s.registers.EnsureOpen(ctx, registerID); err != nil {
		return nil, err
	}
	return s.store.Update(ctx, registerID, func(a *Aggregate) error {
		return a.SetDiscount(spec)
	})
}

func (s *service) SetPayment(ctx context.Context, registerID uuid.UUID, input PaymentInput) (*Aggregate, error) {
	if err := s.registers.EnsureOpen(ctx, registerID); err != nil {
		return nil, err
	}
	return s.store.Update(ctx, registerID, func(a *Aggregate) error {
		if input.Method != nil {
			if err := a.Payment.SetMethod(*input.Method); err != nil {
				return err
			}
		}
		if input.CustomerName != nil || input.CustomerPhone != nil {
			name, phone := a.Payment.CustomerName, a.Payment.CustomerPhone
			if input.CustomerName != nil {
				name = *input.CustomerName
			}
			if input.CustomerPhone != nil {
				phone = *input.CustomerPhone
			}
			a.Payment.SetCustomer(name, phone)
		}
		if input.ClearTendered {
			return a.Payment.SetAmountTendered(nil)
		}
		if input.AmountTendered != nil {
			return a.Payment.SetAmountTendered(input.AmountTendered)
		}
		return nil
	})
}

func (s *service) ConfigureSplit(ctx context.Context, registerID uuid.UUID, input SplitInput) (*Aggregate, error) {
	if err := s.registers.EnsureOpen(ctx, registerID); err != nil {
		return nil, err
	}
	return s.store.Update(ctx, registerID, func(a *Aggregate) error {
		switch {
		case !input.Enabled:
			a.Split.Disable()
			return nil
		case input.Reset:
			return a.ResetSplit()
		default:
			return a.SetSplitParts(input.Parts)
		}
	})
}

func (s *service) SetSplitPart(ctx context.Context, registerID uuid.UUID, index int, amount decimal.Decimal) (*Aggregate, error) {
	if err := s.registers.EnsureOpen(ctx, registerID); err != nil {
		return nil, err
	}
	return s.store.Update(ctx, registerID, func(a *Aggregate) error {
		return a.Split.SetPartAmount(index, amount)
	})
}

func (s *service) Clear(ctx context.Context, registerID uuid.UUID) error {
	return s.store.Delete(ctx, registerID)
}

func (s *service) productForCart(ctx context.Context, productID uuid.UUID) (ProductRef, error) {
	if productID == uuid.Nil {
		return ProductRef{}, pkgerrors.New(pkgerrors.CodeValidation, "product_id is required")
	}
	product, err := s.catalog.CartProduct(ctx, productID)
	if err != nil {
		return ProductRef{}, err
	}
	if !product.Active {
		return ProductRef{}, pkgerrors.New(pkgerrors.CodeValidation, "product is not available")
	}
	return product.Ref, nil
}
