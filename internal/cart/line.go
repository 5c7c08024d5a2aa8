package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/enums"
	pkgerrors "github.com/gleilsonbarbosa2/elitepedidos2/pkg/errors"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/money"
)

var (
	gramsPerKg = decimal.NewFromInt(1000)

	// MinWeightKg is the lowest weight a weighed line can be adjusted down to.
	MinWeightKg = decimal.RequireFromString("0.1")
	// WeightStepKg is the increment used by the +/- weight controls (100 g).
	WeightStepKg = decimal.RequireFromString("0.1")
)

// MinQuantity is the floor applied when a unit line's quantity is lowered.
const MinQuantity = 1

// ProductRef is the catalog data a line needs, copied when the product is added.
// The cart never writes back to the catalog.
type ProductRef struct {
	ID           uuid.UUID             `json:"id"`
	Code         string                `json:"code,omitempty"`
	Name         string                `json:"name"`
	Category     enums.ProductCategory `json:"category"`
	UnitPrice    decimal.Decimal       `json:"unit_price"`
	PricePerGram *decimal.Decimal      `json:"price_per_gram,omitempty"`
	IsWeighable  bool                  `json:"is_weighable"`
}

// Line is one cart entry. Unit lines use Quantity; weighed lines use WeightKg and
// leave Quantity at zero.
type Line struct {
	ID       uuid.UUID        `json:"id"`
	Product  ProductRef       `json:"product"`
	Quantity int              `json:"quantity"`
	WeightKg *decimal.Decimal `json:"weight_kg,omitempty"`
}

// IsWeighed reports whether the line is priced by weight.
func (l Line) IsWeighed() bool {
	return l.Product.IsWeighable
}

// WeightGrams returns the line weight in grams, zero for unit lines.
func (l Line) WeightGrams() decimal.Decimal {
	if !l.IsWeighed() || l.WeightKg == nil {
		return decimal.Zero
	}
	return l.WeightKg.Mul(gramsPerKg)
}

// Subtotal prices the line: unit_price x quantity, or price_per_gram x grams.
// It is derived on every call so it can never go stale after a mutation.
func (l Line) Subtotal() decimal.Decimal {
	if l.IsWeighed() {
		if l.Product.PricePerGram == nil {
			return decimal.Zero
		}
		return money.Round(l.Product.PricePerGram.Mul(l.WeightGrams()))
	}
	return money.Round(l.Product.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
}

func newLine(product ProductRef, quantity int, weightKg *decimal.Decimal) (Line, error) {
	if product.ID == uuid.Nil {
		return Line{}, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	line := Line{ID: uuid.New(), Product: product}

	if product.IsWeighable {
		if product.PricePerGram == nil || !product.PricePerGram.IsPositive() {
			return Line{}, pkgerrors.New(pkgerrors.CodeValidation, "weighable product missing price per gram")
		}
		if weightKg == nil || !weightKg.IsPositive() {
			return Line{}, pkgerrors.New(pkgerrors.CodeValidation, "weight is required for weighable products")
		}
		w := normalizeWeight(*weightKg)
		line.WeightKg = &w
		return line, nil
	}

	if weightKg != nil {
		return Line{}, pkgerrors.New(pkgerrors.CodeValidation, "weight is only accepted for weighable products")
	}
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 0 {
		return Line{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if product.UnitPrice.IsNegative() {
		return Line{}, pkgerrors.New(pkgerrors.CodeValidation, "unit price must not be negative")
	}
	line.Quantity = quantity
	return line, nil
}

// normalizeWeight keeps gram precision.
func normalizeWeight(kg decimal.Decimal) decimal.Decimal {
	return kg.Round(3)
}
