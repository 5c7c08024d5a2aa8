package cart

import (
	"github.com/shopspring/decimal"

	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/enums"
	pkgerrors "github.com/gleilsonbarbosa2/elitepedidos2/pkg/errors"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/money"
)

var maxPercentage = decimal.NewFromInt(100)

// DiscountSpec is the cart-level discount. It applies to the subtotal, never to lines.
type DiscountSpec struct {
	Type  enums.DiscountType `json:"type"`
	Value decimal.Decimal    `json:"value"`
}

// NoDiscount is the default spec.
func NoDiscount() DiscountSpec {
	return DiscountSpec{Type: enums.DiscountTypeNone}
}

// Validate rejects out-of-range values before they reach the cart.
func (d DiscountSpec) Validate() error {
	switch d.Type {
	case enums.DiscountTypeNone, "":
		return nil
	case enums.DiscountTypePercentage:
		if d.Value.IsNegative() || d.Value.GreaterThan(maxPercentage) {
			return pkgerrors.Validation("invalid discount", pkgerrors.FieldError{Field: "value", Message: "percentage must be between 0 and 100"})
		}
		return nil
	case enums.DiscountTypeAmount:
		if d.Value.IsNegative() {
			return pkgerrors.Validation("invalid discount", pkgerrors.FieldError{Field: "value", Message: "amount must not be negative"})
		}
		return nil
	default:
		return pkgerrors.Validation("invalid discount", pkgerrors.FieldError{Field: "type", Message: "unknown discount type"})
	}
}

// Percentage returns the rate for percentage discounts and zero otherwise.
func (d DiscountSpec) Percentage() decimal.Decimal {
	if d.Type != enums.DiscountTypePercentage {
		return decimal.Zero
	}
	return d.Value
}

// IsActive reports whether the discount would take anything off a positive subtotal.
func (d DiscountSpec) IsActive() bool {
	return (d.Type == enums.DiscountTypePercentage || d.Type == enums.DiscountTypeAmount) && d.Value.IsPositive()
}

// DiscountAmount computes the discount for subtotal. The result is never negative and
// never larger than subtotal.
func DiscountAmount(subtotal decimal.Decimal, spec DiscountSpec) decimal.Decimal {
	if !subtotal.IsPositive() {
		return decimal.Zero
	}

	var amount decimal.Decimal
	switch spec.Type {
	case enums.DiscountTypePercentage:
		pct := decimal.Max(decimal.Zero, decimal.Min(spec.Value, maxPercentage))
		amount = money.Percent(subtotal, pct)
	case enums.DiscountTypeAmount:
		amount = money.Round(decimal.Min(money.NonNegative(spec.Value), subtotal))
	default:
		return decimal.Zero
	}
	return decimal.Min(amount, subtotal)
}
