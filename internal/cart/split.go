package cart

import (
	"fmt"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/gleilsonbarbosa2/elitepedidos2/pkg/errors"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/money"
)

const (
	MinSplitParts = 2
	MaxSplitParts = 10
)

// SplitTolerance is how far the shares may drift from the total and still confirm.
var SplitTolerance = decimal.RequireFromString("0.01")

// SplitInfo divides the cart total into per-person shares.
type SplitInfo struct {
	Enabled bool              `json:"enabled"`
	Parts   int               `json:"parts"`
	Amounts []decimal.Decimal `json:"amounts"`
}

// DefaultSplit is a disabled two-way split.
func DefaultSplit() SplitInfo {
	return SplitInfo{Parts: MinSplitParts}
}

// EqualSplit divides total into parts shares. The arithmetic runs in cents and the
// leftover cents go to the first shares, so the shares always add up to total.
func EqualSplit(total decimal.Decimal, parts int) []decimal.Decimal {
	if parts <= 0 {
		return nil
	}
	cents := money.Cents(money.NonNegative(total))
	base := cents / int64(parts)
	remainder := cents % int64(parts)

	out := make([]decimal.Decimal, parts)
	for i := range out {
		share := base
		if int64(i) < remainder {
			share++
		}
		out[i] = money.FromCents(share)
	}
	return out
}

func validateParts(parts int) error {
	if parts < MinSplitParts || parts > MaxSplitParts {
		return pkgerrors.Validation("invalid split", pkgerrors.FieldError{
			Field:   "parts",
			Message: fmt.Sprintf("parts must be between %d and %d", MinSplitParts, MaxSplitParts),
		})
	}
	return nil
}

// Enable turns splitting on with a fresh equal split of total.
func (s *SplitInfo) Enable(total decimal.Decimal, parts int) error {
	if err := validateParts(parts); err != nil {
		return err
	}
	s.Enabled = true
	s.Parts = parts
	s.ResetEqualSplit(total)
	return nil
}

// Disable turns splitting off and drops the shares.
func (s *SplitInfo) Disable() {
	*s = DefaultSplit()
}

// SetParts changes the number of shares, discarding manual overrides.
func (s *SplitInfo) SetParts(parts int, total decimal.Decimal) error {
	if err := validateParts(parts); err != nil {
		return err
	}
	s.Parts = parts
	s.ResetEqualSplit(total)
	return nil
}

// ResetEqualSplit re-derives equal shares for the current number of parts.
func (s *SplitInfo) ResetEqualSplit(total decimal.Decimal) {
	s.Amounts = EqualSplit(total, s.Parts)
}

// SetPartAmount overwrites one share. Other shares are not rebalanced.
func (s *SplitInfo) SetPartAmount(index int, amount decimal.Decimal) error {
	if !s.Enabled {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "split payment is not enabled")
	}
	if index < 0 || index >= len(s.Amounts) {
		return pkgerrors.Validation("invalid split part", pkgerrors.FieldError{
			Field:   "index",
			Message: fmt.Sprintf("index must be between 0 and %d", len(s.Amounts)-1),
		})
	}
	if amount.IsNegative() {
		return pkgerrors.Validation("invalid split part", pkgerrors.FieldError{Field: "amount", Message: "amount must not be negative"})
	}
	s.Amounts[index] = money.Round(amount)
	return nil
}

// Sum adds up the shares.
func (s SplitInfo) Sum() decimal.Decimal {
	return money.Sum(s.Amounts...)
}

// Difference is total minus the shares; positive means shares are short.
func (s SplitInfo) Difference(total decimal.Decimal) decimal.Decimal {
	return total.Sub(s.Sum())
}

// Reconciles reports whether the shares are within SplitTolerance of total.
func (s SplitInfo) Reconciles(total decimal.Decimal) bool {
	return s.Difference(total).Abs().LessThanOrEqual(SplitTolerance)
}

// Validate gates confirmation; it does not block editing shares.
func (s SplitInfo) Validate(total decimal.Decimal) error {
	if !s.Enabled {
		return nil
	}
	if len(s.Amounts) != s.Parts {
		return pkgerrors.New(pkgerrors.CodeValidation, "split shares do not match the number of parts")
	}
	if !s.Reconciles(total) {
		return pkgerrors.New(pkgerrors.CodeValidation, "split shares do not add up to the total").WithDetails(map[string]string{
			"total":      total.StringFixed(money.Places),
			"sum":        s.Sum().StringFixed(money.Places),
			"difference": s.Difference(total).StringFixed(money.Places),
		})
	}
	return nil
}
