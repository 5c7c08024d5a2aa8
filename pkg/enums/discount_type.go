package enums

import "slices"

// DiscountType tags the cart-level discount variant.
type DiscountType string

const (
	DiscountTypeNone       DiscountType = "none"
	DiscountTypePercentage DiscountType = "percentage"
	DiscountTypeAmount     DiscountType = "amount"
)

var validDiscountTypes = []DiscountType{
	DiscountTypeNone,
	DiscountTypePercentage,
	DiscountTypeAmount,
}

// String implements fmt.Stringer.
func (d DiscountType) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DiscountType.
func (d DiscountType) IsValid() bool {
	return slices.Contains(validDiscountTypes, d)
}

// ParseDiscountType converts raw input into a DiscountType.
func ParseDiscountType(value string) (DiscountType, error) {
	return parseEnum(validDiscountTypes, "discount type", value)
}
