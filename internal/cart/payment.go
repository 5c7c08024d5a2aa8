package cart

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/enums"
	pkgerrors "github.com/gleilsonbarbosa2/elitepedidos2/pkg/errors"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/money"
)

// PaymentInfo records how the customer pays. AmountTendered only matters for cash.
type PaymentInfo struct {
	Method         enums.PaymentMethod `json:"method"`
	CustomerName   string              `json:"customer_name,omitempty"`
	CustomerPhone  string              `json:"customer_phone,omitempty"`
	AmountTendered *decimal.Decimal    `json:"amount_tendered,omitempty"`
}

// DefaultPayment starts every cart on cash.
func DefaultPayment() PaymentInfo {
	return PaymentInfo{Method: enums.PaymentMethodCash}
}

// SetMethod switches the method. A stored tendered amount is kept but ignored
// while the method is not cash.
func (p *PaymentInfo) SetMethod(method enums.PaymentMethod) error {
	if !method.IsValid() {
		return pkgerrors.Validation("invalid payment method", pkgerrors.FieldError{Field: "method", Message: "unknown payment method"})
	}
	p.Method = method
	return nil
}

// SetCustomer stores the optional customer identity.
func (p *PaymentInfo) SetCustomer(name, phone string) {
	p.CustomerName = strings.TrimSpace(name)
	p.CustomerPhone = strings.TrimSpace(phone)
}

// SetAmountTendered stores the cash handed over; nil clears it.
func (p *PaymentInfo) SetAmountTendered(amount *decimal.Decimal) error {
	if amount == nil {
		p.AmountTendered = nil
		return nil
	}
	if amount.IsNegative() {
		return pkgerrors.Validation("invalid amount tendered", pkgerrors.FieldError{Field: "amount_tendered", Message: "must not be negative"})
	}
	v := money.Round(*amount)
	p.AmountTendered = &v
	return nil
}

// Tendered returns the cash amount when it applies.
func (p PaymentInfo) Tendered() (decimal.Decimal, bool) {
	if !p.Method.TakesTender() || p.AmountTendered == nil {
		return decimal.Zero, false
	}
	return *p.AmountTendered, true
}

// ChangeOwed is max(0, tendered - total) for cash with a tendered amount.
// The second result is false when change does not apply.
func (p PaymentInfo) ChangeOwed(total decimal.Decimal) (decimal.Decimal, bool) {
	tendered, ok := p.Tendered()
	if !ok {
		return decimal.Zero, false
	}
	return ChangeOwed(total, tendered), true
}

// ChangeOwed is the pure change computation.
func ChangeOwed(total, tendered decimal.Decimal) decimal.Decimal {
	return money.Round(money.NonNegative(tendered.Sub(total)))
}

// CanConfirm blocks cash payments whose tendered amount does not cover total.
// Cash without a tendered amount is taken as exact payment.
func (p PaymentInfo) CanConfirm(total decimal.Decimal) error {
	tendered, ok := p.Tendered()
	if !ok {
		return nil
	}
	if tendered.LessThan(total) {
		return pkgerrors.New(pkgerrors.CodeValidation, "amount tendered is less than the total").WithDetails(map[string]string{
			"total":           total.StringFixed(money.Places),
			"amount_tendered": tendered.StringFixed(money.Places),
		})
	}
	return nil
}
