package enums

import "slices"

// PaymentMethod describes how a point-of-sale customer settles the cart.
type PaymentMethod string

const (
	PaymentMethodCash       PaymentMethod = "cash"
	PaymentMethodPix        PaymentMethod = "pix"
	PaymentMethodCreditCard PaymentMethod = "credit_card"
	PaymentMethodDebitCard  PaymentMethod = "debit_card"
	PaymentMethodVoucher    PaymentMethod = "voucher"
	PaymentMethodMixed      PaymentMethod = "mixed"
)

var validPaymentMethods = []PaymentMethod{
	PaymentMethodCash,
	PaymentMethodPix,
	PaymentMethodCreditCard,
	PaymentMethodDebitCard,
	PaymentMethodVoucher,
	PaymentMethodMixed,
}

var paymentMethodLabels = map[PaymentMethod]string{
	PaymentMethodCash:       "Dinheiro",
	PaymentMethodPix:        "PIX",
	PaymentMethodCreditCard: "Cartão de Crédito",
	PaymentMethodDebitCard:  "Cartão de Débito",
	PaymentMethodVoucher:    "Voucher",
	PaymentMethodMixed:      "Pagamento Misto",
}

// String implements fmt.Stringer.
func (p PaymentMethod) String() string {
	return string(p)
}

// TakesTender reports whether the customer hands over money that may need
// change. Only cash does; card, pix and voucher settle the exact total.
func (p PaymentMethod) TakesTender() bool {
	return p == PaymentMethodCash
}

// Label returns the pt-BR label printed on receipts and sale notes.
func (p PaymentMethod) Label() string {
	if label, ok := paymentMethodLabels[p]; ok {
		return label
	}
	return string(p)
}

// IsValid reports whether the value is a known PaymentMethod.
func (p PaymentMethod) IsValid() bool {
	return slices.Contains(validPaymentMethods, p)
}

// ParsePaymentMethod converts raw input into a PaymentMethod.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	return parseEnum(validPaymentMethods, "payment method", value)
}
