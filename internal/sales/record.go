package sales

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/enums"
)

// ChannelPDV tags sales made at the counter.
const ChannelPDV = "pdv"

// Record is the immutable snapshot of a checked-out cart handed to Create.
type Record struct {
	OperatorID         *uuid.UUID          `json:"operator_id,omitempty"`
	CustomerName       string              `json:"customer_name"`
	CustomerPhone      string              `json:"customer_phone"`
	Items              []ItemRecord        `json:"items"`
	Subtotal           decimal.Decimal     `json:"subtotal"`
	DiscountAmount     decimal.Decimal     `json:"discount_amount"`
	DiscountPercentage decimal.Decimal     `json:"discount_percentage"`
	TotalAmount        decimal.Decimal     `json:"total_amount"`
	PaymentType        enums.PaymentMethod `json:"payment_type"`
	PaymentDetails     PaymentDetails      `json:"payment_details"`
	ChangeAmount       decimal.Decimal     `json:"change_amount"`
	Notes              string              `json:"notes"`
	Channel            string              `json:"channel"`
}

// ItemRecord is one sold line.
type ItemRecord struct {
	ProductID      uuid.UUID        `json:"product_id"`
	ProductCode    string           `json:"product_code"`
	ProductName    string           `json:"product_name"`
	Quantity       int              `json:"quantity"`
	WeightKg       *decimal.Decimal `json:"weight_kg,omitempty"`
	UnitPrice      *decimal.Decimal `json:"unit_price,omitempty"`
	PricePerGram   *decimal.Decimal `json:"price_per_gram,omitempty"`
	DiscountAmount decimal.Decimal  `json:"discount_amount"`
	Subtotal       decimal.Decimal  `json:"subtotal"`
}

// PaymentDetails is stored as JSON next to the sale.
type PaymentDetails struct {
	Method        enums.PaymentMethod `json:"payment_method"`
	CustomerName  string              `json:"customer_name,omitempty"`
	CustomerPhone string              `json:"customer_phone,omitempty"`
	ChangeFor     *decimal.Decimal    `json:"change_for,omitempty"`
	ChangeAmount  *decimal.Decimal    `json:"change_amount,omitempty"`
	SplitInfo     *SplitDetails       `json:"split_info,omitempty"`
}

// SplitDetails records how the total was shared between payers.
type SplitDetails struct {
	Enabled bool              `json:"enabled"`
	Parts   int               `json:"parts"`
	Amounts []decimal.Decimal `json:"amounts"`
}

// SplitParts returns the number of shares, zero when the sale was not split.
func (r Record) SplitParts() int {
	if r.PaymentDetails.SplitInfo == nil || !r.PaymentDetails.SplitInfo.Enabled {
		return 0
	}
	return r.PaymentDetails.SplitInfo.Parts
}
