package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/enums"
)

// SaleCreatedEvent is emitted in the same transaction that persists a PDV sale.
type SaleCreatedEvent struct {
	SaleID         uuid.UUID           `json:"sale_id"`
	RegisterID     uuid.UUID           `json:"register_id"`
	OperatorID     *uuid.UUID          `json:"operator_id,omitempty"`
	Channel        string              `json:"channel"`
	PaymentType    enums.PaymentMethod `json:"payment_type"`
	Subtotal       decimal.Decimal     `json:"subtotal"`
	DiscountAmount decimal.Decimal     `json:"discount_amount"`
	TotalAmount    decimal.Decimal     `json:"total_amount"`
	ChangeAmount   decimal.Decimal     `json:"change_amount"`
	SplitParts     int                 `json:"split_parts,omitempty"`
	Items          []SaleItemSummary   `json:"items"`
	CreatedAt      time.Time           `json:"created_at"`
}

// SaleItemSummary is the per-line slice of a sale used by analytics.
type SaleItemSummary struct {
	ProductID   uuid.UUID        `json:"product_id"`
	ProductName string           `json:"product_name"`
	Quantity    int              `json:"quantity"`
	WeightKg    *decimal.Decimal `json:"weight_kg,omitempty"`
	Subtotal    decimal.Decimal  `json:"subtotal"`
}

// RegisterOpenedEvent is emitted when an operator opens a cash register.
type RegisterOpenedEvent struct {
	RegisterID    uuid.UUID       `json:"register_id"`
	OperatorID    uuid.UUID       `json:"operator_id"`
	OpeningAmount decimal.Decimal `json:"opening_amount"`
	OpenedAt      time.Time       `json:"opened_at"`
}

// RegisterClosedEvent carries the closing reconciliation of a register.
type RegisterClosedEvent struct {
	RegisterID    uuid.UUID       `json:"register_id"`
	OperatorID    uuid.UUID       `json:"operator_id"`
	ClosingAmount decimal.Decimal `json:"closing_amount"`
	ExpectedCash  decimal.Decimal `json:"expected_cash"`
	SalesCount    int64           `json:"sales_count"`
	SalesTotal    decimal.Decimal `json:"sales_total"`
	ClosedAt      time.Time       `json:"closed_at"`
}

// ProductDeletedEvent is emitted when a product leaves the catalog.
type ProductDeletedEvent struct {
	ProductID uuid.UUID `json:"product_id"`
	Code      *string   `json:"code,omitempty"`
	Name      string    `json:"name"`
}
