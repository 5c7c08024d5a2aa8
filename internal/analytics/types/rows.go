package types

import (
	"time"

	cbigquery "cloud.google.com/go/bigquery"
)

// SaleRow mirrors the pdv.sales BigQuery schema. Amounts are stored in centavos.
type SaleRow struct {
	EventID       string             `bigquery:"event_id"`
	SaleID        string             `bigquery:"sale_id"`
	RegisterID    string             `bigquery:"register_id"`
	OperatorID    *string            `bigquery:"operator_id"`
	Channel       string             `bigquery:"channel"`
	PaymentType   string             `bigquery:"payment_type"`
	SaleDate      string             `bigquery:"sale_date"`
	OccurredAt    time.Time          `bigquery:"occurred_at"`
	SubtotalCents int64              `bigquery:"subtotal_cents"`
	DiscountCents int64              `bigquery:"discount_cents"`
	TotalCents    int64              `bigquery:"total_cents"`
	ChangeCents   int64              `bigquery:"change_cents"`
	SplitParts    int64              `bigquery:"split_parts"`
	ItemCount     int64              `bigquery:"item_count"`
	Items         []SaleItemRow      `bigquery:"items"`
	Payload       cbigquery.NullJSON `bigquery:"payload"`
}

// SaleItemRow is one repeated item record inside SaleRow.
type SaleItemRow struct {
	ProductID     string                `bigquery:"product_id"`
	ProductName   string                `bigquery:"product_name"`
	Quantity      int64                 `bigquery:"quantity"`
	WeightKg      cbigquery.NullFloat64 `bigquery:"weight_kg"`
	SubtotalCents int64                 `bigquery:"subtotal_cents"`
}
