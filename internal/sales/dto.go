package sales

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/db/models"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/enums"
)

// SaleDTO is a persisted sale.
type SaleDTO struct {
	ID                 uuid.UUID           `json:"id"`
	RegisterID         uuid.UUID           `json:"register_id"`
	OperatorID         *uuid.UUID          `json:"operator_id,omitempty"`
	CustomerName       string              `json:"customer_name"`
	CustomerPhone      string              `json:"customer_phone"`
	Items              []ItemRecord        `json:"items"`
	Subtotal           decimal.Decimal     `json:"subtotal"`
	DiscountAmount     decimal.Decimal     `json:"discount_amount"`
	DiscountPercentage decimal.Decimal     `json:"discount_percentage"`
	TotalAmount        decimal.Decimal     `json:"total_amount"`
	PaymentType        enums.PaymentMethod `json:"payment_type"`
	PaymentDetails     json.RawMessage     `json:"payment_details"`
	ChangeAmount       decimal.Decimal     `json:"change_amount"`
	Notes              string              `json:"notes"`
	Channel            string              `json:"channel"`
	IsCancelled        bool                `json:"is_cancelled"`
	CreatedAt          time.Time           `json:"created_at"`
}

func mapSaleDTO(sale *models.Sale) *SaleDTO {
	items := make([]ItemRecord, 0, len(sale.Items))
	for _, item := range sale.Items {
		items = append(items, ItemRecord{
			ProductID:      item.ProductID,
			ProductCode:    item.ProductCode,
			ProductName:    item.ProductName,
			Quantity:       item.Quantity,
			WeightKg:       item.WeightKg,
			UnitPrice:      item.UnitPrice,
			PricePerGram:   item.PricePerGram,
			DiscountAmount: item.DiscountAmount,
			Subtotal:       item.Subtotal,
		})
	}
	return &SaleDTO{
		ID:                 sale.ID,
		RegisterID:         sale.RegisterID,
		OperatorID:         sale.OperatorID,
		CustomerName:       sale.CustomerName,
		CustomerPhone:      sale.CustomerPhone,
		Items:              items,
		Subtotal:           sale.Subtotal,
		DiscountAmount:     sale.DiscountAmount,
		DiscountPercentage: sale.DiscountPercentage,
		TotalAmount:        sale.TotalAmount,
		PaymentType:        sale.PaymentType,
		PaymentDetails:     sale.PaymentDetails,
		ChangeAmount:       sale.ChangeAmount,
		Notes:              sale.Notes,
		Channel:            sale.Channel,
		IsCancelled:        sale.IsCancelled,
		CreatedAt:          sale.CreatedAt,
	}
}
