package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/enums"
)

// Sale is a committed point-of-sale transaction.
type Sale struct {
	ID                 uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	RegisterID         uuid.UUID           `gorm:"column:register_id;type:uuid;not null;index"`
	OperatorID         *uuid.UUID          `gorm:"column:operator_id;type:uuid"`
	CustomerName       string              `gorm:"column:customer_name;not null"`
	CustomerPhone      string              `gorm:"column:customer_phone;not null;default:''"`
	Subtotal           decimal.Decimal     `gorm:"column:subtotal;type:numeric(12,2);not null"`
	DiscountAmount     decimal.Decimal     `gorm:"column:discount_amount;type:numeric(12,2);not null"`
	DiscountPercentage decimal.Decimal     `gorm:"column:discount_percentage;type:numeric(5,2);not null"`
	TotalAmount        decimal.Decimal     `gorm:"column:total_amount;type:numeric(12,2);not null"`
	PaymentType        enums.PaymentMethod `gorm:"column:payment_type;not null"`
	PaymentDetails     json.RawMessage     `gorm:"column:payment_details;type:jsonb;not null"`
	ChangeAmount       decimal.Decimal     `gorm:"column:change_amount;type:numeric(12,2);not null"`
	Notes              string              `gorm:"column:notes;not null;default:''"`
	IsCancelled        bool                `gorm:"column:is_cancelled;not null;default:false"`
	Channel            string              `gorm:"column:channel;not null"`
	Items              []SaleItem          `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE"`
	CreatedAt          time.Time           `gorm:"column:created_at;autoCreateTime"`
}

func (s *Sale) BeforeCreate(*gorm.DB) error {
	ensureID(&s.ID)
	return nil
}

// SaleItem snapshots one cart line at the time of sale.
type SaleItem struct {
	ID             uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	SaleID         uuid.UUID        `gorm:"column:sale_id;type:uuid;not null;index"`
	ProductID      uuid.UUID        `gorm:"column:product_id;type:uuid;not null"`
	ProductCode    string           `gorm:"column:product_code;not null;default:''"`
	ProductName    string           `gorm:"column:product_name;not null"`
	Quantity       int              `gorm:"column:quantity;not null"`
	WeightKg       *decimal.Decimal `gorm:"column:weight_kg;type:numeric(10,3)"`
	UnitPrice      *decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2)"`
	PricePerGram   *decimal.Decimal `gorm:"column:price_per_gram;type:numeric(12,4)"`
	DiscountAmount decimal.Decimal  `gorm:"column:discount_amount;type:numeric(12,2);not null"`
	Subtotal       decimal.Decimal  `gorm:"column:subtotal;type:numeric(12,2);not null"`
}

func (i *SaleItem) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}
