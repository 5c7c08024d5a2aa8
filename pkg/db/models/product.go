package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/enums"
)

// Product is a menu item sold at the counter, priced per unit or per gram.
type Product struct {
	ID            uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	Code          *string               `gorm:"column:code;uniqueIndex:products_code_key"`
	Name          string                `gorm:"column:name;not null"`
	Description   string                `gorm:"column:description;not null"`
	Category      enums.ProductCategory `gorm:"column:category;not null;index"`
	Price         decimal.Decimal       `gorm:"column:price;type:numeric(12,2);not null"`
	OriginalPrice *decimal.Decimal      `gorm:"column:original_price;type:numeric(12,2)"`
	PricePerGram  *decimal.Decimal      `gorm:"column:price_per_gram;type:numeric(12,4)"`
	IsWeighable   bool                  `gorm:"column:is_weighable;not null;default:false"`
	IsActive      bool                  `gorm:"column:is_active;not null;default:true"`
	StockQuantity *int                  `gorm:"column:stock_quantity"`
	MinStock      *int                  `gorm:"column:min_stock"`
	ImageURL      *string               `gorm:"column:image_url"`
	Schedules     []ProductSchedule     `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// ProductSchedule marks a weekday (0=Sunday) on which a scheduled product is sold.
type ProductSchedule struct {
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;primaryKey"`
	DayOfWeek int       `gorm:"column:day_of_week;primaryKey;autoIncrement:false"`
}

// ProductImage records the stored image for a product.
type ProductImage struct {
	ProductID   uuid.UUID `gorm:"column:product_id;type:uuid;primaryKey"`
	URL         string    `gorm:"column:url;not null"`
	ObjectName  *string   `gorm:"column:object_name"`
	ContentType *string   `gorm:"column:content_type"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
