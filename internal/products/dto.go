package product

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/db/models"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/enums"
)

// ProductDTO is the catalog entry returned by the API.
type ProductDTO struct {
	ID            uuid.UUID             `json:"id"`
	Code          *string               `json:"code,omitempty"`
	Name          string                `json:"name"`
	Description   string                `json:"description"`
	Category      enums.ProductCategory `json:"category"`
	CategoryLabel string                `json:"category_label"`
	Price         decimal.Decimal       `json:"price"`
	OriginalPrice *decimal.Decimal      `json:"original_price,omitempty"`
	PricePerGram  *decimal.Decimal      `json:"price_per_gram,omitempty"`
	IsWeighable   bool                  `json:"is_weighable"`
	IsActive      bool                  `json:"is_active"`
	StockQuantity *int                  `json:"stock_quantity,omitempty"`
	MinStock      *int                  `json:"min_stock,omitempty"`
	ImageURL      *string               `json:"image_url,omitempty"`
	AvailableDays []int                 `json:"available_days"`
	HasPromotion  bool                  `json:"has_promotion"`
	LowStock      bool                  `json:"low_stock"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
}

func mapProductDTO(product *models.Product) ProductDTO {
	days := make([]int, 0, len(product.Schedules))
	for _, schedule := range product.Schedules {
		days = append(days, schedule.DayOfWeek)
	}
	return ProductDTO{
		ID:            product.ID,
		Code:          product.Code,
		Name:          product.Name,
		Description:   product.Description,
		Category:      product.Category,
		CategoryLabel: product.Category.Label(),
		Price:         product.Price,
		OriginalPrice: product.OriginalPrice,
		PricePerGram:  product.PricePerGram,
		IsWeighable:   product.IsWeighable,
		IsActive:      product.IsActive,
		StockQuantity: product.StockQuantity,
		MinStock:      product.MinStock,
		ImageURL:      product.ImageURL,
		AvailableDays: days,
		HasPromotion:  hasPromotion(product),
		LowStock:      isLowStock(product),
		CreatedAt:     product.CreatedAt,
		UpdatedAt:     product.UpdatedAt,
	}
}

// hasPromotion is true when the crossed-out original price is above the selling price.
func hasPromotion(product *models.Product) bool {
	return product.OriginalPrice != nil && product.OriginalPrice.GreaterThan(product.Price)
}

func isLowStock(product *models.Product) bool {
	if product.StockQuantity == nil || product.MinStock == nil {
		return false
	}
	return *product.StockQuantity <= *product.MinStock
}

// AvailableOn reports whether the product is sold on weekday (0=Sunday).
func (p ProductDTO) AvailableOn(weekday time.Weekday) bool {
	if len(p.AvailableDays) == 0 {
		return true
	}
	for _, day := range p.AvailableDays {
		if day == int(weekday) {
			return true
		}
	}
	return false
}
