package media

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/db/models"
)

// Repository persists the image recorded for each product.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a media repository bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Find returns the product image or nil when none was saved.
func (r *Repository) Find(ctx context.Context, productID uuid.UUID) (*models.ProductImage, error) {
	var img models.ProductImage
	err := r.db.WithContext(ctx).First(&img, "product_id = ?", productID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &img, nil
}

// Upsert replaces the image of the product.
func (r *Repository) Upsert(ctx context.Context, img *models.ProductImage) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "product_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"url", "object_name", "content_type", "updated_at"}),
	}).Create(img).Error
}

// Delete removes the image row of the product.
func (r *Repository) Delete(ctx context.Context, productID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("product_id = ?", productID).Delete(&models.ProductImage{}).Error
}

// ProductExists reports whether the product row is present.
func (r *Repository) ProductExists(ctx context.Context, productID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", productID).Count(&count).Error
	return count > 0, err
}
