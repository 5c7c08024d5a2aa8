package product

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/db/models"
)

const codeUniqueConstraint = "products_code_key"

// Repository wires together all product-related persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindByID loads the product with its schedule.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Schedules", func(db *gorm.DB) *gorm.DB {
			return db.Order("day_of_week ASC")
		}).
		First(&product, "id = ?", id).
		Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// Create inserts a new product row. Schedules on the struct are not written here.
func (r *Repository) Create(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Omit("Schedules").Create(product).Error
}

// Save updates every column of an existing product row.
func (r *Repository) Save(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Omit("Schedules").Save(product).Error
}

// Delete removes a product and its schedule rows.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Where("product_id = ?", id).Delete(&models.ProductSchedule{}).Error; err != nil {
		return err
	}
	return tx.Where("id = ?", id).Delete(&models.Product{}).Error
}

// ReplaceSchedule swaps the weekday schedule of a product.
func (r *Repository) ReplaceSchedule(ctx context.Context, productID uuid.UUID, days []int) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Where("product_id = ?", productID).Delete(&models.ProductSchedule{}).Error; err != nil {
		return err
	}
	if len(days) == 0 {
		return nil
	}
	rows := make([]models.ProductSchedule, 0, len(days))
	for _, day := range days {
		rows = append(rows, models.ProductSchedule{ProductID: productID, DayOfWeek: day})
	}
	return tx.Create(&rows).Error
}

// List returns the catalog ordered by name.
func (r *Repository) List(ctx context.Context, filters ListFilters) ([]models.Product, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Preload("Schedules", func(db *gorm.DB) *gorm.DB {
			return db.Order("day_of_week ASC")
		})

	if filters.Category != nil {
		query = query.Where("category = ?", *filters.Category)
	}
	if filters.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	if term := strings.ToLower(strings.TrimSpace(filters.Query)); term != "" {
		like := "%" + escapeLike(term) + "%"
		query = query.Where(
			"LOWER(name) LIKE ? ESCAPE '\\' OR LOWER(COALESCE(code, '')) LIKE ? ESCAPE '\\' OR LOWER(description) LIKE ? ESCAPE '\\'",
			like, like, like,
		)
	}
	if filters.AvailableOn != nil {
		query = query.Where(
			"NOT EXISTS (SELECT 1 FROM product_schedules ps WHERE ps.product_id = products.id) OR EXISTS (SELECT 1 FROM product_schedules ps WHERE ps.product_id = products.id AND ps.day_of_week = ?)",
			*filters.AvailableOn,
		)
	}

	var rows []models.Product
	err := query.Order("name ASC").Find(&rows).Error
	return rows, err
}

func escapeLike(term string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(term)
}
