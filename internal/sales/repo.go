package sales

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/db/models"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/pagination"
)

// Repository persists sales and their items.
type Repository struct {
	db *gorm.DB
}

// NewRepository returns a repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create inserts the sale together with its items.
func (r *Repository) Create(ctx context.Context, sale *models.Sale) error {
	return r.db.WithContext(ctx).Create(sale).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Sale, error) {
	var sale models.Sale
	err := r.db.WithContext(ctx).
		Preload("Items").
		First(&sale, "id = ?", id).
		Error
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

// ListByRegister returns up to limit sales of the register, newest first, starting
// after cursor when one is given.
func (r *Repository) ListByRegister(ctx context.Context, registerID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Sale, error) {
	var rows []models.Sale
	query := r.db.WithContext(ctx).
		Preload("Items").
		Where("register_id = ?", registerID)
	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}
	query = query.Order("created_at DESC").Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&rows).Error
	return rows, err
}
