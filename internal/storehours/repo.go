package storehours

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/db/models"
)

// Repository persists the weekly opening hours.
type Repository struct {
	db *gorm.DB
}

// NewRepository returns a store-hours repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// List returns the stored rows ordered by weekday. Days never saved are absent.
func (r *Repository) List(ctx context.Context) ([]models.StoreHour, error) {
	var rows []models.StoreHour
	err := r.db.WithContext(ctx).Order("day_of_week ASC").Find(&rows).Error
	return rows, err
}

// Upsert writes every row, replacing existing days.
func (r *Repository) Upsert(ctx context.Context, rows []models.StoreHour) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "day_of_week"}},
			DoUpdates: clause.AssignmentColumns([]string{"is_open", "open_time", "close_time", "updated_at"}),
		}).
		Create(&rows).Error
}
