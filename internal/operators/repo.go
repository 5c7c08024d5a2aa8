package operators

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/db/models"
)

// Repository persists operators.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an operator repository bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, operator *models.Operator) error {
	return r.db.WithContext(ctx).Create(operator).Error
}

func (r *Repository) FindByCode(ctx context.Context, code string) (*models.Operator, error) {
	var operator models.Operator
	if err := r.db.WithContext(ctx).First(&operator, "code = ?", code).Error; err != nil {
		return nil, err
	}
	return &operator, nil
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Operator, error) {
	var operator models.Operator
	if err := r.db.WithContext(ctx).First(&operator, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &operator, nil
}

// List returns operators ordered by name.
func (r *Repository) List(ctx context.Context) ([]models.Operator, error) {
	var out []models.Operator
	err := r.db.WithContext(ctx).Order("name ASC").Find(&out).Error
	return out, err
}

func (r *Repository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.Operator{}).Where("id = ?", id).Update("last_login_at", at).Error
}

func (r *Repository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	return r.db.WithContext(ctx).Model(&models.Operator{}).Where("id = ?", id).Update("password_hash", hash).Error
}

func (r *Repository) SetActive(ctx context.Context, id uuid.UUID, active bool) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Operator{}).Where("id = ?", id).Update("is_active", active)
	return res.RowsAffected > 0, res.Error
}
