package registers

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/db/models"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/enums"
)

// Repository persists cash register sessions.
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

func (r *Repository) Create(ctx context.Context, register *models.CashRegister) error {
	return r.db.WithContext(ctx).Create(register).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.CashRegister, error) {
	var register models.CashRegister
	if err := r.db.WithContext(ctx).First(&register, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &register, nil
}

// FindByIDLocked reads the register under a row lock held until the surrounding
// transaction ends. Sales take it shared, Close takes it for update, so a close
// waits for in-flight sales and a sale never lands on a register being closed.
func (r *Repository) FindByIDLocked(ctx context.Context, id uuid.UUID, strength string) (*models.CashRegister, error) {
	var register models.CashRegister
	if err := r.lockedByID(ctx, id, strength).First(&register).Error; err != nil {
		return nil, err
	}
	return &register, nil
}

func (r *Repository) lockedByID(ctx context.Context, id uuid.UUID, strength string) *gorm.DB {
	return r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: strength}).
		Where("id = ?", id)
}

// FindOpenByOperator returns the operator's open register, if any.
func (r *Repository) FindOpenByOperator(ctx context.Context, operatorID uuid.UUID) (*models.CashRegister, error) {
	var register models.CashRegister
	err := r.db.WithContext(ctx).
		Where("operator_id = ? AND status = ?", operatorID, enums.RegisterStatusOpen).
		Order("opened_at DESC").
		First(&register).
		Error
	if err != nil {
		return nil, err
	}
	return &register, nil
}

// ListOpenedBefore returns registers still open that were opened before cutoff.
func (r *Repository) ListOpenedBefore(ctx context.Context, cutoff time.Time) ([]models.CashRegister, error) {
	var out []models.CashRegister
	err := r.db.WithContext(ctx).
		Where("status = ? AND opened_at < ?", enums.RegisterStatusOpen, cutoff).
		Order("opened_at ASC").
		Find(&out).
		Error
	return out, err
}

// MarkClosed flips an open register to closed. It reports false when the row was
// not open anymore.
func (r *Repository) MarkClosed(ctx context.Context, register *models.CashRegister) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.CashRegister{}).
		Where("id = ? AND status = ?", register.ID, enums.RegisterStatusOpen).
		Updates(map[string]any{
			"status":         enums.RegisterStatusClosed,
			"closing_amount": register.ClosingAmount,
			"closed_at":      register.ClosedAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

type salesTotals struct {
	Count     int64
	Total     decimal.Decimal
	CashTotal decimal.Decimal
}

// SalesTotals aggregates the non-cancelled sales attached to a register.
func (r *Repository) SalesTotals(ctx context.Context, registerID uuid.UUID) (salesTotals, error) {
	var rows []struct {
		PaymentType enums.PaymentMethod
		Count       int64
		Total       decimal.Decimal
	}
	err := r.db.WithContext(ctx).
		Model(&models.Sale{}).
		Select("payment_type, COUNT(*) AS count, COALESCE(SUM(total_amount), 0) AS total").
		Where("register_id = ? AND is_cancelled = ?", registerID, false).
		Group("payment_type").
		Scan(&rows).
		Error
	if err != nil {
		return salesTotals{}, err
	}

	totals := salesTotals{Total: decimal.Zero, CashTotal: decimal.Zero}
	for _, row := range rows {
		totals.Count += row.Count
		totals.Total = totals.Total.Add(row.Total)
		if row.PaymentType.TakesTender() {
			totals.CashTotal = totals.CashTotal.Add(row.Total)
		}
	}
	return totals, nil
}
