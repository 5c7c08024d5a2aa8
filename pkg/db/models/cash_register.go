package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/enums"
)

// CashRegister is one operator's till session; sales attach to an open register.
type CashRegister struct {
	ID            uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	OperatorID    uuid.UUID            `gorm:"column:operator_id;type:uuid;not null;index"`
	Status        enums.RegisterStatus `gorm:"column:status;not null;index"`
	OpeningAmount decimal.Decimal      `gorm:"column:opening_amount;type:numeric(12,2);not null"`
	ClosingAmount *decimal.Decimal     `gorm:"column:closing_amount;type:numeric(12,2)"`
	OpenedAt      time.Time            `gorm:"column:opened_at;not null"`
	ClosedAt      *time.Time           `gorm:"column:closed_at"`
	CreatedAt     time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

func (r *CashRegister) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	return nil
}
