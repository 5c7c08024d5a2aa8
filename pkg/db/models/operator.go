package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/enums"
)

// Operator is a staff member allowed to sign in to the PDV and admin screens.
type Operator struct {
	ID           uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	Name         string             `gorm:"column:name;not null"`
	Code         string             `gorm:"column:code;not null;uniqueIndex:operators_code_key"`
	PasswordHash string             `gorm:"column:password_hash;not null"`
	Role         enums.OperatorRole `gorm:"column:role;not null"`
	IsActive     bool               `gorm:"column:is_active;not null;default:true"`
	LastLoginAt  *time.Time         `gorm:"column:last_login_at"`
	CreatedAt    time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Operator) BeforeCreate(*gorm.DB) error {
	ensureID(&o.ID)
	return nil
}
