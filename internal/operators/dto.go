package operators

import (
	"time"

	"github.com/google/uuid"

	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/db/models"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/enums"
)

// LoginRequest carries the operator code and password typed at the counter.
type LoginRequest struct {
	Code     string `json:"code" validate:"required,max=32"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is returned after a successful login.
type LoginResponse struct {
	AccessToken string       `json:"access_token"`
	ExpiresAt   time.Time    `json:"expires_at"`
	Operator    *OperatorDTO `json:"operator"`
}

// CreateOperatorInput describes a new operator.
type CreateOperatorInput struct {
	Name     string             `json:"name" validate:"required,max=120"`
	Code     string             `json:"code" validate:"required,max=32"`
	Password string             `json:"password" validate:"required"`
	Role     enums.OperatorRole `json:"role" validate:"required,oneof=admin operator"`
}

// OperatorDTO is the public view of an operator.
type OperatorDTO struct {
	ID          uuid.UUID          `json:"id"`
	Name        string             `json:"name"`
	Code        string             `json:"code"`
	Role        enums.OperatorRole `json:"role"`
	IsActive    bool               `json:"is_active"`
	LastLoginAt *time.Time         `json:"last_login_at,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
}

// FromModel maps the persisted operator without its password hash.
func FromModel(m *models.Operator) *OperatorDTO {
	if m == nil {
		return nil
	}
	return &OperatorDTO{
		ID:          m.ID,
		Name:        m.Name,
		Code:        m.Code,
		Role:        m.Role,
		IsActive:    m.IsActive,
		LastLoginAt: m.LastLoginAt,
		CreatedAt:   m.CreatedAt,
	}
}
