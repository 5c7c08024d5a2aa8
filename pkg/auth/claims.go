package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	OperatorID uuid.UUID
	Name       string
	Role       enums.OperatorRole
	JTI        string
}

// AccessTokenClaims represents the typed JWT issued to operators.
type AccessTokenClaims struct {
	OperatorID uuid.UUID          `json:"operator_id"`
	Name       string             `json:"name"`
	Role       enums.OperatorRole `json:"role"`
	jwt.RegisteredClaims
}

// IsAdmin reports whether the operator may change catalog and store settings.
func (c *AccessTokenClaims) IsAdmin() bool {
	return c != nil && c.Role == enums.OperatorRoleAdmin
}
