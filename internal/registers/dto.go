package registers

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/db/models"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/enums"
)

// RegisterDTO is the cash register session returned by the API.
type RegisterDTO struct {
	ID            uuid.UUID            `json:"id"`
	OperatorID    uuid.UUID            `json:"operator_id"`
	Status        enums.RegisterStatus `json:"status"`
	OpeningAmount decimal.Decimal      `json:"opening_amount"`
	ClosingAmount *decimal.Decimal     `json:"closing_amount,omitempty"`
	OpenedAt      time.Time            `json:"opened_at"`
	ClosedAt      *time.Time           `json:"closed_at,omitempty"`
}

// Summary reconciles a register against its sales.
type Summary struct {
	RegisterID    uuid.UUID            `json:"register_id"`
	Status        enums.RegisterStatus `json:"status"`
	SalesCount    int64                `json:"sales_count"`
	SalesTotal    decimal.Decimal      `json:"sales_total"`
	CashSales     decimal.Decimal      `json:"cash_sales"`
	OpeningAmount decimal.Decimal      `json:"opening_amount"`
	ExpectedCash  decimal.Decimal      `json:"expected_cash"`
	ClosingAmount *decimal.Decimal     `json:"closing_amount,omitempty"`
	// Difference is closing minus expected cash, set once the register is closed.
	Difference *decimal.Decimal `json:"difference,omitempty"`
}

func mapRegisterDTO(register *models.CashRegister) *RegisterDTO {
	return &RegisterDTO{
		ID:            register.ID,
		OperatorID:    register.OperatorID,
		Status:        register.Status,
		OpeningAmount: register.OpeningAmount,
		ClosingAmount: register.ClosingAmount,
		OpenedAt:      register.OpenedAt,
		ClosedAt:      register.ClosedAt,
	}
}
