// Package scale reads the counter scale through the in-store HTTP bridge.
package scale

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

var gramsPerKg = decimal.NewFromInt(1000)

// Reading is one weight sample from the scale.
type Reading struct {
	Grams  decimal.Decimal `json:"grams"`
	Stable bool            `json:"stable"`
	ReadAt time.Time       `json:"read_at"`
}

// Kilograms converts the sample to kilograms, the unit cart lines use.
func (r Reading) Kilograms() decimal.Decimal {
	return r.Grams.Div(gramsPerKg).Round(3)
}

// Reader returns the current weight on the scale.
type Reader interface {
	Read(ctx context.Context) (Reading, error)
}
