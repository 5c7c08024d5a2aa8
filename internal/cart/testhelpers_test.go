package cart

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/enums"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return d
}

func decPtr(t *testing.T, s string) *decimal.Decimal {
	d := dec(t, s)
	return &d
}

func unitProduct(t *testing.T, price string) ProductRef {
	return ProductRef{
		ID:        uuid.New(),
		Code:      "ACAI-300",
		Name:      "Açaí 300ml",
		Category:  enums.ProductCategoryAcai,
		UnitPrice: dec(t, price),
	}
}

func weighableProduct(t *testing.T, perGram string) ProductRef {
	return ProductRef{
		ID:           uuid.New(),
		Code:         "ACAI-KG",
		Name:         "Açaí no peso",
		Category:     enums.ProductCategoryAcai,
		PricePerGram: decPtr(t, perGram),
		IsWeighable:  true,
	}
}

func assertDec(t *testing.T, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(dec(t, want)) {
		t.Fatalf("expected %s, got %s", want, got.String())
	}
}
