package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/enums"
	pkgerrors "github.com/gleilsonbarbosa2/elitepedidos2/pkg/errors"
)

func TestDiscountAmount(t *testing.T) {
	cases := []struct {
		name     string
		subtotal string
		spec     DiscountSpec
		want     string
	}{
		{name: "none", subtotal: "35", spec: NoDiscount(), want: "0"},
		{name: "ten percent", subtotal: "35", spec: DiscountSpec{Type: enums.DiscountTypePercentage, Value: decimal.NewFromInt(10)}, want: "3.5"},
		{name: "full percent", subtotal: "35", spec: DiscountSpec{Type: enums.DiscountTypePercentage, Value: decimal.NewFromInt(100)}, want: "35"},
		{name: "amount below subtotal", subtotal: "35", spec: DiscountSpec{Type: enums.DiscountTypeAmount, Value: decimal.NewFromInt(5)}, want: "5"},
		{name: "amount clamps to subtotal", subtotal: "35", spec: DiscountSpec{Type: enums.DiscountTypeAmount, Value: decimal.NewFromInt(50)}, want: "35"},
		{name: "empty subtotal", subtotal: "0", spec: DiscountSpec{Type: enums.DiscountTypeAmount, Value: decimal.NewFromInt(5)}, want: "0"},
		{name: "rounds to cents", subtotal: "10.01", spec: DiscountSpec{Type: enums.DiscountTypePercentage, Value: decimal.NewFromInt(15)}, want: "1.50"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := DiscountAmount(decimal.RequireFromString(tc.subtotal), tc.spec)
			assert.True(t, got.Equal(decimal.RequireFromString(tc.want)), "got %s want %s", got, tc.want)
		})
	}
}

func TestDiscountValidate(t *testing.T) {
	require.NoError(t, DiscountSpec{Type: enums.DiscountTypePercentage, Value: decimal.NewFromInt(100)}.Validate())
	require.NoError(t, NoDiscount().Validate())

	err := DiscountSpec{Type: enums.DiscountTypePercentage, Value: decimal.NewFromInt(101)}.Validate()
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	err = DiscountSpec{Type: enums.DiscountTypeAmount, Value: decimal.NewFromInt(-1)}.Validate()
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	err = DiscountSpec{Type: enums.DiscountType("bogus"), Value: decimal.NewFromInt(1)}.Validate()
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestEqualSplit(t *testing.T) {
	shares := EqualSplit(decimal.NewFromInt(100), 4)
	require.Len(t, shares, 4)
	for _, share := range shares {
		assert.True(t, share.Equal(decimal.NewFromInt(25)), "unexpected share %s", share)
	}

	shares = EqualSplit(decimal.NewFromInt(10), 3)
	require.Len(t, shares, 3)
	assert.Equal(t, "3.34", shares[0].StringFixed(2))
	assert.Equal(t, "3.33", shares[1].StringFixed(2))
	assert.Equal(t, "3.33", shares[2].StringFixed(2))

	assert.Nil(t, EqualSplit(decimal.NewFromInt(10), 0))
}

func TestSplitEditing(t *testing.T) {
	split := DefaultSplit()
	total := decimal.NewFromInt(100)

	err := split.SetPartAmount(0, decimal.NewFromInt(10))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict), "editing a disabled split should conflict")

	assert.True(t, pkgerrors.IsCode(split.Enable(total, 1), pkgerrors.CodeValidation))
	assert.True(t, pkgerrors.IsCode(split.Enable(total, 11), pkgerrors.CodeValidation))

	require.NoError(t, split.Enable(total, 4))
	require.NoError(t, split.Validate(total))

	require.NoError(t, split.SetPartAmount(0, decimal.NewFromInt(40)))
	assert.True(t, split.Difference(total).Equal(decimal.NewFromInt(-15)))
	assert.True(t, pkgerrors.IsCode(split.Validate(total), pkgerrors.CodeValidation))

	assert.True(t, pkgerrors.IsCode(split.SetPartAmount(4, decimal.NewFromInt(1)), pkgerrors.CodeValidation))
	assert.True(t, pkgerrors.IsCode(split.SetPartAmount(1, decimal.NewFromInt(-1)), pkgerrors.CodeValidation))

	require.NoError(t, split.SetParts(5, total))
	require.Len(t, split.Amounts, 5)
	require.NoError(t, split.Validate(total))

	split.Disable()
	assert.False(t, split.Enabled)
	require.NoError(t, split.Validate(total))
}

func TestSplitToleranceIsOneCent(t *testing.T) {
	split := DefaultSplit()
	total := decimal.NewFromInt(100)
	require.NoError(t, split.Enable(total, 2))
	require.NoError(t, split.SetPartAmount(0, decimal.RequireFromString("50.01")))
	assert.True(t, split.Reconciles(total))

	require.NoError(t, split.SetPartAmount(0, decimal.RequireFromString("50.02")))
	assert.False(t, split.Reconciles(total))
}

func TestPaymentChange(t *testing.T) {
	total := decimal.RequireFromString("37.50")
	payment := DefaultPayment()

	_, ok := payment.ChangeOwed(total)
	assert.False(t, ok, "no tendered amount means no change")
	require.NoError(t, payment.CanConfirm(total))

	tendered := decimal.NewFromInt(50)
	require.NoError(t, payment.SetAmountTendered(&tendered))
	change, ok := payment.ChangeOwed(total)
	require.True(t, ok)
	assert.Equal(t, "12.50", change.StringFixed(2))

	short := decimal.NewFromInt(30)
	require.NoError(t, payment.SetAmountTendered(&short))
	assert.True(t, pkgerrors.IsCode(payment.CanConfirm(total), pkgerrors.CodeValidation))

	require.NoError(t, payment.SetMethod(enums.PaymentMethodPix))
	_, ok = payment.ChangeOwed(total)
	assert.False(t, ok, "change only applies to cash")
	require.NoError(t, payment.CanConfirm(total))

	negative := decimal.NewFromInt(-1)
	assert.True(t, pkgerrors.IsCode(payment.SetAmountTendered(&negative), pkgerrors.CodeValidation))
	assert.True(t, pkgerrors.IsCode(payment.SetMethod(enums.PaymentMethod("cheque")), pkgerrors.CodeValidation))
}

func TestChangeOwedNeverNegative(t *testing.T) {
	got := ChangeOwed(decimal.NewFromInt(50), decimal.NewFromInt(20))
	assert.True(t, got.IsZero())
}
