// Package money holds the decimal helpers shared by cart pricing, sales and receipts.
// Amounts are kept as shopspring decimals rounded to cents at every computed boundary.
package money

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Places is the number of fraction digits used for BRL amounts.
const Places = 2

// brlPrefix mirrors what pt-BR browsers render for BRL: symbol plus a no-break space.
const brlPrefix = "R$\u00a0"

var (
	hundred   = decimal.NewFromInt(100)
	brPrinter = message.NewPrinter(language.BrazilianPortuguese)
)

// Zero is the zero amount.
var Zero = decimal.Zero

// Round rounds half away from zero to cents.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}

// FromCents converts integer minor units to an amount.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -Places)
}

// Cents converts an amount to integer minor units after rounding.
func Cents(d decimal.Decimal) int64 {
	return Round(d).Mul(hundred).IntPart()
}

// Percent returns amount * pct / 100 rounded to cents.
func Percent(amount, pct decimal.Decimal) decimal.Decimal {
	return Round(amount.Mul(pct).Div(hundred))
}

// NonNegative clamps negative amounts to zero.
func NonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// Sum adds the amounts.
func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// FormatBRL renders the amount as pt-BR currency text, e.g. "R$ 1.234,56".
func FormatBRL(d decimal.Decimal) string {
	d = Round(d)
	value, _ := d.Abs().Float64()
	text := brlPrefix + brPrinter.Sprint(number.Decimal(value, number.Scale(Places)))
	if d.IsNegative() {
		return "-" + text
	}
	return text
}

// FormatBRLPlain is FormatBRL with a regular space, for fixed-width text output.
func FormatBRLPlain(d decimal.Decimal) string {
	return strings.Replace(FormatBRL(d), "\u00a0", " ", 1)
}
