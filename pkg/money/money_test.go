package money

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestFormatBRL(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{name: "whole", in: "35", want: "R$\u00a035,00"},
		{name: "cents", in: "31.5", want: "R$\u00a031,50"},
		{name: "grouping", in: "1234.56", want: "R$\u00a01.234,56"},
		{name: "rounds half up", in: "0.125", want: "R$\u00a00,13"},
		{name: "zero", in: "0", want: "R$\u00a00,00"},
		{name: "negative", in: "-5", want: "-R$\u00a05,00"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := FormatBRL(decimal.RequireFromString(tc.in))
			if got != tc.want {
				t.Fatalf("FormatBRL(%s) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestFormatBRLPlain(t *testing.T) {
	if got := FormatBRLPlain(decimal.RequireFromString("12.5")); got != "R$ 12,50" {
		t.Fatalf("unexpected plain format %q", got)
	}
}

func TestCentsRoundTrip(t *testing.T) {
	if got := Cents(decimal.RequireFromString("31.505")); got != 3151 {
		t.Fatalf("expected 3151 cents, got %d", got)
	}
	if got := FromCents(3150); !got.Equal(decimal.RequireFromString("31.50")) {
		t.Fatalf("expected 31.50, got %s", got)
	}
}

func TestPercentAndClamp(t *testing.T) {
	if got := Percent(decimal.NewFromInt(35), decimal.NewFromInt(10)); !got.Equal(decimal.RequireFromString("3.5")) {
		t.Fatalf("expected 3.50, got %s", got)
	}
	if got := NonNegative(decimal.NewFromInt(-1)); !got.IsZero() {
		t.Fatalf("expected clamp to zero, got %s", got)
	}
	if got := Sum(decimal.NewFromInt(1), decimal.RequireFromString("2.5")); !got.Equal(decimal.RequireFromString("3.5")) {
		t.Fatalf("unexpected sum %s", got)
	}
}
