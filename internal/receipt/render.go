// Package receipt renders the 80 mm counter receipt and sends it to the printer.
package receipt

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gleilsonbarbosa2/elitepedidos2/internal/sales"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/config"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/enums"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/money"
)

// Width is the printable columns of an 80 mm thermal roll.
const Width = 42

const defaultOperator = "Sistema"

// Data is everything printed on one receipt.
type Data struct {
	Store        config.StoreConfig
	SaleID       uuid.UUID
	OperatorName string
	Items        []sales.ItemRecord
	Subtotal     decimal.Decimal
	Discount     decimal.Decimal
	Total        decimal.Decimal
	PaymentType  enums.PaymentMethod
	ChangeFor    *decimal.Decimal
	Change       decimal.Decimal
	SplitAmounts []decimal.Decimal
	SoldAt       time.Time
}

// FromRecord builds receipt data for a persisted sale.
func FromRecord(record sales.Record, saleID uuid.UUID, store config.StoreConfig, operatorName string, soldAt time.Time) Data {
	data := Data{
		Store:        store,
		SaleID:       saleID,
		OperatorName: operatorName,
		Items:        record.Items,
		Subtotal:     record.Subtotal,
		Discount:     record.DiscountAmount,
		Total:        record.TotalAmount,
		PaymentType:  record.PaymentType,
		ChangeFor:    record.PaymentDetails.ChangeFor,
		Change:       record.ChangeAmount,
		SoldAt:       soldAt,
	}
	if split := record.PaymentDetails.SplitInfo; split != nil && split.Enabled {
		data.SplitAmounts = split.Amounts
	}
	return data
}

// Render lays the receipt out as fixed-width text. Times are shown in loc.
func Render(data Data, printedAt time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	operator := strings.TrimSpace(data.OperatorName)
	if operator == "" {
		operator = defaultOperator
	}
	soldAt := data.SoldAt.In(loc)

	var b strings.Builder
	center(&b, data.Store.Name)
	for _, line := range wrap(data.Store.Address) {
		center(&b, line)
	}
	if data.Store.Phone != "" {
		center(&b, "Tel: "+data.Store.Phone)
	}
	separator(&b)

	center(&b, "=== PEDIDO PDV ===")
	line(&b, "Data: "+soldAt.Format("02/01/2006"))
	line(&b, "Hora: "+soldAt.Format("15:04:05"))
	line(&b, "Operador: "+operator)
	if data.SaleID != uuid.Nil {
		line(&b, "Venda: "+strings.ToUpper(data.SaleID.String()[:8]))
	}
	separator(&b)

	if len(data.Items) > 0 {
		line(&b, "ITENS:")
		for _, item := range data.Items {
			for _, name := range wrap(item.ProductName) {
				line(&b, name)
			}
			columns(&b, itemDetail(item), money.FormatBRLPlain(item.Subtotal))
		}
		separator(&b)
	}

	columns(&b, "Subtotal:", money.FormatBRLPlain(data.Subtotal))
	if data.Discount.IsPositive() {
		columns(&b, "Desconto:", "-"+money.FormatBRLPlain(data.Discount))
	}
	columns(&b, "TOTAL:", money.FormatBRLPlain(data.Total))
	line(&b, "Pagamento: "+data.PaymentType.Label())
	if data.PaymentType.TakesTender() && data.ChangeFor != nil {
		columns(&b, "Valor recebido:", money.FormatBRLPlain(*data.ChangeFor))
		columns(&b, "Troco:", money.FormatBRLPlain(data.Change))
	}
	if len(data.SplitAmounts) > 0 {
		line(&b, fmt.Sprintf("Dividido em %d partes:", len(data.SplitAmounts)))
		for i, amount := range data.SplitAmounts {
			columns(&b, fmt.Sprintf("  Parte %d:", i+1), money.FormatBRLPlain(amount))
		}
	}
	separator(&b)

	center(&b, "Obrigado pela preferência!")
	center(&b, "Elite Açaí")
	center(&b, "Impresso: "+printedAt.In(loc).Format("02/01/2006 15:04:05"))
	return b.String()
}

func itemDetail(item sales.ItemRecord) string {
	if item.WeightKg != nil {
		grams := item.WeightKg.Mul(decimal.NewFromInt(1000)).Round(0)
		return "Peso: " + grams.String() + "g"
	}
	unit := decimal.Zero
	if item.UnitPrice != nil {
		unit = *item.UnitPrice
	}
	return fmt.Sprintf("%dx %s", item.Quantity, money.FormatBRLPlain(unit))
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

func truncate(s string, n int) string {
	if runeLen(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

func line(b *strings.Builder, text string) {
	b.WriteString(truncate(text, Width))
	b.WriteByte('\n')
}

func center(b *strings.Builder, text string) {
	text = truncate(strings.TrimSpace(text), Width)
	pad := (Width - runeLen(text)) / 2
	b.WriteString(strings.Repeat(" ", pad))
	b.WriteString(text)
	b.WriteByte('\n')
}

// columns writes left and right on one line, right-aligned to Width. The left text
// is cut when both do not fit.
func columns(b *strings.Builder, left, right string) {
	room := Width - runeLen(right) - 1
	if room < 0 {
		room = 0
	}
	left = truncate(left, room)
	gap := Width - runeLen(left) - runeLen(right)
	if gap < 1 {
		gap = 1
	}
	b.WriteString(left)
	b.WriteString(strings.Repeat(" ", gap))
	b.WriteString(right)
	b.WriteByte('\n')
}

func separator(b *strings.Builder) {
	b.WriteString(strings.Repeat("-", Width))
	b.WriteByte('\n')
}

// wrap breaks text on spaces into lines of at most Width runes.
func wrap(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	var (
		out     []string
		current string
	)
	for _, word := range words {
		word = truncate(word, Width)
		switch {
		case current == "":
			current = word
		case runeLen(current)+1+runeLen(word) <= Width:
			current += " " + word
		default:
			out = append(out, current)
			current = word
		}
	}
	return append(out, current)
}
