package checkout

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gleilsonbarbosa2/elitepedidos2/internal/cart"
	"github.com/gleilsonbarbosa2/elitepedidos2/internal/sales"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/money"
)

// DefaultCustomerName is used when the operator did not type a customer.
const DefaultCustomerName = "Cliente PDV"

// BuildSaleRecord snapshots the cart into a sale record. The cart is not modified.
func BuildSaleRecord(c *cart.Aggregate, operatorID *uuid.UUID) sales.Record {
	subtotal := money.Round(c.Subtotal())
	discount := c.DiscountAmount()
	total := money.Round(c.Total())

	items := make([]sales.ItemRecord, 0, len(c.Lines))
	for _, line := range c.Lines {
		items = append(items, itemRecord(line))
	}

	customer := strings.TrimSpace(c.Payment.CustomerName)
	if customer == "" {
		customer = DefaultCustomerName
	}

	details := sales.PaymentDetails{
		Method:        c.Payment.Method,
		CustomerName:  strings.TrimSpace(c.Payment.CustomerName),
		CustomerPhone: strings.TrimSpace(c.Payment.CustomerPhone),
	}
	change := decimal.Zero
	if tendered, ok := c.Payment.Tendered(); ok {
		change = cart.ChangeOwed(total, tendered)
		changeFor := money.Round(tendered)
		changeAmount := change
		details.ChangeFor = &changeFor
		details.ChangeAmount = &changeAmount
	}
	if c.Split.Enabled {
		amounts := make([]decimal.Decimal, len(c.Split.Amounts))
		copy(amounts, c.Split.Amounts)
		details.SplitInfo = &sales.SplitDetails{
			Enabled: true,
			Parts:   c.Split.Parts,
			Amounts: amounts,
		}
	}

	return sales.Record{
		OperatorID:         operatorID,
		CustomerName:       customer,
		CustomerPhone:      strings.TrimSpace(c.Payment.CustomerPhone),
		Items:              items,
		Subtotal:           subtotal,
		DiscountAmount:     discount,
		DiscountPercentage: c.Discount.Percentage(),
		TotalAmount:        total,
		PaymentType:        c.Payment.Method,
		PaymentDetails:     details,
		ChangeAmount:       change,
		Notes:              saleNotes(c),
		Channel:            sales.ChannelPDV,
	}
}

func itemRecord(line cart.Line) sales.ItemRecord {
	item := sales.ItemRecord{
		ProductID:      line.Product.ID,
		ProductCode:    line.Product.Code,
		ProductName:    line.Product.Name,
		Quantity:       line.Quantity,
		DiscountAmount: decimal.Zero,
		Subtotal:       line.Subtotal(),
	}
	if line.IsWeighed() {
		// weighed lines carry quantity 0 in the cart; a sold item always counts once
		item.Quantity = 1
		item.WeightKg = line.WeightKg
		item.PricePerGram = line.Product.PricePerGram
		return item
	}
	unit := line.Product.UnitPrice
	item.UnitPrice = &unit
	return item
}

func saleNotes(c *cart.Aggregate) string {
	notes := "Venda PDV - " + c.Payment.Method.Label()
	if c.Split.Enabled {
		notes += fmt.Sprintf(" (Dividido em %d partes)", c.Split.Parts)
	}
	return notes
}
