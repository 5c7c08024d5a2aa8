// Package cart holds the point-of-sale cart: lines, discount, payment and split
// state for one register session, plus the pricing rules over them.
package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/enums"
	pkgerrors "github.com/gleilsonbarbosa2/elitepedidos2/pkg/errors"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/money"
)

// Aggregate owns the cart state of a single register. Lines keep insertion order and
// repeated adds of the same product create separate lines.
type Aggregate struct {
	Lines    []Line       `json:"lines"`
	Discount DiscountSpec `json:"discount"`
	Payment  PaymentInfo  `json:"payment"`
	Split    SplitInfo    `json:"split"`
}

// New returns an empty cart with default discount, payment and split.
func New() *Aggregate {
	a := &Aggregate{}
	a.Clear()
	return a
}

// Clear resets every part of the cart. Calling it twice is the same as once.
func (a *Aggregate) Clear() {
	a.Lines = []Line{}
	a.Discount = NoDiscount()
	a.Payment = DefaultPayment()
	a.Split = DefaultSplit()
}

// IsEmpty reports whether the cart has no lines.
func (a *Aggregate) IsEmpty() bool {
	return len(a.Lines) == 0
}

// Add appends a new line for product. It never merges into an existing line.
func (a *Aggregate) Add(product ProductRef, quantity int, weightKg *decimal.Decimal) (Line, error) {
	line, err := newLine(product, quantity, weightKg)
	if err != nil {
		return Line{}, err
	}
	a.Lines = append(a.Lines, line)
	return line, nil
}

func (a *Aggregate) firstLine(productID uuid.UUID) (int, error) {
	for i := range a.Lines {
		if a.Lines[i].Product.ID == productID {
			return i, nil
		}
	}
	return -1, pkgerrors.New(pkgerrors.CodeNotFound, "product not in cart")
}

// UpdateQuantity overwrites the quantity of the first line for productID.
// Values below MinQuantity clamp to it; use Remove to drop the line.
func (a *Aggregate) UpdateQuantity(productID uuid.UUID, quantity int) (Line, error) {
	idx, err := a.firstLine(productID)
	if err != nil {
		return Line{}, err
	}
	if a.Lines[idx].IsWeighed() {
		return Line{}, pkgerrors.New(pkgerrors.CodeValidation, "weighable products are updated by weight")
	}
	if quantity < MinQuantity {
		quantity = MinQuantity
	}
	a.Lines[idx].Quantity = quantity
	return a.Lines[idx], nil
}

// UpdateWeight overwrites the weight of the first line for productID, floored at MinWeightKg.
func (a *Aggregate) UpdateWeight(productID uuid.UUID, weightKg decimal.Decimal) (Line, error) {
	idx, err := a.firstLine(productID)
	if err != nil {
		return Line{}, err
	}
	if !a.Lines[idx].IsWeighed() {
		return Line{}, pkgerrors.New(pkgerrors.CodeValidation, "unit products are updated by quantity")
	}
	w := normalizeWeight(decimal.Max(weightKg, MinWeightKg))
	a.Lines[idx].WeightKg = &w
	return a.Lines[idx], nil
}

// StepWeight moves the first weighed line for productID by steps x WeightStepKg,
// so a decrement is max(MinWeightKg, w - 0.1).
func (a *Aggregate) StepWeight(productID uuid.UUID, steps int) (Line, error) {
	idx, err := a.firstLine(productID)
	if err != nil {
		return Line{}, err
	}
	current := decimal.Zero
	if a.Lines[idx].WeightKg != nil {
		current = *a.Lines[idx].WeightKg
	}
	return a.UpdateWeight(productID, current.Add(WeightStepKg.Mul(decimal.NewFromInt(int64(steps)))))
}

// Remove drops every line for productID and returns how many were removed.
func (a *Aggregate) Remove(productID uuid.UUID) (int, error) {
	kept := a.Lines[:0]
	removed := 0
	for _, line := range a.Lines {
		if line.Product.ID == productID {
			removed++
			continue
		}
		kept = append(kept, line)
	}
	a.Lines = kept
	if removed == 0 {
		return 0, pkgerrors.New(pkgerrors.CodeNotFound, "product not in cart")
	}
	return removed, nil
}

// RemoveLine drops a single line by its id.
func (a *Aggregate) RemoveLine(lineID uuid.UUID) error {
	for i := range a.Lines {
		if a.Lines[i].ID == lineID {
			a.Lines = append(a.Lines[:i], a.Lines[i+1:]...)
			return nil
		}
	}
	return pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
}

// Settle takes sold lines out of the cart after a checkout and resets discount,
// payment and split. Lines that are not in sold were added after the sale
// snapshot and stay in the cart.
func (a *Aggregate) Settle(sold []Line) {
	soldIDs := make(map[uuid.UUID]struct{}, len(sold))
	for _, line := range sold {
		soldIDs[line.ID] = struct{}{}
	}
	kept := make([]Line, 0, len(a.Lines))
	for _, line := range a.Lines {
		if _, ok := soldIDs[line.ID]; !ok {
			kept = append(kept, line)
		}
	}
	a.Lines = kept
	a.Discount = NoDiscount()
	a.Payment = DefaultPayment()
	a.Split = DefaultSplit()
}

// SetDiscount validates and stores the cart discount.
func (a *Aggregate) SetDiscount(spec DiscountSpec) error {
	if spec.Type == "" {
		spec.Type = enums.DiscountTypeNone
	}
	if err := spec.Validate(); err != nil {
		return err
	}
	if spec.Type == enums.DiscountTypeNone {
		spec.Value = decimal.Zero
	}
	a.Discount = spec
	return nil
}

// EnableSplit splits the current total into parts equal shares.
func (a *Aggregate) EnableSplit(parts int) error {
	return a.Split.Enable(a.Total(), parts)
}

// SetSplitParts changes the number of shares and re-derives an equal split.
func (a *Aggregate) SetSplitParts(parts int) error {
	if !a.Split.Enabled {
		return a.EnableSplit(parts)
	}
	return a.Split.SetParts(parts, a.Total())
}

// ResetSplit re-derives equal shares from the current total.
func (a *Aggregate) ResetSplit() error {
	if !a.Split.Enabled {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "split payment is not enabled")
	}
	a.Split.ResetEqualSplit(a.Total())
	return nil
}

// Subtotal sums the line subtotals.
func (a *Aggregate) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, line := range a.Lines {
		total = total.Add(line.Subtotal())
	}
	return total
}

// DiscountAmount is the discount applied to the current subtotal.
func (a *Aggregate) DiscountAmount() decimal.Decimal {
	return DiscountAmount(a.Subtotal(), a.Discount)
}

// Total is max(0, subtotal - discount). Payment and split never change it.
func (a *Aggregate) Total() decimal.Decimal {
	subtotal := a.Subtotal()
	return money.NonNegative(subtotal.Sub(DiscountAmount(subtotal, a.Discount)))
}

// ChangeOwed returns the change for cash payments with a tendered amount.
func (a *Aggregate) ChangeOwed() (decimal.Decimal, bool) {
	return a.Payment.ChangeOwed(a.Total())
}

// ItemCount counts units for unit lines and one per weighed line.
func (a *Aggregate) ItemCount() int {
	count := 0
	for _, line := range a.Lines {
		if line.IsWeighed() {
			count++
			continue
		}
		count += line.Quantity
	}
	return count
}

// ReadyForCheckout runs the submit guards: a non-empty cart, enough cash tendered
// and split shares that reconcile with the total.
func (a *Aggregate) ReadyForCheckout() error {
	if a.IsEmpty() {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	total := a.Total()
	// Cash with no amount tendered is exact payment, same as finalizing a sale
	// without asking for change. Only a tendered amount below total blocks.
	if err := a.Payment.CanConfirm(total); err != nil {
		return err
	}
	return a.Split.Validate(total)
}

// Totals is a read model of the computed amounts.
type Totals struct {
	Subtotal       decimal.Decimal  `json:"subtotal"`
	DiscountAmount decimal.Decimal  `json:"discount_amount"`
	Total          decimal.Decimal  `json:"total"`
	ChangeOwed     *decimal.Decimal `json:"change_owed,omitempty"`
	SplitSum       *decimal.Decimal `json:"split_sum,omitempty"`
	SplitBalanced  *bool            `json:"split_balanced,omitempty"`
	ItemCount      int              `json:"item_count"`
}

// Totals computes the current amounts in one pass.
func (a *Aggregate) Totals() Totals {
	subtotal := a.Subtotal()
	discount := DiscountAmount(subtotal, a.Discount)
	total := money.NonNegative(subtotal.Sub(discount))

	out := Totals{
		Subtotal:       subtotal,
		DiscountAmount: discount,
		Total:          total,
		ItemCount:      a.ItemCount(),
	}
	if change, ok := a.Payment.ChangeOwed(total); ok {
		out.ChangeOwed = &change
	}
	if a.Split.Enabled {
		sum := a.Split.Sum()
		balanced := a.Split.Reconciles(total)
		out.SplitSum = &sum
		out.SplitBalanced = &balanced
	}
	return out
}
