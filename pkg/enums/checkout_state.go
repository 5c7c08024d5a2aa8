package enums

import "slices"

// CheckoutState tracks a register's checkout submission lifecycle.
type CheckoutState string

const (
	CheckoutStateIdle       CheckoutState = "idle"
	CheckoutStateSubmitting CheckoutState = "submitting"
	CheckoutStateCommitted  CheckoutState = "committed"
	CheckoutStateFailed     CheckoutState = "failed"
)

var validCheckoutStates = []CheckoutState{
	CheckoutStateIdle,
	CheckoutStateSubmitting,
	CheckoutStateCommitted,
	CheckoutStateFailed,
}

// String implements fmt.Stringer.
func (s CheckoutState) String() string {
	return string(s)
}

// IsValid reports whether the value is a known CheckoutState.
func (s CheckoutState) IsValid() bool {
	return slices.Contains(validCheckoutStates, s)
}

// IsTerminal reports whether the submission has finished.
func (s CheckoutState) IsTerminal() bool {
	return s == CheckoutStateCommitted || s == CheckoutStateFailed
}
