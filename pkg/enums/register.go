package enums

import "slices"

// RegisterStatus is the lifecycle of a cash register session.
type RegisterStatus string

const (
	RegisterStatusOpen   RegisterStatus = "open"
	RegisterStatusClosed RegisterStatus = "closed"
)

var validRegisterStatuses = []RegisterStatus{
	RegisterStatusOpen,
	RegisterStatusClosed,
}

// String implements fmt.Stringer.
func (s RegisterStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known RegisterStatus.
func (s RegisterStatus) IsValid() bool {
	return slices.Contains(validRegisterStatuses, s)
}

// ParseRegisterStatus converts raw input into a RegisterStatus.
func ParseRegisterStatus(value string) (RegisterStatus, error) {
	return parseEnum(validRegisterStatuses, "register status", value)
}
