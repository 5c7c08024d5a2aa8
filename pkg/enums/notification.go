package enums

import "slices"

// NotificationKind classifies transient UI notifications emitted by the core.
type NotificationKind string

const (
	NotificationKindSuccess NotificationKind = "success"
	NotificationKindError   NotificationKind = "error"
	NotificationKindWarning NotificationKind = "warning"
	NotificationKindInfo    NotificationKind = "info"
)

var validNotificationKinds = []NotificationKind{
	NotificationKindSuccess,
	NotificationKindError,
	NotificationKindWarning,
	NotificationKindInfo,
}

// String implements fmt.Stringer.
func (k NotificationKind) String() string {
	return string(k)
}

// IsValid reports whether the value is a known NotificationKind.
func (k NotificationKind) IsValid() bool {
	return slices.Contains(validNotificationKinds, k)
}
