// Package enums holds the closed string sets stored in the database and
// exchanged over the API.
package enums

import (
	"fmt"
	"slices"
	"strings"
)

// parseEnum matches raw against allowed, ignoring surrounding blanks.
func parseEnum[T ~string](allowed []T, kind, raw string) (T, error) {
	v := T(strings.TrimSpace(raw))
	if slices.Contains(allowed, v) {
		return v, nil
	}
	return "", fmt.Errorf("invalid %s %q", kind, raw)
}
