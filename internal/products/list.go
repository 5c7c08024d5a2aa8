package product

import (
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/enums"
)

// ListFilters describe the supported filter knobs for the catalog endpoints.
type ListFilters struct {
	Category   *enums.ProductCategory `json:"category,omitempty"`
	ActiveOnly bool                   `json:"active_only,omitempty"`
	// Query matches name, code or description, case-insensitively.
	Query string `json:"q,omitempty"`
	// AvailableOn keeps products sold on that weekday (0=Sunday). Products without
	// a schedule are sold every day.
	AvailableOn *int `json:"available_on,omitempty"`
}
