package validators

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	pkgerrors "github.com/gleilsonbarbosa2/elitepedidos2/pkg/errors"
)

func rejectParam(name, message string) error {
	return pkgerrors.Validation("invalid "+name, pkgerrors.FieldError{Field: name, Message: message})
}

// parseOptional returns fallback for an absent or blank value.
func parseOptional[T any](raw string, fallback T, parse func(string) (T, error)) (T, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	return parse(raw)
}

// ParseQueryInt reads ?key= as an int within [min, max].
func ParseQueryInt(r *http.Request, key string, defaultVal, min, max int) (int, error) {
	value, err := parseOptional(r.URL.Query().Get(key), defaultVal, strconv.Atoi)
	if err != nil {
		return 0, rejectParam(key, "must be a whole number")
	}
	if value < min || value > max {
		return 0, rejectParam(key, fmt.Sprintf("must be between %d and %d", min, max))
	}
	return value, nil
}

func ParseQueryBool(r *http.Request, key string, defaultVal bool) (bool, error) {
	value, err := parseOptional(r.URL.Query().Get(key), defaultVal, strconv.ParseBool)
	if err != nil {
		return false, rejectParam(key, "must be true or false")
	}
	return value, nil
}

// ParseUUIDParam reads a chi path parameter. The nil UUID is rejected.
func ParseUUIDParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, name)))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, rejectParam(name, "must be a uuid")
	}
	return id, nil
}

func ParseIntParam(r *http.Request, name string) (int, error) {
	value, err := strconv.Atoi(strings.TrimSpace(chi.URLParam(r, name)))
	if err != nil {
		return 0, rejectParam(name, "must be a whole number")
	}
	return value, nil
}
