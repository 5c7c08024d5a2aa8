// Package types holds the JSON bodies the HTTP API writes.
package types

// SuccessEnvelope wraps every 2xx payload under "data".
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError describes a failed request. Code is a pkg/errors code; Details
// only appears for codes that allow it, such as per-field validation errors.
// RequestID echoes X-Request-ID so support can find the log line.
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// NewErrorEnvelope builds the body of a failed response.
func NewErrorEnvelope(code, message string, details any) ErrorEnvelope {
	return ErrorEnvelope{Error: APIError{Code: code, Message: message, Details: details}}
}

// WithRequestID tags the error with the request correlation id.
func (e ErrorEnvelope) WithRequestID(id string) ErrorEnvelope {
	e.Error.RequestID = id
	return e
}
