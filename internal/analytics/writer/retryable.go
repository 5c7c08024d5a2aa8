package writer

import (
	"errors"
	"net/http"

	cbigquery "cloud.google.com/go/bigquery"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// isRetryableBigQueryError reports whether every underlying failure of err is
// transient. A batch with a single rejected row is never retried as a whole.
func isRetryableBigQueryError(err error) bool {
	leaves := leafErrors(err)
	if len(leaves) == 0 {
		return false
	}
	for _, leaf := range leaves {
		if !transient(leaf) {
			return false
		}
	}
	return true
}

// leafErrors flattens the multi-error shapes returned by the inserter.
func leafErrors(err error) []error {
	if err == nil {
		return nil
	}
	var put cbigquery.PutMultiError
	if errors.As(err, &put) {
		var out []error
		for _, row := range put {
			out = append(out, leafErrors(row.Errors)...)
		}
		return out
	}
	var multi cbigquery.MultiError
	if errors.As(err, &multi) {
		var out []error
		for _, inner := range multi {
			out = append(out, leafErrors(inner)...)
		}
		return out
	}
	return []error{err}
}

func transient(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusRequestTimeout, http.StatusTooManyRequests,
			http.StatusInternalServerError, http.StatusBadGateway,
			http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true
		}
		return false
	}
	if st, ok := status.FromError(err); ok {
		switch st.Code() {
		case codes.Aborted, codes.DeadlineExceeded, codes.Internal, codes.ResourceExhausted, codes.Unavailable:
			return true
		}
	}
	return false
}
