package erp

import (
	"errors"
	"fmt"
)

// Sentinel kinds for client errors.
var (
	ErrMissingCredentials = errors.New("missing erp credential")
	ErrUnknownPlaceholder = errors.New("unknown query placeholder")
	ErrUnusedParam        = errors.New("unused query param")
)

// APIError carries a non-2xx protocol response up to the aggregator.
// Callers decide whether to propagate or degrade.
type APIError struct {
	Status   int
	Endpoint string
	Body     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("erp request to %s failed with status %d: %s", e.Endpoint, e.Status, e.Body)
}

// IsAPIError reports whether err is a protocol error from the platform.
func IsAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}
