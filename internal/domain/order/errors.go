package order

import (
	"fmt"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when no order has the requested id.
var ErrNotFound = errors.New("order not found")

// ValidationError reports the first invalid field of a create request.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// InvalidStatusError indicates a status outside the recognized set.
type InvalidStatusError struct {
	Status string
}

func (e *InvalidStatusError) Error() string {
	return fmt.Sprintf("invalid status %q", e.Status)
}

// IsInvalidRequest reports whether err should be surfaced as a client error.
func IsInvalidRequest(err error) bool {
	var (
		vErr *ValidationError
		sErr *InvalidStatusError
	)
	return errors.As(err, &vErr) || errors.As(err, &sErr)
}
