// Where: internal/provider/errors.go
// What: Error classification shared across adapters.
// Why: Callers treat a missing remote resource as absence, not failure.
package provider

import (
	"errors"
	"fmt"
)

// ErrNotFound wraps the per-service not-found errors so callers can
// branch without importing SDK types. Read operations return nil
// records instead; mutations wrap and return this.
var ErrNotFound = errors.New("resource not found")

// IsNotFound reports whether err denotes a missing remote resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func notFound(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}
