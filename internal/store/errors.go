package store

import (
	"errors"
	"fmt"
)

// IntegrityError reports multiple album rows for an (artist, album) key the
// schema guarantees unique. The resolver refuses to pick one arbitrarily,
// so the lookup fails instead.
type IntegrityError struct {
	Artist string
	Album  string
}

// Error implements the error interface.
func (e *IntegrityError) Error() string {
	return fmt.Sprintf("INTEGRITY_VIOLATION: multiple albums stored for %s / %s", e.Artist, e.Album)
}

// IsIntegrityError returns true if err reports a broken uniqueness
// contract. Uses errors.As to handle wrapped errors.
func IsIntegrityError(err error) bool {
	var ie *IntegrityError
	return errors.As(err, &ie)
}
