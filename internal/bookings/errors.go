package bookings

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrValidation        = errors.New("validation error")
	ErrNotFound          = errors.New("booking not found")
	ErrBlockNotFound     = errors.New("block not found")
	ErrBlockUnavailable  = errors.New("block is not available for booking")
	ErrBookingsClosed    = errors.New("bookings are closed")
	ErrInvalidTransition = errors.New("booking cannot change to that state")
)

// ValidationError carries the failing fields. It matches ErrValidation with errors.Is.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return fmt.Sprintf("validation error: %s", strings.Join(keys, ", "))
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// UnavailableError reports how many places remain on a block that cannot be booked.
type UnavailableError struct {
	SpotsRemaining int
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("block is not available for booking (%d places remaining)", e.SpotsRemaining)
}

func (e *UnavailableError) Is(target error) bool { return target == ErrBlockUnavailable }
