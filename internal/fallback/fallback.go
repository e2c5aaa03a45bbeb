// Package fallback tries an ordered list of providers and keeps the first success.
package fallback

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoProvider is returned when every provider failed or none was given.
var ErrNoProvider = errors.New("no provider succeeded")

// ErrSkip lets a provider step aside without it counting as a failure
// (e.g. an optional source that is not configured).
var ErrSkip = errors.New("provider skipped")

// Provider produces a value or an error.
type Provider[T any] struct {
	Name  string
	Fetch func(ctx context.Context) (T, error)
}

// First runs providers in order and returns the first successful value together with
// the name of the provider that served it. Failures are joined into the returned error
// when no provider succeeds.
func First[T any](ctx context.Context, providers ...Provider[T]) (T, string, error) {
	var zero T
	var errs []error
	for _, p := range providers {
		if err := ctx.Err(); err != nil {
			return zero, "", err
		}
		v, err := p.Fetch(ctx)
		if err == nil {
			return v, p.Name, nil
		}
		if !errors.Is(err, ErrSkip) {
			errs = append(errs, fmt.Errorf("%s: %w", p.Name, err))
		}
	}
	return zero, "", errors.Join(append([]error{ErrNoProvider}, errs...)...)
}
