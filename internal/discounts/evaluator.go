// Package discounts validates and stores promotional discount codes.
package discounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/brightpath-tutoring/backend/internal/clock"
	"github.com/brightpath-tutoring/backend/internal/models"
)

var (
	ErrNotFound      = errors.New("discount code not found")
	ErrNotApplicable = errors.New("discount code is not valid for this booking")
)

// Store looks up discount codes. GetByCode returns (nil, nil) for an unknown code.
type Store interface {
	GetByCode(ctx context.Context, code string) (*models.DiscountCode, error)
}

// IsApplicable checks, in order, status, validity window, usage cap and scope.
// The window is open: now must be strictly after valid_from and strictly before valid_until.
func IsApplicable(d models.DiscountCode, blockID uuid.UUID, now time.Time) bool {
	if d.Status != models.DiscountActive {
		return false
	}
	if !now.After(d.ValidFrom) || !now.Before(d.ValidUntil) {
		return false
	}
	if d.UsageLimit != nil && d.TimesUsed >= *d.UsageLimit {
		return false
	}
	return inScope(d, blockID)
}

func inScope(d models.DiscountCode, blockID uuid.UUID) bool {
	switch d.ApplicableTo {
	case models.ScopeAll:
		return true
	case models.ScopeSpecificBlocks:
		for _, id := range d.ApplicableBlockIDs {
			if id == blockID {
				return true
			}
		}
	}
	return false
}

// NormalizeCode trims and upper-cases a user-supplied code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Evaluator resolves a code string into an applicable discount.
type Evaluator struct {
	store Store
	clock clock.Clock
}

// NewEvaluator creates a discount evaluator.
func NewEvaluator(store Store, clk clock.Clock) *Evaluator {
	if clk == nil {
		clk = clock.Real{}
	}
	return &Evaluator{store: store, clock: clk}
}

// Resolve returns the discount for code if it applies to blockID now.
func (e *Evaluator) Resolve(ctx context.Context, code string, blockID uuid.UUID) (*models.DiscountCode, error) {
	code = NormalizeCode(code)
	if code == "" {
		return nil, ErrNotFound
	}
	d, err := e.store.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("get discount: %w", err)
	}
	if d == nil {
		return nil, ErrNotFound
	}
	if !IsApplicable(*d, blockID, e.clock.Now()) {
		return nil, ErrNotApplicable
	}
	return d, nil
}
