// Package availability decides whether a session block can take another booking.
package availability

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/brightpath-tutoring/backend/internal/models"
)

// ErrBlockNotFound is returned when the block store has no such block.
var ErrBlockNotFound = errors.New("block not found")

// Result is the bookable state of a block.
type Result struct {
	Available      bool `json:"available"`
	SpotsRemaining int  `json:"spots_remaining"`
}

// BlockStore looks up session blocks. It returns (nil, nil) when the block does not exist.
type BlockStore interface {
	GetBlockByID(ctx context.Context, id uuid.UUID) (*models.SessionBlock, error)
}

// CheckBlockAvailability reports whether block is published with at least one free place.
// SpotsRemaining is clamped at zero for display; the availability decision uses the raw difference,
// so an overbooked block is never available.
func CheckBlockAvailability(block models.SessionBlock) Result {
	raw := block.Capacity - block.CurrentBookings
	spots := raw
	if spots < 0 {
		spots = 0
	}
	return Result{
		Available:      block.Status == models.BlockPublished && raw > 0,
		SpotsRemaining: spots,
	}
}

// FromCapacity is CheckBlockAvailability over a capacity snapshot.
func FromCapacity(c models.BlockCapacity) Result {
	return CheckBlockAvailability(models.SessionBlock{
		Capacity:        c.Capacity,
		CurrentBookings: c.CurrentBookings,
		Status:          c.Status,
	})
}

// Checker resolves a block and checks its availability.
type Checker struct {
	blocks BlockStore
}

// NewChecker creates an availability checker over a block store.
func NewChecker(blocks BlockStore) *Checker {
	return &Checker{blocks: blocks}
}

// Check returns the block together with its availability, or ErrBlockNotFound.
func (c *Checker) Check(ctx context.Context, blockID uuid.UUID) (*models.SessionBlock, Result, error) {
	block, err := c.blocks.GetBlockByID(ctx, blockID)
	if err != nil {
		return nil, Result{}, fmt.Errorf("get block: %w", err)
	}
	if block == nil {
		return nil, Result{}, ErrBlockNotFound
	}
	return block, CheckBlockAvailability(*block), nil
}
