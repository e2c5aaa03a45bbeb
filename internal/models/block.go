package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BlockStatus is the lifecycle state of a session block.
type BlockStatus string

const (
	BlockDraft     BlockStatus = "draft"
	BlockPublished BlockStatus = "published"
	BlockFull      BlockStatus = "full"
	BlockCancelled BlockStatus = "cancelled"
	BlockCompleted BlockStatus = "completed"
)

// Valid reports whether s is a known block status.
func (s BlockStatus) Valid() bool {
	switch s {
	case BlockDraft, BlockPublished, BlockFull, BlockCancelled, BlockCompleted:
		return true
	}
	return false
}

// SettleStatus returns the status a block stores when requested is set with the given
// capacity and booking count. Open statuses follow the count: full once every place is
// taken, published otherwise. Closed statuses are kept as requested.
func SettleStatus(requested BlockStatus, capacity, current int) BlockStatus {
	if requested != BlockPublished && requested != BlockFull {
		return requested
	}
	if current >= capacity {
		return BlockFull
	}
	return BlockPublished
}

// SessionBlock is one bookable programme instance (a run of weekly sessions).
type SessionBlock struct {
	ID              uuid.UUID       `json:"id"`
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	StartsOn        *time.Time      `json:"starts_on,omitempty"`
	Capacity        int             `json:"capacity"`
	CurrentBookings int             `json:"current_bookings"`
	Status          BlockStatus     `json:"status"`
	RegistrationFee decimal.Decimal `json:"registration_fee"`
	SessionFee      decimal.Decimal `json:"session_fee"`
	TotalSessions   int             `json:"total_sessions"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// BlockCapacity is the capacity snapshot of a block.
type BlockCapacity struct {
	Capacity        int         `json:"capacity"`
	CurrentBookings int         `json:"current_bookings"`
	Status          BlockStatus `json:"status"`
}
