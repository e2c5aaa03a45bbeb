package bookings

import (
	"context"

	"github.com/google/uuid"

	"github.com/brightpath-tutoring/backend/internal/availability"
	"github.com/brightpath-tutoring/backend/internal/models"
	"github.com/brightpath-tutoring/backend/pkg/queue"
)

// BookingRepository persists bookings.
type BookingRepository interface {
	// Create inserts b and takes a place on its block atomically. When discountID is set the
	// code's usage counter is incremented in the same transaction.
	Create(ctx context.Context, b *models.Booking, discountID *uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	List(ctx context.Context, blockID *uuid.UUID) ([]models.Booking, error)
	// ApplyPayment runs apply on the booking while its row is locked and stores the payment fields it set.
	ApplyPayment(ctx context.Context, id uuid.UUID, apply func(b *models.Booking) error) (*models.Booking, error)
	// Cancel marks the booking cancelled and releases its place; refund also marks the payment refunded.
	Cancel(ctx context.Context, id uuid.UUID, refund bool) error
}

// AvailabilityChecker resolves a block and its bookable state.
type AvailabilityChecker interface {
	Check(ctx context.Context, blockID uuid.UUID) (*models.SessionBlock, availability.Result, error)
}

// DiscountResolver resolves an applicable discount code.
type DiscountResolver interface {
	Resolve(ctx context.Context, code string, blockID uuid.UUID) (*models.DiscountCode, error)
}

// Gate reports whether the site currently accepts bookings.
type Gate interface {
	BookingsOpen(ctx context.Context) bool
}

// Notifier queues booking emails.
type Notifier interface {
	EnqueueBookingNotification(ctx context.Context, payload queue.BookingNotification) error
}
