package bookings

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/brightpath-tutoring/backend/internal/models"
)

// CreateBookingRequest is the body for POST /bookings.
type CreateBookingRequest struct {
	BlockID      uuid.UUID `json:"block_id" validate:"required"`
	ParentName   string    `json:"parent_name" validate:"required,max=120"`
	ParentEmail  string    `json:"parent_email" validate:"required,email,max=254"`
	ParentPhone  string    `json:"parent_phone" validate:"omitempty,max=40"`
	ChildName    string    `json:"child_name" validate:"required,max=120"`
	ChildAge     int       `json:"child_age" validate:"omitempty,min=2,max=18"`
	Notes        string    `json:"notes" validate:"max=2000"`
	DiscountCode string    `json:"discount_code" validate:"max=40"`
}

// PaymentRequest is the body for POST /admin/bookings/:id/payments.
type PaymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// BookingResult is a created booking with the price it was charged.
type BookingResult struct {
	Booking *models.Booking         `json:"booking"`
	Pricing models.PricingBreakdown `json:"pricing"`
}

// BookingDetails is a booking with its outstanding balance.
type BookingDetails struct {
	*models.Booking
	Outstanding decimal.Decimal `json:"outstanding"`
}
