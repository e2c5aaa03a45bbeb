package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BookingStatus is the state of a booking.
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
)

// PaymentStatus is derived from a booking's total and amount paid, except refunded which is set explicitly.
type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "unpaid"
	PaymentPartial  PaymentStatus = "partial"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

// Booking is a place on a session block reserved for one child.
type Booking struct {
	ID             uuid.UUID       `json:"id"`
	BlockID        uuid.UUID       `json:"block_id"`
	ParentName     string          `json:"parent_name"`
	ParentEmail    string          `json:"parent_email"`
	ParentPhone    string          `json:"parent_phone,omitempty"`
	ChildName      string          `json:"child_name"`
	ChildAge       int             `json:"child_age,omitempty"`
	Notes          string          `json:"notes,omitempty"`
	Status         BookingStatus   `json:"status"`
	PaymentStatus  PaymentStatus   `json:"payment_status"`
	DiscountCode   *string         `json:"discount_code,omitempty"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	Total          decimal.Decimal `json:"total"`
	AmountPaid     decimal.Decimal `json:"amount_paid"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// PricingBreakdown is the derived price of one block for one booking.
type PricingBreakdown struct {
	RegistrationFee decimal.Decimal `json:"registration_fee"`
	SessionCount    int             `json:"session_count"`
	SessionFee      decimal.Decimal `json:"session_fee"`
	SessionsTotal   decimal.Decimal `json:"sessions_total"`
	DiscountCode    string          `json:"discount_code,omitempty"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	Total           decimal.Decimal `json:"total"`
}
