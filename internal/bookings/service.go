// Package bookings reserves places on session blocks and tracks their payments.
package bookings

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/brightpath-tutoring/backend/internal/availability"
	"github.com/brightpath-tutoring/backend/internal/discounts"
	"github.com/brightpath-tutoring/backend/internal/models"
	"github.com/brightpath-tutoring/backend/internal/pricing"
	"github.com/brightpath-tutoring/backend/pkg/queue"
	"github.com/brightpath-tutoring/backend/pkg/validator"
)

// Service coordinates availability, discounts, pricing and persistence for bookings.
type Service struct {
	repo      BookingRepository
	checker   AvailabilityChecker
	discounts DiscountResolver
	gate      Gate
	notifier  Notifier
	logger    *zap.Logger
}

// NewService creates a booking service. gate and notifier may be nil.
func NewService(repo BookingRepository, checker AvailabilityChecker, discounts DiscountResolver, gate Gate, notifier Notifier, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, checker: checker, discounts: discounts, gate: gate, notifier: notifier, logger: logger}
}

// CreateBooking validates req, prices it and reserves a place on the block.
func (s *Service) CreateBooking(ctx context.Context, req CreateBookingRequest) (*BookingResult, error) {
	if s.gate != nil && !s.gate.BookingsOpen(ctx) {
		return nil, ErrBookingsClosed
	}
	req.ParentName = strings.TrimSpace(req.ParentName)
	req.ParentEmail = strings.ToLower(strings.TrimSpace(req.ParentEmail))
	req.ChildName = strings.TrimSpace(req.ChildName)
	if fields := validator.Validate(req); fields != nil {
		return nil, &ValidationError{Fields: fields}
	}

	block, avail, err := s.checker.Check(ctx, req.BlockID)
	if errors.Is(err, availability.ErrBlockNotFound) {
		return nil, ErrBlockNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("check availability: %w", err)
	}
	if !avail.Available {
		return nil, &UnavailableError{SpotsRemaining: avail.SpotsRemaining}
	}

	var discount *models.DiscountCode
	if strings.TrimSpace(req.DiscountCode) != "" {
		discount, err = s.discounts.Resolve(ctx, req.DiscountCode, block.ID)
		if errors.Is(err, discounts.ErrNotFound) || errors.Is(err, discounts.ErrNotApplicable) {
			return nil, &ValidationError{Fields: map[string]string{"discount_code": err.Error()}}
		}
		if err != nil {
			return nil, fmt.Errorf("resolve discount: %w", err)
		}
	}

	price := pricing.CalculatePricing(*block, discount)
	b := &models.Booking{
		BlockID:        block.ID,
		ParentName:     req.ParentName,
		ParentEmail:    req.ParentEmail,
		ParentPhone:    strings.TrimSpace(req.ParentPhone),
		ChildName:      req.ChildName,
		ChildAge:       req.ChildAge,
		Notes:          strings.TrimSpace(req.Notes),
		Status:         models.BookingPending,
		PaymentStatus:  models.PaymentUnpaid,
		Subtotal:       price.Subtotal,
		DiscountAmount: price.DiscountAmount,
		Total:          price.Total,
		AmountPaid:     decimal.Zero,
	}
	var discountID *uuid.UUID
	if discount != nil {
		code := discount.Code
		b.DiscountCode = &code
		discountID = &discount.ID
	}

	if err := s.repo.Create(ctx, b, discountID); err != nil {
		switch {
		case errors.Is(err, ErrBlockUnavailable):
			return nil, &UnavailableError{SpotsRemaining: 0}
		case errors.Is(err, discounts.ErrNotApplicable):
			return nil, &ValidationError{Fields: map[string]string{"discount_code": err.Error()}}
		}
		return nil, fmt.Errorf("create booking: %w", err)
	}

	s.logger.Info("booking created",
		zap.String("booking_id", b.ID.String()),
		zap.String("block_id", block.ID.String()),
		zap.String("total", b.Total.StringFixed(2)),
	)
	s.notify(ctx, queue.EmailBookingCreated, b, block.Title)
	return &BookingResult{Booking: b, Pricing: price}, nil
}

// Get returns a booking with its outstanding balance.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*BookingDetails, error) {
	b, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return &BookingDetails{Booking: b, Outstanding: pricing.CalculateOutstanding(b.Total, b.AmountPaid)}, nil
}

// List returns bookings, optionally for one block.
func (s *Service) List(ctx context.Context, blockID *uuid.UUID) ([]models.Booking, error) {
	list, err := s.repo.List(ctx, blockID)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return list, nil
}

// RecordPayment adds amount to what the booking has been paid. A booking that becomes
// fully paid is confirmed. The balance is read and written under the booking's row lock.
func (s *Service) RecordPayment(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (*BookingDetails, error) {
	if !amount.IsPositive() {
		return nil, &ValidationError{Fields: map[string]string{"amount": "gt=0"}}
	}
	b, err := s.repo.ApplyPayment(ctx, id, func(b *models.Booking) error {
		if b.Status == models.BookingCancelled || b.PaymentStatus == models.PaymentRefunded {
			return ErrInvalidTransition
		}
		b.AmountPaid = b.AmountPaid.Add(amount)
		b.PaymentStatus = pricing.DeterminePaymentStatus(b.Total, b.AmountPaid)
		if b.PaymentStatus == models.PaymentPaid && b.Status == models.BookingPending {
			b.Status = models.BookingConfirmed
		}
		return nil
	})
	if err != nil {
		return nil, s.wrapTransition(err, "record payment")
	}

	s.logger.Info("payment recorded",
		zap.String("booking_id", id.String()),
		zap.String("amount", amount.StringFixed(2)),
		zap.String("payment_status", string(b.PaymentStatus)),
	)
	s.notify(ctx, queue.EmailPaymentReceived, b, "")
	return &BookingDetails{Booking: b, Outstanding: pricing.CalculateOutstanding(b.Total, b.AmountPaid)}, nil
}

// Cancel cancels a booking and releases its place on the block.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	b, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.Status == models.BookingCancelled {
		return nil, ErrInvalidTransition
	}
	if err := s.repo.Cancel(ctx, id, false); err != nil {
		return nil, s.wrapTransition(err, "cancel booking")
	}
	b.Status = models.BookingCancelled
	s.logger.Info("booking cancelled", zap.String("booking_id", id.String()))
	s.notify(ctx, queue.EmailBookingCancelled, b, "")
	return b, nil
}

// Refund marks a paid booking refunded, cancelling it if it was still active.
func (s *Service) Refund(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	b, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.PaymentStatus == models.PaymentRefunded || !b.AmountPaid.IsPositive() {
		return nil, ErrInvalidTransition
	}
	if err := s.repo.Cancel(ctx, id, true); err != nil {
		return nil, s.wrapTransition(err, "refund booking")
	}
	wasActive := b.Status != models.BookingCancelled
	b.Status = models.BookingCancelled
	b.PaymentStatus = models.PaymentRefunded
	s.logger.Info("booking refunded", zap.String("booking_id", id.String()), zap.String("amount", b.AmountPaid.StringFixed(2)))
	if wasActive {
		s.notify(ctx, queue.EmailBookingCancelled, b, "")
	}
	return b, nil
}

func (s *Service) load(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}
	if b == nil {
		return nil, ErrNotFound
	}
	return b, nil
}

func (s *Service) wrapTransition(err error, op string) error {
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidTransition) {
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}

// notify queues an email. Failures are logged and never fail the booking.
func (s *Service) notify(ctx context.Context, kind string, b *models.Booking, blockTitle string) {
	if s.notifier == nil {
		return
	}
	payload := queue.BookingNotification{
		EmailType:      kind,
		BookingID:      b.ID,
		BlockID:        b.BlockID,
		BlockTitle:     blockTitle,
		RecipientName:  b.ParentName,
		RecipientEmail: b.ParentEmail,
		ChildName:      b.ChildName,
		Total:          b.Total.StringFixed(2),
		AmountPaid:     b.AmountPaid.StringFixed(2),
	}
	if err := s.notifier.EnqueueBookingNotification(ctx, payload); err != nil {
		s.logger.Warn("enqueue booking notification failed",
			zap.String("booking_id", b.ID.String()),
			zap.String("email_type", kind),
			zap.Error(err),
		)
	}
}
