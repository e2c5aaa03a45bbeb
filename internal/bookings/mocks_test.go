package bookings

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/brightpath-tutoring/backend/internal/availability"
	"github.com/brightpath-tutoring/backend/internal/models"
	"github.com/brightpath-tutoring/backend/pkg/queue"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, b *models.Booking, discountID *uuid.UUID) error {
	args := m.Called(ctx, b, discountID)
	if args.Error(0) == nil {
		b.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *MockRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *MockRepository) List(ctx context.Context, blockID *uuid.UUID) ([]models.Booking, error) {
	args := m.Called(ctx, blockID)
	return args.Get(0).([]models.Booking), args.Error(1)
}

func (m *MockRepository) ApplyPayment(ctx context.Context, id uuid.UUID, apply func(b *models.Booking) error) (*models.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	b := args.Get(0).(*models.Booking)
	if err := apply(b); err != nil {
		return nil, err
	}
	return b, args.Error(1)
}

func (m *MockRepository) Cancel(ctx context.Context, id uuid.UUID, refund bool) error {
	return m.Called(ctx, id, refund).Error(0)
}

type MockChecker struct {
	mock.Mock
}

func (m *MockChecker) Check(ctx context.Context, blockID uuid.UUID) (*models.SessionBlock, availability.Result, error) {
	args := m.Called(ctx, blockID)
	if args.Get(0) == nil {
		return nil, availability.Result{}, args.Error(2)
	}
	return args.Get(0).(*models.SessionBlock), args.Get(1).(availability.Result), args.Error(2)
}

type MockResolver struct {
	mock.Mock
}

func (m *MockResolver) Resolve(ctx context.Context, code string, blockID uuid.UUID) (*models.DiscountCode, error) {
	args := m.Called(ctx, code, blockID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DiscountCode), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) EnqueueBookingNotification(ctx context.Context, payload queue.BookingNotification) error {
	return m.Called(ctx, payload).Error(0)
}

type gate bool

func (g gate) BookingsOpen(context.Context) bool { return bool(g) }
