package discounts

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/brightpath-tutoring/backend/internal/clock"
	"github.com/brightpath-tutoring/backend/internal/models"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) GetByCode(ctx context.Context, code string) (*models.DiscountCode, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DiscountCode), args.Error(1)
}

var (
	jan1  = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	jan15 = time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	feb1  = time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
)

func intPtr(n int) *int { return &n }

func activeCode() models.DiscountCode {
	return models.DiscountCode{
		Code:         "WINTER",
		Type:         models.DiscountPercentage,
		Value:        decimal.NewFromInt(10),
		ValidFrom:    jan1,
		ValidUntil:   feb1,
		ApplicableTo: models.ScopeAll,
		Status:       models.DiscountActive,
	}
}

func TestIsApplicable_Active(t *testing.T) {
	assert.True(t, IsApplicable(activeCode(), uuid.New(), jan15))
}

func TestIsApplicable_Status(t *testing.T) {
	for _, s := range []models.DiscountStatus{models.DiscountExpired, models.DiscountDisabled} {
		d := activeCode()
		d.Status = s
		assert.False(t, IsApplicable(d, uuid.New(), jan15), s)
	}
}

func TestIsApplicable_WindowBoundariesExcluded(t *testing.T) {
	d := activeCode()
	assert.False(t, IsApplicable(d, uuid.New(), jan1), "valid_from itself")
	assert.False(t, IsApplicable(d, uuid.New(), feb1), "valid_until itself")
	assert.True(t, IsApplicable(d, uuid.New(), jan1.Add(time.Second)))
	assert.True(t, IsApplicable(d, uuid.New(), feb1.Add(-time.Second)))
	assert.False(t, IsApplicable(d, uuid.New(), jan1.Add(-time.Hour)))
	assert.False(t, IsApplicable(d, uuid.New(), feb1.Add(time.Hour)))
}

func TestIsApplicable_UsageCap(t *testing.T) {
	d := activeCode()
	d.UsageLimit = intPtr(10)
	d.TimesUsed = 10
	assert.False(t, IsApplicable(d, uuid.New(), jan15), "cap reached although window matches")

	d.TimesUsed = 9
	assert.True(t, IsApplicable(d, uuid.New(), jan15))

	d.UsageLimit = nil
	d.TimesUsed = 10_000
	assert.True(t, IsApplicable(d, uuid.New(), jan15), "no limit means unlimited")
}

func TestIsApplicable_Scope(t *testing.T) {
	target := uuid.New()
	d := activeCode()
	d.ApplicableTo = models.ScopeSpecificBlocks
	d.ApplicableBlockIDs = []uuid.UUID{uuid.New(), target}

	assert.True(t, IsApplicable(d, target, jan15))
	assert.False(t, IsApplicable(d, uuid.New(), jan15))

	d.ApplicableBlockIDs = nil
	assert.False(t, IsApplicable(d, target, jan15), "absent allow-list matches nothing")
}

func TestEvaluator_Resolve(t *testing.T) {
	store := new(MockStore)
	d := activeCode()
	store.On("GetByCode", mock.Anything, "WINTER").Return(&d, nil)

	got, err := NewEvaluator(store, clock.NewFake(jan15)).Resolve(context.Background(), "  winter ", uuid.New())

	require.NoError(t, err)
	assert.Equal(t, "WINTER", got.Code)
}

func TestEvaluator_Resolve_Errors(t *testing.T) {
	store := new(MockStore)
	expired := activeCode()
	store.On("GetByCode", mock.Anything, "WINTER").Return(&expired, nil)
	store.On("GetByCode", mock.Anything, "NOPE").Return(nil, nil)

	ev := NewEvaluator(store, clock.NewFake(feb1.Add(time.Hour)))

	_, err := ev.Resolve(context.Background(), "WINTER", uuid.New())
	assert.ErrorIs(t, err, ErrNotApplicable)

	_, err = ev.Resolve(context.Background(), "nope", uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = ev.Resolve(context.Background(), "   ", uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}
