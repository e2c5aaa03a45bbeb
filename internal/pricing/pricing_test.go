package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/brightpath-tutoring/backend/internal/models"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func block(reg, fee string, sessions int) models.SessionBlock {
	return models.SessionBlock{
		Capacity:        6,
		Status:          models.BlockPublished,
		RegistrationFee: d(reg),
		SessionFee:      d(fee),
		TotalSessions:   sessions,
	}
}

func TestCalculateBlockTotal(t *testing.T) {
	cases := []struct {
		name string
		b    models.SessionBlock
		want string
	}{
		{"typical block", block("25", "15", 6), "115"},
		{"no registration fee", block("0", "12.50", 8), "100"},
		{"free block", block("0", "0", 10), "0"},
		{"pence", block("10.99", "7.33", 3), "32.98"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := CalculateBlockTotal(tc.b)
			assert.True(t, d(tc.want).Equal(got), "want %s got %s", tc.want, got)
			want := tc.b.RegistrationFee.Add(tc.b.SessionFee.Mul(decimal.NewFromInt(int64(tc.b.TotalSessions))))
			assert.True(t, want.Equal(got))
		})
	}
}

func TestCalculatePricing_NoDiscount(t *testing.T) {
	p := CalculatePricing(block("25", "15", 6), nil)

	assert.True(t, d("25").Equal(p.RegistrationFee))
	assert.Equal(t, 6, p.SessionCount)
	assert.True(t, d("90").Equal(p.SessionsTotal))
	assert.True(t, d("115").Equal(p.Subtotal))
	assert.True(t, p.DiscountAmount.IsZero())
	assert.True(t, d("115").Equal(p.Total))
	assert.Empty(t, p.DiscountCode)
}

func TestCalculatePricing_Percentage(t *testing.T) {
	code := &models.DiscountCode{Code: "SPRING10", Type: models.DiscountPercentage, Value: d("10")}
	p := CalculatePricing(block("25", "15", 6), code)

	assert.True(t, d("11.5").Equal(p.DiscountAmount))
	assert.True(t, d("103.5").Equal(p.Total))
	assert.Equal(t, "SPRING10", p.DiscountCode)
}

func TestCalculatePricing_FullPercentageGivesZeroTotal(t *testing.T) {
	code := &models.DiscountCode{Type: models.DiscountPercentage, Value: d("100")}
	p := CalculatePricing(block("25", "15", 6), code)

	assert.True(t, d("115").Equal(p.DiscountAmount))
	assert.True(t, p.Total.IsZero())
}

func TestCalculatePricing_PercentageRoundsToPence(t *testing.T) {
	code := &models.DiscountCode{Type: models.DiscountPercentage, Value: d("33")}
	p := CalculatePricing(block("0", "10", 1), code)

	assert.True(t, d("3.3").Equal(p.DiscountAmount))
	assert.True(t, d("6.7").Equal(p.Total))
}

func TestCalculatePricing_FixedAmountClampedToSubtotal(t *testing.T) {
	for _, v := range []string{"5", "115", "116", "10000"} {
		code := &models.DiscountCode{Type: models.DiscountFixedAmount, Value: d(v)}
		p := CalculatePricing(block("25", "15", 6), code)

		assert.True(t, p.DiscountAmount.GreaterThanOrEqual(decimal.Zero), v)
		assert.True(t, p.DiscountAmount.LessThanOrEqual(p.Subtotal), v)
		assert.True(t, p.Subtotal.Sub(p.DiscountAmount).Equal(p.Total), v)
		assert.False(t, p.Total.IsNegative(), v)
	}
}

func TestCalculatePricing_Idempotent(t *testing.T) {
	b := block("25", "15", 6)
	code := &models.DiscountCode{Type: models.DiscountPercentage, Value: d("12.5")}

	first := CalculatePricing(b, code)
	second := CalculatePricing(b, code)

	assert.Equal(t, first, second)
}

func TestDeterminePaymentStatus(t *testing.T) {
	total := d("94")
	assert.Equal(t, models.PaymentUnpaid, DeterminePaymentStatus(total, d("0")))
	assert.Equal(t, models.PaymentPartial, DeterminePaymentStatus(total, d("50")))
	assert.Equal(t, models.PaymentPaid, DeterminePaymentStatus(total, d("94")))
	assert.Equal(t, models.PaymentPaid, DeterminePaymentStatus(total, d("120")))
}

func TestDeterminePaymentStatus_NegativeAmountIsUnpaid(t *testing.T) {
	// Negative payments are rejected by the booking service; the classifier itself treats them as unpaid.
	assert.Equal(t, models.PaymentUnpaid, DeterminePaymentStatus(d("94"), d("-10")))
}

func TestCalculateOutstanding(t *testing.T) {
	assert.True(t, d("44").Equal(CalculateOutstanding(d("94"), d("50"))))
	assert.True(t, CalculateOutstanding(d("94"), d("94")).IsZero())
	assert.True(t, CalculateOutstanding(d("94"), d("120")).IsZero())
}
