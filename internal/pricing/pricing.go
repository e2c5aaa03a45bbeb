// Package pricing computes block totals, discount-adjusted breakdowns and payment status.
// Every function here is pure.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/brightpath-tutoring/backend/internal/models"
)

var hundred = decimal.NewFromInt(100)

// CalculateBlockTotal returns registration_fee + session_fee * total_sessions.
func CalculateBlockTotal(block models.SessionBlock) decimal.Decimal {
	return block.RegistrationFee.Add(sessionsTotal(block))
}

// CalculatePricing returns the price breakdown for a block, with the given discount applied
// when non-nil. Applicability is the caller's concern (see discounts.IsApplicable).
// The discount amount is clamped to [0, subtotal] so the total never goes negative.
func CalculatePricing(block models.SessionBlock, discount *models.DiscountCode) models.PricingBreakdown {
	sessions := sessionsTotal(block)
	subtotal := block.RegistrationFee.Add(sessions)

	out := models.PricingBreakdown{
		RegistrationFee: block.RegistrationFee,
		SessionCount:    block.TotalSessions,
		SessionFee:      block.SessionFee,
		SessionsTotal:   sessions,
		DiscountAmount:  decimal.Zero,
		Subtotal:        subtotal,
		Total:           subtotal,
	}
	if discount == nil {
		return out
	}

	amount := clamp(rawDiscount(subtotal, *discount), decimal.Zero, subtotal)
	out.DiscountCode = discount.Code
	out.DiscountAmount = amount
	out.Total = subtotal.Sub(amount)
	return out
}

// DeterminePaymentStatus classifies a payment against a total.
// Zero or negative amounts are unpaid; callers reject negative payments before recording them.
func DeterminePaymentStatus(total, amountPaid decimal.Decimal) models.PaymentStatus {
	switch {
	case amountPaid.Sign() <= 0:
		return models.PaymentUnpaid
	case amountPaid.GreaterThanOrEqual(total):
		return models.PaymentPaid
	default:
		return models.PaymentPartial
	}
}

// CalculateOutstanding returns max(0, total - amountPaid).
func CalculateOutstanding(total, amountPaid decimal.Decimal) decimal.Decimal {
	return decimal.Max(decimal.Zero, total.Sub(amountPaid))
}

func sessionsTotal(block models.SessionBlock) decimal.Decimal {
	return block.SessionFee.Mul(decimal.NewFromInt(int64(block.TotalSessions)))
}

func rawDiscount(subtotal decimal.Decimal, d models.DiscountCode) decimal.Decimal {
	switch d.Type {
	case models.DiscountPercentage:
		return subtotal.Mul(d.Value).Div(hundred).Round(2)
	case models.DiscountFixedAmount:
		return d.Value
	default:
		return decimal.Zero
	}
}

func clamp(v, lo, hi decimal.Decimal) decimal.Decimal {
	return decimal.Min(decimal.Max(v, lo), hi)
}
