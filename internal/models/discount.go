package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DiscountType is percentage or fixed_amount.
type DiscountType string

const (
	DiscountPercentage  DiscountType = "percentage"
	DiscountFixedAmount DiscountType = "fixed_amount"
)

// DiscountScope selects which blocks a code applies to.
type DiscountScope string

const (
	ScopeAll            DiscountScope = "all"
	ScopeSpecificBlocks DiscountScope = "specific_blocks"
)

// DiscountStatus is the admin-controlled state of a code.
type DiscountStatus string

const (
	DiscountActive   DiscountStatus = "active"
	DiscountExpired  DiscountStatus = "expired"
	DiscountDisabled DiscountStatus = "disabled"
)

// DiscountCode is a promotional adjustment applied to a block's subtotal.
type DiscountCode struct {
	ID           uuid.UUID       `json:"id"`
	Code         string          `json:"code"`
	Type         DiscountType    `json:"type"`
	Value        decimal.Decimal `json:"value"`
	ValidFrom    time.Time       `json:"valid_from"`
	ValidUntil   time.Time       `json:"valid_until"`
	UsageLimit   *int            `json:"usage_limit,omitempty"` // nil means unlimited
	TimesUsed    int             `json:"times_used"`
	ApplicableTo DiscountScope   `json:"applicable_to"`
	// nil means the allow-list is absent, which for specific_blocks matches nothing.
	ApplicableBlockIDs []uuid.UUID    `json:"applicable_block_ids,omitempty"`
	Status             DiscountStatus `json:"status"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}
