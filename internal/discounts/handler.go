package discounts

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/brightpath-tutoring/backend/internal/models"
	"github.com/brightpath-tutoring/backend/pkg/response"
	"github.com/brightpath-tutoring/backend/pkg/validator"
)

// AdminStore is the persistence used by the admin endpoints.
type AdminStore interface {
	Create(ctx context.Context, d *models.DiscountCode) error
	List(ctx context.Context) ([]models.DiscountCode, error)
	SetStatus(ctx context.Context, id uuid.UUID, status models.DiscountStatus) error
}

// CreateRequest is the body for POST /admin/discounts.
type CreateRequest struct {
	Code               string          `json:"code" binding:"required,min=3,max=40"`
	Type               string          `json:"type" binding:"required,oneof=percentage fixed_amount"`
	Value              decimal.Decimal `json:"value"`
	ValidFrom          time.Time       `json:"valid_from" binding:"required"`
	ValidUntil         time.Time       `json:"valid_until" binding:"required"`
	UsageLimit         *int            `json:"usage_limit" binding:"omitempty,min=1"`
	ApplicableTo       string          `json:"applicable_to" binding:"required,oneof=all specific_blocks"`
	ApplicableBlockIDs []uuid.UUID     `json:"applicable_block_ids"`
}

// StatusRequest is the body for PATCH /admin/discounts/:id.
type StatusRequest struct {
	Status string `json:"status" binding:"required,oneof=active expired disabled"`
}

// Handler serves the admin discount endpoints.
type Handler struct {
	store  AdminStore
	logger *zap.Logger
}

// NewHandler creates a discounts handler.
func NewHandler(store AdminStore, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, logger: logger}
}

// Create handles POST /admin/discounts.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationFailed(c, validator.Fields(err))
		return
	}
	d := &models.DiscountCode{
		Code:               NormalizeCode(req.Code),
		Type:               models.DiscountType(req.Type),
		Value:              req.Value,
		ValidFrom:          req.ValidFrom,
		ValidUntil:         req.ValidUntil,
		UsageLimit:         req.UsageLimit,
		ApplicableTo:       models.DiscountScope(req.ApplicableTo),
		ApplicableBlockIDs: req.ApplicableBlockIDs,
		Status:             models.DiscountActive,
	}
	if fields := ValidateCode(*d); fields != nil {
		response.ValidationFailed(c, fields)
		return
	}
	if err := h.store.Create(c.Request.Context(), d); err != nil {
		if errors.Is(err, ErrCodeExists) {
			response.Conflict(c, "discount code already exists")
			return
		}
		h.logger.Error("create discount failed", zap.Error(err), zap.String("code", d.Code))
		response.Internal(c, "failed to create discount code")
		return
	}
	response.Created(c, d)
}

// List handles GET /admin/discounts.
func (h *Handler) List(c *gin.Context) {
	list, err := h.store.List(c.Request.Context())
	if err != nil {
		h.logger.Error("list discounts failed", zap.Error(err))
		response.Internal(c, "failed to list discount codes")
		return
	}
	response.OK(c, list)
}

// SetStatus handles PATCH /admin/discounts/:id.
func (h *Handler) SetStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid discount id")
		return
	}
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationFailed(c, validator.Fields(err))
		return
	}
	if err := h.store.SetStatus(c.Request.Context(), id, models.DiscountStatus(req.Status)); err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "discount code not found")
			return
		}
		h.logger.Error("update discount status failed", zap.Error(err), zap.String("discount_id", id.String()))
		response.Internal(c, "failed to update discount code")
		return
	}
	response.OK(c, gin.H{"id": id, "status": req.Status})
}

// ValidateCode checks the invariants binding tags cannot express.
func ValidateCode(d models.DiscountCode) map[string]string {
	fields := map[string]string{}
	if d.Value.Sign() <= 0 {
		fields["value"] = "gt=0"
	} else if d.Type == models.DiscountPercentage && d.Value.GreaterThan(decimal.NewFromInt(100)) {
		fields["value"] = "lte=100"
	}
	if !d.ValidUntil.After(d.ValidFrom) {
		fields["valid_until"] = "gtfield=valid_from"
	}
	if d.UsageLimit != nil && *d.UsageLimit <= 0 {
		fields["usage_limit"] = "min=1"
	}
	if d.ApplicableTo == models.ScopeSpecificBlocks && len(d.ApplicableBlockIDs) == 0 {
		fields["applicable_block_ids"] = "required"
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}
