// Package blocks serves session blocks: public listing, availability and price quotes,
// and admin create/update.
package blocks

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/brightpath-tutoring/backend/internal/availability"
	"github.com/brightpath-tutoring/backend/internal/discounts"
	"github.com/brightpath-tutoring/backend/internal/models"
	"github.com/brightpath-tutoring/backend/internal/pricing"
	"github.com/brightpath-tutoring/backend/pkg/response"
	"github.com/brightpath-tutoring/backend/pkg/validator"
)

// Store is the block persistence used by the handler.
type Store interface {
	GetBlockByID(ctx context.Context, id uuid.UUID) (*models.SessionBlock, error)
	CheckCapacity(ctx context.Context, id uuid.UUID) (*models.BlockCapacity, error)
	List(ctx context.Context, publicOnly bool) ([]models.SessionBlock, error)
	Create(ctx context.Context, b *models.SessionBlock) error
	Update(ctx context.Context, b *models.SessionBlock) error
}

// DiscountResolver resolves a code for a block.
type DiscountResolver interface {
	Resolve(ctx context.Context, code string, blockID uuid.UUID) (*models.DiscountCode, error)
}

// BlockRequest is the body for POST /admin/blocks and PUT /admin/blocks/:id.
// The booking count is not part of it: only bookings move current_bookings.
type BlockRequest struct {
	Title           string          `json:"title" binding:"required,max=200"`
	Description     string          `json:"description" binding:"max=4000"`
	StartsOn        *time.Time      `json:"starts_on"`
	Capacity        int             `json:"capacity" binding:"required,min=1"`
	Status          string          `json:"status" binding:"required,oneof=draft published full cancelled completed"`
	RegistrationFee decimal.Decimal `json:"registration_fee"`
	SessionFee      decimal.Decimal `json:"session_fee"`
	TotalSessions   int             `json:"total_sessions" binding:"required,min=1"`
}

// QuoteRequest is the body for POST /blocks/:id/quote.
type QuoteRequest struct {
	DiscountCode string `json:"discount_code" binding:"max=40"`
}

// BlockView is a block with its derived total and availability.
type BlockView struct {
	models.SessionBlock
	Total        decimal.Decimal     `json:"total"`
	Availability availability.Result `json:"availability"`
}

// QuoteResponse is a price breakdown plus availability.
type QuoteResponse struct {
	Pricing      models.PricingBreakdown `json:"pricing"`
	Availability availability.Result     `json:"availability"`
}

// Handler handles block HTTP endpoints.
type Handler struct {
	store     Store
	discounts DiscountResolver
	logger    *zap.Logger
}

// NewHandler creates a blocks handler.
func NewHandler(store Store, discounts DiscountResolver, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, discounts: discounts, logger: logger}
}

func view(b models.SessionBlock) BlockView {
	return BlockView{
		SessionBlock: b,
		Total:        pricing.CalculateBlockTotal(b),
		Availability: availability.CheckBlockAvailability(b),
	}
}

func visible(b *models.SessionBlock) bool {
	return b != nil && (b.Status == models.BlockPublished || b.Status == models.BlockFull)
}

// List handles GET /blocks.
func (h *Handler) List(c *gin.Context) {
	h.list(c, true)
}

// AdminList handles GET /admin/blocks.
func (h *Handler) AdminList(c *gin.Context) {
	h.list(c, false)
}

func (h *Handler) list(c *gin.Context, publicOnly bool) {
	list, err := h.store.List(c.Request.Context(), publicOnly)
	if err != nil {
		h.logger.Error("list blocks failed", zap.Error(err))
		response.Internal(c, "failed to list blocks")
		return
	}
	out := make([]BlockView, 0, len(list))
	for _, b := range list {
		out = append(out, view(b))
	}
	response.OK(c, out)
}

// Get handles GET /blocks/:id.
func (h *Handler) Get(c *gin.Context) {
	b, ok := h.lookup(c)
	if !ok {
		return
	}
	response.OK(c, view(*b))
}

// Availability handles GET /blocks/:id/availability from the block's capacity snapshot.
func (h *Handler) Availability(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid block id")
		return
	}
	snap, err := h.store.CheckCapacity(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("check capacity failed", zap.Error(err), zap.String("block_id", id.String()))
		response.Internal(c, "failed to load block")
		return
	}
	if snap == nil || (snap.Status != models.BlockPublished && snap.Status != models.BlockFull) {
		response.NotFound(c, "block not found")
		return
	}
	response.OK(c, availability.FromCapacity(*snap))
}

// Quote handles POST /blocks/:id/quote.
func (h *Handler) Quote(c *gin.Context) {
	b, ok := h.lookup(c)
	if !ok {
		return
	}
	var req QuoteRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.ValidationFailed(c, validator.Fields(err))
			return
		}
	}

	var code *models.DiscountCode
	if discounts.NormalizeCode(req.DiscountCode) != "" {
		d, err := h.discounts.Resolve(c.Request.Context(), req.DiscountCode, b.ID)
		switch {
		case errors.Is(err, discounts.ErrNotFound):
			response.NotFound(c, "discount code not found")
			return
		case errors.Is(err, discounts.ErrNotApplicable):
			response.BadRequest(c, "discount code is not valid for this block")
			return
		case err != nil:
			h.logger.Error("resolve discount failed", zap.Error(err), zap.String("block_id", b.ID.String()))
			response.Internal(c, "failed to check discount code")
			return
		}
		code = d
	}

	response.OK(c, QuoteResponse{
		Pricing:      pricing.CalculatePricing(*b, code),
		Availability: availability.CheckBlockAvailability(*b),
	})
}

// Create handles POST /admin/blocks.
func (h *Handler) Create(c *gin.Context) {
	b, ok := bindBlock(c)
	if !ok {
		return
	}
	b.Status = models.SettleStatus(b.Status, b.Capacity, 0)
	if err := h.store.Create(c.Request.Context(), b); err != nil {
		h.logger.Error("create block failed", zap.Error(err))
		response.Internal(c, "failed to create block")
		return
	}
	response.Created(c, view(*b))
}

// Update handles PUT /admin/blocks/:id.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid block id")
		return
	}
	b, ok := bindBlock(c)
	if !ok {
		return
	}
	b.ID = id
	if err := h.store.Update(c.Request.Context(), b); err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "block not found")
			return
		}
		h.logger.Error("update block failed", zap.Error(err), zap.String("block_id", id.String()))
		response.Internal(c, "failed to update block")
		return
	}
	response.OK(c, view(*b))
}

func (h *Handler) lookup(c *gin.Context) (*models.SessionBlock, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid block id")
		return nil, false
	}
	b, err := h.store.GetBlockByID(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("get block failed", zap.Error(err), zap.String("block_id", id.String()))
		response.Internal(c, "failed to load block")
		return nil, false
	}
	if !visible(b) {
		response.NotFound(c, "block not found")
		return nil, false
	}
	return b, true
}

func bindBlock(c *gin.Context) (*models.SessionBlock, bool) {
	var req BlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationFailed(c, validator.Fields(err))
		return nil, false
	}
	fields := map[string]string{}
	if req.RegistrationFee.IsNegative() {
		fields["registration_fee"] = "gte=0"
	}
	if req.SessionFee.IsNegative() {
		fields["session_fee"] = "gte=0"
	}
	if len(fields) > 0 {
		response.ValidationFailed(c, fields)
		return nil, false
	}
	return &models.SessionBlock{
		Title:           req.Title,
		Description:     req.Description,
		StartsOn:        req.StartsOn,
		Capacity:        req.Capacity,
		Status:          models.BlockStatus(req.Status),
		RegistrationFee: req.RegistrationFee,
		SessionFee:      req.SessionFee,
		TotalSessions:   req.TotalSessions,
	}, true
}
