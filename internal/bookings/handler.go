package bookings

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/brightpath-tutoring/backend/pkg/response"
	"github.com/brightpath-tutoring/backend/pkg/validator"
)

// Handler handles booking HTTP endpoints.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates a bookings handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

// Create handles POST /bookings.
func (h *Handler) Create(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationFailed(c, validator.Fields(err))
		return
	}
	res, err := h.svc.CreateBooking(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err, "failed to create booking")
		return
	}
	response.Created(c, res)
}

// List handles GET /admin/bookings?block_id=.
func (h *Handler) List(c *gin.Context) {
	var blockID *uuid.UUID
	if raw := c.Query("block_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.BadRequest(c, "invalid block_id")
			return
		}
		blockID = &id
	}
	list, err := h.svc.List(c.Request.Context(), blockID)
	if err != nil {
		h.fail(c, err, "failed to list bookings")
		return
	}
	response.OK(c, list)
}

// Get handles GET /admin/bookings/:id.
func (h *Handler) Get(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}
	b, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err, "failed to get booking")
		return
	}
	response.OK(c, b)
}

// RecordPayment handles POST /admin/bookings/:id/payments.
func (h *Handler) RecordPayment(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}
	var req PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationFailed(c, validator.Fields(err))
		return
	}
	b, err := h.svc.RecordPayment(c.Request.Context(), id, req.Amount)
	if err != nil {
		h.fail(c, err, "failed to record payment")
		return
	}
	response.OK(c, b)
}

// Cancel handles POST /admin/bookings/:id/cancel.
func (h *Handler) Cancel(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}
	b, err := h.svc.Cancel(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err, "failed to cancel booking")
		return
	}
	response.OK(c, b)
}

// Refund handles POST /admin/bookings/:id/refund.
func (h *Handler) Refund(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}
	b, err := h.svc.Refund(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err, "failed to refund booking")
		return
	}
	response.OK(c, b)
}

func bookingID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking id")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) fail(c *gin.Context, err error, msg string) {
	var verr *ValidationError
	var unavailable *UnavailableError
	switch {
	case errors.As(err, &verr):
		response.ValidationFailed(c, verr.Fields)
	case errors.As(err, &unavailable):
		response.BadRequestData(c, ErrBlockUnavailable.Error(), gin.H{"spots_remaining": unavailable.SpotsRemaining})
	case errors.Is(err, ErrBookingsClosed):
		response.ServiceUnavailable(c, err.Error())
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrBlockNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, ErrInvalidTransition):
		response.Conflict(c, err.Error())
	default:
		h.logger.Error(msg, zap.Error(err))
		response.Internal(c, msg)
	}
}
