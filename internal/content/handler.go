package content

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/brightpath-tutoring/backend/pkg/response"
	"github.com/brightpath-tutoring/backend/pkg/validator"
)

// Handler serves site settings.
type Handler struct {
	reader *Reader
	logger *zap.Logger
}

// NewHandler creates a settings handler.
func NewHandler(reader *Reader, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{reader: reader, logger: logger}
}

// Get handles GET /settings.
func (h *Handler) Get(c *gin.Context) {
	response.OK(c, h.reader.Load(c.Request.Context()))
}

// Update handles PUT /admin/settings.
func (h *Handler) Update(c *gin.Context) {
	var s Settings
	if err := c.ShouldBindJSON(&s); err != nil {
		response.ValidationFailed(c, validator.Fields(err))
		return
	}
	if fields := validator.Validate(s); fields != nil {
		response.ValidationFailed(c, fields)
		return
	}
	err := h.reader.Save(c.Request.Context(), s)
	switch {
	case errors.Is(err, ErrNotWritable):
		response.ServiceUnavailable(c, err.Error())
	case err != nil:
		h.logger.Error("save settings failed", zap.Error(err))
		response.Internal(c, "failed to save settings")
	default:
		response.OK(c, s)
	}
}
