package admin

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/brightpath-tutoring/backend/internal/adminsession"
	"github.com/brightpath-tutoring/backend/internal/ratelimit"
	"github.com/brightpath-tutoring/backend/pkg/response"
	"github.com/brightpath-tutoring/backend/pkg/validator"
)

// RateLimiter throttles failed logins per client.
type RateLimiter interface {
	Check(ctx context.Context, key string) ratelimit.Result
	RecordFailure(ctx context.Context, key string)
	ClearFailures(ctx context.Context, key string)
}

// LoginRequest is the body for POST /admin/login.
type LoginRequest struct {
	Password string `json:"password" binding:"required"`
}

// SessionResponse reports the admin session state.
type SessionResponse struct {
	Authenticated bool `json:"authenticated"`
	ExpiresIn     int  `json:"expires_in,omitempty"`
}

// Handler handles admin auth HTTP endpoints.
type Handler struct {
	creds    Credentials
	limiter  RateLimiter
	sessions *adminsession.Service
	cookies  *adminsession.Cookies
	logger   *zap.Logger
}

// NewHandler creates an admin auth handler.
func NewHandler(creds Credentials, limiter RateLimiter, sessions *adminsession.Service, cookies *adminsession.Cookies, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{creds: creds, limiter: limiter, sessions: sessions, cookies: cookies, logger: logger}
}

// Login handles POST /admin/login.
func (h *Handler) Login(c *gin.Context) {
	ctx := c.Request.Context()
	key := c.ClientIP()

	if res := h.limiter.Check(ctx, key); res.Limited {
		response.TooManyRequests(c, "too many login attempts, try again later", res.RetryAfterSeconds)
		return
	}

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationFailed(c, validator.Fields(err))
		return
	}

	if !h.creds.Configured() || !h.sessions.Configured() {
		h.logger.Error("admin login misconfigured",
			zap.Bool("password_set", h.creds.Configured()),
			zap.Bool("session_secret_set", h.sessions.Configured()))
		response.Internal(c, "server misconfigured")
		return
	}

	ok, err := h.creds.Check(req.Password)
	if err != nil {
		h.logger.Error("admin password check failed", zap.Error(err))
		response.Internal(c, "server misconfigured")
		return
	}
	if !ok {
		h.limiter.RecordFailure(ctx, key)
		h.logger.Warn("admin login failed", zap.String("client_ip", key))
		response.Unauthorized(c, "invalid password")
		return
	}

	h.limiter.ClearFailures(ctx, key)
	token, err := h.sessions.Create()
	if err != nil {
		if errors.Is(err, adminsession.ErrMissingSecret) {
			h.logger.Error("admin session secret missing")
		} else {
			h.logger.Error("create admin session failed", zap.Error(err))
		}
		response.Internal(c, "server misconfigured")
		return
	}
	h.cookies.Set(c, token)
	h.logger.Info("admin logged in", zap.String("client_ip", key))
	response.OK(c, SessionResponse{Authenticated: true, ExpiresIn: int(h.sessions.TTL().Seconds())})
}

// Logout handles POST /admin/logout.
func (h *Handler) Logout(c *gin.Context) {
	h.cookies.Clear(c)
	response.OK(c, SessionResponse{Authenticated: false})
}

// Session handles GET /admin/session.
func (h *Handler) Session(c *gin.Context) {
	response.OK(c, SessionResponse{Authenticated: h.cookies.Authenticated(c)})
}
