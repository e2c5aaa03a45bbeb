package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/brightpath-tutoring/backend/internal/adminsession"
	"github.com/brightpath-tutoring/backend/pkg/response"
)

// ContextAdmin is set to true in gin context once the admin session is verified.
const ContextAdmin = "admin"

// RequireAdmin returns a middleware that only lets requests with a valid admin session cookie through.
// Every verification failure gets the same response.
func RequireAdmin(cookies *adminsession.Cookies) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cookies.Authenticated(c) {
			response.Unauthorized(c, "unauthorized")
			c.Abort()
			return
		}
		c.Set(ContextAdmin, true)
		c.Next()
	}
}
