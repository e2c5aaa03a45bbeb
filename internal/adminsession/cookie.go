package adminsession

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CookieName is the admin session cookie.
const CookieName = "admin_session"

// Cookies writes the session cookie with the same lifetime as the token it carries.
type Cookies struct {
	sessions *Service
	secure   bool
}

// NewCookies creates a cookie writer. Secure should be true in production.
func NewCookies(sessions *Service, secure bool) *Cookies {
	return &Cookies{sessions: sessions, secure: secure}
}

// Set stores token in an HttpOnly, SameSite=Strict cookie.
func (c *Cookies) Set(ctx *gin.Context, token string) {
	http.SetCookie(ctx.Writer, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(c.sessions.TTL().Seconds()),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// Clear expires the session cookie.
func (c *Cookies) Clear(ctx *gin.Context) {
	http.SetCookie(ctx.Writer, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// Authenticated reports whether the request carries a valid session cookie.
func (c *Cookies) Authenticated(ctx *gin.Context) bool {
	token, err := ctx.Cookie(CookieName)
	if err != nil || token == "" {
		return false
	}
	return c.sessions.Verify(token)
}
