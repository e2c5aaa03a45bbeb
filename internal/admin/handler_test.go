package admin

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightpath-tutoring/backend/config"
	"github.com/brightpath-tutoring/backend/internal/adminsession"
	"github.com/brightpath-tutoring/backend/internal/clock"
	"github.com/brightpath-tutoring/backend/internal/ratelimit"
	"github.com/brightpath-tutoring/backend/pkg/utils"
)

type fixture struct {
	router *gin.Engine
	clock  *clock.Fake
	svc    *adminsession.Service
}

func newFixture(creds Credentials, secret string) *fixture {
	return newFixtureBehind(creds, secret, config.ServerConfig{})
}

func newFixtureBehind(creds Credentials, secret string, server config.ServerConfig) *fixture {
	gin.SetMode(gin.TestMode)
	clk := clock.NewFake(time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC))
	svc := adminsession.NewService(secret, 24*time.Hour, clk)
	limiter := ratelimit.NewLimiter(nil, ratelimit.NewMemoryStore(ratelimit.DefaultPolicy, clk))
	h := NewHandler(creds, limiter, svc, adminsession.NewCookies(svc, false), nil)

	r := gin.New()
	if err := r.SetTrustedProxies(server.TrustedProxyList()); err != nil {
		panic(err)
	}
	r.POST("/admin/login", h.Login)
	r.POST("/admin/logout", h.Logout)
	r.GET("/admin/session", h.Session)
	return &fixture{router: r, clock: clk, svc: svc}
}

func (f *fixture) login(password string) *httptest.ResponseRecorder {
	return f.loginFrom("203.0.113.7:51000", "", password)
}

func (f *fixture) loginFrom(remoteAddr, forwardedFor, password string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader(`{"password":"`+password+`"}`))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = remoteAddr
	if forwardedFor != "" {
		req.Header.Set("X-Forwarded-For", forwardedFor)
	}
	f.router.ServeHTTP(w, req)
	return w
}

func TestLogin_Success(t *testing.T) {
	f := newFixture(Credentials{Password: "open-sesame"}, "signing-secret")

	w := f.login("open-sesame")

	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, adminsession.CookieName, cookies[0].Name)
	assert.Equal(t, 86400, cookies[0].MaxAge)
	assert.True(t, f.svc.Verify(cookies[0].Value))
}

func TestLogin_BcryptHash(t *testing.T) {
	hash, err := utils.HashPassword("open-sesame")
	require.NoError(t, err)
	f := newFixture(Credentials{PasswordHash: hash}, "signing-secret")

	assert.Equal(t, http.StatusOK, f.login("open-sesame").Code)
	assert.Equal(t, http.StatusUnauthorized, f.login("wrong").Code)
}

func TestLogin_WrongPassword(t *testing.T) {
	f := newFixture(Credentials{Password: "open-sesame"}, "signing-secret")

	w := f.login("guess")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, w.Result().Cookies())
}

func TestLogin_RateLimited(t *testing.T) {
	f := newFixture(Credentials{Password: "open-sesame"}, "signing-secret")
	for i := 0; i < 5; i++ {
		require.Equal(t, http.StatusUnauthorized, f.login("guess").Code)
	}

	w := f.login("open-sesame")
	assert.Equal(t, http.StatusTooManyRequests, w.Code, "even the right password is refused while limited")
	assert.Equal(t, "900", w.Header().Get("Retry-After"))

	f.clock.Advance(15 * time.Minute)
	assert.Equal(t, http.StatusOK, f.login("open-sesame").Code)
}

func TestLogin_RateLimitIgnoresForwardedForByDefault(t *testing.T) {
	f := newFixture(Credentials{Password: "open-sesame"}, "signing-secret")
	for i := 0; i < 5; i++ {
		xff := fmt.Sprintf("198.51.100.%d", i+1)
		require.Equal(t, http.StatusUnauthorized, f.loginFrom("203.0.113.7:51000", xff, "guess").Code)
	}

	w := f.loginFrom("203.0.113.7:51000", "198.51.100.99", "guess")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestLogin_RateLimitUsesForwardedForFromTrustedProxy(t *testing.T) {
	f := newFixtureBehind(Credentials{Password: "open-sesame"}, "signing-secret",
		config.ServerConfig{TrustedProxies: "10.0.0.2"})
	for i := 0; i < 5; i++ {
		require.Equal(t, http.StatusUnauthorized, f.loginFrom("10.0.0.2:40000", "198.51.100.1", "guess").Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, f.loginFrom("10.0.0.2:40000", "198.51.100.1", "guess").Code)
	// A different client behind the same proxy has its own counter.
	assert.Equal(t, http.StatusOK, f.loginFrom("10.0.0.2:40000", "198.51.100.2", "open-sesame").Code)
}

func TestLogin_SuccessClearsFailures(t *testing.T) {
	f := newFixture(Credentials{Password: "open-sesame"}, "signing-secret")
	for i := 0; i < 4; i++ {
		f.login("guess")
	}
	require.Equal(t, http.StatusOK, f.login("open-sesame").Code)

	for i := 0; i < 4; i++ {
		assert.Equal(t, http.StatusUnauthorized, f.login("guess").Code)
	}
}

func TestLogin_MissingConfiguration(t *testing.T) {
	noPassword := newFixture(Credentials{}, "signing-secret")
	assert.Equal(t, http.StatusInternalServerError, noPassword.login("anything").Code)

	noSecret := newFixture(Credentials{Password: "open-sesame"}, "")
	assert.Equal(t, http.StatusInternalServerError, noSecret.login("open-sesame").Code)
}

func TestLogin_EmptyBody(t *testing.T) {
	f := newFixture(Credentials{Password: "open-sesame"}, "signing-secret")

	assert.Equal(t, http.StatusBadRequest, f.login("").Code)
}

func TestSessionAndLogout(t *testing.T) {
	f := newFixture(Credentials{Password: "open-sesame"}, "signing-secret")
	cookie := f.login("open-sesame").Result().Cookies()[0]

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/session", nil)
	req.AddCookie(cookie)
	f.router.ServeHTTP(w, req)
	assert.Contains(t, w.Body.String(), `"authenticated":true`)

	w = httptest.NewRecorder()
	f.router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin/logout", nil))
	require.Len(t, w.Result().Cookies(), 1)
	assert.Equal(t, -1, w.Result().Cookies()[0].MaxAge)

	w = httptest.NewRecorder()
	f.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/session", nil))
	assert.Contains(t, w.Body.String(), `"authenticated":false`)
}
