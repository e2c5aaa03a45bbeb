// Package adminsession issues and verifies stateless admin session tokens.
//
// A token is base64url(JSON{"exp":<unix seconds>}) + "." + base64url(HMAC-SHA256(payload segment)),
// both segments without padding. Verification collapses every failure into a single false.
package adminsession

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/brightpath-tutoring/backend/internal/clock"
)

var (
	// ErrMissingSecret means the server has no signing secret configured.
	ErrMissingSecret = errors.New("admin session secret not configured")

	errMalformed = errors.New("malformed token")
	errNoExpiry  = errors.New("token payload has no expiry")
)

var encoding = base64.RawURLEncoding

type payload struct {
	Exp int64 `json:"exp"`
}

// Service creates and verifies admin session tokens.
type Service struct {
	secret []byte
	ttl    time.Duration
	clock  clock.Clock
}

// NewService creates a token service. An empty secret is accepted here and reported by Create.
func NewService(secret string, ttl time.Duration, clk clock.Clock) *Service {
	if clk == nil {
		clk = clock.Real{}
	}
	return &Service{secret: []byte(secret), ttl: ttl, clock: clk}
}

// TTL is the lifetime of issued tokens.
func (s *Service) TTL() time.Duration { return s.ttl }

// Configured reports whether a signing secret is present.
func (s *Service) Configured() bool { return len(s.secret) > 0 }

// Create issues a token expiring TTL from now.
func (s *Service) Create() (string, error) {
	if !s.Configured() {
		return "", ErrMissingSecret
	}
	raw, err := json.Marshal(payload{Exp: s.clock.Now().Add(s.ttl).Unix()})
	if err != nil {
		return "", err
	}
	seg := encoding.EncodeToString(raw)
	return seg + "." + s.sign(seg), nil
}

// Verify reports whether token carries a valid signature and an expiry in the future.
func (s *Service) Verify(token string) bool {
	if !s.Configured() {
		return false
	}
	seg, sig, ok := strings.Cut(token, ".")
	if !ok || seg == "" || sig == "" || strings.Contains(sig, ".") {
		return false
	}
	want := s.sign(seg)
	if len(sig) != len(want) || subtle.ConstantTimeCompare([]byte(sig), []byte(want)) != 1 {
		return false
	}
	p, err := decodePayload(seg)
	if err != nil {
		return false
	}
	return p.Exp > s.clock.Now().Unix()
}

func (s *Service) sign(seg string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(seg))
	return encoding.EncodeToString(mac.Sum(nil))
}

func decodePayload(seg string) (payload, error) {
	raw, err := encoding.DecodeString(seg)
	if err != nil {
		return payload{}, errMalformed
	}
	var p payload
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return payload{}, errMalformed
	}
	if p.Exp <= 0 {
		return payload{}, errNoExpiry
	}
	return p, nil
}

// ResolveSecret picks the signing secret. Production requires the dedicated session secret;
// elsewhere the admin password is accepted as a fallback.
func ResolveSecret(sessionSecret, adminPassword string, production bool) (string, error) {
	if sessionSecret != "" {
		return sessionSecret, nil
	}
	if production || adminPassword == "" {
		return "", ErrMissingSecret
	}
	return adminPassword, nil
}
