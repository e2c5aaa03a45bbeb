// Package admin serves the admin login, logout and session endpoints.
package admin

import (
	"errors"

	"github.com/brightpath-tutoring/backend/pkg/utils"
)

// ErrPasswordNotConfigured means neither a password nor a password hash is configured.
var ErrPasswordNotConfigured = errors.New("admin password not configured")

// Credentials holds the configured admin password. A bcrypt hash takes precedence.
type Credentials struct {
	Password     string
	PasswordHash string
}

// Configured reports whether any password is set.
func (c Credentials) Configured() bool {
	return c.Password != "" || c.PasswordHash != ""
}

// Check compares a submitted password with the configured one.
func (c Credentials) Check(plain string) (bool, error) {
	switch {
	case c.PasswordHash != "":
		return utils.CheckPassword(plain, c.PasswordHash), nil
	case c.Password != "":
		return utils.EqualConstantTime(plain, c.Password), nil
	default:
		return false, ErrPasswordNotConfigured
	}
}
