package service

import (
	"errors"
	"strings"
)

// Sentinel errors returned by AdminService operations. Handlers map these
// to HTTP status codes; anything not in this list is an internal error.
var (
	ErrInvalidCredentials      = errors.New("invalid credentials")
	ErrTwoFactorRequired       = errors.New("2FA token required")
	ErrInvalidTwoFactorCode    = errors.New("invalid 2FA token")
	ErrTwoFactorAlreadyEnabled = errors.New("2FA already enabled")
	ErrTwoFactorNotConfigured  = errors.New("2FA setup required")
	ErrUnauthorized            = errors.New("unauthorized")
	ErrForbidden               = errors.New("forbidden: insufficient role")
	ErrNotFound                = errors.New("admin not found")
	ErrConflict                = errors.New("admin already exists")
	ErrInviteInvalid           = errors.New("invalid or expired invite code")
)

// ValidationError carries per-field validation messages
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Errors, "; ")
}
