package models

import "time"

// Administrator roles. Role checks compare exactly; there is no hierarchy.
const (
	RoleAdmin      = "admin"
	RoleSuperadmin = "superadmin"
)

// Admin represents an administrator account
type Admin struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"` // Never expose password hash in JSON
	Email        string    `json:"email,omitempty"`
	Role         string    `json:"role"`
	TwoFAEnabled bool      `json:"twoFAEnabled"`
	TwoFASecret  string    `json:"-"` // Never expose TOTP secret in JSON
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TwoFAPending reports whether a TOTP secret has been provisioned but not
// yet confirmed. Pending and disabled share twoFAEnabled=false in storage;
// only the presence of a secret tells them apart.
func (a *Admin) TwoFAPending() bool {
	return !a.TwoFAEnabled && a.TwoFASecret != ""
}
