package models

import "time"

// AuditLog represents an audit log entry
type AuditLog struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	Username  string    `json:"username,omitempty"`
	ClientIP  string    `json:"client_ip"`
	UserAgent string    `json:"user_agent,omitempty"`
	Success   bool      `json:"success"`
	ErrorMsg  string    `json:"error_msg,omitempty"`
	Details   string    `json:"details,omitempty"` // JSON
}

// Audit action constants
const (
	ActionAdminCreate  = "admin_create"
	ActionAdminLogin   = "admin_login"
	ActionInviteCreate = "invite_create"
	ActionInviteRedeem = "invite_redeem"
	ActionTwoFASetup   = "twofa_setup"
	ActionTwoFAEnable  = "twofa_enable"
	ActionTwoFADisable = "twofa_disable"
	ActionAuthFailed   = "auth_failed"
)
