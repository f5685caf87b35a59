package models

import "time"

// InviteToken represents a single-use admin creation invite code
type InviteToken struct {
	ID         int64      `json:"id"`
	Code       string     `json:"code"`
	CreatedBy  int64      `json:"created_by"`
	Used       bool       `json:"used"`
	RedeemedBy string     `json:"redeemed_by,omitempty"`
	ExpiresAt  time.Time  `json:"expires_at"`
	RedeemedAt *time.Time `json:"redeemed_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Usable reports whether the invite can still be redeemed at the given time.
func (t *InviteToken) Usable(now time.Time) bool {
	return !t.Used && now.Before(t.ExpiresAt)
}
