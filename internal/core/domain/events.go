package domain

import "time"

// AccountDisabledEvent is published after a remote account's disabled flag
// changed, either from an operator action or the reconciliation pass.
type AccountDisabledEvent struct {
	AccountID  string    `json:"account_id"`
	Username   string    `json:"username,omitempty"`
	Disabled   bool      `json:"disabled"`
	Source     string    `json:"source"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ExpirationScheduledEvent is published when an operator schedules or
// clears an account expiration.
type ExpirationScheduledEvent struct {
	AccountID  string    `json:"account_id"`
	Username   string    `json:"username,omitempty"`
	ExpiresAt  time.Time `json:"expires_at,omitempty"`
	Cleared    bool      `json:"cleared,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// SessionRevokedEvent is published when a session token is pushed into the
// revocation registry.
type SessionRevokedEvent struct {
	Subject    string    `json:"subject"`
	Reason     string    `json:"reason"`
	OccurredAt time.Time `json:"occurred_at"`
}
