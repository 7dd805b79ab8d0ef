package domain

import "time"

// ExpirationRecord tracks a scheduled account expiration. Records are keyed
// by the remote account identifier, so at most one expiration can be pending
// per account. Processed is flipped exactly once by the reconciliation pass
// and is only ever reset by deleting and re-creating the record.
type ExpirationRecord struct {
	AccountID string
	Username  string
	ExpiresAt time.Time
	Processed bool
}

// Due reports whether the record should be acted on at the supplied instant.
// The boundary is inclusive: an expiry exactly at now counts as due.
func (r ExpirationRecord) Due(now time.Time) bool {
	if r.Processed {
		return false
	}
	return !now.Before(r.ExpiresAt)
}
