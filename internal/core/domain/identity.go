package domain

import "time"

// Identity is the authenticated principal attached to a request once its
// session token has been verified and cleared against the revocation
// registry. A nil *Identity means the request is anonymous.
type Identity struct {
	Subject   string
	ExpiresAt time.Time
}

// AdminUser is an operator account able to sign in to the admin panel.
type AdminUser struct {
	Username     string
	PasswordHash string
}
