package domain

// AccountPolicy is the nested policy object carried by a Jellyfin user.
// Jellyfin validates the provider identifiers on policy updates, so both
// fields must be posted back alongside the disabled flag.
type AccountPolicy struct {
	IsDisabled              bool   `json:"IsDisabled"`
	AuthenticationProvider  string `json:"AuthenticationProviderId"`
	PasswordResetProvider   string `json:"PasswordResetProviderId"`
}

// DefaultAccountPolicy returns a policy populated with the provider
// identifiers Jellyfin expects when none were supplied by the server.
func DefaultAccountPolicy() AccountPolicy {
	return AccountPolicy{
		AuthenticationProvider: "com.jellyfin.authentication.providers.DefaultAuthenticationProvider",
		PasswordResetProvider:  "com.jellyfin.passwordreset.providers.DefaultPasswordResetProvider",
	}
}

// RemoteAccount is a Jellyfin user account as returned by the remote API
// and mirrored into the local database.
type RemoteAccount struct {
	ID     string        `json:"Id"`
	Name   string        `json:"Name"`
	Policy AccountPolicy `json:"Policy"`
}
