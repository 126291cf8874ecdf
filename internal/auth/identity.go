// Package auth dispatches credentials to pluggable authenticators and keeps
// the resulting identity in session storage.
package auth

// Identity is the immutable representation of an authenticated user.
type Identity struct {
	ID          int64
	Email       string
	Username    string
	Roles       []string
	Profile     map[string]any
	Preferences map[string]any
}

// HasRole reports whether the identity carries the given role.
func (i *Identity) HasRole(role string) bool {
	for _, r := range i.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// CredentialTypePassword marks email/password credentials.
const CredentialTypePassword = "password"

// Credential is a generic authentication input. For password logins the
// identifier is the email and the secret is the password; provider-specific
// flows put their material in Extra.
type Credential struct {
	Type       string
	Identifier string
	Secret     string
	Extra      map[string]any
}
