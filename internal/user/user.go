// Package user stores and serves application accounts.
package user

// Account statuses.
const (
	StatusDisabled = 0
	StatusActive   = 1
)

// User is the stored account with its metadata and roles.
type User struct {
	ID           int64
	Email        string
	Username     string
	PasswordHash string
	Status       int
	Roles        []string
	Profile      map[string]any
	Preferences  map[string]any
	CreatedAt    string
}

// IsActive reports whether the account may log in.
func (u *User) IsActive() bool {
	return u.Status == StatusActive
}
