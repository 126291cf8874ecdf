package auth

// AccountSource looks up accounts for password authentication. Implemented
// by the user service; kept narrow so this package stays repository-free.
type AccountSource interface {
	AccountByEmail(email string) (*Account, error)
}

// Account is the slice of a stored user the password authenticator needs.
type Account struct {
	ID           int64
	Email        string
	Username     string
	PasswordHash string
	Active       bool
	Roles        []string
	Profile      map[string]any
	Preferences  map[string]any
}

// PasswordAuthenticator authenticates email/password credentials against an
// account source.
type PasswordAuthenticator struct {
	accounts AccountSource
	hasher   PasswordHasher
}

func NewPasswordAuthenticator(accounts AccountSource, hasher PasswordHasher) *PasswordAuthenticator {
	return &PasswordAuthenticator{accounts: accounts, hasher: hasher}
}

func (a *PasswordAuthenticator) Supports(cred Credential) bool {
	return cred.Type == CredentialTypePassword
}

// Authenticate returns ErrInvalidCredentials for every user-caused failure
// so callers cannot distinguish unknown accounts from wrong passwords.
func (a *PasswordAuthenticator) Authenticate(cred Credential) (*Identity, error) {
	if cred.Secret == "" {
		return nil, ErrInvalidCredentials
	}

	account, err := a.accounts.AccountByEmail(cred.Identifier)
	if err != nil {
		return nil, err
	}
	if account == nil || !account.Active {
		return nil, ErrInvalidCredentials
	}
	if !a.hasher.Verify(cred.Secret, account.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return &Identity{
		ID:          account.ID,
		Email:       account.Email,
		Username:    account.Username,
		Roles:       account.Roles,
		Profile:     account.Profile,
		Preferences: account.Preferences,
	}, nil
}
