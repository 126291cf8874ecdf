package auth

import (
	"errors"
	"fmt"

	"github.com/composehq/composeweb/internal/session"
)

// ErrInvalidCredentials is returned for any authentication failure a user
// could cause: unknown account, inactive account, wrong password. Handlers
// show it as a single generic message.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Authenticator verifies one type of credential.
type Authenticator interface {
	Supports(cred Credential) bool
	Authenticate(cred Credential) (*Identity, error)
}

// Storage persists the authenticated identity between requests.
type Storage interface {
	Load() *Identity
	Store(identity *Identity)
	Clear()
}

const identitySessionKey = "__AUTH_IDENTITY__"

// SessionStorage keeps the identity in the request's session.
type SessionStorage struct {
	session session.Store
}

func NewSessionStorage(store session.Store) *SessionStorage {
	return &SessionStorage{session: store}
}

func (s *SessionStorage) Load() *Identity {
	identity, _ := s.session.Get(identitySessionKey, nil).(*Identity)
	return identity
}

func (s *SessionStorage) Store(identity *Identity) {
	s.session.Set(identitySessionKey, identity)
}

func (s *SessionStorage) Clear() {
	s.session.Unset(identitySessionKey)
}

// Service resolves a credential to an authenticator, authenticates, and
// stores the identity. One Service is constructed per request around that
// request's session storage.
type Service struct {
	storage        Storage
	authenticators []Authenticator
	current        *Identity
}

// NewService loads any previously stored identity immediately.
func NewService(storage Storage, authenticators ...Authenticator) *Service {
	return &Service{
		storage:        storage,
		authenticators: authenticators,
		current:        storage.Load(),
	}
}

// Authenticate dispatches the credential to the first supporting
// authenticator and persists the resulting identity. An unsupported
// credential type is a configuration error, not a failed login.
func (s *Service) Authenticate(cred Credential) (*Identity, error) {
	var authenticator Authenticator
	for _, a := range s.authenticators {
		if a.Supports(cred) {
			authenticator = a
			break
		}
	}
	if authenticator == nil {
		return nil, fmt.Errorf("auth: no authenticator configured for credential type %q", cred.Type)
	}

	identity, err := authenticator.Authenticate(cred)
	if err != nil {
		return nil, err
	}

	s.current = identity
	s.storage.Store(identity)
	return identity, nil
}

// Logout clears the stored identity.
func (s *Service) Logout() {
	s.current = nil
	s.storage.Clear()
}

// HasIdentity reports whether a user is authenticated.
func (s *Service) HasIdentity() bool {
	return s.current != nil
}

// CurrentIdentity returns the authenticated identity, or nil.
func (s *Service) CurrentIdentity() *Identity {
	return s.current
}
