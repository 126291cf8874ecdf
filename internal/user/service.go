package user

import (
	"context"

	"github.com/composehq/composeweb/internal/auth"
)

// Service wraps the repository with password hashing. It also implements
// auth.AccountSource so the password authenticator can resolve accounts.
type Service struct {
	users  *Repository
	hasher auth.PasswordHasher
}

func NewService(users *Repository, hasher auth.PasswordHasher) *Service {
	return &Service{users: users, hasher: hasher}
}

func (s *Service) GetByEmail(ctx context.Context, email string) (*User, error) {
	return s.users.FindByEmail(ctx, email)
}

func (s *Service) GetByID(ctx context.Context, id int64) (*User, error) {
	return s.users.FindByID(ctx, id)
}

// Register hashes the password and creates the account. Returns ErrEmailTaken
// when the email is already registered.
func (s *Service) Register(ctx context.Context, email, username, plainPassword string) (int64, error) {
	hash, err := s.hasher.Hash(plainPassword)
	if err != nil {
		return 0, err
	}
	return s.users.Create(ctx, email, username, hash)
}

func (s *Service) UpdateEmail(ctx context.Context, userID int64, email string) error {
	return s.users.UpdateEmail(ctx, userID, email)
}

func (s *Service) UpdatePassword(ctx context.Context, userID int64, plainPassword string) error {
	hash, err := s.hasher.Hash(plainPassword)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, userID, hash)
}

// List returns users matching the filter for the admin screens.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*User, error) {
	return s.users.List(ctx, filter)
}

// AdminUpdate applies an administrative edit. A nil newHash keeps the
// current password.
func (s *Service) AdminUpdate(ctx context.Context, userID int64, email, username string, status int, profile, preferences map[string]any, newHash *string) error {
	return s.users.AdminUpdate(ctx, userID, email, username, status, profile, preferences, newHash)
}

// ReplaceRoles sets the user's roles to exactly the given slugs.
func (s *Service) ReplaceRoles(ctx context.Context, userID int64, slugs []string) error {
	return s.users.ReplaceRoles(ctx, userID, slugs)
}

// VerifyPassword checks a plaintext password against the stored hash.
func (s *Service) VerifyPassword(plain, hash string) bool {
	return s.hasher.Verify(plain, hash)
}

// AccountByEmail implements auth.AccountSource.
func (s *Service) AccountByEmail(email string) (*auth.Account, error) {
	u, err := s.users.FindByEmail(context.Background(), email)
	if err != nil || u == nil {
		return nil, err
	}
	return &auth.Account{
		ID:           u.ID,
		Email:        u.Email,
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		Active:       u.IsActive(),
		Roles:        u.Roles,
		Profile:      u.Profile,
		Preferences:  u.Preferences,
	}, nil
}
