package user

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrEmailTaken is returned when a create or email update collides with an
// existing account.
var ErrEmailTaken = errors.New("email is already in use")

// Repository persists users in sqlite.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const selectUser = `
	SELECT u.id, u.email, u.username, u.password_hash, u.status, u.created_at,
	       COALESCE(m.profile, '{}'), COALESCE(m.preferences, '{}'),
	       COALESCE((SELECT GROUP_CONCAT(r.slug) FROM user_roles ur
	                 JOIN roles r ON r.id = ur.role_id
	                 WHERE ur.user_id = u.id), '')
	FROM users u
	LEFT JOIN users_metadata m ON m.user_id = u.id`

// FindByEmail returns the user or nil when absent.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	return r.findOne(ctx, selectUser+` WHERE u.email = ?`, email)
}

// FindByID returns the user or nil when absent.
func (r *Repository) FindByID(ctx context.Context, id int64) (*User, error) {
	return r.findOne(ctx, selectUser+` WHERE u.id = ?`, id)
}

func (r *Repository) findOne(ctx context.Context, query string, arg any) (*User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("user: querying: %w", err)
	}
	return u, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*User, error) {
	var (
		u             User
		username      sql.NullString
		profileJSON   string
		prefsJSON     string
		roleList      string
	)
	if err := row.Scan(&u.ID, &u.Email, &username, &u.PasswordHash, &u.Status,
		&u.CreatedAt, &profileJSON, &prefsJSON, &roleList); err != nil {
		return nil, err
	}
	u.Username = username.String

	if err := json.Unmarshal([]byte(profileJSON), &u.Profile); err != nil {
		u.Profile = map[string]any{}
	}
	if err := json.Unmarshal([]byte(prefsJSON), &u.Preferences); err != nil {
		u.Preferences = map[string]any{}
	}
	if roleList != "" {
		u.Roles = strings.Split(roleList, ",")
	}
	return &u, nil
}

// Create inserts a new active account with empty metadata and returns its id.
func (r *Repository) Create(ctx context.Context, email, username, passwordHash string) (int64, error) {
	now := timestamp()

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO users (email, username, password_hash, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		email, nullable(username), passwordHash, StatusActive, now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrEmailTaken
		}
		return 0, fmt.Errorf("user: inserting: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("user: reading insert id: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO users_metadata (user_id, profile, preferences, data, updated_at)
		VALUES (?, '{}', '{}', '{}', ?)`, id, now); err != nil {
		return 0, fmt.Errorf("user: inserting metadata: %w", err)
	}
	return id, nil
}

// UpdateEmail changes the account's email.
func (r *Repository) UpdateEmail(ctx context.Context, userID int64, email string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET email = ?, updated_at = ? WHERE id = ?`,
		email, timestamp(), userID)
	if isUniqueViolation(err) {
		return ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("user: updating email: %w", err)
	}
	return nil
}

// UpdatePassword changes the stored password hash.
func (r *Repository) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		passwordHash, timestamp(), userID)
	if err != nil {
		return fmt.Errorf("user: updating password: %w", err)
	}
	return nil
}

// AdminUpdate is the admin screen's full update: account columns, metadata,
// and optionally a new password hash (nil keeps the current one).
func (r *Repository) AdminUpdate(ctx context.Context, userID int64, email, username string, status int, profile, preferences map[string]any, passwordHash *string) error {
	now := timestamp()

	query := `UPDATE users SET email = ?, username = ?, status = ?, updated_at = ?`
	args := []any{email, nullable(username), status, now}
	if passwordHash != nil {
		query += `, password_hash = ?`
		args = append(args, *passwordHash)
	}
	query += ` WHERE id = ?`
	args = append(args, userID)

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("user: admin update: %w", err)
	}

	profileJSON, err := json.Marshal(orEmpty(profile))
	if err != nil {
		return fmt.Errorf("user: encoding profile: %w", err)
	}
	prefsJSON, err := json.Marshal(orEmpty(preferences))
	if err != nil {
		return fmt.Errorf("user: encoding preferences: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO users_metadata (user_id, profile, preferences, data, updated_at)
		VALUES (?, ?, ?, '{}', ?)
		ON CONFLICT (user_id) DO UPDATE SET profile = excluded.profile,
			preferences = excluded.preferences, updated_at = excluded.updated_at`,
		userID, string(profileJSON), string(prefsJSON), now); err != nil {
		return fmt.Errorf("user: updating metadata: %w", err)
	}
	return nil
}

// ListFilter narrows List results.
type ListFilter struct {
	Email  string
	Status *int
}

// List returns users newest first, optionally filtered by email substring
// and status.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]*User, error) {
	query := selectUser
	var clauses []string
	var args []any
	if filter.Email != "" {
		clauses = append(clauses, "u.email LIKE ?")
		args = append(args, "%"+filter.Email+"%")
	}
	if filter.Status != nil {
		clauses = append(clauses, "u.status = ?")
		args = append(args, *filter.Status)
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY u.id DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("user: listing: %w", err)
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("user: scanning: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// EnsureRole creates the role if absent and returns its id.
func (r *Repository) EnsureRole(ctx context.Context, slug, name string) (int64, error) {
	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO roles (slug, name) VALUES (?, ?)
		ON CONFLICT (slug) DO NOTHING`, slug, name); err != nil {
		return 0, fmt.Errorf("user: ensuring role: %w", err)
	}
	var id int64
	if err := r.db.QueryRowContext(ctx,
		`SELECT id FROM roles WHERE slug = ?`, slug).Scan(&id); err != nil {
		return 0, fmt.Errorf("user: reading role id: %w", err)
	}
	return id, nil
}

// AssignRole grants the role to the user; granting twice is a no-op.
func (r *Repository) AssignRole(ctx context.Context, userID, roleID int64) error {
	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO user_roles (user_id, role_id) VALUES (?, ?)
		ON CONFLICT (user_id, role_id) DO NOTHING`, userID, roleID); err != nil {
		return fmt.Errorf("user: assigning role: %w", err)
	}
	return nil
}

// ReplaceRoles sets the user's roles to exactly the given slugs, creating
// any role that does not exist yet. Slugs double as display names for roles
// created this way.
func (r *Repository) ReplaceRoles(ctx context.Context, userID int64, slugs []string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM user_roles WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("user: clearing roles: %w", err)
	}
	for _, slug := range slugs {
		if slug == "" {
			continue
		}
		roleID, err := r.EnsureRole(ctx, slug, slug)
		if err != nil {
			return err
		}
		if err := r.AssignRole(ctx, userID, roleID); err != nil {
			return err
		}
	}
	return nil
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func orEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
