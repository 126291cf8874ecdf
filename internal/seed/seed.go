// Package seed provides idempotent bootstrap data for the database.
package seed

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/composehq/composeweb/internal/auth"
	"github.com/composehq/composeweb/internal/config"
	"github.com/composehq/composeweb/internal/user"
)

// AdminAccount creates the configured admin user with the admin role. If the
// account already exists (idempotent check), it skips seeding. An empty seed
// email disables seeding entirely.
func AdminAccount(ctx context.Context, db *sql.DB, cfg config.AdminConfig) error {
	if cfg.SeedEmail == "" {
		return nil
	}
	if cfg.SeedPassword == "" {
		return fmt.Errorf("seed: admin seed email set but password empty")
	}

	repo := user.NewRepository(db)
	existing, err := repo.FindByEmail(ctx, cfg.SeedEmail)
	if err != nil {
		return fmt.Errorf("seed: checking admin account: %w", err)
	}
	if existing != nil {
		log.Printf("admin account %s already present, skipping seed", cfg.SeedEmail)
		return nil
	}

	svc := user.NewService(repo, auth.NewBcryptHasher(0))
	id, err := svc.Register(ctx, cfg.SeedEmail, "admin", cfg.SeedPassword)
	if err != nil {
		return fmt.Errorf("seed: creating admin account: %w", err)
	}
	if err := repo.ReplaceRoles(ctx, id, []string{"admin"}); err != nil {
		return fmt.Errorf("seed: assigning admin role: %w", err)
	}

	log.Printf("seeded admin account %s", cfg.SeedEmail)
	return nil
}
