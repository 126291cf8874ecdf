// Package config loads the application configuration from YAML with
// environment overrides for deployment-specific settings.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/composehq/composeweb/internal/contact"
	"github.com/composehq/composeweb/internal/form"
)

// Config is the root application configuration.
type Config struct {
	Addr     string         `yaml:"addr"`
	Database DatabaseConfig `yaml:"database"`
	Session  SessionConfig  `yaml:"session"`
	Auth     AuthConfig     `yaml:"auth"`
	ACL      ACLConfig      `yaml:"acl"`
	Contact  ContactConfig  `yaml:"contact"`
	Admin    AdminConfig    `yaml:"admin"`
}

type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

type SessionConfig struct {
	CookieName string        `yaml:"cookie_name"`
	TTL        time.Duration `yaml:"ttl"`
}

// AuthConfig controls the login redirect guard. Paths listed in Guarded
// require an authenticated session.
type AuthConfig struct {
	LoginPath string   `yaml:"login_path"`
	Guarded   []string `yaml:"guarded"`
}

// ACLConfig maps path prefixes to required roles. Longest prefix wins.
type ACLConfig struct {
	SuperRoles  []string            `yaml:"super_roles"`
	DenyMessage string              `yaml:"deny_message"`
	Rules       map[string][]string `yaml:"rules"`
}

type ContactConfig struct {
	Messages ContactMessages              `yaml:"messages"`
	Email    contact.EmailSettings        `yaml:"email"`
	Forms    map[string]ContactFormConfig `yaml:"forms"`
}

type ContactMessages struct {
	Success string `yaml:"success"`
	Error   string `yaml:"error"`
}

type ContactFormConfig struct {
	Title  string           `yaml:"title"`
	Fields form.Definitions `yaml:"fields"`
}

// AdminConfig seeds an initial admin account when the database is empty.
type AdminConfig struct {
	SeedEmail    string `yaml:"seed_email"`
	SeedPassword string `yaml:"seed_password"`
}

// Default returns a configuration that can run without a config file.
func Default() Config {
	return Config{
		Addr:     ":8080",
		Database: DatabaseConfig{DSN: "composeweb.db"},
		Session:  SessionConfig{CookieName: "composeweb_session", TTL: 24 * time.Hour},
		Auth: AuthConfig{
			LoginPath: "/login",
			Guarded:   []string{"/account", "/admin"},
		},
		ACL: ACLConfig{
			SuperRoles:  []string{"admin"},
			DenyMessage: "Forbidden",
			Rules: map[string][]string{
				"/admin": {"admin"},
			},
		},
		Contact: ContactConfig{
			Messages: ContactMessages{
				Success: "Thanks! We received your message.",
				Error:   "Please fix the highlighted fields.",
			},
			Email: contact.EmailSettings{
				To:      "admin@example.com",
				From:    "no-reply@example.com",
				Subject: "Website Contact",
				SubjectMap: map[string]string{
					"sales":     "sales@example.com",
					"technical": "support@example.com",
				},
			},
			Forms: map[string]ContactFormConfig{
				"default": {Title: "Contact", Fields: defaultContactFields()},
			},
		},
	}
}

func defaultContactFields() form.Definitions {
	return form.Definitions{
		{Name: "name", Label: "Full name", Required: true,
			Filters:    form.Rules{{Name: "trim"}},
			Validators: form.Rules{{Name: "string_length", Args: []any{2, 100}}}},
		{Name: "email", Label: "Email", Type: "email", Required: true,
			Filters:    form.Rules{{Name: "trim"}},
			Validators: form.Rules{{Name: "email"}}},
		{Name: "subject", Label: "Subject", Type: "select", Required: true,
			Options: []form.Option{
				{Value: "", Label: "Select a topic"},
				{Value: "sales", Label: "Sales"},
				{Value: "technical", Label: "Technical"},
			}},
		{Name: "phone", Label: "Phone", Type: "tel"},
		{Name: "message", Label: "Message", Type: "textarea", Required: true,
			Attributes: map[string]string{"rows": "5"},
			Validators: form.Rules{{Name: "string_length", Args: []any{10, 2000}}}},
	}
}

// Load reads the YAML file at path on top of the defaults, then applies
// environment overrides. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("config: reading %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

// applyEnv lets deployments override the file without editing it.
func applyEnv(cfg *Config) {
	if v := os.Getenv("COMPOSEWEB_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("COMPOSEWEB_DB_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("COMPOSEWEB_ADMIN_EMAIL"); v != "" {
		cfg.Admin.SeedEmail = v
	}
	if v := os.Getenv("COMPOSEWEB_ADMIN_PASSWORD"); v != "" {
		cfg.Admin.SeedPassword = v
	}
}
