package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/composehq/composeweb/internal/config"
	"github.com/composehq/composeweb/internal/seed"
	"github.com/composehq/composeweb/internal/server"
	"github.com/composehq/composeweb/internal/storage"
)

func main() {
	configPath := flag.String("config", os.Getenv("COMPOSEWEB_CONFIG"), "path to config YAML")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	db, err := storage.Open(ctx, cfg.Database.DSN)
	if err != nil {
		log.Fatalf("opening database: %v", err)
	}
	defer db.Close()

	if err := storage.Migrate(ctx, db); err != nil {
		log.Fatalf("running schema migration: %v", err)
	}
	log.Println("database migrated successfully")

	if err := seed.AdminAccount(ctx, db, cfg.Admin); err != nil {
		log.Fatalf("seeding admin account: %v", err)
	}

	if err := server.Run(ctx, server.Config{App: cfg, DB: db}); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
