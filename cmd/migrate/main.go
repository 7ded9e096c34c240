package main

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/nvoss/toolgate/internal/config"
	"github.com/nvoss/toolgate/internal/repository/postgres"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	if cfg.Database.Driver != "postgres" {
		fmt.Println("Migrations only apply to the postgres driver; sqlite bootstraps its own schema")
		return
	}

	fmt.Printf("Applying migrations to %s:%d...\n", cfg.Database.Host, cfg.Database.Port)

	if err := postgres.RunMigrations(cfg.Database.DSN(), "file://migrations"); err != nil {
		panic(fmt.Sprintf("Migration failed: %v", err))
	}
}
