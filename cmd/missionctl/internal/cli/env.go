package cli

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/joho/godotenv"

	"github.com/ad2m/missions/internal/config"
	"github.com/ad2m/missions/internal/database"
)

// open loads the environment and connects to the database. The caller closes the returned pool.
func open() (*config.Config, *sql.DB, error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return cfg, db, nil
}

func newContext() context.Context {
	return context.Background()
}
