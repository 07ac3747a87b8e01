package bootstrap

import (
	"fmt"
	"log"

	"github.com/go-authcore/authcore/internal/config"
	"github.com/go-authcore/authcore/internal/store"
)

// initializeDatabase opens the database and runs migrations
func initializeDatabase(cfg *config.Config) (*store.Store, error) {
	db, err := store.New(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database (%s): %w", cfg.DatabaseDriver, err)
	}
	log.Printf("[Bootstrap] database ready (driver=%s)", cfg.DatabaseDriver)
	return db, nil
}
