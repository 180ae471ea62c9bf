package postgres

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/medboard/bedside-api/internal/config"
)

// connMaxLifetime keeps connections younger than the ward network's
// idle-reset window.
const connMaxLifetime = 30 * time.Minute

// NewDB opens the bedside Postgres pool. Sessions read their inputs
// once at open and write only on save, so the pool stays small; the
// connect itself verifies reachability.
func NewDB(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode,
	)

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	return db, nil
}
