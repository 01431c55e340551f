package database

import (
	"database/sql"
	"fmt"

	"tbc-seguimiento/internal/config"

	_ "github.com/lib/pq"
)

// NewPostgresDB abre la conexión a PostgreSQL y verifica que responda.
func NewPostgresDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.MaxConns > 0 {
		db.SetMaxOpenConns(cfg.MaxConns)
	}
	if cfg.MaxIdle > 0 {
		db.SetMaxIdleConns(cfg.MaxIdle)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// Close cierra la conexión si existe.
func Close(db *sql.DB) error {
	if db != nil {
		return db.Close()
	}
	return nil
}
