package database

import (
	"database/sql"
	"fmt"

	"truthgate-api/config"
	"truthgate-api/migrations"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

func openMigrationDB(cfg *config.Config) (*sql.DB, error) {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return nil, err
	}
	db, err := sql.Open("postgres", cfg.DatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("open migration connection: %w", err)
	}
	return db, nil
}

// MigrateUp applies every pending migration embedded in the binary.
func MigrateUp(cfg *config.Config) error {
	db, err := openMigrationDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	return goose.Up(db, ".")
}

// MigrateDown rolls back the most recent migration.
func MigrateDown(cfg *config.Config) error {
	db, err := openMigrationDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	return goose.Down(db, ".")
}

func MigrationStatus(cfg *config.Config) error {
	db, err := openMigrationDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	return goose.Status(db, ".")
}
