package store

import (
	"embed"
	"errors"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/seisgo/pipeline/pkg/log"
)

//go:embed migrations/postgres/*.sql
var migrationFiles embed.FS

// Migrate applies every pending schema migration. Fatal on failure —
// a service with an out-of-date schema must not start.
func Migrate(cfg Config) {
	d, err := iofs.New(migrationFiles, "migrations/postgres")
	if err != nil {
		log.Fatalf("store: loading migrations failed: %v", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", d, cfg.dsnURL())
	if err != nil {
		log.Fatalf("store: migrate init failed: %v", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Fatalf("store: migration failed: %v", err)
	}
}
