// Package store is the pipeline's shared relational persistence layer
// (§4.10, §6): a pooled Postgres connection wrapped with query-timing
// hooks, schema migrations, and the read/write operations both services
// need. Grounded on the teacher's internal/repository/dbConnection.go
// connection-singleton idiom, adapted from sqlite3/mysql to Postgres.
package store

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/qustavo/sqlhooks/v2"

	"github.com/seisgo/pipeline/pkg/log"
)

var (
	connOnce sync.Once
	instance *DB
)

// DB wraps the shared *sqlx.DB handle used by both the detector and the
// locator.
type DB struct {
	Handle *sqlx.DB
}

// Config holds the Postgres connection parameters accepted on the CLI
// (pg-host/port/user/password/db) by both services.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

func (c Config) dsn() string {
	sslmode := c.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, sslmode)
}

// dsnURL renders the connection as a postgres:// URL, the form
// golang-migrate's source-instance API expects.
func (c Config) dsnURL() string {
	sslmode := c.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, sslmode)
}

// Connect opens (once per process) a hooked Postgres connection pool and
// runs pending migrations. Fatal on connection failure, matching the
// teacher's fail-fast init-time behavior.
func Connect(cfg Config) *DB {
	connOnce.Do(func() {
		sql.Register("postgresWithHooks", sqlhooks.Wrap(&pq.Driver{}, &Hooks{}))

		handle, err := sqlx.Open("postgresWithHooks", cfg.dsn())
		if err != nil {
			log.Fatalf("store: open failed: %v", err)
		}

		handle.SetConnMaxLifetime(time.Minute * 3)
		handle.SetMaxOpenConns(10)
		handle.SetMaxIdleConns(10)

		if err := handle.Ping(); err != nil {
			log.Fatalf("store: ping failed: %v", err)
		}

		instance = &DB{Handle: handle}
		Migrate(cfg)
	})
	return instance
}

// GetConnection returns the process-wide DB handle. Exits the process
// via log.Fatalf if Connect hasn't run yet — a programming error, never
// a runtime condition.
func GetConnection() *DB {
	if instance == nil {
		log.Fatalf("store: connection not initialized")
	}
	return instance
}
