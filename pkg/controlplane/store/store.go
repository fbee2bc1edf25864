// Package store opens the control plane's SQL database and prepares its
// schema. It supports two backends, grounded on the teacher's dual-backend
// GORM store: SQLite for a single-node deployment, Postgres for HA.
//
// Schema management differs by backend. Postgres is migrated with
// golang-migrate's embedded SQL source, matching how a production
// deployment would run repeatable, reviewable migrations. SQLite falls
// back to GORM's AutoMigrate: golang-migrate's SQLite driver depends on
// the cgo-based mattn/go-sqlite3, which this module does not carry
// (glebarez/sqlite is the pure-Go driver already in use) — see DESIGN.md.
package store

import (
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/erismart/tectonic/pkg/controlplane/models"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DatabaseType selects the control plane's SQL backend.
type DatabaseType string

const (
	DatabaseTypeSQLite   DatabaseType = "sqlite"
	DatabaseTypePostgres DatabaseType = "postgres"
)

// Config describes how to connect to the control-plane database. For
// SQLite, DSN is a file path. For Postgres, Host/Port/User/Password/Name
// are used to build both the GORM connection and the migrator's DSN.
type Config struct {
	Type     DatabaseType
	DSN      string
	Host     string
	Port     int
	User     string
	Password string
	Name     string
}

func (c Config) postgresDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.Host, c.Port, c.User, c.Password, c.Name)
}

// Store wraps the opened GORM database.
type Store struct {
	DB *gorm.DB
}

// Open connects to the database described by cfg and ensures its schema
// is current.
func Open(cfg Config) (*Store, error) {
	switch cfg.Type {
	case DatabaseTypePostgres:
		return openPostgres(cfg)
	case DatabaseTypeSQLite, "":
		return openSQLite(cfg)
	default:
		return nil, fmt.Errorf("controlplane/store: unsupported database type %q", cfg.Type)
	}
}

func openSQLite(cfg Config) (*Store, error) {
	path := cfg.DSN
	if path == "" {
		path = "./tectonic.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("controlplane/store: create dir for %s: %w", path, err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("controlplane/store: open sqlite %s: %w", path, err)
	}
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		return nil, fmt.Errorf("controlplane/store: automigrate: %w", err)
	}
	return &Store{DB: db}, nil
}

func openPostgres(cfg Config) (*Store, error) {
	dsn := cfg.postgresDSN()

	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("controlplane/store: open postgres: %w", err)
	}

	if err := migrateUp(dsn); err != nil {
		return nil, err
	}
	return &Store{DB: db}, nil
}

func migrateUp(dsn string) error {
	sqlDB, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("controlplane/store: open migrator connection: %w", err)
	}
	defer sqlDB.Close()

	dbDriver, err := postgres.WithInstance(sqlDB, &postgres.Config{
		MigrationsTable: "schema_migrations",
		DatabaseName:    "tectonic",
	})
	if err != nil {
		return fmt.Errorf("controlplane/store: init migrate driver: %w", err)
	}

	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("controlplane/store: load migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		return fmt.Errorf("controlplane/store: init migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("controlplane/store: migrate up: %w", err)
	}
	return nil
}
