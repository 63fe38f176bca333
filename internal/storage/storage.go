// Package storage opens the relational store and keeps its schema current.
package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// ErrUnsupportedDriver is returned for drivers other than sqlite and postgres.
var ErrUnsupportedDriver = errors.New("storage: unsupported driver")

//go:embed migrations
var migrations embed.FS

// sqliteDriverName is the database/sql name of the sqlite driver whose
// connections carry the Unicode aware lower function.
const sqliteDriverName = "catalog_sqlite3"

func init() {
	sql.Register(sqliteDriverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("lower", unicodeLower, true)
		},
	})
}

// unicodeLower replaces sqlite's built-in lower, which only folds ASCII
// letters, so LOWER(name) matches the strings.ToLower form of a search term.
// NULL stays NULL and numbers are returned untouched.
func unicodeLower(v any) any {
	switch s := v.(type) {
	case string:
		return strings.ToLower(s)
	case []byte:
		if s == nil {
			return nil
		}
		return strings.ToLower(string(s))
	default:
		return v
	}
}

// Options configures the store connection.
type Options struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	// Migrate applies pending migrations on Open.
	Migrate bool
	Logger  zerolog.Logger
}

// Open connects to the configured store, optionally migrates it, and wraps
// the connection in a bun.DB with the matching dialect.
func Open(ctx context.Context, opts Options) (*bun.DB, error) {
	sqlDriver, err := sqlDriverName(opts.Driver)
	if err != nil {
		return nil, err
	}

	sqldb, err := sql.Open(sqlDriver, opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", opts.Driver, err)
	}

	if opts.MaxOpenConns > 0 {
		sqldb.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.ConnMaxLifetime > 0 {
		sqldb.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	if err := sqldb.PingContext(ctx); err != nil {
		sqldb.Close()
		return nil, fmt.Errorf("ping %s: %w", opts.Driver, err)
	}

	if opts.Migrate {
		if err := Migrate(ctx, sqldb, opts.Driver, opts.Logger); err != nil {
			sqldb.Close()
			return nil, err
		}
	}

	db, err := wrap(sqldb, opts.Driver)
	if err != nil {
		sqldb.Close()
		return nil, err
	}

	opts.Logger.Info().Str("driver", opts.Driver).Msg("store connected")
	return db, nil
}

// Migrate applies every pending migration for the driver.
func Migrate(ctx context.Context, sqldb *sql.DB, driver string, logger zerolog.Logger) error {
	dialect, dir, err := gooseDialect(driver)
	if err != nil {
		return err
	}

	fsys, err := fs.Sub(migrations, dir)
	if err != nil {
		return fmt.Errorf("migrations %s: %w", dir, err)
	}

	provider, err := goose.NewProvider(dialect, sqldb, fsys)
	if err != nil {
		return fmt.Errorf("goose provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("goose up: %w", err)
	}

	for _, res := range results {
		logger.Info().
			Str("migration", res.Source.Path).
			Dur("duration", res.Duration).
			Msg("migration applied")
	}
	return nil
}

func wrap(sqldb *sql.DB, driver string) (*bun.DB, error) {
	switch driver {
	case DriverSQLite:
		return bun.NewDB(sqldb, sqlitedialect.New()), nil
	case DriverPostgres:
		return bun.NewDB(sqldb, pgdialect.New()), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
}

func sqlDriverName(driver string) (string, error) {
	switch driver {
	case DriverSQLite:
		return sqliteDriverName, nil
	case DriverPostgres:
		return "postgres", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
}

func gooseDialect(driver string) (goose.Dialect, string, error) {
	switch driver {
	case DriverSQLite:
		return goose.DialectSQLite3, "migrations/sqlite", nil
	case DriverPostgres:
		return goose.DialectPostgres, "migrations/postgres", nil
	default:
		return "", "", fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
}
