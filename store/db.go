package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"github.com/zoobzio/shroud/internal/logger"
	"github.com/zoobzio/shroud/store/migrations"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "pgx"
)

// DB is a database handle with a statement builder for its placeholder style.
type DB struct {
	*sql.DB
	driver  string
	builder sq.StatementBuilderType
	logger  *logger.Logger
}

// NewDB wraps an open connection. driver picks the placeholder format:
// "?" for sqlite3, "$n" for pgx.
func NewDB(conn *sql.DB, driver string, log *logger.Logger) *DB {
	var format sq.PlaceholderFormat = sq.Question
	if driver == DriverPostgres {
		format = sq.Dollar
	}
	return &DB{
		DB:      conn,
		driver:  driver,
		builder: sq.StatementBuilder.PlaceholderFormat(format),
		logger:  log,
	}
}

// Open connects to the database described by cfg and pings it.
func Open(ctx context.Context, cfg Config, log *logger.Logger) (*DB, error) {
	driver, err := normalizeDriver(cfg.Driver)
	if err != nil {
		log.Err(err).Str("driver", cfg.Driver).Msg("error opening database")
		return nil, err
	}

	conn, err := sql.Open(driver, cfg.DSN)
	if err != nil {
		log.Err(err).Msg("error occured during database connection")
		return nil, fmt.Errorf("error opening connection to DB: %w", err)
	}

	if driver == DriverSQLite {
		// :memory: databases exist per connection
		conn.SetMaxOpenConns(1)
	} else {
		conn.SetMaxOpenConns(10)
		conn.SetMaxIdleConns(4)
	}

	if err := conn.PingContext(ctx); err != nil {
		log.Err(err).Msg("error connecting database (ping)")
		conn.Close()
		return nil, err
	}
	log.Debug().Str("driver", driver).Msg("connected to database successfully")

	return NewDB(conn, driver, log), nil
}

// Driver returns the database/sql driver name.
func (db *DB) Driver() string {
	return db.driver
}

// Migrate applies the embedded schema migrations.
func (db *DB) Migrate() error {
	if err := migrations.Migrate(db.DB, db.driver); err != nil {
		db.logger.Err(err).Msg("error migrating database")
		return err
	}
	return nil
}

func normalizeDriver(name string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sqlite3", "sqlite":
		return DriverSQLite, nil
	case "pgx", "postgres", "postgresql":
		return DriverPostgres, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedDriver, name)
	}
}
