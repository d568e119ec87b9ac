package store

import (
	"context"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zoobzio/shroud/internal/logger"
)

func TestNormalizeDriver(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"sqlite3", DriverSQLite, false},
		{"SQLite", DriverSQLite, false},
		{"pgx", DriverPostgres, false},
		{"postgres", DriverPostgres, false},
		{"mysql", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := normalizeDriver(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnsupportedDriver)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewDB_PlaceholderFormat(t *testing.T) {
	conn, _, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	sqlite := NewDB(conn, DriverSQLite, logger.Nop())
	query, _, err := sqlite.builder.Select("id").From("contacts").Where("id = ?", 1).ToSql()
	require.NoError(t, err)
	assert.Contains(t, query, "?")

	pg := NewDB(conn, DriverPostgres, logger.Nop())
	query, _, err = pg.builder.Select("id").From("contacts").Where("id = ?", 1).ToSql()
	require.NoError(t, err)
	assert.Contains(t, query, "$1")
	assert.Equal(t, DriverPostgres, pg.Driver())
}

func TestOpen_SQLiteMemory(t *testing.T) {
	db, err := Open(context.Background(), Config{Driver: "sqlite3", DSN: ":memory:"}, logger.Nop())
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Migrate())
	assert.Equal(t, DriverSQLite, db.Driver())
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "mysql"}, logger.Nop())
	require.ErrorIs(t, err, ErrUnsupportedDriver)
	assert.True(t, strings.Contains(err.Error(), "mysql"))
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("STORE_DRIVER", "pgx")
	t.Setenv("STORE_DSN", "postgres://localhost/contacts")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "pgx", cfg.Driver)
	assert.Equal(t, "postgres://localhost/contacts", cfg.DSN)
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "sqlite3", cfg.Driver)
	assert.Equal(t, "shroud.db", cfg.DSN)
}
