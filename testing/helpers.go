// Package testing provides fixtures for code built on shroud.
package testing

import (
	"context"
	"testing"

	"github.com/zoobzio/shroud"
	"github.com/zoobzio/shroud/internal/logger"
	"github.com/zoobzio/shroud/store"
)

// TestPassphrase is the passphrase used by TestConfig.
const TestPassphrase = "test-key-123456"

// TestConfig returns an enabled AES configuration.
func TestConfig() shroud.Config {
	return shroud.Config{
		Enabled:         true,
		KeyAlgorithm:    shroud.DefaultKeyAlgorithm,
		CipherAlgorithm: shroud.DefaultCipherAlgorithm,
		Key:             TestPassphrase,
	}
}

// TestInterceptor returns an interceptor built from TestConfig.
func TestInterceptor(tb testing.TB) *shroud.Interceptor {
	tb.Helper()
	i, err := shroud.New(TestConfig())
	if err != nil {
		tb.Fatalf("shroud.New: %v", err)
	}
	return i
}

// Sealed returns the stored form of plaintext under TestConfig.
func Sealed(tb testing.TB, plaintext string) string {
	tb.Helper()
	key, err := shroud.DeriveKey(TestPassphrase, shroud.DefaultKeyAlgorithm)
	if err != nil {
		tb.Fatalf("DeriveKey: %v", err)
	}
	ciphertext, err := shroud.Encrypt(plaintext, key, shroud.DefaultCipherAlgorithm)
	if err != nil {
		tb.Fatalf("Encrypt: %v", err)
	}
	return shroud.AddMarker(ciphertext)
}

// OpenStore returns a migrated in-memory SQLite database closed at test cleanup.
func OpenStore(tb testing.TB) *store.DB {
	tb.Helper()
	db, err := store.Open(context.Background(), store.Config{Driver: store.DriverSQLite, DSN: ":memory:"}, logger.Nop())
	if err != nil {
		tb.Fatalf("store.Open: %v", err)
	}
	tb.Cleanup(func() { db.Close() })

	if err := db.Migrate(); err != nil {
		tb.Fatalf("Migrate: %v", err)
	}
	return db
}

// Profile is an embeddable participant with one sensitive field.
type Profile struct {
	shroud.Declaration
	Email string `shroud:"sensitive"`
}

// Customer inherits its declaration from Profile and adds a second
// sensitive field.
type Customer struct {
	Profile
	ID    string
	Name  string
	Phone string `shroud:"sensitive"`
	Notes string
}

// Plain carries a tagged field but no declaration, so it is never transformed.
type Plain struct {
	ID    string
	Phone string `shroud:"sensitive"`
}
