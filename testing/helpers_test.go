package testing

import (
	"context"
	"testing"

	"github.com/zoobzio/shroud"
)

func TestTestConfig(t *testing.T) {
	cfg := TestConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("TestConfig().Validate() error: %v", err)
	}
	if cfg.UsesPlaceholderKey() {
		t.Error("TestConfig should not use the placeholder key")
	}
}

func TestTestInterceptor(t *testing.T) {
	i := TestInterceptor(t)
	if !i.Enabled() {
		t.Error("TestInterceptor() should be enabled")
	}
}

func TestSealed(t *testing.T) {
	v := Sealed(t, "13800138000")
	if !shroud.IsMarked(v) {
		t.Fatalf("Sealed() = %q, want marked", v)
	}
	if v != Sealed(t, "13800138000") {
		t.Error("Sealed() should be deterministic")
	}
}

func TestCustomer_Fields(t *testing.T) {
	i := TestInterceptor(t)
	c := &Customer{
		Profile: Profile{Email: "alice@example.com"},
		ID:      "1",
		Name:    "Alice",
		Phone:   "13800138000",
		Notes:   "vip",
	}

	if _, err := i.BeforeWrite(context.Background(), c); err != nil {
		t.Fatalf("BeforeWrite() error: %v", err)
	}
	if c.Email != Sealed(t, "alice@example.com") {
		t.Errorf("Email = %q, want sealed", c.Email)
	}
	if c.Phone != Sealed(t, "13800138000") {
		t.Errorf("Phone = %q, want sealed", c.Phone)
	}
	if c.Notes != "vip" {
		t.Error("Notes should be untouched")
	}
}

func TestPlain_NotTransformed(t *testing.T) {
	i := TestInterceptor(t)
	p := &Plain{ID: "1", Phone: "13800138000"}

	if _, err := i.BeforeWrite(context.Background(), p); err != nil {
		t.Fatalf("BeforeWrite() error: %v", err)
	}
	if p.Phone != "13800138000" {
		t.Errorf("Phone = %q, want untouched", p.Phone)
	}
}

func TestOpenStore(t *testing.T) {
	db := OpenStore(t)
	if err := db.PingContext(context.Background()); err != nil {
		t.Errorf("Ping() error: %v", err)
	}
}
