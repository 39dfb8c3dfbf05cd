package database_test

import (
	"io"
	"log/slog"
	"testing"

	"github.com/JaimeStill/warden/pkg/database"
)

func testConfig() database.Config {
	return database.Config{
		Host:            "localhost",
		Port:            5432,
		Name:            "warden",
		Schema:          "public",
		User:            "warden",
		Password:        "warden",
		SSLMode:         "disable",
		MaxOpenConns:    42,
		MaxIdleConns:    7,
		ConnMaxLifetime: "10m",
		ConnTimeout:     "3s",
	}
}

func TestNewIsLazy(t *testing.T) {
	cfg := testConfig()

	sys, err := database.New(&cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	conn := sys.Connection()
	if conn == nil {
		t.Fatal("Connection() returned nil")
	}
	defer conn.Close()

	if got := conn.Stats().MaxOpenConnections; got != 42 {
		t.Errorf("MaxOpenConnections = %d, want 42", got)
	}
	if got := conn.Stats().OpenConnections; got != 0 {
		t.Errorf("OpenConnections = %d, want 0 before Start", got)
	}
}

func TestNewRejectsBadDsn(t *testing.T) {
	cfg := testConfig()
	cfg.Port = -1
	cfg.SSLMode = "bogus"

	if _, err := database.New(&cfg, slog.New(slog.NewTextHandler(io.Discard, nil))); err == nil {
		t.Error("expected error for unparseable dsn")
	}
}
