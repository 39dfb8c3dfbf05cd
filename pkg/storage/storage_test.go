package storage_test

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/JaimeStill/warden/pkg/storage"
)

const azuriteConnString = "DefaultEndpointsProtocol=http;AccountName=devstoreaccount1;AccountKey=Eby8vdM02xNOcqFlqUwJPLlmEtlCDXJ1OUzFT50uSRZ6IFsuFq2UVErCz4I6tq/K1SZFPTOtr/KBHBeksoGMGw==;BlobEndpoint=http://127.0.0.1:10000/devstoreaccount1;"

func TestNewReturnsSystem(t *testing.T) {
	cfg := &storage.Config{
		ContainerName:    "reports",
		ConnectionString: azuriteConnString,
	}

	sys, err := storage.New(cfg, slog.Default())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if sys == nil {
		t.Fatal("New() returned nil system")
	}
}

func TestNewDisabled(t *testing.T) {
	_, err := storage.New(&storage.Config{ContainerName: "reports"}, slog.Default())
	if !errors.Is(err, storage.ErrDisabled) {
		t.Fatalf("New() error = %v, want ErrDisabled", err)
	}
}

func TestNewInvalidConnectionString(t *testing.T) {
	cfg := &storage.Config{
		ContainerName:    "reports",
		ConnectionString: "not-a-connection-string",
	}

	if _, err := storage.New(cfg, slog.Default()); err == nil {
		t.Fatal("expected error for invalid connection string, got nil")
	}
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", storage.ErrNotFound, http.StatusNotFound},
		{"empty key", storage.ErrEmptyKey, http.StatusBadRequest},
		{"invalid key", storage.ErrInvalidKey, http.StatusBadRequest},
		{"invalid max results", storage.ErrInvalidMaxResults, http.StatusBadRequest},
		{"disabled", storage.ErrDisabled, http.StatusServiceUnavailable},
		{"wrapped not found", fmt.Errorf("operation failed: %w", storage.ErrNotFound), http.StatusNotFound},
		{"unknown", fmt.Errorf("unexpected failure"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := storage.MapHTTPStatus(tt.err); got != tt.want {
				t.Errorf("MapHTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestParseMaxResults(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		fallback int32
		want     int32
		wantErr  bool
	}{
		{name: "empty returns fallback", input: "", fallback: 50, want: 50},
		{name: "valid value within cap", input: "100", fallback: 50, want: 100},
		{name: "value exceeding cap is clamped", input: "9999", fallback: 50, want: storage.MaxListCap},
		{name: "zero is invalid", input: "0", fallback: 50, wantErr: true},
		{name: "negative is invalid", input: "-1", fallback: 50, wantErr: true},
		{name: "non-numeric is invalid", input: "abc", fallback: 50, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := storage.ParseMaxResults(tt.input, tt.fallback)
			if tt.wantErr {
				if !errors.Is(err, storage.ErrInvalidMaxResults) {
					t.Errorf("ParseMaxResults(%q) error = %v, want ErrInvalidMaxResults", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseMaxResults(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseMaxResults(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestConfigFinalize(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		var cfg storage.Config
		if err := cfg.Finalize(nil); err != nil {
			t.Fatalf("finalize failed: %v", err)
		}
		if cfg.ContainerName != "reports" {
			t.Errorf("container_name: got %s, want reports", cfg.ContainerName)
		}
		if cfg.MaxListSize != 50 {
			t.Errorf("max_list_size: got %d, want 50", cfg.MaxListSize)
		}
		if cfg.Enabled() {
			t.Error("storage should be disabled without an endpoint")
		}
	})

	t.Run("env overrides", func(t *testing.T) {
		t.Setenv("TEST_STORAGE_URL", "https://account.blob.core.windows.net")
		t.Setenv("TEST_STORAGE_MAX", "9000")

		cfg := storage.Config{}
		env := &storage.Env{ServiceURL: "TEST_STORAGE_URL", MaxListSize: "TEST_STORAGE_MAX"}
		if err := cfg.Finalize(env); err != nil {
			t.Fatalf("finalize failed: %v", err)
		}
		if !cfg.Enabled() {
			t.Error("storage should be enabled with a service url")
		}
		if cfg.MaxListSize != storage.MaxListCap {
			t.Errorf("max_list_size: got %d, want %d", cfg.MaxListSize, storage.MaxListCap)
		}
	})

	t.Run("exclusive endpoints", func(t *testing.T) {
		cfg := storage.Config{
			ConnectionString: azuriteConnString,
			ServiceURL:       "https://account.blob.core.windows.net",
		}
		if err := cfg.Finalize(nil); err == nil {
			t.Fatal("expected error for both endpoints, got nil")
		}
	})
}

func TestValidateKey(t *testing.T) {
	tests := []struct {
		key  string
		want error
	}{
		{"reports/2026/10/17/run-1.json", nil},
		{"reports/2026/10/17/run..1.json", nil},
		{"", storage.ErrEmptyKey},
		{"reports/../secrets.json", storage.ErrInvalidKey},
		{"reports/./run-1.json", storage.ErrInvalidKey},
		{"/reports/run-1.json", storage.ErrInvalidKey},
		{"reports//run-1.json", storage.ErrInvalidKey},
		{"reports/", storage.ErrInvalidKey},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if err := storage.ValidateKey(tt.key); !errors.Is(err, tt.want) {
				t.Errorf("ValidateKey(%q) = %v, want %v", tt.key, err, tt.want)
			}
		})
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     storage.Config
		wantErr string
	}{
		{name: "default container", cfg: storage.Config{}},
		{name: "hyphenated container", cfg: storage.Config{ContainerName: "run-reports-2026"}},
		{name: "uppercase container", cfg: storage.Config{ContainerName: "Reports"}, wantErr: "invalid container_name"},
		{name: "short container", cfg: storage.Config{ContainerName: "rp"}, wantErr: "invalid container_name"},
		{name: "double hyphen", cfg: storage.Config{ContainerName: "run--reports"}, wantErr: "invalid container_name"},
		{name: "trailing hyphen", cfg: storage.Config{ContainerName: "reports-"}, wantErr: "invalid container_name"},
		{name: "service url without scheme", cfg: storage.Config{ServiceURL: "account.blob.core.windows.net"}, wantErr: "service_url"},
		{name: "https service url", cfg: storage.Config{ServiceURL: "https://account.blob.core.windows.net"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Finalize(nil)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %v does not contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfigRejectsBadMaxListEnv(t *testing.T) {
	t.Setenv("TEST_STORAGE_MAX", "lots")

	cfg := storage.Config{}
	err := cfg.Finalize(&storage.Env{MaxListSize: "TEST_STORAGE_MAX"})
	if err == nil || !strings.Contains(err.Error(), "TEST_STORAGE_MAX") {
		t.Fatalf("expected env error, got %v", err)
	}
}
