package database_test

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/JaimeStill/warden/pkg/database"
)

var couponsEnv = &database.Env{
	Host:         "WARDEN_TEST_DB_HOST",
	Port:         "WARDEN_TEST_DB_PORT",
	Name:         "WARDEN_TEST_DB_NAME",
	Schema:       "WARDEN_TEST_DB_SCHEMA",
	User:         "WARDEN_TEST_DB_USER",
	Password:     "WARDEN_TEST_DB_PASSWORD",
	MaxOpenConns: "WARDEN_TEST_DB_MAX_OPEN",
	ConnTimeout:  "WARDEN_TEST_DB_TIMEOUT",
}

func TestFinalize(t *testing.T) {
	tests := []struct {
		name string
		cfg  database.Config
		env  map[string]string
		want database.Config
	}{
		{
			name: "defaults",
			cfg:  database.Config{Name: "warden", User: "warden"},
			want: database.Config{
				Host: "localhost", Port: 5432, Name: "warden", Schema: "public", User: "warden",
				SSLMode: "disable", MaxOpenConns: 25, MaxIdleConns: 5,
				ConnMaxLifetime: "15m", ConnTimeout: "5s",
			},
		},
		{
			name: "env overrides",
			env: map[string]string{
				"WARDEN_TEST_DB_HOST":     "coupons-db",
				"WARDEN_TEST_DB_PORT":     "5433",
				"WARDEN_TEST_DB_NAME":     "coupons",
				"WARDEN_TEST_DB_SCHEMA":   "warden",
				"WARDEN_TEST_DB_USER":     "expirer",
				"WARDEN_TEST_DB_PASSWORD": "s3cret",
				"WARDEN_TEST_DB_MAX_OPEN": "10",
				"WARDEN_TEST_DB_TIMEOUT":  "10s",
			},
			want: database.Config{
				Host: "coupons-db", Port: 5433, Name: "coupons", Schema: "warden", User: "expirer",
				Password: "s3cret", SSLMode: "disable", MaxOpenConns: 10, MaxIdleConns: 5,
				ConnMaxLifetime: "15m", ConnTimeout: "10s",
			},
		},
		{
			name: "unparseable port keeps file value",
			cfg:  database.Config{Name: "warden", User: "warden", Port: 6432},
			env:  map[string]string{"WARDEN_TEST_DB_PORT": "pg"},
			want: database.Config{
				Host: "localhost", Port: 6432, Name: "warden", Schema: "public", User: "warden",
				SSLMode: "disable", MaxOpenConns: 25, MaxIdleConns: 5,
				ConnMaxLifetime: "15m", ConnTimeout: "5s",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg := tt.cfg
			if err := cfg.Finalize(couponsEnv); err != nil {
				t.Fatalf("Finalize() error = %v", err)
			}
			if cfg != tt.want {
				t.Errorf("got  %+v\nwant %+v", cfg, tt.want)
			}
		})
	}
}

func TestFinalizeValidation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     database.Config
		wantErr []string
	}{
		{"missing name and user", database.Config{}, []string{"name required", "user required"}},
		{"port out of range", database.Config{Name: "warden", User: "warden", Port: 70000}, []string{"invalid port 70000"}},
		{"idle above open", database.Config{Name: "warden", User: "warden", MaxOpenConns: 2, MaxIdleConns: 4}, []string{"max_idle_conns 4 exceeds"}},
		{"bad timeout", database.Config{Name: "warden", User: "warden", ConnTimeout: "soon"}, []string{"invalid conn_timeout"}},
		{"negative timeout", database.Config{Name: "warden", User: "warden", ConnTimeout: "-1s"}, []string{"conn_timeout must be positive"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Finalize(nil)
			if err == nil {
				t.Fatal("expected error")
			}
			for _, want := range tt.wantErr {
				if !strings.Contains(err.Error(), want) {
					t.Errorf("error %q does not contain %q", err, want)
				}
			}
		})
	}
}

func TestMerge(t *testing.T) {
	base := database.Config{Host: "localhost", Port: 5432, Name: "warden", User: "warden"}
	base.Merge(&database.Config{Host: "coupons-db", Schema: "warden"})

	want := database.Config{Host: "coupons-db", Port: 5432, Name: "warden", Schema: "warden", User: "warden"}
	if base != want {
		t.Errorf("got %+v, want %+v", base, want)
	}
}

func TestURL(t *testing.T) {
	cfg := database.Config{
		Host:     "coupons-db",
		Port:     5432,
		Name:     "warden",
		Schema:   "warden",
		User:     "expirer",
		Password: "p@ss word/1",
		SSLMode:  "require",
	}

	u, err := url.Parse(cfg.URL())
	if err != nil {
		t.Fatalf("URL() is not parseable: %v", err)
	}

	if u.Scheme != "postgres" || u.Host != "coupons-db:5432" || u.Path != "/warden" {
		t.Errorf("url: got %s", u)
	}
	if pw, _ := u.User.Password(); u.User.Username() != "expirer" || pw != "p@ss word/1" {
		t.Errorf("credentials did not survive encoding: %s", u.User)
	}
	if q := u.Query(); q.Get("sslmode") != "require" || q.Get("search_path") != "warden" {
		t.Errorf("query: got %s", u.RawQuery)
	}
}

func TestDurations(t *testing.T) {
	cfg := database.Config{ConnMaxLifetime: "15m", ConnTimeout: "5s"}

	if d := cfg.ConnMaxLifetimeDuration(); d != 15*time.Minute {
		t.Errorf("conn_max_lifetime: got %v, want 15m", d)
	}
	if d := cfg.ConnTimeoutDuration(); d != 5*time.Second {
		t.Errorf("conn_timeout: got %v, want 5s", d)
	}
}
