package database

import (
	"cmp"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"time"
)

// Config holds PostgreSQL connection parameters.
type Config struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	Name            string `toml:"name"`
	Schema          string `toml:"schema"`
	User            string `toml:"user"`
	Password        string `toml:"password"`
	SSLMode         string `toml:"ssl_mode"`
	MaxOpenConns    int    `toml:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns"`
	ConnMaxLifetime string `toml:"conn_max_lifetime"`
	ConnTimeout     string `toml:"conn_timeout"`
}

// Env names the environment variables that override Config fields.
// Empty names are skipped.
type Env struct {
	Host            string
	Port            string
	Name            string
	Schema          string
	User            string
	Password        string
	SSLMode         string
	MaxOpenConns    string
	MaxIdleConns    string
	ConnMaxLifetime string
	ConnTimeout     string
}

// ConnMaxLifetimeDuration returns ConnMaxLifetime as a time.Duration.
func (c *Config) ConnMaxLifetimeDuration() time.Duration {
	d, _ := time.ParseDuration(c.ConnMaxLifetime)
	return d
}

// ConnTimeoutDuration returns ConnTimeout as a time.Duration.
func (c *Config) ConnTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ConnTimeout)
	return d
}

// URL returns a postgres:// connection URL. The schema is set as the
// session search_path so unqualified names resolve to the coupons schema.
func (c *Config) URL() string {
	q := url.Values{}
	q.Set("sslmode", c.SSLMode)
	q.Set("search_path", c.Schema)

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     "/" + c.Name,
		RawQuery: q.Encode(),
	}
	return u.String()
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.Host = cmp.Or(c.Host, "localhost")
	c.Port = cmp.Or(c.Port, 5432)
	c.Schema = cmp.Or(c.Schema, "public")
	c.SSLMode = cmp.Or(c.SSLMode, "disable")
	c.MaxOpenConns = cmp.Or(c.MaxOpenConns, 25)
	c.MaxIdleConns = cmp.Or(c.MaxIdleConns, 5)
	c.ConnMaxLifetime = cmp.Or(c.ConnMaxLifetime, "15m")
	c.ConnTimeout = cmp.Or(c.ConnTimeout, "5s")

	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites fields that are set in overlay.
func (c *Config) Merge(overlay *Config) {
	c.Host = cmp.Or(overlay.Host, c.Host)
	c.Port = cmp.Or(overlay.Port, c.Port)
	c.Name = cmp.Or(overlay.Name, c.Name)
	c.Schema = cmp.Or(overlay.Schema, c.Schema)
	c.User = cmp.Or(overlay.User, c.User)
	c.Password = cmp.Or(overlay.Password, c.Password)
	c.SSLMode = cmp.Or(overlay.SSLMode, c.SSLMode)
	c.MaxOpenConns = cmp.Or(overlay.MaxOpenConns, c.MaxOpenConns)
	c.MaxIdleConns = cmp.Or(overlay.MaxIdleConns, c.MaxIdleConns)
	c.ConnMaxLifetime = cmp.Or(overlay.ConnMaxLifetime, c.ConnMaxLifetime)
	c.ConnTimeout = cmp.Or(overlay.ConnTimeout, c.ConnTimeout)
}

func (c *Config) loadEnv(env *Env) {
	text := func(dst *string, name string) {
		if v := getenv(name); v != "" {
			*dst = v
		}
	}
	number := func(dst *int, name string) {
		if n, err := strconv.Atoi(getenv(name)); err == nil {
			*dst = n
		}
	}

	text(&c.Host, env.Host)
	number(&c.Port, env.Port)
	text(&c.Name, env.Name)
	text(&c.Schema, env.Schema)
	text(&c.User, env.User)
	text(&c.Password, env.Password)
	text(&c.SSLMode, env.SSLMode)
	number(&c.MaxOpenConns, env.MaxOpenConns)
	number(&c.MaxIdleConns, env.MaxIdleConns)
	text(&c.ConnMaxLifetime, env.ConnMaxLifetime)
	text(&c.ConnTimeout, env.ConnTimeout)
}

func (c *Config) validate() error {
	var errs []error

	if c.Name == "" {
		errs = append(errs, errors.New("name required"))
	}
	if c.User == "" {
		errs = append(errs, errors.New("user required"))
	}
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port %d", c.Port))
	}
	if c.MaxIdleConns > c.MaxOpenConns {
		errs = append(errs, fmt.Errorf("max_idle_conns %d exceeds max_open_conns %d", c.MaxIdleConns, c.MaxOpenConns))
	}
	if _, err := time.ParseDuration(c.ConnMaxLifetime); err != nil {
		errs = append(errs, fmt.Errorf("invalid conn_max_lifetime: %w", err))
	}
	if d, err := time.ParseDuration(c.ConnTimeout); err != nil {
		errs = append(errs, fmt.Errorf("invalid conn_timeout: %w", err))
	} else if d <= 0 {
		errs = append(errs, errors.New("conn_timeout must be positive"))
	}

	return errors.Join(errs...)
}

func getenv(name string) string {
	if name == "" {
		return ""
	}
	return os.Getenv(name)
}
