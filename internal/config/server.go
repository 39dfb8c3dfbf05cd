package config

import (
	"cmp"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"
)

const (
	EnvServerHost         = "WARDEN_SERVER_HOST"
	EnvServerPort         = "WARDEN_SERVER_PORT"
	EnvServerReadTimeout  = "WARDEN_SERVER_READ_TIMEOUT"
	EnvServerWriteTimeout = "WARDEN_SERVER_WRITE_TIMEOUT"
	EnvServerIdleTimeout  = "WARDEN_SERVER_IDLE_TIMEOUT"
)

// ServerConfig holds HTTP server parameters. WriteTimeout bounds ordinary
// responses; the expiration run endpoint lifts it for the duration of a run.
type ServerConfig struct {
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	ReadTimeout  string `toml:"read_timeout"`
	WriteTimeout string `toml:"write_timeout"`
	IdleTimeout  string `toml:"idle_timeout"`
}

// Addr returns the host:port listen address.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c *ServerConfig) ReadTimeoutDuration() time.Duration  { return duration(c.ReadTimeout) }
func (c *ServerConfig) WriteTimeoutDuration() time.Duration { return duration(c.WriteTimeout) }
func (c *ServerConfig) IdleTimeoutDuration() time.Duration  { return duration(c.IdleTimeout) }

// Finalize applies defaults, environment variable overrides, and validation.
func (c *ServerConfig) Finalize() error {
	c.Host = cmp.Or(os.Getenv(EnvServerHost), c.Host, "0.0.0.0")
	c.ReadTimeout = cmp.Or(os.Getenv(EnvServerReadTimeout), c.ReadTimeout, "30s")
	c.WriteTimeout = cmp.Or(os.Getenv(EnvServerWriteTimeout), c.WriteTimeout, "1m")
	c.IdleTimeout = cmp.Or(os.Getenv(EnvServerIdleTimeout), c.IdleTimeout, "2m")

	c.Port = cmp.Or(c.Port, 8080)
	if v := os.Getenv(EnvServerPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q", EnvServerPort, v)
		}
		c.Port = port
	}

	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *ServerConfig) Merge(overlay *ServerConfig) {
	c.Host = cmp.Or(overlay.Host, c.Host)
	c.Port = cmp.Or(overlay.Port, c.Port)
	c.ReadTimeout = cmp.Or(overlay.ReadTimeout, c.ReadTimeout)
	c.WriteTimeout = cmp.Or(overlay.WriteTimeout, c.WriteTimeout)
	c.IdleTimeout = cmp.Or(overlay.IdleTimeout, c.IdleTimeout)
}

func (c *ServerConfig) validate() error {
	var errs []error
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port: %d", c.Port))
	}
	for _, f := range []struct{ name, value string }{
		{"read_timeout", c.ReadTimeout},
		{"write_timeout", c.WriteTimeout},
		{"idle_timeout", c.IdleTimeout},
	} {
		if d, err := time.ParseDuration(f.value); err != nil || d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be a positive duration, got %q", f.name, f.value))
		}
	}
	return errors.Join(errs...)
}

// duration parses a value already checked by validate.
func duration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}
