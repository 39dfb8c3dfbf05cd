package storage

import (
	"cmp"
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strconv"
)

// MaxListCap bounds the page size of a single List call.
const MaxListCap int32 = 500

// Config holds Azure Blob Storage connection parameters.
// Either ConnectionString or ServiceURL enables the archive; with a
// ServiceURL, credentials resolve through azidentity's default chain.
type Config struct {
	ContainerName    string `toml:"container_name"`
	ConnectionString string `toml:"connection_string"`
	ServiceURL       string `toml:"service_url"`
	MaxListSize      int32  `toml:"max_list_size"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	ContainerName    string
	ConnectionString string
	ServiceURL       string
	MaxListSize      string
}

// Enabled reports whether any storage endpoint is configured.
func (c *Config) Enabled() bool {
	return c.ConnectionString != "" || c.ServiceURL != ""
}

// Finalize applies defaults, environment variable overrides, and validation.
// MaxListSize is clamped to MaxListCap.
func (c *Config) Finalize(env *Env) error {
	if env != nil {
		if err := c.loadEnv(env); err != nil {
			return err
		}
	}
	c.ContainerName = cmp.Or(c.ContainerName, "reports")
	c.MaxListSize = min(cmp.Or(c.MaxListSize, 50), MaxListCap)
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	c.ContainerName = cmp.Or(overlay.ContainerName, c.ContainerName)
	c.ConnectionString = cmp.Or(overlay.ConnectionString, c.ConnectionString)
	c.ServiceURL = cmp.Or(overlay.ServiceURL, c.ServiceURL)
	c.MaxListSize = cmp.Or(overlay.MaxListSize, c.MaxListSize)
}

func (c *Config) loadEnv(env *Env) error {
	for _, f := range []struct {
		name string
		dst  *string
	}{
		{env.ContainerName, &c.ContainerName},
		{env.ConnectionString, &c.ConnectionString},
		{env.ServiceURL, &c.ServiceURL},
	} {
		if v := lookup(f.name); v != "" {
			*f.dst = v
		}
	}

	if v := lookup(env.MaxListSize); v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil || n < 1 {
			return fmt.Errorf("%s must be a positive integer, got %q", env.MaxListSize, v)
		}
		c.MaxListSize = int32(n)
	}
	return nil
}

func lookup(name string) string {
	if name == "" {
		return ""
	}
	return os.Getenv(name)
}

// containerName follows the Azure rules: 3-63 lowercase letters, digits
// and single hyphens, starting and ending with a letter or digit.
var containerName = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

func (c *Config) validate() error {
	var errs []error
	if n := len(c.ContainerName); n < 3 || n > 63 || !containerName.MatchString(c.ContainerName) {
		errs = append(errs, fmt.Errorf("invalid container_name %q", c.ContainerName))
	}
	if c.ConnectionString != "" && c.ServiceURL != "" {
		errs = append(errs, errors.New("connection_string and service_url are mutually exclusive"))
	}
	if c.ServiceURL != "" {
		u, err := url.Parse(c.ServiceURL)
		if err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
			errs = append(errs, fmt.Errorf("service_url must be an http(s) url, got %q", c.ServiceURL))
		}
	}
	return errors.Join(errs...)
}

// ParseMaxResults parses a max_results query value, falling back to def
// when empty and capping at MaxListCap.
func ParseMaxResults(s string, def int32) (int32, error) {
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, ErrInvalidMaxResults
	}
	return min(int32(n), MaxListCap), nil
}
