package config

import (
	"fmt"
	"strings"
	"time"
)

type DatabaseConfig struct {
	// URL is the only required key. Credentials embedded in the URL take
	// precedence over the User/Password keys below.
	URL      string        `koanf:"url"`
	Database string        `koanf:"database"`
	Schema   string        `koanf:"schema"`
	User     string        `koanf:"user"`
	Password string        `koanf:"password"`
	Timeout  time.Duration `koanf:"timeout"`
}

func (c *DatabaseConfig) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("database URL is not configured")
	}
	if !isValidPostgresURL(c.URL) {
		return fmt.Errorf("database URL must start with 'postgres://': %s", MaskURL(c.URL))
	}
	return nil
}

// isValidPostgresURL checks if the provided URL is a valid PostgreSQL URL
func isValidPostgresURL(url string) bool {
	return strings.HasPrefix(url, "postgres://") ||
		strings.HasPrefix(url, "postgresql://")
}

// MaskURL hides credentials when a URL ends up in logs or error messages.
func MaskURL(url string) string {
	if url == "" {
		return "<not configured>"
	}
	parts := strings.Split(url, "@")
	if len(parts) == 2 {
		return "****@" + parts[1]
	}
	return url
}
