// Package config assembles the shopbot service configuration.
package config

import (
	"fmt"
	"strings"

	"github.com/abgdnv/shopbot/pkg/config"
	"github.com/abgdnv/shopbot/pkg/config/configloader"
)

// ServiceName is the env prefix for configuration keys (SHOPBOT_...).
const ServiceName = "shopbot"

var _ configloader.Validator = (*Config)(nil)

type Config struct {
	HTTPServer config.HTTPConfig     `koanf:"server"`
	Database   config.DatabaseConfig `koanf:"database"`
	Log        config.LogConfig      `koanf:"log"`
	PProf      config.PProfConfig    `koanf:"pprof"`
	Nats       config.NATSConfig     `koanf:"nats"`
	Shutdown   config.ShutdownConfig `koanf:"shutdown"`
	AI         config.AIConfig       `koanf:"ai"`
}

// Defaults holds every optional key. The database URL is deliberately
// absent: its absence is a fatal configuration error.
func Defaults() map[string]any {
	return map[string]any{
		"server.port":               8080,
		"server.maxHeaderBytes":     1 << 20,
		"server.timeout.read":       "5s",
		"server.timeout.write":      "10s",
		"server.timeout.idle":       "120s",
		"server.timeout.readHeader": "5s",

		"database.database": "test",
		"database.schema":   "test",
		"database.user":     "root",
		"database.password": "root",
		"database.timeout":  "10s",

		"log.level": "info",

		"pprof.enabled": false,
		"pprof.addr":    ":6060",

		"nats.url":     "nats://localhost:4222",
		"nats.timeout": "5s",

		"shutdown.timeout": "5s",

		"ai.model":    "googleai/gemini-2.0-flash",
		"ai.embedder": "googleai/text-embedding-004",
	}
}

// Load reads the configuration from config.yaml, .env and the environment.
func Load() (*Config, error) {
	return configloader.Load[*Config](ServiceName, Defaults())
}

func (c *Config) String() string {
	var b strings.Builder

	b.WriteString("\n--- Server Configuration ---\n")
	b.WriteString(fmt.Sprintf("  server.port: %d\n", c.HTTPServer.Port))
	b.WriteString(fmt.Sprintf("  server.timeout.read: %v\n", c.HTTPServer.Timeout.Read))
	b.WriteString(fmt.Sprintf("  server.timeout.write: %v\n", c.HTTPServer.Timeout.Write))

	b.WriteString("\n--- Database Configuration ---\n")
	b.WriteString(fmt.Sprintf("  database.url: %s\n", config.MaskURL(c.Database.URL)))
	b.WriteString(fmt.Sprintf("  database.database: %s\n", c.Database.Database))
	b.WriteString(fmt.Sprintf("  database.schema: %s\n", c.Database.Schema))
	b.WriteString(fmt.Sprintf("  database.timeout: %s\n", c.Database.Timeout))

	b.WriteString("\n--- Messaging ---\n")
	b.WriteString(fmt.Sprintf("  nats.url: %s\n", c.Nats.Url))
	b.WriteString(fmt.Sprintf("  nats.timeout: %s\n", c.Nats.Timeout))

	b.WriteString("\n--- Assistant ---\n")
	b.WriteString(fmt.Sprintf("  ai.model: %s\n", c.AI.Model))
	b.WriteString(fmt.Sprintf("  ai.embedder: %s\n", c.AI.Embedder))

	b.WriteString("\n--- Observability & Logging ---\n")
	b.WriteString(fmt.Sprintf("  log.level: %s\n", c.Log.Level))
	b.WriteString(fmt.Sprintf("  pprof.enabled: %t\n", c.PProf.Enabled))
	b.WriteString(fmt.Sprintf("  pprof.address: %s\n", c.PProf.Addr))

	b.WriteString("\n--- Application Behavior ---\n")
	b.WriteString(fmt.Sprintf("  shutdown.timeout: %s\n", c.Shutdown.Timeout))

	return b.String()
}

// Validate checks if the configuration values are valid
func (c *Config) Validate() error {
	if err := c.HTTPServer.Validate(); err != nil {
		return err
	}
	if err := c.Database.Validate(); err != nil {
		return err
	}
	if err := c.Log.Validate(); err != nil {
		return err
	}
	if err := c.PProf.Validate(); err != nil {
		return err
	}
	if err := c.Nats.Validate(); err != nil {
		return err
	}
	if err := c.Shutdown.Validate(); err != nil {
		return err
	}
	if err := c.AI.Validate(); err != nil {
		return err
	}
	return nil
}
