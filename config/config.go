// Package config loads the PostgreSQL connection parameters a catalog
// provider and executor adapter need, from the standard PG* environment
// variables and, optionally, a key=value file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/reliq/reliq"
)

// Config holds the parameters needed to connect to a PostgreSQL database
// and to scope catalog introspection to specific schemas. Grounded in
// AntTheLimey-mm-ready-go/internal/connection.Config, extended with the
// Database/Schemas fields catalog.PostgresProvider needs (spec.md §6).
type Config struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
	Schemas  []string
	DSN      string
}

// Load builds a Config from the environment, optionally overlaid with a
// key=value file (envFile may be empty). Environment variables always win
// over the file, matching godotenv's usual non-overwrite convention.
//
// Recognized keys: PGHOST, PGPORT, PGDATABASE, PGUSER, PGPASSWORD,
// PGSCHEMAS (comma-separated), PGDSN (used verbatim if set, bypassing the
// individual fields).
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if os.IsNotExist(err) {
				return Config{}, fmt.Errorf("%w: %s: %v", reliq.ErrMalformedConfig, envFile, err)
			}
			return Config{}, fmt.Errorf("%w: %s: %v", reliq.ErrMalformedConfig, envFile, err)
		}
	}

	cfg := Config{
		Host:     os.Getenv("PGHOST"),
		Database: os.Getenv("PGDATABASE"),
		User:     os.Getenv("PGUSER"),
		Password: os.Getenv("PGPASSWORD"),
		DSN:      os.Getenv("PGDSN"),
	}
	if v := os.Getenv("PGSCHEMAS"); v != "" {
		cfg.Schemas = strings.Split(v, ",")
	}
	if v := os.Getenv("PGPORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("%w: PGPORT: %v", reliq.ErrMalformedConfig, err)
		}
		cfg.Port = port
	}

	if cfg.DSN == "" && (cfg.Database == "" || cfg.Host == "") {
		return Config{}, fmt.Errorf("%w: need PGDSN, or PGHOST and PGDATABASE", reliq.ErrMissingConfig)
	}
	return cfg, nil
}

// ConnString returns a libpq-style "key=value ..." connection string, or
// DSN verbatim if set. Grounded in buildConnString from
// AntTheLimey-mm-ready-go/internal/connection/connection.go.
func (c Config) ConnString() string {
	if c.DSN != "" {
		return c.DSN
	}
	var sb strings.Builder
	if c.Host != "" {
		fmt.Fprintf(&sb, "host=%s ", c.Host)
	}
	if c.Port != 0 {
		fmt.Fprintf(&sb, "port=%d ", c.Port)
	}
	if c.Database != "" {
		fmt.Fprintf(&sb, "dbname=%s ", c.Database)
	}
	if c.User != "" {
		fmt.Fprintf(&sb, "user=%s ", c.User)
	}
	if c.Password != "" {
		fmt.Fprintf(&sb, "password=%s ", c.Password)
	}
	return strings.TrimSpace(sb.String())
}
