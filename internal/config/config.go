// Package config loads the tableq configuration file. Settings not present in
// the file keep their defaults, and a few environment variables override the
// file so credentials can stay out of it.
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"dario.cat/mergo"
	"github.com/BurntSushi/toml"

	"tableq/internal/dialect"
	"tableq/internal/logging"
)

// Environment variables read by Load.
const (
	EnvDSN      = "TABLEQ_DSN"
	EnvLogLevel = "TABLEQ_LOG_LEVEL"
	EnvProject  = "TABLEQ_BIGQUERY_PROJECT"
)

// Config is the decoded configuration file.
type Config struct {
	Dialect string         `toml:"dialect"`
	DSN     string         `toml:"dsn"`
	Driver  string         `toml:"driver"`
	Schemas []string       `toml:"schemas"`
	Format  string         `toml:"format"`
	Mapping bool           `toml:"mapping"`
	Log     logging.Config `toml:"log"`
	// BigQuery is used when Dialect is bigquery.
	BigQuery BigQuery `toml:"bigquery"`
}

type BigQuery struct {
	Project         string `toml:"project"`
	Dataset         string `toml:"dataset"`
	Location        string `toml:"location"`
	CredentialsFile string `toml:"credentials_file"`
}

// Default returns the settings used for anything the file leaves out.
func Default() Config {
	return Config{
		Dialect: string(dialect.MySQL),
		Driver:  "mysql",
		Format:  "sql",
		Log: logging.Config{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads path, fills the gaps from Default and applies environment
// overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		md, err := toml.DecodeFile(path, &cfg)
		if err != nil {
			return nil, fmt.Errorf("config: decode %q: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, 0, len(undecoded))
			for _, k := range undecoded {
				keys = append(keys, k.String())
			}
			sort.Strings(keys)
			return nil, fmt.Errorf("config: unknown keys in %q: %s", path, strings.Join(keys, ", "))
		}
	}

	if err := mergo.Merge(&cfg, Default()); err != nil {
		return nil, fmt.Errorf("config: apply defaults: %w", err)
	}
	cfg.applyEnv(os.Getenv)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := strings.TrimSpace(getenv(EnvDSN)); v != "" {
		c.DSN = v
	}
	if v := strings.TrimSpace(getenv(EnvLogLevel)); v != "" {
		c.Log.Level = v
	}
	if v := strings.TrimSpace(getenv(EnvProject)); v != "" {
		c.BigQuery.Project = v
	}
}

// DialectType returns the configured dialect.
func (c *Config) DialectType() dialect.Type {
	return dialect.Type(strings.ToLower(strings.TrimSpace(c.Dialect)))
}

// Validate checks the settings that do not depend on what the command does.
func (c *Config) Validate() error {
	var errs []error
	switch c.DialectType() {
	case dialect.MySQL, dialect.BigQuery:
	default:
		errs = append(errs, fmt.Errorf("config: unsupported dialect %q", c.Dialect))
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("config: %w", err))
	}
	return errors.Join(errs...)
}
