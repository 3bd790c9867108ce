// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package config loads frameguard configuration from defaults, an optional
// YAML file and command-line flags, in that order of precedence.
package config

import (
	"errors"
	"os"
	"time"

	"github.com/gobwas/glob"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/holomush/frameguard/internal/logging"
	"github.com/holomush/frameguard/internal/messages"
	"github.com/holomush/frameguard/internal/protect"
	"github.com/holomush/frameguard/internal/retention"
	"github.com/holomush/frameguard/internal/xdg"
)

// CodeInvalid marks configuration that failed to load or validate.
const CodeInvalid = "CONFIG_INVALID"

// Storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config is the full frameguard configuration.
type Config struct {
	Storage     Storage           `koanf:"storage" json:"storage,omitempty"`
	Protection  Protection        `koanf:"protection" json:"protection,omitempty"`
	Retention   Retention         `koanf:"retention" json:"retention,omitempty"`
	Log         Log               `koanf:"log" json:"log,omitempty"`
	Debug       bool              `koanf:"debug" json:"debug,omitempty" jsonschema:"description=Log every mediation decision at debug level"`
	MetricsAddr string            `koanf:"metrics_addr" json:"metrics_addr,omitempty" jsonschema:"description=Listen address of the metrics and health endpoints; empty disables them"`
	Messages    map[string]string `koanf:"messages" json:"messages,omitempty" jsonschema:"description=Overrides of player-facing message templates"`
}

// Storage selects and tunes the protection store.
type Storage struct {
	Driver          string        `koanf:"driver" json:"driver,omitempty" jsonschema:"enum=sqlite,enum=postgres"`
	Path            string        `koanf:"path" json:"path,omitempty" jsonschema:"description=SQLite database file"`
	DSN             string        `koanf:"dsn" json:"dsn,omitempty" jsonschema:"description=PostgreSQL connection URL; DATABASE_URL is used when empty"`
	QueryTimeout    time.Duration `koanf:"query_timeout" json:"query_timeout,omitempty" jsonschema:"description=Bound on every storage call such as 5s"`
	ConnectAttempts uint64        `koanf:"connect_attempts" json:"connect_attempts,omitempty" jsonschema:"minimum=1"`
}

// Protection configures what is protected and where.
type Protection struct {
	Decorations   []string `koanf:"decorations" json:"decorations,omitempty" jsonschema:"description=Protectable entity types"`
	IgnoredWorlds []string `koanf:"ignored_worlds" json:"ignored_worlds,omitempty" jsonschema:"description=Glob patterns of worlds that are never mediated"`
	MinY          int      `koanf:"min_y" json:"min_y,omitempty"`
	MaxY          int      `koanf:"max_y" json:"max_y,omitempty"`
	MaxHorizontal int      `koanf:"max_horizontal" json:"max_horizontal,omitempty" jsonschema:"description=World border as the largest absolute X or Z"`
}

// Retention configures scheduled purging.
type Retention struct {
	MaxAgeDays int           `koanf:"max_age_days" json:"max_age_days,omitempty" jsonschema:"minimum=0,maximum=36500,description=Purge protections older than this; 0 disables scheduled purging"`
	Interval   time.Duration `koanf:"interval" json:"interval,omitempty" jsonschema:"description=Time between scheduled purges such as 24h"`
}

// Log configures the process logger.
type Log struct {
	Format string `koanf:"format" json:"format,omitempty" jsonschema:"enum=json,enum=text"`
	Level  string `koanf:"level" json:"level,omitempty" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	bounds := protect.DefaultBounds()
	ret := retention.DefaultConfig()
	return Config{
		Storage: Storage{
			Driver:          DriverSQLite,
			Path:            xdg.DatabaseFile(),
			QueryTimeout:    5 * time.Second,
			ConnectAttempts: 5,
		},
		Protection: Protection{
			MinY:          bounds.MinY,
			MaxY:          bounds.MaxY,
			MaxHorizontal: bounds.MaxHorizontal,
		},
		Retention: Retention{
			MaxAgeDays: ret.MaxAgeDays,
			Interval:   ret.Interval,
		},
		Log:         Log{Format: "json", Level: "info"},
		MetricsAddr: "127.0.0.1:9110",
	}
}

// flagKeys maps the flags registered by BindFlags to configuration keys.
var flagKeys = map[string]string{
	"log-format":   "log.format",
	"log-level":    "log.level",
	"debug":        "debug",
	"db-driver":    "storage.driver",
	"db-path":      "storage.path",
	"db-dsn":       "storage.dsn",
	"metrics-addr": "metrics_addr",
}

// BindFlags registers the configuration flags on fs. Only flags the user
// sets override the file.
func BindFlags(fs *pflag.FlagSet) {
	def := Default()
	fs.String("log-format", def.Log.Format, "log format (json, text)")
	fs.String("log-level", def.Log.Level, "log level (debug, info, warn, error)")
	fs.Bool("debug", def.Debug, "log every mediation decision")
	fs.String("db-driver", def.Storage.Driver, "storage driver (sqlite, postgres)")
	fs.String("db-path", "", "sqlite database file (default "+def.Storage.Path+")")
	fs.String("db-dsn", "", "postgres connection URL (default $DATABASE_URL)")
	fs.String("metrics-addr", def.MetricsAddr, "metrics and health listen address")
}

// LoadOptions controls where Load reads from.
type LoadOptions struct {
	// Path is an explicit config file; it must exist. When empty the XDG
	// config file is read if present.
	Path string
	// Flags are the parsed command-line flags, may be nil.
	Flags *pflag.FlagSet
	// Getenv reads environment variables; os.Getenv when nil.
	Getenv func(string) string
}

// Load builds the configuration and validates it.
func Load(opts LoadOptions) (Config, error) {
	getenv := opts.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	k := koanf.New(".")

	path, required := opts.Path, true
	if path == "" {
		path, required = xdg.ConfigFile(), false
	}
	if _, err := os.Stat(path); required || err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, oops.Code(CodeInvalid).With("path", path).Wrapf(err, "load config file")
		}
	}

	if opts.Flags != nil {
		provider := posflag.ProviderWithFlag(opts.Flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(opts.Flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return Config{}, oops.Code(CodeInvalid).Wrapf(err, "load flags")
		}
	}

	cfg := Default()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Config{}, oops.Code(CodeInvalid).Wrapf(err, "decode config")
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = getenv("DATABASE_URL")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for values no component can accept.
func (c Config) Validate() error {
	var errs []error
	invalid := func(key, format string, args ...any) {
		errs = append(errs, oops.Code(CodeInvalid).With("key", key).Errorf(format, args...))
	}

	switch c.Storage.Driver {
	case DriverSQLite:
		if c.Storage.Path == "" {
			invalid("storage.path", "storage.path is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.Storage.DSN == "" {
			invalid("storage.dsn", "storage.dsn or DATABASE_URL is required for the postgres driver")
		}
	default:
		invalid("storage.driver", "unknown storage driver %q", c.Storage.Driver)
	}
	if c.Storage.QueryTimeout <= 0 {
		invalid("storage.query_timeout", "storage.query_timeout must be positive")
	}
	if c.Storage.ConnectAttempts == 0 {
		invalid("storage.connect_attempts", "storage.connect_attempts must be at least 1")
	}

	if c.Protection.MinY >= c.Protection.MaxY {
		invalid("protection.min_y", "protection.min_y %d must be below max_y %d", c.Protection.MinY, c.Protection.MaxY)
	}
	if c.Protection.MaxHorizontal <= 0 {
		invalid("protection.max_horizontal", "protection.max_horizontal must be positive")
	}
	for _, pattern := range c.Protection.IgnoredWorlds {
		if _, err := glob.Compile(pattern); err != nil {
			invalid("protection.ignored_worlds", "bad ignored world pattern %q: %v", pattern, err)
		}
	}

	if c.Retention.MaxAgeDays < 0 || c.Retention.MaxAgeDays > protect.MaxAgeDays {
		invalid("retention.max_age_days", "retention.max_age_days must be between 0 and %d", protect.MaxAgeDays)
	}
	if c.Retention.MaxAgeDays > 0 && c.Retention.Interval <= 0 {
		invalid("retention.interval", "retention.interval must be positive when purging is scheduled")
	}

	if c.Log.Format != "json" && c.Log.Format != "text" {
		invalid("log.format", "unknown log format %q", c.Log.Format)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		invalid("log.level", "unknown log level %q", c.Log.Level)
	}
	if _, err := messages.New(c.Messages); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Bounds returns the protection bounds.
func (c Config) Bounds() protect.Bounds {
	return protect.Bounds{MinY: c.Protection.MinY, MaxY: c.Protection.MaxY, MaxHorizontal: c.Protection.MaxHorizontal}
}

// RetentionConfig returns the scheduled retention policy.
func (c Config) RetentionConfig() retention.Config {
	return retention.Config{MaxAgeDays: c.Retention.MaxAgeDays, Interval: c.Retention.Interval}
}
