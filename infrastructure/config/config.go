// Package config loads application settings from a YAML file overlaid by
// RPGBASE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"rpgbase-go/infrastructure/logging"
	"rpgbase-go/infrastructure/repository"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "RPGBASE_"

// Trigger sources.
const (
	SourceFile     = "file"
	SourceEmbedded = "embedded"
	SourceMongo    = "mongo"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the root configuration.
type Config struct {
	Log      LogConfig      `yaml:"log" envPrefix:"LOG_"`
	Bus      BusConfig      `yaml:"bus" envPrefix:"BUS_"`
	Triggers TriggersConfig `yaml:"triggers" envPrefix:"TRIGGERS_"`
	Mongo    MongoConfig    `yaml:"mongo" envPrefix:"MONGO_"`
	Lua      LuaConfig      `yaml:"lua" envPrefix:"LUA_"`
}

// LogConfig configures logging.Setup.
type LogConfig struct {
	Level      string `yaml:"level" env:"LEVEL"`
	Dir        string `yaml:"dir" env:"DIR"`
	JSON       bool   `yaml:"json" env:"JSON"`
	MaxSizeMB  int    `yaml:"max_size_mb" env:"MAX_SIZE_MB"`
	MaxBackups int    `yaml:"max_backups" env:"MAX_BACKUPS"`
	MaxAgeDays int    `yaml:"max_age_days" env:"MAX_AGE_DAYS"`
	Compress   bool   `yaml:"compress" env:"COMPRESS"`
}

// BusConfig configures the event bus.
type BusConfig struct {
	// DrainLimit bounds the events one drain may process; 0 means unbounded
	DrainLimit    int  `yaml:"drain_limit" env:"DRAIN_LIMIT"`
	TraceDelivery bool `yaml:"trace_delivery" env:"TRACE_DELIVERY"`
	// LogEvents lists event names written by the event logger
	LogEvents []string `yaml:"log_events" env:"LOG_EVENTS" envSeparator:","`
}

// TriggersConfig selects where trigger definitions come from.
type TriggersConfig struct {
	Source string `yaml:"source" env:"SOURCE"`
	// Root holds the triggers directory when Source is file
	Root  string `yaml:"root" env:"ROOT"`
	Watch bool   `yaml:"watch" env:"WATCH"`
}

// MongoConfig configures the trigger repository.
type MongoConfig struct {
	URI      string `yaml:"uri" env:"URI"`
	Database string `yaml:"database" env:"DATABASE"`
	// TriggerCollection names the collection trigger documents live in
	TriggerCollection string        `yaml:"trigger_collection" env:"TRIGGER_COLLECTION"`
	ConnectTimeout    time.Duration `yaml:"connect_timeout" env:"CONNECT_TIMEOUT"`
	PingTimeout       time.Duration `yaml:"ping_timeout" env:"PING_TIMEOUT"`
}

// LuaConfig configures the script runtime.
type LuaConfig struct {
	Enabled   bool          `yaml:"enabled" env:"ENABLED"`
	Timeout   time.Duration `yaml:"timeout" env:"TIMEOUT"`
	CallLimit int           `yaml:"call_limit" env:"CALL_LIMIT"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	logCfg := logging.DefaultConfig()
	mongoCfg := repository.DefaultMongoDBConfig()

	return &Config{
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  logCfg.MaxSizeMB,
			MaxBackups: logCfg.MaxBackups,
			MaxAgeDays: logCfg.MaxAgeDays,
			Compress:   logCfg.Compress,
		},
		Bus: BusConfig{
			DrainLimit: 10000,
		},
		Triggers: TriggersConfig{
			Source: SourceEmbedded,
			Root:   ".",
		},
		Mongo: MongoConfig{
			URI:               mongoCfg.URI,
			Database:          mongoCfg.Database,
			TriggerCollection: mongoCfg.TriggerCollection,
			ConnectTimeout:    mongoCfg.ConnectTimeout,
			PingTimeout:       mongoCfg.PingTimeout,
		},
		Lua: LuaConfig{
			Enabled:   true,
			Timeout:   time.Second,
			CallLimit: 1000,
		},
	}
}

// Load reads path over the defaults, then applies environment variables.
// An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for out-of-range values.
func (c *Config) Validate() error {
	switch c.Triggers.Source {
	case SourceFile, SourceEmbedded, SourceMongo:
	default:
		return fmt.Errorf("%w: unknown trigger source %q", ErrInvalidConfig, c.Triggers.Source)
	}
	if c.Triggers.Source == SourceFile && c.Triggers.Root == "" {
		return fmt.Errorf("%w: triggers.root is required for file source", ErrInvalidConfig)
	}
	if c.Triggers.Watch && c.Triggers.Source != SourceFile {
		return fmt.Errorf("%w: triggers.watch needs the file source", ErrInvalidConfig)
	}
	if c.Triggers.Source == SourceMongo && (c.Mongo.URI == "" || c.Mongo.Database == "") {
		return fmt.Errorf("%w: mongo.uri and mongo.database are required for mongo source", ErrInvalidConfig)
	}
	if c.Bus.DrainLimit < 0 {
		return fmt.Errorf("%w: bus.drain_limit cannot be negative", ErrInvalidConfig)
	}
	if c.Lua.Timeout < 0 || c.Lua.CallLimit < 0 {
		return fmt.Errorf("%w: lua limits cannot be negative", ErrInvalidConfig)
	}
	return nil
}

// LoggingConfig converts the log section for logging.Setup.
func (c *Config) LoggingConfig() *logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = logging.ParseLevel(c.Log.Level)
	cfg.Dir = c.Log.Dir
	cfg.JSON = c.Log.JSON
	cfg.MaxSizeMB = c.Log.MaxSizeMB
	cfg.MaxBackups = c.Log.MaxBackups
	cfg.MaxAgeDays = c.Log.MaxAgeDays
	cfg.Compress = c.Log.Compress
	return cfg
}

// MongoDBConfig converts the mongo section for repository.NewMongoDB.
func (c *Config) MongoDBConfig() *repository.MongoDBConfig {
	return &repository.MongoDBConfig{
		URI:               c.Mongo.URI,
		Database:          c.Mongo.Database,
		TriggerCollection: c.Mongo.TriggerCollection,
		ConnectTimeout:    c.Mongo.ConnectTimeout,
		PingTimeout:       c.Mongo.PingTimeout,
	}
}
