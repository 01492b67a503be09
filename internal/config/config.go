package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Cache TTL configuration
const (
	DefaultCacheTTL        = 5 * time.Minute  // Applied when a caller passes no TTL
	ResponseTTL            = 5 * time.Minute  // Catalog read API responses
	DefaultCleanupInterval = 10 * time.Minute // Periodic sweep of expired entries
)

// Import configuration
const (
	RemoteImportTimeout = 30 * time.Second
	DefaultDatabaseFile = "catalog.db"
)

// UI configuration
const (
	DefaultTableHeight = 20
	MinTableHeight     = 5

	// Table column widths
	MakeColumnWidth  = 14
	ModelColumnWidth = 18
	YearColumnWidth  = 6
	PriceColumnWidth = 12
	FuelColumnWidth  = 12
)

// Config holds all configuration for carcat
type Config struct {
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
	Cache    CacheConfig    `mapstructure:"cache" yaml:"cache"`
	Import   ImportConfig   `mapstructure:"import" yaml:"import"`
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	Logging  LoggingConfig  `mapstructure:"logging" yaml:"logging"`
}

// DatabaseConfig locates the SQLite catalog
type DatabaseConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// CacheConfig holds response cache settings
type CacheConfig struct {
	DefaultTTL      time.Duration `mapstructure:"default_ttl" yaml:"default_ttl"`
	ResponseTTL     time.Duration `mapstructure:"response_ttl" yaml:"response_ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval" yaml:"cleanup_interval"`
}

// ImportConfig holds import pipeline settings
type ImportConfig struct {
	RemoteTimeout time.Duration `mapstructure:"remote_timeout" yaml:"remote_timeout"`
	RemoteURL     string        `mapstructure:"remote_url" yaml:"remote_url"`
	Token         string        `mapstructure:"token" yaml:"-"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Addr       string `mapstructure:"addr" yaml:"addr"`
	AdminToken string `mapstructure:"admin_token" yaml:"-"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"` // json or text
}

// Load reads configuration from an optional YAML file, a .env file and
// CARCAT_* environment variables, in increasing order of precedence.
func Load(configPath string) (*Config, error) {
	// A missing .env is the common case
	_ = godotenv.Load()

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("carcat")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("CARCAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || configPath != "" {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// Default returns the configuration used when nothing is overridden
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Path: DefaultDatabaseFile},
		Cache: CacheConfig{
			DefaultTTL:      DefaultCacheTTL,
			ResponseTTL:     ResponseTTL,
			CleanupInterval: DefaultCleanupInterval,
		},
		Import:  ImportConfig{RemoteTimeout: RemoteImportTimeout},
		Server:  ServerConfig{Addr: ":8080"},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("database.path", d.Database.Path)

	v.SetDefault("cache.default_ttl", d.Cache.DefaultTTL)
	v.SetDefault("cache.response_ttl", d.Cache.ResponseTTL)
	v.SetDefault("cache.cleanup_interval", d.Cache.CleanupInterval)

	v.SetDefault("import.remote_timeout", d.Import.RemoteTimeout)
	v.SetDefault("import.remote_url", "")
	v.SetDefault("import.token", "")

	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.admin_token", "")

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}

	if c.Cache.DefaultTTL < 0 || c.Cache.ResponseTTL < 0 {
		return fmt.Errorf("cache TTLs must be >= 0")
	}

	if c.Cache.CleanupInterval <= 0 {
		return fmt.Errorf("cache cleanup interval must be > 0")
	}

	if c.Import.RemoteTimeout <= 0 {
		return fmt.Errorf("import remote timeout must be > 0")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	validLogFormats := map[string]bool{
		"json": true,
		"text": true,
	}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	return nil
}
