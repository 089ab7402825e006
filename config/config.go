package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Comparison ComparisonConfig `mapstructure:"comparison"`
	Sources    SourcesConfig    `mapstructure:"sources"`
	Cache      CacheConfig      `mapstructure:"cache"`
	RateLimit  RateLimitConfig  `mapstructure:"ratelimit"`
	Logger     LoggerConfig     `mapstructure:"logger"`
	S3         S3Config         `mapstructure:"s3"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	MaxUploadMB    int      `mapstructure:"max_upload_mb"`
}

// ComparisonConfig holds matching configuration
type ComparisonConfig struct {
	PriceThreshold float64       `mapstructure:"price_threshold"`
	VocabularyFile string        `mapstructure:"vocabulary_file"` // empty means the embedded vocabulary
	Timeout        time.Duration `mapstructure:"timeout"`
}

// SourcesConfig holds the column layout of both price lists and remote fetch settings
type SourcesConfig struct {
	A           SourceConfig       `mapstructure:"a"`
	B           SourceConfig       `mapstructure:"b"`
	HTTPTimeout time.Duration      `mapstructure:"http_timeout"`
	HTTP        RemoteSourceConfig `mapstructure:"http"`
	Postgres    RemoteSourceConfig `mapstructure:"postgres"`
}

// RemoteSourceConfig enables one location kind on the remote comparison endpoint
type RemoteSourceConfig struct {
	Enabled      bool     `mapstructure:"enabled"`
	AllowedHosts []string `mapstructure:"allowed_hosts"` // exact host, *.domain or *
}

// SourceConfig describes one price list
type SourceConfig struct {
	Label       string `mapstructure:"label"`
	NameColumn  string `mapstructure:"name_column"`
	PriceColumn string `mapstructure:"price_column"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type string        `mapstructure:"type"` // only "memory" is supported
	TTL  time.Duration `mapstructure:"ttl"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP  int `mapstructure:"per_ip"` // requests per minute per client IP
	Remote int `mapstructure:"remote"` // remote price-list downloads per second
}

// LoggerConfig holds logger-related configuration
type LoggerConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// S3Config holds AWS S3 configuration for price lists stored in a bucket
type S3Config struct {
	Enabled bool   `mapstructure:"enabled"`
	Region  string `mapstructure:"region"`
	Bucket  string `mapstructure:"bucket"` // used for s3:///key locations
}

// MaxUploadBytes returns the multipart upload limit in bytes
func (s ServerConfig) MaxUploadBytes() int64 {
	return int64(s.MaxUploadMB) << 20
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/pricelens/")

	// PRICELENS_COMPARISON_PRICE_THRESHOLD overrides comparison.price_threshold
	v.SetEnvPrefix("PRICELENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values.
// Every key needs a default so that AutomaticEnv can override it during Unmarshal.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.max_upload_mb", 20)

	// Comparison defaults
	v.SetDefault("comparison.price_threshold", 0.01)
	v.SetDefault("comparison.vocabulary_file", "")
	v.SetDefault("comparison.timeout", "30s")

	// Source defaults
	v.SetDefault("sources.a.label", "A")
	v.SetDefault("sources.a.name_column", "name")
	v.SetDefault("sources.a.price_column", "price")
	v.SetDefault("sources.b.label", "B")
	v.SetDefault("sources.b.name_column", "name")
	v.SetDefault("sources.b.price_column", "price")
	v.SetDefault("sources.http_timeout", "30s")
	v.SetDefault("sources.http.enabled", false)
	v.SetDefault("sources.http.allowed_hosts", []string{})
	v.SetDefault("sources.postgres.enabled", false)
	v.SetDefault("sources.postgres.allowed_hosts", []string{})

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.ttl", "1h")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 60)
	v.SetDefault("ratelimit.remote", 2)

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")

	// S3 defaults
	v.SetDefault("s3.enabled", false)
	v.SetDefault("s3.region", "eu-central-1")
	v.SetDefault("s3.bucket", "")
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	if config.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("max upload size must be positive, got: %d", config.Server.MaxUploadMB)
	}

	if config.Comparison.PriceThreshold <= 0 {
		return fmt.Errorf("price threshold must be positive, got: %v", config.Comparison.PriceThreshold)
	}

	if config.Comparison.Timeout <= 0 {
		return fmt.Errorf("comparison timeout must be positive, got: %v", config.Comparison.Timeout)
	}

	for name, source := range map[string]SourceConfig{"a": config.Sources.A, "b": config.Sources.B} {
		if source.NameColumn == "" || source.PriceColumn == "" {
			return fmt.Errorf("source %s needs both a name and a price column", name)
		}
	}

	for name, remote := range map[string]RemoteSourceConfig{"http": config.Sources.HTTP, "postgres": config.Sources.Postgres} {
		if remote.Enabled && len(remote.AllowedHosts) == 0 {
			return fmt.Errorf("sources.%s.allowed_hosts is required when %s locations are enabled", name, name)
		}
	}

	if config.Cache.Type != "memory" {
		return fmt.Errorf("cache type must be 'memory', got: %s", config.Cache.Type)
	}

	if config.Cache.TTL <= 0 {
		return fmt.Errorf("cache TTL must be positive, got: %v", config.Cache.TTL)
	}

	if config.RateLimit.PerIP <= 0 || config.RateLimit.Remote <= 0 {
		return fmt.Errorf("rate limits must be positive")
	}

	if !validLogLevels[config.Logger.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", config.Logger.Level)
	}

	if config.Logger.Format != "json" && config.Logger.Format != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", config.Logger.Format)
	}

	if config.S3.Enabled && config.S3.Region == "" {
		return fmt.Errorf("S3 region is required when S3 is enabled")
	}

	return nil
}
