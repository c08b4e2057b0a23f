package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Store backend selectors for RESULT_STORE_BACKEND.
const (
	StoreBackendMemory = "memory"
	StoreBackendRedis  = "redis"
	StoreBackendMongo  = "mongo"
)

// ServerConfig holds all configuration for the bridge service.
// Tags use mapstructure for Viper unmarshalling.
type ServerConfig struct {
	HTTPPort  string `mapstructure:"HTTP_PORT"`
	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogPretty bool   `mapstructure:"LOG_PRETTY"`

	OtelServiceName string `mapstructure:"OTEL_SERVICE_NAME"`

	// Correlation store settings. ResultTTLMin bounds how long a completed
	// (or failed) authorization result waits for the desktop client to poll
	// it before the sweeper reclaims it.
	StoreBackend     string `mapstructure:"RESULT_STORE_BACKEND"`
	ResultTTLMin     int    `mapstructure:"RESULT_TTL_MIN"`
	SweepIntervalSec int    `mapstructure:"SWEEP_INTERVAL_SEC"`

	RedisURL       string `mapstructure:"REDIS_URL"`
	RedisKeyPrefix string `mapstructure:"REDIS_KEY_PREFIX"`

	MongoURI    string `mapstructure:"MONGO_URI"`
	MongoDBName string `mapstructure:"MONGO_DB_NAME"`

	// Provider credentials. The redirect URLs must match the URIs registered
	// at the provider byte-for-byte.
	GoogleClientID     string `mapstructure:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `mapstructure:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL  string `mapstructure:"GOOGLE_REDIRECT_URL"`

	NotionClientID     string `mapstructure:"NOTION_CLIENT_ID"`
	NotionClientSecret string `mapstructure:"NOTION_CLIENT_SECRET"`
	NotionRedirectURL  string `mapstructure:"NOTION_REDIRECT_URL"`

	ExchangeTimeoutSec int `mapstructure:"EXCHANGE_TIMEOUT_SEC"`
}

// LoadConfig reads configuration from file, environment variables, and defaults.
func LoadConfig() (*ServerConfig, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AddConfigPath("/etc/authbridge/")
	v.AddConfigPath("$HOME/.authbridge")
	v.AddConfigPath(".")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_PRETTY", true)
	v.SetDefault("OTEL_SERVICE_NAME", "synk-authbridge")
	v.SetDefault("RESULT_STORE_BACKEND", StoreBackendMemory)
	v.SetDefault("RESULT_TTL_MIN", 10)
	v.SetDefault("SWEEP_INTERVAL_SEC", 60)
	v.SetDefault("REDIS_URL", "redis://localhost:6379/0")
	v.SetDefault("REDIS_KEY_PREFIX", "authbridge")
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017/authbridge_dev")
	v.SetDefault("MONGO_DB_NAME", "authbridge_dev")
	v.SetDefault("EXCHANGE_TIMEOUT_SEC", 15)

	// Credentials have no usable defaults, but Viper only unmarshals keys
	// it knows about; empty defaults register the keys so environment
	// variables are picked up.
	v.SetDefault("GOOGLE_CLIENT_ID", "")
	v.SetDefault("GOOGLE_CLIENT_SECRET", "")
	v.SetDefault("GOOGLE_REDIRECT_URL", "")
	v.SetDefault("NOTION_CLIENT_ID", "")
	v.SetDefault("NOTION_CLIENT_SECRET", "")
	v.SetDefault("NOTION_REDIRECT_URL", "")

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine, defaults and env vars apply.
		// Anything else (malformed file, permissions) is a real error.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg ServerConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	return &cfg, nil
}

// Validate checks the parts of the configuration whose absence must prevent
// startup rather than surface as per-request failures. Missing provider
// credentials fall in that category.
func (c *ServerConfig) Validate() error {
	var missing []string

	if c.GoogleClientID == "" {
		missing = append(missing, "GOOGLE_CLIENT_ID")
	}
	if c.GoogleClientSecret == "" {
		missing = append(missing, "GOOGLE_CLIENT_SECRET")
	}
	if c.GoogleRedirectURL == "" {
		missing = append(missing, "GOOGLE_REDIRECT_URL")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	switch c.StoreBackend {
	case StoreBackendMemory, StoreBackendRedis, StoreBackendMongo:
	default:
		return fmt.Errorf("unknown RESULT_STORE_BACKEND %q", c.StoreBackend)
	}

	if c.ResultTTLMin <= 0 {
		return fmt.Errorf("RESULT_TTL_MIN must be positive, got %d", c.ResultTTLMin)
	}

	// Notion is optional, but partial credentials indicate a broken deployment.
	notionSet := 0
	for _, s := range []string{c.NotionClientID, c.NotionClientSecret, c.NotionRedirectURL} {
		if s != "" {
			notionSet++
		}
	}
	if notionSet != 0 && notionSet != 3 {
		return fmt.Errorf("partial Notion configuration: NOTION_CLIENT_ID, NOTION_CLIENT_SECRET and NOTION_REDIRECT_URL must be set together")
	}

	return nil
}

// NotionEnabled reports whether Notion credentials are configured.
func (c *ServerConfig) NotionEnabled() bool {
	return c.NotionClientID != "" && c.NotionClientSecret != "" && c.NotionRedirectURL != ""
}

// ResultTTL returns the correlation entry TTL as a duration.
func (c *ServerConfig) ResultTTL() time.Duration {
	return time.Duration(c.ResultTTLMin) * time.Minute
}

// SweepInterval returns the background sweep interval as a duration.
func (c *ServerConfig) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalSec) * time.Second
}

// ExchangeTimeout returns the bound on a single code-for-token exchange.
func (c *ServerConfig) ExchangeTimeout() time.Duration {
	return time.Duration(c.ExchangeTimeoutSec) * time.Second
}
