package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// FileName is the configuration file name without extension
const FileName = "jsonapi"

// EnvPrefix prefixes environment overrides, e.g. JSONAPI_DATABASE_DSN
const EnvPrefix = "JSONAPI"

// Config represents the server configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	API      APIConfig      `mapstructure:"api"`
	Render   RenderConfig   `mapstructure:"render"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Host string `mapstructure:"host"`
	// BaseURL prefixes the links of documents. Derived from host and port
	// when empty.
	BaseURL string `mapstructure:"base_url"`
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// APIConfig bounds page[limit]
type APIConfig struct {
	DefaultLimit int `mapstructure:"default_limit"`
	MaxLimit     int `mapstructure:"max_limit"`
}

// RenderConfig represents document rendering options
type RenderConfig struct {
	Pretty bool `mapstructure:"pretty"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level string `mapstructure:"level"`
}

var supportedDrivers = []string{"sqlite3", "postgres", "pgx"}

// Load loads the configuration from jsonapi.yml in the working directory
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile loads the configuration from path, or from jsonapi.yml in the
// working directory when path is empty. A missing jsonapi.yml is not an
// error; a missing explicit path is.
func LoadFile(path string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.base_url", "")
	v.SetDefault("database.driver", "sqlite3")
	v.SetDefault("database.dsn", "file:blog.db?_foreign_keys=on")
	v.SetDefault("api.default_limit", 20)
	v.SetDefault("api.max_limit", 100)
	v.SetDefault("render.pretty", false)
	v.SetDefault("log.level", "info")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	// Enable environment variable support
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found - use defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// Address returns the listen address
func (c *Config) Address() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// BaseURL returns the configured base URL without a trailing slash
func (c *Config) BaseURL() string {
	if c.Server.BaseURL != "" {
		return strings.TrimSuffix(c.Server.BaseURL, "/")
	}
	return "http://" + c.Address()
}

// Logger builds a zap logger for log.level. The debug level uses the
// development encoder.
func (c *Config) Logger() (*zap.Logger, error) {
	level, err := parseLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}

	cfg := zap.NewProductionConfig()
	if level == zapcore.DebugLevel {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(level)
	return cfg.Build()
}

func parseLevel(raw string) (zapcore.Level, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		return level, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 0 and 65535, got: %d", cfg.Server.Port)
	}

	supported := false
	for _, driver := range supportedDrivers {
		if cfg.Database.Driver == driver {
			supported = true
			break
		}
	}
	if !supported {
		return fmt.Errorf("database.driver must be one of %s, got: %s",
			strings.Join(supportedDrivers, ", "), cfg.Database.Driver)
	}

	if cfg.API.DefaultLimit < 1 {
		return fmt.Errorf("api.default_limit must be at least 1, got: %d", cfg.API.DefaultLimit)
	}
	if cfg.API.MaxLimit > 0 && cfg.API.MaxLimit < cfg.API.DefaultLimit {
		return fmt.Errorf("api.max_limit must not be below api.default_limit, got: %d", cfg.API.MaxLimit)
	}

	if _, err := parseLevel(cfg.Log.Level); err != nil {
		return err
	}

	return nil
}
