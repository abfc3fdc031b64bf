package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Config is the complete server configuration.
//
// Sources, in order of precedence:
//  1. Environment variables (UNIVAULT_*)
//  2. Configuration file (config.yaml in the working directory or /etc/univault)
//  3. Default values
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port        string `mapstructure:"port" validate:"required,numeric"`
	Environment string `mapstructure:"environment" validate:"required,oneof=dev test prod"`
	CORSOrigins string `mapstructure:"cors_origins" validate:"required"`
}

// StorageConfig locates the physical archive tree.
type StorageConfig struct {
	// Root is the directory every resolved path must stay under.
	Root string `mapstructure:"root" validate:"required"`

	// MaxUploadSize caps a single uploaded file, in bytes.
	MaxUploadSize int64 `mapstructure:"max_upload_size" validate:"required,gt=0"`
}

// DatabaseConfig holds the Postgres connection settings.
type DatabaseConfig struct {
	URL         string `mapstructure:"url" validate:"required"`
	TablePrefix string `mapstructure:"table_prefix"`
}

// AuthConfig points at the identity provider.
type AuthConfig struct {
	JWKSURL string `mapstructure:"jwks_url" validate:"required,url"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=text json"`

	// Dir, when set, also writes logs to timestamped files under it.
	Dir      string `mapstructure:"dir"`
	MaxFiles int    `mapstructure:"max_files" validate:"gte=0"`
}

// Load reads, decodes and validates the configuration.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "dev")
	v.SetDefault("server.cors_origins", "http://localhost:3000")
	v.SetDefault("storage.root", "./data/uploads")
	v.SetDefault("storage.max_upload_size", int64(50<<20))
	v.SetDefault("database.table_prefix", "")
	v.SetDefault("logging.level", "INFO")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.max_files", 10)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/univault")

	if err := v.ReadInConfig(); err != nil {
		// A missing file is fine - env vars and defaults still apply.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	v.SetEnvPrefix("UNIVAULT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	decodeHook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, decodeHook); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}
