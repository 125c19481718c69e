// Package config provides configuration management for vectord.
// It supports loading configuration from environment variables and config files.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for vectord.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	Index     IndexConfig     `mapstructure:"index"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	HTTPPort            int           `mapstructure:"http_port"`
	RequestTimeout      time.Duration `mapstructure:"request_timeout"`
	CORSOrigins         []string      `mapstructure:"cors_origins"`
	ShutdownGracePeriod time.Duration `mapstructure:"shutdown_grace_period"`
}

// StorageConfig holds record store backend settings. DataDir is read once
// at startup, per spec: "DATA_DIR environment variable — root of the
// record store, read once at startup."
type StorageConfig struct {
	DataDir    string `mapstructure:"data_dir"`
	SyncWrites bool   `mapstructure:"sync_writes"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	// Provider selects the embedding backend: "mock" or "http".
	Provider  string `mapstructure:"provider"`
	Dimension int    `mapstructure:"dimension"`
	BatchSize int    `mapstructure:"batch_size"`
	// BaseURL and APIKey configure the "http" provider.
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// IndexConfig holds the per-IndexType construction parameters from spec §6.
type IndexConfig struct {
	IVF IVFConfig `mapstructure:"ivf"`
	NSW NSWConfig `mapstructure:"nsw"`
}

// IVFConfig mirrors spec §6's "IVF.n_clusters" / implicit nprobe constant.
type IVFConfig struct {
	NClusters int `mapstructure:"n_clusters"`
}

// NSWConfig mirrors spec §6's "NSW.n_neighbors" / "NSW.ef_construction".
type NSWConfig struct {
	NNeighbors     int `mapstructure:"n_neighbors"`
	EfConstruction int `mapstructure:"ef_construction"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
}

var defaults = map[string]interface{}{
	"server.http_port":             8080,
	"server.request_timeout":       "30s",
	"server.cors_origins":          []string{"*"},
	"server.shutdown_grace_period": "10s",

	"storage.data_dir":    "./data",
	"storage.sync_writes": false,

	"embedding.provider":  "mock",
	"embedding.dimension": 384,
	"embedding.batch_size": 32,
	"embedding.timeout":   "30s",

	"index.ivf.n_clusters":        100,
	"index.nsw.n_neighbors":       5,
	"index.nsw.ef_construction":   100,

	"log.level":  "info",
	"log.format": "console",
}

// Load loads configuration from environment variables and an optional
// config file. Environment variables are prefixed with VECTORD_ and use
// underscores, e.g. VECTORD_SERVER_HTTP_PORT=8080.
func Load() (*Config, error) {
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix("VECTORD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindLegacyEnvVars(v)

	v.SetConfigName("vectord")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/vectord")
	v.AddConfigPath("$HOME/.vectord")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// bindLegacyEnvVars maps the spec's bare DATA_DIR env var onto the nested
// viper key, per spec §6: "DATA_DIR environment variable — root of the
// record store, read once at startup."
func bindLegacyEnvVars(v *viper.Viper) {
	_ = v.BindEnv("storage.data_dir", "DATA_DIR")
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.HTTPPort < 1 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.Server.HTTPPort)
	}
	if c.Storage.DataDir == "" {
		return fmt.Errorf("data directory is required")
	}

	validProviders := map[string]bool{"mock": true, "http": true}
	if !validProviders[c.Embedding.Provider] {
		return fmt.Errorf("invalid embedding provider: %s (valid: mock, http)", c.Embedding.Provider)
	}
	if c.Embedding.Provider == "http" && c.Embedding.BaseURL == "" {
		return fmt.Errorf("embedding.base_url is required when embedding.provider is http")
	}

	if c.Index.IVF.NClusters <= 0 {
		return fmt.Errorf("index.ivf.n_clusters must be positive")
	}
	if c.Index.NSW.NNeighbors <= 0 {
		return fmt.Errorf("index.nsw.n_neighbors must be positive")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Log.Level] {
		return fmt.Errorf("invalid log level: %s (valid: debug, info, warn, error)", c.Log.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[c.Log.Format] {
		return fmt.Errorf("invalid log format: %s (valid: json, console)", c.Log.Format)
	}

	return nil
}

// String returns a string representation of the config.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Server: {HTTP: %d}, Storage: {Dir: %s}, Embedding: {Provider: %s}, Log: {Level: %s}}",
		c.Server.HTTPPort,
		c.Storage.DataDir,
		c.Embedding.Provider,
		c.Log.Level,
	)
}
