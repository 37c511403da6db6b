// Package config provides YAML-based configuration loading for the SHP tools.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root application configuration.
type Config struct {
	// AppName optional logical name used in logs and metric labels
	AppName string `mapstructure:"app_name"`

	// Log holds logging configuration
	Log LogConfig `mapstructure:"log"`

	// Protocol tunes the message and call codecs.
	Protocol ProtocolConfig `mapstructure:"protocol"`

	// Cache sizes the in-memory store behind the chain resolver.
	Cache CacheConfig `mapstructure:"cache"`

	Metrics MetricsConfig `mapstructure:"metrics"`
}

// LogConfig defines logger settings.
type LogConfig struct {
	// Level: debug, info, warn, error
	Level string `mapstructure:"level"`
	// Format: console or json
	Format string `mapstructure:"format"`
	// Outputs: list of outputs: stdout, stderr, or file paths
	Outputs []string `mapstructure:"outputs"`

	// Rotation controls file rotation when writing to files
	Rotation RotationConfig `mapstructure:"rotation"`
	// Development toggles development-friendly logging options
	Development bool `mapstructure:"development"`
}

// RotationConfig controls log file rotation for file outputs.
type RotationConfig struct {
	Enable     bool   `mapstructure:"enable"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

type ProtocolConfig struct {
	// Serializer for call arguments and results: cbor or json
	Serializer string `mapstructure:"serializer"`
	// CompressMinBytes: payloads at or below this size are never compressed; 0 means the default (100)
	CompressMinBytes int `mapstructure:"compress_min_bytes"`
	// CallCompressBytes: call/result payloads above this size request compression; 0 means the default (200)
	CallCompressBytes int `mapstructure:"call_compress_bytes"`
	// CompressionLevel is a zlib level, -2 (huffman only) through 9; 0 means fastest
	CompressionLevel int `mapstructure:"compression_level"`
	// MaxPayloadBytes bounds payload_len when reading frames from a stream
	MaxPayloadBytes uint64 `mapstructure:"max_payload_bytes"`
}

type CacheConfig struct {
	Shards   int           `mapstructure:"shards"`
	MaxBytes uint64        `mapstructure:"max_bytes"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type MetricsConfig struct {
	Enable    bool   `mapstructure:"enable"`
	Namespace string `mapstructure:"namespace"`
}

// Default returns a Config populated with sensible defaults.
func Default() *Config {
	return &Config{
		AppName: "shp",
		Log: LogConfig{
			Level:       "info",
			Format:      "console",
			Outputs:     []string{"stderr"},
			Development: false,
			Rotation: RotationConfig{
				Enable:     false,
				Filename:   "logs/shp.log",
				MaxSizeMB:  50,
				MaxBackups: 3,
				MaxAgeDays: 28,
				Compress:   true,
			},
		},
		Protocol: ProtocolConfig{
			Serializer:        "cbor",
			CompressMinBytes:  100,
			CallCompressBytes: 200,
			CompressionLevel:  1,
			MaxPayloadBytes:   64 << 20,
		},
		Cache: CacheConfig{
			Shards: 256,
		},
		Metrics: MetricsConfig{
			Enable:    false,
			Namespace: "shp",
		},
	}
}

// Load reads configuration from the provided path (if non-empty),
// otherwise it searches common locations and supports environment overrides.
// Environment variables use the prefix SHP and `.`/`-` are replaced with `_`.
// Example: SHP_LOG_LEVEL=debug
func Load(path string) (*Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("SHP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// seed defaults for viper so env-only configs work
	v.SetDefault("app_name", cfg.AppName)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("log.outputs", cfg.Log.Outputs)
	v.SetDefault("log.development", cfg.Log.Development)
	v.SetDefault("log.rotation.enable", cfg.Log.Rotation.Enable)
	v.SetDefault("log.rotation.filename", cfg.Log.Rotation.Filename)
	v.SetDefault("log.rotation.max_size_mb", cfg.Log.Rotation.MaxSizeMB)
	v.SetDefault("log.rotation.max_backups", cfg.Log.Rotation.MaxBackups)
	v.SetDefault("log.rotation.max_age_days", cfg.Log.Rotation.MaxAgeDays)
	v.SetDefault("log.rotation.compress", cfg.Log.Rotation.Compress)
	v.SetDefault("protocol.serializer", cfg.Protocol.Serializer)
	v.SetDefault("protocol.compress_min_bytes", cfg.Protocol.CompressMinBytes)
	v.SetDefault("protocol.call_compress_bytes", cfg.Protocol.CallCompressBytes)
	v.SetDefault("protocol.compression_level", cfg.Protocol.CompressionLevel)
	v.SetDefault("protocol.max_payload_bytes", cfg.Protocol.MaxPayloadBytes)
	v.SetDefault("cache.shards", cfg.Cache.Shards)
	v.SetDefault("cache.max_bytes", cfg.Cache.MaxBytes)
	v.SetDefault("cache.ttl", cfg.Cache.TTL)
	v.SetDefault("metrics.enable", cfg.Metrics.Enable)
	v.SetDefault("metrics.namespace", cfg.Metrics.Namespace)

	// Choose config file
	if path == "" {
		if envPath := os.Getenv("SHP_CONFIG"); envPath != "" {
			path = envPath
		}
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		// Search common locations with base name `shp`
		v.SetConfigName("shp")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".shp"))
		}
	}

	// Read config file if present; if not found, continue with defaults/env
	if err := v.ReadInConfig(); err != nil {
		var viperConfigFileNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &viperConfigFileNotFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	lvl := strings.ToLower(strings.TrimSpace(c.Log.Level))
	switch lvl {
	case "debug", "info", "warn", "warning", "error":
		// ok
	default:
		return fmt.Errorf("invalid log.level: %q", c.Log.Level)
	}

	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if len(c.Log.Outputs) == 0 {
		c.Log.Outputs = []string{"stderr"}
	}

	c.Protocol.Serializer = strings.ToLower(strings.TrimSpace(c.Protocol.Serializer))
	switch c.Protocol.Serializer {
	case "cbor", "json":
	case "":
		c.Protocol.Serializer = "cbor"
	default:
		return fmt.Errorf("invalid protocol.serializer: %q", c.Protocol.Serializer)
	}
	if c.Protocol.CompressionLevel < -2 || c.Protocol.CompressionLevel > 9 {
		return fmt.Errorf("invalid protocol.compression_level: %d", c.Protocol.CompressionLevel)
	}
	if c.Protocol.CompressMinBytes < 0 || c.Protocol.CallCompressBytes < 0 {
		return fmt.Errorf("compression thresholds must not be negative")
	}
	if c.Protocol.CompressMinBytes == 0 {
		c.Protocol.CompressMinBytes = 100
	}
	if c.Protocol.CallCompressBytes == 0 {
		c.Protocol.CallCompressBytes = 200
	}
	if c.Protocol.MaxPayloadBytes == 0 {
		c.Protocol.MaxPayloadBytes = 64 << 20
	}
	if c.Cache.Shards <= 0 {
		c.Cache.Shards = 256
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("invalid cache.ttl: %s", c.Cache.TTL)
	}
	if strings.TrimSpace(c.Metrics.Namespace) == "" {
		c.Metrics.Namespace = "shp"
	}
	return nil
}

// MustLoad is a convenience that panics on error.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}
	return cfg
}
