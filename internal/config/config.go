package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/viper"

	"github.com/tuannm99/novabuf/internal/bufferpool"
)

var ErrInvalidConfig = errors.New("config: invalid configuration")

type Config struct {
	AppName string `mapstructure:"app_name"`

	BufferPool struct {
		Capacity int    `mapstructure:"capacity"`
		Policy   string `mapstructure:"policy"`
		K        int    `mapstructure:"k"`
		PageSize int    `mapstructure:"page_size"`
	} `mapstructure:"buffer_pool"`

	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_name", "novabuf")
	v.SetDefault("buffer_pool.capacity", bufferpool.DefaultCapacity)
	v.SetDefault("buffer_pool.policy", string(bufferpool.PolicyLRUK))
	v.SetDefault("buffer_pool.k", bufferpool.DefaultK)
	v.SetDefault("buffer_pool.page_size", bufferpool.DefaultPageSize)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// LoadConfig reads a YAML file at path. An empty path yields the defaults.
// NOVASQL_* environment variables override both, e.g. NOVASQL_BUFFER_POOL_K=3.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("novasql")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.BufferPool.Capacity < 1 {
		return fmt.Errorf("%w: buffer_pool.capacity must be >= 1, got %d", ErrInvalidConfig, c.BufferPool.Capacity)
	}
	if c.BufferPool.K < 1 {
		return fmt.Errorf("%w: buffer_pool.k must be >= 1, got %d", ErrInvalidConfig, c.BufferPool.K)
	}
	if c.BufferPool.PageSize < 1 {
		return fmt.Errorf("%w: buffer_pool.page_size must be >= 1, got %d", ErrInvalidConfig, c.BufferPool.PageSize)
	}
	if _, err := bufferpool.ParsePolicy(c.BufferPool.Policy); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log.format %q", ErrInvalidConfig, c.Log.Format)
	}
	return nil
}

// PoolOptions turns the buffer_pool section into pool options.
func (c *Config) PoolOptions(logger *slog.Logger) bufferpool.Options {
	return bufferpool.Options{
		Capacity: c.BufferPool.Capacity,
		Policy:   bufferpool.Policy(c.BufferPool.Policy),
		K:        c.BufferPool.K,
		Logger:   logger,
	}
}

func parseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("%w: log.level %q", ErrInvalidConfig, s)
	}
	return lvl, nil
}

// NewLogger builds the process logger from the log section.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	lvl, _ := parseLevel(c.Log.Level)
	opts := &slog.HandlerOptions{Level: lvl}

	var h slog.Handler
	if c.Log.Format == "json" {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h).With("app", c.AppName)
}
