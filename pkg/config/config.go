package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

const (
	StoreRedis       = "redis"
	StoreMemory      = "memory"
	StoreMemoryFixed = "memory_fixed"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Redis     RedisConfig     `mapstructure:"redis"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Port        int `mapstructure:"port"`
	MetricsPort int `mapstructure:"metrics_port"`
	// Behind a proxy that appends to X-Forwarded-For. When false the peer
	// address is the only client identity.
	TrustForwardedFor bool `mapstructure:"trust_forwarded_for"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	TLS      bool   `mapstructure:"tls"`
}

type RateLimitConfig struct {
	Store              string        `mapstructure:"store"`
	StoreTimeout       time.Duration `mapstructure:"store_timeout"`
	BreakerTimeout     time.Duration `mapstructure:"breaker_timeout"`
	BreakerMaxFailures uint32        `mapstructure:"breaker_max_failures"`
	JanitorInterval    time.Duration `mapstructure:"janitor_interval"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// Load reads config.yaml from configPath, ./config or the working directory.
// A missing file is not an error: defaults and environment variables
// (REDIS_HOST, RATELIMIT_STORE, ...) still apply.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaultValues(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file config.yaml: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaultValues(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.metrics_port", 9090)
	v.SetDefault("server.trust_forwarded_for", true)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.tls", false)
	v.SetDefault("ratelimit.store", StoreRedis)
	v.SetDefault("ratelimit.store_timeout", "250ms")
	v.SetDefault("ratelimit.breaker_timeout", "30s")
	v.SetDefault("ratelimit.breaker_max_failures", 5)
	v.SetDefault("ratelimit.janitor_interval", "1m")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
}

func (c *Config) Validate() error {
	switch c.RateLimit.Store {
	case StoreRedis, StoreMemory, StoreMemoryFixed:
	default:
		return fmt.Errorf("invalid ratelimit.store '%s': expected one of %s, %s, %s",
			c.RateLimit.Store, StoreRedis, StoreMemory, StoreMemoryFixed)
	}
	if c.RateLimit.StoreTimeout <= 0 {
		return fmt.Errorf("ratelimit.store_timeout must be positive")
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be positive")
	}
	if c.Metrics.Enabled && c.Server.MetricsPort <= 0 {
		return fmt.Errorf("server.metrics_port must be positive when metrics are enabled")
	}
	if c.RateLimit.Store == StoreRedis && c.Redis.Host == "" {
		return fmt.Errorf("redis.host is required for the redis store")
	}
	return nil
}
