package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	CacheMemory = "memory"
	CacheBolt   = "bolt"
	CacheRedis  = "redis"
)

var ErrUnknownCacheBackend = errors.New("unknown cache backend")

type Config struct {
	Addr     string `env:"RATECHAIN_ADDR" env-default:":8080" env-description:"http listen address"`
	LogLevel string `env:"RATECHAIN_LOG_LEVEL" env-default:"info" env-description:"trace, debug, info, warn or error"`
	LogJSON  bool   `env:"RATECHAIN_LOG_JSON" env-default:"false" env-description:"log in json format"`

	Source Source
	Cache  Cache
}

type Source struct {
	APIKey         string        `env:"EXCHANGE_RATE_API_KEY" env-description:"exchangerate-api key, the secondary source is skipped without it"`
	Mirrors        []string      `env:"RATECHAIN_MIRRORS" env-separator:"," env-description:"primary mirror url templates with a {base} placeholder"`
	RequestTimeout time.Duration `env:"RATECHAIN_REQUEST_TIMEOUT" env-default:"10s" env-description:"timeout of a single source request"`
	RetryNum       uint64        `env:"RATECHAIN_RETRY_NUM" env-default:"0" env-description:"retries of a source request on transport errors"`
	RetryDuration  time.Duration `env:"RATECHAIN_RETRY_DURATION" env-default:"500ms" env-description:"pause between retries"`
}

type Cache struct {
	Backend           string `env:"RATECHAIN_CACHE_BACKEND" env-default:"memory" env-description:"memory, bolt or redis"`
	BoltPath          string `env:"RATECHAIN_BOLT_PATH" env-default:"ratechain.db" env-description:"bolt database file"`
	RedisAddr         string `env:"RATECHAIN_REDIS_ADDR" env-default:"localhost:6379" env-description:"redis address"`
	RedisPassword     string `env:"RATECHAIN_REDIS_PASSWORD" env-description:"redis password"`
	RedisDB           int    `env:"RATECHAIN_REDIS_DB" env-default:"0" env-description:"redis database"`
	PreserveCacheTier bool   `env:"RATECHAIN_PRESERVE_CACHE_TIER" env-default:"false" env-description:"return cache hits with their stored tier"`
}

// Load reads the configuration from the environment
func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case CacheMemory, CacheBolt, CacheRedis:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCacheBackend, c.Cache.Backend)
	}

	if c.Source.RequestTimeout < 0 {
		return fmt.Errorf("negative request timeout %s", c.Source.RequestTimeout)
	}

	return nil
}

// Usage returns the description of every supported variable
func Usage() string {
	var cfg Config
	text, err := cleanenv.GetDescription(&cfg, nil)
	if err != nil {
		return err.Error()
	}

	return text
}
