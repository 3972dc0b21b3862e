package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/liamcoop/creditreports/extract"
)

// Config is the main application configuration struct.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Upload     UploadConfig     `mapstructure:"upload"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Log        LogConfig        `mapstructure:"log"`
	Extraction ExtractionConfig `mapstructure:"extraction"`
	Screening  ScreeningConfig  `mapstructure:"screening"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

// Addr returns the listen address for http.Server
func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

type UploadConfig struct {
	MaxBytes int64 `mapstructure:"max_bytes"`
}

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"

	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

type StorageConfig struct {
	Driver string `mapstructure:"driver"`
}

type DatabaseConfig struct {
	URL          string `mapstructure:"url"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	AutoMigrate  bool   `mapstructure:"auto_migrate"`
}

type CacheConfig struct {
	Driver string        `mapstructure:"driver"`
	TTL    time.Duration `mapstructure:"ttl"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type LogConfig struct {
	Level           string `mapstructure:"level"`
	ErrorSampleRate int    `mapstructure:"error_sample_rate"`
}

type ExtractionConfig struct {
	PANSource string `mapstructure:"pan_source"`
}

// ScreeningConfig lists the CEL rules evaluated by GET /api/reports/{id}/screening.
type ScreeningConfig struct {
	Rules []RuleConfig `mapstructure:"rules"`
}

type RuleConfig struct {
	Name       string `mapstructure:"name"`
	Expression string `mapstructure:"expression"`
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Upload.MaxBytes <= 0 {
		errs = append(errs, fmt.Errorf("upload.max_bytes must be positive, got %d", c.Upload.MaxBytes))
	}

	switch c.Storage.Driver {
	case StoragePostgres:
		if strings.TrimSpace(c.Database.URL) == "" {
			errs = append(errs, errors.New("database.url is required when storage.driver is postgres"))
		}
	case StorageMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown storage.driver %q", c.Storage.Driver))
	}

	switch c.Cache.Driver {
	case CacheNone, CacheMemory:
	case CacheRedis:
		if strings.TrimSpace(c.Redis.Address) == "" {
			errs = append(errs, errors.New("redis.address is required when cache.driver is redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown cache.driver %q", c.Cache.Driver))
	}

	if _, err := extract.ParsePANSource(c.Extraction.PANSource); err != nil {
		errs = append(errs, fmt.Errorf("extraction.pan_source: %w", err))
	}

	for i, rule := range c.Screening.Rules {
		if strings.TrimSpace(rule.Name) == "" || strings.TrimSpace(rule.Expression) == "" {
			errs = append(errs, fmt.Errorf("screening.rules[%d] needs both name and expression", i))
		}
	}

	return errors.Join(errs...)
}
