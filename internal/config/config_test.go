package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func emptyDir(t *testing.T) string {
	t.Helper()
	return t.TempDir()
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")

	cfg, err := Load(emptyDir(t))
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, ":5000", cfg.Server.Addr())
	assert.Equal(t, 30*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, int64(10<<20), cfg.Upload.MaxBytes)
	assert.Equal(t, StorageMemory, cfg.Storage.Driver)
	assert.Equal(t, CacheNone, cfg.Cache.Driver)
	assert.Equal(t, "accounts", cfg.Extraction.PANSource)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Empty(t, cfg.Screening.Rules)
}

func TestLoadLegacyEnvNames(t *testing.T) {
	t.Setenv("PORT", "8081")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/reports?sslmode=disable")

	cfg, err := Load(emptyDir(t))
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, StoragePostgres, cfg.Storage.Driver)
	assert.Equal(t, "postgres://u:p@db:5432/reports?sslmode=disable", cfg.Database.URL)
}

func TestLoadNestedEnvOverride(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("CACHE_DRIVER", "redis")
	t.Setenv("CACHE_TTL", "90s")
	t.Setenv("REDIS_ADDRESS", "cache:6379")
	t.Setenv("EXTRACTION_PAN_SOURCE", "applicant")

	cfg, err := Load(emptyDir(t))
	require.NoError(t, err)

	assert.Equal(t, CacheRedis, cfg.Cache.Driver)
	assert.Equal(t, 90*time.Second, cfg.Cache.TTL)
	assert.Equal(t, "cache:6379", cfg.Redis.Address)
	assert.Equal(t, "applicant", cfg.Extraction.PANSource)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	yaml := `
server:
  port: 9000
storage:
  driver: memory
log:
  level: debug
screening:
  rules:
    - name: low_score
      expression: basicDetails.creditScore < 600
    - name: many_accounts
      expression: reportSummary.totalAccounts > 10
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
	require.Len(t, cfg.Screening.Rules, 2)
	assert.Equal(t, RuleConfig{Name: "low_score", Expression: "basicDetails.creditScore < 600"}, cfg.Screening.Rules[0])
}

func TestLoadInvalidConfigFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server: [unclosed"), 0o600))

	_, err := Load(dir)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Server:     ServerConfig{Port: 5000},
			Upload:     UploadConfig{MaxBytes: 1024},
			Storage:    StorageConfig{Driver: StorageMemory},
			Cache:      CacheConfig{Driver: CacheNone},
			Extraction: ExtractionConfig{PANSource: "accounts"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"zero upload limit", func(c *Config) { c.Upload.MaxBytes = 0 }, "upload.max_bytes"},
		{"postgres without url", func(c *Config) { c.Storage.Driver = StoragePostgres }, "database.url"},
		{"unknown storage", func(c *Config) { c.Storage.Driver = "mongo" }, "storage.driver"},
		{"unknown cache", func(c *Config) { c.Cache.Driver = "memcached" }, "cache.driver"},
		{"redis without address", func(c *Config) { c.Cache.Driver = CacheRedis }, "redis.address"},
		{"bad pan source", func(c *Config) { c.Extraction.PANSource = "bureau" }, "pan_source"},
		{"incomplete rule", func(c *Config) {
			c.Screening.Rules = []RuleConfig{{Name: "x"}}
		}, "screening.rules[0]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
