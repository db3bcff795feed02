package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var keys = []string{
	"APP_PORT", "DB_PATH", "LOG_LEVEL",
	"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "REDIS_PREFIX", "STOCK_CACHE_TTL",
	"ADMIN_PASSWORD", "ADMIN_PASSWORD_HASH", "STOCK_AUDIT_CRON", "CORS_ALLOWED_ORIGINS",
}

// clearEnv unsets every key for the duration of the test. godotenv never
// overrides a variable that is present, even when empty.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "equipment.db", cfg.Database.Path)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Redis.Enabled())
	assert.Equal(t, "equipment:", cfg.Redis.Prefix)
	assert.Equal(t, 5*time.Minute, cfg.Redis.TTL)
	assert.Equal(t, "0 * * * *", cfg.Audit.CronSchedule)
	assert.Equal(t, []string{"http://localhost:5173", "http://localhost:8080"}, cfg.Server.CORSOrigins)
}

func TestLoad_FromEnvFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "test.env")
	content := "APP_PORT=9090\nDB_PATH=:memory:\nREDIS_ADDR=localhost:6380\nSTOCK_CACHE_TTL=30s\n" +
		"CORS_ALLOWED_ORIGINS=https://a.example, https://b.example\nLOG_LEVEL=debug\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, ":memory:", cfg.Database.Path)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, 30*time.Second, cfg.Redis.TTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := map[string]struct {
		key, value string
	}{
		"port not a number": {"APP_PORT", "http"},
		"port out of range": {"APP_PORT", "70000"},
		"bad ttl":           {"STOCK_CACHE_TTL", "soon"},
		"bad log level":     {"LOG_LEVEL", "verbose"},
		"bad redis db":      {"REDIS_DB", "zero"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
			assert.Error(t, err)
		})
	}
}

func TestValidate_RedisNeedsPositiveTTL(t *testing.T) {
	cfg := &Config{
		Server:   ServerConfig{Port: 8080},
		Database: DatabaseConfig{Path: "x.db"},
		Redis:    RedisConfig{Addr: "localhost:6379", TTL: 0},
		Log:      LogConfig{Level: "info"},
	}
	assert.Error(t, cfg.Validate())

	cfg.Redis.TTL = time.Second
	assert.NoError(t, cfg.Validate())

	var nilCfg *Config
	assert.Error(t, nilCfg.Validate())
}
