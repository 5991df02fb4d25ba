package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ticketing.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: "9090"
  shutdown_timeout: 3s
storage:
  driver: memory
purchase:
  payment_policy: decrement_first
rate_limit:
  enabled: true
  backend: redis
  redis_addr: localhost:6379
  limit: 5
  window: 10s
nats:
  url: nats://localhost:4222
log:
  level: debug
  format: text
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, StorageMemory, cfg.Storage.Driver)
	assert.Equal(t, "decrement_first", cfg.Purchase.PaymentPolicy)
	assert.Equal(t, RateLimitRedis, cfg.RateLimit.Backend)
	assert.Equal(t, int64(5), cfg.RateLimit.Limit)
	assert.Equal(t, 10*time.Second, cfg.RateLimit.Window)
	assert.Equal(t, "nats://localhost:4222", cfg.NATS.URL)
	assert.Equal(t, "tickets.sold", cfg.NATS.Subject, "unset keys keep defaults")
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoad_UnknownKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage:\n  drvier: memory\n"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"PORT":            "7000",
		"CORS_ORIGINS":    "https://a.example, ,https://b.example",
		"STORAGE_DRIVER":  "memory",
		"DATABASE_URL":    "postgres://x",
		"PAYMENT_POLICY":  "decrement_first",
		"REDIS_ADDR":      "redis:6379",
		"RATE_LIMIT":      "12",
		"NATS_URL":        "nats://nats:4222",
		"METRICS_ENABLED": "false",
		"LOG_LEVEL":       "warn",
		"LOG_FORMAT":      "text",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Default()
	require.NoError(t, cfg.applyEnv(lookup))
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "7000", cfg.Server.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
	assert.Equal(t, StorageMemory, cfg.Storage.Driver)
	assert.Equal(t, "postgres://x", cfg.Storage.DatabaseURL)
	assert.Equal(t, RateLimitRedis, cfg.RateLimit.Backend)
	assert.Equal(t, "redis:6379", cfg.RateLimit.RedisAddr)
	assert.Equal(t, int64(12), cfg.RateLimit.Limit)
	assert.Equal(t, "nats://nats:4222", cfg.NATS.URL)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestApplyEnv_InvalidNumbers(t *testing.T) {
	cfg := Default()
	err := cfg.applyEnv(func(k string) (string, bool) {
		if k == "RATE_LIMIT" {
			return "lots", true
		}
		return "", false
	})
	assert.Error(t, err)
}

func TestApplyEnv_ZeroRateLimitDisables(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.applyEnv(func(k string) (string, bool) {
		if k == "RATE_LIMIT" {
			return "0", true
		}
		return "", false
	}))
	assert.False(t, cfg.RateLimit.Enabled)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"unknown driver":       func(c *Config) { c.Storage.Driver = "sqlite" },
		"postgres without dsn": func(c *Config) { c.Storage.DatabaseURL = "" },
		"unknown policy":       func(c *Config) { c.Purchase.PaymentPolicy = "refund_later" },
		"zero limit":           func(c *Config) { c.RateLimit.Limit = 0 },
		"zero window":          func(c *Config) { c.RateLimit.Window = 0 },
		"redis without addr":   func(c *Config) { c.RateLimit.Backend = RateLimitRedis },
		"unknown backend":      func(c *Config) { c.RateLimit.Backend = "etcd" },
		"nats without subject": func(c *Config) { c.NATS.URL = "nats://x:4222"; c.NATS.Subject = "" },
		"bad log level":        func(c *Config) { c.Log.Level = "chatty" },
		"bad log format":       func(c *Config) { c.Log.Format = "xml" },
		"empty port":           func(c *Config) { c.Server.Port = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	const key = "TICKETING_DOTENV_TEST_KEY"
	const kept = "TICKETING_DOTENV_TEST_KEPT"

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("# comment\nexport "+key+"=\"from-file\"\n"+kept+"=from-file\n"), 0o600))
	sub := filepath.Join(dir, "nested")
	require.NoError(t, os.Mkdir(sub, 0o755))
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(sub))
	t.Setenv("PWD", sub)
	t.Cleanup(func() { _ = os.Chdir(wd) })

	t.Setenv(kept, "from-env")
	t.Cleanup(func() { _ = os.Unsetenv(key) })

	path, err := LoadDotEnv()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, ".env"), path)
	assert.Equal(t, "from-file", os.Getenv(key))
	assert.Equal(t, "from-env", os.Getenv(kept))
}

func TestParseCSV(t *testing.T) {
	assert.Nil(t, ParseCSV(""))
	assert.Equal(t, []string{"a", "b"}, ParseCSV(" a ,, b "))
}
