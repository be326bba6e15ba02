package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.Mode)

	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "postgres", cfg.Database.User)
	assert.Equal(t, "wallet_ledger", cfg.Database.DBName)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, int32(20), cfg.Database.MaxConns)
	assert.Equal(t, int32(5), cfg.Database.MinConns)

	assert.Equal(t, "localhost", cfg.Redis.Host)
	assert.Equal(t, 6379, cfg.Redis.Port)
	assert.Equal(t, 0, cfg.Redis.DB)

	assert.Equal(t, 3, cfg.Ledger.MaxRetries)
	assert.Equal(t, 2*time.Second, cfg.Ledger.RetryTimeout)
	assert.Equal(t, 5*time.Minute, cfg.Ledger.BalanceCacheTTL)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Log.Pretty)
}

func TestLoad_FromYAMLFile(t *testing.T) {
	content := []byte(`
server:
  host: "127.0.0.1"
  port: 9090
  mode: "release"
database:
  host: "db.example.com"
  port: 5433
  user: "appuser"
  password: "secret123"
  dbname: "ledgerdb"
  sslmode: "require"
redis:
  host: "redis.example.com"
  port: 6380
  password: "redispwd"
  db: 2
ledger:
  max_retries: 5
  retry_timeout: "500ms"
  balance_cache_ttl: "1m"
log:
  level: "debug"
  pretty: true
`)
	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, content, 0644))

	cfg, err := Load(cfgPath)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "release", cfg.Server.Mode)
	assert.Equal(t, "db.example.com", cfg.Database.Host)
	assert.Equal(t, 5433, cfg.Database.Port)
	assert.Equal(t, "ledgerdb", cfg.Database.DBName)
	assert.Equal(t, "require", cfg.Database.SSLMode)
	assert.Equal(t, "redis.example.com", cfg.Redis.Host)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, 5, cfg.Ledger.MaxRetries)
	assert.Equal(t, 500*time.Millisecond, cfg.Ledger.RetryTimeout)
	assert.Equal(t, time.Minute, cfg.Ledger.BalanceCacheTTL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.Pretty)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("WLG_DATABASE_HOST", "env-db-host")
	t.Setenv("WLG_SERVER_PORT", "7070")
	t.Setenv("WLG_LEDGER_MAX_RETRIES", "10")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "env-db-host", cfg.Database.Host)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, 10, cfg.Ledger.MaxRetries)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "ledger",
		Password: "pw",
		DBName:   "wallet_ledger",
		SSLMode:  "disable",
	}
	assert.Equal(t, "postgres://ledger:pw@localhost:5432/wallet_ledger?sslmode=disable", d.DSN())
}

func TestRedisConfig_Addr(t *testing.T) {
	r := RedisConfig{Host: "cache.internal", Port: 6380}
	assert.Equal(t, "cache.internal:6380", r.Addr())
}
