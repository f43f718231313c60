package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	content := `
server:
  port: 9090
redis:
  addr: redis.internal:6379
postgres:
  host: pg.internal
  user: progress
  password: ${TEST_PG_PASSWORD}
  database: progress
session:
  level_count: 20
  rankings_source: native
flush:
  queue_size: 64
`
	t.Setenv("TEST_PG_PASSWORD", "s3cret")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "redis.internal:6379", cfg.Redis.Addr)
	assert.Equal(t, "s3cret", cfg.Postgres.Password)
	assert.Equal(t, 20, cfg.Session.LevelCount)
	assert.Equal(t, RankingSourceNative, cfg.Session.RankingSource)
	assert.Equal(t, 64, cfg.Flush.QueueSize)

	// Unset values pick up defaults.
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "data/profile.json", cfg.Local.SavePath)
	assert.Equal(t, 12, cfg.Session.SkinCount)
	// Probe follows the configured Redis address.
	assert.Equal(t, "redis.internal:6379", cfg.Session.ProbeAddr)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [not a map"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 45, cfg.Session.LevelCount)
	assert.Equal(t, RankingSourceRemote, cfg.Session.RankingSource)
	assert.Equal(t, 256, cfg.Flush.QueueSize)
	assert.Equal(t, 5*time.Minute, cfg.Flush.SnapshotInterval)
	assert.Equal(t, "progress-events", cfg.Kafka.Topic)
}

func TestPostgresConnectionString(t *testing.T) {
	cfg := PostgresConfig{
		Host:     "db.internal",
		Port:     5433,
		User:     "app",
		Password: "pw",
		Database: "progress",
	}
	assert.Equal(t, "postgres://app:pw@db.internal:5433/progress?sslmode=disable", cfg.ConnectionString())

	cfg.SSLMode = "require"
	assert.Equal(t, "postgres://app:pw@db.internal:5433/progress?sslmode=require", cfg.ConnectionString())
}
