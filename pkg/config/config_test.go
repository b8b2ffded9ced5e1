package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/fts-query-service/internal/fts/language"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "english", cfg.FTS.DefaultLanguage)
	assert.Equal(t, int(language.TextIndexVersionLatest), cfg.FTS.DefaultVersion)
	assert.Equal(t, "fts-parse-events", cfg.Kafka.Topics.ParseEvents)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9999
fts:
  defaultLanguage: french
  defaultVersion: 2
redis:
  cacheTTL: 30s
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "french", cfg.FTS.DefaultLanguage)
	assert.Equal(t, 2, cfg.FTS.DefaultVersion)
	assert.Equal(t, 30*time.Second, cfg.Redis.CacheTTL)
	assert.Equal(t, 4096, cfg.FTS.MaxQueryLength)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SP_SERVER_PORT", "7070")
	t.Setenv("SP_KAFKA_BROKERS", "a:9092,b:9092")
	t.Setenv("SP_FTS_DEFAULT_LANGUAGE", "de")
	t.Setenv("SP_ANALYTICS_ENABLED", "false")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "de", cfg.FTS.DefaultLanguage)
	assert.False(t, cfg.Analytics.Enabled)
}

func TestLoadRejectsUnsupportedDefaults(t *testing.T) {
	path := writeConfig(t, `
fts:
  defaultLanguage: klingon
  defaultVersion: 3
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, language.ErrLanguageNotSupported)

	path = writeConfig(t, `
fts:
  defaultVersion: 12
`)
	_, err = Load(path)
	assert.ErrorIs(t, err, language.ErrUnknownVersion)
}

func TestLegacyDefaultLanguageIsAccepted(t *testing.T) {
	path := writeConfig(t, `
fts:
  defaultLanguage: klingon
  defaultVersion: 1
`)
	_, err := Load(path)
	assert.NoError(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestDSN(t *testing.T) {
	p := PostgresConfig{Host: "h", Port: 1, User: "u", Password: "p", Database: "d", SSLMode: "disable"}
	assert.Equal(t, "host=h port=1 user=u password=p dbname=d sslmode=disable", p.DSN())
}

func TestDevelopmentConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "configs", "development.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "fts-cache-invalidate", cfg.Kafka.Topics.CacheInvalidate)
	assert.Equal(t, 10*time.Minute, cfg.Redis.CacheTTL)
	assert.Equal(t, time.Minute, cfg.Analytics.SnapshotInterval)
	assert.True(t, cfg.Tracing.Enabled)
}

func TestServerLimitsFromEnv(t *testing.T) {
	t.Setenv("SP_SERVER_RATE_LIMIT", "120")
	t.Setenv("SP_SERVER_CORS_ORIGINS", "https://a.example,https://b.example")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 120, cfg.Server.RateLimitPerMinute)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)

	t.Setenv("SP_SERVER_RATE_LIMIT", "-1")
	_, err = Load("")
	assert.Error(t, err)
}
