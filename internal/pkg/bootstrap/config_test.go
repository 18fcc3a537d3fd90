package bootstrap

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
app:
  port: 9000
  cartTTL: 2h
infra:
  database:
    driver: postgres
    host: db.internal
  kafka:
    enabled: true
    brokers: ["k1:9092", "k2:9092"]
`), 0o600))

	t.Setenv("DB_HOST", "override.internal")
	t.Setenv("APP_PORT", "9100")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.App.Port)
	assert.Equal(t, 2*time.Hour, cfg.App.CartTTL)
	assert.Equal(t, "postgres", cfg.Infra.Database.Driver)
	assert.Equal(t, "override.internal", cfg.Infra.Database.Host)
	assert.True(t, cfg.Infra.Kafka.Enabled)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Infra.Kafka.Brokers)
	// 未出现在文件中的字段保持默认值
	assert.Equal(t, "configurations.created", cfg.Infra.Kafka.ConfigurationTopic)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().App.Port, cfg.App.Port)
}

func TestLoad_BadEnv(t *testing.T) {
	t.Setenv("KAFKA_ENABLED", "sometimes")
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "KAFKA_ENABLED")
}

func TestSetCurrentConfig(t *testing.T) {
	orig := GetCurrentConfig()
	defer SetCurrentConfig(orig)

	cfg := DefaultConfig()
	cfg.App.Name = "test"
	SetCurrentConfig(cfg)
	assert.Equal(t, "test", GetCurrentConfig().App.Name)
}
