package bootstrap

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig_FileAndDefaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", writeConfig(t, `
app:
  port: 9000
  processing_timeout: 3s
infra:
  kafka:
    brokers: [kafka-1:9092, kafka-2:9092]
`))

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.App.Port)
	assert.Equal(t, 3*time.Second, cfg.App.ProcessingTimeout)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Infra.Kafka.Brokers)
	// 未出现在文件中的字段保留默认值
	assert.Equal(t, "order-events", cfg.Infra.Kafka.Topic)
	assert.Equal(t, 24*time.Hour, cfg.App.IdempotencyTTL)
	assert.Same(t, cfg, GetCurrentConfig())
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("APP_PORT", "7070")
	t.Setenv("MYSQL_DSN", "u:p@tcp(db:3306)/shop")
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092")
	t.Setenv("ZOOKEEPER_SERVERS", "zk:2181")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.App.Port)
	assert.Equal(t, "u:p@tcp(db:3306)/shop", cfg.Infra.MySQL.DSN)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Infra.Kafka.Brokers)
	assert.True(t, cfg.Infra.Zookeeper.Enabled)
	assert.Equal(t, []string{"zk:2181"}, cfg.Infra.Zookeeper.Servers)
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Setenv("CONFIG_PATH", writeConfig(t, "app:\n  processing_timeout: 0s\n"))
	_, err := LoadConfig()
	assert.Error(t, err)

	t.Setenv("CONFIG_PATH", writeConfig(t, "app: ["))
	_, err = LoadConfig()
	assert.Error(t, err)

	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("APP_PORT", "eighty")
	_, err = LoadConfig()
	assert.Error(t, err)
}
