package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/next-trace/scg-mediator/internal/config"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	return path
}

func TestDefault(t *testing.T) {
	cfg := config.Default()

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, config.ExporterNone, cfg.Exporter.Kind)
	assert.Equal(t, 1, cfg.Exporter.Burst)
	assert.Equal(t, "nats://127.0.0.1:4222", cfg.Exporter.NATS.URL)
	assert.Equal(t, 5*time.Second, cfg.Exporter.RabbitMQ.ConnTimeout)
	assert.Equal(t, "mediator.events", cfg.Exporter.RabbitMQ.Exchange)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Exporter.Kafka.Brokers)
	require.NoError(t, config.ValidateConfig(cfg))
}

func TestLoadConfig_NoFile_UsesDefaults(t *testing.T) {
	cfg, err := config.LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoadConfig_FromFile(t *testing.T) {
	path := writeFile(t, "mediator.yaml", `
logging:
  level: debug
  format: json
exporter:
  kind: nats
  subject: audit.users
  rate_per_second: 20
  burst: 5
  nats:
    url: nats://broker:4222
    conn_timeout: 2s
`)

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, config.ExporterNATS, cfg.Exporter.Kind)
	assert.Equal(t, "audit.users", cfg.Exporter.Subject)
	assert.InDelta(t, 20.0, cfg.Exporter.RatePerSecond, 0.0001)
	assert.Equal(t, 5, cfg.Exporter.Burst)
	assert.Equal(t, "nats://broker:4222", cfg.Exporter.NATS.URL)
	assert.Equal(t, 2*time.Second, cfg.Exporter.NATS.ConnTimeout)
	assert.Equal(t, "mediatorctl", cfg.Exporter.NATS.Name)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "mediator.yaml", "exporter:\n  kind: nats\n")

	t.Setenv("MEDIATOR_EXPORTER_KIND", "kafka")
	t.Setenv("MEDIATOR_EXPORTER_KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("MEDIATOR_LOGGING_LEVEL", "warn")

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, config.ExporterKafka, cfg.Exporter.Kind)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Exporter.Kafka.Brokers)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadConfig_InvalidKind(t *testing.T) {
	path := writeFile(t, "mediator.yaml", "exporter:\n  kind: carrier-pigeon\n")

	_, err := config.LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
	assert.Contains(t, err.Error(), "oneof")
}

func TestLoadConfig_ExplicitMissingFile(t *testing.T) {
	_, err := config.LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestValidateConfig_EndpointRequiredForKind(t *testing.T) {
	cfg := config.Default()
	cfg.Exporter.Kind = config.ExporterKafka
	cfg.Exporter.Kafka.Brokers = nil

	err := config.ValidateConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required_for_kind")

	cfg.Exporter.Kind = config.ExporterMemory
	require.NoError(t, config.ValidateConfig(cfg))
}
