package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Kafka struct {
		Brokers     []string      `env:"BROKERS,default=localhost:9092" yaml:"brokers"`
		GroupID     string        `env:"GROUP_ID,default=group" yaml:"group_id"`
		DialTimeout time.Duration `env:"DIAL_TIMEOUT,default=10s" yaml:"dial_timeout"`
	} `env:",prefix=KAFKA_" yaml:"kafka"`
	CronSpecs string `env:"CRON_SPECS,default=@hourly" yaml:"cron_specs"`
}

func writeFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		var cfg testConfig
		lookuper := envconfig.MapLookuper(map[string]string{
			// avoid picking up a config.yaml from the working directory
			EnvFile: "",
		})
		err := load(testContext(t), lookuper, filepath.Join(t.TempDir(), "missing.yaml"), &cfg)
		require.Error(t, err, "an explicit path must exist")

		err = load(testContext(t), lookuper, writeFile(t, ""), &cfg)
		require.NoError(t, err)
		assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
		assert.Equal(t, "group", cfg.Kafka.GroupID)
		assert.Equal(t, 10*time.Second, cfg.Kafka.DialTimeout)
		assert.Equal(t, "@hourly", cfg.CronSpecs)
	})

	t.Run("env only", func(t *testing.T) {
		t.Parallel()

		var cfg testConfig
		lookuper := envconfig.MapLookuper(map[string]string{
			"KAFKA_BROKERS":  "kafka-1:9092,kafka-2:9092",
			"KAFKA_GROUP_ID": "checker",
		})
		err := load(testContext(t), lookuper, writeFile(t, ""), &cfg)
		require.NoError(t, err)
		assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
		assert.Equal(t, "checker", cfg.Kafka.GroupID)
	})

	t.Run("file overrides env", func(t *testing.T) {
		t.Parallel()

		path := writeFile(t, `
kafka:
  brokers:
    - broker:29092
  dial_timeout: 3s
cron_specs: "@every 5m"
`)
		var cfg testConfig
		lookuper := envconfig.MapLookuper(map[string]string{
			"KAFKA_BROKERS":  "kafka-1:9092",
			"KAFKA_GROUP_ID": "checker",
		})
		err := load(testContext(t), lookuper, path, &cfg)
		require.NoError(t, err)
		assert.Equal(t, []string{"broker:29092"}, cfg.Kafka.Brokers)
		assert.Equal(t, "checker", cfg.Kafka.GroupID, "values missing from the file should be kept")
		assert.Equal(t, 3*time.Second, cfg.Kafka.DialTimeout)
		assert.Equal(t, "@every 5m", cfg.CronSpecs)
	})

	t.Run("file from env", func(t *testing.T) {
		t.Parallel()

		path := writeFile(t, "cron_specs: \"@daily\"\n")
		var cfg testConfig
		lookuper := envconfig.MapLookuper(map[string]string{
			EnvFile: path,
		})
		err := load(testContext(t), lookuper, "", &cfg)
		require.NoError(t, err)
		assert.Equal(t, "@daily", cfg.CronSpecs)
	})

	t.Run("unknown field", func(t *testing.T) {
		t.Parallel()

		path := writeFile(t, "kafka:\n  brokerz: [nope]\n")
		var cfg testConfig
		err := load(testContext(t), envconfig.MapLookuper(nil), path, &cfg)
		require.Error(t, err)
		assert.ErrorContains(t, err, "decode yaml")
	})

	t.Run("invalid env", func(t *testing.T) {
		t.Parallel()

		var cfg testConfig
		lookuper := envconfig.MapLookuper(map[string]string{
			"KAFKA_DIAL_TIMEOUT": "soon",
		})
		err := load(testContext(t), lookuper, writeFile(t, ""), &cfg)
		require.Error(t, err)
		assert.ErrorContains(t, err, "parse the env")
	})
}
