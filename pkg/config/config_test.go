package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestDefaultIsValid(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)
	require.NoError(t, c.Validate())

	assert.Equal(t, "QQQ", c.Strategy.Bull)
	assert.Equal(t, []string{"TLT", "IEF"}, c.Strategy.Bear)
	assert.Equal(t, 1260, c.Strategy.Lookback)
	assert.Equal(t, 120*time.Minute, c.Schedule.Delay)
	assert.InDelta(t, 2.0/51, c.EMAFactor(), 1e-12)
}

func TestLoadOverlaysFile(t *testing.T) {
	p := writeConfig(t, `
environment: production
strategy:
  bull: SPY
  bear: [GLD]
execution:
  initial_cash: 5000
`)
	c, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "production", c.Environment)
	assert.Equal(t, "SPY", c.Strategy.Bull)
	assert.Equal(t, []string{"GLD"}, c.Strategy.Bear)
	assert.Equal(t, 5000.0, c.Execution.InitialCash)
	assert.Equal(t, 45, c.Strategy.Trailing)
}

func TestLoadRejectsKafkaFeedWithoutBrokers(t *testing.T) {
	p := writeConfig(t, "feed:\n  type: kafka\n")
	_, err := Load(p)
	assert.ErrorContains(t, err, "kafka.brokers")
}

func TestLoadRejectsBadEnum(t *testing.T) {
	p := writeConfig(t, "execution:\n  mode: live\n")
	_, err := Load(p)
	assert.Error(t, err)
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "a:9092,b:9092")
	t.Setenv("BEAR_TICKERS", "TLT,SHY")
	t.Setenv("REDIS_ADDR", "cache:6379")

	c, err := LoadWithEnv("")
	require.NoError(t, err)
	assert.Equal(t, []string{"a:9092", "b:9092"}, c.Kafka.Brokers)
	assert.Equal(t, []string{"TLT", "SHY"}, c.Strategy.Bear)
	assert.True(t, c.Redis.Enabled)
	assert.Equal(t, "cache:6379", c.Redis.Addr)
}
