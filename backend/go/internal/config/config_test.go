package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, ModeGated, cfg.Decision.Mode)
	assert.Equal(t, 0, cfg.Decision.Medication.OverlapGapDays)
	assert.Equal(t, 7, cfg.Decision.Medication.SplitGapDays)
	assert.Equal(t, 14, cfg.Decision.Symptom.OverlapGapDays)
	assert.Equal(t, ThresholdConfig{Update: 0.78, Merge: 0.74}, cfg.Decision.Symptom.Risk)
	assert.Equal(t, 360*24*time.Hour, cfg.Decision.Lookback())
	assert.Equal(t, []string{"medical_statements", "memory_decisions"}, cfg.Databases.Kafka.Topics())

	timeout, err := cfg.CircuitBreaker.TimeoutDuration()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, timeout)
	assert.Equal(t, uint32(5), cfg.CircuitBreaker.FailureThreshold)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
app:
  name: memory_service
logger:
  level: debug
decision:
  mode: rule
  sessionTTL: 2h
  medication:
    overlapGapDays: 1
    splitGapDays: 10
databases:
  sql:
    driver: mysql
    mysql:
      address: localhost:3306
  kafka:
    brokers: ["localhost:9092"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, ModeRule, cfg.Decision.Mode)
	assert.Equal(t, 1, cfg.Decision.Medication.OverlapGapDays)
	assert.Equal(t, 10, cfg.Decision.Medication.SplitGapDays)
	assert.Equal(t, ThresholdConfig{Update: 0.75, Merge: 0.70}, cfg.Decision.Medication.Normal)
	assert.Equal(t, 14, cfg.Decision.Symptom.SplitGapDays)
	assert.Equal(t, "mysql", cfg.Databases.SQL.Driver)
	assert.Equal(t, "memory-service", cfg.Databases.Kafka.GroupID)

	ttl, err := cfg.Decision.SessionTTLDuration()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, ttl)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	tests := map[string]string{
		"bad yaml":       "decision: [",
		"unknown mode":   "decision:\n  mode: fuzzy\n",
		"unknown driver": "databases:\n  sql:\n    driver: oracle\n",
		"bad ttl":        "decision:\n  sessionTTL: soon\n",
		"bad breaker":    "circuitBreaker:\n  timeout: later\n",
		"risk below normal": `
decision:
  symptom:
    normal: {update: 0.9, merge: 0.9}
    risk: {update: 0.5, merge: 0.5}
`,
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(content))
			assert.Error(t, err)
		})
	}
}
