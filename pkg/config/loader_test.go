package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/probably/pkg/config"
)

const (
	testSampleCount = 5000
	testWorkers     = 8
	testSeed        = 1234
	testMaxIters    = 500
	testMaxSamples  = 20000
	testSampleRatio = 0.25
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	cfgPath := filepath.Join(t.TempDir(), ".probably.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0o600))

	return cfgPath
}

func TestLoadConfig_EmptyFile_UsesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadConfig(writeConfig(t, ""))
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, config.DefaultSamplingCount, cfg.Sampling.Count)
	assert.Equal(t, config.DefaultSamplingWorkers, cfg.Sampling.Workers)
	assert.Equal(t, uint64(config.DefaultSamplingSeed), cfg.Sampling.Seed)
	assert.Equal(t, config.DefaultSamplingMaxIters, cfg.Sampling.MaxIters)
	assert.Equal(t, config.DefaultLoggingLevel, cfg.Logging.Level)
	assert.Equal(t, config.DefaultLoggingJSON, cfg.Logging.JSON)
	assert.Equal(t, config.DefaultServerAddr, cfg.Server.Addr)
	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, time.Minute, cfg.Server.WriteTimeout)
	assert.Equal(t, config.DefaultServerMaxSampleCount, cfg.Server.MaxSampleCount)
	assert.Empty(t, cfg.Telemetry.OTLPEndpoint)
}

func TestLoadConfig_ValidFile_Unmarshals(t *testing.T) {
	t.Parallel()

	content := `sampling:
  count: 5000
  workers: 8
  seed: 1234
  max_iters: 500
logging:
  level: debug
  json: true
server:
  addr: "127.0.0.1:9090"
  read_timeout: 2s
  max_sample_count: 20000
telemetry:
  otlp_endpoint: "localhost:4317"
  otlp_insecure: true
  sample_ratio: 0.25
  environment: staging
`

	cfg, err := config.LoadConfig(writeConfig(t, content))
	require.NoError(t, err)

	assert.Equal(t, testSampleCount, cfg.Sampling.Count)
	assert.Equal(t, testWorkers, cfg.Sampling.Workers)
	assert.Equal(t, uint64(testSeed), cfg.Sampling.Seed)
	assert.Equal(t, testMaxIters, cfg.Sampling.MaxIters)
	assert.True(t, cfg.Logging.JSON)
	assert.Equal(t, "127.0.0.1:9090", cfg.Server.Addr)
	assert.Equal(t, 2*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, testMaxSamples, cfg.Server.MaxSampleCount)
	assert.Equal(t, "localhost:4317", cfg.Telemetry.OTLPEndpoint)
	assert.True(t, cfg.Telemetry.OTLPInsecure)
	assert.InDelta(t, testSampleRatio, cfg.Telemetry.SampleRatio, 1e-9)
	assert.Equal(t, "staging", cfg.Telemetry.Environment)

	level, err := cfg.Logging.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("PROBABLY_SAMPLING_COUNT", "777")
	t.Setenv("PROBABLY_LOGGING_LEVEL", "warn")

	cfg, err := config.LoadConfig(writeConfig(t, "sampling:\n  count: 5\n"))
	require.NoError(t, err)

	assert.Equal(t, 777, cfg.Sampling.Count)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadConfig_MalformedYAML_ReturnsError(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadConfig(writeConfig(t, "sampling:\n  count: [invalid yaml\n"))
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "read config")
}

func TestLoadConfig_InvalidValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{name: "zero_count", content: "sampling:\n  count: 0\n", wantErr: config.ErrInvalidSampleCount},
		{name: "negative_workers", content: "sampling:\n  workers: -1\n", wantErr: config.ErrInvalidWorkers},
		{name: "zero_max_iters", content: "sampling:\n  max_iters: 0\n", wantErr: config.ErrInvalidMaxIters},
		{name: "bad_level", content: "logging:\n  level: loud\n", wantErr: config.ErrInvalidLogLevel},
		{name: "ratio_above_one", content: "telemetry:\n  sample_ratio: 1.5\n", wantErr: config.ErrInvalidSampleRatio},
		{name: "zero_server_limit", content: "server:\n  max_sample_count: 0\n", wantErr: config.ErrInvalidServerLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg, err := config.LoadConfig(writeConfig(t, tt.content))
			require.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, cfg)
		})
	}
}

func TestLoadConfig_UnknownKeys_NoError(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadConfig(writeConfig(t, "unknown_section:\n  key: value\nsampling:\n  workers: 4\n"))
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Sampling.Workers)
}
