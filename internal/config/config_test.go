package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "featurepipe.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "employee_data.csv", cfg.Pipeline.InputFile)
	assert.Equal(t, "sequential", cfg.Pipeline.ExecutionMode)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, ',', cfg.Pipeline.Comma())
}

func TestLoadFileOverlaysDefaults(t *testing.T) {
	path := writeConfigFile(t, `
pipeline:
  input_file: staff.csv
  output_dir: out
  execution_mode: parallel
  stages: [derive, bin]
  outputs:
    bin: bins.csv
  stage_timeout: 30s
  today: "2024-03-15"
server:
  port: 9000
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "staff.csv", cfg.Pipeline.InputFile)
	assert.Equal(t, "out", cfg.Pipeline.OutputDir)
	assert.Equal(t, "parallel", cfg.Pipeline.ExecutionMode)
	assert.Equal(t, []string{"derive", "bin"}, cfg.Pipeline.Stages)
	assert.Equal(t, 30*time.Second, cfg.Pipeline.StageTimeout)
	assert.Equal(t, 9000, cfg.Server.Port)
	// untouched sections keep their defaults
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 4, cfg.Pipeline.MaxConcurrency)

	assert.Equal(t, "bins.csv", cfg.Pipeline.OutputName("bin", "binned_ranges.csv"))
	assert.Equal(t, "derived.csv", cfg.Pipeline.OutputName("derive", "derived.csv"))
	assert.True(t, cfg.Pipeline.StageEnabled("bin"))
	assert.False(t, cfg.Pipeline.StageEnabled("anomaly"))

	today, ok := cfg.Pipeline.ReferenceDate()
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), today)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, `
pipeline:
  input_file: staff.csv
server:
  port: 9000
`)
	t.Setenv("FEATUREPIPE_SERVER_PORT", "9100")
	t.Setenv("FEATUREPIPE_PIPELINE_STAGES", "encode,time")
	t.Setenv("FEATUREPIPE_LOGGING_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "staff.csv", cfg.Pipeline.InputFile)
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, []string{"encode", "time"}, cfg.Pipeline.Stages)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown stage", "pipeline:\n  stages: [derive, scale]\n"},
		{"duplicate stage", "pipeline:\n  stages: [derive, derive]\n"},
		{"bad mode", "pipeline:\n  execution_mode: eventually\n"},
		{"bad today", "pipeline:\n  today: 15/03/2024\n"},
		{"wide delimiter", "pipeline:\n  delimiter: ';;'\n"},
		{"output path escapes", "pipeline:\n  outputs:\n    derive: ../x.csv\n"},
		{"unknown output stage", "pipeline:\n  outputs:\n    scale: x.csv\n"},
		{"port out of range", "server:\n  port: 70000\n"},
		{"bad log level", "logging:\n  level: loud\n"},
		{"file output without path", "logging:\n  output: file\n  file_path: ''\n"},
		{"unknown key", "pipeline:\n  input: x.csv\n"},
		{"sample ratio", "telemetry:\n  sample_ratio: 2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfigFile(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestReferenceDateUnset(t *testing.T) {
	_, ok := PipelineConfig{}.ReferenceDate()
	assert.False(t, ok)
}
