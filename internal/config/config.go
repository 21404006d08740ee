package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix namespaces every environment variable read by Load
const EnvPrefix = "FEATUREPIPE"

// DefaultConfigFiles are probed in order when Load is given no explicit path
var DefaultConfigFiles = []string{"featurepipe.yaml", "config/featurepipe.yaml"}

// Config represents the complete application configuration
type Config struct {
	Pipeline  PipelineConfig  `yaml:"pipeline" envconfig:"PIPELINE"`
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// PipelineConfig controls a batch run of the feature stages
type PipelineConfig struct {
	InputFile      string            `yaml:"input_file" envconfig:"INPUT_FILE" validate:"required"`
	OutputDir      string            `yaml:"output_dir" envconfig:"OUTPUT_DIR" validate:"required"`
	Sheet          string            `yaml:"sheet" envconfig:"SHEET"`
	Delimiter      string            `yaml:"delimiter" envconfig:"DELIMITER" validate:"omitempty,len=1"`
	Stages         []string          `yaml:"stages" envconfig:"STAGES" validate:"omitempty,unique,dive,oneof=derive encode bin time anomaly"`
	Outputs        map[string]string `yaml:"outputs" envconfig:"OUTPUTS" validate:"omitempty,dive,keys,oneof=derive encode bin time anomaly,endkeys,required,excludesall=/"`
	ExecutionMode  string            `yaml:"execution_mode" envconfig:"EXECUTION_MODE" validate:"oneof=sequential parallel"`
	MaxConcurrency int               `yaml:"max_concurrency" envconfig:"MAX_CONCURRENCY" validate:"gte=1,lte=16"`
	StageTimeout   time.Duration     `yaml:"stage_timeout" envconfig:"STAGE_TIMEOUT" validate:"gt=0"`
	WriteBOM       bool              `yaml:"write_bom" envconfig:"WRITE_BOM"`
	// Today pins the reference date of the time stage, formatted 2006-01-02.
	// Empty means the wall clock.
	Today string `yaml:"today" envconfig:"TODAY" validate:"omitempty,datetime=2006-01-02"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int             `yaml:"port" envconfig:"PORT" validate:"gte=1,lte=65535"`
	ReadTimeout     time.Duration   `yaml:"read_timeout" envconfig:"READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout    time.Duration   `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" validate:"gt=0"`
	IdleTimeout     time.Duration   `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" validate:"gt=0"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" validate:"gt=0"`
	MaxBodyBytes    int64           `yaml:"max_body_bytes" envconfig:"MAX_BODY_BYTES" validate:"gt=0"`
	RateLimit       RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" validate:"gt=0"`
	Burst   int     `yaml:"burst" envconfig:"BURST" validate:"gte=1"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format   string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" validate:"required_unless=Output console"`
}

// TelemetryConfig selects the OpenTelemetry exporters
type TelemetryConfig struct {
	ServiceName    string  `yaml:"service_name" envconfig:"SERVICE_NAME" validate:"required"`
	Environment    string  `yaml:"environment" envconfig:"ENVIRONMENT"`
	TraceExporter  string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=stdout none"`
	MetricExporter string  `yaml:"metric_exporter" envconfig:"METRIC_EXPORTER" validate:"oneof=prometheus none"`
	SampleRatio    float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" validate:"gte=0,lte=1"`
}

// Default returns the configuration used when no file or environment
// overrides are present
func Default() *Config {
	return &Config{
		Pipeline: PipelineConfig{
			InputFile:      "employee_data.csv",
			OutputDir:      ".",
			Delimiter:      ",",
			ExecutionMode:  "sequential",
			MaxConcurrency: 4,
			StageTimeout:   5 * time.Minute,
		},
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			MaxBodyBytes:    32 << 20,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     20,
				Burst:   40,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/featurepipe.log",
		},
		Telemetry: TelemetryConfig{
			ServiceName:    "featurepipe",
			Environment:    "development",
			TraceExporter:  "none",
			MetricExporter: "prometheus",
			SampleRatio:    1,
		},
	}
}

// Load builds the configuration from defaults, then the YAML file at path
// (or the first of DefaultConfigFiles that exists when path is empty), then
// FEATUREPIPE_* environment variables. The result is validated.
func Load(path string) (*Config, error) {
	cfg := Default()

	file, err := resolveFile(path)
	if err != nil {
		return nil, err
	}
	if file != "" {
		if err := loadFromFile(file, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file %s: %w", file, err)
		}
	}

	// envconfig only touches variables that are set, so file values survive
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func resolveFile(path string) (string, error) {
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("config file %s: %w", path, err)
		}
		return path, nil
	}
	for _, candidate := range DefaultConfigFiles {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", nil
}

// loadFromFile overlays the YAML document onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.UnmarshalStrict(data, cfg)
}

var validate = validator.New()

// Validate checks every field constraint
func (c *Config) Validate() error {
	return validate.Struct(c)
}

// OutputName returns the file name configured for a stage, or fallback
func (p PipelineConfig) OutputName(stage, fallback string) string {
	if name, ok := p.Outputs[stage]; ok && name != "" {
		return name
	}
	return fallback
}

// StageEnabled reports whether a stage should run. An empty list enables all.
func (p PipelineConfig) StageEnabled(stage string) bool {
	if len(p.Stages) == 0 {
		return true
	}
	for _, s := range p.Stages {
		if s == stage {
			return true
		}
	}
	return false
}

// ReferenceDate parses Today. The second result is false when unset.
func (p PipelineConfig) ReferenceDate() (time.Time, bool) {
	if p.Today == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", p.Today)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Comma returns the delimiter as a rune, defaulting to ','
func (p PipelineConfig) Comma() rune {
	if p.Delimiter == "" {
		return ','
	}
	return []rune(p.Delimiter)[0]
}
