package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apperrors "remitcli/internal/errors"
)

// EnvPrefix namespaces every environment variable read by Load.
const EnvPrefix = "REMIT"

// Config represents the complete application configuration
type Config struct {
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Fetch     FetchConfig     `yaml:"fetch" envconfig:"FETCH"`
	Storage   StorageConfig   `yaml:"storage" envconfig:"STORAGE"`
	Metadata  MetadataConfig  `yaml:"metadata" envconfig:"METADATA"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
	Pipeline  PipelineConfig  `yaml:"pipeline" envconfig:"PIPELINE"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL" default:"info" validate:"oneof=debug info warn warning error"`
	Format      string `yaml:"format" envconfig:"FORMAT" default:"json" validate:"oneof=json text"`
	Output      string `yaml:"output" envconfig:"OUTPUT" default:"console" validate:"oneof=console file both"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/remitcli.log" validate:"required_unless=Output console"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT" default:"false"`
}

// FetchConfig controls how report documents are acquired.
type FetchConfig struct {
	Mode       string        `yaml:"mode" envconfig:"MODE" default:"static" validate:"oneof=static render"`
	Timeout    time.Duration `yaml:"timeout" envconfig:"TIMEOUT" default:"30s" validate:"gt=0"`
	RenderWait time.Duration `yaml:"render_wait" envconfig:"RENDER_WAIT" default:"15s" validate:"gt=0"`
	UserAgent  string        `yaml:"user_agent" envconfig:"USER_AGENT" default:"remitcli/1.0"`
	Headless   bool          `yaml:"headless" envconfig:"HEADLESS" default:"true"`
	ChromePath string        `yaml:"chrome_path" envconfig:"CHROME_PATH"`
	RateLimit  float64       `yaml:"rate_limit" envconfig:"RATE_LIMIT" default:"2" validate:"gt=0"`
	Burst      int           `yaml:"burst" envconfig:"BURST" default:"1" validate:"min=1"`
}

// StorageConfig selects and configures the output sink.
type StorageConfig struct {
	Backend               string `yaml:"backend" envconfig:"BACKEND" default:"local" validate:"oneof=local gcs azure"`
	Dir                   string `yaml:"dir" envconfig:"DIR" default:"data" validate:"required_if=Backend local"`
	Bucket                string `yaml:"bucket" envconfig:"BUCKET" validate:"required_if=Backend gcs"`
	CredentialsFile       string `yaml:"credentials_file" envconfig:"CREDENTIALS_FILE"`
	AzureConnectionString string `yaml:"azure_connection_string" envconfig:"AZURE_CONNECTION_STRING" validate:"required_if=Backend azure"`
	AzureContainer        string `yaml:"azure_container" envconfig:"AZURE_CONTAINER" validate:"required_if=Backend azure"`
	RawObject             string `yaml:"raw_object" envconfig:"RAW_OBJECT" default:"output_combined.xlsx" validate:"required"`
	CleanedObject         string `yaml:"cleaned_object" envconfig:"CLEANED_OBJECT" default:"cleaned_output_combined.xlsx" validate:"required"`
	Format                string `yaml:"format" envconfig:"FORMAT" default:"xlsx" validate:"oneof=xlsx csv"`
}

// MetadataConfig configures the upload side-record store.
type MetadataConfig struct {
	Driver   string `yaml:"driver" envconfig:"DRIVER" default:"sqlite" validate:"oneof=sqlite postgres none"`
	DSN      string `yaml:"dsn" envconfig:"DSN" default:"data/uploads.db" validate:"required_unless=Driver none"`
	Uploader string `yaml:"uploader" envconfig:"UPLOADER" default:"remitcli" validate:"required"`
}

// TelemetryConfig configures tracing and metrics export.
type TelemetryConfig struct {
	ServiceName   string `yaml:"service_name" envconfig:"SERVICE_NAME" default:"remitcli" validate:"required"`
	TraceExporter string `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" default:"none" validate:"oneof=stdout none"`
	MetricsFile   string `yaml:"metrics_file" envconfig:"METRICS_FILE"`
}

// PipelineConfig tunes the processing service.
type PipelineConfig struct {
	Concurrency       int  `yaml:"concurrency" envconfig:"CONCURRENCY" default:"4" validate:"min=1,max=64"`
	StrictPersistence bool `yaml:"strict_persistence" envconfig:"STRICT_PERSISTENCE" default:"false"`
}

// Load reads an optional .env file, then REMIT_* environment variables, then
// the first config.yaml found in the usual locations. Values set in the
// environment win over the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, apperrors.NewConfigError("failed to read .env", err)
	}
	return LoadFile(getConfigFilePath())
}

// LoadFile is Load without the .env step and with an explicit YAML path. An
// empty path skips the file.
func LoadFile(path string) (*Config, error) {
	var cfg Config

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to load config from env", err)
	}

	if path != "" {
		fileConfig, err := loadFromFile(path)
		if err != nil {
			return nil, apperrors.NewConfigError("failed to load config from file", err).WithContext("path", path)
		}
		mergeConfigs(&cfg, fileConfig)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadFromFile loads configuration from YAML file
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// mergeConfigs copies every non-zero file value into dst unless the matching
// environment variable is set. A false boolean in the file cannot override a
// true default.
func mergeConfigs(dst *Config, file *Config) {
	// Logging
	fromFile("LOGGING_LEVEL", file.Logging.Level, &dst.Logging.Level)
	fromFile("LOGGING_FORMAT", file.Logging.Format, &dst.Logging.Format)
	fromFile("LOGGING_OUTPUT", file.Logging.Output, &dst.Logging.Output)
	fromFile("LOGGING_FILE_PATH", file.Logging.FilePath, &dst.Logging.FilePath)
	fromFile("LOGGING_DEVELOPMENT", file.Logging.Development, &dst.Logging.Development)

	// Fetch
	fromFile("FETCH_MODE", file.Fetch.Mode, &dst.Fetch.Mode)
	fromFile("FETCH_TIMEOUT", file.Fetch.Timeout, &dst.Fetch.Timeout)
	fromFile("FETCH_RENDER_WAIT", file.Fetch.RenderWait, &dst.Fetch.RenderWait)
	fromFile("FETCH_USER_AGENT", file.Fetch.UserAgent, &dst.Fetch.UserAgent)
	fromFile("FETCH_HEADLESS", file.Fetch.Headless, &dst.Fetch.Headless)
	fromFile("FETCH_CHROME_PATH", file.Fetch.ChromePath, &dst.Fetch.ChromePath)
	fromFile("FETCH_RATE_LIMIT", file.Fetch.RateLimit, &dst.Fetch.RateLimit)
	fromFile("FETCH_BURST", file.Fetch.Burst, &dst.Fetch.Burst)

	// Storage
	fromFile("STORAGE_BACKEND", file.Storage.Backend, &dst.Storage.Backend)
	fromFile("STORAGE_DIR", file.Storage.Dir, &dst.Storage.Dir)
	fromFile("STORAGE_BUCKET", file.Storage.Bucket, &dst.Storage.Bucket)
	fromFile("STORAGE_CREDENTIALS_FILE", file.Storage.CredentialsFile, &dst.Storage.CredentialsFile)
	fromFile("STORAGE_AZURE_CONNECTION_STRING", file.Storage.AzureConnectionString, &dst.Storage.AzureConnectionString)
	fromFile("STORAGE_AZURE_CONTAINER", file.Storage.AzureContainer, &dst.Storage.AzureContainer)
	fromFile("STORAGE_RAW_OBJECT", file.Storage.RawObject, &dst.Storage.RawObject)
	fromFile("STORAGE_CLEANED_OBJECT", file.Storage.CleanedObject, &dst.Storage.CleanedObject)
	fromFile("STORAGE_FORMAT", file.Storage.Format, &dst.Storage.Format)

	// Metadata
	fromFile("METADATA_DRIVER", file.Metadata.Driver, &dst.Metadata.Driver)
	fromFile("METADATA_DSN", file.Metadata.DSN, &dst.Metadata.DSN)
	fromFile("METADATA_UPLOADER", file.Metadata.Uploader, &dst.Metadata.Uploader)

	// Telemetry
	fromFile("TELEMETRY_SERVICE_NAME", file.Telemetry.ServiceName, &dst.Telemetry.ServiceName)
	fromFile("TELEMETRY_TRACE_EXPORTER", file.Telemetry.TraceExporter, &dst.Telemetry.TraceExporter)
	fromFile("TELEMETRY_METRICS_FILE", file.Telemetry.MetricsFile, &dst.Telemetry.MetricsFile)

	// Pipeline
	fromFile("PIPELINE_CONCURRENCY", file.Pipeline.Concurrency, &dst.Pipeline.Concurrency)
	fromFile("PIPELINE_STRICT_PERSISTENCE", file.Pipeline.StrictPersistence, &dst.Pipeline.StrictPersistence)
}

func fromFile[T comparable](key string, value T, dst *T) {
	var zero T
	if value == zero {
		return
	}
	if _, set := os.LookupEnv(EnvPrefix + "_" + key); set {
		return
	}
	*dst = value
}

var validate = validator.New()

// Validate checks every section against its validation tags.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			first := fieldErrs[0]
			return apperrors.NewConfigError("config validation failed", err).
				WithContext("field", first.Namespace()).
				WithContext("rule", first.Tag())
		}
		return apperrors.NewConfigError("config validation failed", err)
	}
	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if p := os.Getenv(EnvPrefix + "_CONFIG_FILE"); p != "" {
		return p
	}

	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/remitcli.log",
		},
		Fetch: FetchConfig{
			Mode:       "static",
			Timeout:    30 * time.Second,
			RenderWait: 15 * time.Second,
			UserAgent:  "remitcli/1.0",
			Headless:   true,
			RateLimit:  2,
			Burst:      1,
		},
		Storage: StorageConfig{
			Backend:       "local",
			Dir:           "data",
			RawObject:     "output_combined.xlsx",
			CleanedObject: "cleaned_output_combined.xlsx",
			Format:        "xlsx",
		},
		Metadata: MetadataConfig{
			Driver:   "sqlite",
			DSN:      "data/uploads.db",
			Uploader: "remitcli",
		},
		Telemetry: TelemetryConfig{
			ServiceName:   "remitcli",
			TraceExporter: "none",
		},
		Pipeline: PipelineConfig{
			Concurrency: 4,
		},
	}
}

// String summarizes the configuration without secrets.
func (c *Config) String() string {
	return fmt.Sprintf("storage=%s format=%s metadata=%s fetch=%s concurrency=%d",
		c.Storage.Backend, c.Storage.Format, c.Metadata.Driver, c.Fetch.Mode, c.Pipeline.Concurrency)
}
