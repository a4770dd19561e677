package common

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/joseph-ayodele/invoice-extractor/constants"
)

// Config holds all application configuration
type Config struct {
	Completion CompletionConfig `yaml:"completion"`
	Processing ProcessingConfig `yaml:"processing"`
	Extraction ExtractionConfig `yaml:"extraction"`
	Quality    QualityConfig    `yaml:"quality"`
	Store      StoreConfig      `yaml:"store"`
	Server     ServerConfig     `yaml:"server"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// CompletionConfig configures the OpenAI-compatible completion endpoint.
type CompletionConfig struct {
	Enabled           bool          `yaml:"enabled"`
	BaseURL           string        `yaml:"base_url"`
	APIKey            string        `yaml:"api_key"`
	Model             string        `yaml:"model"`
	Temperature       float32       `yaml:"temperature"`
	MaxTokens         int           `yaml:"max_tokens"`
	Stop              []string      `yaml:"stop"`
	Timeout           time.Duration `yaml:"timeout"`
	MaxRetries        int           `yaml:"max_retries"`
	RetryDelay        time.Duration `yaml:"retry_delay"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Burst             int           `yaml:"burst"`
	MaxContentChars   int           `yaml:"max_content_chars"`
}

// ProcessingConfig holds orchestrator and batch settings
type ProcessingConfig struct {
	TruncateLength int                   `yaml:"truncate_length"`
	MergePolicy    constants.MergePolicy `yaml:"merge_policy"`
	Workers        int                   `yaml:"workers"`
	QueueSize      int                   `yaml:"queue_size"`
	JobTimeout     time.Duration         `yaml:"job_timeout"`
}

// ExtractionConfig tunes the pattern-based extractor.
type ExtractionConfig struct {
	ClientScanLines int      `yaml:"client_scan_lines"`
	MinLineItems    int      `yaml:"min_line_items"`
	IssuerNames     []string `yaml:"issuer_names"`
}

// QualityConfig holds plausibility thresholds
type QualityConfig struct {
	MinConfidence float64 `yaml:"min_confidence"`
	MaxAmount     float64 `yaml:"max_amount"`
}

// StoreConfig selects the results store
type StoreConfig struct {
	Driver          string        `yaml:"driver"`
	DSN             string        `yaml:"dsn"`
	MaxConns        int32         `yaml:"max_conns"`
	MinConns        int32         `yaml:"min_conns"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
	DialTimeout     time.Duration `yaml:"dial_timeout"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	BodyLimit    string        `yaml:"body_limit"`
}

// LoggingConfig selects slog handler and level
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

const (
	StoreDriverSQLite   = "sqlite"
	StoreDriverPostgres = "postgres"
)

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Completion: CompletionConfig{
			Enabled:           true,
			BaseURL:           "http://localhost:8000/v1",
			Model:             "mistral-7b-instruct",
			Temperature:       0.1,
			MaxTokens:         1000,
			Stop:              []string{"</json>"},
			Timeout:           30 * time.Second,
			MaxRetries:        3,
			RetryDelay:        time.Second,
			RequestsPerSecond: 5,
			Burst:             1,
			MaxContentChars:   4000,
		},
		Processing: ProcessingConfig{
			TruncateLength: 2000,
			MergePolicy:    constants.MergeNone,
			Workers:        4,
			QueueSize:      64,
			JobTimeout:     3 * time.Minute,
		},
		Extraction: ExtractionConfig{
			ClientScanLines: 10,
			MinLineItems:    2,
			IssuerNames:     []string{"UPC"},
		},
		Quality: QualityConfig{
			MinConfidence: 0.5,
			MaxAmount:     100000,
		},
		Store: StoreConfig{
			Driver:          StoreDriverSQLite,
			DSN:             "file:invoices.db?_pragma=busy_timeout(5000)",
			MaxConns:        10,
			MinConns:        1,
			MaxConnLifetime: 30 * time.Minute,
			DialTimeout:     3 * time.Second,
		},
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 3 * time.Minute,
			BodyLimit:    "2M",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfig builds the configuration from defaults, an optional YAML or JSON
// file, an optional .env file and finally the process environment.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}
	cfg.applyEnv()
	return cfg, nil
}

// LoadConfigFile reads a YAML or JSON file on top of the defaults, without env overrides.
func LoadConfigFile(path string) (*Config, error) {
	cfg := DefaultConfig()
	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return WrapError(err, "read config file")
	}
	// YAML is a superset of JSON, one decoder covers both formats.
	if err := yaml.Unmarshal(data, c); err != nil {
		return NewAppError("CONFIG_ERROR", fmt.Sprintf("parse %s", filepath.Base(path)), err)
	}
	return nil
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return WrapError(err, "load .env")
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Completion.Enabled = getEnvAsBool("LLM_ENABLED", c.Completion.Enabled)
	c.Completion.BaseURL = getEnv("LLM_BASE_URL", c.Completion.BaseURL)
	c.Completion.APIKey = getEnv("LLM_API_KEY", getEnv("OPENAI_API_KEY", c.Completion.APIKey))
	c.Completion.Model = getEnv("LLM_MODEL", c.Completion.Model)
	c.Completion.Temperature = getEnvAsFloat32("LLM_TEMPERATURE", c.Completion.Temperature)
	c.Completion.MaxTokens = getEnvAsInt("LLM_MAX_TOKENS", c.Completion.MaxTokens)
	c.Completion.Timeout = getEnvAsDuration("LLM_TIMEOUT", c.Completion.Timeout)
	c.Completion.MaxRetries = getEnvAsInt("LLM_MAX_RETRIES", c.Completion.MaxRetries)
	c.Completion.RetryDelay = getEnvAsDuration("LLM_RETRY_DELAY", c.Completion.RetryDelay)
	c.Completion.RequestsPerSecond = getEnvAsFloat64("LLM_REQUESTS_PER_SECOND", c.Completion.RequestsPerSecond)

	c.Processing.TruncateLength = getEnvAsInt("TRUNCATE_LENGTH", c.Processing.TruncateLength)
	c.Processing.MergePolicy = constants.MergePolicy(getEnv("MERGE_POLICY", string(c.Processing.MergePolicy)))
	c.Processing.Workers = getEnvAsInt("WORKERS", c.Processing.Workers)
	c.Processing.JobTimeout = getEnvAsDuration("JOB_TIMEOUT", c.Processing.JobTimeout)

	c.Extraction.ClientScanLines = getEnvAsInt("CLIENT_SCAN_LINES", c.Extraction.ClientScanLines)
	c.Extraction.IssuerNames = getEnvAsList("ISSUER_NAMES", c.Extraction.IssuerNames)

	c.Quality.MinConfidence = getEnvAsFloat64("QUALITY_MIN_CONFIDENCE", c.Quality.MinConfidence)
	c.Quality.MaxAmount = getEnvAsFloat64("QUALITY_MAX_AMOUNT", c.Quality.MaxAmount)

	c.Store.Driver = getEnv("STORE_DRIVER", c.Store.Driver)
	c.Store.DSN = getEnv("DB_URL", c.Store.DSN)
	c.Store.MaxConns = getEnvAsInt32("DB_MAX_CONNS", c.Store.MaxConns)
	c.Store.MinConns = getEnvAsInt32("DB_MIN_CONNS", c.Store.MinConns)

	c.Server.Addr = getEnv("HTTP_ADDR", c.Server.Addr)

	c.Logging.Level = getEnv("LOG_LEVEL", c.Logging.Level)
	c.Logging.Format = getEnv("LOG_FORMAT", c.Logging.Format)
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	v := NewValidator()

	if c.Completion.Enabled {
		v.Field("completion.base_url", c.Completion.BaseURL, Required)
		v.Field("completion.model", c.Completion.Model, Required)
		v.Field("completion.temperature", float64(c.Completion.Temperature), Between(0, 2))
		v.Field("completion.max_tokens", c.Completion.MaxTokens, Positive)
		v.Field("completion.timeout", c.Completion.Timeout, Positive)
		v.Field("completion.max_retries", c.Completion.MaxRetries, Between(0, 10))
		v.Field("completion.requests_per_second", c.Completion.RequestsPerSecond, Positive)
		v.Field("completion.max_content_chars", c.Completion.MaxContentChars, Positive)
	}

	v.Field("processing.truncate_length", c.Processing.TruncateLength, Positive)
	v.Field("processing.merge_policy", string(c.Processing.MergePolicy),
		OneOf(string(constants.MergeNone), string(constants.MergeFillGaps)))
	v.Field("processing.workers", c.Processing.Workers, Positive)
	v.Field("processing.job_timeout", c.Processing.JobTimeout, Positive)

	v.Field("extraction.client_scan_lines", c.Extraction.ClientScanLines, Positive)
	v.Field("extraction.min_line_items", c.Extraction.MinLineItems, Positive)

	v.Field("quality.min_confidence", c.Quality.MinConfidence, Between(0, 1))
	v.Field("quality.max_amount", c.Quality.MaxAmount, Positive)

	v.Field("store.driver", c.Store.Driver, OneOf(StoreDriverSQLite, StoreDriverPostgres))
	v.Field("store.dsn", c.Store.DSN, Required)

	v.Field("server.addr", c.Server.Addr, Required)
	v.Field("logging.level", strings.ToLower(c.Logging.Level), OneOf("debug", "info", "warn", "error"))
	v.Field("logging.format", strings.ToLower(c.Logging.Format), OneOf("text", "json"))

	if v.HasErrors() {
		return NewAppError("CONFIG_ERROR", v.ErrorMessage(), ErrValidation)
	}
	return nil
}
