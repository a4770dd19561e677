package openai

import (
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/joseph-ayodele/invoice-extractor/internal/common"
)

// Config for the OpenAI-compatible client.
type Config struct {
	APIKey            string // optional for self-hosted servers such as vLLM
	BaseURL           string // e.g. http://localhost:8000/v1
	Model             string
	Temperature       float32
	MaxTokens         int
	Stop              []string
	Timeout           time.Duration // per attempt
	MaxRetries        int           // extra attempts after the first
	RetryDelay        time.Duration
	RequestsPerSecond float64 // <= 0 disables pacing
	Burst             int
	MaxContentChars   int // document text cap, in runes
}

// ConfigFromCommon maps the application config section onto the client config.
func ConfigFromCommon(c common.CompletionConfig) Config {
	return Config{
		APIKey:            c.APIKey,
		BaseURL:           c.BaseURL,
		Model:             c.Model,
		Temperature:       c.Temperature,
		MaxTokens:         c.MaxTokens,
		Stop:              c.Stop,
		Timeout:           c.Timeout,
		MaxRetries:        c.MaxRetries,
		RetryDelay:        c.RetryDelay,
		RequestsPerSecond: c.RequestsPerSecond,
		Burst:             c.Burst,
		MaxContentChars:   c.MaxContentChars,
	}
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = "http://localhost:8000/v1"
	}
	if c.Model == "" {
		c.Model = "default"
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = 1000
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.Burst <= 0 {
		c.Burst = 1
	}
	if c.MaxContentChars <= 0 {
		c.MaxContentChars = 4000
	}
	return c
}

func newLimiter(c Config) *rate.Limiter {
	if c.RequestsPerSecond <= 0 {
		return rate.NewLimiter(rate.Inf, c.Burst)
	}
	return rate.NewLimiter(rate.Limit(c.RequestsPerSecond), c.Burst)
}

func newHTTPClient(c Config) *http.Client {
	// a little headroom over the per-attempt context deadline
	return &http.Client{Timeout: c.Timeout + 5*time.Second}
}

func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
