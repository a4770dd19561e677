package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	goopenai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/joseph-ayodele/invoice-extractor/internal/core/llm"
)

// Client implements llm.StructuredExtractor against any OpenAI-compatible
// chat/completions endpoint. It is safe for concurrent use.
type Client struct {
	cfg     Config
	api     *goopenai.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	cfg = cfg.withDefaults()

	apiCfg := goopenai.DefaultConfig(cfg.APIKey)
	apiCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	apiCfg.HTTPClient = newHTTPClient(cfg)

	return &Client{
		cfg:     cfg,
		api:     goopenai.NewClientWithConfig(apiCfg),
		limiter: newLimiter(cfg),
		logger:  defaultLogger(logger),
	}
}

var errNoChoices = errors.New("no choices in completion response")

// ExtractStructured runs up to 1+MaxRetries attempts. Transport and parse
// failures are retried; exhaustion is reported in the Outcome.
func (c *Client) ExtractStructured(ctx context.Context, req llm.ExtractRequest) llm.Outcome {
	rid := uuid.New().String()
	start := time.Now()

	retries := req.MaxRetries
	if retries < 0 {
		retries = c.cfg.MaxRetries
	}
	attempts := 1 + retries

	c.logger.Info("llm.extract.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"text_len", len(req.Text),
		"filename", req.Filename,
		"max_attempts", attempts,
	)

	chatReq := goopenai.ChatCompletionRequest{
		Model:       c.cfg.Model,
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
		Stop:        c.cfg.Stop,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: llm.BuildSystemPrompt()},
			{Role: goopenai.ChatMessageRoleUser, Content: llm.BuildUserPrompt(req, c.cfg.MaxContentChars)},
		},
	}

	out := llm.Outcome{Failure: llm.FailureTransport}
	for attempt := 1; attempt <= attempts; attempt++ {
		out.Attempts = attempt
		if attempt > 1 {
			if err := sleepCtx(ctx, c.cfg.RetryDelay); err != nil {
				out.Err = err
				break
			}
		}
		if err := c.limiter.Wait(ctx); err != nil {
			out.Failure, out.Err = llm.FailureTransport, err
			break
		}

		content, err := c.complete(ctx, chatReq)
		if err != nil {
			out.Failure, out.Err, out.Raw = llm.FailureTransport, err, nil
			if errors.Is(err, errNoChoices) {
				out.Failure = llm.FailureParse
			}
			c.logger.Warn("llm.extract.request_error",
				"req_id", rid, "attempt", attempt, "kind", out.Failure, "error", err,
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			if ctx.Err() != nil {
				break
			}
			continue
		}

		payload, raw, err := llm.ParsePayload([]byte(content), c.logger)
		if err != nil {
			out.Failure, out.Err, out.Raw = llm.FailureParse, err, raw
			if errors.Is(err, llm.ErrEmptyPayload) {
				out.Failure = llm.FailureEmpty
			}
			c.logger.Warn("llm.extract.parse_error",
				"req_id", rid, "attempt", attempt, "kind", out.Failure, "error", err,
				"content_len", len(content),
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			continue
		}

		c.logger.Info("llm.extract.ok",
			"req_id", rid,
			"attempt", attempt,
			"fields", payload.PopulatedFields(),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.Outcome{Payload: payload, Raw: raw, Attempts: attempt}
	}

	c.logger.Error("llm.extract.exhausted",
		"req_id", rid, "attempts", out.Attempts, "kind", out.Failure, "error", out.Err,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out
}

func (c *Client) complete(ctx context.Context, req goopenai.ChatCompletionRequest) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	resp, err := c.api.CreateChatCompletion(attemptCtx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errNoChoices
	}
	return resp.Choices[0].Message.Content, nil
}

// Ping checks that the endpoint answers a model listing.
func (c *Client) Ping(ctx context.Context) ([]string, error) {
	pingCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	list, err := c.api.ListModels(pingCtx)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	ids := make([]string, 0, len(list.Models))
	for _, m := range list.Models {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
