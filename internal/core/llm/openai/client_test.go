package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/invoice-extractor/internal/core/llm"
)

const validContent = "```json\n{\"invoice_number\": \"RE-1\", \"total_amount\": 86.26, \"currency\": \"CHF\"}\n```"

func completionBody(content string) []byte {
	b, _ := json.Marshal(map[string]any{
		"id":      "cmpl-1",
		"object":  "chat.completion",
		"created": 1,
		"model":   "test-model",
		"choices": []any{
			map[string]any{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": content},
				"finish_reason": "stop",
			},
		},
	})
	return b
}

// newTestServer answers each call with the next handler; the last one repeats.
func newTestServer(t *testing.T, hits *atomic.Int32, handlers ...http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(hits.Add(1))
		if n > len(handlers) {
			n = len(handlers)
		}
		handlers[n-1](w, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func reply(content string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(completionBody(content))
	}
}

func fail(status int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"error": {"message": "boom", "type": "server_error"}}`))
	}
}

func testClient(baseURL string) *Client {
	return NewClient(Config{
		BaseURL:         baseURL + "/v1",
		Model:           "test-model",
		Temperature:     0.1,
		MaxTokens:       1000,
		Stop:            []string{"</json>"},
		Timeout:         2 * time.Second,
		MaxRetries:      2,
		RetryDelay:      time.Millisecond,
		MaxContentChars: 4000,
	}, nil)
}

func TestExtractStructuredSuccess(t *testing.T) {
	var hits atomic.Int32
	var got map[string]any
	srv := newTestServer(t, &hits, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		reply(validContent)(w, r)
	})

	out := testClient(srv.URL).ExtractStructured(context.Background(), llm.ExtractRequest{
		Text:       "Rechnung RE-1",
		Filename:   "re1.txt",
		MaxRetries: -1,
	})

	require.True(t, out.OK(), "outcome: %+v", out)
	assert.Equal(t, 1, out.Attempts)
	require.NotNil(t, out.Payload.TotalAmount)
	assert.Equal(t, "86.26", *out.Payload.TotalAmount)

	assert.Equal(t, "test-model", got["model"])
	assert.InDelta(t, 0.1, got["temperature"], 1e-6)
	assert.EqualValues(t, 1000, got["max_tokens"])
	messages, ok := got["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 2)
	user := messages[1].(map[string]any)
	assert.Equal(t, "user", user["role"])
	assert.Contains(t, user["content"], "Rechnung RE-1")
	assert.Contains(t, user["content"], "Filename: re1.txt")
}

func TestExtractStructuredRetriesTransportFailure(t *testing.T) {
	var hits atomic.Int32
	srv := newTestServer(t, &hits, fail(http.StatusBadGateway), reply(validContent))

	out := testClient(srv.URL).ExtractStructured(context.Background(), llm.ExtractRequest{Text: "x", MaxRetries: -1})
	require.True(t, out.OK())
	assert.Equal(t, 2, out.Attempts)
	assert.EqualValues(t, 2, hits.Load())
}

func TestExtractStructuredExhaustsParseFailures(t *testing.T) {
	var hits atomic.Int32
	srv := newTestServer(t, &hits, reply("I am not able to help with that."))

	out := testClient(srv.URL).ExtractStructured(context.Background(), llm.ExtractRequest{Text: "x", MaxRetries: -1})
	assert.False(t, out.OK())
	assert.Equal(t, llm.FailureParse, out.Failure)
	assert.ErrorIs(t, out.Err, llm.ErrNoJSONObject)
	assert.Equal(t, 3, out.Attempts)
	assert.EqualValues(t, 3, hits.Load())
}

func TestExtractStructuredEmptyPayload(t *testing.T) {
	var hits atomic.Int32
	srv := newTestServer(t, &hits, reply(`{"invoice_number": null, "payment_status": "unknown"}`))

	out := testClient(srv.URL).ExtractStructured(context.Background(), llm.ExtractRequest{Text: "x", MaxRetries: 0})
	assert.Equal(t, llm.FailureEmpty, out.Failure)
	assert.Nil(t, out.Payload)
	assert.Equal(t, 1, out.Attempts)
	assert.EqualValues(t, 1, hits.Load())
}

func TestExtractStructuredServerErrorsExhausted(t *testing.T) {
	var hits atomic.Int32
	srv := newTestServer(t, &hits, fail(http.StatusInternalServerError))

	out := testClient(srv.URL).ExtractStructured(context.Background(), llm.ExtractRequest{Text: "x", MaxRetries: 1})
	assert.Equal(t, llm.FailureTransport, out.Failure)
	assert.Error(t, out.Err)
	assert.Equal(t, 2, out.Attempts)
}

func TestExtractStructuredAttemptTimeout(t *testing.T) {
	var hits atomic.Int32
	srv := newTestServer(t, &hits, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})

	c := testClient(srv.URL)
	c.cfg.Timeout = 50 * time.Millisecond

	start := time.Now()
	out := c.ExtractStructured(context.Background(), llm.ExtractRequest{Text: "x", MaxRetries: 0})
	assert.Equal(t, llm.FailureTransport, out.Failure)
	assert.Less(t, time.Since(start), time.Second)
}

func TestExtractStructuredCanceledContext(t *testing.T) {
	var hits atomic.Int32
	srv := newTestServer(t, &hits, reply(validContent))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out := testClient(srv.URL).ExtractStructured(ctx, llm.ExtractRequest{Text: "x", MaxRetries: -1})
	assert.False(t, out.OK())
	assert.Equal(t, llm.FailureTransport, out.Failure)
	assert.ErrorIs(t, out.Err, context.Canceled)
	assert.Zero(t, hits.Load())
}

func TestConfigDefaults(t *testing.T) {
	c := Config{MaxRetries: -3}.withDefaults()
	assert.Equal(t, 0, c.MaxRetries)
	assert.Equal(t, 4000, c.MaxContentChars)
	assert.Equal(t, 30*time.Second, c.Timeout)
	assert.Equal(t, 1, c.Burst)
}
