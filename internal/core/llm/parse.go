package llm

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
)

var (
	ErrNoJSONObject = errors.New("no json object in completion")
	ErrEmptyPayload = errors.New("completion payload has no populated fields")
)

// ExtractJSONObject returns the span from the first '{' to the last '}'.
// Models often wrap the object in prose or code fences.
func ExtractJSONObject(content []byte) ([]byte, error) {
	start := bytes.IndexByte(content, '{')
	end := bytes.LastIndexByte(content, '}')
	if start < 0 || end <= start {
		return nil, ErrNoJSONObject
	}
	return content[start : end+1], nil
}

// ParsePayload turns raw completion content into a validated payload. The
// returned bytes are the sanitized JSON, or the raw object on failure.
func ParsePayload(content []byte, logger *slog.Logger) (*InvoicePayload, []byte, error) {
	obj, err := ExtractJSONObject(content)
	if err != nil {
		return nil, content, err
	}
	cleaned, _, err := NormalizeAndSanitizeJSON(obj, logger)
	if err != nil {
		return nil, obj, err
	}
	if err := ValidatePayload(cleaned); err != nil {
		return nil, cleaned, fmt.Errorf("schema validation failed: %w", err)
	}

	var p InvoicePayload
	if err := json.Unmarshal(cleaned, &p); err != nil {
		return nil, cleaned, fmt.Errorf("unmarshal payload: %w", err)
	}
	if p.PopulatedFields() == 0 {
		return nil, cleaned, ErrEmptyPayload
	}
	return &p, cleaned, nil
}
