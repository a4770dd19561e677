package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/invoice-extractor/constants"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 2000, cfg.Processing.TruncateLength)
	assert.Equal(t, 4000, cfg.Completion.MaxContentChars)
	assert.Equal(t, 3, cfg.Completion.MaxRetries)
	assert.Equal(t, 30*time.Second, cfg.Completion.Timeout)
	assert.Equal(t, constants.MergeNone, cfg.Processing.MergePolicy)
	assert.Equal(t, 10, cfg.Extraction.ClientScanLines)
}

func TestLoadConfigFileYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
completion:
  model: llama-3
  timeout: 5s
  max_retries: 1
processing:
  merge_policy: fill_gaps
extraction:
  issuer_names: [ACME AG]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, "llama-3", cfg.Completion.Model)
	assert.Equal(t, 5*time.Second, cfg.Completion.Timeout)
	assert.Equal(t, 1, cfg.Completion.MaxRetries)
	assert.Equal(t, constants.MergeFillGaps, cfg.Processing.MergePolicy)
	assert.Equal(t, []string{"ACME AG"}, cfg.Extraction.IssuerNames)
	// untouched keys keep their defaults
	assert.Equal(t, 1000, cfg.Completion.MaxTokens)
}

func TestLoadConfigFileJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{"quality": {"min_confidence": 0.7, "max_amount": 5000}}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)
	assert.InDelta(t, 0.7, cfg.Quality.MinConfidence, 1e-9)
	assert.InDelta(t, 5000, cfg.Quality.MaxAmount, 1e-9)
}

func TestLoadConfigFileBroken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("completion: [unclosed"), 0o644))

	_, err := LoadConfigFile(path)
	require.Error(t, err)
	var appErr *AppError
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, "CONFIG_ERROR", appErr.Code)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("LLM_MODEL", "env-model")
	t.Setenv("LLM_TIMEOUT", "12s")
	t.Setenv("MERGE_POLICY", "fill_gaps")
	t.Setenv("ISSUER_NAMES", "UPC, Acme AG ,")
	t.Setenv("LLM_MAX_RETRIES", "not-a-number")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "env-model", cfg.Completion.Model)
	assert.Equal(t, 12*time.Second, cfg.Completion.Timeout)
	assert.Equal(t, constants.MergeFillGaps, cfg.Processing.MergePolicy)
	assert.Equal(t, []string{"UPC", "Acme AG"}, cfg.Extraction.IssuerNames)
	assert.Equal(t, 3, cfg.Completion.MaxRetries, "unparsable values fall back")
}

func TestValidateCollectsAllFailures(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Processing.MergePolicy = "sometimes"
	cfg.Quality.MinConfidence = 1.5
	cfg.Store.Driver = "mysql"

	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "processing.merge_policy")
	assert.Contains(t, err.Error(), "quality.min_confidence")
	assert.Contains(t, err.Error(), "store.driver")
}

func TestValidateSkipsCompletionWhenDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Completion.Enabled = false
	cfg.Completion.BaseURL = ""
	cfg.Completion.Timeout = 0
	assert.NoError(t, cfg.Validate())
}
