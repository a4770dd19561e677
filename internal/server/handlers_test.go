package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/invoice-extractor/constants"
	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/core"
	"github.com/joseph-ayodele/invoice-extractor/internal/entity"
	"github.com/joseph-ayodele/invoice-extractor/internal/repository"
)

const germanInvoice = `UPC Schweiz GmbH
Postfach, 8021 Zürich

Muster Handels AG
Bahnhofstrasse 1

Rechnung
Rechnungsnummer: RE-2024-0815
Rechnungsdatum: 15.03.2024
Kundennummer: K-10023

Internet Abo          CHF 49.90
TV Paket              CHF 29.90
MwSt 8.1%: CHF 6.46
Total zu bezahlen: CHF 86.26
Zahlbar bis 14.04.2024`

type failingExtractor struct{ err error }

func (f failingExtractor) ExtractMetadata(context.Context, entity.InvoiceDocument) (entity.ExtractionResult, error) {
	return entity.ExtractionResult{}, f.err
}

type failingRepo struct {
	repository.ResultRepository
}

func (failingRepo) Ping(context.Context) error { return errors.New("connection refused") }

func newTestEcho(t *testing.T, proc Extractor, repo repository.ResultRepository) *echo.Echo {
	t.Helper()
	cfg := common.DefaultConfig().Server
	return New(cfg, NewHandlers(proc, repo, nil, "test"), nil)
}

func newTestRepo(t *testing.T) *repository.SQLiteResultRepository {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "api.db")
	repo, err := repository.OpenSQLite(context.Background(), dsn, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func newFallbackProcessor() *core.Processor {
	return core.NewProcessor(nil, nil, nil, nil, common.DefaultConfig().Processing)
}

func do(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestExtractStoresResult(t *testing.T) {
	repo := newTestRepo(t)
	e := newTestEcho(t, newFallbackProcessor(), repo)

	body, err := json.Marshal(map[string]any{"content": germanInvoice, "filename": "re-0815.txt", "source_id": "doc-1"})
	require.NoError(t, err)
	rec := do(e, http.MethodPost, "/api/v1/extract", string(body))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))

	var res entity.ExtractionResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "doc-1", res.DocumentID)
	assert.Equal(t, constants.MethodFallback, res.ExtractionMethod)
	assert.Equal(t, constants.LanguageGerman, res.Metadata.Language)
	require.NotNil(t, res.Metadata.Amount)
	assert.Equal(t, "86.26", res.Metadata.Amount.StringFixed(2))

	stored, err := repo.Get(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "re-0815.txt", stored.Filename)
	assert.Equal(t, constants.MethodFallback, stored.Result.ExtractionMethod)
}

func TestExtractWithoutStore(t *testing.T) {
	repo := newTestRepo(t)
	e := newTestEcho(t, newFallbackProcessor(), repo)

	rec := do(e, http.MethodPost, "/api/v1/extract", `{"content":"Invoice total USD 12.00","source_id":"tmp","store":false}`)
	require.Equal(t, http.StatusOK, rec.Code)

	_, err := repo.Get(context.Background(), "tmp")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestExtractRejectsEmptyContent(t *testing.T) {
	e := newTestEcho(t, newFallbackProcessor(), nil)

	rec := do(e, http.MethodPost, "/api/v1/extract", `{"content":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var apiErr APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
	assert.Equal(t, common.CodeInvalidInput, apiErr.Code)
}

func TestExtractMalformedBody(t *testing.T) {
	e := newTestEcho(t, newFallbackProcessor(), nil)
	rec := do(e, http.MethodPost, "/api/v1/extract", `{"content":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExtractInternalErrorIsMasked(t *testing.T) {
	e := newTestEcho(t, failingExtractor{err: errors.New("disk on fire")}, nil)

	rec := do(e, http.MethodPost, "/api/v1/extract", `{"content":"Rechnung"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "disk on fire")
}

func TestGetResultNotFound(t *testing.T) {
	e := newTestEcho(t, newFallbackProcessor(), newTestRepo(t))
	rec := do(e, http.MethodGet, "/api/v1/results/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestResultsRoutesWithoutStore(t *testing.T) {
	e := newTestEcho(t, newFallbackProcessor(), nil)
	for _, path := range []string{"/api/v1/results", "/api/v1/results/x", "/api/v1/results/export"} {
		rec := do(e, http.MethodGet, path, "")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, path)
	}
}

func TestListAndExportResults(t *testing.T) {
	repo := newTestRepo(t)
	e := newTestEcho(t, newFallbackProcessor(), repo)
	for _, id := range []string{"a", "b"} {
		rec := do(e, http.MethodPost, "/api/v1/extract", `{"content":"Rechnung Nr. RE-1 Total CHF 10.00","source_id":"`+id+`"}`)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := do(e, http.MethodGet, "/api/v1/results?method=fallback&limit=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Results []repository.Record `json:"results"`
		Count   int                 `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Count)

	rec = do(e, http.MethodGet, "/api/v1/results/export?format=csv", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "text/csv")
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "invoices.csv")
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	assert.Len(t, lines, 3)

	rec = do(e, http.MethodGet, "/api/v1/results/export?format=xlsx", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "PK"))
}

func TestListFilterValidation(t *testing.T) {
	e := newTestEcho(t, newFallbackProcessor(), newTestRepo(t))
	for _, q := range []string{
		"method=magic",
		"year=twenty",
		"min_confidence=1.5",
		"limit=-1",
	} {
		rec := do(e, http.MethodGet, "/api/v1/results?"+q, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
	rec := do(e, http.MethodGet, "/api/v1/results/export?format=pdf", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealth(t *testing.T) {
	rec := do(newTestEcho(t, newFallbackProcessor(), newTestRepo(t)), http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"store":"ok"`)

	rec = do(newTestEcho(t, newFallbackProcessor(), failingRepo{}), http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "degraded")
}
