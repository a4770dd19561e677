package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/invoice-extractor/constants"
	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/entity"
	"github.com/joseph-ayodele/invoice-extractor/internal/repository"
)

func result(id string, method constants.ExtractionMethod, client string, year int, amount string, conf float64) entity.ExtractionResult {
	m := entity.NewExtractedMetadata()
	if client != "" {
		m.ClientName = &client
	}
	if year > 0 {
		d := entity.NewDate(year, time.June, 1)
		y := year
		m.Date, m.Year = &d, &y
	}
	if amount != "" {
		a := decimal.RequireFromString(amount)
		m.Amount = &a
		chf := constants.CHF
		m.Currency = &chf
	}
	m.ExtractionConfidence = conf
	return entity.ExtractionResult{DocumentID: id, TruncatedContent: "Rechnung " + id, Metadata: m, ExtractionMethod: method}
}

func records(results ...entity.ExtractionResult) []*repository.Record {
	out := make([]*repository.Record, len(results))
	for i, r := range results {
		out[i] = repository.NewRecord(entity.InvoiceDocument{Content: r.TruncatedContent, Filename: r.DocumentID + ".pdf"}, r)
	}
	return out
}

func sampleResults() []entity.ExtractionResult {
	return []entity.ExtractionResult{
		result("a", constants.MethodCompletion, "Muster AG", 2024, "86.26", 0.9),
		result("b", constants.MethodFallback, "Muster AG", 2023, "250000", 0.4),
		result("c", constants.MethodFallback, "Globex Corp", 2024, "", 0.2),
		result("d", constants.MethodHybrid, "", 0, "", 0.7),
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(sampleResults(), common.QualityConfig{MinConfidence: 0.5, MaxAmount: 100000})

	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 1, s.Methods[constants.MethodCompletion])
	assert.Equal(t, 2, s.Methods[constants.MethodFallback])
	assert.Equal(t, map[int]int{2023: 1, 2024: 2}, s.Years)
	assert.Equal(t, []NameCount{{"Muster AG", 2}, {"Globex Corp", 1}}, s.TopClients)
	assert.Equal(t, 2, s.Currencies[constants.CHF])
	assert.Equal(t, 0.55, s.AverageConfidence)
	assert.Equal(t, 2, s.LowConfidence)
	assert.Equal(t, 1, s.SuspiciousAmounts)

	var buf bytes.Buffer
	require.NoError(t, s.WriteText(&buf))
	assert.Contains(t, buf.String(), "completion=1 fallback=2 hybrid=1")
	assert.Contains(t, buf.String(), "2023=1 2024=2")
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil, common.QualityConfig{})
	assert.Zero(t, s.Total)
	assert.Zero(t, s.AverageConfidence)
	assert.NotNil(t, s.TopClients)
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatJSON, records(sampleResults()[:1]...)))

	var got []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0]["document_id"])
	assert.Equal(t, "completion", got[0]["extraction_method"])
	assert.Equal(t, "Rechnung a", got[0]["truncated_content"])
	meta := got[0]["metadata"].(map[string]any)
	assert.Equal(t, "2024-06-01", meta["date"])
	assert.Nil(t, meta["invoice_number"])
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatCSV, records(sampleResults()...)))

	rows, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, headers, rows[0])
	assert.Equal(t, "a", rows[1][0])
	assert.Equal(t, "a.pdf", rows[1][1])
	assert.Equal(t, "2024-06-01", rows[1][3])
	assert.Equal(t, "86.26", rows[1][10])
	assert.Equal(t, "CHF", rows[1][12])
	assert.Equal(t, "0.9", rows[1][17])
	assert.Equal(t, "", rows[4][3])
}

func TestWriteXLSX(t *testing.T) {
	b, err := WriteXLSX(records(sampleResults()...))
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(b))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, "Document ID", rows[0][0])
	assert.Equal(t, "Muster AG", rows[1][9])
	assert.Equal(t, []string{sheet}, f.GetSheetList())
}

func TestWriteUnknownFormat(t *testing.T) {
	assert.Error(t, Write(&bytes.Buffer{}, "pdf", nil))
}

func TestServiceExport(t *testing.T) {
	ctx := context.Background()
	repo, err := repository.OpenSQLite(ctx, "file:"+filepath.Join(t.TempDir(), "x.db"), nil)
	require.NoError(t, err)
	defer func() { _ = repo.Close() }()
	for _, r := range records(sampleResults()...) {
		require.NoError(t, repo.Save(ctx, r))
	}

	b, err := NewService(repo, nil).Export(ctx, FormatXLSX, repository.ListFilter{Method: constants.MethodFallback})
	require.NoError(t, err)
	f, err := excelize.OpenReader(bytes.NewReader(b))
	require.NoError(t, err)
	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	_, err = NewService(repo, nil).Export(ctx, "pdf", repository.ListFilter{})
	assert.Error(t, err)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "Mä…", truncate("März", 3))
}
