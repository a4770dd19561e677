package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/invoice-extractor/constants"
	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/entity"
)

func openTestRepo(t *testing.T) *SQLiteResultRepository {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "results.db")
	repo, err := OpenSQLite(context.Background(), dsn, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func sampleRecord(id string, year int, method constants.ExtractionMethod, confidence float64) *Record {
	m := entity.NewExtractedMetadata()
	d := entity.NewDate(year, time.March, 15)
	y := year
	amount := decimal.RequireFromString("86.26")
	chf := constants.CHF
	inv := "RE-" + id
	m.Date, m.Year, m.Amount, m.Currency, m.InvoiceNumber = &d, &y, &amount, &chf, &inv
	m.Language = constants.LanguageGerman
	m.DocumentType = constants.DocumentInvoice
	m.LineItems = []entity.LineItem{{Description: "Internet", Amount: decimal.RequireFromString("49.90")}}
	m.ExtractionConfidence = confidence

	doc := entity.InvoiceDocument{Content: "Rechnung " + id + " Total CHF 86.26", Filename: id + ".pdf"}
	return NewRecord(doc, entity.ExtractionResult{
		DocumentID:       id,
		TruncatedContent: doc.Content,
		Metadata:         m,
		ExtractionMethod: method,
	})
}

func TestSQLiteSaveAndGet(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	rec := sampleRecord("doc-1", 2024, constants.MethodFallback, 0.5)
	require.NoError(t, repo.Save(ctx, rec))

	got, err := repo.Get(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "doc-1.pdf", got.Filename)
	assert.Equal(t, 5, got.WordCount)
	assert.Equal(t, len(rec.Result.TruncatedContent), got.ContentLength)
	assert.Equal(t, constants.MethodFallback, got.Result.ExtractionMethod)
	assert.Equal(t, "2024-03-15", got.Result.Metadata.Date.String())
	assert.True(t, decimal.RequireFromString("86.26").Equal(*got.Result.Metadata.Amount))
	assert.Equal(t, constants.CHF, *got.Result.Metadata.Currency)
	require.Len(t, got.Result.Metadata.LineItems, 1)
	assert.Nil(t, got.Result.Metadata.ClientName)
	assert.False(t, got.CreatedAt.IsZero())

	_, err = repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestSQLiteSaveUpserts(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return base }

	require.NoError(t, repo.Save(ctx, sampleRecord("doc-1", 2024, constants.MethodFallback, 0.4)))
	repo.now = func() time.Time { return base.Add(time.Hour) }
	require.NoError(t, repo.Save(ctx, sampleRecord("doc-1", 2024, constants.MethodCompletion, 0.9)))

	all, err := repo.List(ctx, ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, constants.MethodCompletion, all[0].Result.ExtractionMethod)
	assert.Equal(t, 0.9, all[0].Result.Metadata.ExtractionConfidence)
	assert.True(t, all[0].CreatedAt.Equal(base), "created_at survives updates")
	assert.True(t, all[0].UpdatedAt.Equal(base.Add(time.Hour)))
}

func TestSQLiteListFilters(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, rec := range []*Record{
		sampleRecord("a", 2023, constants.MethodFallback, 0.3),
		sampleRecord("b", 2024, constants.MethodCompletion, 0.8),
		sampleRecord("c", 2024, constants.MethodFallback, 0.6),
	} {
		at := base.Add(time.Duration(i) * time.Minute)
		repo.now = func() time.Time { return at }
		require.NoError(t, repo.Save(ctx, rec))
	}

	ids := func(recs []*Record) []string {
		out := make([]string, len(recs))
		for i, r := range recs {
			out[i] = r.Result.DocumentID
		}
		return out
	}

	all, err := repo.List(ctx, ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b", "a"}, ids(all))

	year := 2024
	got, err := repo.List(ctx, ListFilter{Year: &year})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b"}, ids(got))

	got, err = repo.List(ctx, ListFilter{Method: constants.MethodFallback})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a"}, ids(got))

	minConf := 0.5
	got, err = repo.List(ctx, ListFilter{MinConfidence: &minConf, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, ids(got))

	got, err = repo.List(ctx, ListFilter{Offset: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids(got))
}

func TestSaveRejectsMissingID(t *testing.T) {
	repo := openTestRepo(t)
	err := repo.Save(context.Background(), &Record{})
	assert.True(t, common.IsInvalidInput(err))
}

func TestRebind(t *testing.T) {
	assert.Equal(t, "a = $1 AND b = $2 LIMIT $3", rebind("a = ? AND b = ? LIMIT ?"))
}
