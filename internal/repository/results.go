package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/joseph-ayodele/invoice-extractor/constants"
	"github.com/joseph-ayodele/invoice-extractor/internal/core/enrich"
	"github.com/joseph-ayodele/invoice-extractor/internal/entity"
)

const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

// Record is a stored extraction result plus the content statistics of its
// source document.
type Record struct {
	Result        entity.ExtractionResult `json:"result"`
	Filename      string                  `json:"filename"`
	WordCount     int                     `json:"word_count"`
	ContentLength int                     `json:"content_length"`
	CreatedAt     time.Time               `json:"created_at"`
	UpdatedAt     time.Time               `json:"updated_at"`
}

// NewRecord builds the record stored for doc's extraction result.
func NewRecord(doc entity.InvoiceDocument, res entity.ExtractionResult) *Record {
	stats := enrich.StatsFor(doc.Content)
	return &Record{
		Result:        res,
		Filename:      doc.Filename,
		WordCount:     stats.WordCount,
		ContentLength: stats.ContentLength,
	}
}

// ListFilter narrows List. Zero values mean no constraint.
type ListFilter struct {
	Method        constants.ExtractionMethod
	Year          *int
	MinConfidence *float64
	Limit         int
	Offset        int
}

type ResultRepository interface {
	// Save upserts by document id; created_at survives updates.
	Save(ctx context.Context, rec *Record) error
	// Get returns a NOT_FOUND AppError for unknown ids.
	Get(ctx context.Context, documentID string) (*Record, error)
	List(ctx context.Context, filter ListFilter) ([]*Record, error)
	Ping(ctx context.Context) error
	Close() error
}

const createResultsTable = `
CREATE TABLE IF NOT EXISTS extraction_results (
	document_id       TEXT PRIMARY KEY,
	filename          TEXT NOT NULL DEFAULT '',
	extraction_method TEXT NOT NULL,
	document_year     INTEGER,
	confidence        %s NOT NULL DEFAULT 0,
	word_count        INTEGER NOT NULL DEFAULT 0,
	content_length    INTEGER NOT NULL DEFAULT 0,
	truncated_content TEXT NOT NULL DEFAULT '',
	metadata          %s NOT NULL,
	created_at        %s NOT NULL,
	updated_at        %s NOT NULL
)`

const upsertResult = `
INSERT INTO extraction_results (
	document_id, filename, extraction_method, document_year, confidence,
	word_count, content_length, truncated_content, metadata, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (document_id) DO UPDATE SET
	filename = excluded.filename,
	extraction_method = excluded.extraction_method,
	document_year = excluded.document_year,
	confidence = excluded.confidence,
	word_count = excluded.word_count,
	content_length = excluded.content_length,
	truncated_content = excluded.truncated_content,
	metadata = excluded.metadata,
	updated_at = excluded.updated_at`

const selectResults = `
SELECT document_id, filename, extraction_method, confidence,
	word_count, content_length, truncated_content, metadata, created_at, updated_at
FROM extraction_results`

// listQuery renders the filtered select with '?' placeholders.
func listQuery(f ListFilter) (string, []any) {
	var where []string
	var args []any
	if f.Method != "" {
		where = append(where, "extraction_method = ?")
		args = append(args, string(f.Method))
	}
	if f.Year != nil {
		where = append(where, "document_year = ?")
		args = append(args, *f.Year)
	}
	if f.MinConfidence != nil {
		where = append(where, "confidence >= ?")
		args = append(args, *f.MinConfidence)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	var b strings.Builder
	b.WriteString(selectResults)
	if len(where) > 0 {
		b.WriteString("\nWHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	b.WriteString("\nORDER BY updated_at DESC, document_id\nLIMIT ? OFFSET ?")
	args = append(args, limit, offset)
	return b.String(), args
}

// rebind rewrites '?' placeholders as $1, $2, ... for Postgres.
func rebind(query string) string {
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func yearOf(m entity.ExtractedMetadata) any {
	switch {
	case m.Year != nil:
		return *m.Year
	case m.Date != nil:
		return m.Date.Year()
	default:
		return nil
	}
}

func encodeMetadata(m entity.ExtractedMetadata) ([]byte, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}
	return b, nil
}

// fillRecord decodes the stored metadata into rec. The stored JSON is the
// source of truth for every metadata field.
func fillRecord(rec *Record, method string, meta []byte) error {
	m, err := decodeMetadata(meta)
	if err != nil {
		return err
	}
	rec.Result.Metadata = m
	rec.Result.ExtractionMethod = constants.ExtractionMethod(method)
	return nil
}

func decodeMetadata(b []byte) (entity.ExtractedMetadata, error) {
	m := entity.NewExtractedMetadata()
	if err := json.Unmarshal(b, &m); err != nil {
		return m, fmt.Errorf("decode metadata: %w", err)
	}
	if m.LineItems == nil {
		m.LineItems = []entity.LineItem{}
	}
	return m, nil
}
