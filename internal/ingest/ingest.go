package ingest

import (
	"context"

	"github.com/joseph-ayodele/invoice-extractor/internal/entity"
)

// IngestionResult is the per-file ingest outcome.
type IngestionResult struct {
	SourcePath   string
	Document     entity.InvoiceDocument
	Deduplicated bool // same content already seen in this run
	HashHex      string
	FileExt      string
	Err          string
}

// DirStats summarizes a directory ingest.
type DirStats struct {
	Scanned      uint32
	Matched      uint32
	Succeeded    uint32
	Deduplicated uint32
	Failed       uint32
}

// Ingestor is the behavior the batch command depends on.
type Ingestor interface {
	// IngestPath loads a single file.
	IngestPath(ctx context.Context, path string) (IngestionResult, error)
	// IngestDirectory loads all matching files under root.
	IngestDirectory(ctx context.Context, root string, skipHidden bool) ([]IngestionResult, DirStats, error)
}
