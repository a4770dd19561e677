package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/joseph-ayodele/invoice-extractor/constants"
	"github.com/joseph-ayodele/invoice-extractor/internal/entity"
)

// DefaultMaxFileBytes caps the size of a single document file.
const DefaultMaxFileBytes = 10 << 20

// jsonDocument accepts both the page export layout (pageContent, id, title)
// and the InvoiceDocument layout.
type jsonDocument struct {
	PageContent string `json:"pageContent"`
	ID          string `json:"id"`
	Title       string `json:"title"`

	Content  string `json:"content"`
	Filename string `json:"filename"`
	SourceID string `json:"source_id"`
}

// FSIngestor reads documents from the local filesystem. Content seen earlier
// in the same run is reported as deduplicated.
type FSIngestor struct {
	logger   *slog.Logger
	maxBytes int64

	mu   sync.Mutex
	seen map[string]string // content hash -> first path
}

func NewFSIngestor(logger *slog.Logger) *FSIngestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &FSIngestor{
		logger:   logger,
		maxBytes: DefaultMaxFileBytes,
		seen:     make(map[string]string),
	}
}

func (i *FSIngestor) IngestPath(ctx context.Context, path string) (IngestionResult, error) {
	out := IngestionResult{SourcePath: path}
	if err := ctx.Err(); err != nil {
		return out, err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return out, fmt.Errorf("abs path: %w", err)
	}
	out.SourcePath = abs

	ext := constants.NormalizeExt(filepath.Ext(abs))
	if ext == "" || !AllowedExt(ext) {
		return out, fmt.Errorf("unsupported or missing extension: %q", ext)
	}
	out.FileExt = ext

	info, err := os.Stat(abs)
	if err != nil {
		return out, fmt.Errorf("stat: %w", err)
	}
	if info.Size() > i.maxBytes {
		return out, fmt.Errorf("file too large: %d bytes", info.Size())
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return out, fmt.Errorf("read: %w", err)
	}

	sum := sha256.Sum256(data)
	out.HashHex = hex.EncodeToString(sum[:])

	doc, err := decodeDocument(ext, filepath.Base(abs), data)
	if err != nil {
		return out, err
	}
	out.Document = doc

	i.mu.Lock()
	if first, ok := i.seen[out.HashHex]; ok {
		out.Deduplicated = true
		i.logger.Debug("ingest.dedup", "path", abs, "first", first)
	} else {
		i.seen[out.HashHex] = abs
	}
	i.mu.Unlock()
	return out, nil
}

func decodeDocument(ext, base string, data []byte) (entity.InvoiceDocument, error) {
	switch ext {
	case "txt":
		return entity.InvoiceDocument{Content: string(data), Filename: base}, nil
	case "json":
		var raw jsonDocument
		if err := json.Unmarshal(data, &raw); err != nil {
			return entity.InvoiceDocument{}, fmt.Errorf("decode json document: %w", err)
		}
		doc := entity.InvoiceDocument{
			Content:  firstNonEmpty(raw.PageContent, raw.Content),
			Filename: firstNonEmpty(raw.Title, raw.Filename, base),
			SourceID: firstNonEmpty(raw.ID, raw.SourceID),
		}
		return doc, nil
	default:
		return entity.InvoiceDocument{}, fmt.Errorf("unsupported extension: %q", ext)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// IngestDirectory walks root, skips hidden if requested,
// and calls IngestPath for each file. Returns per-file results + aggregate stats.
func (i *FSIngestor) IngestDirectory(
	ctx context.Context,
	root string,
	skipHidden bool,
) ([]IngestionResult, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root path is required")
	}

	var results []IngestionResult
	var stats DirStats

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if walkErr != nil {
			results = append(results, IngestionResult{SourcePath: path, Err: walkErr.Error()})
			stats.Failed++
			return nil
		}
		if skipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return nil
		}
		if !AllowedExt(filepath.Ext(path)) {
			return nil
		}
		stats.Matched++

		r, err := i.IngestPath(ctx, path)
		if err != nil {
			i.logger.Warn("ingest.file.failed", "path", path, "error", err)
			r.Err = err.Error()
			results = append(results, r)
			stats.Failed++
			return nil
		}

		results = append(results, r)
		stats.Succeeded++
		if r.Deduplicated {
			stats.Deduplicated++
		}
		return nil
	})

	i.logger.Info("ingest.dir.done",
		"root", root,
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"succeeded", stats.Succeeded,
		"deduplicated", stats.Deduplicated,
		"failed", stats.Failed,
	)
	if err != nil {
		return results, stats, fmt.Errorf("walk: %w", err)
	}
	return results, stats, nil
}
