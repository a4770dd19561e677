package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/core"
	"github.com/joseph-ayodele/invoice-extractor/internal/core/async"
	"github.com/joseph-ayodele/invoice-extractor/internal/core/enrich"
	"github.com/joseph-ayodele/invoice-extractor/internal/core/fallback"
	"github.com/joseph-ayodele/invoice-extractor/internal/core/llm"
	"github.com/joseph-ayodele/invoice-extractor/internal/core/llm/openai"
	"github.com/joseph-ayodele/invoice-extractor/internal/entity"
	"github.com/joseph-ayodele/invoice-extractor/internal/export"
	"github.com/joseph-ayodele/invoice-extractor/internal/ingest"
	"github.com/joseph-ayodele/invoice-extractor/internal/repository"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

// collector is the queue sink: it stores every result and keeps the batch for export.
type collector struct {
	repo   repository.ResultRepository // nil skips persistence
	logger *slog.Logger

	mu      sync.Mutex
	records []*repository.Record
	failed  int
}

func (c *collector) Handle(ctx context.Context, job async.Job, res entity.ExtractionResult, err error) {
	if err != nil {
		c.mu.Lock()
		c.failed++
		c.mu.Unlock()
		return
	}
	rec := repository.NewRecord(job.Document, res)
	if c.repo != nil {
		if err := c.repo.Save(ctx, rec); err != nil {
			c.logger.Error("batch.save.failed", "document_id", res.DocumentID, "error", err)
		}
	}
	c.mu.Lock()
	c.records = append(c.records, rec)
	c.mu.Unlock()
}

// snapshot returns the collected records ordered by filename.
func (c *collector) snapshot() ([]*repository.Record, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := append([]*repository.Record(nil), c.records...)
	sort.Slice(out, func(i, j int) bool { return out[i].Filename < out[j].Filename })
	return out, c.failed
}

func main() {
	var (
		dir        = flag.String("dir", "", "directory of .txt/.json documents (required)")
		configPath = flag.String("config", "", "YAML or JSON config file (optional)")
		out        = flag.String("out", "", "export file; the extension picks json, csv or xlsx (defaults to <dir>/../invoices.json)")
		noStore    = flag.Bool("no-store", false, "do not persist results")
		watch      = flag.Bool("watch", false, "keep running and process new files as they appear")
		skipHidden = flag.Bool("skip-hidden", true, "ignore dot files and dot directories")
		summary    = flag.Bool("summary", true, "print a batch summary to stdout")
	)
	flag.Parse()

	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}
	if *out == "" {
		*out = filepath.Join(filepath.Dir(filepath.Clean(*dir)), "invoices.json")
	}
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(*out)), ".")
	switch format {
	case export.FormatJSON, export.FormatCSV, export.FormatXLSX:
	default:
		printError("Error: --out must end in .json, .csv or .xlsx\n")
		os.Exit(1)
	}

	cfg, err := common.LoadConfig(*configPath)
	if err != nil {
		printError("Error: load config: %v\n", err)
		os.Exit(1)
	}
	logger := common.NewLogger(cfg.Logging, nil)
	slog.SetDefault(logger)
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var completion llm.StructuredExtractor
	if cfg.Completion.Enabled {
		completion = openai.NewClient(openai.ConfigFromCommon(cfg.Completion), logger)
	}
	proc := core.NewProcessor(
		logger,
		completion,
		fallback.NewExtractor(cfg.Extraction, logger),
		enrich.NewEnricher(cfg.Quality, logger),
		cfg.Processing,
	)

	sink := &collector{logger: logger}
	if !*noStore {
		repo, err := repository.OpenResultRepository(ctx, cfg.Store, logger)
		if err != nil {
			logger.Error("open results store", "driver", cfg.Store.Driver, "error", err)
			os.Exit(1)
		}
		defer func() { _ = repo.Close() }()
		sink.repo = repo
	}

	queue := async.NewProcessorQueue(proc, sink, logger,
		async.WithWorkers(cfg.Processing.Workers),
		async.WithQueueSize(cfg.Processing.QueueSize),
		async.WithProcessTimeout(cfg.Processing.JobTimeout),
	)

	ingestor := ingest.NewFSIngestor(logger)
	submit := func(r ingest.IngestionResult) {
		if r.Err != "" || r.Deduplicated {
			return
		}
		job := async.Job{Document: r.Document, SubmittedAt: time.Now(), TraceID: common.NewRequestID()}
		if err := queue.Enqueue(ctx, job); err != nil {
			logger.Warn("batch.enqueue.failed", "path", r.SourcePath, "error", err)
		}
	}

	results, stats, err := ingestor.IngestDirectory(ctx, *dir, *skipHidden)
	if err != nil {
		logger.Error("ingest directory", "dir", *dir, "error", err)
		os.Exit(1)
	}
	for _, r := range results {
		submit(r)
	}
	logger.Info("batch.submitted", "dir", *dir, "matched", stats.Matched, "deduplicated", stats.Deduplicated)

	if *watch {
		paths, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
			Roots:      []string{*dir},
			SkipHidden: *skipHidden,
			Debounce:   500 * time.Millisecond,
		}, logger)
		if err != nil {
			logger.Error("start watcher", "error", err)
			os.Exit(1)
		}
		logger.Info("watching for new documents", "dir", *dir)
		watchLoop(ctx, ingestor, paths, errs, submit, logger)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	queue.Shutdown(shutdownCtx)

	recs, failed := sink.snapshot()
	if err := writeExport(*out, format, recs); err != nil {
		logger.Error("write export", "path", *out, "error", err)
		os.Exit(1)
	}
	logger.Info("batch.done", "processed", len(recs), "failed", failed, "out", *out)

	if *summary {
		res := make([]entity.ExtractionResult, 0, len(recs))
		for _, r := range recs {
			res = append(res, r.Result)
		}
		if err := export.Summarize(res, cfg.Quality).WriteText(os.Stdout); err != nil {
			logger.Warn("write summary", "error", err)
		}
	}
}

func watchLoop(
	ctx context.Context,
	ingestor *ingest.FSIngestor,
	paths <-chan string,
	errs <-chan error,
	submit func(ingest.IngestionResult),
	logger *slog.Logger,
) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errs:
			if !ok {
				return
			}
			logger.Warn("watch.error", "error", err)
		case p, ok := <-paths:
			if !ok {
				return
			}
			r, err := ingestor.IngestPath(ctx, p)
			if err != nil {
				logger.Warn("ingest.file.failed", "path", p, "error", err)
				continue
			}
			submit(r)
		}
	}
}

func writeExport(path, format string, recs []*repository.Record) error {
	var buf bytes.Buffer
	if err := export.Write(&buf, format, recs); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
