package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/core"
	"github.com/joseph-ayodele/invoice-extractor/internal/core/enrich"
	"github.com/joseph-ayodele/invoice-extractor/internal/core/fallback"
	"github.com/joseph-ayodele/invoice-extractor/internal/core/llm"
	"github.com/joseph-ayodele/invoice-extractor/internal/core/llm/openai"
	"github.com/joseph-ayodele/invoice-extractor/internal/repository"
	"github.com/joseph-ayodele/invoice-extractor/internal/server"
)

var version = "dev"

func main() {
	var (
		configPath = flag.String("config", "", "YAML or JSON config file (optional)")
		noStore    = flag.Bool("no-store", false, "serve extraction without a results store")
	)
	flag.Parse()

	cfg, err := common.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
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
		logger.Info("completion enabled", "base_url", cfg.Completion.BaseURL, "model", cfg.Completion.Model)
	} else {
		logger.Warn("completion disabled, every document uses the pattern extractor")
	}
	proc := core.NewProcessor(
		logger,
		completion,
		fallback.NewExtractor(cfg.Extraction, logger),
		enrich.NewEnricher(cfg.Quality, logger),
		cfg.Processing,
	)

	var repo repository.ResultRepository
	if !*noStore {
		repo, err = repository.OpenResultRepository(ctx, cfg.Store, logger)
		if err != nil {
			logger.Error("open results store", "driver", cfg.Store.Driver, "error", err)
			os.Exit(1)
		}
		defer func() { _ = repo.Close() }()
	}

	e := server.New(cfg.Server, server.NewHandlers(proc, repo, logger, version), logger)

	go func() {
		logger.Info("http serving", "addr", cfg.Server.Addr, "version", version)
		if err := e.Start(cfg.Server.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "error", err)
	}
	logger.Info("stopped")
}
