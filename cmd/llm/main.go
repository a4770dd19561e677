package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joseph-ayodele/invoice-extractor/constants"
	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/core/enrich"
	"github.com/joseph-ayodele/invoice-extractor/internal/core/language"
	"github.com/joseph-ayodele/invoice-extractor/internal/core/llm"
	"github.com/joseph-ayodele/invoice-extractor/internal/core/llm/openai"
	"github.com/joseph-ayodele/invoice-extractor/internal/ingest"
)

// llm probes the completion endpoint and runs the completion path alone on
// one document, printing the raw reply and the converted metadata.
func main() {
	var (
		configPath = flag.String("config", "", "YAML or JSON config file (optional)")
		pingOnly   = flag.Bool("ping", false, "only list the models served by the endpoint")
		times      = flag.Int("times", 1, "number of extraction runs")
	)
	flag.Parse()

	cfg, err := common.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(2)
	}
	logger := common.NewLogger(cfg.Logging, nil)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	client := openai.NewClient(openai.ConfigFromCommon(cfg.Completion), logger)
	models, err := client.Ping(ctx)
	if err != nil {
		logger.Error("endpoint unreachable", "base_url", cfg.Completion.BaseURL, "error", err)
		os.Exit(1)
	}
	logger.Info("endpoint ok", "base_url", cfg.Completion.BaseURL, "models", models)
	if *pingOnly {
		return
	}

	if flag.NArg() < 1 {
		logger.Error("usage: llm [-config file] [-times n] <document.txt|document.json>")
		os.Exit(2)
	}
	res, err := ingest.NewFSIngestor(logger).IngestPath(ctx, flag.Arg(0))
	if err != nil {
		logger.Error("read document", "path", flag.Arg(0), "error", err)
		os.Exit(1)
	}
	doc := res.Document
	lang := language.NewDetector().Detect(doc.Content)
	enricher := enrich.NewEnricher(cfg.Quality, logger)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	for i := 1; i <= *times; i++ {
		start := time.Now()
		req := llm.ExtractRequest{Text: doc.Content, Filename: doc.Filename, MaxRetries: -1}
		outcome := client.ExtractStructured(ctx, req)
		if !outcome.OK() {
			logger.Warn("run failed",
				"run", i,
				"failure", string(outcome.Failure),
				"attempts", outcome.Attempts,
				"error", outcome.Err,
				"took", time.Since(start))
			continue
		}
		meta := enricher.Enrich(enrich.FromPayload(outcome.Payload, lang), doc.Content)
		logger.Info("run ok",
			"run", i,
			"attempts", outcome.Attempts,
			"fields", meta.PopulatedFields(),
			"confidence", meta.ExtractionConfidence,
			"took", time.Since(start))
		_ = enc.Encode(struct {
			Run      int                        `json:"run"`
			Raw      json.RawMessage            `json:"raw"`
			Method   constants.ExtractionMethod `json:"extraction_method"`
			Metadata any                        `json:"metadata"`
		}{Run: i, Raw: rawJSON(outcome.Raw), Method: constants.MethodCompletion, Metadata: meta})
	}
}

func rawJSON(b []byte) json.RawMessage {
	if json.Valid(b) {
		return b
	}
	quoted, _ := json.Marshal(string(b))
	return quoted
}
