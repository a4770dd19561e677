package enrich

import (
	"log/slog"
	"unicode/utf8"

	"github.com/joseph-ayodele/invoice-extractor/constants"
	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/core/language"
	"github.com/joseph-ayodele/invoice-extractor/internal/core/patterns"
	"github.com/joseph-ayodele/invoice-extractor/internal/entity"
)

// Enricher derives secondary fields and the confidence score. It runs on
// every record regardless of which extraction path produced it.
type Enricher struct {
	scorer   Scorer
	detector *language.Detector
	logger   *slog.Logger
}

func NewEnricher(cfg common.QualityConfig, logger *slog.Logger) *Enricher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Enricher{
		scorer:   NewScorer(cfg.MaxAmount),
		detector: language.NewDetector(),
		logger:   logger,
	}
}

// Enrich returns a copy of m with year, document type, currency and language
// filled in from text, and the confidence score set.
func (e *Enricher) Enrich(m entity.ExtractedMetadata, text string) entity.ExtractedMetadata {
	text = patterns.Normalize(text)
	out := m

	out.Year = nil
	if m.Date != nil {
		y := m.Date.Year()
		out.Year = &y
	}

	if docType, ok := patterns.DetectDocumentType(text); ok {
		out.DocumentType = docType
	} else if out.DocumentType == "" {
		out.DocumentType = constants.DocumentUnknown
	}

	if m.Currency != nil {
		c := *m.Currency
		if canon, ok := constants.CanonicalizeCurrency(string(c)); ok {
			out.Currency = &canon
		} else {
			out.Currency = nil
		}
	}
	if out.Currency == nil {
		if c, ok := patterns.FindCurrency(text); ok {
			out.Currency = &c
		}
	}

	if out.Language == "" || out.Language == constants.LanguageUnknown {
		out.Language = e.detector.Detect(text)
	}
	if out.PaymentStatus == "" {
		out.PaymentStatus = constants.PaymentUnknown
	}

	out.LineItems = make([]entity.LineItem, len(m.LineItems))
	copy(out.LineItems, m.LineItems)

	out.ExtractionConfidence = e.scorer.Score(out)

	e.logger.Debug("enrich.done",
		"document_type", out.DocumentType,
		"language", out.Language,
		"confidence", out.ExtractionConfidence)
	return out
}

// Stats are the content statistics stored next to each result.
type Stats struct {
	WordCount     int `json:"word_count"`
	ContentLength int `json:"content_length"`
}

func StatsFor(content string) Stats {
	return Stats{
		WordCount:     patterns.WordCount(content),
		ContentLength: utf8.RuneCountInString(content),
	}
}
