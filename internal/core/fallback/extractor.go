// Package fallback implements the deterministic, pattern-based metadata
// extractor used whenever the completion path yields nothing.
package fallback

import (
	"log/slog"

	"github.com/joseph-ayodele/invoice-extractor/constants"
	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/core/patterns"
	"github.com/joseph-ayodele/invoice-extractor/internal/entity"
)

// Extractor never fails: fields it cannot find are left nil. It keeps no
// state between calls, so the same input always yields the same output.
type Extractor struct {
	scanLines    int
	minLineItems int
	issuers      []string
	logger       *slog.Logger
}

func NewExtractor(cfg common.ExtractionConfig, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	x := &Extractor{
		scanLines:    cfg.ClientScanLines,
		minLineItems: cfg.MinLineItems,
		issuers:      append([]string(nil), cfg.IssuerNames...),
		logger:       logger,
	}
	if x.scanLines <= 0 {
		x.scanLines = 10
	}
	if x.minLineItems <= 0 {
		x.minLineItems = 2
	}
	return x
}

// Extract applies the rule sets for lang to text.
func (x *Extractor) Extract(text string, lang constants.Language) entity.ExtractedMetadata {
	text = patterns.Normalize(text)
	m := entity.NewExtractedMetadata()
	m.Language = lang

	if t, ok := patterns.FindDate(text, lang); ok {
		d := entity.NewDate(t.Year(), t.Month(), t.Day())
		m.Date = &d
	}
	if t, ok := patterns.FindDueDate(text); ok {
		d := entity.NewDate(t.Year(), t.Month(), t.Day())
		m.DueDate = &d
	}
	if amount, ok := patterns.FindAmount(text, lang); ok {
		m.Amount = &amount
	}
	if tax, ok := patterns.FindTaxAmount(text, lang); ok {
		m.TaxAmount = &tax
	}
	if c, ok := x.currency(text, lang); ok {
		m.Currency = &c
	}
	if v, ok := patterns.FindInvoiceNumber(text); ok {
		m.InvoiceNumber = &v
	}
	if v, ok := patterns.FindReferenceNumber(text); ok {
		m.ReferenceNumber = &v
	}
	if v, ok := patterns.FindCustomerNumber(text); ok {
		m.CustomerNumber = &v
	}

	p := findParties(text, x.scanLines, x.issuers)
	if p.client != "" {
		m.ClientName = &p.client
	}
	if p.company != "" {
		m.CompanyName = &p.company
	}

	if docType, ok := patterns.DetectDocumentType(text); ok {
		m.DocumentType = docType
	}
	m.PaymentStatus = patterns.DetectPaymentStatus(text)
	m.LineItems = findLineItems(text, lang, x.minLineItems)

	x.logger.Debug("fallback.extract.done",
		"language", lang,
		"fields", m.PopulatedFields(),
		"line_items", len(m.LineItems))
	return m
}

// currency prefers an explicit code or symbol; CHF is assumed only for text
// that is German, or mixed with German-style dates and no English ones.
func (x *Extractor) currency(text string, lang constants.Language) (constants.Currency, bool) {
	if c, ok := patterns.FindCurrency(text); ok {
		return c, true
	}
	switch lang {
	case constants.LanguageGerman:
		return constants.CHF, true
	case constants.LanguageMixed:
		if patterns.HasGermanDates(text) && !patterns.HasEnglishDates(text) {
			return constants.CHF, true
		}
	}
	return "", false
}
