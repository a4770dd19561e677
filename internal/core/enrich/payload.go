package enrich

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/invoice-extractor/constants"
	"github.com/joseph-ayodele/invoice-extractor/internal/core/llm"
	"github.com/joseph-ayodele/invoice-extractor/internal/core/patterns"
	"github.com/joseph-ayodele/invoice-extractor/internal/entity"
)

// rePlainDecimal matches numbers already in JSON notation, e.g. "1234.5".
var rePlainDecimal = regexp.MustCompile(`^-?\d+(?:\.\d+)?$`)

// FromPayload converts a completion payload into metadata. lang is the
// detected language of the document text; it only steers number parsing when
// the payload does not name a language. Values that do not parse are dropped,
// never guessed.
func FromPayload(p *llm.InvoicePayload, lang constants.Language) entity.ExtractedMetadata {
	m := entity.NewExtractedMetadata()
	if p == nil {
		return m
	}

	m.Language = constants.CanonicalizeLanguage(value(p.Language))
	numbers := lang
	if m.Language != constants.LanguageUnknown {
		numbers = m.Language
	}

	m.Date = parseDate(p.InvoiceDate)
	m.DueDate = parseDate(p.DueDate)
	m.Amount = parseMoney(p.TotalAmount, numbers)
	m.TaxAmount = parseMoney(p.TaxAmount, numbers)

	if v := value(p.Currency); v != "" {
		if c, ok := constants.CanonicalizeCurrency(v); ok {
			m.Currency = &c
		}
	}

	m.InvoiceNumber = text(p.InvoiceNumber)
	m.ReferenceNumber = text(p.Reference)
	m.CustomerNumber = text(p.CustomerNumber)
	m.CompanyName = text(p.CompanyName)
	m.ClientName = text(p.ClientName)

	if v := value(p.DocumentType); v != "" {
		m.DocumentType = constants.CanonicalizeDocumentType(v)
	}
	if v := value(p.PaymentStatus); v != "" {
		m.PaymentStatus = constants.CanonicalizePaymentStatus(v)
	}

	for _, li := range p.LineItems {
		desc := strings.TrimSpace(li.Description)
		amount := parseMoney(&li.Amount, numbers)
		if desc == "" || amount == nil {
			continue
		}
		m.LineItems = append(m.LineItems, entity.LineItem{Description: desc, Amount: *amount})
	}
	return m
}

func value(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func text(s *string) *string {
	v := value(s)
	if v == "" {
		return nil
	}
	return &v
}

func parseDate(s *string) *entity.Date {
	t, ok := patterns.ParseDate(value(s))
	if !ok {
		return nil
	}
	d := entity.NewDate(t.Year(), t.Month(), t.Day())
	return &d
}

// parseMoney reads JSON-style numbers as they are and anything else with the
// separator rules of the document language.
func parseMoney(s *string, lang constants.Language) *decimal.Decimal {
	v := value(s)
	if v == "" {
		return nil
	}
	if rePlainDecimal.MatchString(v) {
		if d, err := decimal.NewFromString(v); err == nil {
			return &d
		}
	}
	d, ok := patterns.ParseAmountText(v, lang)
	if !ok {
		return nil
	}
	return &d
}
