package entity

import (
	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/invoice-extractor/constants"
)

// InvoiceDocument is one input unit handed to the extractor by the caller.
type InvoiceDocument struct {
	Content  string `json:"content"`
	Filename string `json:"filename"`
	SourceID string `json:"source_id"`
}

// LineItem is a single "description ... amount" row.
type LineItem struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

// ExtractedMetadata is the canonical field schema. Nil pointers are absent fields.
type ExtractedMetadata struct {
	Date            *Date                   `json:"date"`
	Year            *int                    `json:"year"`
	DueDate         *Date                   `json:"due_date"`
	InvoiceNumber   *string                 `json:"invoice_number"`
	ReferenceNumber *string                 `json:"reference_number"`
	CustomerNumber  *string                 `json:"customer_number"`
	ClientName      *string                 `json:"client_name"`
	CompanyName     *string                 `json:"company_name"`
	Amount          *decimal.Decimal        `json:"amount"`
	TaxAmount       *decimal.Decimal        `json:"tax_amount"`
	Currency        *constants.Currency     `json:"currency"`
	DocumentType    constants.DocumentType  `json:"document_type"`
	Language        constants.Language      `json:"language"`
	LineItems       []LineItem              `json:"line_items"`
	PaymentStatus   constants.PaymentStatus `json:"payment_status"`

	ExtractionConfidence float64 `json:"extraction_confidence"`
}

// NewExtractedMetadata returns metadata with every field absent and enums unknown.
func NewExtractedMetadata() ExtractedMetadata {
	return ExtractedMetadata{
		DocumentType:  constants.DocumentUnknown,
		Language:      constants.LanguageUnknown,
		LineItems:     []LineItem{},
		PaymentStatus: constants.PaymentUnknown,
	}
}

// PopulatedFields counts schema fields carrying a value. Derived fields
// (year, confidence) and unknown enums do not count.
func (m ExtractedMetadata) PopulatedFields() int {
	n := 0
	for _, set := range []bool{
		m.Date != nil,
		m.DueDate != nil,
		m.InvoiceNumber != nil,
		m.ReferenceNumber != nil,
		m.CustomerNumber != nil,
		m.ClientName != nil,
		m.CompanyName != nil,
		m.Amount != nil,
		m.TaxAmount != nil,
		m.Currency != nil,
		m.DocumentType != "" && m.DocumentType != constants.DocumentUnknown,
		m.Language != "" && m.Language != constants.LanguageUnknown,
		len(m.LineItems) > 0,
		m.PaymentStatus != "" && m.PaymentStatus != constants.PaymentUnknown,
	} {
		if set {
			n++
		}
	}
	return n
}

// ExtractionResult wraps one document's outcome.
type ExtractionResult struct {
	DocumentID       string                     `json:"document_id"`
	TruncatedContent string                     `json:"truncated_content"`
	Metadata         ExtractedMetadata          `json:"metadata"`
	ExtractionMethod constants.ExtractionMethod `json:"extraction_method"`
}
