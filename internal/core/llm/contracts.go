package llm

import "context"

// InvoicePayload is the sanitized shape returned by the completion model.
// Money values arrive as strings after sanitizing; dates are parsed later.
type InvoicePayload struct {
	DocumentType   *string           `json:"document_type,omitempty"`
	Language       *string           `json:"language,omitempty"`
	InvoiceNumber  *string           `json:"invoice_number,omitempty"`
	InvoiceDate    *string           `json:"invoice_date,omitempty"` // YYYY-MM-DD
	DueDate        *string           `json:"due_date,omitempty"`     // YYYY-MM-DD
	TotalAmount    *string           `json:"total_amount,omitempty"` // decimal
	Currency       *string           `json:"currency,omitempty"`
	TaxAmount      *string           `json:"tax_amount,omitempty"` // decimal
	CustomerNumber *string           `json:"customer_number,omitempty"`
	Reference      *string           `json:"reference,omitempty"`
	CompanyName    *string           `json:"company_name,omitempty"`
	ClientName     *string           `json:"client_name,omitempty"`
	PaymentStatus  *string           `json:"payment_status,omitempty"`
	LineItems      []PayloadLineItem `json:"line_items,omitempty"`

	AdditionalFields map[string]any `json:"additional_fields,omitempty"`
}

type PayloadLineItem struct {
	Description string `json:"description"`
	Amount      string `json:"amount"`
}

// PopulatedFields counts non-null schema fields; additional_fields is not counted.
func (p InvoicePayload) PopulatedFields() int {
	n := 0
	for _, f := range []*string{
		p.DocumentType, p.Language, p.InvoiceNumber, p.InvoiceDate, p.DueDate,
		p.TotalAmount, p.Currency, p.TaxAmount, p.CustomerNumber, p.Reference,
		p.CompanyName, p.ClientName, p.PaymentStatus,
	} {
		if f != nil {
			n++
		}
	}
	if len(p.LineItems) > 0 {
		n++
	}
	return n
}

type ExtractRequest struct {
	Text     string
	Filename string
	// MaxRetries is the number of extra attempts after the first; negative
	// means the client's configured value.
	MaxRetries int
}

// FailureKind tags why a completion attempt produced no payload.
type FailureKind string

const (
	FailureNone      FailureKind = ""
	FailureTransport FailureKind = "transport"
	FailureParse     FailureKind = "parse"
	FailureEmpty     FailureKind = "empty"
)

// Outcome is the tagged result of ExtractStructured. Exactly one of Payload
// or Failure is set.
type Outcome struct {
	Payload  *InvoicePayload
	Raw      []byte
	Failure  FailureKind
	Err      error
	Attempts int
}

func (o Outcome) OK() bool {
	return o.Failure == FailureNone && o.Payload != nil
}

// StructuredExtractor is the interface the processor depends on. Failures are
// reported through the Outcome, never as a Go error.
type StructuredExtractor interface {
	ExtractStructured(ctx context.Context, req ExtractRequest) Outcome
}
