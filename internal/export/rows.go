package export

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/invoice-extractor/internal/entity"
	"github.com/joseph-ayodele/invoice-extractor/internal/repository"
)

// rowValues flattens a record into the column order of headers. Absent
// fields are empty strings.
func rowValues(r *repository.Record) []any {
	m := r.Result.Metadata
	return []any{
		r.Result.DocumentID,
		r.Filename,
		string(r.Result.ExtractionMethod),
		dateString(m.Date),
		dateString(m.DueDate),
		deref(m.InvoiceNumber),
		deref(m.ReferenceNumber),
		deref(m.CustomerNumber),
		deref(m.CompanyName),
		deref(m.ClientName),
		amountString(m.Amount),
		amountString(m.TaxAmount),
		currencyString(m),
		string(m.DocumentType),
		string(m.Language),
		string(m.PaymentStatus),
		truncate(lineItems(m.LineItems), 500),
		m.ExtractionConfidence,
	}
}

func stringRow(r *repository.Record) []string {
	vals := rowValues(r)
	out := make([]string, len(vals))
	for i, v := range vals {
		switch t := v.(type) {
		case string:
			out[i] = t
		case float64:
			out[i] = strconv.FormatFloat(t, 'f', -1, 64)
		}
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func dateString(d *entity.Date) string {
	if d == nil {
		return ""
	}
	return d.String()
}

func amountString(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.StringFixed(2)
}

func currencyString(m entity.ExtractedMetadata) string {
	if m.Currency == nil {
		return ""
	}
	return string(*m.Currency)
}

func lineItems(items []entity.LineItem) string {
	parts := make([]string, 0, len(items))
	for _, li := range items {
		parts = append(parts, li.Description+" "+li.Amount.StringFixed(2))
	}
	return strings.Join(parts, "; ")
}
