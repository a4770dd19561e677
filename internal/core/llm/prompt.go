package llm

import (
	"strings"

	"github.com/joseph-ayodele/invoice-extractor/internal/core/patterns"
)

var germanAttributes = []string{
	"Rechnungskonto", "Rechnungsnummer", "Rechnungsdatum", "Rechnungsperiode",
	"Ware", "Dienstleistung", "Mehrwertsteuer", "Steuer", "Umsatz", "Total",
	"Referenz", "Kundennummer", "Datum", "Fällig am", "Leistung", "Lieferung",
	"Periode der Leistung", "Debitorennummer", "Zahlungsbetrag", "Kundenrabatt",
}

var englishAttributes = []string{
	"Invoice number", "Invoice date", "Invoice period", "Goods", "Services",
	"Value added tax", "Tax", "Turnover", "Total", "Reference", "Customer number",
	"Date", "Due on", "Service", "Delivery", "Period of service",
	"Payment amount", "Customer discount",
}

const jsonTemplate = `{
  "document_type": "invoice|bill|receipt|payment_request",
  "language": "german|english|mixed",
  "invoice_number": "extracted_number",
  "invoice_date": "YYYY-MM-DD",
  "due_date": "YYYY-MM-DD",
  "total_amount": numeric_value,
  "currency": "CHF|EUR|USD",
  "tax_amount": numeric_value,
  "customer_number": "extracted_number",
  "reference": "extracted_reference",
  "company_name": "sender_company",
  "client_name": "recipient_company",
  "payment_status": "paid|pending|overdue|unknown",
  "line_items": [{"description": "item", "amount": numeric_value}],
  "additional_fields": {"custom_field_name": "value"}
}`

// BuildSystemPrompt is the fixed system message.
func BuildSystemPrompt() string {
	return "You are an expert invoice data extraction assistant. " +
		"Extract structured data from invoices in JSON format only. Be precise and accurate."
}

// BuildInstruction is the bilingual extraction instruction that precedes the document text.
func BuildInstruction() string {
	parts := []string{
		"Extract ALL available information from this invoice/receipt/bill text and return it as valid JSON.",
		"",
		"Look for these attributes (German/English):",
		"German: " + strings.Join(germanAttributes, ", "),
		"English: " + strings.Join(englishAttributes, ", "),
		"",
		"Additional fields to extract: document type (invoice, bill, receipt, payment request), " +
			"company/sender name, client/recipient name, currency (CHF, EUR, USD), language, " +
			"payment status indicators, line items if available.",
		"Use ISO-8601 dates (YYYY-MM-DD). Use null for fields that are not present.",
	}
	return strings.Join(parts, "\n")
}

// BuildUserPrompt packages the instruction, an optional filename hint and the
// document text capped to maxChars runes.
func BuildUserPrompt(req ExtractRequest, maxChars int) string {
	var b strings.Builder
	b.WriteString(BuildInstruction())
	b.WriteString("\n\n")
	if filename := strings.TrimSpace(req.Filename); filename != "" {
		b.WriteString("Filename: ")
		b.WriteString(filename)
		b.WriteString("\n")
	}
	b.WriteString("Text to analyze:\n")
	b.WriteString(patterns.TruncateRunes(req.Text, maxChars))
	b.WriteString("\n\nReturn ONLY valid JSON in this format:\n")
	b.WriteString(jsonTemplate)
	return b.String()
}
