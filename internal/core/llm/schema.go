package llm

var payloadStringFields = []string{
	"document_type", "language", "invoice_number", "invoice_date", "due_date",
	"currency", "customer_number", "reference", "company_name", "client_name",
	"payment_status",
}

var payloadMoneyFields = []string{"total_amount", "tax_amount"}

// BuildInvoiceJSONSchema returns the JSON-Schema of a sanitized payload as a
// generic map. No field is required; the model may only find some of them.
func BuildInvoiceJSONSchema() map[string]any {
	props := map[string]any{
		"line_items": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"required":             []string{"description", "amount"},
				"properties": map[string]any{
					"description": map[string]any{"type": "string", "minLength": 1},
					"amount":      decimalProp(),
				},
			},
		},
		"additional_fields": map[string]any{"type": "object"},
	}
	for _, k := range payloadStringFields {
		props[k] = map[string]any{"type": "string", "minLength": 1}
	}
	for _, k := range payloadMoneyFields {
		props[k] = decimalProp()
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
	}
}

// Amounts may still carry grouping or a currency ("CHF 1'234.50"); they must
// contain at least one digit.
func decimalProp() map[string]any {
	return map[string]any{
		"type":    "string",
		"pattern": `\d`,
	}
}
