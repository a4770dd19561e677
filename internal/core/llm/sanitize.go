package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"strconv"
	"strings"
)

// Ordered: when several synonyms of one key are present the first wins.
var payloadSynonyms = [][2]string{
	{"type", "document_type"},
	{"doc_type", "document_type"},
	{"invoice_no", "invoice_number"},
	{"invoice_id", "invoice_number"},
	{"date", "invoice_date"},
	{"amount", "total_amount"},
	{"total", "total_amount"},
	{"tax", "tax_amount"},
	{"vat", "tax_amount"},
	{"currency_code", "currency"},
	{"customer_id", "customer_number"},
	{"reference_number", "reference"},
	{"ref", "reference"},
	{"company", "company_name"},
	{"sender", "company_name"},
	{"vendor", "company_name"},
	{"client", "client_name"},
	{"customer", "client_name"},
	{"recipient", "client_name"},
	{"items", "line_items"},
}

var nullish = map[string]struct{}{
	"": {}, "null": {}, "none": {}, "n/a": {}, "na": {}, "-": {},
}

// enum fields where "unknown" carries no information
var unknownIsNull = map[string]struct{}{
	"document_type": {}, "language": {}, "payment_status": {}, "currency": {},
}

// NormalizeAndSanitizeJSON
// - Renames known synonyms (total -> total_amount)
// - Drops null/empty values
// - Coerces numbers to strings for money and identifier fields
// - Removes unknown keys (additionalProperties = false friendliness)
func NormalizeAndSanitizeJSON(raw []byte, logger *slog.Logger) ([]byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	dropped := make([]string, 0, 8)

	// 1) rename synonyms, never overwriting a canonical key
	for _, syn := range payloadSynonyms {
		from, to := syn[0], syn[1]
		if v, ok := m[from]; ok {
			if _, exists := m[to]; !exists {
				m[to] = v
			}
			delete(m, from)
			dropped = append(dropped, from+"->"+to)
		}
	}

	// 2) scalar fields become trimmed strings or disappear
	for _, k := range append(append([]string{}, payloadStringFields...), payloadMoneyFields...) {
		v, ok := m[k]
		if !ok {
			continue
		}
		s, keep := scalarString(v)
		if keep {
			lower := strings.ToLower(s)
			if _, isNull := nullish[lower]; isNull {
				keep = false
			} else if _, enum := unknownIsNull[k]; enum && lower == "unknown" {
				keep = false
			}
		}
		if !keep {
			delete(m, k)
			dropped = append(dropped, k+"(empty)")
			continue
		}
		m[k] = s
	}

	// 3) line items: keep objects with a description and an amount
	if v, ok := m["line_items"]; ok {
		items := sanitizeLineItems(v)
		if len(items) == 0 {
			delete(m, "line_items")
			dropped = append(dropped, "line_items(empty)")
		} else {
			m["line_items"] = items
		}
	}
	if v, ok := m["additional_fields"]; ok {
		if obj, isObj := v.(map[string]any); !isObj || len(obj) == 0 {
			delete(m, "additional_fields")
			dropped = append(dropped, "additional_fields(empty)")
		}
	}

	// 4) remove unknown keys
	allowed := map[string]struct{}{"line_items": {}, "additional_fields": {}}
	for _, k := range payloadStringFields {
		allowed[k] = struct{}{}
	}
	for _, k := range payloadMoneyFields {
		allowed[k] = struct{}{}
	}
	for k := range maps.Clone(m) {
		if _, ok := allowed[k]; !ok {
			delete(m, k)
			dropped = append(dropped, k+"(unknown)")
		}
	}

	out, err := json.Marshal(m)
	if err != nil {
		return nil, dropped, fmt.Errorf("sanitize: encode: %w", err)
	}
	if len(dropped) > 0 {
		logger.Debug("llm.extract.normalize_sanitize", "dropped", dropped)
	}
	return out, dropped, nil
}

func scalarString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	default:
		// nil, bool, arrays and objects
		return "", false
	}
}

func sanitizeLineItems(v any) []any {
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]any, 0, len(arr))
	for _, el := range arr {
		obj, ok := el.(map[string]any)
		if !ok {
			continue
		}
		desc, okDesc := scalarString(obj["description"])
		amount, okAmount := scalarString(obj["amount"])
		if !okDesc || !okAmount || desc == "" || strings.IndexAny(amount, "0123456789") < 0 {
			continue
		}
		out = append(out, map[string]any{"description": desc, "amount": amount})
	}
	return out
}
