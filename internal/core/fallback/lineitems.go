package fallback

import (
	"regexp"
	"strings"

	"github.com/joseph-ayodele/invoice-extractor/constants"
	"github.com/joseph-ayodele/invoice-extractor/internal/core/patterns"
	"github.com/joseph-ayodele/invoice-extractor/internal/entity"
)

// "description ... amount" with dot leaders, a colon, a column gap or a tab
// between the two parts.
var reLineItem = regexp.MustCompile(
	`^\s*(?:\d{1,3}[.)]\s+)?(\p{L}[^\t:]*?)(?:\s*\.{2,}\s*|\s*:\s*|[ ]{2,}|\t+)` +
		`(?:(?:CHF|SFr\.?|Fr\.|EUR|€|USD|US\$|\$)\s*)?` +
		`(\d{1,3}(?:[.,'’]\d{3})+(?:[.,]\d{2})?|\d+(?:[.,]\d{1,2})?)` +
		`\s*(?:CHF|EUR|USD|€|\$)?\s*$`)

// Summary and field rows are not line items.
var reNotLineItem = regexp.MustCompile(`(?i)(?:\b(?:total|subtotal|zwischensumme|summe|mwst|mehrwertsteuer|steuer|ust|tax|vat|betrag|amount|rechnungs\w*|invoice|datum|date|kunden\w*|customer|referenz|reference|due|rabatt|discount|gesamt\w*|saldo|balance)\b|fällig)`)

func findLineItems(text string, lang constants.Language, minItems int) []entity.LineItem {
	items := []entity.LineItem{}
	for _, line := range strings.Split(text, "\n") {
		m := reLineItem.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		desc := strings.TrimRight(strings.TrimSpace(m[1]), ". ")
		if desc == "" || reNotLineItem.MatchString(desc) {
			continue
		}
		amount, ok := patterns.ParseAmount(m[2], lang)
		if !ok {
			continue
		}
		items = append(items, entity.LineItem{Description: desc, Amount: amount})
	}
	if len(items) < minItems {
		return []entity.LineItem{}
	}
	return items
}
