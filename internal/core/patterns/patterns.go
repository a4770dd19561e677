// Package patterns holds the compiled, read-only rule sets shared by the
// fallback extractor, the enricher and the completion payload converter.
package patterns

import (
	"regexp"
	"strings"

	"github.com/joseph-ayodele/invoice-extractor/constants"
)

// numberExpr matches grouped amounts (1'234.50, 1.234,50, 12,345) and plain
// ones (1234.5, 99).
const numberExpr = `(\d{1,3}(?:[.,'’]\d{3})+(?:[.,]\d{2})?|\d+(?:[.,]\d{1,2})?)`

// numberTail rejects matches that continue as a longer number or a percentage.
const numberTail = `(?:[.,](?:\D|$)|[^\d.,'’%]|$)`

const currencyExpr = `(?:CHF|SFr\.?|Fr\.|EUR|€|USD|US\$|\$)`

var reCurrency = regexp.MustCompile(`(?i)(\bCHF\b|\bSFr\b\.?|\bFr\.\s?\d|\bEUR\b|€|\bEuros?\b|\bUSD\b|\bUS\$|\$)`)

// FindCurrency returns the first explicit currency code or symbol in text.
func FindCurrency(text string) (constants.Currency, bool) {
	for _, m := range reCurrency.FindAllString(text, -1) {
		token := strings.TrimRight(m, "0123456789 ")
		if c, ok := constants.CanonicalizeCurrency(token); ok {
			return c, true
		}
	}
	return "", false
}
