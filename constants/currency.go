package constants

import (
	"strings"
)

type Currency string

const (
	CHF Currency = "CHF"
	EUR Currency = "EUR"
	USD Currency = "USD"
)

var allCurrencies = []Currency{CHF, EUR, USD}

// CurrencyCodes returns the supported ISO 4217 codes.
func CurrencyCodes() []string {
	result := make([]string, len(allCurrencies))
	for i, c := range allCurrencies {
		result[i] = string(c)
	}
	return result
}

// CanonicalizeCurrency maps codes, symbols and common names onto the
// supported enum. Unsupported currencies report false.
func CanonicalizeCurrency(input string) (Currency, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return "", false
	}

	synonyms := map[string]Currency{
		"fr":      CHF,
		"fr.":     CHF,
		"sfr":     CHF,
		"sfr.":    CHF,
		"franken": CHF,
		"€":       EUR,
		"euro":    EUR,
		"euros":   EUR,
		"$":       USD,
		"us$":     USD,
		"dollar":  USD,
		"dollars": USD,
	}
	if c, ok := synonyms[normalized]; ok {
		return c, true
	}

	for _, c := range allCurrencies {
		if normalized == strings.ToLower(string(c)) {
			return c, true
		}
	}
	return "", false
}
