package patterns

import (
	"regexp"
	"strings"
	"unicode"
)

const labelToken = `\s*:?\s*#?\s*([A-Za-z0-9][A-Za-z0-9\-/_.]*)`

var (
	invoiceNumberRules = []*regexp.Regexp{
		regexp.MustCompile(`(?i:\brechnungs-?(?:nummer|nr\b\.?)|\brechnung\s*(?:nr\b\.?|#|:))` + labelToken),
		regexp.MustCompile(`(?i:\binvoice\s*(?:no\b\.?|number\b|nr\b\.?|#|:)|\binv\.?\s*#)` + labelToken),
	}
	referenceNumberRules = []*regexp.Regexp{
		regexp.MustCompile(`(?i:\breferenz(?:nummer|-?nr\b\.?)?|\bunser\s+zeichen|\bihr\s+zeichen)` + labelToken),
		regexp.MustCompile(`(?i:\breference(?:\s*(?:no\b\.?|number\b|#))?|\bref\b\.?(?:\s*(?:no|nr)\b\.?)?)` + labelToken),
	}
	customerNumberRules = []*regexp.Regexp{
		regexp.MustCompile(`(?i:\bkunden-?(?:nummer|nr\b\.?)|\bkd\.?\s*-?nr\b\.?)` + labelToken),
		regexp.MustCompile(`(?i:\bcustomer\s*(?:no\b\.?|number\b|id\b|#))` + labelToken),
	}
)

// FindInvoiceNumber returns the identifier following an invoice-number label.
func FindInvoiceNumber(text string) (string, bool) {
	return firstLabeled(text, invoiceNumberRules)
}

func FindReferenceNumber(text string) (string, bool) {
	return firstLabeled(text, referenceNumberRules)
}

func FindCustomerNumber(text string) (string, bool) {
	return firstLabeled(text, customerNumberRules)
}

func firstLabeled(text string, rules []*regexp.Regexp) (string, bool) {
	for _, re := range rules {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			token := strings.TrimRight(m[1], ".-/_")
			if strings.IndexFunc(token, unicode.IsDigit) < 0 {
				continue
			}
			// "Rechnung: 15.03.2024" labels the date, not the number
			if _, isDate := ParseDate(token); !isDate {
				return token, true
			}
		}
	}
	return "", false
}
