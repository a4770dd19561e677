package patterns

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/invoice-extractor/constants"
)

var (
	reNumber       = regexp.MustCompile(numberExpr)
	reCanonicalNum = regexp.MustCompile(`^-?\d+(?:\.\d+)?$`)
)

// amountGap allows a short run of non-digit text between label and number,
// e.g. ": CHF " or " (inkl. MwSt.) EUR ".
const amountGap = `[^\d\n]{0,30}?`

var (
	germanTotalRules = []*regexp.Regexp{
		regexp.MustCompile(`(?i:total\s+zu\s+bezahlen|gesamtbetrag|zahlungsbetrag|rechnungsbetrag|endbetrag)` + amountGap + numberExpr + numberTail),
	}
	englishTotalRules = []*regexp.Regexp{
		regexp.MustCompile(`(?i:amount\s+due|total\s+amount|grand\s+total|balance\s+due|total\s+due)` + amountGap + numberExpr + numberTail),
	}
	plainTotalRule = regexp.MustCompile(`(?i:\btotal\b)` + amountGap + numberExpr + numberTail)

	currencyPairRules = []*regexp.Regexp{
		regexp.MustCompile(currencyExpr + `\s*` + numberExpr + numberTail),
		regexp.MustCompile(`(?i)` + numberExpr + `\s*(?:CHF|EUR|USD|€|\$)`),
	}

	reTax = regexp.MustCompile(`(?im)\b(?:mehrwertsteuer|mwst|ust|vat|tax|steuer)\b\.?(?:\s*\(?\d{1,2}(?:[.,]\d{1,2})?\s*%\)?)?\s*:?\s*` + currencyExpr + `?\s*` + numberExpr + numberTail)
)

func amountRules(lang constants.Language) []*regexp.Regexp {
	var labeled []*regexp.Regexp
	switch lang {
	case constants.LanguageEnglish:
		labeled = append(labeled, englishTotalRules...)
		labeled = append(labeled, germanTotalRules...)
	default:
		labeled = append(labeled, germanTotalRules...)
		labeled = append(labeled, englishTotalRules...)
	}
	labeled = append(labeled, plainTotalRule)
	return append(labeled, currencyPairRules...)
}

// FindAmount returns the invoice total: label-anchored rules first, then bare
// currency/number pairs. The first parseable match wins.
func FindAmount(text string, lang constants.Language) (decimal.Decimal, bool) {
	return firstAmount(text, lang, amountRules(lang))
}

// FindTaxAmount returns the first VAT/MwSt amount, skipping bare rates.
func FindTaxAmount(text string, lang constants.Language) (decimal.Decimal, bool) {
	return firstAmount(text, lang, []*regexp.Regexp{reTax})
}

func firstAmount(text string, lang constants.Language, rules []*regexp.Regexp) (decimal.Decimal, bool) {
	for _, re := range rules {
		for _, loc := range re.FindAllStringSubmatchIndex(text, -1) {
			start, end := loc[2], loc[3]
			d, ok := ParseAmount(text[start:end], lang)
			if !ok {
				continue
			}
			if negated(text[:start]) {
				d = d.Neg()
			}
			return d, true
		}
	}
	return decimal.Decimal{}, false
}

// negated reports whether the number following prefix carries a leading minus
// sign ("Total: -50.00", credit notes). A minus after a digit is a range or a
// date separator, not a sign.
func negated(prefix string) bool {
	var rest string
	switch {
	case strings.HasSuffix(prefix, "-"):
		rest = strings.TrimSuffix(prefix, "-")
	case strings.HasSuffix(prefix, "\u2212"):
		rest = strings.TrimSuffix(prefix, "\u2212")
	default:
		return false
	}
	if rest == "" {
		return true
	}
	last := rest[len(rest)-1]
	return last < '0' || last > '9'
}

// ParseAmountText parses the first number found inside free text such as
// "CHF 1'234.50".
func ParseAmountText(text string, lang constants.Language) (decimal.Decimal, bool) {
	text = strings.TrimSpace(text)
	if d, ok := ParseAmount(text, lang); ok {
		return d, true
	}
	raw := reNumber.FindString(text)
	if raw == "" {
		return decimal.Decimal{}, false
	}
	return ParseAmount(raw, lang)
}

// ParseAmount normalizes a numeric literal with either decimal convention.
//
// When both '.' and ',' occur the last one is the decimal separator. A
// separator occurring more than once groups thousands. A single separator
// followed by exactly three digits is ambiguous and resolved by language:
// German reads '.' as grouping and ',' as decimal, English the reverse, and
// mixed or unknown text treats it as grouping. Any other single separator is
// the decimal point. Spaces and Swiss apostrophes are ignored.
func ParseAmount(raw string, lang constants.Language) (decimal.Decimal, bool) {
	s := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\'', '’', '\u00a0', '\u202f':
			return -1
		}
		return r
	}, raw)
	if s == "" {
		return decimal.Decimal{}, false
	}

	dots := strings.Count(s, ".")
	commas := strings.Count(s, ",")
	switch {
	case dots > 0 && commas > 0:
		if strings.LastIndex(s, ".") > strings.LastIndex(s, ",") {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		}
	case dots+commas == 0:
	default:
		sep := "."
		if commas > 0 {
			sep = ","
		}
		if dots+commas > 1 {
			s = strings.ReplaceAll(s, sep, "")
			break
		}
		idx := strings.Index(s, sep)
		if len(s)-idx-1 == 3 && isGroupingSeparator(sep, lang) {
			s = strings.Replace(s, sep, "", 1)
		} else {
			s = strings.Replace(s, sep, ".", 1)
		}
	}

	if !reCanonicalNum.MatchString(s) {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

func isGroupingSeparator(sep string, lang constants.Language) bool {
	switch lang {
	case constants.LanguageGerman:
		return sep == "."
	case constants.LanguageEnglish:
		return sep == ","
	default:
		return true
	}
}
