package patterns

import (
	"regexp"
	"strings"
	"time"

	"github.com/joseph-ayodele/invoice-extractor/constants"
)

const (
	layoutGermanDotted = "2.1.2006"
	layoutGermanDashed = "2-1-2006"
	layoutEnglish      = "1/2/2006"
)

type dateRule struct {
	name   string
	re     *regexp.Regexp
	layout string
	// skip rejects a match by its optional "prefix" group.
	skip func(prefix string) bool
}

var (
	germanLabeledDate = dateRule{
		name:   "german_labeled",
		re:     regexp.MustCompile(`(?i)(?:\brechnungsdatum|\bdatum)\s*:?\s*(\d{1,2}\.\d{1,2}\.\d{4})`),
		layout: layoutGermanDotted,
	}
	germanDottedDate = dateRule{
		name:   "german_dotted",
		re:     regexp.MustCompile(`\b(\d{1,2}\.\d{1,2}\.\d{4})\b`),
		layout: layoutGermanDotted,
	}
	germanDashedDate = dateRule{
		name:   "german_dashed",
		re:     regexp.MustCompile(`\b(\d{1,2}-\d{1,2}-\d{4})\b`),
		layout: layoutGermanDashed,
	}
	isoDate = dateRule{
		name:   "iso",
		re:     regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`),
		layout: constants.ISODateLayout,
	}
	englishLabeledDate = dateRule{
		name:   "english_labeled",
		re:     regexp.MustCompile(`(?i)\binvoice\s+date\s*:?\s*(\d{1,2}/\d{1,2}/\d{4})`),
		layout: layoutEnglish,
	}
	englishLabeledISODate = dateRule{
		name:   "english_labeled_iso",
		re:     regexp.MustCompile(`(?i)(\w+\s+)?\bdate\s*:?\s*(\d{4}-\d{2}-\d{2})`),
		layout: constants.ISODateLayout,
		skip: func(prefix string) bool {
			return strings.EqualFold(strings.TrimSpace(prefix), "due")
		},
	}
	englishSlashedDate = dateRule{
		name:   "english_slashed",
		re:     regexp.MustCompile(`\b(\d{1,2}/\d{1,2}/\d{4})\b`),
		layout: layoutEnglish,
	}
)

var dateRulesByLanguage = map[constants.Language][]dateRule{
	constants.LanguageGerman: {
		germanLabeledDate, germanDottedDate, germanDashedDate, isoDate,
	},
	constants.LanguageEnglish: {
		englishLabeledDate, englishLabeledISODate, englishSlashedDate, isoDate,
	},
}

// mixed and unknown text: labeled rules of both languages, then ISO, then
// the German and English bare forms.
var defaultDateRules = []dateRule{
	germanLabeledDate, englishLabeledDate, englishLabeledISODate,
	isoDate, germanDottedDate, germanDashedDate, englishSlashedDate,
}

var dueDateRules = []dateRule{
	{
		name:   "due_german",
		re:     regexp.MustCompile(`(?i)(?:fällig\s+(?:am|bis)|zahlbar\s+bis|fälligkeitsdatum|zahlungsfrist)\s*:?\s*(\d{1,2}\.\d{1,2}\.\d{4})`),
		layout: layoutGermanDotted,
	},
	{
		name:   "due_english",
		re:     regexp.MustCompile(`(?i)\b(?:due\s+date|due\s+on|payable\s+by)\s*:?\s*(\d{1,2}/\d{1,2}/\d{4})`),
		layout: layoutEnglish,
	},
	{
		name:   "due_iso",
		re:     regexp.MustCompile(`(?i)(?:due\s+date|due\s+on|payable\s+by|fällig\s+(?:am|bis)|zahlbar\s+bis|fälligkeitsdatum)\s*:?\s*(\d{4}-\d{2}-\d{2})`),
		layout: constants.ISODateLayout,
	},
}

// FindDate scans the language's date rules in priority order and returns the
// first match that is a valid calendar date.
func FindDate(text string, lang constants.Language) (time.Time, bool) {
	rules, ok := dateRulesByLanguage[lang]
	if !ok {
		rules = defaultDateRules
	}
	return firstDate(text, rules)
}

// FindDueDate returns the labeled payment deadline, if any.
func FindDueDate(text string) (time.Time, bool) {
	return firstDate(text, dueDateRules)
}

func firstDate(text string, rules []dateRule) (time.Time, bool) {
	for _, rule := range rules {
		for _, m := range rule.re.FindAllStringSubmatch(text, -1) {
			value := m[len(m)-1]
			if rule.skip != nil && len(m) > 2 && rule.skip(m[1]) {
				continue
			}
			if t, err := time.ParseInLocation(rule.layout, value, time.UTC); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

var parseLayouts = []string{
	constants.ISODateLayout,
	layoutGermanDotted,
	layoutGermanDashed,
	layoutEnglish,
	"2006/01/02",
	time.RFC3339,
}

// ParseDate parses a standalone date string in any supported layout.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range parseLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// HasGermanDates reports a valid DD.MM.YYYY date in text.
func HasGermanDates(text string) bool {
	_, ok := firstDate(text, []dateRule{germanDottedDate})
	return ok
}

// HasEnglishDates reports a valid MM/DD/YYYY date in text.
func HasEnglishDates(text string) bool {
	_, ok := firstDate(text, []dateRule{englishSlashedDate})
	return ok
}
