// Package language classifies invoice text as German, English or mixed
// from weighted marker words.
package language

import (
	"strings"
	"unicode"

	"github.com/joseph-ayodele/invoice-extractor/constants"
)

const (
	DefaultDominanceRatio = 2.0
	DefaultMinPresence    = 0.02
)

var germanMarkers = map[string]float64{
	"rechnung": 2, "rechnungsnummer": 2, "rechnungsdatum": 2, "quittung": 2,
	"mehrwertsteuer": 2, "mwst": 2, "kundennummer": 2, "gesamtbetrag": 2,
	"zahlungsbetrag": 2, "zahlbar": 1.5, "fällig": 1.5, "bezahlen": 1.5, "betrag": 1,
	"datum": 1, "steuer": 1, "referenz": 1, "lieferung": 1, "leistung": 1,
	"und": 1, "für": 1, "mit": 1, "bis": 1, "nicht": 1, "bitte": 1, "vielen": 1,
	"dank": 1, "ist": 1, "herr": 1, "frau": 1, "der": 0.5, "die": 0.5, "das": 0.5,
	"zu": 0.5, "von": 0.5, "am": 0.5,
}

var englishMarkers = map[string]float64{
	"invoice": 2, "receipt": 2, "bill": 1.5, "customer": 1.5, "payment": 1.5,
	"due": 1.5, "amount": 1, "date": 1, "tax": 1, "number": 1, "reference": 1,
	"delivery": 1, "service": 1, "services": 1, "goods": 1, "subtotal": 1,
	"paid": 1, "please": 1, "thank": 1, "and": 1, "for": 1, "the": 0.5,
	"to": 0.5, "of": 0.5, "you": 0.5,
}

// germanStems score compound words such as Rechnungsperiode or Kundenrabatt.
var germanStems = []string{"rechnung", "betrag", "steuer", "kunden", "zahlung", "leistung"}

// Detector is pure and safe for concurrent use.
type Detector struct {
	// DominanceRatio is how many times denser one marker set must be to win outright.
	DominanceRatio float64
	// MinPresence is the density both sets need for a mixed verdict.
	MinPresence float64
}

func NewDetector() *Detector {
	return &Detector{
		DominanceRatio: DefaultDominanceRatio,
		MinPresence:    DefaultMinPresence,
	}
}

var defaultDetector = NewDetector()

// Detect classifies text with the default thresholds.
func Detect(text string) constants.Language {
	return defaultDetector.Detect(text)
}

// Scores returns the German and English marker densities of text.
func Scores(text string) (german, english float64) {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return 0, 0
	}
	for _, tok := range tokens {
		german += germanWeight(tok)
		english += englishMarkers[tok]
	}
	n := float64(len(tokens))
	return german / n, english / n
}

func (d *Detector) Detect(text string) constants.Language {
	g, e := Scores(text)
	switch {
	case g == 0 && e == 0:
		return constants.LanguageUnknown
	case g >= d.DominanceRatio*e:
		return constants.LanguageGerman
	case e >= d.DominanceRatio*g:
		return constants.LanguageEnglish
	case g >= d.MinPresence && e >= d.MinPresence:
		return constants.LanguageMixed
	case g > e:
		return constants.LanguageGerman
	case e > g:
		return constants.LanguageEnglish
	default:
		return constants.LanguageMixed
	}
}

func germanWeight(tok string) float64 {
	if w, ok := germanMarkers[tok]; ok {
		return w
	}
	for _, stem := range germanStems {
		if len(tok) > len(stem) && strings.Contains(tok, stem) {
			return 1
		}
	}
	return 0
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
}
