package constants

import "strings"

type Language string

const (
	LanguageGerman  Language = "german"
	LanguageEnglish Language = "english"
	LanguageMixed   Language = "mixed"
	LanguageUnknown Language = "unknown"
)

func CanonicalizeLanguage(input string) Language {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "german", "de", "deutsch":
		return LanguageGerman
	case "english", "en", "englisch":
		return LanguageEnglish
	case "mixed":
		return LanguageMixed
	default:
		return LanguageUnknown
	}
}
