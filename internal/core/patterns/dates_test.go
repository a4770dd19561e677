package patterns

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/joseph-ayodele/invoice-extractor/constants"
)

func TestFindDate(t *testing.T) {
	tests := []struct {
		name string
		text string
		lang constants.Language
		want string
	}{
		{"german labeled", "Lieferdatum 01.02.2024\nRechnungsdatum: 15.03.2024", constants.LanguageGerman, "2024-03-15"},
		{"german bare", "Zürich, 5.3.2024", constants.LanguageGerman, "2024-03-05"},
		{"german dashed", "Datum 15-03-2024", constants.LanguageGerman, "2024-03-15"},
		{"german iso", "Erstellt 2024-03-15", constants.LanguageGerman, "2024-03-15"},
		{"english labeled", "Ship 01/02/2024\nInvoice Date: 03/15/2024", constants.LanguageEnglish, "2024-03-15"},
		{"english labeled iso skips due date", "Due Date: 2024-04-30\nDate: 2024-03-15", constants.LanguageEnglish, "2024-03-15"},
		{"english bare", "Issued 12/31/2023", constants.LanguageEnglish, "2023-12-31"},
		{"mixed prefers labels", "Order 01/02/2024\nRechnungsdatum 15.03.2024", constants.LanguageMixed, "2024-03-15"},
		{"mixed iso before bare forms", "01.02.2024 and 2024-03-15", constants.LanguageUnknown, "2024-03-15"},
		{"invalid month skipped", "Datum: 15.13.2024\nGeliefert 20.03.2024", constants.LanguageGerman, "2024-03-20"},
		{"february 30 rejected", "Rechnungsdatum: 30.02.2024 oder 01.03.2024", constants.LanguageGerman, "2024-03-01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FindDate(tt.text, tt.lang)
			if assert.True(t, ok) {
				assert.Equal(t, tt.want, got.Format(constants.ISODateLayout))
			}
		})
	}
}

func TestFindDateNone(t *testing.T) {
	_, ok := FindDate("Datum: 32.01.2024", constants.LanguageGerman)
	assert.False(t, ok)

	_, ok = FindDate("no dates at all", constants.LanguageEnglish)
	assert.False(t, ok)
}

func TestFindDueDate(t *testing.T) {
	got, ok := FindDueDate("Rechnungsdatum 01.03.2024\nZahlbar bis 31.03.2024")
	if assert.True(t, ok) {
		assert.Equal(t, time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), got)
	}

	got, ok = FindDueDate("Payment Due Date: 04/15/2024")
	if assert.True(t, ok) {
		assert.Equal(t, "2024-04-15", got.Format(constants.ISODateLayout))
	}

	_, ok = FindDueDate("Datum 01.03.2024")
	assert.False(t, ok)
}

func TestParseDate(t *testing.T) {
	for in, want := range map[string]string{
		"2024-03-15":           "2024-03-15",
		" 15.03.2024 ":         "2024-03-15",
		"03/15/2024":           "2024-03-15",
		"2024-03-15T10:00:00Z": "2024-03-15",
	} {
		got, ok := ParseDate(in)
		if assert.True(t, ok, in) {
			assert.Equal(t, want, got.Format(constants.ISODateLayout))
		}
	}

	for _, in := range []string{"", "2024-02-30", "March 15", "15.3.24"} {
		_, ok := ParseDate(in)
		assert.False(t, ok, in)
	}
}

func TestDateFormatPresence(t *testing.T) {
	assert.True(t, HasGermanDates("am 15.03.2024"))
	assert.False(t, HasGermanDates("am 03/15/2024"))
	assert.True(t, HasEnglishDates("on 03/15/2024"))
	assert.False(t, HasEnglishDates("on 31/15/2024"))
}
