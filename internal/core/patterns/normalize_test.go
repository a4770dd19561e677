package patterns

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	in := "Rechnung\r\n\r\n\r\n\r\nPosition A   CHF 10.00   \r\nTotal\t\t20.00\t\n"
	assert.Equal(t, "Rechnung\n\nPosition A   CHF 10.00\nTotal\t\t20.00", Normalize(in))
	assert.Equal(t, "", Normalize(""))
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "Zür", TruncateRunes("Zürich", 3))
	assert.Equal(t, "abc", TruncateRunes("abc", 10))
	assert.Equal(t, "", TruncateRunes("abc", 0))
}

func TestLinesAndWordCount(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, Lines("a\nb\nc", 2))
	assert.Len(t, Lines("a\nb\nc", 0), 3)
	assert.Equal(t, 4, WordCount(" Total zu\tbezahlen\n10.00 "))
}
