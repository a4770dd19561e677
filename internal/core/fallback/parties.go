package fallback

import (
	"regexp"
	"strings"

	"github.com/joseph-ayodele/invoice-extractor/internal/core/patterns"
)

// reLegalEntity matches a run of capitalized words closed by a legal-entity
// suffix. Unicode letters are allowed, so no leading \b.
var reLegalEntity = regexp.MustCompile(
	`([A-ZÄÖÜ][\p{L}\d&.'\-]*(?:[ \t]+(?:[A-ZÄÖÜ&][\p{L}\d&.'\-]*|und|and|of))*[ \t]+(?:GmbH|AG|Ltd|Inc|Corp|SA|LLC|KG|SE))(?:[^\p{L}]|$)`)

type parties struct {
	client  string
	company string
}

// findParties scans the header lines for legal entities. Entities on a line
// that names one of the issuers become the company; the first other entity
// is the client.
func findParties(text string, scanLines int, issuers []string) parties {
	var p parties
	for _, line := range patterns.Lines(text, scanLines) {
		m := reLegalEntity.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		name := strings.TrimSpace(m[1])
		if mentionsIssuer(line, issuers) {
			if p.company == "" {
				p.company = name
			}
			continue
		}
		if p.client == "" {
			p.client = name
		}
		if p.client != "" && p.company != "" {
			break
		}
	}
	return p
}

func mentionsIssuer(line string, issuers []string) bool {
	lower := strings.ToLower(line)
	for _, issuer := range issuers {
		issuer = strings.ToLower(strings.TrimSpace(issuer))
		if issuer != "" && strings.Contains(lower, issuer) {
			return true
		}
	}
	return false
}
