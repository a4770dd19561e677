package patterns

import (
	"regexp"
	"strings"

	"github.com/joseph-ayodele/invoice-extractor/constants"
)

type documentKeywords struct {
	docType constants.DocumentType
	// german keywords match as substrings (compounds like Rechnungsdatum)
	german []string
	// english keywords match whole words
	english *regexp.Regexp
}

// Listed by priority; on equal positions the earlier entry wins.
var documentTypeKeywords = []documentKeywords{
	{
		docType: constants.DocumentPaymentRequest,
		german:  []string{"zahlungsaufforderung", "zahlungserinnerung", "mahnung"},
		english: regexp.MustCompile(`\bpayment\s+(?:request|reminder)\b`),
	},
	{
		docType: constants.DocumentReceipt,
		german:  []string{"quittung", "kassenbon", "kassenzettel"},
		english: regexp.MustCompile(`\breceipt\b`),
	},
	{
		docType: constants.DocumentInvoice,
		german:  []string{"rechnung"},
		english: regexp.MustCompile(`\binvoice\b`),
	},
	{
		docType: constants.DocumentBill,
		english: regexp.MustCompile(`\bbill\b`),
	},
}

// "Bill to" and "billed to" introduce the recipient, not a document type.
var reBillTo = regexp.MustCompile(`\bbill(?:ed)?\s+to\b`)

// DetectDocumentType returns the type whose keyword occurs earliest in text.
func DetectDocumentType(text string) (constants.DocumentType, bool) {
	lower := reBillTo.ReplaceAllStringFunc(strings.ToLower(text), func(s string) string {
		return strings.Repeat(" ", len(s))
	})
	best, bestPos := constants.DocumentUnknown, -1
	for _, kw := range documentTypeKeywords {
		pos := -1
		for _, word := range kw.german {
			if i := strings.Index(lower, word); i >= 0 && (pos < 0 || i < pos) {
				pos = i
			}
		}
		if loc := kw.english.FindStringIndex(lower); loc != nil && (pos < 0 || loc[0] < pos) {
			pos = loc[0]
		}
		if pos >= 0 && (bestPos < 0 || pos < bestPos) {
			best, bestPos = kw.docType, pos
		}
	}
	return best, bestPos >= 0
}

var (
	reUnpaid = regexp.MustCompile(`(?i)(?:nicht\s+bezahlt|unbezahlt|\bunpaid\b|\bnot\s+(?:yet\s+)?paid\b|\bto\s+be\s+paid\b|überfällig|\boverdue\b|ausstehend)`)
	rePaid   = regexp.MustCompile(`(?i)(?:\bpaid\b|\bbezahlt\b|\bbeglichen\b|\bpayment\s+received\b|\bzahlung\s+erhalten\b)`)
	reDue    = regexp.MustCompile(`(?i)(?:\bzu\s+bezahlen\b|\bzahlbar\b|fällig|\bamount\s+due\b|\bdue\s+date\b|\bpayable\b|\boffen\b|\bdue\b)`)
)

// DetectPaymentStatus infers pending/paid from wording; unpaid phrases beat
// paid ones.
func DetectPaymentStatus(text string) constants.PaymentStatus {
	switch {
	case reUnpaid.MatchString(text):
		return constants.PaymentPending
	case rePaid.MatchString(text):
		return constants.PaymentPaid
	case reDue.MatchString(text):
		return constants.PaymentPending
	default:
		return constants.PaymentUnknown
	}
}
