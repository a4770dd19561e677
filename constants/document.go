package constants

import "strings"

// DocumentType classifies the source text.
type DocumentType string

const (
	DocumentInvoice        DocumentType = "invoice"
	DocumentBill           DocumentType = "bill"
	DocumentReceipt        DocumentType = "receipt"
	DocumentPaymentRequest DocumentType = "payment_request"
	DocumentUnknown        DocumentType = "unknown"
)

// PaymentStatus is inferred from due/paid wording.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentUnknown PaymentStatus = "unknown"
)

func CanonicalizeDocumentType(input string) DocumentType {
	normalized := strings.ToLower(strings.TrimSpace(input))
	normalized = strings.NewReplacer(" ", "_", "-", "_").Replace(normalized)

	synonyms := map[string]DocumentType{
		"invoice":              DocumentInvoice,
		"rechnung":             DocumentInvoice,
		"bill":                 DocumentBill,
		"receipt":              DocumentReceipt,
		"quittung":             DocumentReceipt,
		"payment_request":      DocumentPaymentRequest,
		"zahlungsaufforderung": DocumentPaymentRequest,
	}
	if t, ok := synonyms[normalized]; ok {
		return t
	}
	return DocumentUnknown
}

func CanonicalizePaymentStatus(input string) PaymentStatus {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "paid", "bezahlt", "settled":
		return PaymentPaid
	case "pending", "open", "offen", "due", "overdue", "unpaid":
		return PaymentPending
	default:
		return PaymentUnknown
	}
}
