package patterns

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/joseph-ayodele/invoice-extractor/constants"
)

func TestLabeledNumbers(t *testing.T) {
	tests := []struct {
		name string
		find func(string) (string, bool)
		text string
		want string
	}{
		{"rechnungsnummer", FindInvoiceNumber, "Rechnungsnummer: RE-2024-001", "RE-2024-001"},
		{"rechnungs-nr", FindInvoiceNumber, "Rechnungs-Nr. 4711.", "4711"},
		{"invoice no", FindInvoiceNumber, "Invoice No: INV-0042", "INV-0042"},
		{"invoice hash", FindInvoiceNumber, "INVOICE #12345", "12345"},
		{"invoice label without digits skipped", FindInvoiceNumber, "Invoice: pending\nInvoice Number: 2024/17", "2024/17"},
		{"date after rechnung label skipped", FindInvoiceNumber, "Rechnung: 15.03.2024\nRechnungsnummer: RE-9", "RE-9"},
		{"referenz", FindReferenceNumber, "Referenz: PO-7781", "PO-7781"},
		{"reference number", FindReferenceNumber, "Reference Number: R2024-9", "R2024-9"},
		{"ref", FindReferenceNumber, "Ref. 55-A", "55-A"},
		{"kundennummer", FindCustomerNumber, "Kundennummer: K-10023", "K-10023"},
		{"kd-nr", FindCustomerNumber, "Kd.-Nr. 4711", "4711"},
		{"customer id", FindCustomerNumber, "Customer ID: C991", "C991"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.find(tt.text)
			assert.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLabeledNumbersAbsent(t *testing.T) {
	_, ok := FindInvoiceNumber("Invoice Date: 03/15/2024")
	assert.False(t, ok)
	_, ok = FindInvoiceNumber("Rechnung: 15.03.2024")
	assert.False(t, ok)
	_, ok = FindInvoiceNumber("Invoice: 2024-03-15")
	assert.False(t, ok)
	_, ok = FindReferenceNumber("no reference given")
	assert.False(t, ok)
	_, ok = FindCustomerNumber("Customer: Example AG")
	assert.False(t, ok)
}

func TestDetectDocumentType(t *testing.T) {
	tests := []struct {
		text string
		want constants.DocumentType
		ok   bool
	}{
		{"RECHNUNG\nNr. 4711", constants.DocumentInvoice, true},
		{"Zahlungserinnerung zur Rechnung 4711", constants.DocumentPaymentRequest, true},
		{"Quittung", constants.DocumentReceipt, true},
		{"Your bill for March, see invoice attached", constants.DocumentBill, true},
		{"Bill To: Globex Corp\nInvoice #7", constants.DocumentInvoice, true},
		{"Invoice\nBilling address: ...", constants.DocumentInvoice, true},
		{"Thank you for your order", constants.DocumentUnknown, false},
	}
	for _, tt := range tests {
		got, ok := DetectDocumentType(tt.text)
		assert.Equal(t, tt.ok, ok, tt.text)
		assert.Equal(t, tt.want, got, tt.text)
	}
}

func TestDetectPaymentStatus(t *testing.T) {
	tests := map[string]constants.PaymentStatus{
		"Status: nicht bezahlt":            constants.PaymentPending,
		"Betrag dankend bezahlt":           constants.PaymentPaid,
		"Payment received, thank you":      constants.PaymentPaid,
		"Total zu bezahlen: CHF 10.00":     constants.PaymentPending,
		"Amount due within 30 days":        constants.PaymentPending,
		"This invoice is overdue but paid": constants.PaymentPending,
		"Hello world":                      constants.PaymentUnknown,
	}
	for text, want := range tests {
		assert.Equal(t, want, DetectPaymentStatus(text), text)
	}
}
