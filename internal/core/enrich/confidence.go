package enrich

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/invoice-extractor/constants"
	"github.com/joseph-ayodele/invoice-extractor/internal/entity"
)

const (
	coreWeight      = 3.0
	referenceWeight = 2.0
	secondaryWeight = 1.0
	enumWeight      = 0.5

	minYear = 1970
	maxYear = 2100

	defaultMaxAmount = 100000
)

// totalWeight is the score of a record with every field populated and plausible.
const totalWeight = 3*coreWeight + referenceWeight + 6*secondaryWeight + 2*enumWeight

// Scorer assigns the extraction confidence.
type Scorer struct {
	MaxAmount decimal.Decimal
}

func NewScorer(maxAmount float64) Scorer {
	if maxAmount <= 0 {
		maxAmount = defaultMaxAmount
	}
	return Scorer{MaxAmount: decimal.NewFromFloat(maxAmount)}
}

// Score is the weighted fraction of populated, plausible fields, rounded to
// four decimals. Date, amount and invoice number weigh the most. A value that
// fails its plausibility check still earns half of its weight.
func (s Scorer) Score(m entity.ExtractedMetadata) float64 {
	var got float64

	if m.Date != nil {
		got += checked(coreWeight, plausibleYear(m.Date.Year()))
	}
	if m.Amount != nil {
		got += checked(coreWeight, s.plausibleAmount(*m.Amount))
	}
	if present(m.InvoiceNumber) {
		got += coreWeight
	}
	if present(m.ReferenceNumber) {
		got += referenceWeight
	}

	if m.Currency != nil {
		got += secondaryWeight
	}
	if m.TaxAmount != nil {
		got += checked(secondaryWeight, plausibleTax(*m.TaxAmount, m.Amount))
	}
	for _, v := range []*string{m.ClientName, m.CompanyName, m.CustomerNumber} {
		if present(v) {
			got += secondaryWeight
		}
	}
	if len(m.LineItems) > 0 {
		got += secondaryWeight
	}

	if m.DocumentType != "" && m.DocumentType != constants.DocumentUnknown {
		got += enumWeight
	}
	if m.PaymentStatus != "" && m.PaymentStatus != constants.PaymentUnknown {
		got += enumWeight
	}

	score := math.Round(got/totalWeight*10000) / 10000
	return math.Min(1, math.Max(0, score))
}

// checked splits weight into a share for presence and a share for plausibility.
func checked(weight float64, plausible bool) float64 {
	if plausible {
		return weight
	}
	return weight / 2
}

func (s Scorer) plausibleAmount(d decimal.Decimal) bool {
	limit := s.MaxAmount
	if limit.IsZero() {
		limit = decimal.NewFromInt(defaultMaxAmount)
	}
	return d.IsPositive() && d.LessThanOrEqual(limit)
}

// plausibleTax rejects negative tax and tax above the total it belongs to.
func plausibleTax(tax decimal.Decimal, amount *decimal.Decimal) bool {
	if tax.IsNegative() {
		return false
	}
	return amount == nil || tax.LessThanOrEqual(*amount)
}

func plausibleYear(y int) bool {
	return y >= minYear && y <= maxYear
}

func present(s *string) bool {
	return s != nil && *s != ""
}
