package export

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/invoice-extractor/constants"
	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/entity"
)

const topClients = 5

type NameCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Summary aggregates a batch of results.
type Summary struct {
	Total             int                                `json:"total"`
	Methods           map[constants.ExtractionMethod]int `json:"methods"`
	Years             map[int]int                        `json:"years"`
	TopClients        []NameCount                        `json:"top_clients"`
	Currencies        map[constants.Currency]int         `json:"currencies"`
	AverageConfidence float64                            `json:"average_confidence"`
	LowConfidence     int                                `json:"low_confidence"`
	SuspiciousAmounts int                                `json:"suspicious_amounts"`
}

// Summarize counts methods, years, clients and currencies, and flags results
// below MinConfidence or with an amount above MaxAmount.
func Summarize(results []entity.ExtractionResult, quality common.QualityConfig) Summary {
	s := Summary{
		Total:      len(results),
		Methods:    map[constants.ExtractionMethod]int{},
		Years:      map[int]int{},
		TopClients: []NameCount{},
		Currencies: map[constants.Currency]int{},
	}
	maxAmount := decimal.NewFromFloat(quality.MaxAmount)
	clients := map[string]int{}

	var confidence float64
	for _, r := range results {
		m := r.Metadata
		s.Methods[r.ExtractionMethod]++
		if m.Year != nil {
			s.Years[*m.Year]++
		}
		if m.ClientName != nil {
			clients[*m.ClientName]++
		}
		if m.Currency != nil {
			s.Currencies[*m.Currency]++
		}
		confidence += m.ExtractionConfidence
		if m.ExtractionConfidence < quality.MinConfidence {
			s.LowConfidence++
		}
		if m.Amount != nil && quality.MaxAmount > 0 && m.Amount.GreaterThan(maxAmount) {
			s.SuspiciousAmounts++
		}
	}
	if len(results) > 0 {
		s.AverageConfidence = math.Round(confidence/float64(len(results))*10000) / 10000
	}

	for name, n := range clients {
		s.TopClients = append(s.TopClients, NameCount{Name: name, Count: n})
	}
	sort.Slice(s.TopClients, func(i, j int) bool {
		a, b := s.TopClients[i], s.TopClients[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Name < b.Name
	})
	if len(s.TopClients) > topClients {
		s.TopClients = s.TopClients[:topClients]
	}
	return s
}

// WriteText prints the summary in a short human-readable form.
func (s Summary) WriteText(w io.Writer) error {
	years := make([]int, 0, len(s.Years))
	for y := range s.Years {
		years = append(years, y)
	}
	sort.Ints(years)
	yearParts := make([]string, len(years))
	for i, y := range years {
		yearParts[i] = fmt.Sprintf("%d=%d", y, s.Years[y])
	}

	clientParts := make([]string, len(s.TopClients))
	for i, c := range s.TopClients {
		clientParts[i] = fmt.Sprintf("%s=%d", c.Name, c.Count)
	}

	currencies := make([]string, 0, len(s.Currencies))
	for c, n := range s.Currencies {
		currencies = append(currencies, fmt.Sprintf("%s=%d", c, n))
	}
	sort.Strings(currencies)

	_, err := fmt.Fprintf(w,
		"Processed %d documents\n"+
			"  methods:     completion=%d fallback=%d hybrid=%d\n"+
			"  years:       %s\n"+
			"  top clients: %s\n"+
			"  currencies:  %s\n"+
			"  confidence:  avg=%.4f low=%d\n"+
			"  suspicious amounts: %d\n",
		s.Total,
		s.Methods[constants.MethodCompletion], s.Methods[constants.MethodFallback], s.Methods[constants.MethodHybrid],
		strings.Join(yearParts, " "),
		strings.Join(clientParts, ", "),
		strings.Join(currencies, " "),
		s.AverageConfidence, s.LowConfidence,
		s.SuspiciousAmounts,
	)
	return err
}
