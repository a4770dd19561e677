package export

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/invoice-extractor/internal/repository"
)

// Service renders stored results into export files.
type Service struct {
	repo   repository.ResultRepository
	logger *slog.Logger
}

func NewService(repo repository.ResultRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// Export returns the stored results matching filter rendered in format
// (json, csv or xlsx).
func (s *Service) Export(ctx context.Context, format string, filter repository.ListFilter) ([]byte, error) {
	start := time.Now()
	recs, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	var buf bytes.Buffer
	if err := Write(&buf, format, recs); err != nil {
		return nil, err
	}
	s.logger.Info("export.ok",
		"format", format,
		"rows", len(recs),
		"bytes", buf.Len(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

const sheet = "Invoices"

var headers = []string{
	"Document ID",
	"Filename",
	"Method",
	"Date",
	"Due Date",
	"Invoice Number",
	"Reference",
	"Customer Number",
	"Company",
	"Client",
	"Amount",
	"Tax",
	"Currency",
	"Document Type",
	"Language",
	"Payment Status",
	"Line Items",
	"Confidence",
}

// WriteXLSX renders records into a single-sheet workbook.
func WriteXLSX(recs []*repository.Record) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	// rename the default sheet instead of adding a second one
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, err
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, r := range recs {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		for i, v := range rowValues(r) {
			write(i+1, v)
		}
		row++
	}

	// Widen a few columns
	_ = f.SetColWidth(sheet, "A", "A", 38) // document id
	_ = f.SetColWidth(sheet, "B", "B", 28)
	_ = f.SetColWidth(sheet, "D", "E", 12) // dates
	_ = f.SetColWidth(sheet, "F", "H", 18)
	_ = f.SetColWidth(sheet, "I", "J", 28) // parties
	_ = f.SetColWidth(sheet, "Q", "Q", 48) // line items
	_ = f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
