package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"

	"github.com/joseph-ayodele/invoice-extractor/internal/entity"
	"github.com/joseph-ayodele/invoice-extractor/internal/repository"
)

const (
	FormatJSON = "json"
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// WriteJSON writes results as an indented JSON array ready for vector-store
// ingestion: document_id, truncated_content, metadata, extraction_method.
func WriteJSON(w io.Writer, results []entity.ExtractionResult) error {
	if results == nil {
		results = []entity.ExtractionResult{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(results); err != nil {
		return fmt.Errorf("json write: %w", err)
	}
	return nil
}

// WriteCSV writes one header row and one row per record.
func WriteCSV(w io.Writer, recs []*repository.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(headers); err != nil {
		return fmt.Errorf("csv write: %w", err)
	}
	for _, r := range recs {
		if err := cw.Write(stringRow(r)); err != nil {
			return fmt.Errorf("csv write: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Write renders recs in format to w.
func Write(w io.Writer, format string, recs []*repository.Record) error {
	switch format {
	case FormatJSON:
		results := make([]entity.ExtractionResult, len(recs))
		for i, r := range recs {
			results[i] = r.Result
		}
		return WriteJSON(w, results)
	case FormatCSV:
		return WriteCSV(w, recs)
	case FormatXLSX:
		b, err := WriteXLSX(recs)
		if err != nil {
			return err
		}
		_, err = w.Write(b)
		return err
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}
