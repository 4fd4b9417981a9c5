package extract

import (
	"context"
	"strconv"
	"strings"

	"github.com/CdubVentures/spec-harvester-sub014/pkg/model"
)

// PDFPage is a single extracted PDF text layer plus optional OCR output,
// supplied to PDFExtractor by the fetcher/backend router (spec §4.4 item
// 6). No PDF-parsing library is present anywhere in the retrieved
// example pack, so the backend router itself is out of scope here; this
// extractor consumes already-extracted text/table rows the way the other
// extractors consume already-fetched HTML.
type PDFPage struct {
	Text       string
	TableRows  [][2]string // key, value pairs from a table-dense backend
	OCRRows    []OCRRow    // present only when scanned-PDF OCR is enabled
}

// OCRRow is one OCR-extracted key/value pair with its confidence.
type OCRRow struct {
	Key            string
	Value          string
	OCRConfidence  float64
	LowConfidence  bool
}

// PDFExtractor emits pdf_table candidates from TableRows (base 0.80) and
// pdf_kv candidates from OCRRows and free text matches (also base 0.80).
type PDFExtractor struct {
	Pages map[string]PDFPage // source_id -> page, populated by the caller
}

func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{Pages: map[string]PDFPage{}}
}

func (PDFExtractor) Method() model.ExtractionMethod { return model.MethodPDFTable }

func (e *PDFExtractor) Extract(_ context.Context, page Page) []model.Candidate {
	pdf, ok := e.Pages[page.Source.SourceID]
	if !ok {
		return nil
	}

	var out []model.Candidate
	for i, row := range pdf.TableRows {
		if field, ok := matchFieldHint(row[0], page.Fields); ok {
			out = append(out, model.NewCandidate(field, row[1], model.MethodPDFTable, "pdf.table["+strconv.Itoa(i)+"]", page.Source.SourceID, nil))
		}
	}
	for i, row := range pdf.OCRRows {
		if row.LowConfidence {
			continue
		}
		if field, ok := matchFieldHint(row.Key, page.Fields); ok {
			out = append(out, model.NewCandidate(field, row.Value, model.MethodPDFKV, "pdf.ocr["+strconv.Itoa(i)+"]", page.Source.SourceID, nil))
		}
	}
	if pdf.Text != "" {
		lower := strings.ToLower(pdf.Text)
		for _, field := range page.Fields {
			token := strings.ReplaceAll(strings.ToLower(field), "_", " ")
			idx := strings.Index(lower, token)
			if idx < 0 {
				continue
			}
			value := extractValueAfterToken(pdf.Text[idx:min(idx+120, len(pdf.Text))], token)
			if value != "" {
				out = append(out, model.NewCandidate(field, value, model.MethodPDFKV, "pdf.text."+field, page.Source.SourceID, nil))
			}
		}
	}
	return out
}
