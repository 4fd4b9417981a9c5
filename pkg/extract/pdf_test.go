package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CdubVentures/spec-harvester-sub014/pkg/model"
)

func TestPDFExtractor_EmitsTableRowCandidates(t *testing.T) {
	e := NewPDFExtractor()
	e.Pages["s1"] = PDFPage{TableRows: [][2]string{{"Range Miles", "310"}}}

	page := Page{Source: model.Source{SourceID: "s1"}, Fields: []string{"range_miles"}}
	out := e.Extract(context.Background(), page)

	require.Len(t, out, 1)
	assert.Equal(t, "range_miles", out[0].Field)
	assert.Equal(t, "310", out[0].Value.Scalar)
	assert.Equal(t, model.MethodPDFTable, out[0].Method)
}

func TestPDFExtractor_SkipsLowConfidenceOCRRows(t *testing.T) {
	e := NewPDFExtractor()
	e.Pages["s1"] = PDFPage{OCRRows: []OCRRow{
		{Key: "Range Miles", Value: "310", OCRConfidence: 0.4, LowConfidence: true},
	}}

	page := Page{Source: model.Source{SourceID: "s1"}, Fields: []string{"range_miles"}}
	out := e.Extract(context.Background(), page)

	assert.Empty(t, out)
}

func TestPDFExtractor_EmitsHighConfidenceOCRRows(t *testing.T) {
	e := NewPDFExtractor()
	e.Pages["s1"] = PDFPage{OCRRows: []OCRRow{
		{Key: "Range Miles", Value: "310", OCRConfidence: 0.95, LowConfidence: false},
	}}

	page := Page{Source: model.Source{SourceID: "s1"}, Fields: []string{"range_miles"}}
	out := e.Extract(context.Background(), page)

	require.Len(t, out, 1)
	assert.Equal(t, model.MethodPDFKV, out[0].Method)
}

func TestPDFExtractor_ParsesFreeTextNearFieldToken(t *testing.T) {
	e := NewPDFExtractor()
	e.Pages["s1"] = PDFPage{Text: "range miles: 310 combined"}

	page := Page{Source: model.Source{SourceID: "s1"}, Fields: []string{"range_miles"}}
	out := e.Extract(context.Background(), page)

	require.Len(t, out, 1)
	assert.Contains(t, out[0].Value.Scalar, "310")
}

func TestPDFExtractor_UnknownSourceYieldsNoCandidates(t *testing.T) {
	e := NewPDFExtractor()

	page := Page{Source: model.Source{SourceID: "missing"}, Fields: []string{"range_miles"}}
	out := e.Extract(context.Background(), page)

	assert.Nil(t, out)
}
