package extract

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CdubVentures/spec-harvester-sub014/pkg/fetch"
	"github.com/CdubVentures/spec-harvester-sub014/pkg/model"
)

func TestStructuredMetadataExtractor_ParsesJSONLDBlock(t *testing.T) {
	html := `<html><head><script type="application/ld+json">{"range_miles": "310"}</script></head></html>`
	page := Page{
		Data:   fetch.PageData{HTML: html, ContentHash: "h1"},
		Fields: []string{"range_miles"},
	}

	e := NewStructuredMetadataExtractor(time.Minute)
	out := e.Extract(context.Background(), page)

	require.Len(t, out, 1)
	assert.Equal(t, "310", out[0].Value.Scalar)
	assert.Equal(t, model.MethodJSONLD, out[0].Method)
}

func TestStructuredMetadataExtractor_CachesByContentHash(t *testing.T) {
	html := `<html><head><script type="application/ld+json">{"range_miles": "310"}</script></head></html>`
	page := Page{Data: fetch.PageData{HTML: html, ContentHash: "h1"}, Fields: []string{"range_miles"}}

	e := NewStructuredMetadataExtractor(time.Minute)
	first := e.Extract(context.Background(), page)

	// Second call with the same content hash but mutated HTML must reuse
	// the cached parse rather than re-parsing.
	page.Data.HTML = `<html></html>`
	second := e.Extract(context.Background(), page)

	assert.Equal(t, first, second)
}

func TestStructuredMetadataExtractor_MalformedBlockFailsOpen(t *testing.T) {
	html := `<html><head><script type="application/ld+json">{not valid json</script></head></html>`
	page := Page{Data: fetch.PageData{HTML: html, ContentHash: "h2"}, Fields: []string{"range_miles"}}

	e := NewStructuredMetadataExtractor(time.Minute)
	out := e.Extract(context.Background(), page)

	assert.Empty(t, out)
}

func TestMicrodataExtractor_MatchesItempropCaseInsensitively(t *testing.T) {
	html := `<div itemscope><span itemprop="Range_Miles">310</span></div>`
	page := Page{Data: fetch.PageData{HTML: html}, Fields: []string{"range_miles"}}

	out := MicrodataExtractor{}.Extract(context.Background(), page)

	require.Len(t, out, 1)
	assert.Equal(t, "310", out[0].Value.Scalar)
	assert.Equal(t, model.MethodMicrodata, out[0].Method)
}

func TestMicrodataExtractor_IgnoresUnrelatedProperties(t *testing.T) {
	html := `<div itemscope><span itemprop="reviewCount">42</span></div>`
	page := Page{Data: fetch.PageData{HTML: html}, Fields: []string{"range_miles"}}

	out := MicrodataExtractor{}.Extract(context.Background(), page)

	assert.Empty(t, out)
}
