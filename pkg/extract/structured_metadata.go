package extract

import (
	"context"
	"encoding/json"
	"regexp"
	"strconv"
	"time"

	"github.com/CdubVentures/spec-harvester-sub014/pkg/model"
	"github.com/CdubVentures/spec-harvester-sub014/pkg/ttlcache"
)

// StructuredMetadataExtractor parses the JSON-LD blocks embedded in the
// page HTML (spec §4.4 item 3); microdata is handled by MicrodataExtractor.
// No sidecar service is called, and the timeout field is not consulted.
// It is fail-open: a malformed block simply yields no candidates rather
// than aborting the source's other extractors. Parsed blocks are cached
// by the page's content hash (spec §9 "Global mutable state").
type StructuredMetadataExtractor struct {
	cache   *ttlcache.Cache[[]jsonLDBlock]
	timeout time.Duration
}

type jsonLDBlock map[string]any

func NewStructuredMetadataExtractor(cacheTTL time.Duration) *StructuredMetadataExtractor {
	return &StructuredMetadataExtractor{
		cache:   ttlcache.New[[]jsonLDBlock](cacheTTL),
		timeout: 5 * time.Second,
	}
}

func (StructuredMetadataExtractor) Method() model.ExtractionMethod { return model.MethodJSONLD }

var jsonLDPattern = regexp.MustCompile(`(?s)<script[^>]*type=["']application/ld\+json["'][^>]*>(.*?)</script>`)

func (e *StructuredMetadataExtractor) Extract(_ context.Context, page Page) []model.Candidate {
	blocks, ok := e.cache.Get(page.Data.ContentHash)
	if !ok {
		blocks = parseJSONLD(page.Data.HTML)
		e.cache.Set(page.Data.ContentHash, blocks)
	}

	var out []model.Candidate
	for i, block := range blocks {
		for _, field := range page.Fields {
			if v, ok := lookupKey(block, field); ok {
				out = append(out, model.NewCandidate(field, v, model.MethodJSONLD, jsonLDKeyPath(i, field), page.Source.SourceID, nil))
			}
		}
	}
	return out
}

func jsonLDKeyPath(i int, field string) string {
	return "json_ld[" + strconv.Itoa(i) + "]." + field
}

// parseJSONLD extracts and decodes every <script type="application/ld+json">
// block. Malformed blocks are skipped (fail-open), not fatal.
func parseJSONLD(html string) []jsonLDBlock {
	matches := jsonLDPattern.FindAllStringSubmatch(html, -1)
	var out []jsonLDBlock
	for _, m := range matches {
		var block jsonLDBlock
		if err := json.Unmarshal([]byte(m[1]), &block); err != nil {
			continue
		}
		out = append(out, block)
	}
	return out
}

// MicrodataExtractor parses itemprop/itemscope microdata (confidence base
// 0.88, spec §4.4 item 3). Treated as a distinct capability from JSON-LD
// so the two can independently fail-open.
type MicrodataExtractor struct{}

func (MicrodataExtractor) Method() model.ExtractionMethod { return model.MethodMicrodata }

var itempropPattern = regexp.MustCompile(`(?is)itemprop=["']([\w-]+)["'][^>]*>([^<]+)<`)

func (MicrodataExtractor) Extract(_ context.Context, page Page) []model.Candidate {
	var out []model.Candidate
	matches := itempropPattern.FindAllStringSubmatch(page.Data.HTML, -1)
	for _, m := range matches {
		prop, value := m[1], m[2]
		for _, field := range page.Fields {
			if equalFold(prop, field) {
				out = append(out, model.NewCandidate(field, value, model.MethodMicrodata, "microdata."+prop, page.Source.SourceID, nil))
			}
		}
	}
	return out
}
