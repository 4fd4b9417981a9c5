// Package extract implements the Extraction Pipeline: an ordered list of
// capability extractors (spec.md §4.4, §9 "Deep method dispatch"), each
// implementing the same Extractor interface and driven from a slice
// rather than an inheritance hierarchy, plus the per-candidate shape
// normalization contract and multi-product identity pre-consensus
// clustering.
package extract

import (
	"context"
	"log/slog"

	"github.com/CdubVentures/spec-harvester-sub014/pkg/fetch"
	"github.com/CdubVentures/spec-harvester-sub014/pkg/model"
)

// Page bundles everything one extractor run needs: the fetched page data
// plus the source it came from.
type Page struct {
	Source model.Source
	Data   fetch.PageData
	Fields []string // target field names the run cares about, for windowing
}

// Extractor is one capability: {method_name, extract(page) -> []candidate}.
type Extractor interface {
	Method() model.ExtractionMethod
	Extract(ctx context.Context, page Page) []model.Candidate
}

// Pipeline runs every extractor against a page in priority order and
// accumulates output. A panic in one extractor is isolated —
// logged and skipped — so the remaining extractors still run (spec §7
// "Extractor exception: single source+method, log, skip that method").
type Pipeline struct {
	extractors []Extractor
}

// NewPipeline builds the pipeline in the §4.4 priority order: network
// JSON, embedded state, structured metadata (JSON-LD/microdata), static
// DOM, article, PDF, LLM. The LLM extractor is intentionally excluded
// here — it is cost-gated and invoked by pkg/engine only after the other
// six have run and a Needset still wants the field.
func NewPipeline(extractors ...Extractor) *Pipeline {
	return &Pipeline{extractors: extractors}
}

func (p *Pipeline) Run(ctx context.Context, page Page) []model.Candidate {
	var out []model.Candidate
	for _, ex := range p.extractors {
		out = append(out, runIsolated(ctx, ex, page)...)
	}
	return out
}

func runIsolated(ctx context.Context, ex Extractor, page Page) (candidates []model.Candidate) {
	defer func() {
		if r := recover(); r != nil {
			slog.Default().Warn("extractor panicked; skipping its candidates",
				"method", ex.Method(), "source_id", page.Source.SourceID, "panic", r)
			candidates = nil
		}
	}()
	return ex.Extract(ctx, page)
}
