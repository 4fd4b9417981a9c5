// Package persist implements the Persistence Adapters component
// (spec.md System Overview table, §6.2, §6.3): it fans a round's sources,
// candidates, and evidence packs out to the Spec DB and the blob Storage
// collaborator, and writes the run's normalized/provenance/summary
// artifacts plus the latest-pointer keys. Grounded on the teacher's
// pkg/database write style (one method per table, context-first) now
// spanning two sinks instead of one.
package persist

import (
	"context"
	"fmt"

	"github.com/CdubVentures/spec-harvester-sub014/pkg/model"
	"github.com/CdubVentures/spec-harvester-sub014/pkg/storage"
)

// SpecDBWriter is the subset of pkg/specdb's repository persist needs,
// narrowed the same way pkg/billing narrows it, so this package does not
// import the full specdb package (and specdb need not import persist).
type SpecDBWriter interface {
	InsertSource(ctx context.Context, runID, category, productID string, s model.Source) error
	InsertCandidate(ctx context.Context, runID, category, productID string, c model.Candidate) error
	InsertSourceAssertion(ctx context.Context, id, sourceID, productID, field string, matched bool, score float64) error
}

// Adapter bundles the Spec DB and Storage sinks for one process. Safe for
// concurrent use: specdb.Repository pools its own connections and
// storage.Store's pebble handle is safe for concurrent readers/writers.
type Adapter struct {
	db    SpecDBWriter
	store *storage.Store
}

func New(db SpecDBWriter, store *storage.Store) *Adapter {
	return &Adapter{db: db, store: store}
}

// WriteSource persists one fetched Source row to the Spec DB
// source_registry table (§6.3). A synthetic helper_files:// source is
// still written, for audit, per §4.2 "synthetic sources ... excluded from
// fetching" (not from persistence).
func (a *Adapter) WriteSource(ctx context.Context, runID, category, productID string, src model.Source) error {
	if err := a.db.InsertSource(ctx, runID, category, productID, src); err != nil {
		return fmt.Errorf("persist: write source %s: %w", src.SourceID, err)
	}
	return nil
}

// WriteCandidates persists every candidate emitted for one source to the
// Spec DB candidates table. Candidates with value=unk are still written,
// per §4.4's audit requirement (scenario 4: "value of candidate preserved
// in candidates{} for audit").
func (a *Adapter) WriteCandidates(ctx context.Context, runID, category, productID string, candidates []model.Candidate) error {
	for _, c := range candidates {
		if err := a.db.InsertCandidate(ctx, runID, category, productID, c); err != nil {
			return fmt.Errorf("persist: write candidate %s/%s: %w", c.Field, c.CandidateID, err)
		}
	}
	return nil
}

// WriteIdentityAssertion records one source's identity-gate match outcome
// to source_assertions (§6.3), keyed by a caller-supplied assertion id
// (runID::sourceID is the conventional choice).
func (a *Adapter) WriteIdentityAssertion(ctx context.Context, id, sourceID, productID string, matched bool, score float64) error {
	if err := a.db.InsertSourceAssertion(ctx, id, sourceID, productID, "identity", matched, score); err != nil {
		return fmt.Errorf("persist: write identity assertion %s: %w", sourceID, err)
	}
	return nil
}

// WriteEvidencePack writes one source's evidence pack under §6.2's
// extracted/ prefix, alongside its candidates.
func (a *Adapter) WriteEvidencePack(category, productID, runID string, pack model.EvidencePack) error {
	key := a.store.EvidencePackKey(category, productID, runID, pack.SourceID)
	if err := a.store.PutJSON(key, pack); err != nil {
		return fmt.Errorf("persist: write evidence pack %s: %w", pack.SourceID, err)
	}
	return nil
}

// WriteRunResult writes the run's normalized fields, provenance, and
// summary artifacts (§6.2's normalized/provenance/summary stages), then
// repoints the category/product_id/latest/* keys at this run. Storage
// write failure here is fatal for the round per §7's pipeline_error rule
// — callers should treat a non-nil error as terminal.
func (a *Adapter) WriteRunResult(category, productID, runID string, result model.RunResult) error {
	normalizedKey := a.store.RunArtifactKey(category, productID, runID, "normalized", "fields.json")
	if err := a.store.PutJSON(normalizedKey, result.Fields); err != nil {
		return fmt.Errorf("persist: write normalized fields: %w", err)
	}

	provenanceKey := a.store.RunArtifactKey(category, productID, runID, "provenance", "provenance.json")
	if err := a.store.PutJSON(provenanceKey, result.Provenance); err != nil {
		return fmt.Errorf("persist: write provenance: %w", err)
	}

	summaryKey := a.store.RunArtifactKey(category, productID, runID, "summary", "summary.json")
	if err := a.store.PutJSON(summaryKey, result); err != nil {
		return fmt.Errorf("persist: write summary: %w", err)
	}

	latest := map[string]string{
		"fields":     normalizedKey,
		"provenance": provenanceKey,
		"summary":    summaryKey,
	}
	for name, target := range latest {
		if err := a.store.PutJSON(a.store.LatestKey(category, productID, name+"_pointer.json"), target); err != nil {
			return fmt.Errorf("persist: write latest pointer %s: %w", name, err)
		}
	}
	return nil
}

// ReadLatestSummary loads the most recently written summary for a
// product, used by the explain-unk CLI surface (§6.4).
func (a *Adapter) ReadLatestSummary(category, productID string) (model.RunResult, error) {
	var pointer string
	if err := a.store.GetJSON(a.store.LatestKey(category, productID, "summary_pointer.json"), &pointer); err != nil {
		return model.RunResult{}, fmt.Errorf("persist: read latest summary pointer: %w", err)
	}
	var result model.RunResult
	if err := a.store.GetJSON(pointer, &result); err != nil {
		return model.RunResult{}, fmt.Errorf("persist: read summary %s: %w", pointer, err)
	}
	return result, nil
}
