// Package identity implements the Identity Gate (spec.md §4.7): per-source
// identity scoring against the job's locked {brand, model, variant?, sku?,
// mpn?, gtin?} tuple, and the product-level gate decision that the
// Consensus Engine and Round Controller key their anchor behavior on.
// Grounded on pkg/extract/cluster.go's TagCatalogCandidates token-match
// scoring, generalized from page-cluster matching to whole-source matching.
package identity

import (
	"strings"

	"github.com/CdubVentures/spec-harvester-sub014/pkg/model"
)

// tierThreshold is the minimum per-source identity score required for a
// source to count toward IDENTITY_LOCKED_FULL, varying by source tier
// (manufacturer pages are trusted at a lower match bar than retailer
// listings, §4.7).
func tierThreshold(tier model.Tier) float64 {
	switch tier {
	case model.TierManufacturer:
		return 0.75
	case model.TierLabDatabase:
		return 0.85
	default:
		return 0.95
	}
}

// SourceScore is one source's identity-match result.
type SourceScore struct {
	SourceID string
	Score    float64
	Passed   bool
	Anchors  map[string]bool // per-anchor-field agreement
}

// ScoreSource computes the token-overlap identity score of a source's page
// text plus any anchor candidates extracted from it, against the job's
// IdentityLock.
func ScoreSource(src model.Source, lock model.IdentityLock, anchorCandidates map[string]string, pageText string) SourceScore {
	haystack := strings.ToLower(pageText)
	anchors := map[string]bool{}
	var weights, hits float64

	check := func(field, want string, weight float64) {
		if want == "" {
			return
		}
		weights += weight
		got, hasCandidate := anchorCandidates[field]
		matched := false
		if hasCandidate {
			matched = tokenEqual(got, want)
		} else {
			matched = strings.Contains(haystack, strings.ToLower(want))
		}
		anchors[field] = matched
		if matched {
			hits += weight
		}
	}

	check("brand", lock.Brand, 0.3)
	check("model", lock.Model, 0.35)
	check("variant", lock.Variant, 0.1)
	check("sku", lock.SKU, 0.1)
	check("mpn", lock.MPN, 0.08)
	check("gtin", lock.GTIN, 0.07)

	score := 0.0
	if weights > 0 {
		score = hits / weights
	}

	return SourceScore{
		SourceID: src.SourceID,
		Score:    score,
		Passed:   score >= tierThreshold(src.Tier),
		Anchors:  anchors,
	}
}

func tokenEqual(a, b string) bool {
	return normalizeTokens(a) == normalizeTokens(b)
}

func normalizeTokens(s string) string {
	fields := strings.Fields(strings.ToLower(s))
	return strings.Join(fields, " ")
}

// identityLockedFullFloor and identityProvisionalFloor are the §4.7
// identity_confidence decision boundaries.
const (
	identityLockedFullFloor  = 0.99
	identityProvisionalFloor = 0.70
)

// GateResult is the product-level identity gate decision (§4.7).
type GateResult struct {
	Decision   model.IdentityGateDecision
	Confidence float64
	Conflicts  []string // source_ids whose brand/model anchors disagree
}

// Gate aggregates per-source scores into the product-level decision
// (§4.7): identity_confidence is the plain (unweighted) mean of passing
// sources' scores; sourceTier is not consulted.
//   - IDENTITY_CONFLICT: any passing source has a conflicting brand/model
//     anchor, or identity_confidence < 0.70.
//   - IDENTITY_LOCKED_FULL: brand+model+(variant or sku) all locked by at
//     least one passing source and identity_confidence >= 0.99.
//   - IDENTITY_PROVISIONAL: brand+model locked and identity_confidence
//     >= 0.70.
//   - IDENTITY_UNLOCKED: no source passed its threshold, or brand/model
//     were never both locked.
func Gate(scores []SourceScore, sourceTier map[string]model.Tier) GateResult {
	var passing []SourceScore
	for _, s := range scores {
		if s.Passed {
			passing = append(passing, s)
		}
	}
	if len(passing) == 0 {
		return GateResult{Decision: model.IdentityUnlocked, Confidence: maxScore(scores)}
	}

	confidence := meanScore(passing)
	conflicts := conflictingSources(passing)
	if len(conflicts) > 0 {
		return GateResult{Decision: model.IdentityConflict, Confidence: confidence, Conflicts: conflicts}
	}
	if confidence < identityProvisionalFloor {
		return GateResult{Decision: model.IdentityConflict, Confidence: confidence}
	}

	brandLocked := anchorLocked(passing, "brand")
	modelLocked := anchorLocked(passing, "model")
	variantLocked := anchorLocked(passing, "variant")
	skuLocked := anchorLocked(passing, "sku")

	if brandLocked && modelLocked && (variantLocked || skuLocked) && confidence >= identityLockedFullFloor {
		return GateResult{Decision: model.IdentityLockedFull, Confidence: confidence}
	}
	if brandLocked && modelLocked && confidence >= identityProvisionalFloor {
		return GateResult{Decision: model.IdentityProvisional, Confidence: confidence}
	}
	return GateResult{Decision: model.IdentityUnlocked, Confidence: confidence}
}

// anchorLocked reports whether any passing source matched the given
// anchor field.
func anchorLocked(passing []SourceScore, field string) bool {
	for _, s := range passing {
		if matched, ok := s.Anchors[field]; ok && matched {
			return true
		}
	}
	return false
}

// conflictingSources returns source_ids where the brand or model anchor
// disagreed, i.e. was checked and did not match, while other passing
// sources did match — a true cross-source conflict rather than a source
// simply lacking that anchor's evidence.
func conflictingSources(passing []SourceScore) []string {
	anyBrandMatch, anyModelMatch := false, false
	for _, s := range passing {
		if matched, ok := s.Anchors["brand"]; ok && matched {
			anyBrandMatch = true
		}
		if matched, ok := s.Anchors["model"]; ok && matched {
			anyModelMatch = true
		}
	}

	var out []string
	for _, s := range passing {
		conflict := false
		if matched, ok := s.Anchors["brand"]; ok && !matched && anyBrandMatch {
			conflict = true
		}
		if matched, ok := s.Anchors["model"]; ok && !matched && anyModelMatch {
			conflict = true
		}
		if conflict {
			out = append(out, s.SourceID)
		}
	}
	return out
}

func meanScore(scores []SourceScore) float64 {
	if len(scores) == 0 {
		return 0
	}
	var total float64
	for _, s := range scores {
		total += s.Score
	}
	return total / float64(len(scores))
}

func maxScore(scores []SourceScore) float64 {
	var max float64
	for _, s := range scores {
		if s.Score > max {
			max = s.Score
		}
	}
	return max
}
