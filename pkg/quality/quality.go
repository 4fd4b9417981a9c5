// Package quality implements the Quality Gate (spec.md §4.8): completeness
// and coverage aggregation across a product's field provenance, and the
// validated boolean with its reason codes. Grounded on
// pkg/llmrouter/budget.go's threshold-check shape (ratio against a
// configured floor, returning a typed decision with reasons).
package quality

import "github.com/CdubVentures/spec-harvester-sub014/pkg/model"

// FieldRequirement is the subset of a field's contract the quality gate
// needs: whether it counts toward "required" completeness and whether it
// is critical. Its provenance is passed to Evaluate separately.
type FieldRequirement struct {
	Field         string
	RequiredLevel string // required | expected | instrumented_only
	Critical      bool
}

// Result is the §4.8 aggregation output, folded into model.RunResult by
// the Round Controller.
type Result struct {
	CompletenessRequired         float64
	CoverageOverall              float64
	Confidence                   float64
	Validated                    bool
	ValidatedReason              []string
	CriticalFieldsBelowPassTarget []string
}

// identityConfidenceFloor is the §4.8/§8 invariant floor: validated=true
// requires identity_confidence at or above the gate's LOCKED_FULL threshold.
const identityConfidenceFloor = 0.99

// Evaluate computes completeness_required (share of required fields with a
// non-unk, pass-target-meeting value), coverage_overall (share of all known
// fields, required+expected+instrumented, with a value), the mean
// confidence across non-unk fields, and the validated decision.
// identityConfidence and hasAnchorConflicts come from the Identity Gate
// (§4.7) for the same round; validated additionally requires no major
// anchor conflicts and identity_confidence >= 0.99 (§4.8, §8).
func Evaluate(reqs []FieldRequirement, provenance map[string]model.Provenance, targetCompleteness, targetConfidence, identityConfidence float64, hasAnchorConflicts bool) Result {
	var requiredTotal, requiredMet int
	var knownTotal, knownMet int
	var confidenceSum float64
	var confidenceCount int
	var criticalBelow []string

	for _, r := range reqs {
		p, ok := provenance[r.Field]
		hasValue := ok && p.Value != "" && p.Value != model.Unk

		if r.RequiredLevel == "required" {
			requiredTotal++
			if hasValue && p.MeetsPassTarget {
				requiredMet++
			} else if r.Critical {
				criticalBelow = append(criticalBelow, r.Field)
			}
		}

		knownTotal++
		if hasValue {
			knownMet++
			confidenceSum += p.Confidence
			confidenceCount++
		}
	}

	completeness := ratio(requiredMet, requiredTotal)
	coverage := ratio(knownMet, knownTotal)
	confidence := 0.0
	if confidenceCount > 0 {
		confidence = confidenceSum / float64(confidenceCount)
	}

	var reasons []string
	validated := true

	if completeness < targetCompleteness {
		validated = false
		reasons = append(reasons, "completeness_below_target")
	}
	if confidence < targetConfidence {
		validated = false
		reasons = append(reasons, "confidence_below_target")
	}
	if len(criticalBelow) > 0 {
		validated = false
		reasons = append(reasons, "critical_field_below_pass_target")
	}
	if hasAnchorConflicts {
		validated = false
		reasons = append(reasons, "anchor_conflict")
	}
	if identityConfidence < identityConfidenceFloor {
		validated = false
		reasons = append(reasons, "identity_confidence_below_target")
	}
	if validated {
		reasons = append(reasons, "ok")
	}

	return Result{
		CompletenessRequired:         completeness,
		CoverageOverall:              coverage,
		Confidence:                   confidence,
		Validated:                    validated,
		ValidatedReason:              reasons,
		CriticalFieldsBelowPassTarget: criticalBelow,
	}
}

func ratio(met, total int) float64 {
	if total == 0 {
		return 1
	}
	return float64(met) / float64(total)
}
