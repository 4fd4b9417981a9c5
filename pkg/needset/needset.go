// Package needset implements the Needset & Round Planner (spec.md §4.10):
// deficit-aware unknown-reason assignment, query-template expansion, and
// domain-hint biasing for the next round's source planner. Grounded on
// pkg/planner/planner.go's queue-building shape, extended with the
// deficit-reason decision table.
package needset

import (
	"fmt"
	"sort"
	"strings"

	"github.com/CdubVentures/spec-harvester-sub014/pkg/model"
	"github.com/CdubVentures/spec-harvester-sub014/pkg/ruledb"
)

// FieldState is what the caller knows about one field going into needset
// computation: its contract plus current provenance (if any).
type FieldState struct {
	Contract   ruledb.FieldContract
	Provenance model.Provenance
	HasValue   bool
}

// BuildRows computes the per-round Needset: every field still requiring
// work, with its deficit reason and tier preference, sorted by
// RequiredLevel (required first) then AvailabilityClass (expected before
// rare, since expected-but-missing fields are the most actionable).
func BuildRows(fields []FieldState) []model.NeedsetRow {
	var rows []model.NeedsetRow
	for _, f := range fields {
		reason, deficit := deficitFor(f)
		if !deficit {
			continue
		}
		minRefs := 2
		if f.Contract.RequiredLevel == "instrumented_only" {
			minRefs = 3
		}
		rows = append(rows, model.NeedsetRow{
			Field:             f.Contract.Field,
			RequiredLevel:     f.Contract.RequiredLevel,
			AvailabilityClass: f.Contract.AvailabilityClass,
			DeficitReason:     reason,
			TierPreference:    tierPreference(f.Contract.AvailabilityClass),
			MinEvidenceRefs:   minRefs,
			ForceHigh:         f.Contract.RequiredLevel == "required" && f.Contract.AvailabilityClass == model.AvailabilityRare,
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		ri, rj := requiredRank(rows[i].RequiredLevel), requiredRank(rows[j].RequiredLevel)
		if ri != rj {
			return ri < rj
		}
		ai, aj := availabilityRank(rows[i].AvailabilityClass), availabilityRank(rows[j].AvailabilityClass)
		if ai != aj {
			return ai < aj
		}
		return rows[i].Field < rows[j].Field
	})
	return rows
}

func deficitFor(f FieldState) (model.DeficitReason, bool) {
	if !f.HasValue {
		return model.DeficitMissing, true
	}
	p := f.Provenance
	if !p.MeetsPassTarget {
		return model.DeficitBelowPassTarget, true
	}
	if p.UnknownReason == string(model.ReasonConflictingSourcesUnresolved) {
		return model.DeficitConflictingSources, true
	}
	return "", false
}

func requiredRank(level string) int {
	switch level {
	case "required":
		return 0
	case "expected":
		return 1
	default:
		return 2
	}
}

func availabilityRank(a model.AvailabilityClass) int {
	switch a {
	case model.AvailabilityExpected:
		return 0
	case model.AvailabilitySometimes:
		return 1
	default:
		return 2
	}
}

// tierPreference orders the source tiers to prioritize when the planner
// expands queries for a deficit field: rare fields bias toward
// manufacturer/lab sources since retailer listings rarely carry them.
func tierPreference(a model.AvailabilityClass) []model.Tier {
	if a == model.AvailabilityRare {
		return []model.Tier{model.TierManufacturer, model.TierLabDatabase, model.TierRetailer}
	}
	return []model.Tier{model.TierManufacturer, model.TierRetailer, model.TierLabDatabase}
}

// ExpandQueries renders the category's search templates against the job's
// brand/model/variant and the deficit field names, so round N+1's planner
// can issue targeted searches instead of broad catalog crawling.
func ExpandQueries(templates []string, lock model.IdentityLock, rows []model.NeedsetRow) []string {
	fieldNames := make([]string, 0, len(rows))
	for _, r := range rows {
		fieldNames = append(fieldNames, r.Field)
	}

	replacer := strings.NewReplacer(
		"{brand}", lock.Brand,
		"{model}", lock.Model,
		"{variant}", lock.Variant,
	)

	var out []string
	for _, tmpl := range templates {
		base := replacer.Replace(tmpl)
		if strings.Contains(base, "{field}") {
			for _, field := range fieldNames {
				out = append(out, strings.ReplaceAll(base, "{field}", fieldHint(field)))
			}
			continue
		}
		out = append(out, base)
	}
	return out
}

func fieldHint(field string) string {
	return strings.ReplaceAll(field, "_", " ")
}

// UnknownReasonFor maps a field's terminal deficit state to the §7 reason
// code recorded in the final RunResult, used once the Round Controller
// decides no further rounds will run.
func UnknownReasonFor(row model.NeedsetRow, budgetExhausted bool) model.UnknownReason {
	if budgetExhausted {
		return model.ReasonBudgetExhausted
	}
	switch row.DeficitReason {
	case model.DeficitConflictingSources:
		return model.ReasonConflictingSourcesUnresolved
	case model.DeficitConstraintViolation:
		return model.ReasonParseFailure
	default:
		if row.AvailabilityClass == model.AvailabilityRare {
			return model.ReasonNotPubliclyDisclosed
		}
		return model.ReasonNotFoundAfterSearch
	}
}

// Explain renders a human-readable one-liner for the `explain-unk` CLI
// command (spec §6.4).
func Explain(field string, reason model.UnknownReason, row model.NeedsetRow) string {
	return fmt.Sprintf("%s: unk (%s) — required_level=%s availability=%s min_evidence_refs=%d",
		field, reason, row.RequiredLevel, row.AvailabilityClass, row.MinEvidenceRefs)
}
