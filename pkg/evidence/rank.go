package evidence

import "github.com/CdubVentures/spec-harvester-sub014/pkg/model"

// SourceRankInput is one source's aggressive-evidence-pack ranking
// signals (spec §9 open question 2).
type SourceRankInput struct {
	SourceID        string
	IdentityScore   float64
	AnchorConflicts int
	SnippetCount    int
	Tier            model.Tier
}

// RankSources orders sources for the "aggressive evidence pack" selector
// by identity match (desc), anchor conflicts (asc), snippet count (desc),
// tier (asc). When all four tie, resolved Open Question #2: break by
// lowest source_id, not input order, so the selection is deterministic.
func RankSources(inputs []SourceRankInput) []SourceRankInput {
	out := append([]SourceRankInput(nil), inputs...)
	sortStable(out)
	return out
}

func sortStable(s []SourceRankInput) {
	// Simple insertion sort: input sizes here are small (sources per
	// product, not sources across the corpus) and the comparator must be
	// exactly the documented four-key order with a final tiebreak.
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && less(s[j], s[j-1]); j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}

func less(a, b SourceRankInput) bool {
	if a.IdentityScore != b.IdentityScore {
		return a.IdentityScore > b.IdentityScore
	}
	if a.AnchorConflicts != b.AnchorConflicts {
		return a.AnchorConflicts < b.AnchorConflicts
	}
	if a.SnippetCount != b.SnippetCount {
		return a.SnippetCount > b.SnippetCount
	}
	if a.Tier != b.Tier {
		return a.Tier < b.Tier
	}
	return a.SourceID < b.SourceID
}
