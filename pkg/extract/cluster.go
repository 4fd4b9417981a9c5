package extract

import (
	"strings"

	"github.com/CdubVentures/spec-harvester-sub014/pkg/model"
)

// TagCatalogCandidates implements the §4.4 "Multi-product identity gate
// (pre-consensus)": when a page is a catalog or comparison list, cluster
// candidates by inferred product block and tag each with its cluster ID
// and match score against the job's locked identity. Candidates whose
// target_match_passed is false are dropped before reaching consensus
// (kept only for audit via the returned dropped slice).
func TagCatalogCandidates(candidates []model.Candidate, isCatalog bool, job model.ProductJob, threshold float64) (kept, dropped []model.Candidate) {
	if !isCatalog {
		for i := range candidates {
			candidates[i].TargetMatchPassed = true
			candidates[i].TargetMatchScore = 1.0
		}
		return candidates, nil
	}

	for _, c := range candidates {
		score := targetMatchScore(c, job)
		c.TargetMatchScore = score
		c.PageProductClusterID = c.SourceID + "#" + c.KeyPath
		c.TargetMatchPassed = score >= threshold
		if c.TargetMatchPassed {
			kept = append(kept, c)
		} else {
			dropped = append(dropped, c)
		}
	}
	return kept, dropped
}

// targetMatchScore is a crude lexical match between the candidate's
// key_path (which typically embeds nearby catalog-row text) and the
// job's locked brand/model tokens.
func targetMatchScore(c model.Candidate, job model.ProductJob) float64 {
	haystack := strings.ToLower(c.KeyPath)
	tokens := []string{strings.ToLower(job.IdentityLock.Brand), strings.ToLower(job.IdentityLock.Model)}
	hits := 0
	for _, t := range tokens {
		if t != "" && strings.Contains(haystack, t) {
			hits++
		}
	}
	if len(tokens) == 0 {
		return 0
	}
	return float64(hits) / float64(len(tokens))
}
