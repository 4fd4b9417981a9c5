// Package consensus implements the Consensus Engine (spec.md §4.6):
// per-field filtering, clustering, scoring, and conflict resolution. Each
// field is resolved on its own; cross-field constraints are not evaluated
// in this package. Grounded on the retrieved pack's
// mshogin-adk-llm-proxy LLMOrchestrator scoring/decision-record shape,
// adapted from "pick best provider" to "pick best value cluster".
package consensus

import (
	"sort"
	"strconv"
	"strings"

	"github.com/montanaflynn/stats"

	"github.com/CdubVentures/spec-harvester-sub014/pkg/model"
	"github.com/CdubVentures/spec-harvester-sub014/pkg/ruledb"
)

// FieldRule bundles the ruledb facts the engine needs per field.
type FieldRule struct {
	ConflictPolicy  string
	PassTarget      int
	ClosedEnum      bool
	EnumValues      []string
	PlausibilityMin float64
	PlausibilityMax float64
	HasPlausibility bool
	ApprovedHosts   []string
}

// cluster groups candidates whose normalized value agrees.
type cluster struct {
	normalizedValue string
	members         []model.Candidate
	score           float64
}

// Engine runs consensus for one product across all of its candidates.
// sources maps source_id to the fetched Source record, giving the engine
// host/tier/url context without importing the scheduler.
type Engine struct {
	identityConfidence float64
	anchors            map[string]string
	sources            map[string]model.Source
}

func NewEngine(identityConfidence float64, anchors map[string]string, sources map[string]model.Source) *Engine {
	return &Engine{identityConfidence: identityConfidence, anchors: anchors, sources: sources}
}

// ResolveField runs the full §4.6 per-field algorithm (steps 1-7) and
// returns the resulting Provenance.
func (e *Engine) ResolveField(field string, candidates []model.Candidate, rule FieldRule) model.Provenance {
	filtered, anchorConflicts := e.filterCandidates(field, candidates, rule)
	if len(filtered) == 0 {
		return model.Provenance{Value: model.Unk, UnknownReason: string(model.ReasonNotFoundAfterSearch)}
	}

	clusters := e.clusterByValue(filtered, rule)
	for i := range clusters {
		clusters[i].score = e.scoreCluster(clusters[i], rule)
	}
	sort.SliceStable(clusters, func(i, j int) bool {
		return clusterLess(clusters[j], clusters[i]) // descending by score with tiebreaks
	})

	winner := clusters[0]

	// Conflict policy (spec §4.6 "Conflict policy").
	if len(clusters) > 1 {
		if reason, forcedUnk := applyConflictPolicy(rule.ConflictPolicy, clusters[0], clusters[1]); forcedUnk {
			return model.Provenance{Value: model.Unk, UnknownReason: reason}
		}
	}

	approved := e.countApproved(winner, rule.ApprovedHosts)
	passTarget := rule.PassTarget
	if passTarget == 0 {
		passTarget = 2
	}
	meets := approved >= passTarget

	confidence := e.fieldConfidence(winner, len(clusters), anchorConflicts)

	evidenceRefs := distinctEvidenceRefs(winner)
	const minEvidenceRefsEffective = 2
	if meets && len(evidenceRefs) < minEvidenceRefsEffective {
		return model.Provenance{
			Value:                 model.Unk,
			Confirmations:         len(winner.members),
			ApprovedConfirmations: approved,
			PassTarget:            passTarget,
			MeetsPassTarget:       false,
			Confidence:            confidence,
			UnknownReason:         string(model.DeficitBelowMinEvidence),
		}
	}

	return model.Provenance{
		Value:                 winner.members[0].Value.Scalar,
		Confirmations:         len(winner.members),
		ApprovedConfirmations: approved,
		PassTarget:            passTarget,
		MeetsPassTarget:       meets,
		Confidence:            confidence,
		Evidence:              e.evidenceRowsFor(winner),
	}
}

// filterCandidates implements §4.6 step 1, resolving Open Question #1:
// helper_supportive candidates get no exemption from the anchor check —
// they are filtered through it in the same pass as every other method,
// so they can never overwrite a value that would otherwise violate a
// locked anchor.
func (e *Engine) filterCandidates(field string, candidates []model.Candidate, rule FieldRule) ([]model.Candidate, int) {
	var out []model.Candidate
	anchorConflicts := 0

	anchorValue, hasAnchor := e.anchors[field]

	for _, c := range candidates {
		if c.Value.IsUnknown() {
			continue
		}
		if c.PageProductClusterID != "" && !c.TargetMatchPassed {
			continue
		}
		if rule.ClosedEnum && !enumAllowed(c.Value.Scalar, rule.EnumValues) {
			continue
		}
		if hasAnchor && !strings.EqualFold(normalize(c.Value.Scalar), normalize(anchorValue)) {
			anchorConflicts++
			continue
		}
		out = append(out, c)
	}
	return out, anchorConflicts
}

func enumAllowed(value string, allowed []string) bool {
	for _, v := range allowed {
		if strings.EqualFold(v, value) {
			return true
		}
	}
	return false
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func (e *Engine) clusterByValue(candidates []model.Candidate, rule FieldRule) []cluster {
	byKey := map[string]*cluster{}
	var order []string
	for _, c := range candidates {
		key := normalize(c.Value.Scalar)
		if rule.HasPlausibility {
			if n, ok := parseNumeric(c.Value.Scalar); ok {
				key = numericBucketKey(n)
			}
		}
		cl, exists := byKey[key]
		if !exists {
			cl = &cluster{normalizedValue: key}
			byKey[key] = cl
			order = append(order, key)
		}
		cl.members = append(cl.members, c)
	}
	out := make([]cluster, 0, len(order))
	for _, k := range order {
		out = append(out, *byKey[k])
	}
	return out
}

func (e *Engine) scoreCluster(c cluster, rule FieldRule) float64 {
	var total float64
	for _, m := range c.members {
		total += m.ConfidenceBase * e.tierWeight(m.SourceID)
		total += plausibilityBoost(m.Value.Scalar, rule)
	}
	return total
}

func (e *Engine) tierWeight(sourceID string) float64 {
	src, ok := e.sources[sourceID]
	if !ok {
		return 0.5
	}
	switch src.Tier {
	case model.TierManufacturer:
		return 1.0
	case model.TierLabDatabase:
		return 0.9
	case model.TierRetailer:
		return 0.7
	default:
		return 0.5
	}
}

func plausibilityBoost(value string, rule FieldRule) float64 {
	if !rule.HasPlausibility {
		return 0
	}
	n, ok := parseNumeric(value)
	if !ok {
		return 0
	}
	if n >= rule.PlausibilityMin && n <= rule.PlausibilityMax {
		return 2
	}
	return -4
}

// clusterLess reports whether a ranks below b: a scores lower, or ties on
// score and has fewer members.
func clusterLess(a, b cluster) bool {
	if a.score != b.score {
		return a.score < b.score
	}
	if len(a.members) != len(b.members) {
		return len(a.members) < len(b.members)
	}
	return false
}

func (e *Engine) countApproved(c cluster, approvedHosts []string) int {
	seen := map[string]bool{}
	count := 0
	for _, m := range c.members {
		if seen[m.SourceID] {
			continue
		}
		seen[m.SourceID] = true
		host := m.SourceID
		if src, ok := e.sources[m.SourceID]; ok {
			host = src.Host
		}
		if ruledb.IsApprovedHost(host, approvedHosts) {
			count++
		}
	}
	return count
}

func distinctEvidenceRefs(c cluster) []string {
	seen := map[string]bool{}
	var out []string
	for _, m := range c.members {
		for _, r := range m.EvidenceRefs {
			if !seen[r] {
				seen[r] = true
				out = append(out, r)
			}
		}
	}
	return out
}

func (e *Engine) evidenceRowsFor(c cluster) []model.EvidenceRow {
	var out []model.EvidenceRow
	for _, m := range c.members {
		src := e.sources[m.SourceID]
		out = append(out, model.EvidenceRow{
			URL:        src.URL,
			Host:       src.Host,
			RootDomain: src.RootDomain,
			Tier:       src.Tier,
			Method:     string(m.Method),
			KeyPath:    m.KeyPath,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Tier < out[j].Tier })
	return out
}

// fieldConfidence implements §4.6 step 6's formula using
// montanaflynn/stats for the mean of member confidences, an agreement
// term of 1/clusterCount (1.0 when there is a single cluster), and a
// penalty per anchor conflict dropped in step 1.
func (e *Engine) fieldConfidence(c cluster, clusterCount, anchorConflicts int) float64 {
	confs := make([]float64, 0, len(c.members))
	for _, m := range c.members {
		confs = append(confs, m.ConfidenceBase)
	}
	mean, err := stats.Mean(confs)
	if err != nil {
		mean = 0
	}
	agreement := 1.0
	if clusterCount > 1 {
		agreement = 1.0 / float64(clusterCount)
	}
	penalty := 0.06 * float64(anchorConflicts)
	if penalty > 0.4 {
		penalty = 0.4
	}
	confidence := 0.5*e.identityConfidence + 0.35*mean + 0.15*agreement - penalty
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}
	return confidence
}

func applyConflictPolicy(policy string, top, second cluster) (reason string, forcedUnk bool) {
	switch policy {
	case "resolve_by_tier_else_unknown":
		if top.score == second.score {
			return string(model.ReasonConflictingSourcesUnresolved), true
		}
		return "", false
	case "preserve_all_candidates":
		// Ties are held, not forced to unk; the caller surfaces the
		// runner-up cluster separately when it wants a conflict list.
		return "", false
	case "majority_vote":
		if len(top.members) <= len(second.members) {
			return string(model.ReasonConflictingSourcesUnresolved), true
		}
		return "", false
	default:
		return "", false
	}
}

func parseNumeric(s string) (float64, bool) {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r == '.', r == '-':
			return r
		default:
			return -1
		}
	}, s)
	if cleaned == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// numericBucketKey rounds to 2 decimal places so near-identical numeric
// candidates (e.g. 9.99 vs 9.990001 from float serialization noise)
// cluster together.
func numericBucketKey(n float64) string {
	return "num:" + strconv.FormatFloat(n, 'f', 2, 64)
}
