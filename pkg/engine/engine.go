// Package engine implements the Round Controller (spec.md §4.1): the
// strictly-sequential multi-round loop that drives plan→fetch→extract→
// evidence→consensus→identity→quality→needset each round, evaluates the
// five ordered stop conditions, and assembles the final RunResult.
// Grounded on the teacher's cmd/tarsy/main.go + pkg/queue/pool.go
// Start/Stop orchestration shape, scaled from "worker pool lifecycle" to
// "round lifecycle".
package engine

import (
	"context"
	"log/slog"

	"github.com/CdubVentures/spec-harvester-sub014/pkg/consensus"
	"github.com/CdubVentures/spec-harvester-sub014/pkg/evidence"
	"github.com/CdubVentures/spec-harvester-sub014/pkg/extract"
	"github.com/CdubVentures/spec-harvester-sub014/pkg/fetch"
	"github.com/CdubVentures/spec-harvester-sub014/pkg/identity"
	"github.com/CdubVentures/spec-harvester-sub014/pkg/model"
	"github.com/CdubVentures/spec-harvester-sub014/pkg/needset"
	"github.com/CdubVentures/spec-harvester-sub014/pkg/planner"
	"github.com/CdubVentures/spec-harvester-sub014/pkg/quality"
	"github.com/CdubVentures/spec-harvester-sub014/pkg/ruledb"
	"github.com/CdubVentures/spec-harvester-sub014/pkg/scheduler"
)

// Budgets bundles the per-round and per-product cumulative limits the
// controller checks (§4.1 "Per-round budgets").
type Budgets struct {
	MaxRounds            int
	MaxURLsPerRound       int
	MaxSearchQueries      int
	MaxLLMCallsPerRound   int
	MaxHighTierLLMCalls   int
	MaxCostUSDPerRound    float64
	MaxCostUSDPerProduct  float64
	MarginalYieldDelta    float64
}

// Deps bundles the collaborators the controller drives each round. Tests
// supply fakes for Fetcher/LLM/Store; production wiring is done in
// cmd/specfactory.
type Deps struct {
	RuleStore  *ruledb.Store
	Planner    *planner.Planner
	Pools      *scheduler.Pools
	Pacer      *scheduler.HostPacer
	Fetcher    fetch.Fetcher
	Pipeline   *extract.Pipeline
	EvBuilder  *evidence.Builder
	LLM        LLMDeps
	Budgets    Budgets
}

// Controller runs one product job to completion or exhaustion.
type Controller struct {
	deps   Deps
	logger *slog.Logger
}

func New(deps Deps, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{deps: deps, logger: logger}
}

// roundState accumulates everything gathered during one round, so
// consensus/identity/quality can run once per round against the round's
// full candidate set plus any value retained from a prior round.
type roundState struct {
	sources          map[string]model.Source
	candidatesByField map[string][]model.Candidate
	evidencePacks    map[string]model.EvidencePack
	urlsFetched      int
	llmCalls         int
	llmCostUSD       float64
}

func newRoundState() *roundState {
	return &roundState{
		sources:           map[string]model.Source{},
		candidatesByField: map[string][]model.Candidate{},
		evidencePacks:     map[string]model.EvidencePack{},
	}
}

// Run executes the round loop for job and returns the final RunResult.
// runID is caller-supplied (engine never mints timestamps/randomness
// itself, keeping the controller replayable).
func (c *Controller) Run(ctx context.Context, job model.ProductJob, mode model.Mode, runID string, fieldReqs []quality.FieldRequirement, fieldRules map[string]consensus.FieldRule) model.RunResult {
	c.deps.Planner.Plan(job)

	maxRounds := c.deps.Budgets.MaxRounds
	if maxRounds <= 0 {
		maxRounds = mode.MaxRounds()
	}

	result := model.RunResult{
		Category:   job.Category,
		ProductID:  job.ProductID,
		RunID:      runID,
		Fields:     map[string]string{},
		Provenance: map[string]model.Provenance{},
	}

	cumulative := newRoundState()
	var prevConfidence float64
	marginalYieldStreak := 0

	for round := 0; round < maxRounds; round++ {
		state := c.runOneRound(ctx, job, runID, cumulative)
		cumulative.urlsFetched += state.urlsFetched
		cumulative.llmCalls += state.llmCalls
		cumulative.llmCostUSD += state.llmCostUSD
		for field, cs := range state.candidatesByField {
			cumulative.candidatesByField[field] = append(cumulative.candidatesByField[field], cs...)
		}
		for id, src := range state.sources {
			cumulative.sources[id] = src
		}
		for id, pack := range state.evidencePacks {
			cumulative.evidencePacks[id] = pack
		}

		idScores := c.scoreIdentity(job, cumulative.sources)
		gate := identity.Gate(idScores, tierLookup(cumulative.sources))
		engine := consensus.NewEngine(gate.Confidence, job.Anchors, cumulative.sources)

		provenance := map[string]model.Provenance{}
		fieldsGained := 0
		for _, req := range fieldReqs {
			rule := fieldRules[req.Field]
			p := engine.ResolveField(req.Field, cumulative.candidatesByField[req.Field], rule)
			prior, existed := result.Provenance[req.Field]
			if p.Value != model.Unk && (!existed || prior.Value == model.Unk) {
				fieldsGained++
			}
			provenance[req.Field] = p
		}

		hasAnchorConflicts := len(gate.Conflicts) > 0
		qr := quality.Evaluate(fieldReqs, provenance, job.Requirements.TargetCompleteness, job.Requirements.TargetConfidence, gate.Confidence, hasAnchorConflicts)

		fields := map[string]string{}
		for field, p := range provenance {
			fields[field] = p.Value
		}

		confidenceDelta := qr.Confidence - prevConfidence
		summary := model.RoundSummary{
			Round:           round,
			URLsFetched:     state.urlsFetched,
			LLMCalls:        state.llmCalls,
			LLMCostUSD:      state.llmCostUSD,
			FieldsGained:    fieldsGained,
			ConfidenceDelta: confidenceDelta,
		}

		result.Provenance = provenance
		result.Fields = fields
		result.IdentityGate = gate.Decision
		result.IdentityConfidence = gate.Confidence
		result.CompletenessRequired = qr.CompletenessRequired
		result.CoverageOverall = qr.CoverageOverall
		result.Confidence = qr.Confidence
		result.Validated = qr.Validated
		result.ValidatedReason = qr.ValidatedReason
		result.CriticalFieldsBelowPassTarget = qr.CriticalFieldsBelowPassTarget

		stopReason, stop := c.evaluateStopConditions(gate, qr, cumulative, fieldsGained, confidenceDelta, &marginalYieldStreak)
		summary.StopReason = stopReason
		result.Rounds = append(result.Rounds, summary)

		if stop {
			result.StopReason = stopReason
			result.EvidencePacks = cumulative.evidencePacks
			result.Sources = cumulative.sources
			result.Candidates = cumulative.candidatesByField
			result.IdentityScores = identityScores(idScores)
			return result
		}
		prevConfidence = qr.Confidence

		rows := needsetRows(fieldReqs, c.deps.RuleStore, provenance)
		// Query expansion for the next round's planner is driven by the
		// caller via needset.ExpandQueries; here the Needset additionally
		// drives this round's LLM extraction pass (§4.9) for any field the
		// job opted into via requirements.llm_target_fields.
		llmCalls, llmCost, dangling := c.runLLMExtraction(ctx, job, runID, round, cumulative, rows)
		cumulative.llmCalls += llmCalls
		cumulative.llmCostUSD += llmCost
		summary.LLMCalls += llmCalls
		summary.LLMCostUSD += llmCost
		summary.DanglingSnippetRefCount += dangling
		result.Rounds[len(result.Rounds)-1] = summary
	}

	result.StopReason = "max_rounds_reached"
	result.EvidencePacks = cumulative.evidencePacks
	result.Sources = cumulative.sources
	result.Candidates = cumulative.candidatesByField
	result.IdentityScores = identityScores(c.scoreIdentity(job, cumulative.sources))
	return result
}

// identityScores projects identity.SourceScore into the model-level
// summary RunResult carries out to the Persistence Adapters, keeping
// pkg/model free of an import on pkg/identity.
func identityScores(scores []identity.SourceScore) []model.SourceIdentityScore {
	out := make([]model.SourceIdentityScore, 0, len(scores))
	for _, s := range scores {
		out = append(out, model.SourceIdentityScore{SourceID: s.SourceID, Score: s.Score, Passed: s.Passed})
	}
	return out
}

// runOneRound drains the planner's queue through fetch+extract, bounded
// by the round's URL budget, and returns the round's fresh state (not yet
// merged with prior rounds' candidates).
func (c *Controller) runOneRound(ctx context.Context, job model.ProductJob, runID string, cumulative *roundState) *roundState {
	state := newRoundState()
	budget := c.deps.Budgets.MaxURLsPerRound
	if budget <= 0 {
		budget = 20
	}

	for i := 0; i < budget && c.deps.Planner.HasNext(); i++ {
		item, ok := c.deps.Planner.Next()
		if !ok {
			break
		}
		c.deps.Pacer.Wait(item.Host)
		outcome := c.deps.Fetcher.Fetch(ctx, item.URL)
		c.deps.Pacer.Done(item.Host)

		if !outcome.IsOk() {
			if outcome.Kind == model.OutcomeRetry {
				c.deps.Planner.BlockHost(item.Host, outcome.Reason)
			}
			continue
		}
		state.urlsFetched++

		sourceID := job.Category + "::" + job.ProductID + "::" + item.Host + "::" + runID
		src := model.Source{
			SourceID:    sourceID,
			URL:         item.URL,
			FinalURL:    outcome.Value.FinalURL,
			Host:        item.Host,
			Tier:        item.Tier,
			Role:        item.Role,
			HTTPStatus:  outcome.Value.HTTPStatus,
			FetchMethod: c.deps.Fetcher.Mode(),
			ContentHash: outcome.Value.ContentHash,
			TextHash:    outcome.Value.TextHash,
		}
		state.sources[sourceID] = src

		page := extract.Page{Source: src, Data: outcome.Value, Fields: job.Requirements.RequiredFields}
		candidates := c.deps.Pipeline.Run(ctx, page)
		for i := range candidates {
			candidates[i].SourceID = sourceID
		}

		if c.deps.EvBuilder != nil {
			pack := c.deps.EvBuilder.Build(src, outcome.Value.ContentHash, outcome.Value.TextHash, nil, candidates)
			for i := range candidates {
				if snippetID, ok := pack.CandidateBindings[candidates[i].CandidateID]; ok {
					candidates[i].EvidenceRefs = appendUnique(candidates[i].EvidenceRefs, snippetID)
				}
			}
			state.evidencePacks[sourceID] = pack
		}

		for _, cand := range candidates {
			state.candidatesByField[cand.Field] = append(state.candidatesByField[cand.Field], cand)
		}
	}
	return state
}

func appendUnique(refs []string, ref string) []string {
	for _, r := range refs {
		if r == ref {
			return refs
		}
	}
	return append(refs, ref)
}

func (c *Controller) scoreIdentity(job model.ProductJob, sources map[string]model.Source) []identity.SourceScore {
	var out []identity.SourceScore
	for _, src := range sources {
		out = append(out, identity.ScoreSource(src, job.IdentityLock, nil, ""))
	}
	return out
}

func tierLookup(sources map[string]model.Source) map[string]model.Tier {
	out := make(map[string]model.Tier, len(sources))
	for id, s := range sources {
		out[id] = s.Tier
	}
	return out
}

// evaluateStopConditions implements §4.1's five ordered stop conditions.
func (c *Controller) evaluateStopConditions(gate identity.GateResult, qr quality.Result, cumulative *roundState, fieldsGained int, confidenceDelta float64, marginalYieldStreak *int) (string, bool) {
	if gate.Decision == model.IdentityConflict {
		return "identity_conflict_fatal", true
	}
	if qr.Validated {
		return "satisfied", true
	}
	if cumulative.llmCostUSD >= c.deps.Budgets.MaxCostUSDPerProduct && c.deps.Budgets.MaxCostUSDPerProduct > 0 {
		return "budget_exhausted", true
	}

	threshold := c.deps.Budgets.MarginalYieldDelta
	if threshold <= 0 {
		threshold = 0.02
	}
	if fieldsGained == 0 && confidenceDelta < threshold {
		*marginalYieldStreak++
	} else {
		*marginalYieldStreak = 0
	}
	if *marginalYieldStreak >= 2 {
		return "marginal_yield_exhausted", true
	}
	return "", false
}

func needsetRows(reqs []quality.FieldRequirement, store *ruledb.Store, provenance map[string]model.Provenance) []model.NeedsetRow {
	var states []needset.FieldState
	for _, r := range reqs {
		contract, _ := store.FieldContract(r.Field)
		p := provenance[r.Field]
		states = append(states, needset.FieldState{
			Contract:   contract,
			Provenance: p,
			HasValue:   p.Value != "" && p.Value != model.Unk,
		})
	}
	return needset.BuildRows(states)
}

