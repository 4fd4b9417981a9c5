package engine

import (
	"context"
	"sort"
	"time"

	"github.com/CdubVentures/spec-harvester-sub014/pkg/billing"
	"github.com/CdubVentures/spec-harvester-sub014/pkg/llmclient"
	"github.com/CdubVentures/spec-harvester-sub014/pkg/llmrouter"
	"github.com/CdubVentures/spec-harvester-sub014/pkg/model"
	"github.com/CdubVentures/spec-harvester-sub014/pkg/ruledb"
)

// LLMDeps bundles the optional LLM Router & Budget Guard collaborators
// (spec §4.9). A nil Client disables LLM extraction entirely: the round
// controller then relies on the six deterministic extractors only, which
// is a valid configuration for a fast-pass-only category.
type LLMDeps struct {
	Client   llmclient.Client
	Budget   *llmrouter.BudgetGuard
	Ledger   *billing.Ledger
	Pricing  *billing.PricingTable
	Provider string
}

// maxEvidenceRefsPerCall bounds how many snippets from the round's
// accumulated evidence packs are sent in one LLM call's payload.
const maxEvidenceRefsPerCall = 12

// runLLMExtraction drives the §4.9 LLM call contract for every Needset row
// the job explicitly opted into via requirements.llm_target_fields,
// honoring the budget guard and dropping candidates whose evidence_refs
// fail to resolve to a snippet in the pack (§7 "Dangling snippet ref").
func (c *Controller) runLLMExtraction(ctx context.Context, job model.ProductJob, runID string, round int, cumulative *roundState, rows []model.NeedsetRow) (calls int, costUSD float64, danglingRefs int) {
	deps := c.deps.LLM
	if deps.Client == nil {
		return 0, 0, 0
	}

	targets := make(map[string]bool, len(job.Requirements.LLMTargetFields))
	for _, f := range job.Requirements.LLMTargetFields {
		targets[f] = true
	}

	for _, row := range rows {
		if !targets[row.Field] {
			continue
		}

		contract, _ := c.deps.RuleStore.FieldContract(row.Field)
		scope := contract.Scope
		if scope == "" {
			scope = model.ScopeScalar
		}
		route, err := c.deps.RuleStore.ResolveRoute(scope, row.RequiredLevel, row.AvailabilityClass)
		if err != nil {
			continue
		}

		reason := llmrouter.ReasonStandardExtract
		if row.ForceHigh {
			reason = llmrouter.ReasonCriticalFieldExtract
		}
		if deps.Budget != nil {
			if decision := deps.Budget.Check(reason); !decision.Allowed {
				continue
			}
		}

		refs, sourceID := gatherEvidenceRefs(cumulative, maxEvidenceRefsPerCall)
		if len(refs) < route.MinEvidenceRefsRequired {
			continue
		}

		input := llmclient.GenerateInput{
			Role:            llmclient.RoleExtract,
			Model:           firstOrDefault(route.ModelLadder, "default"),
			MaxTokens:       route.MaxTokens,
			Category:        job.Category,
			IdentityContext: map[string]string{"brand": job.IdentityLock.Brand, "model": job.IdentityLock.Model},
			TargetFields:    []string{row.Field},
			FieldContracts:  []llmclient.FieldContractPayload{fieldContractPayload(row.Field, contract)},
			Anchors:         job.Anchors,
			Evidence:        refs,
			EnableWebsearch: route.EnableWebsearch,
		}

		output, err := deps.Client.Generate(ctx, input)
		if err != nil {
			continue
		}
		calls++

		validRefs := validSnippetIDs(refs)
		for _, ec := range output.Candidates {
			if !allRefsValid(ec.EvidenceRefs, validRefs) {
				danglingRefs++
				continue
			}
			cand := model.NewCandidate(ec.Field, ec.Value, model.MethodLLMExtract, "llm."+ec.Field, sourceID, ec.EvidenceRefs)
			cumulative.candidatesByField[ec.Field] = append(cumulative.candidatesByField[ec.Field], cand)
		}

		cost := 0.0
		if deps.Pricing != nil {
			cost = deps.Pricing.Cost(input.Model, output.PromptTokens, output.CompletionTokens, output.CachedPromptTokens)
		}
		costUSD += cost
		if deps.Budget != nil {
			deps.Budget.RecordCall(cost)
		}
		if deps.Ledger != nil {
			now := time.Now().UTC()
			_ = deps.Ledger.Append(ctx, model.BillingEntry{
				TS:                 now.Unix(),
				Month:              now.Format("2006-01"),
				Day:                now.Format("2006-01-02"),
				Provider:           deps.Provider,
				Model:              input.Model,
				Category:           job.Category,
				ProductID:          job.ProductID,
				RunID:              runID,
				Round:              round,
				PromptTokens:       output.PromptTokens,
				CompletionTokens:   output.CompletionTokens,
				CachedPromptTokens: output.CachedPromptTokens,
				CostUSD:            cost,
				Reason:             string(reason),
			})
		}
	}
	return calls, costUSD, danglingRefs
}

// gatherEvidenceRefs flattens the round's accumulated evidence packs into
// at most limit EvidenceRefs, plus a representative source_id for the
// resulting LLM candidates (the first pack's source, deterministically
// picked by iterating packs in source_id order).
func gatherEvidenceRefs(cumulative *roundState, limit int) ([]llmclient.EvidenceRef, string) {
	var sourceIDs []string
	for id := range cumulative.evidencePacks {
		sourceIDs = append(sourceIDs, id)
	}
	sort.Strings(sourceIDs)

	var refs []llmclient.EvidenceRef
	var primarySource string
	for _, id := range sourceIDs {
		pack := cumulative.evidencePacks[id]
		if primarySource == "" && len(pack.Snippets) > 0 {
			primarySource = id
		}
		for _, s := range pack.Snippets {
			if len(refs) >= limit {
				return refs, primarySource
			}
			refs = append(refs, llmclient.EvidenceRef{SnippetID: s.ID, Text: s.Text})
		}
	}
	return refs, primarySource
}

func validSnippetIDs(refs []llmclient.EvidenceRef) map[string]bool {
	out := make(map[string]bool, len(refs))
	for _, r := range refs {
		out[r.SnippetID] = true
	}
	return out
}

func allRefsValid(refs []string, valid map[string]bool) bool {
	if len(refs) == 0 {
		return false
	}
	for _, r := range refs {
		if !valid[r] {
			return false
		}
	}
	return true
}

func firstOrDefault(ladder []string, def string) string {
	if len(ladder) == 0 {
		return def
	}
	return ladder[0]
}

func fieldContractPayload(field string, c ruledb.FieldContract) llmclient.FieldContractPayload {
	shape := c.Scope
	if shape == "" {
		shape = model.ScopeScalar
	}
	return llmclient.FieldContractPayload{
		Field:      field,
		Shape:      string(shape),
		ClosedEnum: c.ClosedEnum,
		EnumValues: c.EnumValues,
	}
}
