package llmclient

import (
	"context"

	"github.com/CdubVentures/spec-harvester-sub014/pkg/model"
)

// stage names the LLM extraction state machine's phases (spec §9
// "Callback-style LLM retry & pagination ... Plan -> Call -> Parse ->
// VerifyRefs -> Promote").
type stage int

const (
	stagePlan stage = iota
	stageCall
	stageParse
	stageVerifyRefs
	stagePromote
)

// ExtractWithVerification drives the Plan->Call->Parse->VerifyRefs->Promote
// state machine once, re-entering Call exactly one time if VerifyRefs
// finds a dangling snippet reference, then terminating regardless of
// outcome.
func ExtractWithVerification(ctx context.Context, client Client, in GenerateInput, validSnippetIDs map[string]bool) ([]model.Candidate, int, error) {
	danglingCount := 0
	current := in

	for attempt := 0; attempt < 2; attempt++ {
		out, err := client.Generate(ctx, current) // Call
		if err != nil {
			return nil, danglingCount, err
		}

		candidates, dangling := verifyRefs(out, current, validSnippetIDs) // Parse + VerifyRefs
		danglingCount += dangling

		if dangling == 0 || attempt == 1 {
			return candidates, danglingCount, nil // Promote
		}
		// Re-enter Call once with a copy of the same input; the prompt is
		// not changed and does not mention the dangling refs.
		current = adjustForRetry(current)
	}
	return nil, danglingCount, nil
}

// verifyRefs drops any ExtractedCandidate whose evidence_refs don't all
// resolve to snippets in the pack (spec §4.9 "Unresolved refs -> drop
// candidate; all refs ok -> promote candidate into consensus").
func verifyRefs(out GenerateOutput, in GenerateInput, validSnippetIDs map[string]bool) ([]model.Candidate, int) {
	var promoted []model.Candidate
	dangling := 0
	for _, ec := range out.Candidates {
		if !allRefsValid(ec.EvidenceRefs, validSnippetIDs) {
			dangling++
			continue
		}
		c := model.NewCandidate(ec.Field, ec.Value, model.MethodLLMExtract, "llm."+ec.Field, "", ec.EvidenceRefs)
		promoted = append(promoted, c)
	}
	return promoted, dangling
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

func adjustForRetry(in GenerateInput) GenerateInput {
	out := in
	out.TargetFields = append([]string(nil), in.TargetFields...)
	return out
}
