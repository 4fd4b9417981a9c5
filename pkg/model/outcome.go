package model

// OutcomeKind tags which arm of an Outcome is populated, replacing the
// throw/catch control flow a scraping pipeline typically uses to abort a
// source (§9 "Exceptions for control flow").
type OutcomeKind string

const (
	OutcomeOk    OutcomeKind = "ok"
	OutcomeSkip  OutcomeKind = "skip"
	OutcomeRetry OutcomeKind = "retry"
	OutcomeFailed OutcomeKind = "failed"
)

// Outcome is a generic Ok(value) | Skip(reason) | Retry(nextMode) |
// Failed(reason) result so the scheduler can branch without unwinding.
type Outcome[T any] struct {
	Kind     OutcomeKind
	Value    T
	Reason   string
	NextMode FetchMethod
}

func Ok[T any](v T) Outcome[T] { return Outcome[T]{Kind: OutcomeOk, Value: v} }

func Skip[T any](reason string) Outcome[T] { return Outcome[T]{Kind: OutcomeSkip, Reason: reason} }

func Retry[T any](nextMode FetchMethod, reason string) Outcome[T] {
	return Outcome[T]{Kind: OutcomeRetry, Reason: reason, NextMode: nextMode}
}

func Failed[T any](reason string) Outcome[T] { return Outcome[T]{Kind: OutcomeFailed, Reason: reason} }

func (o Outcome[T]) IsOk() bool { return o.Kind == OutcomeOk }

// RoundSummary is emitted once per round by the Round Controller (§4.1).
type RoundSummary struct {
	Round                   int     `json:"round"`
	URLsFetched             int     `json:"urls_fetched"`
	LLMCalls                int     `json:"llm_calls"`
	LLMCostUSD              float64 `json:"llm_cost_usd"`
	FieldsGained            int     `json:"fields_gained"`
	ConfidenceDelta         float64 `json:"confidence_delta"`
	DanglingSnippetRefCount int     `json:"dangling_snippet_ref_count,omitempty"`
	StopReason              string  `json:"stop_reason,omitempty"`
}

// IdentityGateDecision is the product-level identity gate outcome (§4.7).
type IdentityGateDecision string

const (
	IdentityLockedFull   IdentityGateDecision = "IDENTITY_LOCKED_FULL"
	IdentityProvisional  IdentityGateDecision = "IDENTITY_PROVISIONAL"
	IdentityConflict     IdentityGateDecision = "IDENTITY_CONFLICT"
	IdentityUnlocked     IdentityGateDecision = "IDENTITY_UNLOCKED"
)

// RunResult is the engine's final output for one product run.
type RunResult struct {
	Category             string                  `json:"category"`
	ProductID             string                  `json:"product_id"`
	RunID                 string                  `json:"run_id"`
	Fields                map[string]string       `json:"fields"`
	Provenance            map[string]Provenance   `json:"provenance"`
	Validated             bool                    `json:"validated"`
	ValidatedReason        []string                `json:"validated_reason,omitempty"`
	IdentityGate           IdentityGateDecision    `json:"identity_gate"`
	IdentityConfidence     float64                 `json:"identity_confidence"`
	CompletenessRequired   float64                 `json:"completeness_required"`
	CoverageOverall        float64                 `json:"coverage_overall"`
	Confidence             float64                 `json:"confidence"`
	StopReason             string                  `json:"stop_reason"`
	Rounds                 []RoundSummary          `json:"rounds"`
	CriticalFieldsBelowPassTarget []string          `json:"critical_fields_below_pass_target"`

	// EvidencePacks, Sources, and Candidates are populated in-process for
	// the CLI's persistence step (pkg/persist) and intentionally excluded
	// from the published summary JSON — each is written to its own sink
	// individually, not inlined into the summary artifact.
	EvidencePacks map[string]EvidencePack      `json:"-"`
	Sources       map[string]Source            `json:"-"`
	Candidates    map[string][]Candidate       `json:"-"`
	IdentityScores []SourceIdentityScore       `json:"-"`
}

// SourceIdentityScore mirrors pkg/identity.SourceScore without importing
// that package from model, so RunResult can carry per-source identity
// results out to the Persistence Adapters' source_assertions writer.
type SourceIdentityScore struct {
	SourceID string
	Score    float64
	Passed   bool
}
