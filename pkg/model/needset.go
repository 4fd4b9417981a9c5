package model

// AvailabilityClass is a field's historic fill-rate class, driving effort
// allocation and unknown-reason labeling (§4.10, Glossary).
type AvailabilityClass string

const (
	AvailabilityExpected  AvailabilityClass = "expected"
	AvailabilitySometimes AvailabilityClass = "sometimes"
	AvailabilityRare      AvailabilityClass = "rare"
)

// DeficitReason explains why a Needset row still needs work.
type DeficitReason string

const (
	DeficitMissing              DeficitReason = "missing"
	DeficitBelowPassTarget       DeficitReason = "below_pass_target"
	DeficitBelowMinEvidence      DeficitReason = "below_min_evidence"
	DeficitConflictingSources    DeficitReason = "conflicting_sources"
	DeficitConstraintViolation   DeficitReason = "constraint_violation"
)

// NeedsetRow is a per-round record of a field that still needs work.
type NeedsetRow struct {
	Field             string            `json:"field"`
	RequiredLevel     string            `json:"required_level"`
	AvailabilityClass AvailabilityClass `json:"availability_class"`
	DeficitReason     DeficitReason     `json:"deficit_reason"`
	TierPreference    []Tier            `json:"tier_preference"`
	MinEvidenceRefs   int               `json:"min_evidence_refs"`
	ForceHigh         bool              `json:"force_high"`
}

// UnknownReason is the enumerated code explaining why a field is unk after
// a run (§7, Glossary).
type UnknownReason string

const (
	ReasonNotFoundAfterSearch        UnknownReason = "not_found_after_search"
	ReasonNotPubliclyDisclosed       UnknownReason = "not_publicly_disclosed"
	ReasonConflictingSourcesUnresolved UnknownReason = "conflicting_sources_unresolved"
	ReasonIdentityAmbiguous          UnknownReason = "identity_ambiguous"
	ReasonBlockedByRobotsOrToS       UnknownReason = "blocked_by_robots_or_tos"
	ReasonParseFailure               UnknownReason = "parse_failure"
	ReasonBudgetExhausted            UnknownReason = "budget_exhausted"
)

// SendPacket describes what context shape is sent to the LLM for a route.
type SendPacket string

const (
	SendValuesOnly              SendPacket = "values_only"
	SendValuesPlusPrimeSources  SendPacket = "values_plus_prime_sources"
)

// RouteDecision is resolved per (field, scope) from the route matrix (§3.7).
type RouteDecision struct {
	Field                     string     `json:"field"`
	Scope                     FieldScope `json:"scope"`
	ModelLadder               []string   `json:"model_ladder"`
	AllSourceData             bool       `json:"all_source_data"`
	EnableWebsearch           bool       `json:"enable_websearch"`
	MaxTokens                 int        `json:"max_tokens"`
	SendPacket                SendPacket `json:"send_packet"`
	MinEvidenceRefsRequired   int        `json:"min_evidence_refs_required"`
	InsufficientEvidenceAction string    `json:"insufficient_evidence_action"`
}

// BillingEntry is one immutable LLM-call cost record (§3.8).
type BillingEntry struct {
	TS                int64   `json:"ts"`
	Month             string  `json:"month"`
	Day               string  `json:"day"`
	Provider          string  `json:"provider"`
	Model             string  `json:"model"`
	Category          string  `json:"category"`
	ProductID         string  `json:"product_id"`
	RunID             string  `json:"run_id"`
	Round             int     `json:"round"`
	PromptTokens      int     `json:"prompt_tokens"`
	CompletionTokens  int     `json:"completion_tokens"`
	CachedPromptTokens int    `json:"cached_prompt_tokens"`
	CostUSD           float64 `json:"cost_usd"`
	Reason            string  `json:"reason"`
	Host              string  `json:"host,omitempty"`
	EvidenceChars     int     `json:"evidence_chars,omitempty"`
	EstimatedUsage    bool    `json:"estimated_usage,omitempty"`
}
