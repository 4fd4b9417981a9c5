// Package llmclient defines the role-routed LLM Client collaborator
// (spec.md §1, §4.9) and a concrete HTTP/JSON implementation. The
// interface shape (Client.Generate returning a channel of typed chunks)
// is adapted directly from the teacher's pkg/agent/llm_client.go; the
// concrete transport is HTTP/JSON rather than the teacher's gRPC client,
// since reproducing its protoc-generated pb package is not possible
// without running codegen (see DESIGN.md).
package llmclient

import "context"

// Role selects the system-prompt behavior for one call (spec §4.9 "System
// prompt role-specific (plan / extract / validate)").
type Role string

const (
	RolePlan     Role = "plan"
	RoleExtract  Role = "extract"
	RoleValidate Role = "validate"
)

// FieldContractPayload is the per-field contract sent to the model: type,
// shape, unit, and enum options when closed.
type FieldContractPayload struct {
	Field      string   `json:"field"`
	Shape      string   `json:"shape"`
	Unit       string   `json:"unit,omitempty"`
	ClosedEnum bool     `json:"closed_enum,omitempty"`
	EnumValues []string `json:"enum_values,omitempty"`
}

// EvidenceRef is one scoped snippet reference included in the payload.
type EvidenceRef struct {
	SnippetID string `json:"snippet_id"`
	Text      string `json:"text"`
}

// PrimeSource is a compact top-evidence-row packet for an already-known
// field value (Glossary "Prime sources").
type PrimeSource struct {
	Field string `json:"field"`
	Value string `json:"value"`
	URL   string `json:"url"`
}

// GenerateInput is everything one LLM call needs (spec §4.9 "LLM call
// contract").
type GenerateInput struct {
	Role            Role
	Model           string
	MaxTokens       int
	Category        string
	IdentityContext map[string]string
	TargetFields    []string
	FieldContracts  []FieldContractPayload
	Anchors         map[string]string
	Evidence        []EvidenceRef
	PrimeSources    []PrimeSource
	EnableWebsearch bool
}

// ExtractedCandidate is one (field, value) the model claims, with the
// evidence refs it cites.
type ExtractedCandidate struct {
	Field        string   `json:"field"`
	Value        string   `json:"value"`
	EvidenceRefs []string `json:"evidence_refs"`
}

// GenerateOutput is the parsed, JSON-only model response.
type GenerateOutput struct {
	Candidates       []ExtractedCandidate `json:"candidates"`
	PromptTokens     int                  `json:"prompt_tokens"`
	CompletionTokens int                  `json:"completion_tokens"`
	CachedPromptTokens int                `json:"cached_prompt_tokens"`
}

// Client is the role-routed LLM collaborator.
type Client interface {
	Generate(ctx context.Context, in GenerateInput) (GenerateOutput, error)
}
