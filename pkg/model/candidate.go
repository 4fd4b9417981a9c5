package model

// ExtractionMethod names the extractor that produced a candidate (§4.4);
// ConfidenceBase gives each method's prior.
type ExtractionMethod string

const (
	MethodNetworkJSON      ExtractionMethod = "network_json"
	MethodAdapterAPI       ExtractionMethod = "adapter_api"
	MethodJSONLD           ExtractionMethod = "json_ld"
	MethodMicrodata        ExtractionMethod = "microdata"
	MethodEmbeddedState    ExtractionMethod = "embedded_state"
	MethodSpecTable        ExtractionMethod = "spec_table"
	MethodPDFTable         ExtractionMethod = "pdf_table"
	MethodPDFKV            ExtractionMethod = "pdf_kv"
	MethodArticleWindow    ExtractionMethod = "article_window"
	MethodLLMExtract       ExtractionMethod = "llm_extract"
	MethodHelperSupportive ExtractionMethod = "helper_supportive"
)

// ConfidenceBase returns the §4.4 prior confidence for the method, before
// tier weighting and plausibility adjustment.
func (m ExtractionMethod) ConfidenceBase() float64 {
	switch m {
	case MethodNetworkJSON:
		return 0.96
	case MethodEmbeddedState:
		return 0.93
	case MethodJSONLD:
		return 0.90
	case MethodMicrodata:
		return 0.88
	case MethodSpecTable:
		return 0.82
	case MethodPDFTable, MethodPDFKV:
		return 0.80
	case MethodArticleWindow:
		return 0.70
	case MethodAdapterAPI:
		return 0.85
	case MethodLLMExtract:
		return 0.60
	case MethodHelperSupportive:
		return 0.40
	default:
		return 0.50
	}
}

// Unk is the sentinel value meaning "never actionable". Equivalents
// (unknown, n/a, empty) are normalized to this by candidate construction.
const Unk = "unk"

// FieldScope describes the shape a field's value must take.
type FieldScope string

const (
	ScopeScalar    FieldScope = "scalar"
	ScopeComponent FieldScope = "component"
	ScopeList      FieldScope = "list"
)

// Value is the tagged-variant replacement for the extractor's dynamically
// typed output (spec §9 "Dynamic typing"). Exactly one of the typed fields
// is meaningful, selected by Scope.
type Value struct {
	Scope  FieldScope `json:"scope"`
	Scalar string     `json:"scalar,omitempty"`
	List   []string   `json:"list,omitempty"`
}

// IsUnknown reports whether the value is the unk sentinel (scalar scope)
// or empty (list scope).
func (v Value) IsUnknown() bool {
	switch v.Scope {
	case ScopeList:
		return len(v.List) == 0
	default:
		return v.Scalar == "" || v.Scalar == Unk
	}
}

// Candidate is a single (field, value) extraction from one source.
// CandidateID is a deterministic fingerprint, stable across runs for
// identical observations: sha(field|normalized-value|method|key_path).
type Candidate struct {
	CandidateID    string           `json:"candidate_id"`
	Field          string           `json:"field"`
	Value          Value            `json:"value"`
	Method         ExtractionMethod `json:"method"`
	KeyPath        string           `json:"key_path"`
	ConfidenceBase float64          `json:"confidence_base"`
	EvidenceRefs   []string         `json:"evidence_refs"`
	SourceID       string           `json:"source_id"`

	// Multi-product identity pre-consensus clustering (§4.4).
	PageProductClusterID string  `json:"page_product_cluster_id,omitempty"`
	TargetMatchScore     float64 `json:"target_match_score,omitempty"`
	TargetMatchPassed    bool    `json:"target_match_passed,omitempty"`
}

// Normalized returns the lowercased, whitespace-collapsed scalar value
// used for clustering (§4.6 step 2). Callers needing the field-specific
// numeric tolerance should use pkg/consensus instead.
func (c Candidate) Normalized() string {
	return normalizeValue(c.Value.Scalar)
}
