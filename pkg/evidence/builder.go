// Package evidence implements the Evidence Pack Builder (spec.md §4.5):
// bounded per-source snippet selection, deterministic candidate binding,
// and the hashing/identity invariants consumed downstream by the LLM
// Router and Consensus Engine. Grounded directly on the retrieved pack's
// Mindburn-Labs-helm evidence_pack.go builder (nil-slice normalization,
// uuid-stamped output, field-by-field struct construction).
package evidence

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/CdubVentures/spec-harvester-sub014/pkg/model"
)

// CandidateSnippet is one raw, not-yet-bounded snippet candidate produced
// upstream (by an extractor or the page itself) before the builder
// applies priority ordering and the character budget.
type CandidateSnippet struct {
	Type       model.SnippetType
	Text       string
	KeyPath    string
	FieldHints []string
}

// snippetPriority ranks snippet types for inclusion order (§4.5: definition
// pairs, inline KV rows, target-field windows, HTML tables, spec-section
// headings, high-scoring network-JSON rows, JSON-LD products, embedded
// state, PDF text, then deterministic-candidate synthetic snippets last).
var snippetPriority = map[model.SnippetType]int{
	model.SnippetDefinition:           0,
	model.SnippetKV:                   1,
	model.SnippetWindow:               2,
	model.SnippetTable:                3,
	model.SnippetText:                 4,
	model.SnippetJSON:                 5,
	model.SnippetJSONLDProduct:        6,
	model.SnippetPDF:                  7,
	model.SnippetDeterministicCandidate: 8,
}

// Builder constructs EvidencePacks for one source at a time.
type Builder struct {
	maxEvidenceChars int
}

func NewBuilder(maxEvidenceChars int) *Builder {
	return &Builder{maxEvidenceChars: maxEvidenceChars}
}

// Build assembles a bounded EvidencePack from raw candidate snippets plus
// the deterministic candidates already extracted from this source.
func (b *Builder) Build(source model.Source, pageContentHash, textHash string, raw []CandidateSnippet, candidates []model.Candidate) model.EvidencePack {
	raw = normalizeSnippets(raw)
	sort.SliceStable(raw, func(i, j int) bool {
		return snippetPriority[raw[i].Type] < snippetPriority[raw[j].Type]
	})

	pack := model.EvidencePack{
		SourceID:          source.SourceID,
		CandidateBindings: map[string]string{},
		Meta: model.EvidencePackMeta{
			PageContentHash: pageContentHash,
			TextHash:        textHash,
		},
	}

	charBudget := b.maxEvidenceChars
	counters := map[string]int{}

	for _, cs := range raw {
		if charBudget <= 0 {
			break
		}
		text := truncate(cs.Text, charBudget)
		if text == "" {
			continue
		}
		id := nextSlotID(cs.Type, counters)
		normalized := normalizeText(text)
		snippet := model.Snippet{
			ID:               id,
			SourceID:         source.SourceID,
			Type:             cs.Type,
			Text:             text,
			NormalizedText:   normalized,
			SnippetHash:      model.SnippetHash(normalized),
			URL:              source.URL,
			ExtractionMethod: string(cs.Type),
			KeyPath:          cs.KeyPath,
			FieldHints:       cs.FieldHints,
		}
		pack.Snippets = append(pack.Snippets, snippet)
		charBudget -= len(text)
	}

	// Deterministic binding: every non-unknown candidate gets a snippet.
	for _, c := range candidates {
		if c.Value.IsUnknown() || c.CandidateID == "" {
			continue
		}
		if snippetID, bound := bindExistingSnippet(pack.Snippets, c.Value.Scalar); bound {
			pack.CandidateBindings[c.CandidateID] = snippetID
			continue
		}
		text := fmt.Sprintf("%s: %s", c.Field, c.Value.Scalar)
		id := nextSlotID(model.SnippetDeterministicCandidate, counters)
		normalized := normalizeText(text)
		pack.Snippets = append(pack.Snippets, model.Snippet{
			ID:               id,
			SourceID:         source.SourceID,
			Type:             model.SnippetDeterministicCandidate,
			Text:             text,
			NormalizedText:   normalized,
			SnippetHash:      model.SnippetHash(normalized),
			URL:              source.URL,
			ExtractionMethod: string(c.Method),
			KeyPath:          c.KeyPath,
		})
		pack.CandidateBindings[c.CandidateID] = id
	}

	return pack
}

func normalizeSnippets(raw []CandidateSnippet) []CandidateSnippet {
	if raw == nil {
		return []CandidateSnippet{}
	}
	return raw
}

func bindExistingSnippet(snippets []model.Snippet, value string) (string, bool) {
	needle := strings.ToLower(value)
	if needle == "" {
		return "", false
	}
	for _, s := range snippets {
		if strings.Contains(strings.ToLower(s.Text), needle) {
			return s.ID, true
		}
	}
	return "", false
}

func truncate(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	return text[:limit]
}

func normalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

var slotPrefix = map[model.SnippetType]string{
	model.SnippetDefinition:             "d",
	model.SnippetKV:                     "k",
	model.SnippetWindow:                 "w",
	model.SnippetTable:                  "t",
	model.SnippetText:                   "x",
	model.SnippetJSON:                   "j",
	model.SnippetJSONLDProduct:          "j",
	model.SnippetPDF:                    "p",
	model.SnippetDeterministicCandidate: "c",
}

func nextSlotID(t model.SnippetType, counters map[string]int) string {
	prefix := slotPrefix[t]
	if prefix == "" {
		prefix = "s"
	}
	counters[prefix]++
	return fmt.Sprintf("%s%02d", prefix, counters[prefix])
}

// NewRunID mints a run identifier, grounded on the evidence-pack
// producer's uuid.New() usage for pack/execution IDs.
func NewRunID() string { return uuid.NewString() }
