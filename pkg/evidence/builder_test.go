package evidence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CdubVentures/spec-harvester-sub014/pkg/model"
)

func TestBuilder_BuildOrdersAndBindsCandidates(t *testing.T) {
	b := NewBuilder(4000)
	source := model.Source{SourceID: "src-1", URL: "https://example.com/specs"}

	raw := []CandidateSnippet{
		{Type: model.SnippetText, Text: "some filler paragraph about the vehicle"},
		{Type: model.SnippetKV, Text: "Battery Capacity: 75 kWh", KeyPath: "kv.battery"},
		{Type: model.SnippetDefinition, Text: "Battery capacity is measured in kWh"},
	}
	cand := model.NewCandidate("battery_capacity_kwh", "75 kWh", model.MethodNetworkJSON, "specs.battery", "src-1", nil)

	pack := b.Build(source, "page-hash", "text-hash", raw, []model.Candidate{cand})

	require.Len(t, pack.Snippets, 3)
	// definition ranks before kv which ranks before plain text.
	assert.Equal(t, model.SnippetDefinition, pack.Snippets[0].Type)
	assert.Equal(t, model.SnippetKV, pack.Snippets[1].Type)
	assert.Equal(t, model.SnippetText, pack.Snippets[2].Type)

	snippetID, ok := pack.CandidateBindings[cand.CandidateID]
	require.True(t, ok, "candidate must be bound to a snippet")
	assert.Equal(t, "k01", snippetID, "candidate value appears verbatim in the kv snippet")
}

func TestBuilder_SynthesizesSnippetForUnboundCandidate(t *testing.T) {
	b := NewBuilder(4000)
	source := model.Source{SourceID: "src-1", URL: "https://example.com/specs"}
	cand := model.NewCandidate("range_miles", "310 miles", model.MethodJSONLD, "specs.range", "src-1", nil)

	pack := b.Build(source, "page-hash", "text-hash", nil, []model.Candidate{cand})

	require.Len(t, pack.Snippets, 1)
	assert.Equal(t, model.SnippetDeterministicCandidate, pack.Snippets[0].Type)
	snippetID, ok := pack.CandidateBindings[cand.CandidateID]
	require.True(t, ok)
	assert.Equal(t, pack.Snippets[0].ID, snippetID)
}

func TestBuilder_SkipsUnknownCandidates(t *testing.T) {
	b := NewBuilder(4000)
	source := model.Source{SourceID: "src-1", URL: "https://example.com/specs"}
	cand := model.NewCandidate("range_miles", "unk", model.MethodJSONLD, "specs.range", "src-1", nil)

	pack := b.Build(source, "page-hash", "text-hash", nil, []model.Candidate{cand})

	assert.Empty(t, pack.Snippets)
	assert.Empty(t, pack.CandidateBindings)
}

func TestBuilder_RespectsCharBudget(t *testing.T) {
	b := NewBuilder(10)
	source := model.Source{SourceID: "src-1", URL: "https://example.com/specs"}
	raw := []CandidateSnippet{
		{Type: model.SnippetKV, Text: "this text is definitely longer than ten characters"},
		{Type: model.SnippetText, Text: "this one too should be dropped"},
	}

	pack := b.Build(source, "page-hash", "text-hash", raw, nil)

	require.Len(t, pack.Snippets, 1)
	assert.LessOrEqual(t, len(pack.Snippets[0].Text), 10)
}

func TestBuilder_SnippetHashUniquePerDistinctText(t *testing.T) {
	b := NewBuilder(4000)
	source := model.Source{SourceID: "src-1", URL: "https://example.com/specs"}
	raw := []CandidateSnippet{
		{Type: model.SnippetKV, Text: "Battery Capacity: 75 kWh"},
		{Type: model.SnippetKV, Text: "Battery Capacity: 82 kWh"},
	}

	pack := b.Build(source, "page-hash", "text-hash", raw, nil)

	require.Len(t, pack.Snippets, 2)
	assert.NotEqual(t, pack.Snippets[0].SnippetHash, pack.Snippets[1].SnippetHash)

	seen := map[string]bool{}
	for _, s := range pack.Snippets {
		assert.False(t, seen[s.ID], "slot ids must be unique within a pack")
		seen[s.ID] = true
	}
}

func TestNewRunID_ProducesNonEmptyUniqueValues(t *testing.T) {
	a := NewRunID()
	bID := NewRunID()
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, bID)
}
