package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/CdubVentures/spec-harvester-sub014/pkg/model"
)

func TestNormalizeShape_ScalarFieldRejectsObject(t *testing.T) {
	c := model.Candidate{Field: "range_miles"}

	_, reason, ok := NormalizeShape(c, model.ScopeScalar, false, true, 0)

	assert.False(t, ok)
	assert.Equal(t, "shape_mismatch_scalar_object", reason)
}

func TestNormalizeShape_ScalarFieldRejectsMultiElementArray(t *testing.T) {
	c := model.Candidate{Field: "range_miles"}

	_, reason, ok := NormalizeShape(c, model.ScopeScalar, true, false, 2)

	assert.False(t, ok)
	assert.Equal(t, "shape_mismatch_scalar_array", reason)
}

func TestNormalizeShape_ScalarFieldAcceptsSingletonArray(t *testing.T) {
	c := model.Candidate{Field: "range_miles"}

	out, reason, ok := NormalizeShape(c, model.ScopeScalar, true, false, 1)

	assert.True(t, ok)
	assert.Empty(t, reason)
	assert.Equal(t, c, out)
}

func TestNormalizeShape_ListFieldNormalizesDelimitedValue(t *testing.T) {
	c := model.Candidate{Field: "colors", Value: model.Value{Scalar: "Red, Blue; Red / Green"}}

	out, reason, ok := NormalizeShape(c, model.ScopeList, false, false, 0)

	assert.True(t, ok)
	assert.Empty(t, reason)
	assert.Equal(t, []string{"Red", "Blue", "Green"}, out.Value.List)
}

func TestNormalizeListValue_DedupesCaseInsensitivelyAndStripsUnknownTokens(t *testing.T) {
	out := NormalizeListValue("Red, red, n/a, Blue, , unknown")
	assert.Equal(t, []string{"Red", "Blue"}, out)
}

func TestIsUnkToken_MatchesKnownSentinels(t *testing.T) {
	for _, tok := range []string{"unk", "UNKNOWN", "N/A", "na", "-", "--"} {
		assert.True(t, isUnkToken(tok), tok)
	}
	assert.False(t, isUnkToken("Blue"))
}

func TestSortedFieldNames_ReturnsAlphabeticalCopyWithoutMutatingInput(t *testing.T) {
	in := []string{"range_miles", "color", "battery_capacity_kwh"}

	out := SortedFieldNames(in)

	assert.Equal(t, []string{"battery_capacity_kwh", "color", "range_miles"}, out)
	assert.Equal(t, []string{"range_miles", "color", "battery_capacity_kwh"}, in, "original slice must be untouched")
}
