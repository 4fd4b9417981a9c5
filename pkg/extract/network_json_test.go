package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CdubVentures/spec-harvester-sub014/pkg/fetch"
	"github.com/CdubVentures/spec-harvester-sub014/pkg/model"
)

func TestNetworkJSONExtractor_FindsShallowAndNestedKeys(t *testing.T) {
	page := Page{
		Source: model.Source{SourceID: "s1"},
		Data: fetch.PageData{
			NetworkJSON: []string{`{"range_miles": "310", "specs": {"battery_capacity_kwh": 75}}`},
		},
		Fields: []string{"range_miles", "battery_capacity_kwh", "color"},
	}

	out := NetworkJSONExtractor{}.Extract(context.Background(), page)

	require.Len(t, out, 2)
	byField := map[string]model.Candidate{}
	for _, c := range out {
		byField[c.Field] = c
	}
	assert.Equal(t, "310", byField["range_miles"].Value.Scalar)
	assert.Equal(t, "75", byField["battery_capacity_kwh"].Value.Scalar)
	assert.Equal(t, model.MethodNetworkJSON, byField["range_miles"].Method)
}

func TestNetworkJSONExtractor_SkipsInvalidJSON(t *testing.T) {
	page := Page{
		Data:   fetch.PageData{NetworkJSON: []string{"not json"}},
		Fields: []string{"range_miles"},
	}

	out := NetworkJSONExtractor{}.Extract(context.Background(), page)

	assert.Empty(t, out)
}

func TestEmbeddedStateExtractor_FindsTargetField(t *testing.T) {
	page := Page{
		Data:   fetch.PageData{EmbeddedState: []string{`{"Color": "Midnight Blue"}`}},
		Fields: []string{"color"},
	}

	out := EmbeddedStateExtractor{}.Extract(context.Background(), page)

	require.Len(t, out, 1)
	assert.Equal(t, "Midnight Blue", out[0].Value.Scalar)
	assert.Equal(t, model.MethodEmbeddedState, out[0].Method)
}

func TestLookupKey_CaseInsensitiveMatch(t *testing.T) {
	doc := map[string]any{"Range_Miles": "310"}
	v, ok := lookupKey(doc, "range_miles")
	assert.True(t, ok)
	assert.Equal(t, "310", v)
}

func TestStringify_HandlesPrimitiveTypes(t *testing.T) {
	assert.Equal(t, "true", stringify(true))
	assert.Equal(t, "false", stringify(false))
	assert.Equal(t, "75", stringify(float64(75)))
	assert.Equal(t, "hello", stringify("hello"))
}
