package extract

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/CdubVentures/spec-harvester-sub014/pkg/model"
)

// NetworkJSONExtractor mines captured XHR/GraphQL response bodies for
// target-field keys (confidence base 0.96, the highest of any method —
// spec §4.4 item 1).
type NetworkJSONExtractor struct{}

func (NetworkJSONExtractor) Method() model.ExtractionMethod { return model.MethodNetworkJSON }

func (e NetworkJSONExtractor) Extract(_ context.Context, page Page) []model.Candidate {
	var out []model.Candidate
	for i, raw := range page.Data.NetworkJSON {
		var doc map[string]any
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			continue
		}
		for _, field := range page.Fields {
			if v, ok := lookupKey(doc, field); ok {
				keyPath := fmt.Sprintf("network_json[%d].%s", i, field)
				out = append(out, model.NewCandidate(field, v, model.MethodNetworkJSON, keyPath, page.Source.SourceID, nil))
			}
		}
	}
	return out
}

// EmbeddedStateExtractor mines framework hydration payloads (e.g.
// __NEXT_DATA__, window.__INITIAL_STATE__) the fetcher already parsed out
// of the HTML (confidence base 0.93, spec §4.4 item 2).
type EmbeddedStateExtractor struct{}

func (EmbeddedStateExtractor) Method() model.ExtractionMethod { return model.MethodEmbeddedState }

func (e EmbeddedStateExtractor) Extract(_ context.Context, page Page) []model.Candidate {
	var out []model.Candidate
	for i, raw := range page.Data.EmbeddedState {
		var doc map[string]any
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			continue
		}
		for _, field := range page.Fields {
			if v, ok := lookupKey(doc, field); ok {
				keyPath := fmt.Sprintf("embedded_state[%d].%s", i, field)
				out = append(out, model.NewCandidate(field, v, model.MethodEmbeddedState, keyPath, page.Source.SourceID, nil))
			}
		}
	}
	return out
}

// lookupKey does a shallow then one-level-nested case-insensitive key
// match, stringifying whatever value it finds.
func lookupKey(doc map[string]any, field string) (string, bool) {
	for k, v := range doc {
		if equalFold(k, field) {
			return stringify(v), true
		}
	}
	for _, v := range doc {
		if nested, ok := v.(map[string]any); ok {
			if s, ok := lookupKey(nested, field); ok {
				return s, true
			}
		}
	}
	return "", false
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return trimFloat(t)
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		b, _ := json.Marshal(v)
		return string(b)
	}
}

func trimFloat(f float64) string {
	s := fmt.Sprintf("%g", f)
	return s
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}
