package llmclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, status int, body any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPClient_GenerateParsesCandidatesAndUsage(t *testing.T) {
	innerContent, err := json.Marshal(map[string]any{
		"candidates": []map[string]any{
			{"field": "range_miles", "value": "310", "evidence_refs": []string{"c01"}},
		},
	})
	require.NoError(t, err)

	srv := newTestServer(t, http.StatusOK, map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"role": "assistant", "content": string(innerContent)}},
		},
		"usage": map[string]int{"prompt_tokens": 100, "completion_tokens": 20, "cached_tokens": 10},
	})

	client := NewHTTPClient(srv.URL, "test-key", 5*time.Second)
	out, err := client.Generate(context.Background(), GenerateInput{Role: RoleExtract, Model: "gpt-test"})

	require.NoError(t, err)
	require.Len(t, out.Candidates, 1)
	assert.Equal(t, "range_miles", out.Candidates[0].Field)
	assert.Equal(t, 100, out.PromptTokens)
	assert.Equal(t, 20, out.CompletionTokens)
	assert.Equal(t, 10, out.CachedPromptTokens)
}

func TestHTTPClient_GenerateFailsOnNonOKStatus(t *testing.T) {
	srv := newTestServer(t, http.StatusInternalServerError, map[string]string{"error": "boom"})

	client := NewHTTPClient(srv.URL, "", time.Second)
	_, err := client.Generate(context.Background(), GenerateInput{})

	assert.ErrorContains(t, err, "HTTP 500")
}

func TestHTTPClient_GenerateFailsOnEmptyChoices(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, map[string]any{"choices": []map[string]any{}})

	client := NewHTTPClient(srv.URL, "", time.Second)
	_, err := client.Generate(context.Background(), GenerateInput{})

	assert.ErrorContains(t, err, "no choices")
}

func TestHTTPClient_GenerateFailsOnNonJSONContent(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"role": "assistant", "content": "not json"}},
		},
	})

	client := NewHTTPClient(srv.URL, "", time.Second)
	_, err := client.Generate(context.Background(), GenerateInput{})

	assert.ErrorContains(t, err, "not valid JSON")
}

func TestSystemPromptFor_VariesByRole(t *testing.T) {
	assert.Contains(t, systemPromptFor(RolePlan), "planning")
	assert.Contains(t, systemPromptFor(RoleValidate), "verifying")
	assert.Contains(t, systemPromptFor(RoleExtract), "extracting")
}
