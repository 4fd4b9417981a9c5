package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPClient is a concrete Client backed by a JSON-over-HTTP provider
// endpoint (OpenAI-compatible chat-completions shape), grounded on the
// retrieved pack's mshogin-adk-llm-proxy orchestrator, which is itself
// JSON/HTTP oriented rather than gRPC-coupled.
type HTTPClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

func NewHTTPClient(baseURL, apiKey string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		apiKey:     apiKey,
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	ResponseFmt struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		CachedTokens     int `json:"cached_tokens"`
	} `json:"usage"`
}

func (c *HTTPClient) Generate(ctx context.Context, in GenerateInput) (GenerateOutput, error) {
	reqBody := chatRequest{
		Model:     in.Model,
		MaxTokens: in.MaxTokens,
		Messages: []chatMessage{
			{Role: "system", Content: systemPromptFor(in.Role)},
			{Role: "user", Content: encodeUserPayload(in)},
		},
	}
	reqBody.ResponseFmt.Type = "json_object"

	body, err := json.Marshal(reqBody)
	if err != nil {
		return GenerateOutput{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return GenerateOutput{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return GenerateOutput{}, fmt.Errorf("llm call: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return GenerateOutput{}, fmt.Errorf("read llm response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return GenerateOutput{}, fmt.Errorf("llm provider returned HTTP %d: %s", resp.StatusCode, string(raw))
	}

	var cr chatResponse
	if err := json.Unmarshal(raw, &cr); err != nil {
		return GenerateOutput{}, fmt.Errorf("decode llm envelope: %w", err)
	}
	if len(cr.Choices) == 0 {
		return GenerateOutput{}, fmt.Errorf("llm response had no choices")
	}

	var parsed struct {
		Candidates []ExtractedCandidate `json:"candidates"`
	}
	if err := json.Unmarshal([]byte(cr.Choices[0].Message.Content), &parsed); err != nil {
		return GenerateOutput{}, fmt.Errorf("llm output not valid JSON: %w", err)
	}

	return GenerateOutput{
		Candidates:         parsed.Candidates,
		PromptTokens:       cr.Usage.PromptTokens,
		CompletionTokens:   cr.Usage.CompletionTokens,
		CachedPromptTokens: cr.Usage.CachedTokens,
	}, nil
}

func systemPromptFor(role Role) string {
	base := "Respond with JSON only: {\"candidates\":[{\"field\":...,\"value\":...,\"evidence_refs\":[...]}]}. " +
		"Only use values supported by the provided evidence snippets; cite the snippet IDs you used."
	switch role {
	case RolePlan:
		return "You are planning which fields still need evidence. " + base
	case RoleValidate:
		return "You are verifying a prior extraction against the evidence. " + base
	default:
		return "You are extracting product spec fields from evidence. " + base
	}
}

func encodeUserPayload(in GenerateInput) string {
	payload := map[string]any{
		"category":         in.Category,
		"identity":         in.IdentityContext,
		"target_fields":    in.TargetFields,
		"field_contracts":  in.FieldContracts,
		"anchors":          in.Anchors,
		"evidence":         in.Evidence,
		"prime_sources":    in.PrimeSources,
		"enable_websearch": in.EnableWebsearch,
	}
	b, _ := json.Marshal(payload)
	return string(b)
}
