// Package billing implements cost accounting and the dual-written billing
// ledger (spec.md §3.8, §4.9): usage normalization, per-model pricing,
// and append to both the Spec DB and an optional ndjson file.
package billing

// PricePerMillion is a per-model pricing row, USD per million tokens.
type PricePerMillion struct {
	PromptUSD     float64
	CompletionUSD float64
	CachedUSD     float64
}

// PricingTable maps model name to its pricing row, with a fallback
// default for unlisted models.
type PricingTable struct {
	prices  map[string]PricePerMillion
	fallback PricePerMillion
}

func NewPricingTable(prices map[string]PricePerMillion) *PricingTable {
	return &PricingTable{
		prices: prices,
		fallback: PricePerMillion{PromptUSD: 1.00, CompletionUSD: 3.00, CachedUSD: 0.25},
	}
}

// Cost computes the USD cost of one call from normalized usage.
func (t *PricingTable) Cost(model string, promptTokens, completionTokens, cachedPromptTokens int) float64 {
	price, ok := t.prices[model]
	if !ok {
		price = t.fallback
	}
	billablePrompt := promptTokens - cachedPromptTokens
	if billablePrompt < 0 {
		billablePrompt = 0
	}
	cost := float64(billablePrompt)/1_000_000*price.PromptUSD +
		float64(cachedPromptTokens)/1_000_000*price.CachedUSD +
		float64(completionTokens)/1_000_000*price.CompletionUSD
	return cost
}
