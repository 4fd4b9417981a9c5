package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPricingTable_CostUsesListedModelPricing(t *testing.T) {
	table := NewPricingTable(map[string]PricePerMillion{
		"gpt-test": {PromptUSD: 2.0, CompletionUSD: 4.0, CachedUSD: 0.5},
	})

	cost := table.Cost("gpt-test", 1_000_000, 1_000_000, 0)

	assert.InDelta(t, 6.0, cost, 1e-9)
}

func TestPricingTable_CostFallsBackForUnlistedModel(t *testing.T) {
	table := NewPricingTable(map[string]PricePerMillion{
		"gpt-test": {PromptUSD: 2.0, CompletionUSD: 4.0, CachedUSD: 0.5},
	})

	cost := table.Cost("unknown-model", 1_000_000, 0, 0)

	assert.InDelta(t, 1.00, cost, 1e-9)
}

func TestPricingTable_CachedTokensAreDiscountedAndExcludedFromPromptCost(t *testing.T) {
	table := NewPricingTable(map[string]PricePerMillion{
		"gpt-test": {PromptUSD: 2.0, CompletionUSD: 4.0, CachedUSD: 0.5},
	})

	cost := table.Cost("gpt-test", 1_000_000, 0, 1_000_000)

	assert.InDelta(t, 0.5, cost, 1e-9)
}

func TestPricingTable_NegativeBillablePromptClampsToZero(t *testing.T) {
	table := NewPricingTable(map[string]PricePerMillion{
		"gpt-test": {PromptUSD: 2.0, CompletionUSD: 4.0, CachedUSD: 0.5},
	})

	// cachedPromptTokens exceeding promptTokens should not go negative.
	cost := table.Cost("gpt-test", 100, 0, 1_000_000)

	assert.InDelta(t, 0.5, cost, 1e-9)
}
