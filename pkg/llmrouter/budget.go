// Package llmrouter implements the LLM Router & Budget Guard (spec.md
// §4.9): route matrix resolution (delegated to pkg/ruledb) plus the
// budget checks, cost accounting hooks, and essential-call carve-out.
// Grounded on the retrieved pack's mshogin-adk-llm-proxy LLMOrchestrator
// (budgetConstraints / sessionBudgetUsed / throttler shape).
package llmrouter

import (
	"sync"
	"sync/atomic"
)

// CallReason classifies why an LLM call is being made, used to decide
// essential-only eligibility when the monthly budget is blown.
type CallReason string

const (
	ReasonIdentityResolution  CallReason = "identity_resolution"
	ReasonCriticalFieldExtract CallReason = "critical_field_extraction"
	ReasonStandardExtract     CallReason = "standard_extraction"
	ReasonVerificationSample  CallReason = "verification_sample"
)

func (r CallReason) Essential() bool {
	return r == ReasonIdentityResolution || r == ReasonCriticalFieldExtract
}

// GuardDecision is the budget guard's verdict for one prospective call.
type GuardDecision struct {
	Allowed bool
	Reason  string // set when Allowed=false: llm_budget_guard_blocked cause
}

// BudgetGuard tracks in-memory atomic counters for per-round and
// per-product/monthly spend, per spec §5 "the cost ledger ... reads for
// budget_guard use an in-memory counter updated atomically."
type BudgetGuard struct {
	mu sync.Mutex

	monthlyBudgetUSD    float64
	perProductBudgetUSD float64
	maxCallsPerProduct  int
	maxCallsPerRound    int
	disabled            bool

	monthlyCostCents    atomic.Int64 // cents, to keep the counter integral
	productCostCents    atomic.Int64
	productCallsTotal   atomic.Int64
	roundCallsTotal     atomic.Int64
}

func NewBudgetGuard(monthlyBudgetUSD, perProductBudgetUSD float64, maxCallsPerProduct, maxCallsPerRound int, disabled bool) *BudgetGuard {
	return &BudgetGuard{
		monthlyBudgetUSD:    monthlyBudgetUSD,
		perProductBudgetUSD: perProductBudgetUSD,
		maxCallsPerProduct:  maxCallsPerProduct,
		maxCallsPerRound:    maxCallsPerRound,
		disabled:            disabled,
	}
}

// ResetRound zeroes the per-round call counter at a round boundary.
func (g *BudgetGuard) ResetRound() {
	g.roundCallsTotal.Store(0)
}

// Check evaluates whether a call for reason may proceed, per §4.9's
// ordered checks: max_calls_per_round, max_calls_per_product,
// product_cost < product_budget, monthly_cost < monthly_budget,
// then the essential-only carve-out when monthly budget is exceeded.
func (g *BudgetGuard) Check(reason CallReason) GuardDecision {
	if g.disabled {
		return GuardDecision{Allowed: true}
	}

	if int(g.roundCallsTotal.Load()) >= g.maxCallsPerRound {
		return GuardDecision{Reason: "max_calls_per_round"}
	}
	if int(g.productCallsTotal.Load()) >= g.maxCallsPerProduct {
		return GuardDecision{Reason: "max_calls_per_product"}
	}
	if centsToUSD(g.productCostCents.Load()) >= g.perProductBudgetUSD {
		return GuardDecision{Reason: "product_budget_exhausted"}
	}
	monthlyExceeded := centsToUSD(g.monthlyCostCents.Load()) >= g.monthlyBudgetUSD
	if monthlyExceeded && !reason.Essential() {
		return GuardDecision{Reason: "monthly_budget_exhausted_non_essential"}
	}
	return GuardDecision{Allowed: true}
}

// RecordCall updates the atomic counters after a call completes.
func (g *BudgetGuard) RecordCall(costUSD float64) {
	g.roundCallsTotal.Add(1)
	g.productCallsTotal.Add(1)
	cents := int64(costUSD * 100)
	g.monthlyCostCents.Add(cents)
	g.productCostCents.Add(cents)
}

func centsToUSD(cents int64) float64 { return float64(cents) / 100 }
