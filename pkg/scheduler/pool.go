// Package scheduler implements the four bounded worker pools the
// Concurrency & Resource Model calls for (spec.md §5): fetch, parse,
// search, llm. Each pool has an independent concurrency limit, can be
// paused/resumed, and Wait drains its active tasks. Pools keep no item
// queue of their own (PoolHealth.QueueDepth is never set). Adapted from
// the teacher's queue.WorkerPool/Worker lifecycle (Start/Stop/stopCh/wg),
// generalized from "one worker polls a DB queue" to "each dispatched task
// runs in its own goroutine under a semaphore".
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

// Name identifies one of the four pools in the Concurrency & Resource Model.
type Name string

const (
	PoolFetch  Name = "fetch"
	PoolParse  Name = "parse"
	PoolSearch Name = "search"
	PoolLLM    Name = "llm"
)

// WorkerHealth mirrors the teacher's per-worker health snapshot, adapted
// from session-processing counters to generic item counters.
type WorkerHealth struct {
	ID            string    `json:"id"`
	Status        string    `json:"status"` // idle | working
	ItemsHandled  int64     `json:"items_handled"`
	LastActivity  time.Time `json:"last_activity"`
}

// PoolHealth mirrors the teacher's queue.PoolHealth, reported per named
// pool instead of per alert-session worker fleet.
type PoolHealth struct {
	Name          Name           `json:"name"`
	Paused        bool           `json:"paused"`
	Capacity      int64          `json:"capacity"`
	InFlight      int64          `json:"in_flight"`
	QueueDepth    int            `json:"queue_depth"`
	BudgetRejected int64         `json:"budget_rejected"`
}

// Task is one unit of work dispatched to a pool. It returns nothing:
// per-item outcomes (skip/retry/failed) are the task's own responsibility
// to record, e.g. as a model.Outcome.
type Task func(ctx context.Context)

// Pool is a bounded-concurrency worker pool for one named stage (fetch,
// parse, search, llm). It generalizes the teacher's fixed worker-goroutine
// slice into a semaphore-gated dispatcher so capacity can differ per pool
// without spawning idle goroutines.
type Pool struct {
	name     Name
	sem      *semaphore.Weighted
	capacity int64

	mu     sync.Mutex
	paused bool

	inFlight       atomic.Int64
	budgetRejected atomic.Int64

	wg sync.WaitGroup
}

// New creates a pool with the given capacity (concurrent task limit).
func New(name Name, capacity int) *Pool {
	if capacity < 1 {
		capacity = 1
	}
	return &Pool{
		name:     name,
		sem:      semaphore.NewWeighted(int64(capacity)),
		capacity: int64(capacity),
	}
}

// Pause stops new dispatches; active tasks drain normally.
func (p *Pool) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paused = true
}

// Resume re-enables dispatch.
func (p *Pool) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paused = false
}

func (p *Pool) isPaused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}

// Dispatch blocks until a capacity slot is free (or ctx is done), then
// runs task in its own goroutine. Returns false without running task if
// the pool is paused (counted in Health's BudgetRejected) or ctx is
// already cancelled.
func (p *Pool) Dispatch(ctx context.Context, task Task) bool {
	if p.isPaused() {
		p.budgetRejected.Add(1)
		return false
	}
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return false
	}
	p.inFlight.Add(1)
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.sem.Release(1)
		defer p.inFlight.Add(-1)
		task(ctx)
	}()
	return true
}

// Wait blocks until every in-flight task dispatched so far has completed.
// Mirrors the teacher's WorkerPool.Stop draining active sessions before
// returning.
func (p *Pool) Wait() {
	p.wg.Wait()
}

// Health reports the pool's current snapshot (spec §5 "budget-rejected
// dispatches ... do not enqueue").
func (p *Pool) Health() PoolHealth {
	return PoolHealth{
		Name:           p.name,
		Paused:         p.isPaused(),
		Capacity:       p.capacity,
		InFlight:       p.inFlight.Load(),
		BudgetRejected: p.budgetRejected.Load(),
	}
}

// Pools bundles the four named pools the engine needs per run, sized from
// config.FetchConfig (fetch/parse/search) and config.LLMBudgetConfig's
// effective concurrency (llm).
type Pools struct {
	Fetch  *Pool
	Parse  *Pool
	Search *Pool
	LLM    *Pool
}

// NewPools constructs the four pools with the given capacities.
func NewPools(fetchCap, parseCap, searchCap, llmCap int) *Pools {
	return &Pools{
		Fetch:  New(PoolFetch, fetchCap),
		Parse:  New(PoolParse, parseCap),
		Search: New(PoolSearch, searchCap),
		LLM:    New(PoolLLM, llmCap),
	}
}

// WaitAll drains every pool, used at round boundaries.
func (p *Pools) WaitAll() {
	p.Fetch.Wait()
	p.Parse.Wait()
	p.Search.Wait()
	p.LLM.Wait()
}

// Health returns a snapshot of all four pools.
func (p *Pools) Health() []PoolHealth {
	return []PoolHealth{p.Fetch.Health(), p.Parse.Health(), p.Search.Health(), p.LLM.Health()}
}

func logHealth(h PoolHealth) {
	slog.Debug("pool health", "name", h.Name, "in_flight", h.InFlight, "capacity", h.Capacity, "paused", h.Paused)
}
