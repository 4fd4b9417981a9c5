package scheduler

import (
	"sync"
	"time"
)

// HostPacer enforces a per-host minimum delay between fetches, independent
// of pool slot availability (spec §4.3, §5 "fetches are serialized by the
// host pacer; two fetches to the same host never overlap and are
// separated by at least the per-host minimum delay").
type HostPacer struct {
	mu       sync.Mutex
	lastDone map[string]time.Time
	minDelay time.Duration
}

func NewHostPacer(minDelay time.Duration) *HostPacer {
	return &HostPacer{lastDone: make(map[string]time.Time), minDelay: minDelay}
}

// Wait blocks the caller until it is that host's turn, then reserves the
// slot. The caller must call Wait before performing the fetch and must not
// call Wait again for the same host concurrently without first completing
// the fetch (callers serialize per host by construction: the scheduler
// routes at most one in-flight fetch per host through the pacer at a time).
func (p *HostPacer) Wait(host string) {
	p.mu.Lock()
	last, ok := p.lastDone[host]
	wait := time.Duration(0)
	if ok {
		elapsed := time.Since(last)
		if elapsed < p.minDelay {
			wait = p.minDelay - elapsed
		}
	}
	// Reserve the slot immediately so a second concurrent caller for the
	// same host computes its wait relative to this reservation.
	p.lastDone[host] = time.Now().Add(wait)
	p.mu.Unlock()

	if wait > 0 {
		time.Sleep(wait)
	}
}

// Done records the actual completion time for a host, tightening the next
// pacing calculation to real elapsed time rather than the reservation.
func (p *HostPacer) Done(host string) {
	p.mu.Lock()
	p.lastDone[host] = time.Now()
	p.mu.Unlock()
}
