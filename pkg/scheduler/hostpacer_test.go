package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHostPacer_EnforcesMinimumDelayPerHost(t *testing.T) {
	p := NewHostPacer(50 * time.Millisecond)

	start := time.Now()
	p.Wait("example.com")
	firstElapsed := time.Since(start)
	p.Wait("example.com")
	secondElapsed := time.Since(start)

	assert.Less(t, firstElapsed, 50*time.Millisecond, "first wait on a fresh host should not be paced")
	assert.GreaterOrEqual(t, secondElapsed, 50*time.Millisecond, "second wait on the same host must respect the minimum delay")
}

func TestHostPacer_IndependentPerHost(t *testing.T) {
	p := NewHostPacer(50 * time.Millisecond)

	p.Wait("a.example.com")
	start := time.Now()
	p.Wait("b.example.com")
	elapsed := time.Since(start)

	assert.Less(t, elapsed, 50*time.Millisecond, "a different host must not be paced by another host's reservation")
}

func TestHostPacer_DoneTightensNextWait(t *testing.T) {
	p := NewHostPacer(50 * time.Millisecond)
	p.Wait("example.com")
	p.Done("example.com")

	start := time.Now()
	p.Wait("example.com")
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, elapsed, 40*time.Millisecond)
}
