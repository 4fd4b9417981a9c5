package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/CdubVentures/spec-harvester-sub014/pkg/model"
)

// SpecDBWriter is the subset of pkg/specdb's repository the ledger needs,
// kept narrow so billing does not import the full Spec DB package.
type SpecDBWriter interface {
	InsertBillingEntry(ctx context.Context, entry model.BillingEntry) error
}

// Ledger dual-writes billing entries: Spec DB primary, ndjson optional
// (spec §4.9 "the ledger is dual-written (SpecDb primary, JSON-ndjson
// optional)"). Appends are serialized by a single mutex, matching §5's
// "Billing: appends are serialized (single-writer for the ledger file and
// SpecDb insert)".
type Ledger struct {
	mu       sync.Mutex
	db       SpecDBWriter
	ndjsonPath string
}

func NewLedger(db SpecDBWriter, ndjsonPath string) *Ledger {
	return &Ledger{db: db, ndjsonPath: ndjsonPath}
}

// Append writes one billing entry to both sinks. A Spec DB failure is
// returned to the caller (storage-write failures are fatal for the round,
// per §7). An ndjson write failure is also returned, wrapped as a mirror
// error; by then the Spec DB row has already been written.
func (l *Ledger) Append(ctx context.Context, entry model.BillingEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.db.InsertBillingEntry(ctx, entry); err != nil {
		return fmt.Errorf("billing ledger: spec db insert: %w", err)
	}

	if l.ndjsonPath != "" {
		if err := l.appendNDJSON(entry); err != nil {
			return fmt.Errorf("billing ledger: ndjson mirror (non-fatal, check disk): %w", err)
		}
	}
	return nil
}

func (l *Ledger) appendNDJSON(entry model.BillingEntry) error {
	f, err := os.OpenFile(l.ndjsonPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	line, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	_, err = f.Write(append(line, '\n'))
	return err
}

// NewEntry builds a BillingEntry from normalized usage and pricing,
// stamping month/day from ts.
func NewEntry(ts time.Time, provider, model_, category, productID, runID string, round int, prompt, completion, cached int, costUSD float64, reason, host string, evidenceChars int, estimated bool) model.BillingEntry {
	return model.BillingEntry{
		TS:                 ts.Unix(),
		Month:              ts.Format("2006-01"),
		Day:                ts.Format("2006-01-02"),
		Provider:           provider,
		Model:              model_,
		Category:           category,
		ProductID:          productID,
		RunID:              runID,
		Round:              round,
		PromptTokens:       prompt,
		CompletionTokens:   completion,
		CachedPromptTokens: cached,
		CostUSD:            costUSD,
		Reason:             reason,
		Host:               host,
		EvidenceChars:      evidenceChars,
		EstimatedUsage:     estimated,
	}
}
