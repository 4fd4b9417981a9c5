// Package storage implements the Storage collaborator: an embedded blob
// key-value store over the run's input/output artifact tree (spec.md
// §6.2). Grounded on the retrieved pack's luxfi-consensus go.mod, which
// pulls in cockroachdb/pebble as its embedded storage engine; no
// equivalent blob-KV usage exists elsewhere in the pack, so the key
// layout and API here are written fresh against pebble's own Get/Set/
// NewIter contract rather than adapted from a teacher file.
package storage

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/cockroachdb/pebble"
)

// Store wraps a pebble database rooted at one path, exposing the
// prefix-keyed artifact layout spec §6.2 describes.
type Store struct {
	db           *pebble.DB
	inputPrefix  string
	outputPrefix string
}

// Open opens (creating if absent) the pebble database at path.
func Open(path, inputPrefix, outputPrefix string) (*Store, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", path, err)
	}
	return &Store{db: db, inputPrefix: inputPrefix, outputPrefix: outputPrefix}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// ProductInputKey is §6.2's input path: {input_prefix}/{category}/products/{product_id}.json
func (s *Store) ProductInputKey(category, productID string) string {
	return fmt.Sprintf("%s/%s/products/%s.json", s.inputPrefix, category, productID)
}

// RunArtifactKey is §6.2's per-run artifact path:
// {output_prefix}/{category}/{product_id}/runs/{run_id}/{stage}/{name}
func (s *Store) RunArtifactKey(category, productID, runID, stage, name string) string {
	return fmt.Sprintf("%s/%s/%s/runs/%s/%s/%s", s.outputPrefix, category, productID, runID, stage, name)
}

// LatestKey is §6.2's latest-pointer path: .../{category}/{product_id}/latest/{name}
func (s *Store) LatestKey(category, productID, name string) string {
	return fmt.Sprintf("%s/%s/%s/latest/%s", s.outputPrefix, category, productID, name)
}

// BillingLedgerKey is §6.2's monthly ledger path: _billing/ledger/{YYYY-MM}.jsonl
func BillingLedgerKey(yyyymm string) string { return fmt.Sprintf("_billing/ledger/%s.jsonl", yyyymm) }

// BillingRollupKey is §6.2's monthly rollup path: _billing/monthly/{YYYY-MM}.json
func BillingRollupKey(yyyymm string) string { return fmt.Sprintf("_billing/monthly/%s.json", yyyymm) }

// BillingDigestKey is §6.2's monthly digest path: _billing/monthly/{YYYY-MM}.txt
func BillingDigestKey(yyyymm string) string { return fmt.Sprintf("_billing/monthly/%s.txt", yyyymm) }

// BillingLatestKey is §6.2's cross-month pointer: _billing/latest.txt
const BillingLatestKey = "_billing/latest.txt"

// EvidencePackKey places one source's evidence pack alongside its
// extracted candidates, per §6.2 "Evidence pack per source: written
// alongside extracted candidates."
func (s *Store) EvidencePackKey(category, productID, runID, sourceID string) string {
	return s.RunArtifactKey(category, productID, runID, "extracted", fmt.Sprintf("evidence_%s.json", sourceID))
}

// Get reads one raw value.
func (s *Store) Get(key string) ([]byte, error) {
	v, closer, err := s.db.Get([]byte(key))
	if err != nil {
		return nil, err
	}
	defer closer.Close()
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

// Set writes one raw value, synced so an artifact write failure surfaces
// before the round is reported complete (§7 "Storage/DB write failure").
func (s *Store) Set(key string, value []byte) error {
	return s.db.Set([]byte(key), value, pebble.Sync)
}

// PutJSON marshals v and writes it under key.
func (s *Store) PutJSON(key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("storage: marshal %s: %w", key, err)
	}
	return s.Set(key, b)
}

// GetJSON reads key and unmarshals into v.
func (s *Store) GetJSON(key string, v any) error {
	b, err := s.Get(key)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

// AppendLine appends one ndjson line to a key, for jsonl keys such as
// BillingLedgerKey (§6.2); only tests call it in this tree (pkg/billing
// writes its ndjson mirror to a plain file). Pebble has no native append,
// so the existing value (if any) is read, extended, and rewritten.
func (s *Store) AppendLine(key string, line []byte) error {
	existing, err := s.Get(key)
	if err != nil && err != pebble.ErrNotFound {
		return err
	}
	var buf bytes.Buffer
	buf.Write(existing)
	buf.Write(line)
	buf.WriteByte('\n')
	return s.Set(key, buf.Bytes())
}

// ListPrefix returns all keys under prefix. Only tests call it in this
// tree; neither billing-report nor the round controller uses it.
func (s *Store) ListPrefix(prefix string) ([]string, error) {
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(prefix),
		UpperBound: keyUpperBound([]byte(prefix)),
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var keys []string
	for iter.First(); iter.Valid(); iter.Next() {
		k := make([]byte, len(iter.Key()))
		copy(k, iter.Key())
		keys = append(keys, string(k))
	}
	return keys, iter.Error()
}

func keyUpperBound(prefix []byte) []byte {
	end := make([]byte, len(prefix))
	copy(end, prefix)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil // prefix is all 0xff, unbounded
}
