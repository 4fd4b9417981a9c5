package model

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// normalizeValue lowercases and collapses whitespace, the canonical
// normalization used for both candidate clustering and fingerprinting.
func normalizeValue(s string) string {
	fields := strings.Fields(strings.ToLower(s))
	return strings.Join(fields, " ")
}

// Fingerprint computes the deterministic candidate_id: sha(field|normalized
// value|method|key_path), per §3.3 and the property test in §8.
func Fingerprint(field, value string, method ExtractionMethod, keyPath string) string {
	h := sha256.New()
	h.Write([]byte(field))
	h.Write([]byte{'|'})
	h.Write([]byte(normalizeValue(value)))
	h.Write([]byte{'|'})
	h.Write([]byte(method))
	h.Write([]byte{'|'})
	h.Write([]byte(keyPath))
	return hex.EncodeToString(h.Sum(nil))
}

// NewCandidate builds a Candidate with its CandidateID fingerprint set.
// value="" or any unk-equivalent is normalized to Unk and never assigned a
// fingerprint derived from a non-unk value.
func NewCandidate(field, value string, method ExtractionMethod, keyPath, sourceID string, refs []string) Candidate {
	v := normalizeUnkEquivalents(value)
	c := Candidate{
		Field:          field,
		Method:         method,
		KeyPath:        keyPath,
		ConfidenceBase: method.ConfidenceBase(),
		SourceID:       sourceID,
		EvidenceRefs:   refs,
	}
	if v == Unk {
		c.Value = Value{Scope: ScopeScalar, Scalar: Unk}
		return c
	}
	c.Value = Value{Scope: ScopeScalar, Scalar: v}
	c.CandidateID = Fingerprint(field, v, method, keyPath)
	return c
}

func normalizeUnkEquivalents(v string) string {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "unk", "unknown", "n/a", "na":
		return Unk
	default:
		return v
	}
}

// SnippetHash computes sha256(normalized_text) for an evidence snippet (§4.5).
func SnippetHash(normalizedText string) string {
	sum := sha256.Sum256([]byte(normalizedText))
	return hex.EncodeToString(sum[:])
}
