package model

import "testing"

import "github.com/stretchr/testify/assert"

func TestFingerprint_StableAcrossRuns(t *testing.T) {
	a := Fingerprint("battery_capacity_kwh", "75 kWh", MethodNetworkJSON, "specs.battery.capacity")
	b := Fingerprint("battery_capacity_kwh", "75 kWh", MethodNetworkJSON, "specs.battery.capacity")
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}

func TestFingerprint_NormalizesWhitespaceAndCase(t *testing.T) {
	a := Fingerprint("range_miles", "  310   Miles ", MethodJSONLD, "specs.range")
	b := Fingerprint("range_miles", "310 miles", MethodJSONLD, "specs.range")
	assert.Equal(t, a, b)
}

func TestFingerprint_DiffersOnFieldMethodOrKeyPath(t *testing.T) {
	base := Fingerprint("range_miles", "310 miles", MethodJSONLD, "specs.range")

	diffField := Fingerprint("range_km", "310 miles", MethodJSONLD, "specs.range")
	diffMethod := Fingerprint("range_miles", "310 miles", MethodMicrodata, "specs.range")
	diffKeyPath := Fingerprint("range_miles", "310 miles", MethodJSONLD, "specs.other_range")

	assert.NotEqual(t, base, diffField)
	assert.NotEqual(t, base, diffMethod)
	assert.NotEqual(t, base, diffKeyPath)
}

func TestNewCandidate_UnkEquivalentsNeverFingerprinted(t *testing.T) {
	for _, v := range []string{"", "unk", "Unknown", "N/A", "na", "  "} {
		c := NewCandidate("range_miles", v, MethodJSONLD, "specs.range", "src-1", nil)
		assert.Equal(t, Unk, c.Value.Scalar)
		assert.Empty(t, c.CandidateID, "unk-equivalent %q must not get a fingerprint", v)
		assert.True(t, c.Value.IsUnknown())
	}
}

func TestNewCandidate_SetsDeterministicID(t *testing.T) {
	c1 := NewCandidate("range_miles", "310 miles", MethodJSONLD, "specs.range", "src-1", []string{"j01"})
	c2 := NewCandidate("range_miles", "310 MILES", MethodJSONLD, "specs.range", "src-2", []string{"j02"})

	assert.NotEmpty(t, c1.CandidateID)
	assert.Equal(t, c1.CandidateID, c2.CandidateID, "candidate id depends on field/value/method/key_path, not source")
}

func TestSnippetHash_DeterministicAndSensitiveToText(t *testing.T) {
	h1 := SnippetHash("battery capacity 75 kwh")
	h2 := SnippetHash("battery capacity 75 kwh")
	h3 := SnippetHash("battery capacity 76 kwh")

	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
	assert.Len(t, h1, 64)
}
