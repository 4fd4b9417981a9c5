package quality

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/CdubVentures/spec-harvester-sub014/pkg/model"
)

func TestEvaluate_AllRequiredFieldsMetIsValidated(t *testing.T) {
	reqs := []FieldRequirement{
		{Field: "range_miles", RequiredLevel: "required", Critical: true},
		{Field: "battery_capacity_kwh", RequiredLevel: "required"},
		{Field: "color", RequiredLevel: "expected"},
	}
	provenance := map[string]model.Provenance{
		"range_miles":          {Value: "310 miles", MeetsPassTarget: true, Confidence: 0.95},
		"battery_capacity_kwh": {Value: "75 kWh", MeetsPassTarget: true, Confidence: 0.9},
		"color":                {Value: "unk"},
	}

	result := Evaluate(reqs, provenance, 1.0, 0.8, 0.99, false)

	assert.Equal(t, 1.0, result.CompletenessRequired)
	assert.True(t, result.Validated)
	assert.Contains(t, result.ValidatedReason, "ok")
	assert.Empty(t, result.CriticalFieldsBelowPassTarget)
}

func TestEvaluate_CriticalFieldBelowPassTargetFailsValidation(t *testing.T) {
	reqs := []FieldRequirement{
		{Field: "range_miles", RequiredLevel: "required", Critical: true},
	}
	provenance := map[string]model.Provenance{
		"range_miles": {Value: model.Unk},
	}

	result := Evaluate(reqs, provenance, 0.5, 0.5, 0.99, false)

	assert.False(t, result.Validated)
	assert.Contains(t, result.ValidatedReason, "critical_field_below_pass_target")
	assert.Contains(t, result.CriticalFieldsBelowPassTarget, "range_miles")
}

func TestEvaluate_BelowCompletenessTargetFails(t *testing.T) {
	reqs := []FieldRequirement{
		{Field: "a", RequiredLevel: "required"},
		{Field: "b", RequiredLevel: "required"},
	}
	provenance := map[string]model.Provenance{
		"a": {Value: "x", MeetsPassTarget: true, Confidence: 0.9},
		"b": {Value: model.Unk},
	}

	result := Evaluate(reqs, provenance, 1.0, 0.5, 0.99, false)

	assert.Equal(t, 0.5, result.CompletenessRequired)
	assert.False(t, result.Validated)
	assert.Contains(t, result.ValidatedReason, "completeness_below_target")
}

func TestEvaluate_BelowConfidenceTargetFails(t *testing.T) {
	reqs := []FieldRequirement{
		{Field: "a", RequiredLevel: "required"},
	}
	provenance := map[string]model.Provenance{
		"a": {Value: "x", MeetsPassTarget: true, Confidence: 0.2},
	}

	result := Evaluate(reqs, provenance, 1.0, 0.8, 0.99, false)

	assert.False(t, result.Validated)
	assert.Contains(t, result.ValidatedReason, "confidence_below_target")
}

func TestEvaluate_NoRequiredFieldsDefaultsCompletenessToOne(t *testing.T) {
	reqs := []FieldRequirement{
		{Field: "color", RequiredLevel: "expected"},
	}
	provenance := map[string]model.Provenance{
		"color": {Value: "unk"},
	}

	result := Evaluate(reqs, provenance, 1.0, 0.0, 0.99, false)

	assert.Equal(t, 1.0, result.CompletenessRequired)
	assert.Equal(t, 0.0, result.CoverageOverall)
}

func TestEvaluate_ProvisionalIdentityConfidenceFailsValidationEvenWhenFieldsMeetTargets(t *testing.T) {
	reqs := []FieldRequirement{
		{Field: "range_miles", RequiredLevel: "required", Critical: true},
	}
	provenance := map[string]model.Provenance{
		"range_miles": {Value: "310 miles", MeetsPassTarget: true, Confidence: 0.95},
	}

	result := Evaluate(reqs, provenance, 1.0, 0.8, 0.80, false)

	assert.False(t, result.Validated, "identity_confidence below 0.99 must force validated=false per the §8 invariant")
	assert.Contains(t, result.ValidatedReason, "identity_confidence_below_target")
}

func TestEvaluate_AnchorConflictFailsValidationEvenAtFullIdentityConfidence(t *testing.T) {
	reqs := []FieldRequirement{
		{Field: "range_miles", RequiredLevel: "required", Critical: true},
	}
	provenance := map[string]model.Provenance{
		"range_miles": {Value: "310 miles", MeetsPassTarget: true, Confidence: 0.95},
	}

	result := Evaluate(reqs, provenance, 1.0, 0.8, 0.99, true)

	assert.False(t, result.Validated)
	assert.Contains(t, result.ValidatedReason, "anchor_conflict")
}

func TestEvaluate_FullIdentityConfidenceNoConflictsIsValidated(t *testing.T) {
	reqs := []FieldRequirement{
		{Field: "range_miles", RequiredLevel: "required", Critical: true},
	}
	provenance := map[string]model.Provenance{
		"range_miles": {Value: "310 miles", MeetsPassTarget: true, Confidence: 0.95},
	}

	result := Evaluate(reqs, provenance, 1.0, 0.8, 0.99, false)

	assert.True(t, result.Validated)
}
