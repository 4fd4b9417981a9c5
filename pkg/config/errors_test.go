package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationError_FormatsWithAndWithoutField(t *testing.T) {
	withField := NewValidationError("round", "global", "max_rounds", ErrInvalidValue)
	assert.Contains(t, withField.Error(), "round 'global': field 'max_rounds'")
	assert.ErrorIs(t, withField, ErrInvalidValue)

	withoutField := NewValidationError("category", "cars", "", ErrMissingRequiredField)
	assert.Contains(t, withoutField.Error(), "category 'cars':")
	assert.NotContains(t, withoutField.Error(), "field '")
}

func TestMultiValidationError_AggregatesEveryFailure(t *testing.T) {
	multi := &MultiValidationError{Errors: []*ValidationError{
		NewValidationError("round", "global", "max_rounds", ErrInvalidValue),
		NewValidationError("fetch", "global", "fetch_concurrency", ErrInvalidValue),
	}}

	msg := multi.Error()
	assert.Contains(t, msg, "2 validation error(s)")
	assert.Contains(t, msg, "max_rounds")
	assert.Contains(t, msg, "fetch_concurrency")
}

func TestMultiValidationError_EmptyReportsNoErrors(t *testing.T) {
	assert.Equal(t, "no validation errors", (&MultiValidationError{}).Error())
}

func TestLoadError_WrapsUnderlyingError(t *testing.T) {
	inner := errors.New("file not readable")
	err := NewLoadError("/tmp/specfactory.yaml", inner)

	assert.Contains(t, err.Error(), "/tmp/specfactory.yaml")
	assert.ErrorIs(t, err, inner)
}
