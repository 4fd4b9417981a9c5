package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeOverride_UserNonZeroFieldsWinOverBuiltin(t *testing.T) {
	dst := BuiltinDefaults()
	src := &SpecFactoryConfig{Round: RoundConfig{MaxRounds: 8}}

	require.NoError(t, mergeOverride(dst, src))

	assert.Equal(t, 8, dst.Round.MaxRounds)
	assert.Equal(t, 4, dst.Fetch.Concurrency, "untouched fields keep their built-in value")
}

func TestMergeCategories_UserCategoryOverridesBuiltinOfSameName(t *testing.T) {
	builtin := map[string]CategoryConfig{
		"cars":  {Name: "cars", ApprovedHosts: []string{"builtin.example.com"}},
		"bikes": {Name: "bikes", ApprovedHosts: []string{"bikes.example.com"}},
	}
	user := map[string]CategoryConfig{
		"cars": {Name: "cars", ApprovedHosts: []string{"user.example.com"}},
	}

	merged := mergeCategories(builtin, user)

	require.Contains(t, merged, "cars")
	require.Contains(t, merged, "bikes")
	assert.Equal(t, []string{"user.example.com"}, merged["cars"].ApprovedHosts)
	assert.Equal(t, []string{"bikes.example.com"}, merged["bikes"].ApprovedHosts)
}
