package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_NoUserYAMLFallsBackToBuiltinDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(context.Background(), dir)

	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Round.MaxRounds)
}

func TestLoad_UserYAMLOverridesRoundBudget(t *testing.T) {
	dir := t.TempDir()
	yaml := "round:\n  max_rounds: 8\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "specfactory.yaml"), []byte(yaml), 0o644))

	cfg, err := Load(context.Background(), dir)

	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Round.MaxRounds)
}

func TestLoad_ExpandsEnvironmentVariablesInYAML(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("SPECFACTORY_TEST_DB_HOST", "db.internal")
	yaml := "spec_db:\n  host: ${SPECFACTORY_TEST_DB_HOST}\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "specfactory.yaml"), []byte(yaml), 0o644))

	cfg, err := Load(context.Background(), dir)

	require.NoError(t, err)
	assert.Equal(t, "db.internal", cfg.SpecDB.Host)
}

func TestLoad_LoadsPerCategoryYAMLFiles(t *testing.T) {
	dir := t.TempDir()
	categoryDir := filepath.Join(dir, "categories")
	require.NoError(t, os.MkdirAll(categoryDir, 0o755))
	yaml := "approved_hosts:\n  - acme.example.com\n"
	require.NoError(t, os.WriteFile(filepath.Join(categoryDir, "cars.yaml"), []byte(yaml), 0o644))

	cfg, err := Load(context.Background(), dir)

	require.NoError(t, err)
	require.Contains(t, cfg.Categories, "cars")
	assert.Equal(t, []string{"acme.example.com"}, cfg.Categories["cars"].ApprovedHosts)
}

func TestLoad_InvalidConfigReturnsValidationError(t *testing.T) {
	dir := t.TempDir()
	yaml := "fetch:\n  per_host_min_delay_ms: -1\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "specfactory.yaml"), []byte(yaml), 0o644))

	_, err := Load(context.Background(), dir)

	require.Error(t, err)
	_, ok := err.(*MultiValidationError)
	assert.True(t, ok)
}

func TestLoad_MalformedYAMLReturnsLoadError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "specfactory.yaml"), []byte("round: [this is not valid"), 0o644))

	_, err := Load(context.Background(), dir)

	require.Error(t, err)
	_, ok := err.(*LoadError)
	assert.True(t, ok)
}
