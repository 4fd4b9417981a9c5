package ruledb

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeHelperFile(t *testing.T, dir, name string, rows any) {
	t.Helper()
	b, err := json.Marshal(rows)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), b, 0o644))
}

func TestLoadHelperDB_EmptyRootIsNotAnError(t *testing.T) {
	db, err := LoadHelperDB("")

	require.NoError(t, err)
	_, ok := db.Match("Acme", "Falcon X", "")
	assert.False(t, ok)
}

func TestLoadHelperDB_MissingDirIsNotAnError(t *testing.T) {
	db, err := LoadHelperDB(filepath.Join(t.TempDir(), "does-not-exist"))

	require.NoError(t, err)
	_, ok := db.Match("Acme", "Falcon X", "")
	assert.False(t, ok)
}

func TestLoadHelperDB_LoadsBatchedArrayFile(t *testing.T) {
	dir := t.TempDir()
	writeHelperFile(t, dir, "cars.json", []HelperRow{
		{Brand: "Acme", Model: "Falcon X", Fields: map[string]string{"range_miles": "310 miles"}},
	})

	db, err := LoadHelperDB(dir)

	require.NoError(t, err)
	row, ok := db.Match("acme", "falcon x", "")
	require.True(t, ok)
	assert.Equal(t, "310 miles", row.Fields["range_miles"])
}

func TestLoadHelperDB_LoadsSingleObjectFile(t *testing.T) {
	dir := t.TempDir()
	writeHelperFile(t, dir, "single.json", HelperRow{Brand: "Acme", Model: "Falcon X"})

	db, err := LoadHelperDB(dir)

	require.NoError(t, err)
	_, ok := db.Match("Acme", "Falcon X", "")
	assert.True(t, ok)
}

func TestLoadHelperDB_SkipsNonJSONFiles(t *testing.T) {
	dir := t.TempDir()
	writeHelperFile(t, dir, "cars.json", []HelperRow{{Brand: "Acme", Model: "Falcon X"}})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("not json"), 0o644))

	_, err := LoadHelperDB(dir)

	require.NoError(t, err)
}

func TestHelperDB_MatchIsCaseInsensitiveAndVariantOptional(t *testing.T) {
	db := &HelperDB{rows: []HelperRow{
		{Brand: "Acme", Model: "Falcon X", Variant: "Sport"},
	}}

	_, ok := db.Match("ACME", "falcon x", "")
	assert.True(t, ok, "empty query variant matches any row variant")

	_, ok = db.Match("Acme", "Falcon X", "Touring")
	assert.False(t, ok, "conflicting variant must not match")

	_, ok = db.Match("Acme", "Falcon X", "Sport")
	assert.True(t, ok)
}

func TestHelperDB_MatchReturnsFalseWhenBrandOrModelDiffers(t *testing.T) {
	db := &HelperDB{rows: []HelperRow{{Brand: "Acme", Model: "Falcon X"}}}

	_, ok := db.Match("Zenith", "Falcon X", "")
	assert.False(t, ok)

	_, ok = db.Match("Acme", "Comet", "")
	assert.False(t, ok)
}
