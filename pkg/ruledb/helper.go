package ruledb

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// HelperRow is one row of a local helper database: a known-good
// (brand, model, variant) field set used to synthesize a helper_files://
// source when the planner finds no better evidence (spec §4.2).
type HelperRow struct {
	Brand   string            `json:"brand"`
	Model   string            `json:"model"`
	Variant string            `json:"variant,omitempty"`
	Fields  map[string]string `json:"fields"`
}

// HelperDB is a read-mostly lookup table loaded from HELPER_FILES_ROOT.
type HelperDB struct {
	mu   sync.RWMutex
	rows []HelperRow
}

// LoadHelperDB reads every *.json file under root into a HelperDB. A
// missing root is not an error: helper injection is simply unavailable.
func LoadHelperDB(root string) (*HelperDB, error) {
	db := &HelperDB{}
	if root == "" {
		return db, nil
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return db, nil
		}
		return nil, err
	}
	var rows []HelperRow
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(root, e.Name()))
		if err != nil {
			return nil, err
		}
		var batch []HelperRow
		if err := json.Unmarshal(data, &batch); err != nil {
			var single HelperRow
			if err2 := json.Unmarshal(data, &single); err2 != nil {
				return nil, err
			}
			batch = []HelperRow{single}
		}
		rows = append(rows, batch...)
	}
	db.rows = rows
	return db, nil
}

// Match finds a row matching (brand, model, variant?). Variant is matched
// only when non-empty on both sides.
func (h *HelperDB) Match(brand, model, variant string) (HelperRow, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, row := range h.rows {
		if !strings.EqualFold(row.Brand, brand) || !strings.EqualFold(row.Model, model) {
			continue
		}
		if variant != "" && row.Variant != "" && !strings.EqualFold(row.Variant, variant) {
			continue
		}
		return row, true
	}
	return HelperRow{}, false
}
