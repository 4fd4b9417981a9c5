package extract

import (
	"sort"
	"strings"

	"github.com/CdubVentures/spec-harvester-sub014/pkg/model"
)

// NormalizeShape enforces the §4.4 per-candidate shape contract for a
// field of the given scope, returning the normalized candidate and, on
// rejection, a reason code (shape_mismatch_scalar_array,
// shape_mismatch_scalar_object) and ok=false.
func NormalizeShape(c model.Candidate, scope model.FieldScope, isArray, isObject bool, arrayLen int) (model.Candidate, string, bool) {
	switch scope {
	case model.ScopeScalar:
		if isObject {
			return c, "shape_mismatch_scalar_object", false
		}
		if isArray {
			if arrayLen == 1 {
				// Singleton array unwraps to its sole element; caller has
				// already placed that element's text into c.Value.Scalar.
				return c, "", true
			}
			return c, "shape_mismatch_scalar_array", false
		}
		return c, "", true
	case model.ScopeList:
		c.Value = model.Value{Scope: model.ScopeList, List: NormalizeListValue(c.Value.Scalar)}
		return c, "", true
	default:
		return c, "", true
	}
}

// NormalizeListValue parses a raw delimited string into a deduped,
// first-seen-order list, per §4.4 "list field" rules: separators
// `, ; | /`, case-insensitive dedupe, unknown-token stripping.
func NormalizeListValue(raw string) []string {
	var fields []string
	for _, part := range strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';' || r == '|'
	}) {
		// "n/a" is one unknown token, not two items split on '/'.
		if isUnkToken(strings.TrimSpace(part)) {
			continue
		}
		fields = append(fields, strings.Split(part, "/")...)
	}

	seen := make(map[string]bool, len(fields))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		trimmed := strings.TrimSpace(f)
		if trimmed == "" || isUnkToken(trimmed) {
			continue
		}
		key := strings.ToLower(trimmed)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, trimmed)
	}
	return out
}

func isUnkToken(s string) bool {
	switch strings.ToLower(s) {
	case "unk", "unknown", "n/a", "na", "-", "--":
		return true
	default:
		return false
	}
}

// SortedFieldNames is a small helper for deterministic iteration over a
// field-hint set: it returns a sorted copy and leaves the input as it is.
func SortedFieldNames(fields []string) []string {
	out := append([]string(nil), fields...)
	sort.Strings(out)
	return out
}
