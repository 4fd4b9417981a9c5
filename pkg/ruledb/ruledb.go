// Package ruledb implements the Rule Store collaborator: field contracts
// (with their enum options), the LLM route matrix, and the helper
// database, keyed by category (spec.md §1, §4.9). It holds no component
// database.
package ruledb

import (
	"fmt"
	"sync"

	"github.com/CdubVentures/spec-harvester-sub014/pkg/model"
)

// FieldContract describes a single field's shape, enum options, pass
// target, conflict policy, and plausibility range.
type FieldContract struct {
	Field            string
	Scope            model.FieldScope
	RequiredLevel    string // required | expected | instrumented_only
	ClosedEnum       bool
	EnumValues       []string
	ConflictPolicy   string // resolve_by_tier_else_unknown | preserve_all_candidates | majority_vote
	PassTarget       int
	PlausibilityMin  float64
	PlausibilityMax  float64
	HasPlausibility  bool
	AvailabilityClass model.AvailabilityClass
}

// RouteMatrixRow is one row of the per-category LLM route matrix, keyed
// by (scope, required_level, difficulty, availability, effort).
type RouteMatrixRow struct {
	Scope             model.FieldScope
	RequiredLevel     string
	Difficulty        string
	Availability      model.AvailabilityClass
	Effort            int
	Decision          model.RouteDecision
}

// CategoryConfig is the slice of the Rule Store's category registry the
// Source Planner needs: the approved/denied host lists (spec §4.2). The
// full category record (search templates, field-level knobs) lives in
// pkg/config.CategoryConfig; callers building a Planner project that down
// to this shape.
type CategoryConfig struct {
	Name          string
	ApprovedHosts []string
	DeniedHosts   []string
}

// Store is the in-memory Rule Store for one category, safe for concurrent
// reads with single-writer refresh (spec §9 "Global mutable state").
type Store struct {
	mu            sync.RWMutex
	category      string
	fieldContracts map[string]FieldContract
	routeMatrix   []RouteMatrixRow
}

func NewStore(category string) *Store {
	return &Store{category: category, fieldContracts: map[string]FieldContract{}}
}

// LoadFieldContracts replaces the field-contract table wholesale (refresh).
func (s *Store) LoadFieldContracts(contracts []FieldContract) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := make(map[string]FieldContract, len(contracts))
	for _, c := range contracts {
		m[c.Field] = c
	}
	s.fieldContracts = m
}

// LoadRouteMatrix replaces the route matrix wholesale.
func (s *Store) LoadRouteMatrix(rows []RouteMatrixRow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routeMatrix = rows
}

// FieldContract looks up one field's contract.
func (s *Store) FieldContract(field string) (FieldContract, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.fieldContracts[field]
	return c, ok
}

// PassTarget returns the pass target for a field, falling back to the
// §4.6 defaults (2 required, 1 expected, 3 instrumented-only) when the
// field's contract sets no explicit pass target. A field with no contract
// at all gets 2.
func (s *Store) PassTarget(field string) int {
	c, ok := s.FieldContract(field)
	if !ok {
		return 2
	}
	if c.PassTarget > 0 {
		return c.PassTarget
	}
	switch c.RequiredLevel {
	case "expected":
		return 1
	case "instrumented_only":
		return 3
	default:
		return 2
	}
}

// ResolveRoute ranks route matrix rows by (effort desc, min_evidence_refs
// desc) for the given field scope (spec §4.9). Returns an error if no row
// matches.
func (s *Store) ResolveRoute(scope model.FieldScope, requiredLevel string, availability model.AvailabilityClass) (model.RouteDecision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var best *RouteMatrixRow
	for i := range s.routeMatrix {
		row := &s.routeMatrix[i]
		if row.Scope != scope || row.RequiredLevel != requiredLevel {
			continue
		}
		if best == nil {
			best = row
			continue
		}
		if betterRoute(row, best) {
			best = row
		}
	}
	if best == nil {
		return model.RouteDecision{}, fmt.Errorf("ruledb: no route for scope=%s required_level=%s", scope, requiredLevel)
	}
	return best.Decision, nil
}

func betterRoute(a, b *RouteMatrixRow) bool {
	if a.Effort != b.Effort {
		return a.Effort > b.Effort
	}
	return a.Decision.MinEvidenceRefsRequired > b.Decision.MinEvidenceRefsRequired
}

// IsApprovedHost reports whether host is on the category's approved list.
func IsApprovedHost(host string, approved []string) bool {
	for _, h := range approved {
		if h == host {
			return true
		}
	}
	return false
}

// IsDeniedHost reports whether host is on the category's denied list.
func IsDeniedHost(host string, denied []string) bool {
	for _, h := range denied {
		if h == host {
			return true
		}
	}
	return false
}
