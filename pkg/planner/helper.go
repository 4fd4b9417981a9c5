package planner

import (
	"fmt"

	"github.com/CdubVentures/spec-harvester-sub014/pkg/model"
	"github.com/CdubVentures/spec-harvester-sub014/pkg/ruledb"
)

// InjectHelper emits a synthetic helper_files:// source and its derived
// candidates when the helper DB has a matching (brand, model, variant?)
// row (spec §4.2). Synthetic sources are excluded from fetching; their
// candidates are tagged method=helper_supportive.
func InjectHelper(job model.ProductJob, db *ruledb.HelperDB, runID string) (model.Source, []model.Candidate, bool) {
	row, ok := db.Match(job.IdentityLock.Brand, job.IdentityLock.Model, job.IdentityLock.Variant)
	if !ok {
		return model.Source{}, nil, false
	}

	sourceID := fmt.Sprintf("%s::%s::helper_files::%s", job.Category, job.ProductID, runID)
	source := model.Source{
		SourceID:    sourceID,
		URL:         "helper_files://" + job.ProductID,
		Host:        "helper_files",
		Tier:        model.TierLabDatabase,
		Role:        "database",
		FetchMethod: model.FetchHelperSynth,
		Synthetic:   true,
	}

	var candidates []model.Candidate
	for field, value := range row.Fields {
		c := model.NewCandidate(field, value, model.MethodHelperSupportive, "helper."+field, sourceID, nil)
		candidates = append(candidates, c)
	}
	return source, candidates, true
}
