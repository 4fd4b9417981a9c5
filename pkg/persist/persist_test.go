package persist

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CdubVentures/spec-harvester-sub014/pkg/model"
	"github.com/CdubVentures/spec-harvester-sub014/pkg/storage"
)

type fakeSpecDBWriter struct {
	sources    []model.Source
	candidates []model.Candidate
	assertions int
	failNext   bool
}

func (f *fakeSpecDBWriter) InsertSource(ctx context.Context, runID, category, productID string, s model.Source) error {
	if f.failNext {
		return errInsertFailed
	}
	f.sources = append(f.sources, s)
	return nil
}

func (f *fakeSpecDBWriter) InsertCandidate(ctx context.Context, runID, category, productID string, c model.Candidate) error {
	if f.failNext {
		return errInsertFailed
	}
	f.candidates = append(f.candidates, c)
	return nil
}

func (f *fakeSpecDBWriter) InsertSourceAssertion(ctx context.Context, id, sourceID, productID, field string, matched bool, score float64) error {
	if f.failNext {
		return errInsertFailed
	}
	f.assertions++
	return nil
}

var errInsertFailed = errors.New("insert failed")

func newTestAdapter(t *testing.T) (*Adapter, *fakeSpecDBWriter) {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "db"), "input", "output")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	db := &fakeSpecDBWriter{}
	return New(db, store), db
}

func TestAdapter_WriteSourcePersistsToSpecDB(t *testing.T) {
	a, db := newTestAdapter(t)

	err := a.WriteSource(context.Background(), "run-1", "cars", "acme_falconx", model.Source{SourceID: "s1"})

	require.NoError(t, err)
	require.Len(t, db.sources, 1)
	assert.Equal(t, "s1", db.sources[0].SourceID)
}

func TestAdapter_WriteSourceWrapsSpecDBFailure(t *testing.T) {
	a, db := newTestAdapter(t)
	db.failNext = true

	err := a.WriteSource(context.Background(), "run-1", "cars", "acme_falconx", model.Source{SourceID: "s1"})

	assert.ErrorIs(t, err, errInsertFailed)
}

func TestAdapter_WriteCandidatesPersistsEveryCandidateIncludingUnknown(t *testing.T) {
	a, db := newTestAdapter(t)
	candidates := []model.Candidate{
		{Field: "range_miles", CandidateID: "c1"},
		{Field: "color", CandidateID: "c2", Value: model.Value{Scalar: model.Unk}},
	}

	err := a.WriteCandidates(context.Background(), "run-1", "cars", "acme_falconx", candidates)

	require.NoError(t, err)
	assert.Len(t, db.candidates, 2)
}

func TestAdapter_WriteIdentityAssertionRecordsMatchOutcome(t *testing.T) {
	a, db := newTestAdapter(t)

	err := a.WriteIdentityAssertion(context.Background(), "run-1::s1", "s1", "acme_falconx", true, 0.92)

	require.NoError(t, err)
	assert.Equal(t, 1, db.assertions)
}

func TestAdapter_WriteEvidencePackWritesUnderExtractedPrefix(t *testing.T) {
	a, db := newTestAdapter(t)
	_ = db

	pack := model.EvidencePack{SourceID: "s1", CandidateBindings: map[string]string{}}
	err := a.WriteEvidencePack("cars", "acme_falconx", "run-1", pack)

	require.NoError(t, err)
}

func TestAdapter_WriteRunResultWritesArtifactsAndRepointsLatest(t *testing.T) {
	a, db := newTestAdapter(t)
	_ = db

	result := model.RunResult{
		Category:  "cars",
		ProductID: "acme_falconx",
		RunID:     "run-1",
		Fields:    map[string]string{"range_miles": "310 miles"},
		Provenance: map[string]model.Provenance{
			"range_miles": {Value: "310 miles"},
		},
		Validated: true,
	}

	require.NoError(t, a.WriteRunResult("cars", "acme_falconx", "run-1", result))

	readBack, err := a.ReadLatestSummary("cars", "acme_falconx")
	require.NoError(t, err)
	assert.Equal(t, "run-1", readBack.RunID)
	assert.True(t, readBack.Validated)
}

func TestAdapter_ReadLatestSummaryFailsWhenNothingWritten(t *testing.T) {
	a, db := newTestAdapter(t)
	_ = db

	_, err := a.ReadLatestSummary("cars", "never_written")

	assert.Error(t, err)
}
