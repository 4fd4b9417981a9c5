package fetch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/CdubVentures/spec-harvester-sub014/pkg/model"
)

func TestDynamicBrowserFetcher_RetriesToCrawlee(t *testing.T) {
	f := DynamicBrowserFetcher{}
	assert.Equal(t, model.FetchDynamicBrowser, f.Mode())

	out := f.Fetch(context.Background(), "https://manu.example.com")

	assert.Equal(t, model.OutcomeRetry, out.Kind)
	assert.Equal(t, model.FetchCrawlee, out.NextMode)
}

func TestCrawleeFetcher_RetriesToHTTP(t *testing.T) {
	f := CrawleeFetcher{}
	assert.Equal(t, model.FetchCrawlee, f.Mode())

	out := f.Fetch(context.Background(), "https://manu.example.com")

	assert.Equal(t, model.OutcomeRetry, out.Kind)
	assert.Equal(t, model.FetchHTTP, out.NextMode)
}
