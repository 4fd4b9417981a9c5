package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CdubVentures/spec-harvester-sub014/pkg/fetch"
	"github.com/CdubVentures/spec-harvester-sub014/pkg/model"
)

func TestArticleWindowExtractor_FindsValueNearFieldToken(t *testing.T) {
	html := `<html><body><h1>Specs</h1><p>The range miles rating is 310 miles combined.</p></body></html>`
	page := Page{Data: fetch.PageData{HTML: html}, Fields: []string{"range_miles"}}

	out := NewArticleWindowExtractor(0.5).Extract(context.Background(), page)

	require.Len(t, out, 1)
	assert.Equal(t, "range_miles", out[0].Field)
	assert.Equal(t, model.MethodArticleWindow, out[0].Method)
	assert.Contains(t, out[0].Value.Scalar, "310")
}

func TestArticleWindowExtractor_SkipsFieldsWithNoTokenMatch(t *testing.T) {
	html := `<html><body><p>Nothing relevant here.</p></body></html>`
	page := Page{Data: fetch.PageData{HTML: html}, Fields: []string{"range_miles"}}

	out := NewArticleWindowExtractor(0.5).Extract(context.Background(), page)

	assert.Empty(t, out)
}

func TestArticleScore_ZeroWordsYieldsZeroScore(t *testing.T) {
	assert.Equal(t, 0.0, articleScore("<html></html>", ""))
}

func TestArticleScore_HeadingsAddBonus(t *testing.T) {
	text := "short body text"
	withHeading := articleScore(`<h1>Title</h1>`, text)
	withoutHeading := articleScore(`<div>Title</div>`, text)

	assert.Greater(t, withHeading, withoutHeading)
}

func TestExtractValueAfterToken_GrabsFewWordsFollowingToken(t *testing.T) {
	value := extractValueAfterToken("range miles: 310 miles combined city highway", "range miles")
	assert.Equal(t, "310 miles combined city", value)
}

func TestExtractValueAfterToken_MissingTokenYieldsEmpty(t *testing.T) {
	assert.Equal(t, "", extractValueAfterToken("nothing to see", "range miles"))
}
