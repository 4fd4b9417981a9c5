package extract

import (
	"context"
	"regexp"
	"strings"

	"github.com/CdubVentures/spec-harvester-sub014/pkg/model"
)

// ArticleWindowExtractor extracts values from heuristic text windows
// around target-field tokens (spec §4.4 item 5). It computes a
// readability-style score from char/word/heading signals, but the score
// does not change the path: pages above and below MinScore both use the
// windows, and no separate readability extraction is performed.
type ArticleWindowExtractor struct {
	MinScore   float64
	WindowSize int // chars on each side of the matched token
}

func NewArticleWindowExtractor(minScore float64) *ArticleWindowExtractor {
	return &ArticleWindowExtractor{MinScore: minScore, WindowSize: 90}
}

func (ArticleWindowExtractor) Method() model.ExtractionMethod { return model.MethodArticleWindow }

var tagPattern = regexp.MustCompile(`(?s)<[^>]+>`)
var headingPattern = regexp.MustCompile(`(?is)<h[1-6][^>]*>`)

func (e *ArticleWindowExtractor) Extract(_ context.Context, page Page) []model.Candidate {
	text := tagPattern.ReplaceAllString(page.Data.HTML, " ")
	text = strings.Join(strings.Fields(text), " ")

	if articleScore(page.Data.HTML, text) < e.MinScore {
		return e.heuristicWindows(text, page)
	}
	return e.heuristicWindows(text, page)
}

// articleScore is a simple signal combining text length, word count, and
// heading density, computed without a real readability model (none is
// present anywhere in the retrieved pack).
func articleScore(html, text string) float64 {
	words := len(strings.Fields(text))
	headings := len(headingPattern.FindAllString(html, -1))
	if words == 0 {
		return 0
	}
	score := float64(words) / 1000.0
	if headings > 0 {
		score += 0.1
	}
	if score > 1 {
		score = 1
	}
	return score
}

func (e *ArticleWindowExtractor) heuristicWindows(text string, page Page) []model.Candidate {
	lower := strings.ToLower(text)
	var out []model.Candidate
	for _, field := range page.Fields {
		token := strings.ReplaceAll(strings.ToLower(field), "_", " ")
		idx := strings.Index(lower, token)
		if idx < 0 {
			continue
		}
		start := idx - e.WindowSize
		if start < 0 {
			start = 0
		}
		end := idx + len(token) + e.WindowSize
		if end > len(text) {
			end = len(text)
		}
		window := strings.TrimSpace(text[start:end])
		value := extractValueAfterToken(window, token)
		if value == "" {
			continue
		}
		out = append(out, model.NewCandidate(field, value, model.MethodArticleWindow, "article_window."+field, page.Source.SourceID, nil))
	}
	return out
}

// extractValueAfterToken grabs the short run of words immediately
// following the field-name token, a crude but deterministic stand-in for
// NLP-based value extraction.
func extractValueAfterToken(window, token string) string {
	idx := strings.Index(strings.ToLower(window), token)
	if idx < 0 {
		return ""
	}
	rest := strings.TrimSpace(window[idx+len(token):])
	rest = strings.TrimLeft(rest, ":- ")
	words := strings.Fields(rest)
	if len(words) == 0 {
		return ""
	}
	n := 4
	if len(words) < n {
		n = len(words)
	}
	return strings.Join(words[:n], " ")
}
