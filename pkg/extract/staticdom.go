package extract

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/CdubVentures/spec-harvester-sub014/pkg/model"
)

// StaticDOMExtractor parses <table>, <dl>, and inline "key: value" rows
// (spec §4.4 item 4). Every shape emits spec_table candidates, so all
// share that method's 0.82 confidence base; the base does not vary by
// shape.
type StaticDOMExtractor struct{}

func (StaticDOMExtractor) Method() model.ExtractionMethod { return model.MethodSpecTable }

func (StaticDOMExtractor) Extract(_ context.Context, page Page) []model.Candidate {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.Data.HTML))
	if err != nil {
		return nil
	}

	var out []model.Candidate
	out = append(out, extractTables(doc, page)...)
	out = append(out, extractDefinitionLists(doc, page)...)
	out = append(out, extractInlineKV(doc, page)...)
	return out
}

func extractTables(doc *goquery.Document, page Page) []model.Candidate {
	var out []model.Candidate
	doc.Find("table").Each(func(ti int, table *goquery.Selection) {
		table.Find("tr").Each(func(ri int, row *goquery.Selection) {
			cells := row.Find("th, td")
			if cells.Length() < 2 {
				return
			}
			key := strings.TrimSpace(cells.Eq(0).Text())
			val := strings.TrimSpace(cells.Eq(1).Text())
			if key == "" || val == "" {
				return
			}
			if field, ok := matchFieldHint(key, page.Fields); ok {
				keyPath := fmt.Sprintf("table[%d].row[%d]", ti, ri)
				out = append(out, model.NewCandidate(field, val, model.MethodSpecTable, keyPath, page.Source.SourceID, nil))
			}
		})
	})
	return out
}

func extractDefinitionLists(doc *goquery.Document, page Page) []model.Candidate {
	var out []model.Candidate
	doc.Find("dl").Each(func(di int, dl *goquery.Selection) {
		terms := dl.Find("dt")
		defs := dl.Find("dd")
		n := terms.Length()
		if defs.Length() < n {
			n = defs.Length()
		}
		for i := 0; i < n; i++ {
			key := strings.TrimSpace(terms.Eq(i).Text())
			val := strings.TrimSpace(defs.Eq(i).Text())
			if field, ok := matchFieldHint(key, page.Fields); ok {
				keyPath := fmt.Sprintf("dl[%d].pair[%d]", di, i)
				out = append(out, model.NewCandidate(field, val, model.MethodSpecTable, keyPath, page.Source.SourceID, nil))
			}
		}
	})
	return out
}

func extractInlineKV(doc *goquery.Document, page Page) []model.Candidate {
	var out []model.Candidate
	doc.Find("li, p").Each(func(i int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		parts := strings.SplitN(text, ":", 2)
		if len(parts) != 2 {
			return
		}
		key, val := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
		if key == "" || val == "" || len(key) > 40 {
			return
		}
		if field, ok := matchFieldHint(key, page.Fields); ok {
			out = append(out, model.NewCandidate(field, val, model.MethodSpecTable, "inline_kv["+strconv.Itoa(i)+"]", page.Source.SourceID, nil))
		}
	})
	return out
}

// matchFieldHint reports whether key plausibly names one of the target
// fields (case-insensitive substring match on tokenized field name).
func matchFieldHint(key string, fields []string) (string, bool) {
	lowerKey := strings.ToLower(key)
	for _, field := range fields {
		needle := strings.ReplaceAll(strings.ToLower(field), "_", " ")
		if strings.Contains(lowerKey, needle) {
			return field, true
		}
	}
	return "", false
}
