package extract

import (
	"github.com/PuerkitoBio/goquery"
)

// MainContentStrategy locates the primary content block of a page. It is a
// pluggable heuristic shared by the policy and about extractors.
type MainContentStrategy interface {
	MainText(page *Page) string
}

// LargestBlockStrategy prefers a <main> element, then falls back to the
// largest text block under content-ish containers, then the body.
type LargestBlockStrategy struct{}

// MainText implements MainContentStrategy.
func (LargestBlockStrategy) MainText(page *Page) string {
	if text := selectionText(page.Doc.Find("main").First()); text != "" {
		return text
	}

	best := ""
	page.Doc.Find("article, div[class*=content], div[class*=main], div[class*=page], div[class*=rte]").
		Each(func(_ int, sel *goquery.Selection) {
			if text := selectionText(sel); len(text) > len(best) {
				best = text
			}
		})
	if best != "" {
		return best
	}
	return selectionText(page.Doc.Find("body").First())
}

func selectionText(sel *goquery.Selection) string {
	if sel == nil || sel.Length() == 0 {
		return ""
	}
	// Drop script/style noise before reading text.
	clone := sel.Clone()
	clone.Find("script, style, noscript").Remove()
	return CleanText(clone.Text())
}
