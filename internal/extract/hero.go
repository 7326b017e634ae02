package extract

import (
	"github.com/PuerkitoBio/goquery"

	"github.com/brandloom/shopify-insights/internal/insights"
)

// maxHeroProducts caps how many homepage products count as "hero".
const maxHeroProducts = 10

// FeaturedStrategy picks the homepage anchors considered "featured". It is
// a pluggable heuristic so tests can swap structural guesses independently
// of the cross-referencing logic.
type FeaturedStrategy interface {
	FeaturedAnchors(page *Page) []Anchor
}

// HeroExtractor finds products featured on the homepage and enriches them
// from the full catalog when a handle matches.
type HeroExtractor struct {
	strategy FeaturedStrategy
}

// NewHeroExtractor builds a HeroExtractor; a nil strategy falls back to
// scanning the whole document for product links.
func NewHeroExtractor(strategy FeaturedStrategy) *HeroExtractor {
	if strategy == nil {
		strategy = ProductAnchorStrategy{}
	}
	return &HeroExtractor{strategy: strategy}
}

// Extract returns homepage products in document order, de-duplicated by
// handle and capped at maxHeroProducts. Handles present in the catalog are
// replaced by the full catalog entry; the rest keep the minimal data
// parsable from the anchor alone.
func (e *HeroExtractor) Extract(page *Page, catalog []insights.Product) []insights.Product {
	byHandle := make(map[string]insights.Product, len(catalog))
	for _, p := range catalog {
		byHandle[p.Handle] = p
	}

	seen := make(map[string]struct{})
	heroes := []insights.Product{}
	for _, anchor := range e.strategy.FeaturedAnchors(page) {
		handle := productHandle(anchor.Href)
		if handle == "" {
			continue
		}
		if _, dup := seen[handle]; dup {
			continue
		}
		seen[handle] = struct{}{}

		if full, ok := byHandle[handle]; ok {
			heroes = append(heroes, full)
		} else {
			heroes = append(heroes, insights.Product{
				Title:  anchorTitle(anchor, handle),
				Handle: handle,
				URL:    anchor.Href,
			})
		}
		if len(heroes) == maxHeroProducts {
			break
		}
	}
	return heroes
}

func anchorTitle(anchor Anchor, handle string) string {
	if anchor.Label != "" {
		return anchor.Label
	}
	return handle
}

// ProductAnchorStrategy treats every /products/ anchor on the page as
// featured, preferring anchors inside the first prominent markup block
// (main content, a section, or a featured-collection container) when one
// exists.
type ProductAnchorStrategy struct{}

// FeaturedAnchors implements FeaturedStrategy.
func (ProductAnchorStrategy) FeaturedAnchors(page *Page) []Anchor {
	featured := anchorsWithin(page, "main a[href], section a[href], [class*=featured] a[href]")
	if len(featured) > 0 {
		return featured
	}
	return page.Anchors()
}

func anchorsWithin(page *Page, selector string) []Anchor {
	var anchors []Anchor
	page.Doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		resolved, ok := page.ResolveHref(href)
		if !ok {
			return
		}
		anchors = append(anchors, Anchor{Label: CleanText(sel.Text()), Href: resolved})
	})
	return anchors
}
