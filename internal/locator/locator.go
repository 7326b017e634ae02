// Package locator enumerates candidate resource URLs per insight category
// using convention-based path lists plus links discovered on the homepage.
package locator

import (
	"regexp"
	"strings"

	"github.com/brandloom/shopify-insights/internal/extract"
	"github.com/brandloom/shopify-insights/internal/insights"
)

// Conventional Shopify paths, tried in order. Extraction uses the first
// candidate that yields a non-empty result; candidates are never merged.
var (
	catalogPaths = []string{
		"/products.json?limit=250",
		"/collections/all/products.json?limit=250",
	}
	policyPaths = map[insights.PolicyKind][]string{
		insights.PolicyPrivacy: {
			"/policies/privacy-policy",
			"/pages/privacy-policy",
			"/pages/privacy",
		},
		insights.PolicyReturn: {
			"/policies/refund-policy",
			"/pages/refund-policy",
			"/pages/returns",
			"/pages/return-policy",
		},
		insights.PolicyRefund: {
			"/policies/refund-policy",
			"/pages/refund-policy",
			"/pages/refunds",
		},
		insights.PolicyTerms: {
			"/policies/terms-of-service",
			"/pages/terms-of-service",
			"/pages/terms",
			"/pages/terms-conditions",
		},
	}
	faqPaths = []string{
		"/faq",
		"/pages/faq",
		"/pages/faqs",
		"/pages/frequently-asked-questions",
	}
	contactPaths = []string{
		"/contact",
		"/pages/contact",
		"/pages/contact-us",
	}
	aboutPaths = []string{
		"/about",
		"/pages/about",
		"/pages/about-us",
		"/pages/our-story",
		"/pages/story",
	}

	faqKeyword     = regexp.MustCompile(`(?i)(faq|frequently.?asked)`)
	contactKeyword = regexp.MustCompile(`(?i)contact`)
	aboutKeyword   = regexp.MustCompile(`(?i)(about|our.?story)`)
)

// ResourceMap holds the ordered candidate URLs per category. Conventional
// paths come before keyword-matched homepage links, and discovered links
// keep document order, so resolution is deterministic.
type ResourceMap struct {
	Catalog  []string
	Policies map[insights.PolicyKind][]string
	FAQ      []string
	Contact  []string
	About    []string
}

// Locator builds ResourceMaps for store roots.
type Locator struct{}

// New constructs a Locator.
func New() *Locator {
	return &Locator{}
}

// Locate enumerates candidates for every category. home may be nil when the
// homepage could not be parsed; discovery is then skipped and only
// conventional paths remain.
func (l *Locator) Locate(rootURL string, home *extract.Page) ResourceMap {
	root := strings.TrimRight(rootURL, "/")

	rm := ResourceMap{
		Catalog:  joinAll(root, catalogPaths),
		Policies: make(map[insights.PolicyKind][]string, len(policyPaths)),
		FAQ:      joinAll(root, faqPaths),
		Contact:  joinAll(root, contactPaths),
		About:    joinAll(root, aboutPaths),
	}
	for kind, paths := range policyPaths {
		rm.Policies[kind] = joinAll(root, paths)
	}

	if home != nil {
		anchors := home.Anchors()
		rm.FAQ = appendDiscovered(rm.FAQ, anchors, faqKeyword)
		rm.Contact = appendDiscovered(rm.Contact, anchors, contactKeyword)
		rm.About = appendDiscovered(rm.About, anchors, aboutKeyword)
	}
	return rm
}

func joinAll(root string, paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = root + p
	}
	return out
}

// appendDiscovered adds keyword-matched homepage links after the
// conventional candidates, skipping duplicates and non-http targets.
func appendDiscovered(candidates []string, anchors []extract.Anchor, keyword *regexp.Regexp) []string {
	seen := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		seen[c] = struct{}{}
	}
	for _, anchor := range anchors {
		if !strings.HasPrefix(strings.ToLower(anchor.Href), "http") {
			continue
		}
		if !keyword.MatchString(anchor.Label) && !keyword.MatchString(anchor.Href) {
			continue
		}
		if _, dup := seen[anchor.Href]; dup {
			continue
		}
		seen[anchor.Href] = struct{}{}
		candidates = append(candidates, anchor.Href)
	}
	return candidates
}
