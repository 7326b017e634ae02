package extract

import (
	"time"

	"github.com/brandloom/shopify-insights/internal/insights"
)

// PolicyExtractor pulls the main text block out of a policy page.
type PolicyExtractor struct {
	strategy MainContentStrategy
}

// NewPolicyExtractor builds a PolicyExtractor; a nil strategy uses
// LargestBlockStrategy.
func NewPolicyExtractor(strategy MainContentStrategy) *PolicyExtractor {
	if strategy == nil {
		strategy = LargestBlockStrategy{}
	}
	return &PolicyExtractor{strategy: strategy}
}

// Extract returns the policy document for one kind, or ok=false when the
// page has no usable content. Absence of a policy is not an error.
func (e *PolicyExtractor) Extract(kind insights.PolicyKind, page *Page, now time.Time) (insights.PolicyDocument, bool) {
	body := e.strategy.MainText(page)
	if body == "" {
		return insights.PolicyDocument{}, false
	}
	return insights.PolicyDocument{
		Kind:        kind,
		Title:       CleanText(page.Doc.Find("h1").First().Text()),
		Body:        body,
		URL:         page.FinalURL,
		ExtractedAt: now,
	}, true
}

// AboutExtractor reads long-form brand copy from an about page using the
// same main-content heuristic as policies.
type AboutExtractor struct {
	strategy MainContentStrategy
}

// NewAboutExtractor builds an AboutExtractor.
func NewAboutExtractor(strategy MainContentStrategy) *AboutExtractor {
	if strategy == nil {
		strategy = LargestBlockStrategy{}
	}
	return &AboutExtractor{strategy: strategy}
}

// Extract returns the about text, empty when the page yields nothing.
func (e *AboutExtractor) Extract(page *Page) string {
	return e.strategy.MainText(page)
}
