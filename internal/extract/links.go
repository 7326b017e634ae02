package extract

import (
	"regexp"
	"strings"
)

// labelPattern pairs an output label with the keyword pattern matched
// against anchor labels and hrefs.
type labelPattern struct {
	label   string
	pattern *regexp.Regexp
}

// Label order is fixed for deterministic output; within one label the first
// matching anchor in document order wins.
var importantLinkPatterns = []labelPattern{
	{"order_tracking", regexp.MustCompile(`(?i)(order.?tracking|track.?order|track.?package)`)},
	{"contact_us", regexp.MustCompile(`(?i)contact`)},
	{"blogs", regexp.MustCompile(`(?i)(blog|news|articles)`)},
	{"shipping", regexp.MustCompile(`(?i)(shipping|delivery)`)},
	{"careers", regexp.MustCompile(`(?i)(careers|jobs|join.?us|work.?with.?us)`)},
}

// LinkExtractor collects navigation anchors whose label or target matches a
// fixed keyword list.
type LinkExtractor struct{}

// NewLinkExtractor constructs a LinkExtractor.
func NewLinkExtractor() *LinkExtractor {
	return &LinkExtractor{}
}

// Extract returns label → absolute URL. Only http(s) targets qualify.
func (e *LinkExtractor) Extract(page *Page) map[string]string {
	links := map[string]string{}
	for _, anchor := range page.Anchors() {
		if !strings.HasPrefix(strings.ToLower(anchor.Href), "http") {
			continue
		}
		for _, lp := range importantLinkPatterns {
			if _, done := links[lp.label]; done {
				continue
			}
			if lp.pattern.MatchString(anchor.Label) || lp.pattern.MatchString(anchor.Href) {
				links[lp.label] = anchor.Href
			}
		}
	}
	return links
}
