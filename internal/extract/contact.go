package extract

import (
	"regexp"
	"sort"
	"strings"

	"github.com/brandloom/shopify-insights/internal/insights"
)

var (
	emailPattern = regexp.MustCompile(`[\w.\-+]+@[\w.\-]+\.[a-zA-Z]{2,}`)
	phonePattern = regexp.MustCompile(`\+?[\d\s()\-.]{10,20}`)
	phoneStrip   = regexp.MustCompile(`[\s().\-]+`)
)

// ContactExtractor scans visible text and mailto/tel anchors for contact
// details. It deduplicates but does not validate deliverability.
type ContactExtractor struct{}

// NewContactExtractor constructs a ContactExtractor.
func NewContactExtractor() *ContactExtractor {
	return &ContactExtractor{}
}

// Extract reads emails and phone numbers from the given pages. Results are
// sorted so repeated runs over unchanged content are byte-identical.
func (e *ContactExtractor) Extract(pages ...*Page) insights.Contact {
	emails := map[string]struct{}{}
	phones := map[string]struct{}{}

	for _, page := range pages {
		if page == nil {
			continue
		}
		text := page.Text()
		for _, m := range emailPattern.FindAllString(text, -1) {
			emails[strings.ToLower(m)] = struct{}{}
		}
		for _, m := range phonePattern.FindAllString(text, -1) {
			if normalized, ok := normalizePhone(m); ok {
				phones[normalized] = struct{}{}
			}
		}
		for _, anchor := range page.Anchors() {
			lower := strings.ToLower(anchor.Href)
			switch {
			case strings.HasPrefix(lower, "mailto:"):
				addr := strings.SplitN(strings.TrimPrefix(anchor.Href, "mailto:"), "?", 2)[0]
				addr = strings.TrimSpace(addr)
				if emailPattern.MatchString(addr) {
					emails[strings.ToLower(addr)] = struct{}{}
				}
			case strings.HasPrefix(lower, "tel:"):
				if normalized, ok := normalizePhone(strings.TrimPrefix(anchor.Href, "tel:")); ok {
					phones[normalized] = struct{}{}
				}
			}
		}
	}

	return insights.Contact{
		Emails: sortedKeys(emails),
		Phones: sortedKeys(phones),
	}
}

// normalizePhone strips separators and keeps candidates with at least ten
// digits, the cheapest guard against matching random digit runs.
func normalizePhone(raw string) (string, bool) {
	cleaned := phoneStrip.ReplaceAllString(strings.TrimSpace(raw), "")
	digits := strings.TrimPrefix(cleaned, "+")
	if len(digits) < 10 || len(digits) > 15 {
		return "", false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	return cleaned, true
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
