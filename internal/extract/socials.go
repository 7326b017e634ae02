package extract

import (
	"regexp"
	"strings"
)

// platformPattern maps a platform key to its recognizable domain substrings
// and an optional username capture.
type platformPattern struct {
	name     string
	domains  []string
	username *regexp.Regexp
	atPrefix bool
}

// Platform order is fixed so extraction is deterministic; within a platform
// the first matching anchor in document order wins.
var socialPlatforms = []platformPattern{
	{"instagram", []string{"instagram.com"}, regexp.MustCompile(`instagram\.com/([\w._]+)`), true},
	{"facebook", []string{"facebook.com"}, regexp.MustCompile(`facebook\.com/([\w.]+)`), true},
	{"tiktok", []string{"tiktok.com"}, regexp.MustCompile(`tiktok\.com/@?([\w.]+)`), true},
	{"twitter", []string{"twitter.com", "x.com"}, regexp.MustCompile(`(?:twitter|x)\.com/(\w+)`), true},
	{"youtube", []string{"youtube.com"}, regexp.MustCompile(`youtube\.com/(?:user|channel|c|@)/?(\w+)`), false},
	{"linkedin", []string{"linkedin.com"}, regexp.MustCompile(`linkedin\.com/(?:company|in)/([\w\-]+)`), false},
	{"pinterest", []string{"pinterest.com"}, regexp.MustCompile(`pinterest\.com/(\w+)`), true},
}

// SocialExtractor scans anchor targets for known platform domains.
type SocialExtractor struct{}

// NewSocialExtractor constructs a SocialExtractor.
func NewSocialExtractor() *SocialExtractor {
	return &SocialExtractor{}
}

// Extract returns platform → handle-or-URL for every platform linked from
// the given pages. Pages are scanned in the order given; the first match
// per platform is kept.
func (e *SocialExtractor) Extract(pages ...*Page) map[string]string {
	socials := map[string]string{}
	for _, page := range pages {
		if page == nil {
			continue
		}
		for _, anchor := range page.Anchors() {
			href := strings.ToLower(anchor.Href)
			for _, platform := range socialPlatforms {
				if _, done := socials[platform.name]; done {
					continue
				}
				if !matchesDomain(href, platform.domains) {
					continue
				}
				socials[platform.name] = platformHandle(platform, anchor.Href)
			}
		}
	}
	return socials
}

func matchesDomain(href string, domains []string) bool {
	for _, d := range domains {
		if strings.Contains(href, d) {
			return true
		}
	}
	return false
}

// platformHandle extracts a username from the URL when the platform pattern
// matches; otherwise the full URL is kept.
func platformHandle(platform platformPattern, href string) string {
	if platform.username == nil {
		return href
	}
	m := platform.username.FindStringSubmatch(strings.ToLower(href))
	if len(m) < 2 || m[1] == "" {
		return href
	}
	// Platform landing paths are not usernames.
	switch m[1] {
	case "sharer", "share", "intent", "pages":
		return href
	}
	if platform.atPrefix {
		return "@" + m[1]
	}
	return m[1]
}
