// Package extract turns fetched storefront content into typed partial
// results, one extractor per insight category. All extractors tolerate
// malformed markup: they return empty results, never errors, when a page
// does not match their heuristics.
package extract

import (
	"bytes"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var innerWhitespace = regexp.MustCompile(`\s\s+`)

// Page is one fetched and parsed HTML document, shared read-only between
// extractors so the homepage is parsed exactly once.
type Page struct {
	URL      string
	FinalURL string
	Doc      *goquery.Document

	base *url.URL
}

// NewPage parses raw HTML into a Page. finalURL is the post-redirect URL the
// body was served from; relative hrefs resolve against it.
func NewPage(finalURL string, body []byte) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	base, err := url.Parse(finalURL)
	if err != nil {
		return nil, fmt.Errorf("parse page url: %w", err)
	}
	return &Page{
		URL:      finalURL,
		FinalURL: finalURL,
		Doc:      doc,
		base:     base,
	}, nil
}

// Anchor is one <a href> with its cleaned visible label.
type Anchor struct {
	Label string
	Href  string
}

// Anchors returns every anchor in document order with hrefs resolved
// absolute against the page URL. Anchors with unparsable hrefs are skipped.
func (p *Page) Anchors() []Anchor {
	var anchors []Anchor
	p.Doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok || href == "" {
			return
		}
		resolved, ok := p.ResolveHref(href)
		if !ok {
			return
		}
		anchors = append(anchors, Anchor{
			Label: CleanText(sel.Text()),
			Href:  resolved,
		})
	})
	return anchors
}

// ResolveHref makes href absolute against the page URL. mailto:, tel:, and
// javascript: targets are passed through untouched.
func (p *Page) ResolveHref(href string) (string, bool) {
	lower := strings.ToLower(href)
	if strings.HasPrefix(lower, "mailto:") || strings.HasPrefix(lower, "tel:") {
		return href, true
	}
	if strings.HasPrefix(lower, "javascript:") || strings.HasPrefix(lower, "#") {
		return "", false
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", false
	}
	resolved := p.base.ResolveReference(ref)
	resolved.Fragment = ""
	return resolved.String(), true
}

// Text returns the page's visible text content.
func (p *Page) Text() string {
	return p.Doc.Text()
}

// CleanText collapses whitespace and trims a text node's content.
func CleanText(s string) string {
	s = strings.TrimSpace(s)
	return innerWhitespace.ReplaceAllString(s, " ")
}

// productHandle extracts the handle from a /products/<handle> path, or ""
// when the URL points elsewhere.
func productHandle(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	path := u.Path
	idx := strings.Index(path, "/products/")
	if idx < 0 {
		return ""
	}
	handle := path[idx+len("/products/"):]
	if slash := strings.IndexByte(handle, '/'); slash >= 0 {
		handle = handle[:slash]
	}
	return strings.TrimSpace(handle)
}
