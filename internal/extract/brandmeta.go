package extract

import (
	"net/url"
	"strings"
)

// BrandMeta is the name/description pair read from homepage metadata.
type BrandMeta struct {
	Name        string
	Description string
}

// BrandMetaExtractor reads store identity from meta tags and the title.
type BrandMetaExtractor struct{}

// NewBrandMetaExtractor constructs a BrandMetaExtractor.
func NewBrandMetaExtractor() *BrandMetaExtractor {
	return &BrandMetaExtractor{}
}

// Extract pulls the brand name from og:site_name, then the page title, then
// the host name; the description comes from the meta description tags.
// Missing tags yield empty fields, never errors.
func (e *BrandMetaExtractor) Extract(page *Page) BrandMeta {
	meta := BrandMeta{}

	if v, ok := page.Doc.Find(`meta[property="og:site_name"]`).Attr("content"); ok {
		meta.Name = CleanText(v)
	}
	if meta.Name == "" {
		meta.Name = titleBrand(page.Doc.Find("title").First().Text())
	}
	if meta.Name == "" {
		if u, err := url.Parse(page.FinalURL); err == nil {
			meta.Name = u.Hostname()
		}
	}

	if v, ok := page.Doc.Find(`meta[name="description"]`).Attr("content"); ok {
		meta.Description = CleanText(v)
	}
	if meta.Description == "" {
		if v, ok := page.Doc.Find(`meta[property="og:description"]`).Attr("content"); ok {
			meta.Description = CleanText(v)
		}
	}
	return meta
}

// titleBrand trims marketing suffixes like "Acme | Home of Widgets" down to
// the brand segment.
func titleBrand(title string) string {
	title = CleanText(title)
	for _, sep := range []string{" | ", " – ", " - "} {
		if idx := strings.Index(title, sep); idx > 0 {
			return strings.TrimSpace(title[:idx])
		}
	}
	return title
}
