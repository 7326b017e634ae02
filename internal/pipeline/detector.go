package pipeline

import (
	"bytes"
	"strings"
)

// Markers whose presence in homepage markup identifies a Shopify storefront.
var defaultShopifyMarkers = []string{
	"cdn.shopify.com",
	"shopify.theme",
	"myshopify.com",
	"cdn/shop/",
}

// ShopifyDetector inspects homepage markup for platform markers. When no
// marker is present the pipeline falls back to probing the products
// endpoint before declaring the site not a Shopify store.
type ShopifyDetector struct {
	markers [][]byte
}

// NewShopifyDetector builds a detector; with no markers the defaults apply.
func NewShopifyDetector(markers ...string) *ShopifyDetector {
	if len(markers) == 0 {
		markers = defaultShopifyMarkers
	}
	lower := make([][]byte, 0, len(markers))
	for _, m := range markers {
		m = strings.TrimSpace(m)
		if m == "" {
			continue
		}
		lower = append(lower, bytes.ToLower([]byte(m)))
	}
	return &ShopifyDetector{markers: lower}
}

// Matches reports whether the homepage body carries any known marker.
func (d *ShopifyDetector) Matches(body []byte) bool {
	if len(body) == 0 {
		return false
	}
	lowerBody := bytes.ToLower(body)
	for _, marker := range d.markers {
		if bytes.Contains(lowerBody, marker) {
			return true
		}
	}
	return false
}
