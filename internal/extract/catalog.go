package extract

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/brandloom/shopify-insights/internal/insights"
)

// CatalogExtractor parses the Shopify products endpoint payload.
type CatalogExtractor struct{}

// NewCatalogExtractor constructs a CatalogExtractor.
func NewCatalogExtractor() *CatalogExtractor {
	return &CatalogExtractor{}
}

type productsPayload struct {
	Products []productEntry `json:"products"`
}

type productEntry struct {
	ID       json.Number      `json:"id"`
	Title    string           `json:"title"`
	Handle   string           `json:"handle"`
	BodyHTML string           `json:"body_html"`
	Tags     json.RawMessage  `json:"tags"`
	Variants []variantEntry   `json:"variants"`
	Images   []productImagery `json:"images"`
}

type variantEntry struct {
	Price     string `json:"price"`
	Available *bool  `json:"available"`
}

type productImagery struct {
	Src string `json:"src"`
}

// Extract parses a products.json body into Products. Entries missing a title
// or handle are dropped. A non-JSON or structurally unexpected body returns
// an error so the caller can fall through to the next candidate endpoint.
func (e *CatalogExtractor) Extract(body []byte, rootURL string) ([]insights.Product, error) {
	var payload productsPayload
	dec := json.NewDecoder(strings.NewReader(string(body)))
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode products payload: %w", err)
	}
	if payload.Products == nil {
		return nil, fmt.Errorf("products key missing in payload")
	}

	products := make([]insights.Product, 0, len(payload.Products))
	for _, entry := range payload.Products {
		title := strings.TrimSpace(entry.Title)
		handle := strings.TrimSpace(entry.Handle)
		if title == "" || handle == "" {
			continue
		}
		p := insights.Product{
			ID:          entry.ID.String(),
			Title:       title,
			Handle:      handle,
			Description: stripHTML(entry.BodyHTML),
			Tags:        parseTags(entry.Tags),
			URL:         strings.TrimRight(rootURL, "/") + "/products/" + handle,
		}
		if len(entry.Variants) > 0 {
			p.Price = entry.Variants[0].Price
			p.Available = entry.Variants[0].Available
		}
		if len(entry.Images) > 0 {
			p.Image = entry.Images[0].Src
		}
		products = append(products, p)
	}
	return products, nil
}

// parseTags accepts both representations Shopify emits: a JSON array of
// strings or a single comma-separated string.
func parseTags(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return trimAll(list)
	}
	var joined string
	if err := json.Unmarshal(raw, &joined); err == nil && joined != "" {
		return trimAll(strings.Split(joined, ","))
	}
	return nil
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// stripHTML reduces a body_html fragment to plain text.
func stripHTML(fragment string) string {
	if fragment == "" {
		return ""
	}
	page, err := NewPage("http://local/", []byte(fragment))
	if err != nil {
		return CleanText(fragment)
	}
	return CleanText(page.Text())
}
