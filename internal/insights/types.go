// Package insights defines the core types shared across the extraction
// pipeline and the interfaces its collaborators implement.
package insights

import (
	"net/http"
	"time"
)

// Category identifies one insight type the pipeline extracts.
type Category string

// Resource categories located and extracted per store.
const (
	CategoryCatalog   Category = "catalog"
	CategoryHero      Category = "hero_products"
	CategoryPolicies  Category = "policies"
	CategoryFAQ       Category = "faqs"
	CategorySocials   Category = "socials"
	CategoryContact   Category = "contact"
	CategoryBrandMeta Category = "brand_meta"
	CategoryLinks     Category = "links"
	CategoryAbout     Category = "about"
)

// PolicyKind names one of the well-known Shopify policy pages.
type PolicyKind string

// Policy kinds keyed in BrandContext.Policies.
const (
	PolicyPrivacy PolicyKind = "privacy"
	PolicyReturn  PolicyKind = "return"
	PolicyRefund  PolicyKind = "refund"
	PolicyTerms   PolicyKind = "terms"
)

// Product is one catalog entry. Title and Handle are required; entries
// missing either are dropped during extraction rather than surfaced as errors.
type Product struct {
	ID          string   `json:"id,omitempty"`
	Title       string   `json:"title"`
	Handle      string   `json:"handle"`
	Description string   `json:"description,omitempty"`
	Price       string   `json:"price,omitempty"`
	Currency    string   `json:"currency,omitempty"`
	Image       string   `json:"image,omitempty"`
	URL         string   `json:"url,omitempty"`
	Available   *bool    `json:"available,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// PolicyDocument is the extracted body of one policy page.
type PolicyDocument struct {
	Kind        PolicyKind `json:"kind"`
	Title       string     `json:"title,omitempty"`
	Body        string     `json:"body"`
	URL         string     `json:"url"`
	ExtractedAt time.Time  `json:"extracted_at"`
}

// FAQ is one question/answer pair. Pairs with an empty side are discarded.
type FAQ struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Contact holds deduplicated, sorted contact details.
type Contact struct {
	Emails []string `json:"emails"`
	Phones []string `json:"phones"`
}

// BrandContext is the aggregate record produced by one pipeline run. Every
// field defaults to empty/absent; only a failed root fetch prevents
// construction.
type BrandContext struct {
	StoreURL     string                        `json:"store_url"`
	BrandName    string                        `json:"brand_name,omitempty"`
	Description  string                        `json:"description,omitempty"`
	About        string                        `json:"about,omitempty"`
	Catalog      []Product                     `json:"catalog"`
	HeroProducts []Product                     `json:"hero_products"`
	Policies     map[PolicyKind]PolicyDocument `json:"policies"`
	FAQs         []FAQ                         `json:"faqs"`
	Socials      map[string]string             `json:"socials"`
	Contact      Contact                       `json:"contact"`
	Links        map[string]string             `json:"links"`
	Warnings     []string                      `json:"warnings"`
	ExtractedAt  time.Time                     `json:"extracted_at"`
}

// NewBrandContext returns an empty record for the given store root.
func NewBrandContext(storeURL string) *BrandContext {
	return &BrandContext{
		StoreURL:     storeURL,
		Catalog:      []Product{},
		HeroProducts: []Product{},
		Policies:     map[PolicyKind]PolicyDocument{},
		FAQs:         []FAQ{},
		Socials:      map[string]string{},
		Contact:      Contact{Emails: []string{}, Phones: []string{}},
		Links:        map[string]string{},
		Warnings:     []string{},
	}
}

// FetchRequest captures everything needed to fetch one URL.
type FetchRequest struct {
	URL          string
	Headers      http.Header
	MaxRedirects int
}

// FetchResult is the classified outcome of a fetch. Exactly one of Failure
// being zero-valued or Body being populated holds; no transport error escapes
// a Fetcher unclassified.
type FetchResult struct {
	URL         string
	FinalURL    string
	StatusCode  int
	ContentType string
	Body        []byte
	Duration    time.Duration
	Failure     FetchFailure
}

// OK reports whether the fetch produced usable content.
func (r FetchResult) OK() bool {
	return r.Failure == FailureNone
}

// FetchFailure classifies why a fetch produced no usable content.
type FetchFailure string

// Fetch failure classes.
const (
	FailureNone        FetchFailure = ""
	FailureUnreachable FetchFailure = "unreachable"
	FailureTimeout     FetchFailure = "timeout"
	FailureNotFound    FetchFailure = "not_found"
	FailureForbidden   FetchFailure = "forbidden"
	FailureServerError FetchFailure = "server_error"
	FailureBadContent  FetchFailure = "unsupported_content"
)

// Snapshot is a persisted BrandContext keyed by store URL and capture time.
type Snapshot struct {
	ID          string        `json:"id"`
	StoreURL    string        `json:"store_url"`
	CapturedAt  time.Time     `json:"captured_at"`
	ContentHash string        `json:"content_hash,omitempty"`
	BlobURI     string        `json:"blob_uri,omitempty"`
	Context     *BrandContext `json:"context"`
}
