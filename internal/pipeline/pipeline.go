// Package pipeline orchestrates the brand-context extraction run: locate
// resources, fetch them concurrently, extract per category, and merge the
// partial results into one BrandContext.
package pipeline

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/brandloom/shopify-insights/internal/extract"
	"github.com/brandloom/shopify-insights/internal/insights"
	"github.com/brandloom/shopify-insights/internal/locator"
	"github.com/brandloom/shopify-insights/internal/metrics"
)

// Pipeline wires the fetcher, locator, and extractors into the aggregate
// extraction run. Construct once and share; all state is per-invocation.
type Pipeline struct {
	fetcher  insights.Fetcher
	locator  *locator.Locator
	detector *ShopifyDetector
	clock    insights.Clock
	logger   *zap.Logger

	catalog   *extract.CatalogExtractor
	hero      *extract.HeroExtractor
	policies  *extract.PolicyExtractor
	faqs      *extract.FAQExtractor
	socials   *extract.SocialExtractor
	contact   *extract.ContactExtractor
	brandMeta *extract.BrandMetaExtractor
	links     *extract.LinkExtractor
	about     *extract.AboutExtractor
}

// New constructs a Pipeline with default extraction heuristics.
func New(fetcher insights.Fetcher, clock insights.Clock, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		fetcher:   fetcher,
		locator:   locator.New(),
		detector:  NewShopifyDetector(),
		clock:     clock,
		logger:    logger,
		catalog:   extract.NewCatalogExtractor(),
		hero:      extract.NewHeroExtractor(nil),
		policies:  extract.NewPolicyExtractor(nil),
		faqs:      extract.NewFAQExtractor(),
		socials:   extract.NewSocialExtractor(),
		contact:   extract.NewContactExtractor(),
		brandMeta: extract.NewBrandMetaExtractor(),
		links:     extract.NewLinkExtractor(),
		about:     extract.NewAboutExtractor(nil),
	}
}

// results collects per-category partial output. Each task writes only its
// own slot; warnings go through the mutex-guarded appender. The merge step
// reads everything single-threaded after all tasks finish.
type results struct {
	mu       sync.Mutex
	warnings []string
	pages    []*extract.Page

	catalog        []insights.Product
	catalogCh      chan []insights.Product
	heroes         []insights.Product
	policies       map[insights.PolicyKind]insights.PolicyDocument
	faqs           []insights.FAQ
	about          string
	extraPagesSeen map[string]struct{}
}

func (r *results) warn(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warnings = append(r.warnings, fmt.Sprintf(format, args...))
}

func (r *results) addPage(page *extract.Page) {
	if page == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.extraPagesSeen[page.FinalURL]; dup {
		return
	}
	r.extraPagesSeen[page.FinalURL] = struct{}{}
	r.pages = append(r.pages, page)
}

// GetInsights runs the full extraction for one store root. It returns a
// BrandContext whenever the root page is reachable, or a classified
// PipelineError otherwise. Per-category failures never abort the run; they
// surface as warnings on the returned record.
func (p *Pipeline) GetInsights(ctx context.Context, storeURL string) (*insights.BrandContext, error) {
	root, err := NormalizeStoreURL(storeURL)
	if err != nil {
		return nil, insights.NewPipelineError(insights.ErrKindInternal, storeURL, err)
	}
	log := p.logger.With(zap.String("store", root))

	home, homePage, perr := p.fetchRoot(ctx, root)
	if perr != nil {
		return nil, perr
	}

	preloaded, isShopify, derr := p.detect(ctx, root, home)
	if derr != nil {
		return nil, insights.NewPipelineError(insights.ErrKindTimeout, root, derr)
	}
	if !isShopify {
		log.Info("no shopify markers found")
		return nil, insights.NewPipelineError(insights.ErrKindNotShopify, root, nil)
	}

	res := &results{
		catalogCh:      make(chan []insights.Product, 1),
		policies:       map[insights.PolicyKind]insights.PolicyDocument{},
		extraPagesSeen: map[string]struct{}{},
	}
	rm := p.locator.Locate(root, homePage)

	var wg sync.WaitGroup
	run := func(task func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			task()
		}()
	}
	run(func() { p.runCatalog(ctx, rm, preloaded, res) })
	run(func() { p.runHeroes(ctx, homePage, res) })
	run(func() { p.runPolicies(ctx, rm, res) })
	run(func() { p.runFAQs(ctx, rm, res) })
	run(func() { p.runContactPage(ctx, rm, res) })
	run(func() { p.runAbout(ctx, rm, res) })

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-ctx.Done():
		// A global deadline abandons in-flight fetches; partial results are
		// never returned for a timed-out run.
		return nil, insights.NewPipelineError(insights.ErrKindTimeout, root, ctx.Err())
	case <-done:
	}

	bc := p.merge(root, homePage, res)
	log.Info("extraction merged",
		zap.Int("catalog", len(bc.Catalog)),
		zap.Int("hero_products", len(bc.HeroProducts)),
		zap.Int("faqs", len(bc.FAQs)),
		zap.Int("warnings", len(bc.Warnings)),
	)
	return bc, nil
}

// fetchRoot retrieves and parses the homepage. Any root fetch failure is the
// one condition that aborts the whole pipeline.
func (p *Pipeline) fetchRoot(ctx context.Context, root string) (insights.FetchResult, *extract.Page, *insights.PipelineError) {
	home, err := p.fetcher.Fetch(ctx, insights.FetchRequest{URL: root})
	if err != nil {
		return insights.FetchResult{}, nil, insights.NewPipelineError(insights.ErrKindTimeout, root, err)
	}
	metrics.ObserveFetch(root, string(home.Failure), len(home.Body))
	if !home.OK() {
		return insights.FetchResult{}, nil, insights.NewPipelineError(
			insights.ErrKindStoreUnreachable,
			root,
			fmt.Errorf("root fetch failed: %s (status %d)", home.Failure, home.StatusCode),
		)
	}
	page, perr := extract.NewPage(home.FinalURL, home.Body)
	if perr != nil {
		// Root reachable but unparsable; detection can still look at bytes.
		p.logger.Warn("homepage parse failed", zap.String("store", root), zap.Error(perr))
		return home, nil, nil
	}
	return home, page, nil
}

// detect decides whether the site is a Shopify storefront. When homepage
// markers are absent the products endpoint is probed once; a valid payload
// both confirms the platform and preloads the catalog. A cancelled probe is
// returned as an error so the caller classifies the run as timed out rather
// than non-Shopify.
func (p *Pipeline) detect(ctx context.Context, root string, home insights.FetchResult) ([]insights.Product, bool, error) {
	if p.detector.Matches(home.Body) {
		return nil, true, nil
	}
	probe, err := p.fetcher.Fetch(ctx, insights.FetchRequest{URL: strings.TrimRight(root, "/") + "/products.json?limit=250"})
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		return nil, false, nil
	}
	if !probe.OK() {
		return nil, false, nil
	}
	products, perr := p.catalog.Extract(probe.Body, root)
	if perr != nil {
		return nil, false, nil
	}
	return products, true, nil
}

func (p *Pipeline) runCatalog(ctx context.Context, rm locator.ResourceMap, preloaded []insights.Product, res *results) {
	defer func() {
		res.catalogCh <- res.catalog
		close(res.catalogCh)
	}()
	if preloaded != nil {
		res.catalog = preloaded
		return
	}
	for _, candidate := range rm.Catalog {
		result, err := p.fetcher.Fetch(ctx, insights.FetchRequest{URL: candidate})
		if err != nil || !result.OK() {
			continue
		}
		products, perr := p.catalog.Extract(result.Body, rootOf(candidate))
		if perr != nil {
			continue
		}
		res.catalog = products
		return
	}
	res.warn("catalog: no products endpoint yielded a parsable payload")
}

func (p *Pipeline) runHeroes(ctx context.Context, homePage *extract.Page, res *results) {
	if homePage == nil {
		return
	}
	var catalog []insights.Product
	select {
	case catalog = <-res.catalogCh:
	case <-ctx.Done():
		return
	}
	res.heroes = p.hero.Extract(homePage, catalog)
}

func (p *Pipeline) runPolicies(ctx context.Context, rm locator.ResourceMap, res *results) {
	for _, kind := range []insights.PolicyKind{
		insights.PolicyPrivacy,
		insights.PolicyReturn,
		insights.PolicyRefund,
		insights.PolicyTerms,
	} {
		for _, candidate := range rm.Policies[kind] {
			page, ok := p.fetchPage(ctx, candidate, res)
			if !ok {
				continue
			}
			doc, found := p.policies.Extract(kind, page, p.clock.Now())
			if !found {
				continue
			}
			res.mu.Lock()
			res.policies[kind] = doc
			res.mu.Unlock()
			break
		}
	}
}

func (p *Pipeline) runFAQs(ctx context.Context, rm locator.ResourceMap, res *results) {
	for _, candidate := range rm.FAQ {
		page, ok := p.fetchPage(ctx, candidate, res)
		if !ok {
			continue
		}
		if faqs := p.faqs.Extract(page); len(faqs) > 0 {
			res.faqs = faqs
			return
		}
	}
	// A store may legitimately lack a FAQ page; silence, not a warning.
}

func (p *Pipeline) runContactPage(ctx context.Context, rm locator.ResourceMap, res *results) {
	for _, candidate := range rm.Contact {
		if _, ok := p.fetchPage(ctx, candidate, res); ok {
			return
		}
	}
}

func (p *Pipeline) runAbout(ctx context.Context, rm locator.ResourceMap, res *results) {
	for _, candidate := range rm.About {
		page, ok := p.fetchPage(ctx, candidate, res)
		if !ok {
			continue
		}
		if text := p.about.Extract(page); text != "" {
			res.about = text
			return
		}
	}
}

// fetchPage retrieves and parses one HTML candidate, registering the parse
// for the cross-page scans (socials, contact). Missing pages are silent;
// server-side failures become warnings.
func (p *Pipeline) fetchPage(ctx context.Context, candidate string, res *results) (*extract.Page, bool) {
	result, err := p.fetcher.Fetch(ctx, insights.FetchRequest{URL: candidate})
	if err != nil {
		return nil, false
	}
	metrics.ObserveFetch(candidate, string(result.Failure), len(result.Body))
	if !result.OK() {
		switch result.Failure {
		case insights.FailureServerError, insights.FailureTimeout:
			res.warn("fetch %s: %s", candidate, result.Failure)
		}
		return nil, false
	}
	page, perr := extract.NewPage(result.FinalURL, result.Body)
	if perr != nil {
		res.warn("parse %s: malformed markup", candidate)
		return nil, false
	}
	res.addPage(page)
	return page, true
}

// merge assembles the BrandContext single-threaded from the completed
// slots. Output depends only on slot contents, never completion order:
// scanned pages are ordered homepage-first then by URL, and warnings are
// sorted.
func (p *Pipeline) merge(root string, homePage *extract.Page, res *results) *insights.BrandContext {
	bc := insights.NewBrandContext(root)
	bc.ExtractedAt = p.clock.Now()

	if res.catalog != nil {
		bc.Catalog = res.catalog
	}
	if res.heroes != nil {
		bc.HeroProducts = res.heroes
	}
	bc.Policies = res.policies
	if res.faqs != nil {
		bc.FAQs = res.faqs
	}
	bc.About = res.about

	scanned := orderedPages(homePage, res.pages)
	bc.Socials = p.socials.Extract(scanned...)
	bc.Contact = p.contact.Extract(scanned...)
	if homePage != nil {
		meta := p.brandMeta.Extract(homePage)
		bc.BrandName = meta.Name
		bc.Description = meta.Description
		bc.Links = p.links.Extract(homePage)
	}

	if homePage == nil {
		res.warnings = append(res.warnings, "homepage: malformed markup, link discovery skipped")
	}
	sort.Strings(res.warnings)
	bc.Warnings = append(bc.Warnings, res.warnings...)
	return bc
}

// orderedPages fixes the scan order: homepage first, remaining pages sorted
// by final URL so first-match-wins rules are completion-order independent.
func orderedPages(home *extract.Page, rest []*extract.Page) []*extract.Page {
	sorted := append([]*extract.Page(nil), rest...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].FinalURL < sorted[j].FinalURL })
	if home == nil {
		return sorted
	}
	out := make([]*extract.Page, 0, len(sorted)+1)
	out = append(out, home)
	for _, page := range sorted {
		if page.FinalURL != home.FinalURL {
			out = append(out, page)
		}
	}
	return out
}

// NormalizeStoreURL adds a https scheme when missing and strips trailing
// slashes, so equivalent inputs map to one canonical root.
func NormalizeStoreURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("store url is required")
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse store url: %w", err)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("store url %q has no host", raw)
	}
	u.Fragment = ""
	u.RawQuery = ""
	u.Path = strings.TrimRight(u.Path, "/")
	return u.String(), nil
}

func rootOf(candidate string) string {
	u, err := url.Parse(candidate)
	if err != nil {
		return candidate
	}
	return u.Scheme + "://" + u.Host
}
