package extract

import (
	"github.com/PuerkitoBio/goquery"

	"github.com/brandloom/shopify-insights/internal/insights"
)

// FAQStrategy is one heuristic for finding question/answer structures.
// Strategies run in order; the first to yield any pairs wins.
type FAQStrategy interface {
	Pairs(page *Page) []insights.FAQ
}

// FAQExtractor finds repeating question/answer structures on a FAQ page.
type FAQExtractor struct {
	strategies []FAQStrategy
}

// NewFAQExtractor builds a FAQExtractor; with no strategies it uses the
// accordion heuristic followed by the heading/paragraph fallback.
func NewFAQExtractor(strategies ...FAQStrategy) *FAQExtractor {
	if len(strategies) == 0 {
		strategies = []FAQStrategy{AccordionStrategy{}, HeadingPairStrategy{}}
	}
	return &FAQExtractor{strategies: strategies}
}

// Extract returns the FAQ pairs found by the first matching strategy. Pairs
// with an empty question or answer are discarded.
func (e *FAQExtractor) Extract(page *Page) []insights.FAQ {
	for _, strategy := range e.strategies {
		if pairs := dropEmptyPairs(strategy.Pairs(page)); len(pairs) > 0 {
			return pairs
		}
	}
	return []insights.FAQ{}
}

func dropEmptyPairs(pairs []insights.FAQ) []insights.FAQ {
	out := pairs[:0]
	for _, p := range pairs {
		if p.Question != "" && p.Answer != "" {
			out = append(out, p)
		}
	}
	return out
}

// AccordionStrategy matches expandable-section markup: native
// details/summary elements and accordion/faq/collapse class patterns.
type AccordionStrategy struct{}

// Pairs implements FAQStrategy.
func (AccordionStrategy) Pairs(page *Page) []insights.FAQ {
	var faqs []insights.FAQ

	page.Doc.Find("details").Each(func(_ int, item *goquery.Selection) {
		question := CleanText(item.Find("summary").First().Text())
		answer := item.Clone()
		answer.Find("summary").Remove()
		faqs = append(faqs, insights.FAQ{
			Question: question,
			Answer:   CleanText(answer.Text()),
		})
	})

	page.Doc.Find("div[class*=accordion], div[class*=faq-item], div[class*=collapse]").
		Each(func(_ int, item *goquery.Selection) {
			question := item.Find("[class*=question], [class*=header], [class*=title], h3, h4, button").First()
			answer := item.Find("[class*=answer], [class*=content], [class*=body], p").First()
			faqs = append(faqs, insights.FAQ{
				Question: CleanText(question.Text()),
				Answer:   CleanText(answer.Text()),
			})
		})

	return faqs
}

// HeadingPairStrategy treats each h3/h4/strong heading followed by a
// paragraph or div as one question/answer pair.
type HeadingPairStrategy struct{}

// Pairs implements FAQStrategy.
func (HeadingPairStrategy) Pairs(page *Page) []insights.FAQ {
	var faqs []insights.FAQ
	page.Doc.Find("h3, h4, strong").Each(func(_ int, heading *goquery.Selection) {
		answer := heading.NextFiltered("p, div").First()
		if answer.Length() == 0 {
			answer = heading.Parent().NextFiltered("p, div").First()
		}
		faqs = append(faqs, insights.FAQ{
			Question: CleanText(heading.Text()),
			Answer:   CleanText(answer.Text()),
		})
	})
	return faqs
}
