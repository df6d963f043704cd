package navigator

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Card is one job posting extracted from a listing page: the well-typed
// record the pipeline works with. External marks postings that route to a
// different host (an external ATS) instead of the site's own apply flow.
type Card struct {
	Title    string
	Company  string
	URL      string
	External bool
}

// CardParser turns a rendered listing page into Cards. The default
// implementation handles common job-board markup; tests use scripted
// fakes.
type CardParser interface {
	Parse(pageHTML string) ([]Card, error)
}

// ListingParser extracts cards with CSS selectors. The card selector is
// configurable per target site; title/company/link lookup inside a card
// uses a small set of common fallbacks.
type ListingParser struct {
	cardSelector string
	siteHost     string
}

// NewListingParser builds a parser for listings hosted on siteURL; links
// pointing off that host are flagged External.
func NewListingParser(cardSelector, siteURL string) *ListingParser {
	host := ""
	if u, err := url.Parse(siteURL); err == nil {
		host = u.Host
	}
	return &ListingParser{cardSelector: cardSelector, siteHost: host}
}

func (p *ListingParser) Parse(pageHTML string) ([]Card, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return nil, fmt.Errorf("parse listing page: %w", err)
	}

	var cards []Card
	doc.Find(p.cardSelector).Each(func(_ int, sel *goquery.Selection) {
		card, ok := p.parseCard(sel)
		if ok {
			cards = append(cards, card)
		}
	})
	return cards, nil
}

func (p *ListingParser) parseCard(sel *goquery.Selection) (Card, bool) {
	link := sel.Find("a[href]").First()
	href, _ := link.Attr("href")
	href = strings.TrimSpace(href)
	if href == "" {
		return Card{}, false
	}

	title := firstText(sel, "[data-testid='job-title']", "h2", "h3")
	if title == "" {
		title = strings.TrimSpace(link.Text())
	}
	company := firstText(sel, "[data-testid='job-company']", ".company", "h4")

	external := false
	if u, err := url.Parse(href); err == nil && u.Host != "" && p.siteHost != "" {
		external = u.Host != p.siteHost
	}

	return Card{Title: title, Company: company, URL: href, External: external}, true
}

// descriptionSelectors, in preference order. The body fallback means a
// detail page always yields something to feed the language filter and the
// scorer.
var descriptionSelectors = []string{
	"[data-testid='expandable-content']",
	"[data-testid='job-description']",
	"main", "article", "body",
}

// ExtractDescription pulls the posting text out of a job detail page.
func ExtractDescription(pageHTML string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return "", fmt.Errorf("parse detail page: %w", err)
	}
	for _, s := range descriptionSelectors {
		if t := strings.TrimSpace(doc.Find(s).First().Text()); t != "" {
			return t, nil
		}
	}
	return "", nil
}

func firstText(sel *goquery.Selection, selectors ...string) string {
	for _, s := range selectors {
		if t := strings.TrimSpace(sel.Find(s).First().Text()); t != "" {
			return t
		}
	}
	return ""
}
