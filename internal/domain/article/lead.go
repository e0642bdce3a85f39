package article

import (
	"net/url"
	"strings"
	"time"
)

// Lead is one aggregator entry pointing at a story to crawl.
type Lead struct {
	Title       string
	Description string
	URL         string // aggregator link, the dedup key
	Published   time.Time
	Publisher   Publisher
}

// Publisher is the outlet behind a lead.
type Publisher struct {
	Href  string
	Title string
}

// Page is the metadata and body text read from a publisher's page.
type Page struct {
	CanonicalURL string
	Title        string
	Description  string
	Image        string
	SiteName     string
	Favicon      string
	Authors      []string
	Tags         []string
	Published    time.Time
	Text         string
}

// Hostname returns the canonical host without a leading "www.".
func (p *Page) Hostname() string {
	u, err := url.Parse(p.CanonicalURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}

// FromPage builds an article of topic from a crawled page. Feed values fill
// what the page leaves out.
func FromPage(topic string, lead Lead, p *Page) (*Article, error) {
	a := Article{
		Topic:          topic,
		URL:            p.CanonicalURL,
		OGURL:          lead.URL,
		Title:          firstNonEmpty(p.Title, lead.Title),
		Description:    firstNonEmpty(p.Description, lead.Description),
		Thumbnail:      p.Image,
		Authors:        p.Authors,
		Hostname:       p.Hostname(),
		SiteName:       firstNonEmpty(p.SiteName, lead.Publisher.Title),
		Favicon:        p.Favicon,
		CrawledContent: p.Text,
		Tags:           p.Tags,
	}
	published := p.Published
	if published.IsZero() {
		published = lead.Published
	}
	if !published.IsZero() {
		a.PublishDate = published.UnixMilli()
	}
	return New(a)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
