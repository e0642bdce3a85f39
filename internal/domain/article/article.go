// Package article is the news crawler's output and the input of article summaries.
package article

import (
	"fmt"
	"strings"
	"time"

	"github.com/rehmatsg/quest-search-public-api/internal/domain"
	"github.com/rehmatsg/quest-search-public-api/internal/domain/source"
)

// TopicLatest is the pseudo-topic for top stories.
const TopicLatest = "LATEST"

// Topics are the aggregator sections crawled besides top stories.
var Topics = []string{
	"WORLD", "NATION", "BUSINESS", "TECHNOLOGY",
	"ENTERTAINMENT", "SPORTS", "SCIENCE", "HEALTH",
}

// Article is a crawled news story.
type Article struct {
	ID             string   `json:"id"`
	Topic          string   `json:"topic"`
	URL            string   `json:"url"`
	OGURL          string   `json:"og_url"`
	Title          string   `json:"title"`
	Description    string   `json:"description,omitempty"`
	Thumbnail      string   `json:"thumbnail"`
	Authors        []string `json:"authors"`
	Hostname       string   `json:"hostname"`
	SiteName       string   `json:"site_name"`
	Favicon        string   `json:"favicon,omitempty"`
	CrawledContent string   `json:"crawled_content"`
	PublishDate    int64    `json:"publish_date"`
	Tags           []string `json:"tags"`
	ThreadID       string   `json:"thread_id,omitempty"`
	Summary        string   `json:"summary,omitempty"`
	CrawledAt      int64    `json:"crawled_at"`
}

// New assigns an id and crawl time and checks required fields.
// The aggregator link is used for dedup; url is the publisher's canonical link.
func New(a Article) (*Article, error) {
	a.ID = domain.NewID(domain.ArticleIDLength)
	a.Topic = strings.ToUpper(a.Topic)
	a.Hostname = strings.TrimPrefix(a.Hostname, "www.")
	if a.CrawledAt == 0 {
		a.CrawledAt = time.Now().UnixMilli()
	}
	if a.Authors == nil {
		a.Authors = []string{}
	}
	if a.Tags == nil {
		a.Tags = []string{}
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return &a, nil
}

// Validate rejects articles missing any field a feed card or summary needs.
func (a *Article) Validate() error {
	missing := []string{}
	check := func(name, v string) {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	check("url", a.URL)
	check("og_url", a.OGURL)
	check("title", a.Title)
	check("thumbnail", a.Thumbnail)
	check("hostname", a.Hostname)
	check("site_name", a.SiteName)
	check("crawled_content", a.CrawledContent)
	if len(missing) > 0 {
		return fmt.Errorf("%w: article missing %s", domain.ErrInvalidInput, strings.Join(missing, ", "))
	}
	return nil
}

// Linked reports whether a summary thread was already generated.
func (a *Article) Linked() bool { return a.ThreadID != "" }

// Source converts the article into the featured source of its summary turn.
func (a *Article) Source() *source.Source {
	return &source.Source{
		URL:         a.URL,
		ResultType:  source.TypeArticle,
		Title:       a.Title,
		Hostname:    a.Hostname,
		Description: a.Description,
		Favicon:     a.Favicon,
		Thumbnail:   a.Thumbnail,
	}
}

// Published returns the publish date, zero when unknown.
func (a *Article) Published() time.Time {
	if a.PublishDate == 0 {
		return time.Time{}
	}
	return time.UnixMilli(a.PublishDate)
}
