// Package gnews reads Google News RSS feeds.
package gnews

import (
	"context"
	"encoding/xml"
	"fmt"
	"html"
	"net/url"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/rehmatsg/quest-search-public-api/internal/domain/article"
	"github.com/rehmatsg/quest-search-public-api/internal/transport/apiclient"
)

// Client fetches Google News feeds.
type Client struct {
	api      *apiclient.Client
	language string
	country  string
	policy   *bluemonday.Policy
}

// Config holds the feed settings.
type Config struct {
	BaseURL  string
	Language string
	Country  string
	Timeout  time.Duration
}

// New creates a feed client.
func New(cfg Config) *Client {
	lang, country := cfg.Language, cfg.Country
	if lang == "" {
		lang = "en"
	}
	if country == "" {
		country = "US"
	}
	return &Client{
		api:      apiclient.New("gnews", cfg.BaseURL, cfg.Timeout, nil),
		language: lang,
		country:  country,
		policy:   bluemonday.StrictPolicy(),
	}
}

// Items returns the feed for a topic; article.TopicLatest returns top stories.
func (c *Client) Items(ctx context.Context, topic string) ([]article.Lead, error) {
	path := "/rss"
	if topic != "" && topic != article.TopicLatest {
		path = "/rss/headlines/section/topic/" + url.PathEscape(strings.ToUpper(topic))
	}
	params := url.Values{
		"hl":   {c.language + "-" + c.country},
		"gl":   {c.country},
		"ceid": {c.country + ":" + c.language},
	}

	body, err := c.api.Get(ctx, "rss", path, params, nil)
	if err != nil {
		return nil, fmt.Errorf("gnews %s: %w", topic, err)
	}

	var root rssRoot
	if err := xml.Unmarshal(body, &root); err != nil {
		return nil, fmt.Errorf("gnews %s: parse rss: %w", topic, err)
	}

	items := make([]article.Lead, 0, len(root.Channel.Items))
	for _, it := range root.Channel.Items {
		link := strings.TrimSpace(it.Link)
		if link == "" {
			continue
		}
		items = append(items, article.Lead{
			Title:       strings.TrimSpace(it.Title),
			Description: c.clean(it.Description),
			URL:         link,
			Published:   parsePubDate(it.PubDate),
			Publisher: article.Publisher{
				Href:  strings.TrimSpace(it.Source.URL),
				Title: strings.TrimSpace(it.Source.Title),
			},
		})
	}
	return items, nil
}

// clean strips markup from a feed description and collapses whitespace.
func (c *Client) clean(s string) string {
	text := html.UnescapeString(c.policy.Sanitize(s))
	return strings.Join(strings.Fields(text), " ")
}

type rssRoot struct {
	XMLName xml.Name `xml:"rss"`
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate"`
	Source      struct {
		URL   string `xml:"url,attr"`
		Title string `xml:",chardata"`
	} `xml:"source"`
}

func parsePubDate(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.RFC1123, time.RFC1123Z} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
