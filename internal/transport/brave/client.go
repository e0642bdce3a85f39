// Package brave adapts the Brave Search API to web, news and image sources.
package brave

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rehmatsg/quest-search-public-api/internal/domain/geo"
	"github.com/rehmatsg/quest-search-public-api/internal/domain/source"
	"github.com/rehmatsg/quest-search-public-api/internal/transport/apiclient"
)

// Client calls the Brave Search API.
type Client struct {
	api *apiclient.Client
}

// Config holds the Brave settings.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// New creates a Brave client.
func New(cfg Config) *Client {
	return &Client{
		api: apiclient.New("brave", cfg.BaseURL, cfg.Timeout, http.Header{
			"X-Subscription-Token": {cfg.APIKey},
		}),
	}
}

// Search queries the web or news index and flattens the response into sources.
func (c *Client) Search(ctx context.Context, query string, kind source.Index, loc *geo.Geolocation) (source.Results, error) {
	params := url.Values{
		"q":                {query},
		"text_decorations": {"false"},
	}
	var resp searchResponse
	path := fmt.Sprintf("/res/v1/%s/search", kind)
	if err := c.api.GetJSON(ctx, string(kind), path, params, locationHeaders(loc), &resp); err != nil {
		return source.Results{}, fmt.Errorf("brave %s search: %w", kind, err)
	}
	return resp.merge(), nil
}

// Images returns image sources for the query.
func (c *Client) Images(ctx context.Context, query string, loc *geo.Geolocation) ([]*source.Source, error) {
	var resp struct {
		Results []imageResult `json:"results"`
	}
	params := url.Values{"q": {query}}
	if err := c.api.GetJSON(ctx, "images", "/res/v1/images/search", params, locationHeaders(loc), &resp); err != nil {
		return nil, fmt.Errorf("brave image search: %w", err)
	}

	out := make([]*source.Source, 0, len(resp.Results))
	for _, r := range resp.Results {
		out = append(out, &source.Source{
			URL:        r.URL,
			ResultType: source.TypeImage,
			Title:      r.Title,
			Hostname:   r.MetaURL.Hostname,
			Favicon:    r.MetaURL.Favicon,
			Thumbnail:  r.Thumbnail.Src,
		})
	}
	return out, nil
}

func locationHeaders(loc *geo.Geolocation) http.Header {
	h := http.Header{}
	if lat := loc.LatitudeString(); lat != "" {
		h.Set("X-Loc-Lat", lat)
	}
	if lon := loc.LongitudeString(); lon != "" {
		h.Set("X-Loc-Long", lon)
	}
	return h
}

type metaURL struct {
	Hostname string `json:"hostname"`
	Favicon  string `json:"favicon"`
}

type result struct {
	URL           string   `json:"url"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	ExtraSnippets []string `json:"extra_snippets"`
	MetaURL       metaURL  `json:"meta_url"`
	Thumbnail     struct {
		Src string `json:"src"`
	} `json:"thumbnail"`
}

type imageResult struct {
	URL       string  `json:"url"`
	Title     string  `json:"title"`
	MetaURL   metaURL `json:"meta_url"`
	Thumbnail struct {
		Src string `json:"src"`
	} `json:"thumbnail"`
}

type mixedEntry struct {
	Type  string `json:"type"`
	Index int    `json:"index"`
	All   bool   `json:"all"`
}

// searchResponse keeps each typed section raw; which sections exist depends on the query.
type searchResponse struct {
	Type  string `json:"type"`
	Query struct {
		IsGeolocal bool   `json:"is_geolocal"`
		City       string `json:"city"`
	} `json:"query"`
	Mixed struct {
		Main []mixedEntry `json:"main"`
	} `json:"mixed"`
	// Results is populated by the news index.
	Results  []result                   `json:"results"`
	Sections map[string]json.RawMessage `json:"-"`
}

func (r *searchResponse) UnmarshalJSON(data []byte) error {
	type plain searchResponse
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err //nolint:wrapcheck // decoded by apiclient which wraps
	}
	var sections map[string]json.RawMessage
	if err := json.Unmarshal(data, &sections); err != nil {
		return err //nolint:wrapcheck // same as above
	}
	*r = searchResponse(p)
	r.Sections = sections
	return nil
}

func (r *searchResponse) section(name string) []result {
	raw, ok := r.Sections[name]
	if !ok {
		return nil
	}
	var sec struct {
		Results []result `json:"results"`
	}
	if json.Unmarshal(raw, &sec) != nil {
		return nil
	}
	return sec.Results
}

// merge flattens the mixed ranking into sources. Entries with "all" pull the
// whole section; others pick one result by index.
func (r *searchResponse) merge() source.Results {
	out := source.Results{
		Sources:  []*source.Source{},
		Geolocal: r.Query.IsGeolocal,
		City:     r.Query.City,
	}

	if r.Type != "search" {
		for i := range r.Results {
			out.Sources = append(out.Sources, toSource(&r.Results[i], source.TypeNews))
		}
		return out
	}

	cache := make(map[string][]result)
	for _, e := range r.Mixed.Main {
		results, ok := cache[e.Type]
		if !ok {
			results = r.section(e.Type)
			cache[e.Type] = results
		}
		if e.All {
			for i := range results {
				out.Sources = append(out.Sources, toSource(&results[i], e.Type))
			}
			continue
		}
		if e.Index >= 0 && e.Index < len(results) {
			out.Sources = append(out.Sources, toSource(&results[e.Index], e.Type))
		}
	}
	return out
}

func toSource(r *result, resultType string) *source.Source {
	return &source.Source{
		URL:         r.URL,
		ResultType:  resultType,
		Title:       r.Title,
		Hostname:    r.MetaURL.Hostname,
		Description: r.Description,
		Snippet:     strings.Join(r.ExtraSnippets, " "),
		Favicon:     r.MetaURL.Favicon,
		Thumbnail:   r.Thumbnail.Src,
	}
}
