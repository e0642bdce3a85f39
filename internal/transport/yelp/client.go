// Package yelp adapts the Yelp Fusion business search to place listings.
package yelp

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rehmatsg/quest-search-public-api/internal/domain"
	"github.com/rehmatsg/quest-search-public-api/internal/domain/geo"
	"github.com/rehmatsg/quest-search-public-api/internal/domain/place"
	"github.com/rehmatsg/quest-search-public-api/internal/transport/apiclient"
)

const resultLimit = "20"

// Client calls the Yelp Fusion API.
type Client struct {
	api *apiclient.Client
}

// Config holds the Yelp settings.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// New creates a Yelp client.
func New(cfg Config) *Client {
	return &Client{
		api: apiclient.New("yelp", cfg.BaseURL, cfg.Timeout, http.Header{
			"Authorization": {"Bearer " + cfg.APIKey},
		}),
	}
}

// Search returns the best matching businesses around the caller.
// The caller location must be resolved.
func (c *Client) Search(ctx context.Context, term string, loc *geo.Geolocation) ([]place.Place, error) {
	lat, lon, ok := loc.Coordinates()
	if !ok || loc.City == "" {
		return nil, fmt.Errorf("yelp search: %w", domain.ErrLocationUnavailable)
	}

	params := url.Values{
		"sort_by":   {"best_match"},
		"limit":     {resultLimit},
		"term":      {term},
		"latitude":  {loc.LatitudeString()},
		"longitude": {loc.LongitudeString()},
		"location":  {loc.City},
	}

	var resp struct {
		Businesses []place.Place `json:"businesses"`
	}
	if err := c.api.GetJSON(ctx, "search", "/v3/businesses/search", params, nil, &resp); err != nil {
		return nil, fmt.Errorf("yelp search: %w", err)
	}

	places := resp.Businesses
	if places == nil {
		places = []place.Place{}
	}
	for i := range places {
		p := &places[i]
		if p.Distance == 0 && (p.Coordinates.Latitude != 0 || p.Coordinates.Longitude != 0) {
			p.Distance = geo.Haversine(lat, lon, p.Coordinates.Latitude, p.Coordinates.Longitude)
		}
	}
	return places, nil
}
