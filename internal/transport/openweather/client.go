// Package openweather fetches current weather for the news feed.
package openweather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/rehmatsg/quest-search-public-api/internal/domain"
	"github.com/rehmatsg/quest-search-public-api/internal/domain/geo"
	"github.com/rehmatsg/quest-search-public-api/internal/transport/apiclient"
)

// Client calls the OpenWeather current weather API.
type Client struct {
	api    *apiclient.Client
	apiKey string
}

// Config holds the OpenWeather settings.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// New creates an OpenWeather client.
func New(cfg Config) *Client {
	return &Client{
		api:    apiclient.New("openweather", cfg.BaseURL, cfg.Timeout, nil),
		apiKey: cfg.APIKey,
	}
}

// Current returns the provider's weather document for the location, passed
// through to clients unchanged.
func (c *Client) Current(ctx context.Context, loc *geo.Geolocation) (json.RawMessage, error) {
	if _, _, ok := loc.Coordinates(); !ok {
		return nil, fmt.Errorf("weather: %w", domain.ErrLocationUnavailable)
	}
	params := url.Values{
		"lat":   {loc.LatitudeString()},
		"lon":   {loc.LongitudeString()},
		"cnt":   {"7"},
		"appid": {c.apiKey},
	}
	body, err := c.api.Get(ctx, "current", "/data/2.5/weather", params, nil)
	if err != nil {
		return nil, fmt.Errorf("weather: %w", err)
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("weather: invalid json: %w", domain.ErrProviderUnavailable)
	}
	return json.RawMessage(body), nil
}
