// Package ipgeo resolves caller addresses with ipgeolocation.io.
package ipgeo

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rehmatsg/quest-search-public-api/internal/domain/geo"
	"github.com/rehmatsg/quest-search-public-api/internal/transport/apiclient"
)

// Client calls the ipgeolocation.io API.
type Client struct {
	api    *apiclient.Client
	apiKey string
}

// Config holds the ipgeolocation settings.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// New creates an ipgeolocation client.
func New(cfg Config) *Client {
	return &Client{
		api:    apiclient.New("ipgeo", cfg.BaseURL, cfg.Timeout, nil),
		apiKey: cfg.APIKey,
	}
}

// Locate returns the best-effort location of an IP address.
func (c *Client) Locate(ctx context.Context, ip string) (*geo.Geolocation, error) {
	params := url.Values{"ip": {ip}, "apiKey": {c.apiKey}}

	var resp struct {
		CountryName string     `json:"country_name"`
		City        string     `json:"city"`
		Latitude    coordinate `json:"latitude"`
		Longitude   coordinate `json:"longitude"`
		Zipcode     string     `json:"zipcode"`
	}
	if err := c.api.GetJSON(ctx, "ipgeo", "/ipgeo", params, nil, &resp); err != nil {
		return nil, fmt.Errorf("ipgeo lookup: %w", err)
	}

	return &geo.Geolocation{
		Country:   resp.CountryName,
		City:      resp.City,
		Latitude:  resp.Latitude.value,
		Longitude: resp.Longitude.value,
		Zipcode:   resp.Zipcode,
	}, nil
}

// coordinate accepts a number or a numeric string; anything else is unknown.
type coordinate struct {
	value *float64
}

func (c *coordinate) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "" || s == "null" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil //nolint:nilerr // unparsable coordinates are treated as missing
	}
	c.value = &v
	return nil
}
