// Package geo holds the caller location snapshot and distance helpers.
package geo

import "strconv"

// Geolocation is a best-effort caller location. Every field is optional.
type Geolocation struct {
	Country   string   `json:"country,omitempty"`
	City      string   `json:"city,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Zipcode   string   `json:"zipcode,omitempty"`
}

// Resolved reports whether the location is precise enough for a place search:
// a city plus both coordinates. Nil is unresolved.
func (g *Geolocation) Resolved() bool {
	if g == nil {
		return false
	}
	return g.City != "" && g.Latitude != nil && g.Longitude != nil
}

// Coordinates returns latitude and longitude when both are known.
func (g *Geolocation) Coordinates() (lat, lon float64, ok bool) {
	if g == nil || g.Latitude == nil || g.Longitude == nil {
		return 0, 0, false
	}
	return *g.Latitude, *g.Longitude, true
}

// LatitudeString formats the latitude for provider headers; empty when unknown.
func (g *Geolocation) LatitudeString() string {
	if g == nil || g.Latitude == nil {
		return ""
	}
	return strconv.FormatFloat(*g.Latitude, 'f', -1, 64)
}

// LongitudeString formats the longitude for provider headers; empty when unknown.
func (g *Geolocation) LongitudeString() string {
	if g == nil || g.Longitude == nil {
		return ""
	}
	return strconv.FormatFloat(*g.Longitude, 'f', -1, 64)
}

// Float returns a pointer to v, for building optional coordinates.
func Float(v float64) *float64 { return &v }
