// Package place holds local business listings returned by the place provider.
package place

import (
	"strconv"
	"strings"
)

// Location is the postal address of a place.
type Location struct {
	Address1       string   `json:"address1,omitempty"`
	Address2       string   `json:"address2,omitempty"`
	Address3       string   `json:"address3,omitempty"`
	City           string   `json:"city,omitempty"`
	ZipCode        string   `json:"zip_code,omitempty"`
	Country        string   `json:"country,omitempty"`
	State          string   `json:"state,omitempty"`
	DisplayAddress []string `json:"display_address"`
}

// Coordinates is a latitude/longitude pair in degrees.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Category is a business category.
type Category struct {
	Alias string `json:"alias"`
	Title string `json:"title"`
}

// Place is a single business listing.
type Place struct {
	ID           string      `json:"id"`
	Alias        string      `json:"alias"`
	Name         string      `json:"name"`
	ImageURL     string      `json:"image_url,omitempty"`
	IsClosed     bool        `json:"is_closed"`
	URL          string      `json:"url"`
	Coordinates  Coordinates `json:"coordinates"`
	Phone        string      `json:"phone,omitempty"`
	DisplayPhone string      `json:"display_phone,omitempty"`
	Distance     float64     `json:"distance,omitempty"` // meters from the caller
	Rating       float64     `json:"rating,omitempty"`
	ReviewCount  int         `json:"review_count,omitempty"`
	Location     Location    `json:"location"`
	Price        string      `json:"price,omitempty"`
	Categories   []Category  `json:"categories,omitempty"`
}

// Context renders the listing as the plain-text block fed to the LLM.
func (p *Place) Context() string {
	var b strings.Builder
	b.WriteString(p.Name)
	b.WriteString("\n")
	b.WriteString("Rating: ")
	b.WriteString(strconv.FormatFloat(p.Rating, 'f', -1, 64))
	b.WriteString(" stars for ")
	b.WriteString(strconv.Itoa(p.ReviewCount))
	b.WriteString(" reviews\n")
	b.WriteString("Location: ")
	b.WriteString(strings.Join(p.Location.DisplayAddress, " "))
	b.WriteString("\n")
	b.WriteString("Phone: ")
	b.WriteString(p.DisplayPhone)
	b.WriteString("\n")
	if p.IsClosed {
		b.WriteString("Currently Closed\n")
	}
	return b.String()
}
