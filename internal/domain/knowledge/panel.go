// Package knowledge holds the entity panel rendered next to search results.
package knowledge

// Panel is a structured summary of a named entity.
type Panel struct {
	Label       string              `json:"label"`
	Description string              `json:"description,omitempty"`
	Image       string              `json:"image,omitempty"`
	Twitter     string              `json:"twitter,omitempty"`
	Facebook    string              `json:"facebook,omitempty"`
	Instagram   string              `json:"instagram,omitempty"`
	LinkedIn    string              `json:"linkedin,omitempty"`
	Website     string              `json:"website,omitempty"`
	Attributes  map[string][]string `json:"attributes,omitempty"`
}

// SameEntity reports whether two panels describe the same label.
func (p *Panel) SameEntity(other *Panel) bool {
	if p == nil || other == nil {
		return false
	}
	return p.Label == other.Label
}
