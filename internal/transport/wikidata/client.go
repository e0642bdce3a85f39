// Package wikidata builds knowledge panels from Wikidata entity search and SPARQL.
package wikidata

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rehmatsg/quest-search-public-api/internal/domain/knowledge"
	"github.com/rehmatsg/quest-search-public-api/internal/transport/apiclient"
)

const userAgent = "quest-search/1.0 (knowledge panel)"

// Panel link properties.
var linkProperties = map[string]string{
	"P18":   "image",
	"P2002": "twitter",
	"P2013": "facebook",
	"P2003": "instagram",
	"P6634": "linkedin",
	"P856":  "website",
}

// Attribute properties shown as labelled rows.
var attributeProperties = map[string]string{
	"P106":  "Occupation",
	"P101":  "Field of Work",
	"P800":  "Notable Work",
	"P27":   "Nationality",
	"P569":  "Date of Birth",
	"P22":   "Father",
	"P25":   "Mother",
	"P3373": "Siblings",
	"P26":   "Spouse",
	"P40":   "Children",
	"P2218": "Net Worth",
	"P108":  "Employer",
	"P39":   "Position Held",
	"P2048": "Height",
	"P102":  "Political Affiliation",
	"P69":   "Educated at",
	"P1376": "Capital Of",
	"P2046": "Area",
	"P1082": "Population",
	"P36":   "Capital",
	"P6":    "Head of Government",
	"P571":  "Inception",
	"P169":  "CEO",
	"P452":  "Industry",
	"P159":  "Headquarters",
	"P112":  "Founded by",
	"P3320": "Board Members",
	"P17":   "Country",
	"P1128": "Employees",
	"P166":  "Award Received",
	"P1830": "Owner of",
}

var linkPrefixes = map[string]string{
	"image":     "https://commons.wikimedia.org/wiki/Special:FilePath/",
	"twitter":   "https://twitter.com/",
	"facebook":  "https://www.facebook.com/",
	"instagram": "https://www.instagram.com/",
	"linkedin":  "https://www.linkedin.com/in/",
}

// Client resolves entities against Wikidata.
type Client struct {
	search   *apiclient.Client
	sparql   *apiclient.Client
	language string
}

// Config holds the Wikidata settings.
type Config struct {
	APIURL    string
	SPARQLURL string
	Language  string
	Timeout   time.Duration
}

// New creates a Wikidata client.
func New(cfg Config) *Client {
	headers := http.Header{"User-Agent": {userAgent}}
	lang := cfg.Language
	if lang == "" {
		lang = "en"
	}
	return &Client{
		search:   apiclient.New("wikidata", cfg.APIURL, cfg.Timeout, headers),
		sparql:   apiclient.New("wikidata", cfg.SPARQLURL, cfg.Timeout, headers),
		language: lang,
	}
}

// Panel resolves the entity name and returns its panel, or nil when the
// entity is unknown or has no statements.
func (c *Client) Panel(ctx context.Context, entity string) (*knowledge.Panel, error) {
	hit, err := c.searchEntity(ctx, entity)
	if err != nil || hit == nil {
		return nil, err
	}

	bindings, err := c.statements(ctx, hit.ID)
	if err != nil {
		return nil, err
	}
	if len(bindings) == 0 {
		return nil, nil
	}

	panel := buildPanel(bindings)
	panel.Label = hit.Display.Label.Value
	panel.Description = hit.Display.Description.Value
	if panel.Label == "" {
		panel.Label = hit.Label
	}
	if panel.Description == "" {
		panel.Description = hit.Description
	}
	return panel, nil
}

type entityHit struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description"`
	Display     struct {
		Label struct {
			Value string `json:"value"`
		} `json:"label"`
		Description struct {
			Value string `json:"value"`
		} `json:"description"`
	} `json:"display"`
}

func (c *Client) searchEntity(ctx context.Context, entity string) (*entityHit, error) {
	params := url.Values{
		"action":   {"wbsearchentities"},
		"language": {c.language},
		"format":   {"json"},
		"search":   {entity},
	}
	var resp struct {
		Search []entityHit `json:"search"`
	}
	if err := c.search.GetJSON(ctx, "search", "", params, nil, &resp); err != nil {
		return nil, fmt.Errorf("wikidata entity search: %w", err)
	}
	if len(resp.Search) == 0 {
		return nil, nil
	}
	return &resp.Search[0], nil
}

type binding struct {
	Property struct {
		Value string `json:"value"`
	} `json:"property"`
	ValueLabel *struct {
		Value string `json:"value"`
	} `json:"valueLabel"`
}

func (c *Client) statements(ctx context.Context, qid string) ([]binding, error) {
	query := fmt.Sprintf(`SELECT ?property ?propertyLabel ?value ?valueLabel
WHERE {
  wd:%s ?property ?value .
  SERVICE wikibase:label { bd:serviceParam wikibase:language "%s". }
}`, qid, c.language)

	params := url.Values{"query": {query}, "format": {"json"}}
	extra := http.Header{"Accept": {"application/sparql-results+json"}}

	var resp struct {
		Results struct {
			Bindings []binding `json:"bindings"`
		} `json:"results"`
	}
	if err := c.sparql.GetJSON(ctx, "sparql", "", params, extra, &resp); err != nil {
		return nil, fmt.Errorf("wikidata sparql: %w", err)
	}
	return resp.Results.Bindings, nil
}

func buildPanel(bindings []binding) *knowledge.Panel {
	links := make(map[string]string)
	attrs := make(map[string][]string)

	for _, b := range bindings {
		if b.ValueLabel == nil {
			continue
		}
		value := b.ValueLabel.Value
		if value == "" || strings.HasPrefix(value, "statement/") {
			continue
		}
		prop := b.Property.Value
		if i := strings.LastIndex(prop, "/"); i >= 0 {
			prop = prop[i+1:]
		}
		if name, ok := linkProperties[prop]; ok {
			if _, seen := links[name]; !seen {
				links[name] = expandLink(name, value)
			}
			continue
		}
		if name, ok := attributeProperties[prop]; ok && !contains(attrs[name], value) {
			attrs[name] = append(attrs[name], value)
		}
	}

	p := &knowledge.Panel{
		Image:     links["image"],
		Twitter:   links["twitter"],
		Facebook:  links["facebook"],
		Instagram: links["instagram"],
		LinkedIn:  links["linkedin"],
		Website:   links["website"],
	}
	if len(attrs) > 0 {
		p.Attributes = attrs
	}
	return p
}

// expandLink turns handles and file names into absolute links.
func expandLink(kind, value string) string {
	if strings.HasPrefix(value, "http://") {
		return "https://" + strings.TrimPrefix(value, "http://")
	}
	if strings.HasPrefix(value, "https://") {
		return value
	}
	prefix, ok := linkPrefixes[kind]
	if !ok {
		return value
	}
	if kind == "image" {
		return prefix + url.PathEscape(strings.ReplaceAll(value, " ", "_"))
	}
	return prefix + strings.TrimPrefix(value, "@")
}

func contains(vs []string, v string) bool {
	for _, x := range vs {
		if x == v {
			return true
		}
	}
	return false
}
