package web

import (
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/rehmatsg/quest-search-public-api/internal/domain/article"
)

var skippedTags = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Header:   true,
	atom.Footer:   true,
	atom.Nav:      true,
	atom.Aside:    true,
	atom.Template: true,
	atom.Iframe:   true,
}

var adClasses = []string{"advertisement", "promo", "ad-banner"}

func isNoise(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	if skippedTags[n.DataAtom] {
		return true
	}
	if n.DataAtom != atom.Div && n.DataAtom != atom.Section {
		return false
	}
	for _, cls := range strings.Fields(attr(n, "class")) {
		for _, ad := range adClasses {
			if cls == ad {
				return true
			}
		}
	}
	return false
}

// collectText joins the visible text nodes under n with single spaces.
func collectText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.CommentNode || isNoise(n) {
			return
		}
		if n.Type == html.TextNode {
			if text := strings.Join(strings.Fields(n.Data), " "); text != "" {
				if sb.Len() > 0 {
					sb.WriteByte(' ')
				}
				sb.WriteString(text)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

func pageText(doc *html.Node) string {
	if body := find(doc, atom.Body); body != nil {
		return collectText(body)
	}
	return collectText(doc)
}

// articleText prefers paragraphs inside <article>, then any paragraphs, then the body.
func articleText(doc *html.Node) string {
	root := find(doc, atom.Article)
	if root == nil {
		root = find(doc, atom.Main)
	}
	if root == nil {
		root = doc
	}

	var paras []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if isNoise(n) {
			return
		}
		if n.Type == html.ElementNode && n.DataAtom == atom.P {
			if t := collectText(n); len(t) > 0 {
				paras = append(paras, t)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	if len(paras) > 0 {
		return strings.Join(paras, "\n\n")
	}
	return pageText(doc)
}

func extractPage(doc *html.Node, base *url.URL) *article.Page {
	meta := readMeta(doc)
	p := &article.Page{
		CanonicalURL: meta.first("og:url"),
		Title:        meta.first("og:title", "twitter:title"),
		Description:  meta.first("og:description", "description", "twitter:description"),
		Image:        meta.first("og:image", "og:image:url", "twitter:image"),
		SiteName:     meta.first("og:site_name", "application-name"),
		Authors:      meta.all("article:author", "author"),
		Tags:         meta.all("article:tag"),
		Published: parseTime(meta.first(
			"article:published_time", "og:published_time", "pubdate", "publishdate", "date",
		)),
		Text: articleText(doc),
	}

	if p.Title == "" {
		if t := find(doc, atom.Title); t != nil {
			p.Title = strings.TrimSpace(collectTextRaw(t))
		}
	}
	if len(p.Tags) == 0 {
		for _, kw := range strings.Split(meta.first("keywords", "news_keywords"), ",") {
			if kw = strings.TrimSpace(kw); kw != "" {
				p.Tags = append(p.Tags, kw)
			}
		}
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	if p.Authors == nil {
		p.Authors = []string{}
	}

	canonical := base
	if p.CanonicalURL != "" {
		if u, err := resolve(base, p.CanonicalURL); err == nil {
			canonical = u
			p.CanonicalURL = u.String()
		}
	}
	if p.Image != "" {
		if u, err := resolve(canonical, p.Image); err == nil {
			p.Image = u.String()
		}
	}
	if icon := favicon(doc); icon != "" {
		if u, err := resolve(canonical, icon); err == nil {
			p.Favicon = u.String()
		}
	}
	return p
}

type metaTags map[string][]string

func (m metaTags) first(keys ...string) string {
	for _, k := range keys {
		if vs := m[k]; len(vs) > 0 {
			return vs[0]
		}
	}
	return ""
}

func (m metaTags) all(keys ...string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, k := range keys {
		for _, v := range m[k] {
			if !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
	}
	return out
}

func readMeta(doc *html.Node) metaTags {
	m := make(metaTags)
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Meta {
			key := attr(n, "property")
			if key == "" {
				key = attr(n, "name")
			}
			key = strings.ToLower(strings.TrimSpace(key))
			if val := strings.TrimSpace(attr(n, "content")); key != "" && val != "" {
				m[key] = append(m[key], val)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return m
}

func favicon(doc *html.Node) string {
	var icon string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if icon != "" {
			return
		}
		if n.Type == html.ElementNode && n.DataAtom == atom.Link {
			for _, rel := range strings.Fields(strings.ToLower(attr(n, "rel"))) {
				if rel == "icon" {
					icon = attr(n, "href")
					return
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return icon
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.RFC1123Z,
	time.RFC1123,
	"2006-01-02",
}

func parseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func resolve(base *url.URL, ref string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return nil, err //nolint:wrapcheck // local helper
	}
	if base == nil {
		return u, nil
	}
	return base.ResolveReference(u), nil
}

func find(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := find(c, a); found != nil {
			return found
		}
	}
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// collectTextRaw reads text without noise filtering, for elements like <title>.
func collectTextRaw(n *html.Node) string {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
	}
	return sb.String()
}
