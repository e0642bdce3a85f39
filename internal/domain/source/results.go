package source

// Index selects the web search index a keyword is sent to.
type Index string

// Search indexes.
const (
	IndexWeb  Index = "web"
	IndexNews Index = "news"
)

// Results is a merged web or news response.
type Results struct {
	Sources []*Source
	// Geolocal is set when the provider localized the results; City may still be empty.
	Geolocal bool
	City     string
}
