package article

import "github.com/rehmatsg/quest-search-public-api/internal/db"

const indexSuffix = "article:idx"

// buildIndex defines the topic/publish-date index over stored articles.
func buildIndex(prefix string) *db.IndexDefinition {
	return db.NewIndex(indexName(prefix)).
		OnJSON().
		Prefix(prefix + "article:").
		Tag("$.topic").As("topic").
		Numeric("$.publish_date").As("publish_date").Sortable().
		MustBuild()
}

func indexName(prefix string) string {
	return prefix + indexSuffix
}
