package cache

import (
	"fmt"
	"sort"
	"strings"
)

// All cache tables share one layout: a JSON payload keyed by cache_key with
// its own expiry, so positive and negative entries can live side by side.
const tableSchema = `
CREATE TABLE IF NOT EXISTS %[1]s (
	cache_key TEXT PRIMARY KEY NOT NULL,
	data TEXT NOT NULL,
	cached_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	expires_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_%[1]s_expires_at ON %[1]s(expires_at);
`

// Cache table names, one per provider endpoint family.
const (
	GoogleBooksTable       = "googlebooks_cache"
	OpenLibraryTable       = "openlibrary_cache"
	OpenLibraryAuthorTable = "openlibrary_author_cache"
	WikipediaTable         = "wikipedia_cache"
)

// ValidCacheTableNames is the whitelist of allowed cache table names.
// Used to prevent SQL injection when interpolating table names.
var ValidCacheTableNames = map[string]bool{
	GoogleBooksTable:       true,
	OpenLibraryTable:       true,
	OpenLibraryAuthorTable: true,
	WikipediaTable:         true,
}

// sourceTables maps the user-facing source names to their tables.
var sourceTables = map[string][]string{
	"googlebooks": {GoogleBooksTable},
	"openlibrary": {OpenLibraryTable, OpenLibraryAuthorTable},
	"wikipedia":   {WikipediaTable},
}

// TablesForSource resolves a source name ("googlebooks", "openlibrary",
// "wikipedia") to its cache tables. An empty source selects every table.
func TablesForSource(source string) ([]string, error) {
	if source == "" {
		tables := make([]string, 0, len(ValidCacheTableNames))
		for name := range ValidCacheTableNames {
			tables = append(tables, name)
		}
		sort.Strings(tables)
		return tables, nil
	}
	tables, ok := sourceTables[source]
	if !ok {
		valid := make([]string, 0, len(sourceTables))
		for name := range sourceTables {
			valid = append(valid, name)
		}
		sort.Strings(valid)
		return nil, fmt.Errorf("invalid cache source %q; valid sources are: %s", source, strings.Join(valid, ", "))
	}
	return tables, nil
}

func schemaFor(table string) string {
	return fmt.Sprintf(tableSchema, table)
}
