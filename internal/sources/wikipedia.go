package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/lepinkainen/libris/internal/cache"
	apperrors "github.com/lepinkainen/libris/internal/errors"
)

const (
	wikipediaProvider = "wikipedia"
	wikipediaBaseURL  = "https://{lang}.wikipedia.org"
	wikipediaTimeout  = 8 * time.Second

	notFoundType = "https://mediawiki.org/wiki/HyperSwitch/errors/not_found"
)

// ErrPageNotFound is returned when Wikipedia has no page for the title.
var ErrPageNotFound = errors.New("wikipedia: page not found")

// Wikipedia is a client for the REST page summary and opensearch APIs.
// The base URL contains a {lang} placeholder.
type Wikipedia struct {
	client
}

// NewWikipedia creates a Wikipedia client.
func NewWikipedia(opts ...Option) *Wikipedia {
	return &Wikipedia{client: newClient(wikipediaProvider, wikipediaBaseURL, wikipediaTimeout, opts)}
}

// Thumbnail is the lead image of a summary.
type Thumbnail struct {
	Source string `json:"source"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// PageSummary is the subset of /api/rest_v1/page/summary the enrichment uses.
type PageSummary struct {
	Type      string     `json:"type"`
	Title     string     `json:"title"`
	Extract   string     `json:"extract,omitempty"`
	Thumbnail *Thumbnail `json:"thumbnail,omitempty"`
}

// ThumbnailURL returns the thumbnail source or "".
func (p *PageSummary) ThumbnailURL() string {
	if p == nil || p.Thumbnail == nil {
		return ""
	}
	return p.Thumbnail.Source
}

// summaryEntry is what gets cached, so misses can be cached as well.
type summaryEntry struct {
	Summary *PageSummary `json:"summary,omitempty"`
	Missing bool         `json:"missing,omitempty"`
}

func (w *Wikipedia) base(lang string) string {
	return strings.ReplaceAll(w.baseURL, "{lang}", lang)
}

// PageSummary fetches the summary of the page titled name in lang. It
// returns ErrPageNotFound when no such page exists.
func (w *Wikipedia) PageSummary(ctx context.Context, name, lang string) (*PageSummary, error) {
	title := strings.ReplaceAll(strings.TrimSpace(name), " ", "_")
	if title == "" {
		return nil, ErrPageNotFound
	}
	endpoint := w.base(lang) + "/api/rest_v1/page/summary/" + url.PathEscape(title)

	entry, _, err := cache.GetOrFetch(w.cache, cache.WikipediaTable, "summary:"+lang+":"+title, func() (summaryEntry, error) {
		var summary PageSummary
		if err := w.getJSON(ctx, endpoint, nil, &summary); err != nil {
			if apperrors.IsNotFound(err) {
				return summaryEntry{Missing: true}, nil
			}
			return summaryEntry{}, err
		}
		if summary.Type == notFoundType {
			return summaryEntry{Missing: true}, nil
		}
		return summaryEntry{Summary: &summary}, nil
	}, func(e summaryEntry) bool { return e.Missing })
	if err != nil {
		return nil, err
	}
	if entry.Missing || entry.Summary == nil {
		return nil, ErrPageNotFound
	}
	return entry.Summary, nil
}

// OpenSearch returns the best matching page title for name in lang, or ""
// when there is none.
func (w *Wikipedia) OpenSearch(ctx context.Context, name, lang string) (string, error) {
	params := url.Values{}
	params.Set("action", "opensearch")
	params.Set("search", name)
	params.Set("limit", "1")
	params.Set("namespace", "0")
	params.Set("format", "json")

	title, _, err := cache.GetOrFetch(w.cache, cache.WikipediaTable, "opensearch:"+lang+":"+name, func() (string, error) {
		var raw []json.RawMessage
		if err := w.getJSON(ctx, w.base(lang)+"/w/api.php", params, &raw); err != nil {
			return "", err
		}
		return firstOpenSearchTitle(raw)
	}, func(s string) bool { return s == "" })
	return title, err
}

// firstOpenSearchTitle reads the title list from an opensearch answer of the
// form [query, [titles...], [descriptions...], [urls...]].
func firstOpenSearchTitle(raw []json.RawMessage) (string, error) {
	if len(raw) < 2 {
		return "", nil
	}
	var titles []string
	if err := json.Unmarshal(raw[1], &titles); err != nil {
		return "", fmt.Errorf("%s: decode opensearch titles: %w", wikipediaProvider, err)
	}
	if len(titles) == 0 {
		return "", nil
	}
	return titles[0], nil
}
