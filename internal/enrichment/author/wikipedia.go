package author

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lepinkainen/libris/internal/result"
	"github.com/lepinkainen/libris/internal/sources"
)

// MaxBiographyRunes caps biographies taken from Wikipedia extracts.
const MaxBiographyRunes = 5000

// WikipediaAPI is the part of the Wikipedia client the source needs.
type WikipediaAPI interface {
	PageSummary(ctx context.Context, name, lang string) (*sources.PageSummary, error)
	OpenSearch(ctx context.Context, name, lang string) (string, error)
}

// WikipediaSource reads the page summary extract and thumbnail, trying each
// language in order.
type WikipediaSource struct {
	api       WikipediaAPI
	languages []string
}

// NewWikipediaSource creates a WikipediaSource. With no languages it uses
// Spanish, then English.
func NewWikipediaSource(api WikipediaAPI, languages ...string) *WikipediaSource {
	if len(languages) == 0 {
		languages = []string{"es", "en"}
	}
	return &WikipediaSource{api: api, languages: languages}
}

// Name implements Source.
func (s *WikipediaSource) Name() string { return "wikipedia" }

// Lookup returns the first usable summary across the configured languages.
func (s *WikipediaSource) Lookup(ctx context.Context, name string) result.Result[Profile] {
	steps := make([]result.Strategy[Profile], 0, len(s.languages))
	for _, lang := range s.languages {
		steps = append(steps, result.Strategy[Profile]{
			Name: "wikipedia-" + lang,
			Run: func(ctx context.Context) result.Result[Profile] {
				return s.lookupLanguage(ctx, name, lang)
			},
		})
	}
	return result.First(ctx, steps...)
}

// lookupLanguage tries the literal page title first, then the best
// opensearch hit.
func (s *WikipediaSource) lookupLanguage(ctx context.Context, name, lang string) result.Result[Profile] {
	summary, directErr := s.api.PageSummary(ctx, name, lang)
	if directErr == nil {
		if p := toProfile(summary); !p.Empty() {
			return result.Found(p)
		}
	}

	title, err := s.api.OpenSearch(ctx, name, lang)
	if err != nil {
		return result.Failed[Profile](errors.Join(summaryErr(directErr), fmt.Errorf("opensearch %s: %w", lang, err)))
	}
	if title == "" || title == name {
		if summaryErr(directErr) != nil {
			return result.Failed[Profile](directErr)
		}
		return result.Empty[Profile]()
	}

	summary, err = s.api.PageSummary(ctx, title, lang)
	if errors.Is(err, sources.ErrPageNotFound) {
		return result.Empty[Profile]()
	}
	if err != nil {
		return result.Failed[Profile](fmt.Errorf("summary %s:%s: %w", lang, title, err))
	}
	return profileResult(toProfile(summary))
}

// summaryErr drops the plain not-found answer, which is not a failure.
func summaryErr(err error) error {
	if errors.Is(err, sources.ErrPageNotFound) {
		return nil
	}
	return err
}

func toProfile(s *sources.PageSummary) Profile {
	if s == nil {
		return Profile{}
	}
	return Profile{
		Biography: truncateRunes(strings.TrimSpace(s.Extract), MaxBiographyRunes),
		PhotoURL:  s.ThumbnailURL(),
	}
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
