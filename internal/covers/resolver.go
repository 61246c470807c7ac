// Package covers picks the best available cover image URL for a book.
package covers

import (
	"context"
	"fmt"

	"github.com/lepinkainen/libris/internal/result"
	"github.com/lepinkainen/libris/internal/sources"
)

// Prober checks Open Library cover URLs by ISBN.
type Prober interface {
	CoverURL(isbn, size string) string
	ProbeImage(ctx context.Context, url string) (bool, error)
}

// Resolver orders cover sources: Open Library by ISBN, largest size first,
// then the provider-supplied candidates by rank.
type Resolver struct {
	prober Prober
}

// NewResolver creates a Resolver. A nil prober skips the ISBN probes.
func NewResolver(prober Prober) *Resolver {
	return &Resolver{prober: prober}
}

// Resolve returns the first usable cover URL. Finding nothing is Empty, not
// an error.
func (r *Resolver) Resolve(ctx context.Context, isbn string, candidates []sources.CoverCandidate) result.Result[string] {
	return result.First(ctx, r.strategies(isbn, candidates)...)
}

func (r *Resolver) strategies(isbn string, candidates []sources.CoverCandidate) []result.Strategy[string] {
	var steps []result.Strategy[string]

	if isbn != "" && r.prober != nil {
		for _, size := range sources.CoverSizes {
			url := r.prober.CoverURL(isbn, size)
			steps = append(steps, result.Strategy[string]{
				Name: "openlibrary-" + size,
				Run: func(ctx context.Context) result.Result[string] {
					ok, err := r.prober.ProbeImage(ctx, url)
					if err != nil {
						return result.Failed[string](fmt.Errorf("probe %s: %w", url, err))
					}
					if !ok {
						return result.Empty[string]()
					}
					return result.Found(url)
				},
			})
		}
	}

	ranked := sources.Candidate{Covers: candidates}.SortedCovers()
	for i, cover := range ranked {
		url := cover.URL
		steps = append(steps, result.Strategy[string]{
			Name: fmt.Sprintf("candidate-%d", i),
			Run: func(context.Context) result.Result[string] {
				return result.Found(url)
			},
		})
	}

	return steps
}
