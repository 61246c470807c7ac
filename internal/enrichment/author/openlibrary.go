package author

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lepinkainen/libris/internal/names"
	"github.com/lepinkainen/libris/internal/result"
	"github.com/lepinkainen/libris/internal/sources"
)

// OpenLibraryAPI is the part of the Open Library client the source needs.
type OpenLibraryAPI interface {
	SearchAuthors(ctx context.Context, name string) ([]sources.AuthorDoc, error)
	AuthorDetail(ctx context.Context, key string) (*sources.AuthorDetail, error)
	AuthorPhotoURL(id int) string
}

// OpenLibrarySource reads biographies and photos from Open Library author
// records.
type OpenLibrarySource struct {
	api OpenLibraryAPI
}

// NewOpenLibrarySource creates an OpenLibrarySource.
func NewOpenLibrarySource(api OpenLibraryAPI) *OpenLibrarySource {
	return &OpenLibrarySource{api: api}
}

// Name implements Source.
func (s *OpenLibrarySource) Name() string { return "openlibrary" }

// Lookup searches for name, picks the best hit and reads its detail record.
func (s *OpenLibrarySource) Lookup(ctx context.Context, name string) result.Result[Profile] {
	docs, err := s.api.SearchAuthors(ctx, name)
	if err != nil {
		return result.Failed[Profile](fmt.Errorf("search authors %q: %w", name, err))
	}
	best, ok := BestMatch(name, docs)
	if !ok {
		return result.Empty[Profile]()
	}

	var profile Profile
	var detailErr error
	photos := best.Photos
	if best.Key != "" {
		detail, err := s.api.AuthorDetail(ctx, best.Key)
		if err != nil {
			detailErr = fmt.Errorf("author detail %s: %w", best.Key, err)
			slog.Debug("Open Library author detail failed", "key", best.Key, "error", err)
		} else {
			profile.Biography = strings.TrimSpace(string(detail.Bio))
			if len(detail.Photos) > 0 {
				photos = detail.Photos
			}
		}
	}

	// Open Library uses -1 for removed photos.
	if len(photos) > 0 && photos[0] > 0 {
		profile.PhotoURL = s.api.AuthorPhotoURL(photos[0])
	}

	if profile.Empty() && detailErr != nil {
		return result.Failed[Profile](detailErr)
	}
	return profileResult(profile)
}

// BestMatch picks the doc whose display name normalizes to the same string
// as name, falling back to the first doc.
func BestMatch(name string, docs []sources.AuthorDoc) (sources.AuthorDoc, bool) {
	if len(docs) == 0 {
		return sources.AuthorDoc{}, false
	}
	for _, d := range docs {
		if dn := d.DisplayName(); dn != "" && names.Equal(dn, name) {
			return d, true
		}
	}
	return docs[0], true
}
