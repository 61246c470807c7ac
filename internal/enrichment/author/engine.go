package author

import (
	"context"
	"fmt"
	"log/slog"

	apperrors "github.com/lepinkainen/libris/internal/errors"
	"github.com/lepinkainen/libris/internal/fileutil"
	"github.com/lepinkainen/libris/internal/model"
	"github.com/lepinkainen/libris/internal/result"
)

// Store persists authors.
type Store interface {
	SaveAuthor(ctx context.Context, a *model.Author) error
}

// ImageFetcher downloads an image and returns its stored path.
type ImageFetcher interface {
	FetchAndAttach(ctx context.Context, url string, owner model.Owner, field, hint string) result.Result[string]
}

// Engine fills empty author fields from its sources, in order. Fields that
// are already set are never replaced.
type Engine struct {
	store   Store
	images  ImageFetcher
	sources []Source
}

// NewEngine creates an Engine consulting sources in the given order.
func NewEngine(store Store, images ImageFetcher, sources ...Source) *Engine {
	return &Engine{store: store, images: images, sources: sources}
}

// Enrich fills the author's missing biography and photo. The result is
// Found with the updated author when something changed and was saved, Empty
// when nothing changed, and Failed when saving failed. Source and image
// failures only leave fields empty.
func (e *Engine) Enrich(ctx context.Context, a *model.Author) result.Result[*model.Author] {
	if a == nil || a.Complete() {
		return result.Empty[*model.Author]()
	}

	working := *a
	changed := false
	for _, src := range e.sources {
		if working.Complete() {
			break
		}
		if err := ctx.Err(); err != nil {
			break
		}

		res := src.Lookup(ctx, working.Name)
		switch res.Status {
		case result.StatusFailed:
			if apperrors.IsRateLimitError(res.Err) {
				slog.Warn("Author lookup rate limited", "source", src.Name(), "author", working.Name, "error", res.Err)
			} else {
				slog.Warn("Author lookup failed", "source", src.Name(), "author", working.Name, "error", res.Err)
			}
			continue
		case result.StatusEmpty:
			slog.Debug("Author not found", "source", src.Name(), "author", working.Name)
			continue
		}

		if e.apply(ctx, &working, res.Value, src.Name()) {
			changed = true
		}
	}

	if !changed {
		return result.Empty[*model.Author]()
	}

	if err := e.store.SaveAuthor(ctx, &working); err != nil {
		return result.Failed[*model.Author](fmt.Errorf("save enriched author %d: %w", working.ID, err))
	}
	*a = working
	slog.Info("Author enriched", "author", a.Name, "id", a.ID, "has_biography", a.Biography != "", "has_photo", a.Photo != "")
	return result.Found(a)
}

// apply copies profile fields into empty author fields and reports whether
// anything changed.
func (e *Engine) apply(ctx context.Context, a *model.Author, p Profile, source string) bool {
	changed := false

	if a.Biography == "" && p.Biography != "" {
		a.Biography = p.Biography
		changed = true
	}

	if a.Photo == "" && p.PhotoURL != "" && e.images != nil {
		hint := fileutil.Slugify(a.Name) + ".jpg"
		if path, ok := e.images.FetchAndAttach(ctx, p.PhotoURL, a, "photo", hint).Get(); ok {
			a.Photo = path
			changed = true
		} else {
			slog.Debug("Author photo not attached", "source", source, "author", a.Name, "url", p.PhotoURL)
		}
	}

	return changed
}
