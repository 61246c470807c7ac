// Package author fills in missing author biographies and photos from
// Open Library and Wikipedia.
package author

import (
	"context"

	"github.com/lepinkainen/libris/internal/result"
)

// Profile is what a source knows about an author. Either field may be empty.
type Profile struct {
	Biography string
	PhotoURL  string
}

// Empty reports whether the profile carries nothing usable.
func (p Profile) Empty() bool {
	return p.Biography == "" && p.PhotoURL == ""
}

// Source looks an author up by name in one external service.
// Implementations return Empty when the author is unknown and Failed for
// transport or decoding problems.
type Source interface {
	Name() string
	Lookup(ctx context.Context, name string) result.Result[Profile]
}

func profileResult(p Profile) result.Result[Profile] {
	if p.Empty() {
		return result.Empty[Profile]()
	}
	return result.Found(p)
}
