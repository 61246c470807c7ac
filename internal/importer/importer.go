// Package importer turns a sparse ISBN or title query into stored books,
// pulling metadata from Google Books with Open Library as fallback.
package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	apperrors "github.com/lepinkainen/libris/internal/errors"
	"github.com/lepinkainen/libris/internal/model"
	"github.com/lepinkainen/libris/internal/result"
	"github.com/lepinkainen/libris/internal/sources"
	"github.com/lepinkainen/libris/internal/store"
)

var (
	// ErrNotFound is returned when no provider produced a book.
	ErrNotFound = errors.New("no results")
	// ErrBadRequest is returned for queries without a usable ISBN or title.
	ErrBadRequest = errors.New("isbn or title is required")
)

const (
	// DefaultTitle is used when no provider supplies a title.
	DefaultTitle = "Unknown"
	// MaxTitleResults bounds how many books one title import creates.
	MaxTitleResults = 5
)

// Store is the persistence the importer needs.
type Store interface {
	FindBookByISBN(ctx context.Context, isbn string) (*model.Book, error)
	CreateBook(ctx context.Context, b *model.Book) error
	SaveBook(ctx context.Context, b *model.Book) error
	FindOrCreateAuthor(ctx context.Context, name string) (*model.Author, error)
}

// VolumeSearcher searches Google Books.
type VolumeSearcher interface {
	SearchByISBN(ctx context.Context, isbn string) (*sources.Volume, error)
	SearchByTitle(ctx context.Context, title string, offset int) ([]sources.Volume, error)
}

// DocSearcher searches Open Library by title.
type DocSearcher interface {
	SearchByTitle(ctx context.Context, title string, offset int) ([]sources.Doc, error)
	CoverIDURL(id int) string
}

// AuthorEnricher fills missing author fields.
type AuthorEnricher interface {
	Enrich(ctx context.Context, a *model.Author) result.Result[*model.Author]
}

// CoverResolver picks a cover URL.
type CoverResolver interface {
	Resolve(ctx context.Context, isbn string, candidates []sources.CoverCandidate) result.Result[string]
}

// ImageFetcher downloads an image and returns its stored path.
type ImageFetcher interface {
	FetchAndAttach(ctx context.Context, url string, owner model.Owner, field, hint string) result.Result[string]
}

// Deps are the collaborators of an Importer. Authors, Covers and Images may
// be nil, which disables that step.
type Deps struct {
	Store       Store
	GoogleBooks VolumeSearcher
	OpenLibrary DocSearcher
	Authors     AuthorEnricher
	Covers      CoverResolver
	Images      ImageFetcher
}

// Importer orchestrates a single import request.
type Importer struct {
	Deps
}

// New creates an Importer.
func New(deps Deps) *Importer {
	return &Importer{Deps: deps}
}

// NormalizeISBN strips hyphens and whitespace.
func NormalizeISBN(raw string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '-', ' ', '\t', '\n', '\r':
			return -1
		}
		return r
	}, raw)
}

// ImportByISBN returns the book for isbn, creating it from Google Books
// when it is not catalogued yet.
func (i *Importer) ImportByISBN(ctx context.Context, raw string) (*model.Book, error) {
	isbn := NormalizeISBN(raw)
	if isbn == "" {
		return nil, ErrBadRequest
	}

	if existing, err := i.existing(ctx, isbn); err != nil || existing != nil {
		return existing, err
	}

	vol, err := i.GoogleBooks.SearchByISBN(ctx, isbn)
	if err != nil {
		warnFailure("Google Books ISBN lookup failed", err, "isbn", isbn)
		vol = nil
	}
	if vol == nil {
		return nil, fmt.Errorf("isbn %s: %w", isbn, ErrNotFound)
	}

	c := vol.Candidate()
	if c.ISBN == "" {
		c.ISBN = isbn
	}
	return i.materialize(ctx, c)
}

// ImportByTitle creates or reuses up to five books matching title. When
// Google Books yields nothing, Open Library is searched instead.
func (i *Importer) ImportByTitle(ctx context.Context, title string, offset int) ([]*model.Book, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrBadRequest
	}
	if offset < 0 {
		offset = 0
	}

	var books []*model.Book
	seen := make(map[int64]bool)
	add := func(b *model.Book) {
		if b != nil && !seen[b.ID] {
			seen[b.ID] = true
			books = append(books, b)
		}
	}

	vols, err := i.GoogleBooks.SearchByTitle(ctx, title, offset)
	if err != nil {
		warnFailure("Google Books title search failed", err, "title", title)
	}
	if len(vols) > MaxTitleResults {
		vols = vols[:MaxTitleResults]
	}
	for _, vol := range vols {
		b, err := i.materialize(ctx, vol.Candidate())
		if err != nil {
			return nil, err
		}
		add(b)
	}

	if len(books) == 0 && i.OpenLibrary != nil {
		docs, err := i.OpenLibrary.SearchByTitle(ctx, title, offset)
		if err != nil {
			warnFailure("Open Library title search failed", err, "title", title)
		}
		if len(docs) > MaxTitleResults {
			docs = docs[:MaxTitleResults]
		}
		for _, doc := range docs {
			var coverURL string
			if doc.CoverID > 0 {
				coverURL = i.OpenLibrary.CoverIDURL(doc.CoverID)
			}
			c := doc.Candidate(coverURL)
			if c.Title == "" {
				c.Title = title
			}
			b, err := i.materialize(ctx, c)
			if err != nil {
				return nil, err
			}
			add(b)
		}
	}

	if len(books) == 0 {
		return nil, fmt.Errorf("title %q: %w", title, ErrNotFound)
	}
	slog.Info("Imported books by title", "title", title, "offset", offset, "count", len(books))
	return books, nil
}

// existing returns the catalogued book for isbn, or nil.
func (i *Importer) existing(ctx context.Context, isbn string) (*model.Book, error) {
	if isbn == "" {
		return nil, nil
	}
	b, err := i.Store.FindBookByISBN(ctx, isbn)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup isbn %s: %w", isbn, err)
	}
	return b, nil
}

// materialize turns a candidate into a stored book. A book already stored
// under the candidate's ISBN is returned unchanged.
func (i *Importer) materialize(ctx context.Context, c sources.Candidate) (*model.Book, error) {
	if existing, err := i.existing(ctx, c.ISBN); err != nil || existing != nil {
		return existing, err
	}

	author, err := i.author(ctx, c.AuthorName)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(c.Title)
	if title == "" {
		title = DefaultTitle
	}
	book := &model.Book{
		Title:         title,
		ISBN:          c.ISBN,
		Description:   c.Description,
		PublishedDate: model.ParsePublishedDate(c.PublishedRaw),
	}
	book.SetAuthor(author)

	if err := i.Store.CreateBook(ctx, book); err != nil {
		if errors.Is(err, store.ErrDuplicateISBN) {
			slog.Info("Book created concurrently, reusing it", "isbn", c.ISBN)
			return i.Store.FindBookByISBN(ctx, c.ISBN)
		}
		return nil, fmt.Errorf("create book %q: %w", title, err)
	}
	slog.Info("Book created", "id", book.ID, "title", book.Title, "isbn", book.ISBN)

	if err := i.attachCover(ctx, book, c); err != nil {
		return nil, err
	}
	return book, nil
}

func (i *Importer) author(ctx context.Context, name string) (*model.Author, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	a, err := i.Store.FindOrCreateAuthor(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("author %q: %w", name, err)
	}
	if i.Authors != nil {
		if res := i.Authors.Enrich(ctx, a); res.Status == result.StatusFailed {
			slog.Error("Author enrichment failed", "author", name, "error", res.Err)
		}
	}
	return a, nil
}

func (i *Importer) attachCover(ctx context.Context, b *model.Book, c sources.Candidate) error {
	if i.Covers == nil || i.Images == nil {
		return nil
	}

	url, ok := i.Covers.Resolve(ctx, b.ISBN, c.SortedCovers()).Get()
	if !ok {
		slog.Debug("No cover found", "book", b.ID, "isbn", b.ISBN)
		return nil
	}

	hint := fmt.Sprintf("%s-%d.jpg", b.Title, b.ID)
	path, ok := i.Images.FetchAndAttach(ctx, url, b, "cover", hint).Get()
	if !ok {
		return nil
	}

	b.Cover = path
	if err := i.Store.SaveBook(ctx, b); err != nil {
		return fmt.Errorf("save cover for book %d: %w", b.ID, err)
	}
	return nil
}

// warnFailure logs a provider failure that the import proceeds without.
// Rate limits get their own message.
func warnFailure(msg string, err error, args ...any) {
	args = append(args, "error", err)
	if apperrors.IsRateLimitError(err) {
		slog.Warn(msg+": rate limited", args...)
		return
	}
	slog.Warn(msg, args...)
}
