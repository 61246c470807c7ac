package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lepinkainen/libris/internal/importer"
	"github.com/lepinkainen/libris/internal/model"
	"github.com/lepinkainen/libris/internal/result"
	"github.com/lepinkainen/libris/internal/store"
)

type fakeImporter struct {
	isbnCalls  []string
	titleCalls []string
	offsets    []int
	book       *model.Book
	books      []*model.Book
	err        error
}

func (f *fakeImporter) ImportByISBN(_ context.Context, isbn string) (*model.Book, error) {
	f.isbnCalls = append(f.isbnCalls, isbn)
	return f.book, f.err
}

func (f *fakeImporter) ImportByTitle(_ context.Context, title string, offset int) ([]*model.Book, error) {
	f.titleCalls = append(f.titleCalls, title)
	f.offsets = append(f.offsets, offset)
	return f.books, f.err
}

type fakeEnricher struct {
	calls int
	bio   string
}

func (f *fakeEnricher) Enrich(_ context.Context, a *model.Author) result.Result[*model.Author] {
	f.calls++
	a.Biography = f.bio
	return result.Found(a)
}

func init() {
	gin.SetMode(gin.TestMode)
}

func openStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "libris.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeDetail(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Detail
}

func TestImportByISBN(t *testing.T) {
	imp := &fakeImporter{book: &model.Book{ID: 1, Title: "Pride and Prejudice", ISBN: "9780141439518"}}
	r := New(Options{Importer: imp, Catalog: openStore(t)})

	w := do(t, r, http.MethodPost, "/api/import", `{"isbn": "9780141439518", "title": "ignored"}`)

	require.Equal(t, http.StatusCreated, w.Code)
	var book model.Book
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &book))
	assert.Equal(t, "Pride and Prejudice", book.Title)
	assert.Equal(t, []string{"9780141439518"}, imp.isbnCalls)
	assert.Empty(t, imp.titleCalls, "isbn wins over title")
}

func TestImportByTitleAndAlias(t *testing.T) {
	imp := &fakeImporter{books: []*model.Book{{ID: 1, Title: "Emma"}, {ID: 2, Title: "Emma"}}}
	r := New(Options{Importer: imp, Catalog: openStore(t)})

	w := do(t, r, http.MethodPost, "/api/import", `{"title": "Emma", "offset": 5}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var books []model.Book
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &books))
	assert.Len(t, books, 2)

	w = do(t, r, http.MethodPost, "/api/import", `{"q": "Persuasion"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	assert.Equal(t, []string{"Emma", "Persuasion"}, imp.titleCalls)
	assert.Equal(t, []int{5, 0}, imp.offsets)
}

func TestImportErrors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
		wantDetail string
	}{
		{name: "missing query", body: `{}`, wantStatus: http.StatusBadRequest, wantDetail: "isbn or title is required"},
		{name: "malformed body", body: `{"isbn":`, wantStatus: http.StatusBadRequest, wantDetail: "invalid request body"},
		{name: "negative offset", body: `{"title": "x", "offset": -1}`, wantStatus: http.StatusBadRequest, wantDetail: "validation failed"},
		{name: "not found", body: `{"isbn": "0000000000000"}`, err: fmt.Errorf("isbn: %w", importer.ErrNotFound), wantStatus: http.StatusNotFound, wantDetail: "no results"},
		{name: "pipeline failure", body: `{"title": "x"}`, err: errors.New("disk I/O error"), wantStatus: http.StatusInternalServerError, wantDetail: "import failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(Options{Importer: &fakeImporter{err: tt.err}, Catalog: openStore(t)})
			w := do(t, r, http.MethodPost, "/api/import", tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantDetail, decodeDetail(t, w))
			assert.NotContains(t, w.Body.String(), "disk I/O")
		})
	}
}

func TestBookReads(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	a, err := s.FindOrCreateAuthor(ctx, "Jane Austen")
	require.NoError(t, err)
	for _, title := range []string{"Emma", "Persuasion", "Sanditon"} {
		b := &model.Book{Title: title}
		b.SetAuthor(a)
		require.NoError(t, s.CreateBook(ctx, b))
	}
	r := New(Options{Catalog: s})

	w := do(t, r, http.MethodGet, "/api/books/1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"title":"Emma"`)
	assert.Contains(t, w.Body.String(), `"name":"Jane Austen"`)

	w = do(t, r, http.MethodGet, "/api/books?limit=2&offset=1", "")
	require.Equal(t, http.StatusOK, w.Code)
	var page struct {
		Data   []model.Book `json:"data"`
		Limit  int          `json:"limit"`
		Offset int          `json:"offset"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, 2, page.Limit)
	require.Len(t, page.Data, 2)
	assert.Equal(t, "Persuasion", page.Data[0].Title)

	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, "/api/books/99", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, r, http.MethodGet, "/api/books/abc", "").Code)
}

func TestGetAuthorEnrichesIncompleteAuthor(t *testing.T) {
	s := openStore(t)
	a, err := s.FindOrCreateAuthor(context.Background(), "Borges")
	require.NoError(t, err)
	enricher := &fakeEnricher{bio: "Escritor."}
	r := New(Options{Catalog: s, Authors: enricher})

	w := do(t, r, http.MethodGet, fmt.Sprintf("/api/authors/%d", a.ID), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"biography":"Escritor."`)
	assert.Equal(t, 1, enricher.calls)

	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, "/api/authors/404", "").Code)
}

func TestGetAuthorSkipsCompleteAuthor(t *testing.T) {
	s := openStore(t)
	a, err := s.FindOrCreateAuthor(context.Background(), "Cortázar")
	require.NoError(t, err)
	a.Biography, a.Photo = "bio", "photos/cortazar.jpg"
	require.NoError(t, s.SaveAuthor(context.Background(), a))
	enricher := &fakeEnricher{}
	r := New(Options{Catalog: s, Authors: enricher})

	w := do(t, r, http.MethodGet, fmt.Sprintf("/api/authors/%d", a.ID), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, enricher.calls)
}

func TestHealthAndReady(t *testing.T) {
	r := New(Options{Catalog: openStore(t), Version: "test"})

	w := do(t, r, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"version":"test"`)

	w = do(t, r, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ready"`)
}

func TestReadyReportsClosedDatabase(t *testing.T) {
	s := openStore(t)
	require.NoError(t, s.Close())
	r := New(Options{Catalog: s})

	w := do(t, r, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestMediaIsServed(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "covers"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "covers", "emma-1.jpg"), []byte("jpeg"), 0o644))
	r := New(Options{Catalog: openStore(t), MediaDir: dir})

	w := do(t, r, http.MethodGet, "/media/covers/emma-1.jpg", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "jpeg", w.Body.String())
}
