package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lepinkainen/libris/internal/testutil"
)

func TestOpenLibrarySearchByTitle(t *testing.T) {
	var title, offset, limit string
	stub := testutil.NewStubServer(t, map[string]http.HandlerFunc{
		"/search.json": func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			title, offset, limit = q.Get("title"), q.Get("offset"), q.Get("limit")
			testutil.JSON(http.StatusOK, `{"numFound": 2, "docs": [
				{"key": "/works/OL1W", "title": "Emma", "author_name": ["Jane Austen"], "first_publish_year": 1815, "cover_i": 42},
				{"key": "/works/OL2W", "title": "Emma", "author_name": ["Someone Else"]}
			]}`)(w, r)
		},
	})

	ol := NewOpenLibrary(stub.URL+"/covers", 0, WithBaseURL(stub.URL))
	docs, err := ol.SearchByTitle(context.Background(), "Emma", 5)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "Emma", title)
	assert.Equal(t, "5", offset)
	assert.Equal(t, "5", limit)

	first := docs[0].Candidate(ol.CoverIDURL(docs[0].CoverID))
	assert.Equal(t, "Jane Austen", first.AuthorName)
	assert.Equal(t, "1815", first.PublishedRaw)
	assert.Equal(t, stub.URL+"/covers/b/id/42-L.jpg", first.Covers[0].URL)

	second := docs[1].Candidate("")
	assert.Empty(t, second.PublishedRaw)
	assert.Empty(t, second.Covers)
}

func TestOpenLibrarySearchByTitleCapsResults(t *testing.T) {
	var docs []string
	for i := 1; i <= 7; i++ {
		docs = append(docs, fmt.Sprintf(`{"key": "/works/OL%dW", "title": "Emma %d"}`, i, i))
	}
	stub := testutil.NewStubServer(t, map[string]http.HandlerFunc{
		"/search.json": testutil.JSON(http.StatusOK, `{"numFound": 7, "docs": [`+strings.Join(docs, ",")+`]}`),
	})

	got, err := NewOpenLibrary("", 0, WithBaseURL(stub.URL)).SearchByTitle(context.Background(), "Emma", 0)
	require.NoError(t, err)
	require.Len(t, got, titleSearchLimit)
	assert.Equal(t, "Emma 5", got[4].Title)
}

func TestOpenLibraryAuthors(t *testing.T) {
	stub := testutil.NewStubServer(t, map[string]http.HandlerFunc{
		"/search/authors.json": testutil.JSON(http.StatusOK, `{"docs": [
			{"key": "OL1A", "alternate_names": ["Jorge Luis Borges"]},
			{"key": "OL2A", "name": "Borges"}
		]}`),
		"/authors/OL1A.json": testutil.JSON(http.StatusOK, `{"key": "/authors/OL1A", "name": "Borges", "bio": {"type": "/type/text", "value": "Argentine writer."}, "photos": [123]}`),
		"/authors/OL2A.json": testutil.JSON(http.StatusOK, `{"key": "/authors/OL2A", "bio": "Plain bio."}`),
	})
	ol := NewOpenLibrary("", 0, WithBaseURL(stub.URL))

	docs, err := ol.SearchAuthors(context.Background(), "Jorge Luis Borges")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "Jorge Luis Borges", docs[0].DisplayName())
	assert.Equal(t, "Borges", docs[1].DisplayName())

	detail, err := ol.AuthorDetail(context.Background(), "/authors/OL1A")
	require.NoError(t, err)
	assert.Equal(t, "Argentine writer.", string(detail.Bio))
	assert.Equal(t, []int{123}, detail.Photos)
	assert.Equal(t, "https://covers.openlibrary.org/a/id/123-L.jpg", ol.AuthorPhotoURL(detail.Photos[0]))

	detail, err = ol.AuthorDetail(context.Background(), "OL2A")
	require.NoError(t, err)
	assert.Equal(t, "Plain bio.", string(detail.Bio))
}

func TestTextValueRejectsOtherShapes(t *testing.T) {
	var v TextValue
	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &v))
}

func TestOpenLibraryProbeImage(t *testing.T) {
	stub := testutil.NewStubServer(t, map[string]http.HandlerFunc{
		"HEAD /b/isbn/123-XL.jpg": testutil.Image("text/html", nil),
		"HEAD /b/isbn/123-L.jpg":  testutil.Image("image/jpeg", nil),
	})
	ol := NewOpenLibrary(stub.URL, 0)

	ok, err := ol.ProbeImage(context.Background(), ol.CoverURL("123", "XL"))
	require.NoError(t, err)
	assert.False(t, ok, "non-image content type")

	ok, err = ol.ProbeImage(context.Background(), ol.CoverURL("123", "L"))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ol.ProbeImage(context.Background(), ol.CoverURL("123", "M"))
	require.NoError(t, err)
	assert.False(t, ok, "404")

	assert.Equal(t, []string{"HEAD /b/isbn/123-XL.jpg", "HEAD /b/isbn/123-L.jpg", "HEAD /b/isbn/123-M.jpg"}, stub.Requests())
}

func TestOpenLibraryCoverURLDisablesPlaceholder(t *testing.T) {
	var query string
	stub := testutil.NewStubServer(t, map[string]http.HandlerFunc{
		"HEAD /b/isbn/9780141439518-L.jpg": func(w http.ResponseWriter, r *http.Request) {
			query = r.URL.RawQuery
			if r.URL.Query().Get("default") == "false" {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			testutil.Image("image/jpeg", nil)(w, r)
		},
	})
	ol := NewOpenLibrary(stub.URL, 0)

	ok, err := ol.ProbeImage(context.Background(), ol.CoverURL("9780141439518", "L"))
	require.NoError(t, err)
	assert.False(t, ok, "missing cover must not be accepted as a placeholder")
	assert.Equal(t, "default=false", query)
}
