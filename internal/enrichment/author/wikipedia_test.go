package author

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lepinkainen/libris/internal/result"
	"github.com/lepinkainen/libris/internal/sources"
	"github.com/lepinkainen/libris/internal/testutil"
)

const notFoundBody = `{"type": "https://mediawiki.org/wiki/HyperSwitch/errors/not_found"}`

func newWikipedia(t *testing.T, routes map[string]http.HandlerFunc) (*sources.Wikipedia, *testutil.StubServer) {
	t.Helper()
	stub := testutil.NewStubServer(t, routes)
	return sources.NewWikipedia(sources.WithBaseURL(stub.URL + "/{lang}")), stub
}

func TestWikipediaSourcePrefersSpanish(t *testing.T) {
	api, stub := newWikipedia(t, map[string]http.HandlerFunc{
		"/es/api/rest_v1/page/summary/Julio_Cortázar": testutil.JSON(http.StatusOK,
			`{"type": "standard", "extract": "Escritor argentino.", "thumbnail": {"source": "https://img/cortazar.jpg"}}`),
	})

	res := NewWikipediaSource(api).Lookup(context.Background(), "Julio Cortázar")

	p, ok := res.Get()
	require.True(t, ok)
	assert.Equal(t, "Escritor argentino.", p.Biography)
	assert.Equal(t, "https://img/cortazar.jpg", p.PhotoURL)
	assert.Equal(t, 0, stub.Count("/en/api/rest_v1/page/summary/Julio_Cortázar"))
}

func TestWikipediaSourceFallsBackToOpenSearchThenEnglish(t *testing.T) {
	api, _ := newWikipedia(t, map[string]http.HandlerFunc{
		"/es/api/rest_v1/page/summary/Jane_Austen": testutil.JSON(http.StatusNotFound, notFoundBody),
		"/es/w/api.php":                            testutil.JSON(http.StatusOK, `["Jane Austen", [], [], []]`),
		"/en/api/rest_v1/page/summary/J._Austen":   testutil.JSON(http.StatusOK, notFoundBody),
		"/en/w/api.php":                            testutil.JSON(http.StatusOK, `["J. Austen", ["Jane Austen"], [""], [""]]`),
		"/en/api/rest_v1/page/summary/Jane_Austen": testutil.JSON(http.StatusOK, `{"type": "standard", "extract": "English novelist."}`),
	})

	res := NewWikipediaSource(api).Lookup(context.Background(), "J. Austen")
	p, ok := res.Get()
	require.True(t, ok)
	assert.Equal(t, "English novelist.", p.Biography)
	assert.Empty(t, p.PhotoURL)
}

func TestWikipediaSourceNothingAnywhere(t *testing.T) {
	api, _ := newWikipedia(t, map[string]http.HandlerFunc{
		"/es/w/api.php": testutil.JSON(http.StatusOK, `["x", [], [], []]`),
		"/en/w/api.php": testutil.JSON(http.StatusOK, `["x", [], [], []]`),
	})

	res := NewWikipediaSource(api).Lookup(context.Background(), "Unknown Person")
	assert.Equal(t, result.StatusEmpty, res.Status)
}

func TestWikipediaSourceTruncatesExtract(t *testing.T) {
	long := strings.Repeat("ñ", MaxBiographyRunes+10)
	api, _ := newWikipedia(t, map[string]http.HandlerFunc{
		"/en/api/rest_v1/page/summary/Long": testutil.JSON(http.StatusOK, `{"type": "standard", "extract": "`+long+`"}`),
	})

	p, ok := NewWikipediaSource(api, "en").Lookup(context.Background(), "Long").Get()
	require.True(t, ok)
	assert.Equal(t, MaxBiographyRunes, utf8.RuneCountInString(p.Biography))
}
