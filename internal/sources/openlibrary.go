package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/lepinkainen/libris/internal/cache"
)

const (
	openLibraryProvider  = "openlibrary"
	openLibraryBaseURL   = "https://openlibrary.org"
	openLibraryCoversURL = "https://covers.openlibrary.org"
	defaultProbeTimeout  = 5 * time.Second
)

// CoverSizes are the Open Library cover sizes, largest first.
var CoverSizes = []string{"XL", "L", "M", "S"}

// OpenLibrary is a client for the Open Library search, author and covers APIs.
type OpenLibrary struct {
	client
	coversURL    string
	probeTimeout time.Duration
}

// NewOpenLibrary creates an Open Library client. Empty coversURL or a
// non-positive probeTimeout select the defaults.
func NewOpenLibrary(coversURL string, probeTimeout time.Duration, opts ...Option) *OpenLibrary {
	if coversURL == "" {
		coversURL = openLibraryCoversURL
	}
	if probeTimeout <= 0 {
		probeTimeout = defaultProbeTimeout
	}
	return &OpenLibrary{
		client:       newClient(openLibraryProvider, openLibraryBaseURL, defaultTimeout, opts),
		coversURL:    strings.TrimSuffix(coversURL, "/"),
		probeTimeout: probeTimeout,
	}
}

// Doc is an Open Library title search hit.
type Doc struct {
	Key              string   `json:"key"`
	Title            string   `json:"title"`
	AuthorName       []string `json:"author_name,omitempty"`
	FirstPublishYear int      `json:"first_publish_year,omitempty"`
	CoverID          int      `json:"cover_i,omitempty"`
}

// Candidate maps the doc to the provider-neutral shape. coverURL is the
// resolved cover for the doc's cover id, if any.
func (d Doc) Candidate(coverURL string) Candidate {
	c := Candidate{Title: d.Title}
	if len(d.AuthorName) > 0 {
		c.AuthorName = d.AuthorName[0]
	}
	if d.FirstPublishYear > 0 {
		c.PublishedRaw = strconv.Itoa(d.FirstPublishYear)
	}
	if coverURL != "" {
		c.Covers = []CoverCandidate{{URL: coverURL}}
	}
	return c
}

type searchResponse struct {
	NumFound int   `json:"numFound"`
	Docs     []Doc `json:"docs"`
}

// AuthorDoc is an Open Library author search hit.
type AuthorDoc struct {
	Key            string   `json:"key"`
	Name           string   `json:"name,omitempty"`
	AlternateNames []string `json:"alternate_names,omitempty"`
	Photos         []int    `json:"photos,omitempty"`
}

// DisplayName returns the name, falling back to the first alternate name.
func (a AuthorDoc) DisplayName() string {
	if a.Name != "" {
		return a.Name
	}
	if len(a.AlternateNames) > 0 {
		return a.AlternateNames[0]
	}
	return ""
}

type authorSearchResponse struct {
	NumFound int         `json:"numFound"`
	Docs     []AuthorDoc `json:"docs"`
}

// TextValue decodes fields that Open Library serves either as a plain string
// or as {"type": "/type/text", "value": "..."}.
type TextValue string

// UnmarshalJSON implements json.Unmarshaler.
func (t *TextValue) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = TextValue(s)
		return nil
	}
	var obj struct {
		Value string `json:"value"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("text value: %w", err)
	}
	*t = TextValue(obj.Value)
	return nil
}

// AuthorDetail is the subset of /authors/<OLID>.json the enrichment uses.
type AuthorDetail struct {
	Key    string    `json:"key"`
	Name   string    `json:"name"`
	Bio    TextValue `json:"bio,omitempty"`
	Photos []int     `json:"photos,omitempty"`
}

// SearchByTitle returns up to five docs for title, starting at offset.
func (o *OpenLibrary) SearchByTitle(ctx context.Context, title string, offset int) ([]Doc, error) {
	params := url.Values{}
	params.Set("title", title)
	params.Set("offset", strconv.Itoa(offset))
	params.Set("limit", strconv.Itoa(titleSearchLimit))

	key := "title:" + title + "@" + strconv.Itoa(offset)
	resp, _, err := cache.GetOrFetch(o.cache, cache.OpenLibraryTable, key, func() (searchResponse, error) {
		var out searchResponse
		err := o.getJSON(ctx, o.baseURL+"/search.json", params, &out)
		return out, err
	}, func(r searchResponse) bool { return len(r.Docs) == 0 })
	if err != nil {
		return nil, err
	}
	return capped(resp.Docs, titleSearchLimit), nil
}

// SearchAuthors searches authors by free-text name.
func (o *OpenLibrary) SearchAuthors(ctx context.Context, name string) ([]AuthorDoc, error) {
	params := url.Values{}
	params.Set("q", name)

	resp, _, err := cache.GetOrFetch(o.cache, cache.OpenLibraryAuthorTable, "search:"+name, func() (authorSearchResponse, error) {
		var out authorSearchResponse
		err := o.getJSON(ctx, o.baseURL+"/search/authors.json", params, &out)
		return out, err
	}, func(r authorSearchResponse) bool { return len(r.Docs) == 0 })
	if err != nil {
		return nil, err
	}
	return resp.Docs, nil
}

// AuthorDetail fetches an author record. key may be a bare OLID or a path
// such as "/authors/OL23919A".
func (o *OpenLibrary) AuthorDetail(ctx context.Context, key string) (*AuthorDetail, error) {
	olid := key[strings.LastIndex(key, "/")+1:]
	if olid == "" {
		return nil, fmt.Errorf("%s: empty author key", o.provider)
	}

	detail, _, err := cache.GetOrFetch(o.cache, cache.OpenLibraryAuthorTable, "detail:"+olid, func() (AuthorDetail, error) {
		var out AuthorDetail
		err := o.getJSON(ctx, o.baseURL+"/authors/"+url.PathEscape(olid)+".json", nil, &out)
		return out, err
	}, nil)
	if err != nil {
		return nil, err
	}
	return &detail, nil
}

// CoverURL builds the cover URL for isbn at one of CoverSizes. With
// default=false a missing cover answers 404 instead of a blank placeholder.
func (o *OpenLibrary) CoverURL(isbn, size string) string {
	return fmt.Sprintf("%s/b/isbn/%s-%s.jpg?default=false", o.coversURL, url.PathEscape(isbn), size)
}

// CoverIDURL builds the large cover URL for a cover id.
func (o *OpenLibrary) CoverIDURL(id int) string {
	return fmt.Sprintf("%s/b/id/%d-L.jpg", o.coversURL, id)
}

// AuthorPhotoURL builds the large author photo URL for a photo id.
func (o *OpenLibrary) AuthorPhotoURL(id int) string {
	return fmt.Sprintf("%s/a/id/%d-L.jpg", o.coversURL, id)
}

// ProbeImage sends a HEAD request and reports whether url serves an image.
// Only a 2xx answer with an image/* content type counts.
func (o *OpenLibrary) ProbeImage(ctx context.Context, imageURL string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, o.probeTimeout)
	defer cancel()

	if err := o.rateLimiter.Wait(ctx); err != nil {
		return false, err
	}
	req, err := o.newRequest(ctx, http.MethodHead, imageURL, nil)
	if err != nil {
		return false, err
	}
	resp, err := o.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("%s: probe %s: %w", o.provider, imageURL, err)
	}
	_ = resp.Body.Close()

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300 &&
		strings.HasPrefix(resp.Header.Get("Content-Type"), "image/")
	return ok, nil
}
