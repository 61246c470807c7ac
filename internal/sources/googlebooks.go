package sources

import (
	"context"
	"net/url"
	"strconv"

	"github.com/lepinkainen/libris/internal/cache"
)

const (
	googleBooksProvider = "googlebooks"
	googleBooksBaseURL  = "https://www.googleapis.com/books/v1"
	titleSearchLimit    = 5
)

// GoogleBooks is a client for the Google Books volumes API.
type GoogleBooks struct {
	client
	apiKey string
}

// NewGoogleBooks creates a Google Books client. apiKey may be empty.
func NewGoogleBooks(apiKey string, opts ...Option) *GoogleBooks {
	return &GoogleBooks{
		client: newClient(googleBooksProvider, googleBooksBaseURL, defaultTimeout, opts),
		apiKey: apiKey,
	}
}

// IndustryIdentifier is one entry of volumeInfo.industryIdentifiers.
type IndustryIdentifier struct {
	Type       string `json:"type"`
	Identifier string `json:"identifier"`
}

// ImageLinks lists the cover sizes Google may return.
type ImageLinks struct {
	ExtraLarge     string `json:"extraLarge,omitempty"`
	Large          string `json:"large,omitempty"`
	Medium         string `json:"medium,omitempty"`
	Small          string `json:"small,omitempty"`
	Thumbnail      string `json:"thumbnail,omitempty"`
	SmallThumbnail string `json:"smallThumbnail,omitempty"`
}

// Ordered returns the links largest first.
func (l ImageLinks) Ordered() []string {
	return []string{l.ExtraLarge, l.Large, l.Medium, l.Small, l.Thumbnail, l.SmallThumbnail}
}

// VolumeInfo is the subset of volumeInfo that the importer uses.
type VolumeInfo struct {
	Title               string               `json:"title"`
	Authors             []string             `json:"authors,omitempty"`
	Description         string               `json:"description,omitempty"`
	PublishedDate       string               `json:"publishedDate,omitempty"`
	IndustryIdentifiers []IndustryIdentifier `json:"industryIdentifiers,omitempty"`
	ImageLinks          ImageLinks           `json:"imageLinks"`
}

// Volume is a Google Books search hit.
type Volume struct {
	ID         string     `json:"id"`
	VolumeInfo VolumeInfo `json:"volumeInfo"`
}

type volumesResponse struct {
	TotalItems int      `json:"totalItems"`
	Items      []Volume `json:"items"`
}

// ISBN returns the ISBN-13 identifier, falling back to ISBN-10.
func (v Volume) ISBN() string {
	var isbn10 string
	for _, id := range v.VolumeInfo.IndustryIdentifiers {
		switch id.Type {
		case "ISBN_13":
			return id.Identifier
		case "ISBN_10":
			if isbn10 == "" {
				isbn10 = id.Identifier
			}
		}
	}
	return isbn10
}

// Candidate maps the volume to the provider-neutral shape.
func (v Volume) Candidate() Candidate {
	info := v.VolumeInfo
	c := Candidate{
		Title:        info.Title,
		ISBN:         v.ISBN(),
		Description:  info.Description,
		PublishedRaw: info.PublishedDate,
	}
	if len(info.Authors) > 0 {
		c.AuthorName = info.Authors[0]
	}
	for rank, link := range info.ImageLinks.Ordered() {
		if link != "" {
			c.Covers = append(c.Covers, CoverCandidate{URL: link, Rank: rank})
		}
	}
	return c
}

// SearchByISBN returns the first volume matching isbn, or nil when there is
// no match.
func (g *GoogleBooks) SearchByISBN(ctx context.Context, isbn string) (*Volume, error) {
	params := url.Values{}
	params.Set("q", "isbn:"+isbn)
	params.Set("maxResults", "1")
	params.Set("printType", "books")

	resp, err := g.volumes(ctx, "isbn:"+isbn, params)
	if err != nil {
		return nil, err
	}
	if len(resp.Items) == 0 {
		return nil, nil
	}
	return &resp.Items[0], nil
}

// SearchByTitle returns up to five volumes whose title matches, starting at
// offset.
func (g *GoogleBooks) SearchByTitle(ctx context.Context, title string, offset int) ([]Volume, error) {
	params := url.Values{}
	params.Set("q", "intitle:"+title)
	params.Set("maxResults", strconv.Itoa(titleSearchLimit))
	params.Set("startIndex", strconv.Itoa(offset))
	params.Set("printType", "books")

	resp, err := g.volumes(ctx, "intitle:"+title+"@"+strconv.Itoa(offset), params)
	if err != nil {
		return nil, err
	}
	return capped(resp.Items, titleSearchLimit), nil
}

func (g *GoogleBooks) volumes(ctx context.Context, cacheKey string, params url.Values) (volumesResponse, error) {
	if g.apiKey != "" {
		params.Set("key", g.apiKey)
	}
	resp, _, err := cache.GetOrFetch(g.cache, cache.GoogleBooksTable, cacheKey, func() (volumesResponse, error) {
		var out volumesResponse
		err := g.getJSON(ctx, g.baseURL+"/volumes", params, &out)
		return out, err
	}, func(r volumesResponse) bool { return len(r.Items) == 0 })
	return resp, err
}

// capped returns at most the first n items.
func capped[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}
