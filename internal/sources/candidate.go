package sources

import "sort"

// CoverCandidate is a provider-supplied cover URL. Lower Rank is better.
type CoverCandidate struct {
	URL  string
	Rank int
}

// Candidate is the provider-neutral shape of one book search hit.
type Candidate struct {
	Title        string
	ISBN         string
	Description  string
	PublishedRaw string
	AuthorName   string
	Covers       []CoverCandidate
}

// SortedCovers returns the cover candidates best first, skipping empty URLs.
func (c Candidate) SortedCovers() []CoverCandidate {
	out := make([]CoverCandidate, 0, len(c.Covers))
	for _, cover := range c.Covers {
		if cover.URL != "" {
			out = append(out, cover)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Rank < out[j].Rank })
	return out
}
