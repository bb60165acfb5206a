// Package itunes queries the iTunes Search API for song metadata.
package itunes

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/charmbracelet/log"

	"tuneharvest/internal/api/rest"
	"tuneharvest/internal/shared"
)

const (
	defaultBaseURL = "https://itunes.apple.com"
	defaultLimit   = 25
)

// Config holds configuration for the iTunes client
type Config struct {
	rest.Config
	Country string
	Limit   int
}

// DefaultConfig returns sensible defaults for the iTunes client
func DefaultConfig() Config {
	return Config{
		Config:  rest.DefaultConfig(defaultBaseURL),
		Country: "US",
		Limit:   defaultLimit,
	}
}

// Client searches the iTunes catalog
type Client struct {
	rest    *rest.Client
	country string
	limit   int
}

// NewClientWithConfig creates a new iTunes client
func NewClientWithConfig(config Config, logger *log.Logger) *Client {
	if config.Limit <= 0 {
		config.Limit = defaultLimit
	}
	return &Client{
		rest:    rest.NewClient(config.Config, logger),
		country: config.Country,
		limit:   config.Limit,
	}
}

type searchResponse struct {
	ResultCount int      `json:"resultCount"`
	Results     []result `json:"results"`
}

type result struct {
	WrapperType      string `json:"wrapperType"`
	Kind             string `json:"kind"`
	TrackID          int64  `json:"trackId"`
	TrackName        string `json:"trackName"`
	ArtistName       string `json:"artistName"`
	CollectionName   string `json:"collectionName"`
	PrimaryGenreName string `json:"primaryGenreName"`
	TrackNumber      int    `json:"trackNumber"`
	ReleaseDate      string `json:"releaseDate"`
	ArtworkURL100    string `json:"artworkUrl100"`
}

// Provider implements interfaces.ProviderAdapter
func (c *Client) Provider() shared.Provider {
	return shared.ProviderITunes
}

// Query searches songs matching q, in iTunes relevance order
func (c *Client) Query(ctx context.Context, q string) ([]shared.TrackCandidate, error) {
	params := url.Values{
		"term":   {q},
		"media":  {"music"},
		"entity": {"song"},
		"limit":  {strconv.Itoa(c.limit)},
	}
	if c.country != "" {
		params.Set("country", c.country)
	}

	var resp searchResponse
	if err := c.rest.GetJSON(ctx, "search", params, &resp); err != nil {
		return nil, fmt.Errorf("itunes search for %q: %w", q, err)
	}

	candidates := make([]shared.TrackCandidate, 0, len(resp.Results))
	for _, r := range resp.Results {
		if r.Kind != "" && r.Kind != "song" {
			continue
		}
		candidates = append(candidates, shared.TrackCandidate{
			Provider:    shared.ProviderITunes,
			Title:       r.TrackName,
			Artist:      r.ArtistName,
			Album:       r.CollectionName,
			Genre:       r.PrimaryGenreName,
			TrackNumber: r.TrackNumber,
			ReleaseDate: r.ReleaseDate,
			ArtworkRef:  r.ArtworkURL100,
			NativeID:    strconv.FormatInt(r.TrackID, 10),
		})
	}
	return candidates, nil
}
