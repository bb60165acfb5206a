// Package gaana queries the Gaana song search endpoint.
package gaana

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"tuneharvest/internal/api/rest"
	"tuneharvest/internal/shared"
)

const (
	defaultBaseURL = "https://api.gaana.com"
	defaultLimit   = 20
)

// Config holds configuration for the Gaana client
type Config struct {
	rest.Config
	Limit int
}

// DefaultConfig returns sensible defaults for the Gaana client
func DefaultConfig() Config {
	return Config{Config: rest.DefaultConfig(defaultBaseURL), Limit: defaultLimit}
}

// Client searches the Gaana catalog
type Client struct {
	rest  *rest.Client
	limit int
}

// NewClientWithConfig creates a new Gaana client
func NewClientWithConfig(config Config, logger *log.Logger) *Client {
	if config.Limit <= 0 {
		config.Limit = defaultLimit
	}
	return &Client{rest: rest.NewClient(config.Config, logger), limit: config.Limit}
}

type named struct {
	Name string `json:"name"`
}

type track struct {
	TrackID      json.Number `json:"track_id"`
	Title        string      `json:"track_title"`
	AlbumTitle   string      `json:"album_title"`
	Artists      []named     `json:"artist"`
	Genres       []named     `json:"gener"`
	ReleaseDate  string      `json:"release_date"`
	ArtworkLarge string      `json:"artwork_large"`
	Artwork      string      `json:"artwork"`
}

type searchResponse struct {
	Tracks []track `json:"tracks"`
}

// Provider implements interfaces.ProviderAdapter
func (c *Client) Provider() shared.Provider {
	return shared.ProviderGaana
}

// Query searches songs matching q
func (c *Client) Query(ctx context.Context, q string) ([]shared.TrackCandidate, error) {
	params := url.Values{
		"type":    {"search"},
		"subtype": {"search_song"},
		"key":     {q},
		"format":  {"JSON"},
		"limit":   {"0," + strconv.Itoa(c.limit)},
	}

	var resp searchResponse
	if err := c.rest.GetJSON(ctx, "", params, &resp); err != nil {
		return nil, fmt.Errorf("gaana search for %q: %w", q, err)
	}

	candidates := make([]shared.TrackCandidate, 0, len(resp.Tracks))
	for _, t := range resp.Tracks {
		artists := make([]string, 0, len(t.Artists))
		for _, a := range t.Artists {
			artists = append(artists, a.Name)
		}
		genre := ""
		if len(t.Genres) > 0 {
			genre = t.Genres[0].Name
		}
		artwork := t.ArtworkLarge
		if artwork == "" {
			artwork = t.Artwork
		}
		candidates = append(candidates, shared.TrackCandidate{
			Provider:    shared.ProviderGaana,
			Title:       t.Title,
			Artist:      strings.Join(artists, ", "),
			Album:       t.AlbumTitle,
			Genre:       genre,
			ReleaseDate: t.ReleaseDate,
			ArtworkRef:  artwork,
			NativeID:    string(t.TrackID),
		})
	}
	return candidates, nil
}
