// Package saavn queries the JioSaavn web search API.
package saavn

import (
	"context"
	"fmt"
	"html"
	"net/url"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"tuneharvest/internal/api/rest"
	"tuneharvest/internal/shared"
)

const (
	defaultBaseURL = "https://www.jiosaavn.com/api.php"
	defaultLimit   = 20
)

// Config holds configuration for the Saavn client
type Config struct {
	rest.Config
	Limit int
}

// DefaultConfig returns sensible defaults for the Saavn client
func DefaultConfig() Config {
	return Config{Config: rest.DefaultConfig(defaultBaseURL), Limit: defaultLimit}
}

// Client searches the JioSaavn catalog
type Client struct {
	rest  *rest.Client
	limit int
}

// NewClientWithConfig creates a new Saavn client
func NewClientWithConfig(config Config, logger *log.Logger) *Client {
	if config.Limit <= 0 {
		config.Limit = defaultLimit
	}
	return &Client{rest: rest.NewClient(config.Config, logger), limit: config.Limit}
}

type song struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Year     string `json:"year"`
	Image    string `json:"image"`
	Language string `json:"language"`
	MoreInfo struct {
		Album       string `json:"album"`
		ReleaseDate string `json:"release_date"`
		ArtistMap   struct {
			PrimaryArtists []struct {
				Name string `json:"name"`
			} `json:"primary_artists"`
		} `json:"artistMap"`
	} `json:"more_info"`
}

type searchResponse struct {
	Total   int    `json:"total"`
	Results []song `json:"results"`
}

// Provider implements interfaces.ProviderAdapter
func (c *Client) Provider() shared.Provider {
	return shared.ProviderSaavn
}

// Query searches songs matching q
func (c *Client) Query(ctx context.Context, q string) ([]shared.TrackCandidate, error) {
	params := url.Values{
		"__call":      {"search.getResults"},
		"_format":     {"json"},
		"_marker":     {"0"},
		"api_version": {"4"},
		"ctx":         {"web6dot0"},
		"n":           {strconv.Itoa(c.limit)},
		"p":           {"1"},
		"q":           {q},
	}

	var resp searchResponse
	if err := c.rest.GetJSON(ctx, "", params, &resp); err != nil {
		return nil, fmt.Errorf("saavn search for %q: %w", q, err)
	}

	candidates := make([]shared.TrackCandidate, 0, len(resp.Results))
	for _, s := range resp.Results {
		var artists []string
		for _, a := range s.MoreInfo.ArtistMap.PrimaryArtists {
			artists = append(artists, html.UnescapeString(a.Name))
		}
		released := s.MoreInfo.ReleaseDate
		if released == "" {
			released = s.Year
		}
		candidates = append(candidates, shared.TrackCandidate{
			Provider:    shared.ProviderSaavn,
			Title:       html.UnescapeString(s.Title),
			Artist:      strings.Join(artists, ", "),
			Album:       html.UnescapeString(s.MoreInfo.Album),
			ReleaseDate: released,
			ArtworkRef:  strings.Replace(s.Image, "150x150", "500x500", 1),
			NativeID:    s.ID,
		})
	}
	return candidates, nil
}
