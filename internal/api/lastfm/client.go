// Package lastfm searches Last.fm tracks and fetches album and tag details.
package lastfm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/charmbracelet/log"

	"tuneharvest/internal/api/rest"
	"tuneharvest/internal/shared"
)

const (
	defaultBaseURL   = "https://ws.audioscrobbler.com/2.0"
	defaultRateLimit = 200 * time.Millisecond // Last.fm asks for at most 5 requests per second
	defaultLimit     = 25
)

// ErrMissingAPIKey is returned when the client is used without an API key
var ErrMissingAPIKey = errors.New("last.fm api key is not configured")

// Config holds configuration for the Last.fm client
type Config struct {
	rest.Config
	APIKey string
	Limit  int
}

// DefaultConfig returns sensible defaults for the Last.fm client
func DefaultConfig(apiKey string) Config {
	cfg := rest.DefaultConfig(defaultBaseURL)
	cfg.RateLimit = defaultRateLimit
	cfg.BurstLimit = 1
	return Config{Config: cfg, APIKey: apiKey, Limit: defaultLimit}
}

// Client talks to the Last.fm API
type Client struct {
	rest   *rest.Client
	apiKey string
	limit  int
}

// NewClientWithConfig creates a new Last.fm client
func NewClientWithConfig(config Config, logger *log.Logger) *Client {
	if config.Limit <= 0 {
		config.Limit = defaultLimit
	}
	return &Client{rest: rest.NewClient(config.Config, logger), apiKey: config.APIKey, limit: config.Limit}
}

type image struct {
	URL  string `json:"#text"`
	Size string `json:"size"`
}

// largestImage returns the biggest non-empty image url
func largestImage(images []image) string {
	rank := map[string]int{"small": 1, "medium": 2, "large": 3, "extralarge": 4, "mega": 5}
	best, bestRank := "", -1
	for _, img := range images {
		if img.URL == "" {
			continue
		}
		if r := rank[img.Size]; r > bestRank {
			best, bestRank = img.URL, r
		}
	}
	return best
}

type searchResponse struct {
	Results struct {
		TrackMatches struct {
			Track []struct {
				Name   string  `json:"name"`
				Artist string  `json:"artist"`
				MBID   string  `json:"mbid"`
				Image  []image `json:"image"`
			} `json:"track"`
		} `json:"trackmatches"`
	} `json:"results"`
}

type infoResponse struct {
	Track struct {
		Name   string `json:"name"`
		Artist struct {
			Name string `json:"name"`
		} `json:"artist"`
		Album struct {
			Title string  `json:"title"`
			Image []image `json:"image"`
			Attr  struct {
				Position string `json:"position"`
			} `json:"@attr"`
		} `json:"album"`
		TopTags struct {
			Tag []struct {
				Name string `json:"name"`
			} `json:"tag"`
		} `json:"toptags"`
		Wiki struct {
			Published string `json:"published"`
		} `json:"wiki"`
	} `json:"track"`
}

type apiError struct {
	Error   int    `json:"error"`
	Message string `json:"message"`
}

func (c *Client) call(ctx context.Context, params url.Values, out any) error {
	if c.apiKey == "" {
		return ErrMissingAPIKey
	}
	params.Set("api_key", c.apiKey)
	params.Set("format", "json")

	body, err := c.rest.Get(ctx, "", params)
	if err != nil {
		return err
	}
	var apiErr apiError
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != 0 {
		return fmt.Errorf("last.fm error %d: %s", apiErr.Error, apiErr.Message)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode last.fm response: %w", err)
	}
	return nil
}

// Provider implements interfaces.ProviderAdapter
func (c *Client) Provider() shared.Provider {
	return shared.ProviderLastFM
}

// Query runs track.search for q
func (c *Client) Query(ctx context.Context, q string) ([]shared.TrackCandidate, error) {
	var resp searchResponse
	params := url.Values{"method": {"track.search"}, "track": {q}, "limit": {strconv.Itoa(c.limit)}}
	if err := c.call(ctx, params, &resp); err != nil {
		return nil, fmt.Errorf("last.fm search for %q: %w", q, err)
	}

	tracks := resp.Results.TrackMatches.Track
	candidates := make([]shared.TrackCandidate, 0, len(tracks))
	for _, t := range tracks {
		candidates = append(candidates, shared.TrackCandidate{
			Provider:   shared.ProviderLastFM,
			Title:      t.Name,
			Artist:     t.Artist,
			ArtworkRef: largestImage(t.Image),
			NativeID:   t.MBID,
		})
	}
	return candidates, nil
}

// Details runs track.getInfo for the candidate's artist and title
func (c *Client) Details(ctx context.Context, candidate shared.TrackCandidate) (shared.TrackCandidate, error) {
	if candidate.Artist == "" || candidate.Title == "" {
		return candidate, fmt.Errorf("last.fm details need artist and title")
	}

	var resp infoResponse
	params := url.Values{
		"method":      {"track.getInfo"},
		"artist":      {candidate.Artist},
		"track":       {candidate.Title},
		"autocorrect": {"1"},
	}
	if err := c.call(ctx, params, &resp); err != nil {
		return candidate, fmt.Errorf("last.fm info for %s - %s: %w", candidate.Artist, candidate.Title, err)
	}

	t := resp.Track
	detail := shared.TrackCandidate{
		Title:      t.Name,
		Artist:     t.Artist.Name,
		Album:      t.Album.Title,
		ArtworkRef: largestImage(t.Album.Image),
	}
	if len(t.TopTags.Tag) > 0 {
		detail.Genre = t.TopTags.Tag[0].Name
	}
	if n, err := strconv.Atoi(t.Album.Attr.Position); err == nil {
		detail.TrackNumber = n
	}
	if published, err := time.Parse("02 Jan 2006, 15:04", t.Wiki.Published); err == nil {
		detail.ReleaseDate = published.Format("2006-01-02")
	}
	return candidate.Backfill(detail), nil
}
