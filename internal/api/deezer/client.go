// Package deezer searches the public Deezer API and fetches track details.
package deezer

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/charmbracelet/log"

	"tuneharvest/internal/api/rest"
	"tuneharvest/internal/shared"
)

const (
	defaultBaseURL   = "https://api.deezer.com"
	defaultRateLimit = 100 * time.Millisecond // Deezer allows 50 requests per 5 seconds
	defaultLimit     = 25
)

// Config holds configuration for the Deezer client
type Config struct {
	rest.Config
	Limit int
}

// DefaultConfig returns sensible defaults for the Deezer client
func DefaultConfig() Config {
	cfg := rest.DefaultConfig(defaultBaseURL)
	cfg.RateLimit = defaultRateLimit
	cfg.BurstLimit = 5
	return Config{Config: cfg, Limit: defaultLimit}
}

// Client talks to the Deezer API
type Client struct {
	rest  *rest.Client
	limit int
}

// NewClientWithConfig creates a new Deezer client
func NewClientWithConfig(config Config, logger *log.Logger) *Client {
	if config.Limit <= 0 {
		config.Limit = defaultLimit
	}
	return &Client{rest: rest.NewClient(config.Config, logger), limit: config.Limit}
}

type artist struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type album struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	CoverXL  string `json:"cover_xl"`
	CoverBig string `json:"cover_big"`
}

type track struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	TrackPosition int    `json:"track_position"`
	ReleaseDate   string `json:"release_date"`
	Artist        artist `json:"artist"`
	Album         album  `json:"album"`
}

type albumDetail struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	ReleaseDate string `json:"release_date"`
	Genres      struct {
		Data []struct {
			Name string `json:"name"`
		} `json:"data"`
	} `json:"genres"`
}

// apiError is returned by Deezer with HTTP 200
type apiError struct {
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

func (e apiError) err() error {
	if e.Error == nil {
		return nil
	}
	return fmt.Errorf("deezer error %d (%s): %s", e.Error.Code, e.Error.Type, e.Error.Message)
}

// Provider implements interfaces.ProviderAdapter
func (c *Client) Provider() shared.Provider {
	return shared.ProviderDeezer
}

// Query searches tracks matching q
func (c *Client) Query(ctx context.Context, q string) ([]shared.TrackCandidate, error) {
	var resp struct {
		apiError
		Data []track `json:"data"`
	}
	params := url.Values{"q": {q}, "limit": {strconv.Itoa(c.limit)}}
	if err := c.rest.GetJSON(ctx, "search", params, &resp); err != nil {
		return nil, fmt.Errorf("deezer search for %q: %w", q, err)
	}
	if err := resp.err(); err != nil {
		return nil, err
	}

	candidates := make([]shared.TrackCandidate, 0, len(resp.Data))
	for _, t := range resp.Data {
		candidates = append(candidates, t.candidate())
	}
	return candidates, nil
}

// Details fetches the full track record plus album genres for a Deezer candidate
func (c *Client) Details(ctx context.Context, candidate shared.TrackCandidate) (shared.TrackCandidate, error) {
	if candidate.NativeID == "" {
		return candidate, fmt.Errorf("deezer candidate %q has no track id", candidate.Title)
	}

	var t struct {
		apiError
		track
	}
	if err := c.rest.GetJSON(ctx, "track/"+url.PathEscape(candidate.NativeID), nil, &t); err != nil {
		return candidate, fmt.Errorf("deezer track %s: %w", candidate.NativeID, err)
	}
	if err := t.err(); err != nil {
		return candidate, err
	}
	detail := t.track.candidate()

	if t.Album.ID != 0 {
		var a struct {
			apiError
			albumDetail
		}
		if err := c.rest.GetJSON(ctx, "album/"+strconv.FormatInt(t.Album.ID, 10), nil, &a); err != nil {
			return candidate.Backfill(detail), fmt.Errorf("deezer album %d: %w", t.Album.ID, err)
		}
		if a.Error == nil && len(a.Genres.Data) > 0 {
			detail.Genre = a.Genres.Data[0].Name
		}
		if detail.ReleaseDate == "" {
			detail.ReleaseDate = a.ReleaseDate
		}
	}

	return candidate.Backfill(detail), nil
}

func (t track) candidate() shared.TrackCandidate {
	artwork := t.Album.CoverXL
	if artwork == "" {
		artwork = t.Album.CoverBig
	}
	return shared.TrackCandidate{
		Provider:    shared.ProviderDeezer,
		Title:       t.Title,
		Artist:      t.Artist.Name,
		Album:       t.Album.Title,
		TrackNumber: t.TrackPosition,
		ReleaseDate: t.ReleaseDate,
		ArtworkRef:  artwork,
		NativeID:    strconv.FormatInt(t.ID, 10),
	}
}
