package musicbrainz

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/charmbracelet/log"

	"tuneharvest/internal/api/rest"
	"tuneharvest/internal/shared"
)

// 1. Constants and types
const (
	defaultBaseURL       = "https://musicbrainz.org/ws/2/"
	defaultCoverArtURL   = "https://coverartarchive.org"
	defaultUserAgent     = "tuneharvest/1.0 ( https://github.com/tuneharvest/tuneharvest )"
	defaultRateLimit     = 1100 * time.Millisecond // MusicBrainz allows one request per second per client
	defaultBurstLimit    = 1
	defaultMaxRetries    = 5
	defaultInitialDelay  = 2 * time.Second
	defaultMaxDelay      = 60 * time.Second
	defaultSearchLimit   = 15
	defaultMinSearchRank = 50
)

// Config holds configuration for MusicBrainz API client
type Config struct {
	rest.Config
	CoverArtURL string `json:"cover_art_url"`
	SearchLimit int    `json:"search_limit"`
	MinScore    int    `json:"min_score"` // search hits scoring below this are dropped
}

// Client represents a MusicBrainz API client
type Client struct {
	rest   *rest.Client
	config Config
}

// 2. Constructor and configuration

// DefaultConfig returns sensible defaults for MusicBrainz API client
func DefaultConfig() Config {
	return Config{
		Config: rest.Config{
			BaseURL:      defaultBaseURL,
			UserAgent:    defaultUserAgent,
			Timeout:      30 * time.Second,
			MaxRetries:   defaultMaxRetries,
			InitialDelay: defaultInitialDelay,
			MaxDelay:     defaultMaxDelay,
			RateLimit:    defaultRateLimit,
			BurstLimit:   defaultBurstLimit,
		},
		CoverArtURL: defaultCoverArtURL,
		SearchLimit: defaultSearchLimit,
		MinScore:    defaultMinSearchRank,
	}
}

// NewClient creates a new MusicBrainz API client with default configuration
func NewClient() *Client {
	return NewClientWithConfig(DefaultConfig(), nil)
}

// NewClientWithConfig creates a new MusicBrainz API client with custom configuration
func NewClientWithConfig(config Config, logger *log.Logger) *Client {
	if config.SearchLimit <= 0 {
		config.SearchLimit = defaultSearchLimit
	}
	return &Client{
		rest:   rest.NewClient(config.Config, logger),
		config: config,
	}
}

// GetConfig returns the current client configuration
func (c *Client) GetConfig() Config {
	return c.config
}

// 3. Public API methods

// Provider implements interfaces.ProviderAdapter
func (c *Client) Provider() shared.Provider {
	return shared.ProviderMusicBrainz
}

// Query runs a free text recording search, best score first
func (c *Client) Query(ctx context.Context, q string) ([]shared.TrackCandidate, error) {
	recordings, err := c.SearchRecordings(ctx, q)
	if err != nil {
		return nil, err
	}
	candidates := make([]shared.TrackCandidate, 0, len(recordings))
	for _, r := range recordings {
		if r.Score < c.config.MinScore {
			continue
		}
		candidates = append(candidates, c.candidateFrom(r))
	}
	return candidates, nil
}

// Details re-fetches the recording by MBID to pick up genres and release info
func (c *Client) Details(ctx context.Context, candidate shared.TrackCandidate) (shared.TrackCandidate, error) {
	if candidate.NativeID == "" {
		return candidate, fmt.Errorf("MBID cannot be empty")
	}
	track, err := c.GetTrackMetadata(ctx, candidate.NativeID)
	if err != nil {
		return candidate, err
	}
	return candidate.Backfill(c.candidateFrom(*track)), nil
}

// GetTrackMetadata fetches track metadata from MusicBrainz by MBID
func (c *Client) GetTrackMetadata(ctx context.Context, mbid string) (*Track, error) {
	if mbid == "" {
		return nil, fmt.Errorf("MBID cannot be empty")
	}

	params := url.Values{"inc": {"artists releases genres media"}, "fmt": {"json"}}
	body, err := c.rest.Get(ctx, "recording/"+url.PathEscape(mbid), params)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch track metadata for MBID %s: %w", mbid, err)
	}

	var track Track
	if err := json.Unmarshal(body, &track); err != nil {
		return nil, fmt.Errorf("failed to unmarshal track metadata: %w", err)
	}
	return &track, nil
}

// SearchRecordings searches recordings with a free text query
func (c *Client) SearchRecordings(ctx context.Context, query string) ([]Track, error) {
	if query == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}

	params := url.Values{
		"query": {query},
		"limit": {strconv.Itoa(c.config.SearchLimit)},
		"fmt":   {"json"},
	}
	body, err := c.rest.Get(ctx, "recording", params)
	if err != nil {
		return nil, fmt.Errorf("failed to search recordings for %q: %w", query, err)
	}

	var searchResult struct {
		Recordings []Track `json:"recordings"`
	}
	if err := json.Unmarshal(body, &searchResult); err != nil {
		return nil, fmt.Errorf("failed to unmarshal recording search result: %w", err)
	}

	// stable so equal scores keep MusicBrainz order
	sort.SliceStable(searchResult.Recordings, func(i, j int) bool {
		return searchResult.Recordings[i].Score > searchResult.Recordings[j].Score
	})
	return searchResult.Recordings, nil
}

// SearchTrack searches for a track on MusicBrainz by artist, album, and title
func (c *Client) SearchTrack(ctx context.Context, artist, album, title string) (*Track, error) {
	if artist == "" || title == "" {
		return nil, fmt.Errorf("artist and title cannot be empty")
	}

	recordings, err := c.SearchRecordings(ctx, buildTrackSearchQuery(artist, album, title))
	if err != nil {
		return nil, err
	}
	if len(recordings) == 0 {
		return nil, fmt.Errorf("no track found for: %s - %s - %s", artist, album, title)
	}
	return &recordings[0], nil
}

// 4. Helper/utility functions

func (c *Client) candidateFrom(t Track) shared.TrackCandidate {
	candidate := shared.TrackCandidate{
		Provider: shared.ProviderMusicBrainz,
		Title:    t.Title,
		Artist:   t.ArtistName(),
		NativeID: t.ID,
	}
	if len(t.Genres) > 0 {
		best := t.Genres[0]
		for _, g := range t.Genres[1:] {
			if g.Count > best.Count {
				best = g
			}
		}
		candidate.Genre = best.Name
	}
	if len(t.Releases) > 0 {
		release := t.Releases[0]
		candidate.Album = release.Title
		candidate.ReleaseDate = release.Date
		if release.ID != "" && c.config.CoverArtURL != "" {
			candidate.ArtworkRef = fmt.Sprintf("%s/release/%s/front", c.config.CoverArtURL, release.ID)
		}
		for _, m := range release.Media {
			if len(m.Tracks) > 0 {
				if n, err := strconv.Atoi(m.Tracks[0].Number); err == nil {
					candidate.TrackNumber = n
				}
				break
			}
		}
	}
	return candidate
}

// buildTrackSearchQuery constructs a search query for track searches
func buildTrackSearchQuery(artist, album, title string) string {
	if album == "" {
		return fmt.Sprintf("artist:\"%s\" AND recording:\"%s\"", artist, title)
	}
	return fmt.Sprintf("artist:\"%s\" AND release:\"%s\" AND recording:\"%s\"", artist, album, title)
}

// Data types

// Artist represents a MusicBrainz artist
type Artist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ArtistCredit represents artist credit information
type ArtistCredit struct {
	Name       string `json:"name"`
	JoinPhrase string `json:"joinphrase"`
	Artist     Artist `json:"artist"`
}

// MediaTrack represents a track within media
type MediaTrack struct {
	ID     string `json:"id"`
	Number string `json:"number"`
	Title  string `json:"title"`
	Length int    `json:"length"`
}

// Media represents media information
type Media struct {
	Format string       `json:"format"`
	Tracks []MediaTrack `json:"track"`
}

// TrackRelease represents release information within a track
type TrackRelease struct {
	ID    string  `json:"id"`
	Title string  `json:"title"`
	Date  string  `json:"date"`
	Media []Media `json:"media"`
}

// Genre is a community-voted genre
type Genre struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Track represents a MusicBrainz recording (track)
type Track struct {
	ID           string         `json:"id"`
	Score        int            `json:"score"`
	Title        string         `json:"title"`
	ArtistCredit []ArtistCredit `json:"artist-credit"`
	Releases     []TrackRelease `json:"releases"`
	Genres       []Genre        `json:"genres"`
	Length       int            `json:"length"` // Duration in milliseconds
}

// ArtistName joins the artist credit the way MusicBrainz displays it
func (t Track) ArtistName() string {
	name := ""
	for _, credit := range t.ArtistCredit {
		n := credit.Name
		if n == "" {
			n = credit.Artist.Name
		}
		name += n + credit.JoinPhrase
	}
	return name
}
