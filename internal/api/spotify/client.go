// Package spotify searches the Spotify Web API with client credentials.
package spotify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"tuneharvest/internal/shared"
)

const defaultLimit = 20

// ErrMissingCredentials is returned when no client id or secret is configured
var ErrMissingCredentials = errors.New("spotify client id and secret are not configured")

// Config holds configuration for the Spotify client
type Config struct {
	ClientID     string
	ClientSecret string
	Market       string
	Limit        int
	Timeout      time.Duration
	TokenURL     string // defaults to the Spotify accounts service
	APIBaseURL   string // defaults to the Spotify Web API, must end in "/"
}

// DefaultConfig returns sensible defaults for the Spotify client
func DefaultConfig(id, secret string) Config {
	return Config{
		ClientID:     id,
		ClientSecret: secret,
		Market:       "US",
		Limit:        defaultLimit,
		Timeout:      30 * time.Second,
		TokenURL:     spotifyauth.TokenURL,
	}
}

// SpotifyClient holds the spotify client and other required fields
type SpotifyClient struct {
	mu     sync.Mutex
	client *spotify.Client
	config Config
	logger *log.Logger
}

// NewSpotifyClient creates a new spotify client; authentication happens on first use
func NewSpotifyClient(config Config, logger *log.Logger) *SpotifyClient {
	if config.Limit <= 0 {
		config.Limit = defaultLimit
	}
	if config.TokenURL == "" {
		config.TokenURL = spotifyauth.TokenURL
	}
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	return &SpotifyClient{config: config, logger: logger}
}

// Authenticate authenticates the client with the spotify api
func (s *SpotifyClient) Authenticate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.authenticated(ctx)
	return err
}

// authenticated returns the api client, fetching a token the first time. Callers hold s.mu.
func (s *SpotifyClient) authenticated(ctx context.Context) (*spotify.Client, error) {
	if s.client != nil {
		return s.client, nil
	}
	if s.config.ClientID == "" || s.config.ClientSecret == "" {
		return nil, ErrMissingCredentials
	}

	credentials := &clientcredentials.Config{
		ClientID:     s.config.ClientID,
		ClientSecret: s.config.ClientSecret,
		TokenURL:     s.config.TokenURL,
	}
	tokenHTTP := &http.Client{Timeout: s.config.Timeout}

	// fail fast on bad credentials instead of on the first search
	if _, err := credentials.Token(context.WithValue(ctx, oauth2.HTTPClient, tokenHTTP)); err != nil {
		return nil, fmt.Errorf("spotify authentication failed: %w", err)
	}

	// the token source outlives this call and refreshes on its own
	httpClient := credentials.Client(context.WithValue(context.Background(), oauth2.HTTPClient, tokenHTTP))
	httpClient.Timeout = s.config.Timeout

	var opts []spotify.ClientOption
	if s.config.APIBaseURL != "" {
		opts = append(opts, spotify.WithBaseURL(s.config.APIBaseURL))
	}
	s.client = spotify.New(httpClient, opts...)
	s.logger.Debug("spotify authenticated")
	return s.client, nil
}

func (s *SpotifyClient) api(ctx context.Context) (*spotify.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authenticated(ctx)
}

// Provider implements interfaces.ProviderAdapter
func (s *SpotifyClient) Provider() shared.Provider {
	return shared.ProviderSpotify
}

// Query searches tracks matching q in the configured market
func (s *SpotifyClient) Query(ctx context.Context, q string) ([]shared.TrackCandidate, error) {
	client, err := s.api(ctx)
	if err != nil {
		return nil, err
	}

	opts := []spotify.RequestOption{spotify.Limit(s.config.Limit)}
	if s.config.Market != "" {
		opts = append(opts, spotify.Market(s.config.Market))
	}
	result, err := client.Search(ctx, q, spotify.SearchTypeTrack, opts...)
	if err != nil {
		return nil, fmt.Errorf("spotify search for %q: %w", q, err)
	}
	if result.Tracks == nil {
		return nil, nil
	}

	candidates := make([]shared.TrackCandidate, 0, len(result.Tracks.Tracks))
	for _, t := range result.Tracks.Tracks {
		candidates = append(candidates, candidateFrom(t))
	}
	return candidates, nil
}

// Details fetches the track and its primary artist, backfilling the artist's first genre
func (s *SpotifyClient) Details(ctx context.Context, candidate shared.TrackCandidate) (shared.TrackCandidate, error) {
	if candidate.NativeID == "" {
		return candidate, fmt.Errorf("spotify candidate %q has no track id", candidate.Title)
	}
	client, err := s.api(ctx)
	if err != nil {
		return candidate, err
	}

	track, err := client.GetTrack(ctx, spotify.ID(candidate.NativeID))
	if err != nil {
		return candidate, fmt.Errorf("spotify track %s: %w", candidate.NativeID, err)
	}
	detail := candidateFrom(*track)

	if len(track.Artists) > 0 {
		artist, err := client.GetArtist(ctx, track.Artists[0].ID)
		if err != nil {
			return candidate.Backfill(detail), fmt.Errorf("spotify artist %s: %w", track.Artists[0].ID, err)
		}
		if len(artist.Genres) > 0 {
			detail.Genre = artist.Genres[0]
		}
	}
	return candidate.Backfill(detail), nil
}

func candidateFrom(t spotify.FullTrack) shared.TrackCandidate {
	artists := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		artists = append(artists, a.Name)
	}
	artwork := ""
	if len(t.Album.Images) > 0 {
		// Spotify lists the widest image first
		artwork = t.Album.Images[0].URL
	}
	return shared.TrackCandidate{
		Provider:    shared.ProviderSpotify,
		Title:       t.Name,
		Artist:      strings.Join(artists, ", "),
		Album:       t.Album.Name,
		TrackNumber: int(t.TrackNumber),
		ReleaseDate: t.Album.ReleaseDate,
		ArtworkRef:  artwork,
		NativeID:    string(t.ID),
	}
}
