// Package youtube enumerates playlists, looks up titles and opens audio streams on YouTube.
package youtube

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/kkdai/youtube/v2"

	"tuneharvest/internal/api/rest"
	"tuneharvest/internal/shared"
)

const (
	defaultOEmbedURL     = "https://www.youtube.com/oembed"
	defaultMusicURL      = "https://music.youtube.com/youtubei/v1"
	defaultWatchURL      = "https://www.youtube.com/watch"
	musicClientName      = "WEB_REMIX"
	musicClientVersion   = "1.20240101.01.00"
	playabilityStatusOK  = "OK"
	unauthorizedResponse = "unauthorized"
)

// Config holds configuration for the YouTube client
type Config struct {
	OEmbedURL string
	MusicURL  string
	WatchURL  string
	Timeout   time.Duration
	Retries   int
}

// DefaultConfig returns sensible defaults for the YouTube client
func DefaultConfig() Config {
	return Config{
		OEmbedURL: defaultOEmbedURL,
		MusicURL:  defaultMusicURL,
		WatchURL:  defaultWatchURL,
		Timeout:   30 * time.Second,
		Retries:   2,
	}
}

// Client covers the playlist source, both title lookups, the link resolver and stream access
type Client struct {
	yt     *youtube.Client
	oembed *rest.Client
	music  *rest.Client
	config Config
	logger *log.Logger
}

// NewClientWithConfig creates a new YouTube client
func NewClientWithConfig(config Config, logger *log.Logger) *Client {
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	if config.WatchURL == "" {
		config.WatchURL = defaultWatchURL
	}

	oembedCfg := rest.DefaultConfig(config.OEmbedURL)
	oembedCfg.Timeout = config.Timeout
	oembedCfg.MaxRetries = config.Retries

	musicCfg := rest.DefaultConfig(config.MusicURL)
	musicCfg.Timeout = config.Timeout
	musicCfg.MaxRetries = config.Retries

	return &Client{
		// no client timeout here: it would cut long stream downloads short
		yt:     &youtube.Client{HTTPClient: &http.Client{}},
		oembed: rest.NewClient(oembedCfg, logger),
		music:  rest.NewClient(musicCfg, logger),
		config: config,
		logger: logger,
	}
}

// Entries implements interfaces.PlaylistSource
func (c *Client) Entries(ctx context.Context, playlistURL string) (string, []shared.PlaylistEntry, error) {
	playlist, err := c.yt.GetPlaylistContext(ctx, playlistURL)
	if err != nil {
		return "", nil, fmt.Errorf("fetching playlist: %w", err)
	}

	entries := make([]shared.PlaylistEntry, 0, len(playlist.Videos))
	for _, v := range playlist.Videos {
		if v == nil || v.ID == "" {
			continue
		}
		entries = append(entries, shared.PlaylistEntry{
			SourceURL: c.WatchURL(v.ID),
			RawTitle:  v.Title,
			VideoID:   v.ID,
		})
	}
	c.logger.Debug("playlist enumerated", "title", playlist.Title, "entries", len(entries))
	return playlist.Title, entries, nil
}

// SingleEntry builds an entry for a lone video URL
func (c *Client) SingleEntry(videoURL string) (shared.PlaylistEntry, error) {
	id, err := VideoID(videoURL)
	if err != nil {
		return shared.PlaylistEntry{}, err
	}
	return shared.PlaylistEntry{SourceURL: c.WatchURL(id), VideoID: id}, nil
}

// WatchURL returns the canonical watch URL of a video id
func (c *Client) WatchURL(id string) string {
	return c.config.WatchURL + "?v=" + url.QueryEscape(id)
}

// VideoTitle implements interfaces.VideoTitleSource
func (c *Client) VideoTitle(ctx context.Context, videoURL string) (string, error) {
	video, err := c.yt.GetVideoContext(ctx, videoURL)
	if err != nil {
		return "", fmt.Errorf("fetching video %s: %w", videoURL, err)
	}
	return video.Title, nil
}

type playerRequest struct {
	VideoID string `json:"videoId"`
	Context struct {
		Client struct {
			ClientName    string `json:"clientName"`
			ClientVersion string `json:"clientVersion"`
			HL            string `json:"hl"`
		} `json:"client"`
	} `json:"context"`
}

type playerResponse struct {
	PlayabilityStatus struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
	VideoDetails struct {
		VideoID string `json:"videoId"`
		Title   string `json:"title"`
		Author  string `json:"author"`
	} `json:"videoDetails"`
}

// Title implements interfaces.TitleLookup using the YouTube Music player endpoint
func (c *Client) Title(ctx context.Context, videoID string) (string, error) {
	if videoID == "" {
		return "", fmt.Errorf("video id cannot be empty")
	}

	var req playerRequest
	req.VideoID = videoID
	req.Context.Client.ClientName = musicClientName
	req.Context.Client.ClientVersion = musicClientVersion
	req.Context.Client.HL = "en"

	var resp playerResponse
	if err := c.music.PostJSON(ctx, "player", url.Values{"prettyPrint": {"false"}}, req, &resp); err != nil {
		return "", fmt.Errorf("music lookup for %s: %w", videoID, err)
	}
	if resp.PlayabilityStatus.Status != playabilityStatusOK {
		return "", fmt.Errorf("music lookup for %s: status %s %s", videoID, resp.PlayabilityStatus.Status, resp.PlayabilityStatus.Reason)
	}
	if resp.VideoDetails.Title == "" {
		return "", fmt.Errorf("music lookup for %s returned no title", videoID)
	}
	return resp.VideoDetails.Title, nil
}

// Resolve implements interfaces.LinkResolver via the oEmbed endpoint.
// The link is sourceURL cut at its first "&"; an empty link means there is nothing to download.
func (c *Client) Resolve(ctx context.Context, sourceURL string) (string, string, error) {
	link, _, _ := strings.Cut(sourceURL, "&")
	id, err := VideoID(link)
	if err != nil || id == "" {
		c.logger.Debug("no video id in link", "url", sourceURL)
		return "", "", nil
	}

	body, err := c.oembed.Get(ctx, "", url.Values{"url": {c.WatchURL(id)}, "format": {"json"}})
	if err != nil {
		var httpErr *shared.HTTPError
		if errors.As(err, &httpErr) {
			return "", "", fmt.Errorf("%w: oembed returned %d for %s", shared.ErrUnauthorizedLookup, httpErr.StatusCode, link)
		}
		return "", "", fmt.Errorf("oembed lookup for %s: %w", link, err)
	}

	title, err := parseOEmbed(body)
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", link, err)
	}
	return link, title, nil
}

// AudioStream is an open audio-only stream
type AudioStream struct {
	Body      io.ReadCloser
	Size      int64  // 0 when unknown
	Extension string // container extension without dot
	MimeType  string
}

// OpenAudio picks the best audio-only format of the video at link and opens it
func (c *Client) OpenAudio(ctx context.Context, link string) (*AudioStream, error) {
	video, err := c.yt.GetVideoContext(ctx, link)
	if err != nil {
		return nil, fmt.Errorf("fetching video %s: %w", link, err)
	}

	format := BestAudioFormat(video.Formats)
	if format == nil {
		return nil, fmt.Errorf("%s: %w", link, shared.ErrNoAudioStream)
	}
	c.logger.Debug("audio format selected", "itag", format.ItagNo, "mime", format.MimeType, "bitrate", format.Bitrate)

	body, size, err := c.yt.GetStreamContext(ctx, video, format)
	if err != nil {
		return nil, fmt.Errorf("starting stream: %w", err)
	}
	if size <= 0 {
		size = format.ContentLength
	}
	return &AudioStream{
		Body:      body,
		Size:      size,
		Extension: ExtensionForMime(format.MimeType),
		MimeType:  format.MimeType,
	}, nil
}
