package youtube

import (
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/kkdai/youtube/v2"

	"tuneharvest/internal/shared"
)

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// VideoID extracts the 11 character video id from a watch, short or music URL, or a bare id
func VideoID(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if videoIDPattern.MatchString(raw) {
		return raw, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid video URL %q: %w", raw, err)
	}
	if v := u.Query().Get("v"); videoIDPattern.MatchString(v) {
		return v, nil
	}
	host := strings.TrimPrefix(u.Hostname(), "www.")
	if host == "youtu.be" {
		if id := strings.Trim(u.Path, "/"); videoIDPattern.MatchString(id) {
			return id, nil
		}
	}
	for _, prefix := range []string{"/shorts/", "/embed/", "/live/"} {
		if id, ok := strings.CutPrefix(u.Path, prefix); ok && videoIDPattern.MatchString(strings.Trim(id, "/")) {
			return strings.Trim(id, "/"), nil
		}
	}
	return "", fmt.Errorf("no video id in %q", raw)
}

// BestAudioFormat returns the audio-only format with the highest bitrate, or nil
func BestAudioFormat(formats youtube.FormatList) *youtube.Format {
	var best *youtube.Format
	for i := range formats {
		f := &formats[i]
		if !strings.HasPrefix(f.MimeType, "audio/") {
			continue
		}
		if best == nil || bitrateForFormat(f) > bitrateForFormat(best) {
			best = f
		}
	}
	return best
}

func bitrateForFormat(f *youtube.Format) int {
	if f.Bitrate > 0 {
		return f.Bitrate
	}
	return f.AverageBitrate
}

// ExtensionForMime maps a stream mime type to a file extension
func ExtensionForMime(mime string) string {
	base, _, _ := strings.Cut(mime, ";")
	switch strings.TrimSpace(base) {
	case "audio/mp4":
		return "m4a"
	case "audio/webm":
		return "webm"
	case "audio/mpeg":
		return "mp3"
	case "audio/ogg":
		return "ogg"
	default:
		return "audio"
	}
}

// parseOEmbed extracts the title, treating the bare "Unauthorized" reply as a rejection
func parseOEmbed(body []byte) (string, error) {
	text := strings.TrimSpace(string(body))
	if strings.EqualFold(strings.Trim(text, `"`), unauthorizedResponse) {
		return "", shared.ErrUnauthorizedLookup
	}

	var data struct {
		Title      string `json:"title"`
		AuthorName string `json:"author_name"`
	}
	if err := json.Unmarshal(body, &data); err != nil {
		return "", fmt.Errorf("failed to decode oembed response: %w", err)
	}
	return data.Title, nil
}
