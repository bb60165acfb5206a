package shared

import (
	"fmt"
	"strings"
	"time"
)

// Provider identifies the metadata catalog a candidate came from
type Provider int

const (
	ProviderUnknown Provider = iota
	ProviderITunes
	ProviderSpotify
	ProviderGaana
	ProviderDeezer
	ProviderSaavn
	ProviderLastFM
	ProviderMusicBrainz
)

var providerNames = map[Provider]string{
	ProviderUnknown:     "unknown",
	ProviderITunes:      "itunes",
	ProviderSpotify:     "spotify",
	ProviderGaana:       "gaana",
	ProviderDeezer:      "deezer",
	ProviderSaavn:       "saavn",
	ProviderLastFM:      "lastfm",
	ProviderMusicBrainz: "musicbrainz",
}

func (p Provider) String() string {
	if name, ok := providerNames[p]; ok {
		return name
	}
	return fmt.Sprintf("provider(%d)", int(p))
}

// ParseProvider maps a configured provider name to its Provider value
func ParseProvider(name string) (Provider, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for p, n := range providerNames {
		if p != ProviderUnknown && n == name {
			return p, nil
		}
	}
	return ProviderUnknown, fmt.Errorf("unknown metadata provider %q", name)
}

// PlaylistEntry is one item enumerated from the source playlist
type PlaylistEntry struct {
	SourceURL string
	RawTitle  string
	VideoID   string
}

// Label returns the best human-readable name for the entry
func (e PlaylistEntry) Label() string {
	if e.RawTitle != "" {
		return e.RawTitle
	}
	if e.VideoID != "" {
		return e.VideoID
	}
	return e.SourceURL
}

// TrackCandidate is one provider's proposed metadata record for a track
type TrackCandidate struct {
	Provider    Provider `json:"provider"`
	Title       string   `json:"title"`
	Artist      string   `json:"artist"`
	Album       string   `json:"album,omitempty"`
	Genre       string   `json:"genre,omitempty"`
	TrackNumber int      `json:"trackNumber,omitempty"`
	ReleaseDate string   `json:"releaseDate,omitempty"`
	ArtworkRef  string   `json:"artworkRef,omitempty"`
	NativeID    string   `json:"nativeId,omitempty"`
}

// Year returns the four digit year of the release date, if any
func (c TrackCandidate) Year() string {
	if len(c.ReleaseDate) >= 4 {
		return c.ReleaseDate[:4]
	}
	return c.ReleaseDate
}

// Backfill copies fields from detail into c wherever c is still empty
func (c TrackCandidate) Backfill(detail TrackCandidate) TrackCandidate {
	if c.Title == "" {
		c.Title = detail.Title
	}
	if c.Artist == "" {
		c.Artist = detail.Artist
	}
	if c.Album == "" {
		c.Album = detail.Album
	}
	if c.Genre == "" {
		c.Genre = detail.Genre
	}
	if c.TrackNumber == 0 {
		c.TrackNumber = detail.TrackNumber
	}
	if c.ReleaseDate == "" {
		c.ReleaseDate = detail.ReleaseDate
	}
	if c.ArtworkRef == "" {
		c.ArtworkRef = detail.ArtworkRef
	}
	if c.NativeID == "" {
		c.NativeID = detail.NativeID
	}
	return c
}

// RankedCandidateList is the resolver's merged ranking; element 0 is the chosen candidate
type RankedCandidateList []TrackCandidate

// Best returns the chosen candidate
func (l RankedCandidateList) Best() (TrackCandidate, bool) {
	if len(l) == 0 {
		return TrackCandidate{}, false
	}
	return l[0], true
}

// ResolvedTrack is the chosen candidate together with the local audio file
type ResolvedTrack struct {
	Candidate *TrackCandidate
	AudioPath string
	Artwork   []byte
}

// TagFields are the standard descriptive fields written into the audio file
type TagFields struct {
	Year        string
	Title       string
	Artist      string
	Album       string
	Genre       string
	TrackNumber int
}

// TagFieldsFrom converts a candidate into tag fields
func TagFieldsFrom(c TrackCandidate) TagFields {
	return TagFields{
		Year:        c.Year(),
		Title:       c.Title,
		Artist:      c.Artist,
		Album:       c.Album,
		Genre:       c.Genre,
		TrackNumber: c.TrackNumber,
	}
}

// AudioTarget describes the transcoding output
type AudioTarget struct {
	SampleRate int
	Channels   int
	Bitrate    string // kbps, e.g. "320"
	Format     string // container/codec, e.g. "mp3"
}

// TranscodeStatus separates clean success from the benign ffmpeg overwrite refusal
type TranscodeStatus int

const (
	TranscodeOK TranscodeStatus = iota
	TranscodeBenignQuirk
)

func (s TranscodeStatus) String() string {
	switch s {
	case TranscodeOK:
		return "ok"
	case TranscodeBenignQuirk:
		return "benign-quirk"
	default:
		return "unknown"
	}
}

// TranscodeResult is the non-fatal outcome of a transcode
type TranscodeResult struct {
	Status     TranscodeStatus
	OutputPath string
}

// Progress is reported synchronously by the audio downloader
type Progress struct {
	Downloaded int64
	Total      int64 // total or estimated bytes, 0 when unknown
	Elapsed    time.Duration
	Speed      float64 // bytes per second
	ETA        time.Duration
}

// Percent returns the completed share in [0,100], or -1 when the total is unknown
func (p Progress) Percent() float64 {
	if p.Total <= 0 {
		return -1
	}
	return float64(p.Downloaded) / float64(p.Total) * 100
}

// OutcomeKind classifies how an entry finished
type OutcomeKind int

const (
	OutcomeSucceeded OutcomeKind = iota
	OutcomeSkipped
	OutcomeFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// PipelineOutcome is the terminal result of processing one entry
type PipelineOutcome struct {
	Kind        OutcomeKind
	Entry       PlaylistEntry
	Title       string
	Destination string
	Tagged      bool
	Err         error
}

// BatchStats summarises a batch run
type BatchStats struct {
	SuccessCount int
	SkippedCount int
	FailedCount  int
	FailedItems  []string
	Outcomes     []PipelineOutcome
}

// Record adds an outcome to the stats
func (s *BatchStats) Record(o PipelineOutcome) {
	s.Outcomes = append(s.Outcomes, o)
	switch o.Kind {
	case OutcomeSucceeded:
		s.SuccessCount++
	case OutcomeSkipped:
		s.SkippedCount++
	case OutcomeFailed:
		s.FailedCount++
		s.FailedItems = append(s.FailedItems, o.Entry.Label())
	}
}
