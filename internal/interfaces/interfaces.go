package interfaces

import (
	"context"

	"tuneharvest/internal/config"
	"tuneharvest/internal/shared"
)

// PlaylistSource enumerates the entries of a remote playlist
type PlaylistSource interface {
	// Entries returns the playlist title and its entries in playlist order
	Entries(ctx context.Context, playlistURL string) (string, []shared.PlaylistEntry, error)
}

// TitleLookup resolves the catalog title of a video from the music catalog
type TitleLookup interface {
	Title(ctx context.Context, videoID string) (string, error)
}

// VideoTitleSource returns the raw platform title of a video
type VideoTitleSource interface {
	VideoTitle(ctx context.Context, videoURL string) (string, error)
}

// LinkResolver turns a source URL into a canonical downloadable link and display title
type LinkResolver interface {
	// Resolve returns shared.ErrUnauthorizedLookup when the lookup is rejected
	Resolve(ctx context.Context, sourceURL string) (link string, title string, err error)
}

// ProviderAdapter is one metadata catalog in the resolver's priority list
type ProviderAdapter interface {
	Provider() shared.Provider

	// Query returns candidates in the provider's own ranking
	Query(ctx context.Context, query string) ([]shared.TrackCandidate, error)
}

// DetailFetcher fetches a richer record for a candidate from its own provider
type DetailFetcher interface {
	Details(ctx context.Context, candidate shared.TrackCandidate) (shared.TrackCandidate, error)
}

// ProgressHook is invoked synchronously during a download and must not block
type ProgressHook func(shared.Progress)

// AudioDownloader fetches the best audio-only stream of a link
type AudioDownloader interface {
	// Download writes to outputBase plus the stream's container extension and returns the full path
	Download(ctx context.Context, link, outputBase string, hook ProgressHook) (string, error)
}

// Transcoder converts a downloaded stream into the target format
type Transcoder interface {
	// Transcode returns an error only for genuine failures; the benign overwrite refusal is a result variant
	Transcode(ctx context.Context, inputPath string, target shared.AudioTarget) (shared.TranscodeResult, error)
}

// TagWriter embeds descriptive tags and artwork into an audio file
type TagWriter interface {
	// WriteTags returns *shared.TaggingError when a text field cannot be written
	WriteTags(path string, tags shared.TagFields, art []byte) error
}

// ArtworkResolver fetches cover art bytes for an artwork reference
type ArtworkResolver interface {
	Resolve(ctx context.Context, ref string) ([]byte, bool)
}

// CandidateResolver picks ranked candidates for a track query
type CandidateResolver interface {
	Resolve(ctx context.Context, query string) (shared.RankedCandidateList, error)
	ResolveWithFallback(ctx context.Context, primary, alternate string) (shared.RankedCandidateList, error)
}

// CandidateEnricher backfills a chosen candidate from its provider's detail endpoint
type CandidateEnricher interface {
	Enrich(ctx context.Context, candidate shared.TrackCandidate) shared.TrackCandidate
}

// CacheManager owns the shared temporary working area
type CacheManager interface {
	Clear(pattern string) error
	ClearAll() error
}

// LibraryScanner asks a media server to pick up new files
type LibraryScanner interface {
	Rescan(ctx context.Context) error
}

// ConfigService defines the interface for configuration management
type ConfigService interface {
	// LoadConfig loads configuration from file on top of the defaults
	LoadConfig(configFile string) (*config.Config, error)

	// SaveConfig saves configuration to file
	SaveConfig(configFile string, config *config.Config) error

	// ValidateConfig validates configuration settings
	ValidateConfig(config *config.Config) error

	// GetDefaultConfig returns a default configuration
	GetDefaultConfig() *config.Config
}

// LoggerService defines the interface for logging operations
type LoggerService interface {
	// Info logs an informational message
	Info(message string, args ...interface{})

	// Warning logs a warning message
	Warning(message string, args ...interface{})

	// Error logs an error message
	Error(message string, args ...interface{})

	// Debug logs a debug message
	Debug(message string, args ...interface{})

	// Success logs a success message
	Success(message string, args ...interface{})

	// SetDebugMode enables or disables debug logging
	SetDebugMode(enabled bool)
}

// WarningCollectorService defines the interface for warning collection
type WarningCollectorService interface {
	AddWarning(warningType shared.WarningType, context, message, details string)
	AddProviderQueryWarning(provider shared.Provider, query, details string)
	AddMetadataNotFoundWarning(query string)
	AddEnrichmentWarning(provider shared.Provider, title, details string)
	AddCoverArtDownloadWarning(context, details string)
	AddCoverArtMetadataWarning(context, details string)
	AddTranscodeQuirkWarning(path, details string)
	AddCacheCleanupWarning(path, details string)
	AddEntrySkippedWarning(label string)
	HasWarnings() bool
	GetWarningCount() int
	PrintSummary()
}
