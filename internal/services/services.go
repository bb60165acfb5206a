package services

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"tuneharvest/internal/api/deezer"
	"tuneharvest/internal/api/gaana"
	"tuneharvest/internal/api/itunes"
	"tuneharvest/internal/api/lastfm"
	"tuneharvest/internal/api/musicbrainz"
	"tuneharvest/internal/api/navidrome"
	"tuneharvest/internal/api/rest"
	"tuneharvest/internal/api/saavn"
	"tuneharvest/internal/api/spotify"
	"tuneharvest/internal/api/youtube"
	"tuneharvest/internal/config"
	"tuneharvest/internal/core/cache"
	"tuneharvest/internal/core/coverart"
	"tuneharvest/internal/core/downloader"
	"tuneharvest/internal/core/metadata"
	"tuneharvest/internal/core/pipeline"
	"tuneharvest/internal/interfaces"
	"tuneharvest/internal/shared"
)

// ErrNoProviders is returned when none of the configured providers can be used
var ErrNoProviders = errors.New("no usable metadata providers configured")

// ServiceContainer holds all application services
type ServiceContainer struct {
	Config           *config.Config
	ConfigService    interfaces.ConfigService
	Logger           interfaces.LoggerService
	Log              *log.Logger
	WarningCollector *shared.WarningCollector
	YouTube          *youtube.Client
	Resolver         *metadata.Resolver
	Enricher         *metadata.Enricher
	Artwork          *coverart.Resolver
	Downloader       *downloader.StreamDownloader
	Transcoder       *downloader.FFmpegTranscoder
	Tags             interfaces.TagWriter
	Cache            *cache.Manager
	Navidrome        *navidrome.Scanner // nil unless a server is configured
}

// NewServiceContainer creates a new service container with all services initialized.
// cfg must already be validated. Nothing here touches the network or the disk.
func NewServiceContainer(cfg *config.Config, debug bool) (*ServiceContainer, error) {
	// Create logger first as other services may need it
	logger := NewConsoleLogger(os.Stdout)
	logger.SetDebugMode(debug)
	debugLog := shared.NewLogger(os.Stderr, debug)
	if !debug && cfg.WarningBehavior != "immediate" {
		// warnings are reported through the collector summary instead
		debugLog.SetLevel(log.ErrorLevel)
	}

	warningCollector := shared.NewWarningCollector(cfg.WarningBehavior != "silent")

	adapters, err := buildAdapters(cfg, debugLog)
	if err != nil {
		return nil, err
	}

	resolver := metadata.NewResolver(adapters, metadata.Options{Parallel: cfg.ParallelProviders}, warningCollector, debugLog)
	enricher := metadata.NewEnricher(warningCollector, debugLog)
	for _, adapter := range adapters {
		if fetcher, ok := adapter.(interfaces.DetailFetcher); ok {
			enricher.Register(adapter.Provider(), fetcher)
		}
	}

	ytCfg := youtube.DefaultConfig()
	ytCfg.Timeout = cfg.RequestTimeout.Duration
	ytCfg.Retries = cfg.MaxRetryAttempts
	yt := youtube.NewClientWithConfig(ytCfg, debugLog)

	tags, err := downloader.NewTagWriter(cfg.Format, warningCollector, debugLog)
	if err != nil {
		return nil, err
	}

	cacheManager := cache.NewManager(cfg.TempDir, warningCollector, debugLog)

	artHTTP := rest.DefaultConfig("")
	applyHTTP(&artHTTP, cfg)
	artwork := coverart.NewResolver(coverart.Config{
		SizeToken:    cfg.ArtworkSizeToken,
		UpscaleToken: cfg.ArtworkUpscaleToken,
		StagingDir:   cacheManager.Dir(),
		HTTP:         artHTTP,
	}, warningCollector, debugLog)

	var scanner *navidrome.Scanner
	if cfg.NavidromeURL != "" {
		scanner = navidrome.NewScanner(navidrome.Config{
			URL:      cfg.NavidromeURL,
			Username: cfg.NavidromeUsername,
			Password: cfg.NavidromePassword,
			Timeout:  cfg.RequestTimeout.Duration,
		}, debugLog)
	}

	return &ServiceContainer{
		Config:           cfg,
		ConfigService:    NewConfigService(),
		Logger:           logger,
		Log:              debugLog,
		WarningCollector: warningCollector,
		YouTube:          yt,
		Resolver:         resolver,
		Enricher:         enricher,
		Artwork:          artwork,
		Downloader:       downloader.NewStreamDownloader(yt, debugLog),
		Transcoder:       downloader.NewFFmpegTranscoder(debugLog),
		Tags:             tags,
		Cache:            cacheManager,
		Navidrome:        scanner,
	}, nil
}

// Orchestrator builds the batch pipeline from the container's services
func (sc *ServiceContainer) Orchestrator(progress pipeline.ProgressFactory, out io.Writer) *pipeline.Orchestrator {
	c := pipeline.Collaborators{
		Titles:      sc.YouTube,
		VideoTitles: sc.YouTube,
		Links:       sc.YouTube,
		Downloader:  sc.Downloader,
		Transcoder:  sc.Transcoder,
		Resolver:    sc.Resolver,
		Enricher:    sc.Enricher,
		Artwork:     sc.Artwork,
		Tags:        sc.Tags,
		Cache:       sc.Cache,
	}
	if sc.Navidrome != nil {
		c.Scanner = sc.Navidrome
	}
	return pipeline.NewOrchestrator(c, pipeline.Options{
		DestinationDir: sc.Config.DestinationDir,
		WorkDir:        sc.Cache.MusicDir(),
		Target:         sc.Config.AudioTarget(),
		Placeholder:    sc.Config.FilenamePlaceholder,
		SaveAlbumArt:   sc.Config.SaveAlbumArt,
		Progress:       progress,
		Output:         out,
	}, sc.WarningCollector, sc.Log)
}

// ProgressBars returns a factory drawing one progress bar per download on w
func ProgressBars(w io.Writer) pipeline.ProgressFactory {
	return func(label string) (interfaces.ProgressHook, func()) {
		bar := downloader.NewProgressBar(w, label)
		return bar.Hook(), func() { bar.Finish() }
	}
}

// buildAdapters creates the provider adapters in configured priority order.
// Spotify and Last.fm are left out when their credentials are missing.
func buildAdapters(cfg *config.Config, logger *log.Logger) ([]interfaces.ProviderAdapter, error) {
	order, err := cfg.ProviderOrder()
	if err != nil {
		return nil, err
	}

	var adapters []interfaces.ProviderAdapter
	for _, p := range order {
		switch p {
		case shared.ProviderITunes:
			c := itunes.DefaultConfig()
			c.Country = cfg.Country
			applyHTTP(&c.Config, cfg)
			adapters = append(adapters, itunes.NewClientWithConfig(c, logger))
		case shared.ProviderSpotify:
			if cfg.SpotifyClientID == "" || cfg.SpotifyClientSecret == "" {
				logger.Warn("spotify credentials missing, provider disabled")
				continue
			}
			c := spotify.DefaultConfig(cfg.SpotifyClientID, cfg.SpotifyClientSecret)
			c.Market = cfg.Country
			c.Timeout = cfg.RequestTimeout.Duration
			adapters = append(adapters, spotify.NewSpotifyClient(c, logger))
		case shared.ProviderGaana:
			c := gaana.DefaultConfig()
			applyHTTP(&c.Config, cfg)
			adapters = append(adapters, gaana.NewClientWithConfig(c, logger))
		case shared.ProviderDeezer:
			c := deezer.DefaultConfig()
			applyHTTP(&c.Config, cfg)
			adapters = append(adapters, deezer.NewClientWithConfig(c, logger))
		case shared.ProviderSaavn:
			c := saavn.DefaultConfig()
			applyHTTP(&c.Config, cfg)
			adapters = append(adapters, saavn.NewClientWithConfig(c, logger))
		case shared.ProviderLastFM:
			if cfg.LastFMAPIKey == "" {
				logger.Warn("last.fm api key missing, provider disabled")
				continue
			}
			c := lastfm.DefaultConfig(cfg.LastFMAPIKey)
			applyHTTP(&c.Config, cfg)
			adapters = append(adapters, lastfm.NewClientWithConfig(c, logger))
		case shared.ProviderMusicBrainz:
			c := musicbrainz.DefaultConfig()
			applyHTTP(&c.Config, cfg)
			adapters = append(adapters, musicbrainz.NewClientWithConfig(c, logger))
		}
	}
	if len(adapters) == 0 {
		return nil, ErrNoProviders
	}
	return adapters, nil
}

func applyHTTP(c *rest.Config, cfg *config.Config) {
	if cfg.RequestTimeout.Duration > 0 {
		c.Timeout = cfg.RequestTimeout.Duration
	}
	c.MaxRetries = cfg.MaxRetryAttempts
}

// ConfigService implementation
type ConfigService struct{}

func NewConfigService() *ConfigService {
	return &ConfigService{}
}

// LoadConfig reads configFile on top of the defaults
func (cs *ConfigService) LoadConfig(configFile string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if err := config.LoadConfig(configFile, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cs *ConfigService) SaveConfig(configFile string, cfg *config.Config) error {
	return config.SaveConfig(configFile, cfg)
}

func (cs *ConfigService) ValidateConfig(cfg *config.Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	return cfg.Validate()
}

func (cs *ConfigService) GetDefaultConfig() *config.Config {
	return config.DefaultConfig()
}

// EnsureConfigExists writes the default config when configFile is missing
func (cs *ConfigService) EnsureConfigExists(configFile string) error {
	if !shared.FileExists(configFile) {
		return cs.SaveConfig(configFile, cs.GetDefaultConfig())
	}
	return nil
}

// ConsoleLogger implementation
type ConsoleLogger struct {
	out       io.Writer
	debugMode bool
}

func NewConsoleLogger(out io.Writer) *ConsoleLogger {
	if out == nil {
		out = os.Stdout
	}
	return &ConsoleLogger{out: out}
}

func (cl *ConsoleLogger) Info(message string, args ...interface{}) {
	shared.ColorInfo.Fprintf(cl.out, message+"\n", args...)
}

func (cl *ConsoleLogger) Warning(message string, args ...interface{}) {
	shared.ColorWarning.Fprintf(cl.out, "⚠️ "+message+"\n", args...)
}

func (cl *ConsoleLogger) Error(message string, args ...interface{}) {
	shared.ColorError.Fprintf(cl.out, "❌ "+message+"\n", args...)
}

func (cl *ConsoleLogger) Debug(message string, args ...interface{}) {
	if !cl.debugMode {
		return
	}
	fmt.Fprintf(cl.out, "🐛 DEBUG: "+message+"\n", args...)
}

func (cl *ConsoleLogger) Success(message string, args ...interface{}) {
	shared.ColorSuccess.Fprintf(cl.out, "✅ "+message+"\n", args...)
}

func (cl *ConsoleLogger) SetDebugMode(enabled bool) {
	cl.debugMode = enabled
}
