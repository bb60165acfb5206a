package metadata

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"tuneharvest/internal/interfaces"
	"tuneharvest/internal/shared"
)

// Enricher backfills a chosen candidate from its provider's detail endpoint
type Enricher struct {
	fetchers map[shared.Provider]interfaces.DetailFetcher
	warnings *shared.WarningCollector
	logger   *log.Logger
}

// NewEnricher creates an enricher with no detail fetchers registered
func NewEnricher(warnings *shared.WarningCollector, logger *log.Logger) *Enricher {
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	return &Enricher{
		fetchers: make(map[shared.Provider]interfaces.DetailFetcher),
		warnings: warnings,
		logger:   logger,
	}
}

// Register attaches the detail fetcher for provider
func (e *Enricher) Register(provider shared.Provider, fetcher interfaces.DetailFetcher) {
	e.fetchers[provider] = fetcher
}

// Enrich returns candidate with empty fields filled from its provider's details.
// Any failure returns candidate unchanged.
func (e *Enricher) Enrich(ctx context.Context, candidate shared.TrackCandidate) shared.TrackCandidate {
	switch candidate.Provider {
	case shared.ProviderDeezer, shared.ProviderLastFM, shared.ProviderMusicBrainz, shared.ProviderSpotify:
	default:
		return candidate
	}

	fetcher, ok := e.fetchers[candidate.Provider]
	if !ok {
		return candidate
	}

	detail, err := e.details(ctx, fetcher, candidate)
	if err != nil {
		e.logger.Warn("enrichment failed", "provider", candidate.Provider, "title", candidate.Title, "err", err)
		e.warnings.AddEnrichmentWarning(candidate.Provider, candidate.Title, err.Error())
		return candidate
	}

	enriched := candidate.Backfill(detail)
	e.logger.Debug("enriched candidate", "provider", candidate.Provider, "title", enriched.Title,
		"album", enriched.Album, "genre", enriched.Genre, "date", enriched.ReleaseDate)
	return enriched
}

func (e *Enricher) details(ctx context.Context, fetcher interfaces.DetailFetcher, candidate shared.TrackCandidate) (detail shared.TrackCandidate, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return fetcher.Details(ctx, candidate)
}
