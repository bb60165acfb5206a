package metadata

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"tuneharvest/internal/interfaces"
	"tuneharvest/internal/shared"
)

// PrimarySlots is how many of a provider's top results are ranked ahead of every provider's tail
const PrimarySlots = 10

// Options tunes the resolver
type Options struct {
	// Parallel queries all adapters at once; the merged ranking is the same as in sequential mode
	Parallel bool
	// MaxParallel bounds concurrent adapter calls when Parallel is set. 0 means no bound.
	MaxParallel int
}

// Resolver queries metadata providers in a fixed priority order and merges their rankings
type Resolver struct {
	adapters []interfaces.ProviderAdapter
	opts     Options
	warnings *shared.WarningCollector
	logger   *log.Logger
}

// NewResolver creates a resolver over adapters, highest priority first
func NewResolver(adapters []interfaces.ProviderAdapter, opts Options, warnings *shared.WarningCollector, logger *log.Logger) *Resolver {
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	return &Resolver{adapters: adapters, opts: opts, warnings: warnings, logger: logger}
}

// Providers returns the priority list the resolver iterates
func (r *Resolver) Providers() []shared.Provider {
	providers := make([]shared.Provider, len(r.adapters))
	for i, a := range r.adapters {
		providers[i] = a.Provider()
	}
	return providers
}

// Resolve returns the merged candidate list for query, or shared.ErrMetadataNotFound.
// A failing provider is skipped; it never aborts the resolution.
func (r *Resolver) Resolve(ctx context.Context, query string) (shared.RankedCandidateList, error) {
	results := make([][]shared.TrackCandidate, len(r.adapters))

	if r.opts.Parallel && len(r.adapters) > 1 {
		var g errgroup.Group
		if r.opts.MaxParallel > 0 {
			g.SetLimit(r.opts.MaxParallel)
		}
		for i, adapter := range r.adapters {
			i, adapter := i, adapter
			g.Go(func() error {
				results[i] = r.query(ctx, adapter, query)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i, adapter := range r.adapters {
			results[i] = r.query(ctx, adapter, query)
		}
	}

	ranked := rank(results, PrimarySlots)
	if len(ranked) == 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w for %q", shared.ErrMetadataNotFound, query)
	}

	best := ranked[0]
	r.logger.Debug("resolved metadata", "query", query, "candidates", len(ranked),
		"provider", best.Provider, "title", best.Title, "artist", best.Artist)
	return ranked, nil
}

// ResolveWithFallback resolves primary and only tries alternate when primary found nothing.
// A populated primary result always wins.
func (r *Resolver) ResolveWithFallback(ctx context.Context, primary, alternate string) (shared.RankedCandidateList, error) {
	ranked, err := r.Resolve(ctx, primary)
	if !errors.Is(err, shared.ErrMetadataNotFound) {
		return ranked, err
	}

	alternate = strings.TrimSpace(alternate)
	if alternate == "" || strings.EqualFold(alternate, strings.TrimSpace(primary)) {
		return nil, err
	}

	r.logger.Debug("no metadata for primary query, trying alternate", "primary", primary, "alternate", alternate)
	return r.Resolve(ctx, alternate)
}

// query runs one adapter and converts errors and panics into a skipped provider
func (r *Resolver) query(ctx context.Context, adapter interfaces.ProviderAdapter, query string) (found []shared.TrackCandidate) {
	provider := adapter.Provider()

	defer func() {
		if rec := recover(); rec != nil {
			r.skip(&shared.ProviderQueryError{Provider: provider, Err: fmt.Errorf("panic: %v", rec)}, query)
			found = nil
		}
	}()

	candidates, err := adapter.Query(ctx, query)
	if err != nil {
		r.skip(&shared.ProviderQueryError{Provider: provider, Err: err}, query)
		return nil
	}

	for i := range candidates {
		if candidates[i].Provider == shared.ProviderUnknown {
			candidates[i].Provider = provider
		}
	}
	r.logger.Debug("provider answered", "provider", provider, "query", query, "results", len(candidates))
	return candidates
}

func (r *Resolver) skip(err *shared.ProviderQueryError, query string) {
	r.logger.Warn("skipping metadata provider", "provider", err.Provider, "query", query, "err", err.Err)
	r.warnings.AddProviderQueryWarning(err.Provider, query, err.Err.Error())
}

// rank places the first slots results of each provider, in provider order,
// ahead of every provider's remaining results.
func rank(results [][]shared.TrackCandidate, slots int) shared.RankedCandidateList {
	var primary, overflow shared.RankedCandidateList
	for _, candidates := range results {
		if len(candidates) > slots {
			primary = append(primary, candidates[:slots]...)
			overflow = append(overflow, candidates[slots:]...)
		} else {
			primary = append(primary, candidates...)
		}
	}
	return append(primary, overflow...)
}
