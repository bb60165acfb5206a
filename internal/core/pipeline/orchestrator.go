// Package pipeline drives each playlist entry from its source URL to a tagged file in the library.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"

	"github.com/charmbracelet/log"

	"tuneharvest/internal/core/normalize"
	"tuneharvest/internal/interfaces"
	"tuneharvest/internal/shared"
)

// ProgressFactory creates the progress hook for one download; done is called when the download returns
type ProgressFactory func(label string) (hook interfaces.ProgressHook, done func())

// Collaborators are the services an entry passes through
type Collaborators struct {
	Titles      interfaces.TitleLookup
	VideoTitles interfaces.VideoTitleSource
	Links       interfaces.LinkResolver
	Downloader  interfaces.AudioDownloader
	Transcoder  interfaces.Transcoder
	Resolver    interfaces.CandidateResolver
	Enricher    interfaces.CandidateEnricher
	Artwork     interfaces.ArtworkResolver
	Tags        interfaces.TagWriter
	Cache       interfaces.CacheManager
	Scanner     interfaces.LibraryScanner // optional
}

// Options are the per-batch settings of the orchestrator
type Options struct {
	DestinationDir string
	WorkDir        string // downloads land here; purged by the cache manager
	Target         shared.AudioTarget
	Placeholder    string
	SaveAlbumArt   bool
	Progress       ProgressFactory
	Output         io.Writer // status lines; defaults to stdout
}

// Orchestrator runs entries through the pipeline one at a time
type Orchestrator struct {
	c        Collaborators
	opts     Options
	warnings *shared.WarningCollector
	logger   *log.Logger
}

// NewOrchestrator creates an orchestrator
func NewOrchestrator(c Collaborators, opts Options, warnings *shared.WarningCollector, logger *log.Logger) *Orchestrator {
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Placeholder == "" {
		opts.Placeholder = shared.DefaultFilenamePlaceholder
	}
	return &Orchestrator{c: c, opts: opts, warnings: warnings, logger: logger}
}

// entryRun is the mutable state of one entry
type entryRun struct {
	entry   shared.PlaylistEntry
	state   State
	title   string // cleaned title, the primary metadata query
	display string // oEmbed title, the alternate query and the file name
	logger  *log.Logger
}

func (r *entryRun) advance(to State) error {
	next, err := Transition(r.state, to)
	if err != nil {
		return err
	}
	r.logger.Debug("state", "from", r.state, "to", next)
	r.state = next
	return nil
}

// Run processes entries sequentially in playlist order and never stops early.
// The working area is purged before every entry and after every entry that did not clean up itself.
func (o *Orchestrator) Run(ctx context.Context, entries []shared.PlaylistEntry) shared.BatchStats {
	runID := shared.GenerateID()
	logger := shared.WithLogger(o.logger, "run", runID)
	logger.Debug("batch started", "entries", len(entries))

	var stats shared.BatchStats
	for i, entry := range entries {
		o.clearCache(logger)

		outcome := o.processEntry(ctx, entry, logger)
		if outcome.Kind != shared.OutcomeSucceeded {
			o.clearCache(logger)
		}

		stats.Record(outcome)
		o.printOutcome(i+1, len(entries), outcome)
	}

	if stats.SuccessCount > 0 && o.c.Scanner != nil {
		if err := o.c.Scanner.Rescan(ctx); err != nil {
			logger.Warn("library rescan failed", "err", err)
			shared.ColorWarning.Fprintf(o.opts.Output, "⚠️  Library rescan failed: %v\n", err)
		} else {
			shared.ColorInfo.Fprintln(o.opts.Output, "🔄 Library rescan started")
		}
	}

	logger.Debug("batch finished", "succeeded", stats.SuccessCount, "skipped", stats.SkippedCount, "failed", stats.FailedCount)
	return stats
}

// ProcessEntry runs one entry to a terminal outcome. Every error and panic
// is converted into a Failed outcome carrying a *shared.EntryFailure.
func (o *Orchestrator) ProcessEntry(ctx context.Context, entry shared.PlaylistEntry) shared.PipelineOutcome {
	return o.processEntry(ctx, entry, o.logger)
}

func (o *Orchestrator) processEntry(ctx context.Context, entry shared.PlaylistEntry, logger *log.Logger) (outcome shared.PipelineOutcome) {
	run := &entryRun{
		entry:  entry,
		state:  StatePending,
		logger: shared.WithLogger(logger, "entry", entry.Label()),
	}

	defer func() {
		if rec := recover(); rec != nil {
			outcome = o.fail(run, fmt.Errorf("panic: %v", rec), debug.Stack())
		}
	}()

	outcome, err := o.process(ctx, run)
	if err != nil {
		return o.fail(run, err, nil)
	}
	return outcome
}

func (o *Orchestrator) fail(run *entryRun, err error, stack []byte) shared.PipelineOutcome {
	failure := &shared.EntryFailure{Entry: run.entry, State: run.state.String(), Err: err, Stack: stack}
	run.logger.Debug("entry failed", "state", run.state, "err", err)
	if stack != nil {
		run.logger.Debug("recovered panic", "stack", string(stack))
	}
	if next, terr := Transition(run.state, StateFailed); terr == nil {
		run.state = next
	}
	return shared.PipelineOutcome{
		Kind:  shared.OutcomeFailed,
		Entry: run.entry,
		Title: firstNonEmpty(run.display, run.title),
		Err:   failure,
	}
}

func (o *Orchestrator) process(ctx context.Context, run *entryRun) (shared.PipelineOutcome, error) {
	entry := run.entry

	// Pending -> TitleResolved
	title, err := o.resolveTitle(ctx, run)
	if err != nil {
		return shared.PipelineOutcome{}, err
	}
	run.title = title
	if err := run.advance(StateTitleResolved); err != nil {
		return shared.PipelineOutcome{}, err
	}

	// TitleResolved -> LinkResolved
	link, display, err := o.c.Links.Resolve(ctx, entry.SourceURL)
	if err != nil {
		return shared.PipelineOutcome{}, fmt.Errorf("resolving link: %w", err)
	}
	run.display = firstNonEmpty(strings.TrimSpace(display), run.title)
	if err := run.advance(StateLinkResolved); err != nil {
		return shared.PipelineOutcome{}, err
	}

	if link == "" {
		if err := run.advance(StateSkipped); err != nil {
			return shared.PipelineOutcome{}, err
		}
		o.warnings.AddEntrySkippedWarning(entry.Label())
		return shared.PipelineOutcome{Kind: shared.OutcomeSkipped, Entry: entry, Title: run.display}, nil
	}

	// LinkResolved -> Downloaded
	base := filepath.Join(o.opts.WorkDir, shared.SanitizeTrackFileName(run.display, "", o.opts.Placeholder))
	downloaded, err := o.download(ctx, link, base, run.display)
	if err != nil {
		return shared.PipelineOutcome{}, fmt.Errorf("downloading: %w", err)
	}
	if err := run.advance(StateDownloaded); err != nil {
		return shared.PipelineOutcome{}, err
	}

	// Downloaded -> Converted
	converted, err := o.c.Transcoder.Transcode(ctx, downloaded, o.opts.Target)
	if err != nil {
		return shared.PipelineOutcome{}, fmt.Errorf("transcoding: %w", err)
	}
	if converted.Status == shared.TranscodeBenignQuirk {
		run.logger.Debug("transcoder kept existing output", "path", converted.OutputPath)
		o.warnings.AddTranscodeQuirkWarning(converted.OutputPath, "output already existed")
	}
	if err := run.advance(StateConverted); err != nil {
		return shared.PipelineOutcome{}, err
	}

	// Converted -> MetadataResolved
	var candidate *shared.TrackCandidate
	ranked, err := o.c.Resolver.ResolveWithFallback(ctx, run.title, run.display)
	switch {
	case errors.Is(err, shared.ErrMetadataNotFound):
		run.logger.Warn("no metadata found, moving untagged", "title", run.title, "display", run.display)
		o.warnings.AddMetadataNotFoundWarning(run.title)
	case err != nil:
		return shared.PipelineOutcome{}, fmt.Errorf("resolving metadata: %w", err)
	default:
		if best, ok := ranked.Best(); ok {
			candidate = &best
		}
	}
	if err := run.advance(StateMetadataResolved); err != nil {
		return shared.PipelineOutcome{}, err
	}

	// MetadataResolved -> Tagged
	var art []byte
	if candidate != nil {
		art, err = o.tag(ctx, run, candidate, converted.OutputPath)
		if err != nil {
			return shared.PipelineOutcome{}, err
		}
		if err := run.advance(StateTagged); err != nil {
			return shared.PipelineOutcome{}, err
		}
	}

	// -> Moved
	destination := filepath.Join(o.opts.DestinationDir, shared.SanitizeTrackFileName(run.display, o.opts.Target.Format, o.opts.Placeholder))
	if err := shared.CreateDirIfNotExists(o.opts.DestinationDir); err != nil {
		return shared.PipelineOutcome{}, fmt.Errorf("creating destination: %w", err)
	}
	if err := shared.MoveFile(converted.OutputPath, destination); err != nil {
		return shared.PipelineOutcome{}, fmt.Errorf("moving to library: %w", err)
	}
	if err := run.advance(StateMoved); err != nil {
		return shared.PipelineOutcome{}, err
	}
	if o.opts.SaveAlbumArt && len(art) > 0 {
		o.saveArt(destination, art)
	}

	// Moved -> CleanedUp
	o.clearCache(run.logger)
	if err := run.advance(StateCleanedUp); err != nil {
		return shared.PipelineOutcome{}, err
	}

	return shared.PipelineOutcome{
		Kind:        shared.OutcomeSucceeded,
		Entry:       entry,
		Title:       run.display,
		Destination: destination,
		Tagged:      candidate != nil,
	}, nil
}

// resolveTitle prefers the music catalog title and falls back to the normalized platform title
func (o *Orchestrator) resolveTitle(ctx context.Context, run *entryRun) (string, error) {
	entry := run.entry
	if o.c.Titles != nil && entry.VideoID != "" {
		title, err := o.c.Titles.Title(ctx, entry.VideoID)
		if err == nil {
			if cleaned := normalize.Title(title); cleaned != "" {
				return cleaned, nil
			}
		} else {
			run.logger.Debug("catalog title lookup failed", "video", entry.VideoID, "err", err)
		}
	}

	raw := entry.RawTitle
	if o.c.VideoTitles != nil {
		title, err := o.c.VideoTitles.VideoTitle(ctx, entry.SourceURL)
		if err == nil {
			raw = title
		} else if raw == "" {
			return "", fmt.Errorf("resolving title: %w", err)
		}
	}
	if cleaned := normalize.Title(raw); cleaned != "" {
		return cleaned, nil
	}
	return "", fmt.Errorf("resolving title: no usable title for %s", entry.SourceURL)
}

func (o *Orchestrator) download(ctx context.Context, link, base, label string) (string, error) {
	var hook interfaces.ProgressHook
	if o.opts.Progress != nil {
		var done func()
		hook, done = o.opts.Progress(label)
		if done != nil {
			defer done()
		}
	}
	return o.c.Downloader.Download(ctx, link, base, hook)
}

// tag enriches the candidate, resolves its art and writes the tag block
func (o *Orchestrator) tag(ctx context.Context, run *entryRun, candidate *shared.TrackCandidate, path string) ([]byte, error) {
	if o.c.Enricher != nil {
		*candidate = o.c.Enricher.Enrich(ctx, *candidate)
	}

	var art []byte
	if o.c.Artwork != nil && candidate.ArtworkRef != "" {
		if data, ok := o.c.Artwork.Resolve(ctx, candidate.ArtworkRef); ok {
			art = data
		}
	}

	run.logger.Debug("writing tags", "provider", candidate.Provider, "title", candidate.Title,
		"artist", candidate.Artist, "album", candidate.Album, "art", len(art) > 0)

	if err := o.c.Tags.WriteTags(path, shared.TagFieldsFrom(*candidate), art); err != nil {
		var tagErr *shared.TaggingError
		if !errors.As(err, &tagErr) {
			err = &shared.TaggingError{Err: err}
		}
		return nil, err
	}
	return art, nil
}

func (o *Orchestrator) saveArt(destination string, art []byte) {
	path := strings.TrimSuffix(destination, filepath.Ext(destination)) + ".jpg"
	if err := os.WriteFile(path, art, 0644); err != nil {
		o.warnings.AddCoverArtDownloadWarning(path, fmt.Sprintf("Failed to save: %v", err))
	}
}

func (o *Orchestrator) clearCache(logger *log.Logger) {
	if o.c.Cache == nil {
		return
	}
	if err := o.c.Cache.ClearAll(); err != nil {
		logger.Warn("failed to purge working area", "err", err)
	}
}

func (o *Orchestrator) printOutcome(index, total int, outcome shared.PipelineOutcome) {
	c := shared.OutcomeColor(outcome.Kind)
	label := firstNonEmpty(outcome.Title, outcome.Entry.Label())
	switch outcome.Kind {
	case shared.OutcomeSucceeded:
		suffix := ""
		if !outcome.Tagged {
			suffix = " (untagged)"
		}
		c.Fprintf(o.opts.Output, "✅ [%d/%d] %s → %s%s\n", index, total, label, outcome.Destination, suffix)
	case shared.OutcomeSkipped:
		c.Fprintf(o.opts.Output, "⏭️  [%d/%d] %s skipped: no downloadable link\n", index, total, label)
	default:
		c.Fprintf(o.opts.Output, "❌ [%d/%d] %s: %v\n", index, total, label, rootCause(outcome.Err))
	}
}

// rootCause keeps the status line short; the full chain is in the debug log
func rootCause(err error) error {
	var failure *shared.EntryFailure
	if errors.As(err, &failure) {
		return failure.Err
	}
	return err
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
