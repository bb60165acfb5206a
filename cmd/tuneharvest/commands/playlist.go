package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"tuneharvest/internal/config"
	"tuneharvest/internal/core/pipeline"
	"tuneharvest/internal/core/search"
	"tuneharvest/internal/services"
	"tuneharvest/internal/shared"
)

// NewPlaylistCommand creates the playlist download command
func NewPlaylistCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "playlist [playlist_url]",
		Short: "Download every entry of a playlist.",
		Args:  cobra.ExactArgs(1),
		RunE:  runPlaylistCommand,
	}
}

func runPlaylistCommand(cmd *cobra.Command, args []string) error {
	cfg, serviceContainer, err := initConfigAndServices(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	playlistURL := args[0]
	serviceContainer.Logger.Info("🎵 Fetching playlist: %s", playlistURL)
	name, entries, err := serviceContainer.YouTube.Entries(ctx, playlistURL)
	if err != nil {
		return fmt.Errorf("failed to fetch playlist: %w", err)
	}
	if len(entries) == 0 {
		serviceContainer.Logger.Warning("Playlist %s has no entries.", name)
		return nil
	}
	serviceContainer.Logger.Info("Found %d entries in %s", len(entries), name)

	return runBatch(ctx, cfg, serviceContainer, name, entries)
}

// runBatch runs entries through the pipeline and prints the summaries.
// Entry failures are reported, not returned.
func runBatch(ctx context.Context, cfg *config.Config, serviceContainer *services.ServiceContainer, name string, entries []shared.PlaylistEntry) error {
	if !shared.CheckFFmpeg() {
		printInstallInstructions()
		return errors.New("ffmpeg is required")
	}

	if err := serviceContainer.Cache.Acquire(); err != nil {
		if errors.Is(err, shared.ErrCacheLocked) {
			serviceContainer.Logger.Error("Another tuneharvest run is using %s", cfg.TempDir)
		}
		return err
	}
	defer func() {
		if err := serviceContainer.Cache.Release(); err != nil {
			serviceContainer.Logger.Debug("failed to release working directory lock: %v", err)
		}
	}()

	if serviceContainer.Navidrome != nil {
		if err := serviceContainer.Navidrome.Verify(); err != nil {
			serviceContainer.Logger.Warning("Library rescan disabled: %v", err)
			serviceContainer.Navidrome = nil
		}
	}

	var progress pipeline.ProgressFactory
	if shared.IsTTY() {
		progress = services.ProgressBars(os.Stdout)
	}

	stats := serviceContainer.Orchestrator(progress, os.Stdout).Run(ctx, entries)

	if serviceContainer.WarningCollector.HasWarnings() {
		serviceContainer.WarningCollector.PrintSummary()
	}

	fmt.Printf("\n")
	shared.ColorInfo.Printf("📊 Download Summary for %s:\n", name)
	fmt.Println(search.RenderOutcomes(stats))

	if stats.SuccessCount > 0 {
		shared.ColorSuccess.Printf("✅ Successfully downloaded: %d items\n", stats.SuccessCount)
	}
	if stats.SkippedCount > 0 {
		shared.ColorSkipped.Printf("⏭️  Skipped (no downloadable link): %d items\n", stats.SkippedCount)
	}
	if stats.FailedCount > 0 {
		shared.ColorError.Printf("❌ Failed downloads: %d items\n", stats.FailedCount)
		if len(stats.FailedItems) > 0 {
			shared.ColorError.Printf("   Failed items: %s\n", strings.Join(stats.FailedItems, ", "))
		}
	}
	shared.ColorSuccess.Printf("📁 Files saved to: %s\n", cfg.DestinationDir)

	if errors.Is(ctx.Err(), context.Canceled) {
		serviceContainer.Logger.Warning("Interrupted; remaining entries were not downloaded.")
	}
	return nil
}
