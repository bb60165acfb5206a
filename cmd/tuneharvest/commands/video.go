package commands

import (
	"github.com/spf13/cobra"

	"tuneharvest/internal/shared"
)

// NewVideoCommand creates the single video download command
func NewVideoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "video [video_url]",
		Short: "Download a single video through the same pipeline.",
		Args:  cobra.ExactArgs(1),
		RunE:  runVideoCommand,
	}
}

func runVideoCommand(cmd *cobra.Command, args []string) error {
	cfg, serviceContainer, err := initConfigAndServices(cmd)
	if err != nil {
		return err
	}

	entry, err := serviceContainer.YouTube.SingleEntry(args[0])
	if err != nil {
		return err
	}
	serviceContainer.Logger.Info("🎵 Starting download for: %s", entry.Label())
	return runBatch(cmd.Context(), cfg, serviceContainer, entry.Label(), []shared.PlaylistEntry{entry})
}
