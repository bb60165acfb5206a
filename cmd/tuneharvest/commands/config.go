package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"tuneharvest/internal/config"
	"tuneharvest/internal/services"
	"tuneharvest/internal/shared"
)

// NewConfigCommand creates the config command group
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file.",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "init [path]",
		Short: "Write the default configuration.",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runConfigInitCommand,
	})
	return cmd
}

func runConfigInitCommand(cmd *cobra.Command, args []string) error {
	path := config.DefaultConfigPath()
	if len(args) == 1 {
		path = shared.ExpandHome(args[0])
	}
	if shared.FileExists(path) {
		return fmt.Errorf("config file %s already exists", path)
	}
	if err := services.NewConfigService().EnsureConfigExists(path); err != nil {
		return err
	}
	shared.ColorSuccess.Fprintf(cmd.OutOrStdout(), "✅ Configuration saved to %s\n", path)
	return nil
}
