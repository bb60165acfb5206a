package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"tuneharvest/internal/core/search"
	"tuneharvest/internal/shared"
)

// NewResolveCommand creates the metadata preview command
func NewResolveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve [query]",
		Short: "Look up metadata for a title without downloading anything.",
		Args:  cobra.ExactArgs(1),
		RunE:  runResolveCommand,
	}
	cmd.Flags().String("alt", "", "Alternate query used when the first one finds nothing")
	return cmd
}

func runResolveCommand(cmd *cobra.Command, args []string) error {
	_, serviceContainer, err := initConfigAndServices(cmd)
	if err != nil {
		return err
	}
	alt, _ := cmd.Flags().GetString("alt")

	_, err = search.HandleResolve(cmd.Context(), serviceContainer.Resolver, args[0], alt, cmd.OutOrStdout())
	if serviceContainer.WarningCollector.HasWarnings() {
		serviceContainer.WarningCollector.PrintSummary()
	}
	if errors.Is(err, shared.ErrMetadataNotFound) {
		return nil
	}
	return err
}
