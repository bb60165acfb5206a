package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"tuneharvest/internal/config"
	"tuneharvest/internal/services"
	"tuneharvest/internal/shared"
)

// NewRootCommand creates the tuneharvest command tree
func NewRootCommand(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "tuneharvest",
		Version: version,
		Short:   "Download YouTube playlists as tagged audio files.",
		Long: fmt.Sprintf(`tuneharvest (v%s)

Downloads every entry of a YouTube or YouTube Music playlist as audio,
looks up metadata across several music catalogs, embeds tags and cover
art and moves the finished files into your library.

A failing entry is reported and skipped; the rest of the batch continues.`, version),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Config file (.json or .toml, default "+config.DefaultConfigPath()+")")
	flags.Bool("debug", false, "Enable debug logging")
	flags.String("dest", "", "Destination library directory")
	flags.String("temp", "", "Temporary working directory")
	flags.String("format", "", "Output format (mp3, flac)")
	flags.String("bitrate", "", "Bitrate for mp3 output (in kbps)")
	flags.StringSlice("providers", nil, "Metadata providers in priority order (itunes, spotify, gaana, deezer, saavn, lastfm, musicbrainz)")
	flags.Bool("parallel-providers", false, "Query metadata providers concurrently")

	rootCmd.AddCommand(NewPlaylistCommand())
	rootCmd.AddCommand(NewVideoCommand())
	rootCmd.AddCommand(NewResolveCommand())
	rootCmd.AddCommand(NewConfigCommand())
	return rootCmd
}

func isDebug(cmd *cobra.Command) bool {
	debug, _ := cmd.Flags().GetBool("debug")
	return debug || shared.IsDebugMode()
}

// loadConfig applies defaults < config file < command-line flags
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configService := services.NewConfigService()

	configFile, _ := cmd.Flags().GetString("config")
	explicit := configFile != ""
	if !explicit {
		configFile = config.DefaultConfigPath()
	}

	cfg := configService.GetDefaultConfig()
	if shared.FileExists(configFile) {
		loaded, err := configService.LoadConfig(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", configFile, err)
		}
		cfg = loaded
	} else if explicit {
		return nil, fmt.Errorf("config file %s does not exist", configFile)
	}

	// Command-line flags override config file
	if cmd.Flags().Changed("dest") {
		cfg.DestinationDir, _ = cmd.Flags().GetString("dest")
	}
	if cmd.Flags().Changed("temp") {
		cfg.TempDir, _ = cmd.Flags().GetString("temp")
	}
	if cmd.Flags().Changed("format") {
		cfg.Format, _ = cmd.Flags().GetString("format")
	}
	if cmd.Flags().Changed("bitrate") {
		cfg.Bitrate, _ = cmd.Flags().GetString("bitrate")
	}
	if cmd.Flags().Changed("providers") {
		providers, _ := cmd.Flags().GetStringSlice("providers")
		cfg.Providers = nil
		for _, p := range providers {
			if p = strings.TrimSpace(p); p != "" {
				cfg.Providers = append(cfg.Providers, strings.ToLower(p))
			}
		}
	}
	if cmd.Flags().Changed("parallel-providers") {
		cfg.ParallelProviders, _ = cmd.Flags().GetBool("parallel-providers")
	}

	if err := configService.ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func initConfigAndServices(cmd *cobra.Command) (*config.Config, *services.ServiceContainer, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	serviceContainer, err := services.NewServiceContainer(cfg, isDebug(cmd))
	if err != nil {
		return nil, nil, err
	}
	return cfg, serviceContainer, nil
}

func printInstallInstructions() {
	shared.ColorError.Println("❌ ffmpeg was not found in your PATH.")
	shared.ColorInfo.Println("Install it and try again:")
	fmt.Println("  macOS:          brew install ffmpeg")
	fmt.Println("  Debian/Ubuntu:  sudo apt install ffmpeg")
	fmt.Println("  Windows:        winget install ffmpeg")
	fmt.Fprintln(os.Stdout)
}
