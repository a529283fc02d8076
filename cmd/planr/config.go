package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/planr/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect configuration",
	Long: `View planr configuration.

Configuration is read from ~/.config/planr/config.yaml, then overridden by
.planr.yaml in the project and by PLANR_* environment variables
(e.g. PLANR_GENERATION_BACKEND=anthropic).`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if flagJSON {
			masked := *cfg
			masked.Anthropic.APIKey = config.MaskAPIKey(cfg.Anthropic.APIKey)
			masked.Mirror.Token = config.MaskToken(cfg.Mirror.Token)
			return printJSON(cmd.OutOrStdout(), masked)
		}
		displayAllConfig(cmd.OutOrStdout(), cfg)
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file locations",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "user:    %s\n", config.GetUserConfigPath())
		project := config.GetProjectConfigPath()
		if project == "" {
			project = "(none)"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "project: %s\n", project)
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
}

// displayAllConfig prints all configuration values with secrets masked.
func displayAllConfig(w io.Writer, cfg *config.Config) {
	key, source, _ := config.ResolveAPIKey(cfg)

	fmt.Fprintf(w, "database.path: %s\n", orDefault(cfg.Database.Path, "(project .planr/state.db)"))
	fmt.Fprintf(w, "database.driver: %s\n", cfg.Database.Driver)
	fmt.Fprintf(w, "generation.backend: %s\n", cfg.Generation.Backend)
	fmt.Fprintf(w, "generation.model: %s\n", cfg.Generation.Model)
	fmt.Fprintf(w, "generation.timeout: %s\n", cfg.Generation.Timeout)
	fmt.Fprintf(w, "anthropic.api_key: %s (%s)\n", config.MaskAPIKey(key), source)
	fmt.Fprintf(w, "anthropic.base_url: %s\n", orDefault(cfg.Anthropic.BaseURL, "(default)"))
	fmt.Fprintf(w, "aws.region: %s\n", orDefault(cfg.AWS.Region, "(default)"))
	fmt.Fprintf(w, "aws.profile: %s\n", orDefault(cfg.AWS.Profile, "(default)"))
	fmt.Fprintf(w, "mirror.endpoint: %s\n", orDefault(cfg.Mirror.Endpoint, "(disabled)"))
	fmt.Fprintf(w, "mirror.token: %s\n", config.MaskToken(cfg.Mirror.Token))
	fmt.Fprintf(w, "cleanup.workers: %d\n", cfg.Cleanup.Workers)
	fmt.Fprintf(w, "cleanup.queue_size: %d\n", cfg.Cleanup.QueueSize)
	fmt.Fprintf(w, "log.level: %s\n", cfg.Log.Level)
	fmt.Fprintf(w, "log.file: %s\n", orDefault(cfg.Log.File, "(project .planr/logs/planr.log)"))
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
