package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	flagConfigPath string
	flagDBPath     string
	flagLogLevel   string
	flagJSON       bool
)

var rootCmd = &cobra.Command{
	Use:   "planr",
	Short: "Clarify, plan and manage development tasks",
	Long: `planr turns loosely described tasks into agreed requirements.

Planning a task generates clarification questions. Once every required
question is answered a requirements summary is produced and the task can
move into progress.

Core capabilities:
- Generates clarification questions with Claude (or an offline stub)
- Tracks answers per question and gates completion on required ones
- Summarizes answers into a requirements document
- Deletes tasks transactionally and reclaims their worktrees in the background
- Mirrors shared tasks to a remote service`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "Load configuration from this file instead of the default locations")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "Override database.path")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Override log.level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Print results as JSON")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(taskCmd)
	rootCmd.AddCommand(attemptCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
