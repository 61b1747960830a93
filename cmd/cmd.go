// Package cmd defines the command-line interface for orgpulse.
package cmd

import (
	"github.com/huangsam/orgpulse/internal/contract"
	"github.com/huangsam/orgpulse/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(collectCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)

	// Add the report subcommands to the parent report command
	reportCmd.AddCommand(reportOrgsCmd)
	reportCmd.AddCommand(reportReposCmd)
	reportCmd.AddCommand(reportContributorsCmd)

	// Add the snapshot subcommands to the parent snapshot command
	snapshotCmd.AddCommand(snapshotListCmd)
	snapshotCmd.AddCommand(snapshotStatusCmd)
	snapshotCmd.AddCommand(snapshotExportCmd)
	snapshotCmd.AddCommand(snapshotMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().String("sort", string(schema.SortByCommits), "Sort field: name or commits or lines or repos or prs")
	rootCmd.PersistentFlags().String("order", string(schema.Descending), "Sort order: asc or desc")
	rootCmd.PersistentFlags().Int64("snapshot", 0, "Snapshot id to read (0 = latest)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of snapshotMigrateCmd to Viper
	snapshotMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(snapshotMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding snapshot migrate flags", err)
	}

	// Bind all flags of initCmd to Viper
	initCmd.Flags().String("path", ".orgpulse.yaml", "Where to write the config file")
	initCmd.Flags().Bool("force", false, "Overwrite an existing config file without asking")
	if err := viper.BindPFlags(initCmd.Flags()); err != nil {
		contract.LogFatal("Error binding init flags", err)
	}
}
