package cmd

import (
	"os"

	"github.com/huangsam/orgpulse/internal/outwriter"
	"github.com/huangsam/orgpulse/internal/store"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// snapshotCmd focused on snapshot store management.
var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Inspect, export and migrate the snapshot store",
	Long: `Manage the store that holds collected snapshots.

Supported backends: SQLite (default), MySQL, PostgreSQL, or None (disabled)

Subcommands:
  list    - List snapshots, newest first
  status  - Show store statistics
  export  - Export snapshots to Parquet for analytics
  migrate - Run database schema migrations`,
}

var snapshotListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List collected snapshots, newest first",
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		st, err := openStore(rootCtx)
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		snapshots, err := st.ListSnapshots(rootCtx)
		if err != nil {
			return err
		}
		return outwriter.NewOutWriter().WriteSnapshots(snapshots, cfg)
	},
}

var snapshotStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display snapshot store statistics and connection details",
	Long: `Show the backend, schema version, snapshot count and table sizes.

Examples:
  # Check store status
  orgpulse snapshot status`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		st, err := openStore(rootCtx)
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		status, err := st.GetStatus(rootCtx)
		if err != nil {
			return err
		}
		store.PrintStoreStatus(os.Stdout, status)
		return nil
	},
}

var snapshotExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export snapshots to Parquet for BI tools and analytics",
	Long: `Export snapshots, repository snapshots and contributor snapshots to three
Parquet files named after --output-file. Use --snapshot to export one snapshot.

Requires: --output-file parameter

Examples:
  # Export everything
  orgpulse snapshot export --output-file orgpulse

  # Query with DuckDB
  duckdb -c "SELECT * FROM read_parquet('orgpulse.repository_snapshots.parquet') LIMIT 10"`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		st, err := openStore(rootCtx)
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()
		return st.ExportParquet(rootCtx, os.Stdout, cfg.OutputFile, cfg.SnapshotID)
	},
}

var snapshotMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions for the snapshot store.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  orgpulse snapshot migrate

  # Rollback to the initial state
  orgpulse snapshot migrate --target-version 0`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		targetVersion := viper.GetInt("target-version")
		res, err := store.Migrate(rootCtx, cfg.DBBackend, cfg.DBConnect, targetVersion)
		if err != nil {
			return err
		}
		store.PrintMigrationResult(res, targetVersion)
		return nil
	},
}
