package cmd

import (
	"github.com/huangsam/orgpulse/internal/outwriter"
	"github.com/huangsam/orgpulse/schema"
	"github.com/spf13/cobra"
)

// reportCmd groups the headless rollup reports.
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print organization, repository or contributor rollups",
	Long: `Print one rollup of a snapshot as a table, CSV or JSON.

Rollups read the latest snapshot unless --snapshot selects another one, and
are ordered by --sort and --order. Text output ends with the commit
distribution (total, mean, median, p90).

Examples:
  # Busiest repositories of the latest snapshot
  orgpulse report repos

  # Contributors by lines changed, as CSV
  orgpulse report contributors --sort lines --output csv --output-file people.csv

  # Organizations of an older snapshot
  orgpulse report orgs --snapshot 3`,
}

var reportOrgsCmd = &cobra.Command{
	Use:     "orgs",
	Short:   "Totals per organization",
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		rollups, err := loadRollups()
		if err != nil {
			return err
		}
		schema.SortRows(rollups.Organizations, cfg.SortField, cfg.SortOrder)
		return outwriter.NewOutWriter().WriteOrgRollup(rollups.Snapshot, rollups.Organizations, cfg)
	},
}

var reportReposCmd = &cobra.Command{
	Use:     "repos",
	Short:   "Totals per repository",
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		rollups, err := loadRollups()
		if err != nil {
			return err
		}
		schema.SortRows(rollups.Repositories, cfg.SortField, cfg.SortOrder)
		return outwriter.NewOutWriter().WriteRepoRollup(rollups.Snapshot, rollups.Repositories, cfg)
	},
}

var reportContributorsCmd = &cobra.Command{
	Use:     "contributors",
	Short:   "Totals per contributor",
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		rollups, err := loadRollups()
		if err != nil {
			return err
		}
		schema.SortRows(rollups.Contributors, cfg.SortField, cfg.SortOrder)
		return outwriter.NewOutWriter().WriteContributorRollup(rollups.Snapshot, rollups.Contributors, cfg)
	},
}

// loadRollups opens the store and loads every rollup of the configured snapshot.
func loadRollups() (schema.Rollups, error) {
	st, err := openStore(rootCtx)
	if err != nil {
		return schema.Rollups{}, err
	}
	defer func() { _ = st.Close() }()
	return st.LoadRollups(rootCtx, cfg.SnapshotID)
}
