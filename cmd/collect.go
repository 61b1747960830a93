package cmd

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/huangsam/orgpulse/core"
	"github.com/huangsam/orgpulse/internal/contract"
	"github.com/huangsam/orgpulse/internal/outwriter"
	"github.com/spf13/cobra"
)

// collectCmd runs one headless collection pass.
var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Collect one snapshot of organization activity",
	Long: `Fetch commits and merged pull requests for every tracked organization over the
lookback window and store them as a new snapshot.

Only one collection runs at a time. A run started while another one holds the
lock file exits with an error, which makes this command safe to schedule with cron.

Repositories that fail to fetch are skipped and listed in the summary. Failures
to list organizations or repositories, or to write the store, fail the whole run;
repositories committed before the failure stay in the snapshot.

Examples:
  # Collect with the config file in the current or home directory
  orgpulse collect

  # Machine-readable summary for scripts
  orgpulse collect --output json`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		logger := contract.NewStderrLogger(slog.LevelInfo)

		st, err := openStore(rootCtx)
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		collector, err := newCollector(st, logger)
		if err != nil {
			return err
		}

		result, runErr := collector.Collect(rootCtx)
		if errors.Is(runErr, core.ErrRunInProgress) {
			return runErr
		}
		if err := outwriter.NewOutWriter().WriteCollection(result, cfg); err != nil {
			return err
		}
		if runErr != nil {
			return fmt.Errorf("collection failed: %w", runErr)
		}
		return nil
	},
}
