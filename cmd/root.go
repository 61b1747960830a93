package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/huangsam/orgpulse/core"
	"github.com/huangsam/orgpulse/internal/contract"
	"github.com/huangsam/orgpulse/internal/dashboard"
	"github.com/huangsam/orgpulse/internal/gateway"
	"github.com/huangsam/orgpulse/internal/store"
	"github.com/huangsam/orgpulse/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// All linker flags will be set by goreleaser infra at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCtx is the root context for all operations.
var rootCtx = context.Background()

// cfg will hold the validated, final configuration.
var cfg = &contract.Config{}

// input holds the raw, unvalidated configuration from all sources (file, env, flags).
// Viper will unmarshal into this struct.
var input = &contract.ConfigRawInput{}

// rootCmd opens the interactive dashboard when no subcommand is given.
var rootCmd = &cobra.Command{
	Use:   "orgpulse",
	Short: "Track contribution activity across GitHub organizations.",
	Long: `orgpulse collects commits and merged pull requests across your GitHub organizations
into immutable snapshots, then lets you explore them in an interactive dashboard.

Dashboard keys:
  o/r/u      organizations, repositories, contributors
  t          snapshot picker
  j/k        move selection (arrow keys work too)
  enter      drill down or pick a snapshot
  esc        go back
  n/c/l/R/p  sort by name, commits, lines, repos, PRs (again to flip order)
  s          flip sort order
  S          collect a new snapshot (the dashboard pauses until it finishes)
  q          quit`,
	Version:            version,
	SilenceErrors:      true,
	SilenceUsage:       true,
	DisableSuggestions: true,
	PreRunE:            sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return runDashboard(rootCtx)
	},
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	// Check if a specific config file is provided
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName(".orgpulse")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
	}

	viper.SetEnvPrefix("ORGPULSE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("organizations", []string{})
	viper.SetDefault("lookback-days", contract.DefaultLookbackDays)
	viper.SetDefault("include-private", true)
	viper.SetDefault("rate-limit-delay-ms", contract.DefaultRateLimitDelayMs)
	viper.SetDefault("ignored-org-pattern", "")
	viper.SetDefault("ignored-user-pattern", "")
	viper.SetDefault("ignored-repo-pattern", "")
	viper.SetDefault("db-backend", schema.SQLiteBackend)
	viper.SetDefault("db-connect", "")
	viper.SetDefault("github-token", "")
	viper.SetDefault("log-file", "")
	viper.SetDefault("metrics-file", "")
	viper.SetDefault("lock-file", "")
	viper.SetDefault("output", schema.TextOut)
	viper.SetDefault("sort", schema.SortByCommits)
	viper.SetDefault("order", schema.Descending)
	viper.SetDefault("color", "yes")
}

// loadConfigFile reads the config file if one exists. A missing file is fine.
func loadConfigFile() error {
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}
	return nil
}

// sharedSetup unmarshals config and runs validation.
func sharedSetup(_ context.Context, _ *cobra.Command, _ []string) error {
	// 1. Read config file. This merges defaults, file, env, and flags.
	if err := loadConfigFile(); err != nil {
		return err
	}

	// 2. Unmarshal all resolved values from Viper into our raw input struct.
	if err := viper.Unmarshal(input); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}

	// 3. Run all validation and pattern compilation before any command does work.
	return contract.ProcessAndValidate(cfg, input)
}

// sharedSetupWrapper wraps sharedSetup to provide context for Cobra's PreRunE.
func sharedSetupWrapper(cmd *cobra.Command, args []string) error {
	return sharedSetup(rootCtx, cmd, args)
}

// openStore opens the configured snapshot store, migrating it if needed.
func openStore(ctx context.Context) (*store.Store, error) {
	st, err := store.Open(ctx, cfg.DBBackend, cfg.DBConnect)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot store: %w", err)
	}
	return st, nil
}

// newCollector wires the GitHub gateway and the store into a collector.
func newCollector(st contract.SnapshotWriter, logger *slog.Logger) (*core.Collector, error) {
	source, err := gateway.NewGitHubGateway(contract.ResolveGitHubToken(cfg), logger)
	if err != nil {
		return nil, err
	}
	return core.NewCollector(cfg, source, st, core.WithLogger(logger)), nil
}

// runDashboard opens the store and runs the dashboard until the user quits.
// Startup failures are returned before the terminal is switched to raw mode.
func runDashboard(ctx context.Context) error {
	logger, closer, err := contract.NewFileLogger(cfg.LogFile, slog.LevelInfo)
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()

	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	// Without a token the dashboard still browses existing snapshots.
	var collector contract.Collector
	c, err := newCollector(st, logger)
	switch {
	case err == nil:
		collector = c
	case errors.Is(err, gateway.ErrMissingToken):
		logger.Warn("collection disabled", "error", err)
	default:
		return err
	}

	d := dashboard.New(st, collector,
		dashboard.WithLogger(logger),
		dashboard.WithSort(cfg.SortField, cfg.SortOrder),
	)
	if err := d.Init(ctx); err != nil {
		return err
	}

	term, err := dashboard.OpenTerminal()
	if err != nil {
		return err
	}
	defer func() { _ = term.Close() }()

	logger.Info("dashboard started", "snapshot", d.Snapshot().ID)
	return dashboard.Run(ctx, d, term)
}

// Execute runs the root command with ctx as the root context.
func Execute(ctx context.Context) error {
	rootCtx = ctx
	return rootCmd.ExecuteContext(ctx)
}
