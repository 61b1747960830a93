package contract

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/huangsam/orgpulse/schema"
	"github.com/jackc/pgx/v5"
)

// Default values for configuration.
const (
	DefaultLookbackDays     = 7
	DefaultRateLimitDelayMs = 500
	RepositoryPageSize      = 50
)

// DateTimeFormat is the default date time representation.
var DateTimeFormat = time.RFC3339

// Config holds the runtime configuration.
// This struct is the "final, validated" config.
type Config struct {
	Organizations  []string
	LookbackDays   int
	IncludePrivate bool
	RateLimitDelay time.Duration

	// Nil patterns ignore nothing.
	IgnoredOrgPattern  *regexp.Regexp
	IgnoredUserPattern *regexp.Regexp
	IgnoredRepoPattern *regexp.Regexp

	DBBackend schema.DatabaseBackend
	DBConnect string // Please use env var as this is plaintext

	GitHubToken string // Please use env var as this is plaintext
	LogFile     string
	MetricsFile string
	LockFile    string

	Output     schema.OutputMode
	OutputFile string
	SortField  schema.SortField
	SortOrder  schema.SortOrder
	SnapshotID int64 // 0 means latest
	UseColors  bool
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// --- Collection settings (config file / env) ---
	Organizations      []string `mapstructure:"organizations"`
	LookbackDays       int      `mapstructure:"lookback-days"`
	IncludePrivate     bool     `mapstructure:"include-private"`
	RateLimitDelayMs   int      `mapstructure:"rate-limit-delay-ms"`
	IgnoredOrgPattern  string   `mapstructure:"ignored-org-pattern"`
	IgnoredUserPattern string   `mapstructure:"ignored-user-pattern"`
	IgnoredRepoPattern string   `mapstructure:"ignored-repo-pattern"`

	// --- Storage and runtime settings ---
	DBBackend   string `mapstructure:"db-backend"`
	DBConnect   string `mapstructure:"db-connect"`
	GitHubToken string `mapstructure:"github-token"`
	LogFile     string `mapstructure:"log-file"`
	MetricsFile string `mapstructure:"metrics-file"`
	LockFile    string `mapstructure:"lock-file"`
	Color       string `mapstructure:"color"`

	// --- Fields from reportCmd.Flags() ---
	Output     string `mapstructure:"output"`
	OutputFile string `mapstructure:"output-file"`
	Sort       string `mapstructure:"sort"`
	Order      string `mapstructure:"order"`
	Snapshot   int64  `mapstructure:"snapshot"`
}

// Window returns the lookback window ending at now.
func (c *Config) Window(now time.Time) (start, end time.Time) {
	return now.AddDate(0, 0, -c.LookbackDays), now
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateCollectionInputs(cfg, input); err != nil {
		return err
	}
	if err := compileIgnorePatterns(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfig(cfg, input); err != nil {
		return err
	}
	if err := validateOutputInputs(cfg, input); err != nil {
		return err
	}
	resolveRuntimePaths(cfg, input)
	return nil
}

// validateCollectionInputs processes the settings that drive a collection run.
func validateCollectionInputs(cfg *Config, input *ConfigRawInput) error {
	if input.LookbackDays <= 0 {
		return fmt.Errorf("lookback-days must be greater than 0 (received %d)", input.LookbackDays)
	}
	cfg.LookbackDays = input.LookbackDays

	if input.RateLimitDelayMs < 0 {
		return fmt.Errorf("rate-limit-delay-ms cannot be negative (received %d)", input.RateLimitDelayMs)
	}
	cfg.RateLimitDelay = time.Duration(input.RateLimitDelayMs) * time.Millisecond
	cfg.IncludePrivate = input.IncludePrivate

	cfg.Organizations = nil
	seen := make(map[string]struct{}, len(input.Organizations))
	for _, org := range input.Organizations {
		org = strings.TrimSpace(org)
		if org == "" {
			continue
		}
		if _, ok := seen[org]; ok {
			continue
		}
		seen[org] = struct{}{}
		cfg.Organizations = append(cfg.Organizations, org)
	}

	cfg.GitHubToken = strings.TrimSpace(input.GitHubToken)
	if cfg.GitHubToken == "" {
		cfg.GitHubToken = strings.TrimSpace(os.Getenv("GITHUB_TOKEN"))
	}
	return nil
}

// compileIgnorePatterns compiles each ignore pattern once so bad input fails before any run.
func compileIgnorePatterns(cfg *Config, input *ConfigRawInput) error {
	var err error
	if cfg.IgnoredOrgPattern, err = CompileIgnorePattern("ignored-org-pattern", input.IgnoredOrgPattern); err != nil {
		return err
	}
	if cfg.IgnoredUserPattern, err = CompileIgnorePattern("ignored-user-pattern", input.IgnoredUserPattern); err != nil {
		return err
	}
	if cfg.IgnoredRepoPattern, err = CompileIgnorePattern("ignored-repo-pattern", input.IgnoredRepoPattern); err != nil {
		return err
	}
	return nil
}

// CompileIgnorePattern compiles a pattern, returning nil for an empty one.
func CompileIgnorePattern(key, pattern string) (*regexp.Regexp, error) {
	if strings.TrimSpace(pattern) == "" {
		return nil, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: %w", key, pattern, err)
	}
	return re, nil
}

// validateBackendConfig validates the snapshot store backend configuration.
func validateBackendConfig(cfg *Config, input *ConfigRawInput) error {
	cfg.DBBackend = schema.DatabaseBackend(strings.ToLower(input.DBBackend))
	if _, ok := schema.ValidDatabaseBackends[cfg.DBBackend]; !ok {
		return fmt.Errorf("invalid db backend '%s'. must be sqlite, mysql, postgresql, none", input.DBBackend)
	}
	if err := ValidateDatabaseConnectionString(cfg.DBBackend, input.DBConnect); err != nil {
		return err
	}
	cfg.DBConnect = input.DBConnect
	if cfg.DBBackend == schema.MySQLBackend {
		normalized, err := NormalizeMySQLDSN(input.DBConnect)
		if err != nil {
			return err
		}
		cfg.DBConnect = normalized
	}
	return nil
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if _, err := mysql.ParseDSN(connStr); err != nil {
			return fmt.Errorf("invalid MySQL connection string: %w", err)
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("db-connect is required when using %s backend", backend)
		}
		if _, err := pgx.ParseConfig(connStr); err != nil {
			return fmt.Errorf("invalid PostgreSQL connection string: %w", err)
		}
	}
	return nil
}

// NormalizeMySQLDSN enables the DSN options the store relies on:
// parseTime for DATETIME scanning and multiStatements for migrations.
func NormalizeMySQLDSN(connStr string) (string, error) {
	dsn, err := mysql.ParseDSN(connStr)
	if err != nil {
		return "", fmt.Errorf("invalid MySQL connection string: %w", err)
	}
	dsn.ParseTime = true
	dsn.MultiStatements = true
	return dsn.FormatDSN(), nil
}

// validateOutputInputs processes the report and export options.
func validateOutputInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.OutputFile = input.OutputFile
	cfg.SnapshotID = input.Snapshot
	if cfg.SnapshotID < 0 {
		return fmt.Errorf("snapshot must be a positive id or 0 for latest (received %d)", input.Snapshot)
	}

	colors, err := ParseBoolString(defaultString(input.Color, "yes"))
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	cfg.Output = schema.OutputMode(strings.ToLower(defaultString(input.Output, string(schema.TextOut))))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json", input.Output)
	}

	cfg.SortField = schema.SortField(strings.ToLower(defaultString(input.Sort, string(schema.SortByCommits))))
	if _, ok := schema.ValidSortFields[cfg.SortField]; !ok {
		return fmt.Errorf("invalid sort field '%s'. must be name, commits, lines, repos, prs", input.Sort)
	}

	cfg.SortOrder = schema.SortOrder(strings.ToLower(defaultString(input.Order, string(schema.Descending))))
	if _, ok := schema.ValidSortOrders[cfg.SortOrder]; !ok {
		return fmt.Errorf("invalid sort order '%s'. must be asc or desc", input.Order)
	}
	return nil
}

// resolveRuntimePaths fills in default file locations under the home directory.
func resolveRuntimePaths(cfg *Config, input *ConfigRawInput) {
	cfg.LogFile = defaultString(input.LogFile, GetLogFilePath())
	cfg.LockFile = defaultString(input.LockFile, GetLockFilePath())
	cfg.MetricsFile = input.MetricsFile
}

func defaultString(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
