package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/huangsam/orgpulse/internal/contract"
	"github.com/huangsam/orgpulse/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// column is one field of a rollup row as it appears in CSV and table output.
type column[T any] struct {
	header string
	value  func(T) string
}

// rollup is everything needed to print one rollup in any format.
type rollup[T any] struct {
	title   string
	info    schema.SnapshotInfo
	rows    []T
	columns []column[T]
	commits func(T) int64
}

// rollupReport is the JSON document for a rollup.
type rollupReport[T any] struct {
	Snapshot schema.SnapshotInfo `json:"snapshot"`
	Summary  Summary             `json:"summary"`
	Rows     []T                 `json:"rows"`
}

func i64(n int64) string { return strconv.FormatInt(n, 10) }

var orgColumns = []column[schema.OrgStats]{
	{"organization", func(r schema.OrgStats) string { return r.Name }},
	{"commits", func(r schema.OrgStats) string { return i64(r.Commits) }},
	{"lines", func(r schema.OrgStats) string { return i64(r.Lines) }},
	{"prs", func(r schema.OrgStats) string { return i64(r.PRs) }},
	{"repos", func(r schema.OrgStats) string { return i64(r.RepoCount) }},
	{"contributors", func(r schema.OrgStats) string { return i64(r.ContributorCount) }},
}

var repoColumns = []column[schema.RepoStats]{
	{"organization", func(r schema.RepoStats) string { return r.Organization }},
	{"repository", func(r schema.RepoStats) string { return r.Name }},
	{"commits", func(r schema.RepoStats) string { return i64(r.Commits) }},
	{"lines", func(r schema.RepoStats) string { return i64(r.Lines) }},
	{"prs", func(r schema.RepoStats) string { return i64(r.PRs) }},
	{"contributors", func(r schema.RepoStats) string { return i64(r.ContributorCount) }},
}

var contributorColumns = []column[schema.ContributorStats]{
	{"username", func(r schema.ContributorStats) string { return r.Username }},
	{"commits", func(r schema.ContributorStats) string { return i64(r.Commits) }},
	{"lines", func(r schema.ContributorStats) string { return i64(r.Lines) }},
	{"repos", func(r schema.ContributorStats) string { return i64(r.RepoCount) }},
	{"organizations", func(r schema.ContributorStats) string { return strings.Join(r.Organizations, "|") }},
}

// printRollup outputs a rollup, dispatching based on the output format configured.
func printRollup[T any](ow *OutWriter, cfg *contract.Config, r rollup[T]) error {
	commits := make([]int64, 0, len(r.rows))
	for _, row := range r.rows {
		commits = append(commits, r.commits(row))
	}
	summary, err := Summarize(commits)
	if err != nil {
		return fmt.Errorf("failed to summarize %s: %w", r.title, err)
	}

	switch cfg.Output {
	case schema.JSONOut:
		if err := ow.writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, rollupReport[T]{Snapshot: r.info, Summary: summary, Rows: r.rows})
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := ow.writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeRollupCSV(w, r)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	default:
		if err := ow.writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeRollupTable(w, r, summary, cfg)
		}, "Wrote table"); err != nil {
			return fmt.Errorf("error writing table output: %w", err)
		}
	}
	return nil
}

func writeRollupCSV[T any](w io.Writer, r rollup[T]) error {
	header := []string{"rank", "snapshot_id"}
	for _, c := range r.columns {
		header = append(header, c.header)
	}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for i, row := range r.rows {
			record := []string{strconv.Itoa(i + 1), i64(r.info.ID)}
			for _, c := range r.columns {
				record = append(record, c.value(row))
			}
			if err := cw.Write(record); err != nil {
				return err
			}
		}
		return nil
	})
}

// writeRollupTable prints the rollup with the tablewriter API, followed by
// the snapshot window and the commit distribution.
func writeRollupTable[T any](w io.Writer, r rollup[T], summary Summary, cfg *contract.Config) error {
	table := tablewriter.NewWriter(w)

	headers := []string{"Rank"}
	for _, c := range r.columns {
		headers = append(headers, c.header)
	}
	table.Header(headers)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	data := make([][]string, 0, len(r.rows))
	for i, row := range r.rows {
		record := []string{strconv.Itoa(i + 1)}
		for _, c := range r.columns {
			record = append(record, c.value(row))
		}
		data = append(data, record)
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	label := fmt.Sprintf("Snapshot #%d", r.info.ID)
	if cfg.UseColors {
		label = contract.TitleColor.Sprint(label)
	}
	_, _ = fmt.Fprintf(w, "%s: %s to %s, %d %s sorted by %s %s\n", label,
		formatTime(r.info.StartTime), formatTime(r.info.EndTime), summary.Rows, r.title, cfg.SortField, cfg.SortOrder)
	_, err := fmt.Fprintf(w, "Commits: total %d, mean %.1f, median %.1f, p90 %.1f\n",
		summary.TotalCommits, summary.MeanCommits, summary.MedianCommits, summary.P90Commits)
	return err
}
