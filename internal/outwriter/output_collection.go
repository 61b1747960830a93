package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/huangsam/orgpulse/internal/contract"
	"github.com/huangsam/orgpulse/schema"
	"github.com/olekukonko/tablewriter"
)

// printCollection outputs a run summary. CSV output lists only the failed repositories.
func printCollection(ow *OutWriter, result schema.CollectionResult, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return ow.writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, result)
		}, "Wrote JSON")
	case schema.CSVOut:
		return ow.writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVWithHeader(w, []string{"snapshot_id", "organization", "repository", "reason"}, func(cw *csv.Writer) error {
				for _, f := range result.Failures {
					if err := cw.Write([]string{strconv.FormatInt(result.SnapshotID, 10), f.Organization, f.Repository, f.Reason}); err != nil {
						return err
					}
				}
				return nil
			})
		}, "Wrote CSV")
	default:
		return ow.writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCollectionText(w, result, cfg)
		}, "Wrote summary")
	}
}

func writeCollectionText(w io.Writer, result schema.CollectionResult, cfg *contract.Config) error {
	state := string(result.State)
	if cfg.UseColors {
		if result.State == schema.RunSucceeded {
			state = contract.TitleColor.Sprint(state)
		} else {
			state = contract.ErrorColor.Sprint(state)
		}
	}
	_, _ = fmt.Fprintf(w, "Snapshot #%d %s in %s (%s to %s)\n", result.SnapshotID, state,
		result.Duration.Round(1e6), formatTime(result.StartTime), formatTime(result.EndTime))
	_, _ = fmt.Fprintf(w, "Organizations: %d, repositories seen: %d, committed: %d, without commits: %d, failed: %d\n",
		result.Organizations, result.RepositoriesSeen, result.RepositoriesCommitted, result.RepositoriesEmpty, len(result.Failures))
	if len(result.Failures) == 0 {
		return nil
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Repository", "Reason"})
	data := make([][]string, 0, len(result.Failures))
	for _, f := range result.Failures {
		data = append(data, []string{schema.RepoKey(f.Organization, f.Repository), contract.TruncateText(f.Reason, 80)})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}
