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

// printSnapshots outputs the snapshot list, dispatching based on the output format configured.
func printSnapshots(ow *OutWriter, snapshots []schema.SnapshotInfo, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return ow.writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, snapshots)
		}, "Wrote JSON")
	case schema.CSVOut:
		return ow.writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVWithHeader(w, []string{"id", "start_time", "end_time", "repo_count"}, func(cw *csv.Writer) error {
				for _, s := range snapshots {
					if err := cw.Write([]string{
						strconv.FormatInt(s.ID, 10),
						s.StartTime.UTC().Format(contract.DateTimeFormat),
						s.EndTime.UTC().Format(contract.DateTimeFormat),
						strconv.FormatInt(s.RepoCount, 10),
					}); err != nil {
						return err
					}
				}
				return nil
			})
		}, "Wrote CSV")
	default:
		return ow.writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeSnapshotTable(w, snapshots)
		}, "Wrote table")
	}
}

func writeSnapshotTable(w io.Writer, snapshots []schema.SnapshotInfo) error {
	if len(snapshots) == 0 {
		_, err := fmt.Fprintln(w, "No snapshots yet. Run 'orgpulse collect' to create one.")
		return err
	}
	table := tablewriter.NewWriter(w)
	table.Header([]string{"ID", "Start", "End", "Repos"})
	data := make([][]string, 0, len(snapshots))
	for _, s := range snapshots {
		data = append(data, []string{
			strconv.FormatInt(s.ID, 10),
			formatTime(s.StartTime),
			formatTime(s.EndTime),
			strconv.FormatInt(s.RepoCount, 10),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}
