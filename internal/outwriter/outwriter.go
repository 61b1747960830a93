// Package outwriter has output and writer logic.
package outwriter

import (
	"io"
	"os"

	"github.com/huangsam/orgpulse/internal/contract"
	"github.com/huangsam/orgpulse/schema"
)

// OutWriter provides a unified interface for all headless output.
// Each method dispatches on the configured output format and file.
type OutWriter struct {
	stdout io.Writer
}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{stdout: os.Stdout}
}

// WriteOrgRollup prints the organization rollup of a snapshot.
func (ow *OutWriter) WriteOrgRollup(info schema.SnapshotInfo, rows []schema.OrgStats, cfg *contract.Config) error {
	return printRollup(ow, cfg, rollup[schema.OrgStats]{
		title:   "organizations",
		info:    info,
		rows:    rows,
		columns: orgColumns,
		commits: func(r schema.OrgStats) int64 { return r.Commits },
	})
}

// WriteRepoRollup prints the repository rollup of a snapshot.
func (ow *OutWriter) WriteRepoRollup(info schema.SnapshotInfo, rows []schema.RepoStats, cfg *contract.Config) error {
	return printRollup(ow, cfg, rollup[schema.RepoStats]{
		title:   "repositories",
		info:    info,
		rows:    rows,
		columns: repoColumns,
		commits: func(r schema.RepoStats) int64 { return r.Commits },
	})
}

// WriteContributorRollup prints the contributor rollup of a snapshot.
func (ow *OutWriter) WriteContributorRollup(info schema.SnapshotInfo, rows []schema.ContributorStats, cfg *contract.Config) error {
	return printRollup(ow, cfg, rollup[schema.ContributorStats]{
		title:   "contributors",
		info:    info,
		rows:    rows,
		columns: contributorColumns,
		commits: func(r schema.ContributorStats) int64 { return r.Commits },
	})
}

// WriteSnapshots prints the snapshot list.
func (ow *OutWriter) WriteSnapshots(snapshots []schema.SnapshotInfo, cfg *contract.Config) error {
	return printSnapshots(ow, snapshots, cfg)
}

// WriteCollection prints the summary of a collection run.
func (ow *OutWriter) WriteCollection(result schema.CollectionResult, cfg *contract.Config) error {
	return printCollection(ow, result, cfg)
}
