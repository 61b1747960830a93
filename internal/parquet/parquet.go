// Package parquet provides row types and writers for exporting orgpulse
// snapshots to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/huangsam/orgpulse/schema"
	"github.com/parquet-go/parquet-go"
)

// Snapshot is one collection run's lookback window.
// This struct maps to the snapshots table.
type Snapshot struct {
	// SnapshotID is the unique identifier of the run
	SnapshotID int64 `parquet:"snapshot_id,snappy"`

	// StartTime is the beginning of the lookback window
	StartTime time.Time `parquet:"start_time,snappy"`

	// EndTime is when the run was started
	EndTime time.Time `parquet:"end_time,snappy"`
}

// RepositorySnapshot is the per-repository rollup of one snapshot,
// denormalized with organization and repository names.
type RepositorySnapshot struct {
	RepositorySnapshotID int64  `parquet:"repository_snapshot_id,snappy"`
	SnapshotID           int64  `parquet:"snapshot_id,snappy"`
	Organization         string `parquet:"organization,dict,snappy"`
	Repository           string `parquet:"repository,snappy"`
	Commits              int64  `parquet:"commits,snappy"`
	PRs                  int64  `parquet:"prs,snappy"`
	Lines                int64  `parquet:"lines,snappy"`
}

// ContributorSnapshot is the per-contributor rollup within one repository snapshot.
type ContributorSnapshot struct {
	ContributorSnapshotID int64  `parquet:"contributor_snapshot_id,snappy"`
	RepositorySnapshotID  int64  `parquet:"repository_snapshot_id,snappy"`
	SnapshotID            int64  `parquet:"snapshot_id,snappy"`
	Organization          string `parquet:"organization,dict,snappy"`
	Repository            string `parquet:"repository,snappy"`
	Username              string `parquet:"username,snappy"`
	Commits               int64  `parquet:"commits,snappy"`
	Lines                 int64  `parquet:"lines,snappy"`
}

// WriteSnapshotsParquet writes snapshot rows to a Parquet file.
func WriteSnapshotsParquet(data []Snapshot, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteRepositorySnapshotsParquet writes repository snapshot rows to a Parquet file.
func WriteRepositorySnapshotsParquet(data []RepositorySnapshot, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteContributorSnapshotsParquet writes contributor snapshot rows to a Parquet file.
func WriteContributorSnapshotsParquet(data []ContributorSnapshot, outputPath string) error {
	return writeParquet(data, outputPath)
}

// writeParquet writes rows with a schema inferred from T's struct tags.
func writeParquet[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// ConvertSnapshotRecords converts schema.SnapshotRecord to Snapshot for Parquet export.
func ConvertSnapshotRecords(records []schema.SnapshotRecord) []Snapshot {
	result := make([]Snapshot, len(records))
	for i, record := range records {
		result[i] = Snapshot{
			SnapshotID: record.ID,
			StartTime:  record.StartTime,
			EndTime:    record.EndTime,
		}
	}
	return result
}

// ConvertRepositorySnapshotRecords converts schema.RepositorySnapshotRecord to RepositorySnapshot.
func ConvertRepositorySnapshotRecords(records []schema.RepositorySnapshotRecord) []RepositorySnapshot {
	result := make([]RepositorySnapshot, len(records))
	for i, record := range records {
		result[i] = RepositorySnapshot{
			RepositorySnapshotID: record.ID,
			SnapshotID:           record.SnapshotID,
			Organization:         record.Organization,
			Repository:           record.Repository,
			Commits:              record.Commits,
			PRs:                  record.PRs,
			Lines:                record.Lines,
		}
	}
	return result
}

// ConvertContributorSnapshotRecords converts schema.ContributorSnapshotRecord to ContributorSnapshot.
func ConvertContributorSnapshotRecords(records []schema.ContributorSnapshotRecord) []ContributorSnapshot {
	result := make([]ContributorSnapshot, len(records))
	for i, record := range records {
		result[i] = ContributorSnapshot{
			ContributorSnapshotID: record.ID,
			RepositorySnapshotID:  record.RepositorySnapshotID,
			SnapshotID:            record.SnapshotID,
			Organization:          record.Organization,
			Repository:            record.Repository,
			Username:              record.Username,
			Commits:               record.Commits,
			Lines:                 record.Lines,
		}
	}
	return result
}
