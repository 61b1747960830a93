package store

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/huangsam/orgpulse/internal/parquet"
	"github.com/huangsam/orgpulse/schema"
)

// SnapshotRecords returns every snapshot row ordered by id.
func (s *Store) SnapshotRecords(ctx context.Context) ([]schema.SnapshotRecord, error) {
	if s.disabled() {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, "SELECT id, start_time, end_time FROM snapshots ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []schema.SnapshotRecord
	for rows.Next() {
		var rec schema.SnapshotRecord
		var start, end dbTime
		if err := rows.Scan(&rec.ID, &start, &end); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		rec.StartTime, rec.EndTime = start.Time, end.Time
		out = append(out, rec)
	}
	return out, rows.Err()
}

// RepositorySnapshotRecords returns repository snapshot rows, optionally for one snapshot (0 means all).
func (s *Store) RepositorySnapshotRecords(ctx context.Context, snapshotID int64) ([]schema.RepositorySnapshotRecord, error) {
	if s.disabled() {
		return nil, nil
	}
	query := `
	SELECT rs.id, rs.snapshot_id, o.name, r.name, rs.commit_count, rs.pr_count, rs.line_count
	FROM repository_snapshots rs
	JOIN organizations o ON o.id = rs.organization_id
	JOIN repositories r ON r.id = rs.repository_id
	WHERE (? = 0 OR rs.snapshot_id = ?)
	ORDER BY rs.id`
	rows, err := s.db.QueryContext(ctx, s.rebind(query), snapshotID, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("failed to query repository snapshots: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []schema.RepositorySnapshotRecord
	for rows.Next() {
		var rec schema.RepositorySnapshotRecord
		if err := rows.Scan(&rec.ID, &rec.SnapshotID, &rec.Organization, &rec.Repository,
			&rec.Commits, &rec.PRs, &rec.Lines); err != nil {
			return nil, fmt.Errorf("failed to scan repository snapshot: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ContributorSnapshotRecords returns contributor snapshot rows, optionally for one snapshot (0 means all).
func (s *Store) ContributorSnapshotRecords(ctx context.Context, snapshotID int64) ([]schema.ContributorSnapshotRecord, error) {
	if s.disabled() {
		return nil, nil
	}
	query := `
	SELECT cs.id, cs.repository_snapshot_id, rs.snapshot_id, o.name, r.name, c.username, cs.commit_count, cs.line_count
	FROM contributor_snapshots cs
	JOIN repository_snapshots rs ON rs.id = cs.repository_snapshot_id
	JOIN organizations o ON o.id = rs.organization_id
	JOIN repositories r ON r.id = rs.repository_id
	JOIN contributors c ON c.id = cs.contributor_id
	WHERE (? = 0 OR rs.snapshot_id = ?)
	ORDER BY cs.id`
	rows, err := s.db.QueryContext(ctx, s.rebind(query), snapshotID, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("failed to query contributor snapshots: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []schema.ContributorSnapshotRecord
	for rows.Next() {
		var rec schema.ContributorSnapshotRecord
		if err := rows.Scan(&rec.ID, &rec.RepositorySnapshotID, &rec.SnapshotID, &rec.Organization,
			&rec.Repository, &rec.Username, &rec.Commits, &rec.Lines); err != nil {
			return nil, fmt.Errorf("failed to scan contributor snapshot: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ExportParquet writes snapshots, repository snapshots and contributor snapshots
// to three Parquet files prefixed by outputFile. A snapshotID of 0 exports everything.
func (s *Store) ExportParquet(ctx context.Context, w io.Writer, outputFile string, snapshotID int64) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}

	status, err := s.GetStatus(ctx)
	if err != nil {
		return fmt.Errorf("failed to get store status: %w", err)
	}
	if status.TotalSnapshots == 0 {
		return errors.New("no snapshot data found to export")
	}
	_, _ = fmt.Fprintf(w, "Exporting data from %s backend...\n", status.Backend)

	snapshots, err := s.SnapshotRecords(ctx)
	if err != nil {
		return err
	}
	if snapshotID != 0 {
		filtered := snapshots[:0]
		for _, snap := range snapshots {
			if snap.ID == snapshotID {
				filtered = append(filtered, snap)
			}
		}
		if len(filtered) == 0 {
			return fmt.Errorf("snapshot %d not found", snapshotID)
		}
		snapshots = filtered
	}
	repos, err := s.RepositorySnapshotRecords(ctx, snapshotID)
	if err != nil {
		return err
	}
	contributors, err := s.ContributorSnapshotRecords(ctx, snapshotID)
	if err != nil {
		return err
	}

	snapshotsFile := outputFile + ".snapshots.parquet"
	if err := parquet.WriteSnapshotsParquet(parquet.ConvertSnapshotRecords(snapshots), snapshotsFile); err != nil {
		return fmt.Errorf("failed to write snapshots: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d snapshots to: %s\n", len(snapshots), snapshotsFile)

	reposFile := outputFile + ".repository_snapshots.parquet"
	if err := parquet.WriteRepositorySnapshotsParquet(parquet.ConvertRepositorySnapshotRecords(repos), reposFile); err != nil {
		return fmt.Errorf("failed to write repository snapshots: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d repository snapshots to: %s\n", len(repos), reposFile)

	contributorsFile := outputFile + ".contributor_snapshots.parquet"
	if err := parquet.WriteContributorSnapshotsParquet(parquet.ConvertContributorSnapshotRecords(contributors), contributorsFile); err != nil {
		return fmt.Errorf("failed to write contributor snapshots: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d contributor snapshots to: %s\n", len(contributors), contributorsFile)
	return nil
}
