package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/huangsam/orgpulse/internal/contract"
	"github.com/huangsam/orgpulse/schema"
)

// CreateSnapshot inserts the snapshot row for a run's lookback window.
func (s *Store) CreateSnapshot(ctx context.Context, start, end time.Time) (schema.Snapshot, error) {
	snap := schema.Snapshot{StartTime: start.UTC(), EndTime: end.UTC()}
	if s.disabled() {
		return snap, nil
	}
	id, err := s.insert(ctx, s.db, snapshotsTable, []string{"start_time", "end_time"},
		formatTime(start, s.backend), formatTime(end, s.backend))
	if err != nil {
		return schema.Snapshot{}, fmt.Errorf("failed to insert snapshot: %w", err)
	}
	snap.ID = id
	return snap, nil
}

// CommitRepositorySnapshot writes one repository snapshot and its contributor snapshots
// in a single transaction. Nothing is written if any step fails.
func (s *Store) CommitRepositorySnapshot(ctx context.Context, snapshotID int64, org schema.Organization, repo schema.Repository, activity schema.RepositoryActivity) (schema.RepositorySnapshot, error) {
	rs := schema.RepositorySnapshot{
		SnapshotID:     snapshotID,
		OrganizationID: org.ID,
		RepositoryID:   repo.ID,
		Commits:        activity.Commits,
		PRs:            activity.PRs,
		Lines:          activity.Lines,
	}
	if s.disabled() {
		return rs, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return schema.RepositorySnapshot{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	rs.ID, err = s.insert(ctx, tx, repositorySnapshotsTable,
		[]string{"snapshot_id", "organization_id", "repository_id", "commit_count", "pr_count", "line_count"},
		snapshotID, org.ID, repo.ID, activity.Commits, activity.PRs, activity.Lines)
	if err != nil {
		return schema.RepositorySnapshot{}, fmt.Errorf("failed to insert repository snapshot for %s: %w",
			schema.RepoKey(org.Name, repo.Name), err)
	}

	for _, ca := range activity.Contributors {
		contributor, err := s.upsertContributor(ctx, tx, ca.Username)
		if err != nil {
			return schema.RepositorySnapshot{}, err
		}
		if _, err := s.insert(ctx, tx, contributorSnapshotsTable,
			[]string{"repository_snapshot_id", "contributor_id", "commit_count", "line_count"},
			rs.ID, contributor.ID, ca.Commits, ca.Lines); err != nil {
			return schema.RepositorySnapshot{}, fmt.Errorf("failed to insert contributor snapshot for %s: %w", ca.Username, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return schema.RepositorySnapshot{}, fmt.Errorf("failed to commit repository snapshot: %w", err)
	}
	return rs, nil
}

const snapshotInfoQuery = `
	SELECT s.id, s.start_time, s.end_time, COUNT(rs.id)
	FROM snapshots s
	LEFT JOIN repository_snapshots rs ON rs.snapshot_id = s.id`

// ListSnapshots returns every snapshot, latest first.
func (s *Store) ListSnapshots(ctx context.Context) ([]schema.SnapshotInfo, error) {
	if s.disabled() {
		return nil, nil
	}
	query := snapshotInfoQuery + `
	GROUP BY s.id, s.start_time, s.end_time
	ORDER BY s.start_time DESC, s.id DESC`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []schema.SnapshotInfo
	for rows.Next() {
		info, err := scanSnapshotInfo(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

// LatestSnapshot returns the most recent snapshot or contract.ErrNoSnapshot.
func (s *Store) LatestSnapshot(ctx context.Context) (schema.SnapshotInfo, error) {
	if s.disabled() {
		return schema.SnapshotInfo{}, contract.ErrNoSnapshot
	}
	query := snapshotInfoQuery + `
	GROUP BY s.id, s.start_time, s.end_time
	ORDER BY s.start_time DESC, s.id DESC
	LIMIT 1`
	return s.querySnapshotInfo(ctx, query)
}

// SnapshotByID returns one snapshot or contract.ErrNoSnapshot.
func (s *Store) SnapshotByID(ctx context.Context, id int64) (schema.SnapshotInfo, error) {
	if s.disabled() {
		return schema.SnapshotInfo{}, contract.ErrNoSnapshot
	}
	query := snapshotInfoQuery + `
	WHERE s.id = ?
	GROUP BY s.id, s.start_time, s.end_time`
	info, err := s.querySnapshotInfo(ctx, s.rebind(query), id)
	if errors.Is(err, contract.ErrNoSnapshot) {
		return info, fmt.Errorf("snapshot %d: %w", id, err)
	}
	return info, err
}

// ResolveSnapshot returns the snapshot with the given id, or the latest one when id is 0.
func (s *Store) ResolveSnapshot(ctx context.Context, id int64) (schema.SnapshotInfo, error) {
	if id == 0 {
		return s.LatestSnapshot(ctx)
	}
	return s.SnapshotByID(ctx, id)
}

func (s *Store) querySnapshotInfo(ctx context.Context, query string, args ...any) (schema.SnapshotInfo, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return schema.SnapshotInfo{}, fmt.Errorf("failed to query snapshot: %w", err)
	}
	defer func() { _ = rows.Close() }()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return schema.SnapshotInfo{}, err
		}
		return schema.SnapshotInfo{}, contract.ErrNoSnapshot
	}
	return scanSnapshotInfo(rows)
}

func scanSnapshotInfo(rows *sql.Rows) (schema.SnapshotInfo, error) {
	var info schema.SnapshotInfo
	var start, end dbTime
	if err := rows.Scan(&info.ID, &start, &end, &info.RepoCount); err != nil {
		return schema.SnapshotInfo{}, fmt.Errorf("failed to scan snapshot: %w", err)
	}
	info.StartTime = start.Time
	info.EndTime = end.Time
	return info, nil
}
