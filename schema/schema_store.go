package schema

import "time"

// RepositorySnapshotRecord is a flattened repository snapshot row used for export.
type RepositorySnapshotRecord struct {
	ID           int64
	SnapshotID   int64
	Organization string
	Repository   string
	Commits      int64
	PRs          int64
	Lines        int64
}

// ContributorSnapshotRecord is a flattened contributor snapshot row used for export.
type ContributorSnapshotRecord struct {
	ID                   int64
	RepositorySnapshotID int64
	SnapshotID           int64
	Organization         string
	Repository           string
	Username             string
	Commits              int64
	Lines                int64
}

// SnapshotRecord is a snapshot row used for export.
type SnapshotRecord struct {
	ID        int64
	StartTime time.Time
	EndTime   time.Time
}
