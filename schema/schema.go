// Package schema has the records and enums shared by every part of orgpulse.
package schema

import "time"

// Organization is a source-control organization keyed by name.
type Organization struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Repository belongs to exactly one Organization and is keyed by (name, organization).
type Repository struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	OrganizationID int64  `json:"organization_id"`
}

// Contributor is a global user keyed by username.
type Contributor struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// Snapshot is the immutable record of one collection run's lookback window.
type Snapshot struct {
	ID        int64     `json:"id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

// RepositorySnapshot is the per-repository rollup for one snapshot.
type RepositorySnapshot struct {
	ID             int64 `json:"id"`
	SnapshotID     int64 `json:"snapshot_id"`
	OrganizationID int64 `json:"organization_id"`
	RepositoryID   int64 `json:"repository_id"`
	Commits        int64 `json:"commits"`
	PRs            int64 `json:"prs"`
	Lines          int64 `json:"lines"`
}

// ContributorSnapshot is the per-contributor rollup within one RepositorySnapshot.
type ContributorSnapshot struct {
	ID                   int64 `json:"id"`
	RepositorySnapshotID int64 `json:"repository_snapshot_id"`
	ContributorID        int64 `json:"contributor_id"`
	Commits              int64 `json:"commits"`
	Lines                int64 `json:"lines"`
}
