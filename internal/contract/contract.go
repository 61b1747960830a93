// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"
	"errors"
	"time"

	"github.com/huangsam/orgpulse/schema"
)

// ErrNoSnapshot is returned when a query needs a snapshot and none exists yet.
var ErrNoSnapshot = errors.New("no snapshot found; run 'orgpulse collect' first")

// ActivitySource fetches raw contribution activity from a source-control host.
// A failure for one repository must not affect calls for other repositories.
type ActivitySource interface {
	// ListMemberOrganizations returns the logins of organizations the authenticated user belongs to.
	ListMemberOrganizations(ctx context.Context) ([]string, error)

	// ListRepositories returns one page of an organization's repositories.
	// Callers page until fewer than pageSize records are returned.
	ListRepositories(ctx context.Context, org string, page, pageSize int) ([]schema.RepositoryRecord, error)

	// ListCommits returns the commits on the default branch since the given time.
	// An empty repository yields no commits and no error.
	ListCommits(ctx context.Context, org, repo string, since time.Time) ([]schema.CommitRecord, error)

	// ListPullRequests returns pull requests that may have been merged since the given time.
	// Records can include unmerged or earlier-merged pull requests; callers filter them.
	ListPullRequests(ctx context.Context, org, repo string, since time.Time) ([]schema.PullRequestRecord, error)
}

// EntityStore upserts entities by natural key.
type EntityStore interface {
	UpsertOrganization(ctx context.Context, name string) (schema.Organization, error)
	UpsertRepository(ctx context.Context, org schema.Organization, name string) (schema.Repository, error)
	UpsertContributor(ctx context.Context, username string) (schema.Contributor, error)
}

// SnapshotWriter records the output of a collection run.
type SnapshotWriter interface {
	EntityStore

	// CreateSnapshot inserts the snapshot row for a run's lookback window.
	CreateSnapshot(ctx context.Context, start, end time.Time) (schema.Snapshot, error)

	// CommitRepositorySnapshot writes one repository snapshot and its contributor
	// snapshots in a single transaction, upserting each contributor first.
	CommitRepositorySnapshot(ctx context.Context, snapshotID int64, org schema.Organization, repo schema.Repository, activity schema.RepositoryActivity) (schema.RepositorySnapshot, error)
}

// SnapshotReader answers rollup and drill-down queries for a snapshot.
// Every rollup is ordered by commits descending.
type SnapshotReader interface {
	ListSnapshots(ctx context.Context) ([]schema.SnapshotInfo, error)
	LatestSnapshot(ctx context.Context) (schema.SnapshotInfo, error)

	OrgRollup(ctx context.Context, snapshotID int64) ([]schema.OrgStats, error)
	RepoRollup(ctx context.Context, snapshotID int64) ([]schema.RepoStats, error)
	ContributorRollup(ctx context.Context, snapshotID int64) ([]schema.ContributorStats, error)

	OrgDetail(ctx context.Context, snapshotID int64, org string) (schema.OrgDetail, error)
	RepoDetail(ctx context.Context, snapshotID int64, org, repo string) (schema.RepoDetail, error)
	ContributorDetail(ctx context.Context, snapshotID int64, username string) (schema.ContributorDetail, error)
}

// Collector runs one collection pass and reports its outcome.
type Collector interface {
	Collect(ctx context.Context) (schema.CollectionResult, error)
}
