package schema

import (
	"sort"
	"time"
)

// RepositoryRecord is one repository as listed by the activity source.
type RepositoryRecord struct {
	Name    string `json:"name"`
	Private bool   `json:"private"`
}

// CommitRecord is one commit as listed by the activity source.
// AuthorUsername is empty when the commit is not linked to an account.
type CommitRecord struct {
	SHA            string    `json:"sha"`
	AuthorUsername string    `json:"author_username,omitempty"`
	CommittedAt    time.Time `json:"committed_at"`
}

// PullRequestRecord is one pull request as listed by the activity source.
// MergedAt is nil for pull requests that were never merged.
type PullRequestRecord struct {
	Number         int        `json:"number"`
	AuthorUsername string     `json:"author_username,omitempty"`
	MergedAt       *time.Time `json:"merged_at,omitempty"`
	Additions      int        `json:"additions"`
	Deletions      int        `json:"deletions"`
}

// MergedSince reports whether the pull request was merged at or after since.
func (pr PullRequestRecord) MergedSince(since time.Time) bool {
	return pr.MergedAt != nil && !pr.MergedAt.Before(since)
}

// ContributorActivity holds one contributor's counters within a repository.
type ContributorActivity struct {
	Username string `json:"username"`
	Commits  int64  `json:"commits"`
	Lines    int64  `json:"lines"`
}

// RepositoryActivity is the finalized output of aggregating one repository.
type RepositoryActivity struct {
	Organization string                `json:"organization"`
	Repository   string                `json:"repository"`
	Commits      int64                 `json:"commits"`
	PRs          int64                 `json:"prs"`
	Lines        int64                 `json:"lines"`
	Contributors []ContributorActivity `json:"contributors"`
}

// SortContributors orders contributors by username so persisted output is deterministic.
func (a *RepositoryActivity) SortContributors() {
	sort.Slice(a.Contributors, func(i, j int) bool {
		return a.Contributors[i].Username < a.Contributors[j].Username
	})
}

// RepositoryFailure records a repository skipped because its activity could not be fetched.
type RepositoryFailure struct {
	Organization string `json:"organization"`
	Repository   string `json:"repository"`
	Reason       string `json:"reason"`
}

// CollectionResult summarizes one collection run.
type CollectionResult struct {
	SnapshotID            int64               `json:"snapshot_id"`
	State                 RunState            `json:"state"`
	StartTime             time.Time           `json:"start_time"`
	EndTime               time.Time           `json:"end_time"`
	Organizations         int                 `json:"organizations"`
	RepositoriesSeen      int                 `json:"repositories_seen"`
	RepositoriesCommitted int                 `json:"repositories_committed"`
	RepositoriesEmpty     int                 `json:"repositories_empty"`
	Failures              []RepositoryFailure `json:"failures,omitempty"`
	Duration              time.Duration       `json:"duration"`
}
