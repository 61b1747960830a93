package schema

import "time"

// SnapshotInfo describes one snapshot for listing and picking.
type SnapshotInfo struct {
	ID        int64     `json:"id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	RepoCount int64     `json:"repo_count"`
}

// OrgStats is one row of the organization rollup.
type OrgStats struct {
	Name             string `json:"name"`
	Commits          int64  `json:"commits"`
	Lines            int64  `json:"lines"`
	PRs              int64  `json:"prs"`
	RepoCount        int64  `json:"repo_count"`
	ContributorCount int64  `json:"contributor_count"`
}

// RepoStats is one row of the repository rollup.
type RepoStats struct {
	Organization     string `json:"organization"`
	Name             string `json:"name"`
	Commits          int64  `json:"commits"`
	Lines            int64  `json:"lines"`
	PRs              int64  `json:"prs"`
	ContributorCount int64  `json:"contributor_count"`
}

// FullName returns the "org/repo" form of the repository.
func (r RepoStats) FullName() string {
	return r.Organization + "/" + r.Name
}

// ContributorStats is one row of the contributor rollup.
type ContributorStats struct {
	Username      string   `json:"username"`
	Commits       int64    `json:"commits"`
	Lines         int64    `json:"lines"`
	RepoCount     int64    `json:"repo_count"`
	Organizations []string `json:"organizations"`
}

// OrgDetail is the drill-down of one organization into its repositories.
type OrgDetail struct {
	Organization string      `json:"organization"`
	Repositories []RepoStats `json:"repositories"`
}

// RepoContributor is one contributor row of a repository drill-down.
// PRs is always 0 since pull requests are only tracked per repository.
type RepoContributor struct {
	Username string `json:"username"`
	Commits  int64  `json:"commits"`
	Lines    int64  `json:"lines"`
	PRs      int64  `json:"prs"`
}

// RepoDetail is the drill-down of one repository into its contributors.
type RepoDetail struct {
	Organization string            `json:"organization"`
	Repository   string            `json:"repository"`
	Contributors []RepoContributor `json:"contributors"`
}

// ContributorRepo is one repository row of a contributor drill-down.
type ContributorRepo struct {
	Organization string `json:"organization"`
	Repository   string `json:"repository"`
	Commits      int64  `json:"commits"`
	Lines        int64  `json:"lines"`
	PRs          int64  `json:"prs"`
}

// FullName returns the "org/repo" form of the repository.
func (r ContributorRepo) FullName() string {
	return r.Organization + "/" + r.Repository
}

// ContributorDetail is the drill-down of one contributor into the repositories they touched.
type ContributorDetail struct {
	Username     string            `json:"username"`
	Repositories []ContributorRepo `json:"repositories"`
}

// Rollups bundles the three top-level rollups of one snapshot.
type Rollups struct {
	Snapshot      SnapshotInfo       `json:"snapshot"`
	Organizations []OrgStats         `json:"organizations"`
	Repositories  []RepoStats        `json:"repositories"`
	Contributors  []ContributorStats `json:"contributors"`
}
