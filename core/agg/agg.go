// Package agg folds one repository's raw activity into the counters
// that make up a repository snapshot.
package agg

import (
	"regexp"

	"github.com/huangsam/orgpulse/schema"
)

// Aggregator accumulates commits and pull requests for one repository within one run.
// It is not safe for concurrent use.
type Aggregator struct {
	organization string
	repository   string

	commits int64
	prs     int64
	lines   int64

	contributors map[string]*schema.ContributorActivity
}

// New returns an Aggregator with empty counters.
func New(organization, repository string) *Aggregator {
	return &Aggregator{
		organization: organization,
		repository:   repository,
		contributors: make(map[string]*schema.ContributorActivity),
	}
}

// RecordCommit counts one commit for its author unless the author matches ignore.
// It reports whether the commit was accepted.
func (a *Aggregator) RecordCommit(commit schema.CommitRecord, ignore *regexp.Regexp) bool {
	username := schema.ResolveAuthor(commit.AuthorUsername)
	if ignored(username, ignore) {
		return false
	}
	a.commits++
	a.contributor(username).Commits++
	return true
}

// RecordPullRequest adds the pull request's changed lines to its author and the
// repository, and counts it as one pull request, unless the author matches ignore.
// Pull requests never add to commit counts. It reports whether the pull request was accepted.
func (a *Aggregator) RecordPullRequest(pr schema.PullRequestRecord, ignore *regexp.Regexp) bool {
	username := schema.ResolveAuthor(pr.AuthorUsername)
	if ignored(username, ignore) {
		return false
	}
	delta := int64(pr.Additions) + int64(pr.Deletions)
	a.lines += delta
	a.prs++
	a.contributor(username).Lines += delta
	return true
}

// Commits returns the number of accepted commits so far.
func (a *Aggregator) Commits() int64 {
	return a.commits
}

// Result returns the repository totals and per-contributor counters,
// with contributors ordered by username.
func (a *Aggregator) Result() schema.RepositoryActivity {
	activity := schema.RepositoryActivity{
		Organization: a.organization,
		Repository:   a.repository,
		Commits:      a.commits,
		PRs:          a.prs,
		Lines:        a.lines,
		Contributors: make([]schema.ContributorActivity, 0, len(a.contributors)),
	}
	for _, c := range a.contributors {
		activity.Contributors = append(activity.Contributors, *c)
	}
	activity.SortContributors()
	return activity
}

func (a *Aggregator) contributor(username string) *schema.ContributorActivity {
	c, ok := a.contributors[username]
	if !ok {
		c = &schema.ContributorActivity{Username: username}
		a.contributors[username] = c
	}
	return c
}

func ignored(username string, ignore *regexp.Regexp) bool {
	return ignore != nil && ignore.MatchString(username)
}
