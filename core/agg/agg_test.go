package agg

import (
	"regexp"
	"testing"
	"time"

	"github.com/huangsam/orgpulse/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func commitBy(author string) schema.CommitRecord {
	return schema.CommitRecord{SHA: "sha-" + author, AuthorUsername: author}
}

func TestRecordCommit_IgnorePattern(t *testing.T) {
	a := New("acme", "api")
	ignore := regexp.MustCompile("bob")

	for _, author := range []string{"alice", "alice", "bob"} {
		a.RecordCommit(commitBy(author), ignore)
	}

	result := a.Result()
	assert.Equal(t, int64(2), result.Commits)
	assert.Equal(t, []schema.ContributorActivity{{Username: "alice", Commits: 2}}, result.Contributors)
}

func TestRecordCommit_IgnoredHasNoSideEffect(t *testing.T) {
	ignore := regexp.MustCompile(`\[bot\]$`)
	a := New("acme", "api")
	a.RecordCommit(commitBy("alice"), ignore)
	before := a.Result()

	accepted := a.RecordCommit(commitBy("dependabot[bot]"), ignore)

	assert.False(t, accepted)
	assert.Equal(t, before, a.Result())
}

func TestRecordCommit_AnonymousAuthor(t *testing.T) {
	a := New("acme", "api")
	assert.True(t, a.RecordCommit(commitBy(""), nil))
	assert.True(t, a.RecordCommit(commitBy("  "), nil))

	result := a.Result()
	require.Len(t, result.Contributors, 1)
	assert.Equal(t, schema.AnonymousAuthor, result.Contributors[0].Username)
	assert.Equal(t, int64(2), result.Contributors[0].Commits)

	// The sentinel is subject to the ignore pattern like any username
	assert.False(t, New("acme", "api").RecordCommit(commitBy(""), regexp.MustCompile("^anonymous$")))
}

func TestRecordPullRequest(t *testing.T) {
	merged := time.Date(2026, 10, 4, 0, 0, 0, 0, time.UTC)
	a := New("acme", "api")

	assert.True(t, a.RecordPullRequest(schema.PullRequestRecord{
		AuthorUsername: "carol", Additions: 10, Deletions: 5, MergedAt: &merged,
	}, nil))

	result := a.Result()
	assert.Equal(t, int64(15), result.Lines)
	assert.Equal(t, int64(1), result.PRs)
	assert.Zero(t, result.Commits, "pull requests never add to commits")
	assert.Equal(t, []schema.ContributorActivity{{Username: "carol", Lines: 15}}, result.Contributors)
}

func TestRecordPullRequest_IgnoredAndMissingStats(t *testing.T) {
	a := New("acme", "api")
	ignore := regexp.MustCompile("^renovate")

	assert.False(t, a.RecordPullRequest(schema.PullRequestRecord{AuthorUsername: "renovate-bot", Additions: 99}, ignore))
	assert.True(t, a.RecordPullRequest(schema.PullRequestRecord{AuthorUsername: "dave"}, ignore))

	result := a.Result()
	assert.Equal(t, int64(1), result.PRs)
	assert.Zero(t, result.Lines)
}

func TestResult_CountersMatchContributors(t *testing.T) {
	a := New("acme", "api")
	for _, author := range []string{"zoe", "alice", "zoe", "", "mallory"} {
		a.RecordCommit(commitBy(author), regexp.MustCompile("mallory"))
	}
	a.RecordPullRequest(schema.PullRequestRecord{AuthorUsername: "zoe", Additions: 7, Deletions: 3}, nil)
	a.RecordPullRequest(schema.PullRequestRecord{AuthorUsername: "erin", Additions: 1}, nil)

	result := a.Result()
	assert.Equal(t, "acme", result.Organization)
	assert.Equal(t, "api", result.Repository)
	assert.Equal(t, int64(4), a.Commits())

	var commits, lines int64
	names := make([]string, 0, len(result.Contributors))
	for _, c := range result.Contributors {
		commits += c.Commits
		lines += c.Lines
		names = append(names, c.Username)
	}
	assert.Equal(t, result.Commits, commits)
	assert.Equal(t, result.Lines, lines)
	assert.Equal(t, []string{"alice", "anonymous", "erin", "zoe"}, names)
}

func TestResult_Deterministic(t *testing.T) {
	build := func() schema.RepositoryActivity {
		a := New("acme", "api")
		for _, author := range []string{"c", "b", "a", "b"} {
			a.RecordCommit(commitBy(author), nil)
		}
		return a.Result()
	}
	assert.Equal(t, build(), build())
}

func TestResult_Empty(t *testing.T) {
	result := New("acme", "api").Result()
	assert.Zero(t, result.Commits)
	assert.NotNil(t, result.Contributors)
	assert.Empty(t, result.Contributors)
}
