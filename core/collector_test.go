package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/huangsam/orgpulse/internal/contract"
	"github.com/huangsam/orgpulse/internal/store"
	"github.com/huangsam/orgpulse/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	fixedNow    = time.Date(2026, 10, 8, 12, 0, 0, 0, time.UTC)
	windowStart = fixedNow.AddDate(0, 0, -7)
)

func testConfig() *contract.Config {
	return &contract.Config{LookbackDays: 7}
}

func newTestCollector(t *testing.T, cfg *contract.Config, source contract.ActivitySource, w contract.SnapshotWriter) *Collector {
	t.Helper()
	return NewCollector(cfg, source, w,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithClock(func() time.Time { return fixedNow }),
	)
}

func newSQLiteStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(context.Background(), schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func commits(authors ...string) []schema.CommitRecord {
	out := make([]schema.CommitRecord, 0, len(authors))
	for i, author := range authors {
		out = append(out, schema.CommitRecord{SHA: fmt.Sprintf("c%d", i), AuthorUsername: author, CommittedAt: fixedNow})
	}
	return out
}

func mergedAt(t time.Time) *time.Time { return &t }

func TestCollect_EndToEnd(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)
	source := &contract.MockActivitySource{}

	cfg := testConfig()
	cfg.IgnoredOrgPattern = regexp.MustCompile("-archive$")
	cfg.IgnoredRepoPattern = regexp.MustCompile("^legacy-")
	cfg.IgnoredUserPattern = regexp.MustCompile(`\[bot\]$`)

	source.On("ListMemberOrganizations", mock.Anything).Return([]string{"acme", "acme-archive"}, nil)
	source.On("ListRepositories", mock.Anything, "acme", 1, contract.RepositoryPageSize).Return([]schema.RepositoryRecord{
		{Name: "api"},
		{Name: "secret", Private: true},
		{Name: "legacy-web"},
		{Name: "bots-only"},
	}, nil)
	source.On("ListCommits", mock.Anything, "acme", "api", windowStart).
		Return(commits("alice", "alice", "bob", "dependabot[bot]"), nil)
	source.On("ListCommits", mock.Anything, "acme", "bots-only", windowStart).
		Return(commits("renovate[bot]"), nil)
	source.On("ListPullRequests", mock.Anything, "acme", "api", windowStart).Return([]schema.PullRequestRecord{
		{Number: 3, AuthorUsername: "carol", Additions: 10, Deletions: 5, MergedAt: mergedAt(windowStart.Add(time.Hour))},
		{Number: 2, AuthorUsername: "alice", Additions: 100, MergedAt: mergedAt(windowStart.Add(-time.Hour))},
		{Number: 1, AuthorUsername: "bob", Additions: 7},
	}, nil)

	c := newTestCollector(t, cfg, source, s)
	result, err := c.Collect(ctx)
	require.NoError(t, err)
	source.AssertExpectations(t)
	source.AssertNotCalled(t, "ListRepositories", mock.Anything, "acme-archive", mock.Anything, mock.Anything)
	source.AssertNotCalled(t, "ListPullRequests", mock.Anything, "acme", "bots-only", mock.Anything)

	assert.Equal(t, schema.RunSucceeded, result.State)
	assert.Equal(t, schema.RunSucceeded, c.State())
	assert.Equal(t, windowStart, result.StartTime)
	assert.Equal(t, fixedNow, result.EndTime)
	assert.Equal(t, 1, result.Organizations)
	assert.Equal(t, 2, result.RepositoriesSeen)
	assert.Equal(t, 1, result.RepositoriesCommitted)
	assert.Equal(t, 1, result.RepositoriesEmpty)
	assert.Empty(t, result.Failures)

	repos, err := s.RepoRollup(ctx, result.SnapshotID)
	require.NoError(t, err)
	require.Len(t, repos, 1)
	assert.Equal(t, schema.RepoStats{Organization: "acme", Name: "api", Commits: 3, Lines: 15, PRs: 1, ContributorCount: 3}, repos[0])

	detail, err := s.RepoDetail(ctx, result.SnapshotID, "acme", "api")
	require.NoError(t, err)
	assert.Equal(t, []schema.RepoContributor{
		{Username: "alice", Commits: 2},
		{Username: "bob", Commits: 1},
		{Username: "carol", Lines: 15},
	}, detail.Contributors)

	snapshots, err := s.ListSnapshots(ctx)
	require.NoError(t, err)
	require.Len(t, snapshots, 1)
	assert.Equal(t, int64(1), snapshots[0].RepoCount)
}

func TestCollect_ConfiguredOrganizations(t *testing.T) {
	source := &contract.MockActivitySource{}
	source.On("ListRepositories", mock.Anything, "globex", 1, contract.RepositoryPageSize).
		Return([]schema.RepositoryRecord{}, nil)

	cfg := testConfig()
	cfg.Organizations = []string{"globex"}
	result, err := newTestCollector(t, cfg, source, newSQLiteStore(t)).Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Organizations)
	source.AssertNotCalled(t, "ListMemberOrganizations", mock.Anything)
}

func TestCollect_IncludePrivate(t *testing.T) {
	source := &contract.MockActivitySource{}
	source.On("ListRepositories", mock.Anything, "acme", 1, contract.RepositoryPageSize).
		Return([]schema.RepositoryRecord{{Name: "secret", Private: true}}, nil)
	source.On("ListCommits", mock.Anything, "acme", "secret", windowStart).Return(commits("alice"), nil)
	source.On("ListPullRequests", mock.Anything, "acme", "secret", windowStart).Return([]schema.PullRequestRecord{}, nil)

	cfg := testConfig()
	cfg.Organizations = []string{"acme"}
	cfg.IncludePrivate = true
	result, err := newTestCollector(t, cfg, source, newSQLiteStore(t)).Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.RepositoriesCommitted)
}

func TestCollect_FetchFailureSkipsRepository(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)
	source := &contract.MockActivitySource{}
	source.On("ListRepositories", mock.Anything, "acme", 1, contract.RepositoryPageSize).Return([]schema.RepositoryRecord{
		{Name: "broken"}, {Name: "flaky"}, {Name: "api"},
	}, nil)
	source.On("ListCommits", mock.Anything, "acme", "broken", windowStart).
		Return([]schema.CommitRecord(nil), errors.New("502 bad gateway"))
	source.On("ListCommits", mock.Anything, "acme", "flaky", windowStart).Return(commits("alice"), nil)
	source.On("ListPullRequests", mock.Anything, "acme", "flaky", windowStart).
		Return([]schema.PullRequestRecord(nil), errors.New("graphql timeout"))
	source.On("ListCommits", mock.Anything, "acme", "api", windowStart).Return(commits("bob"), nil)
	source.On("ListPullRequests", mock.Anything, "acme", "api", windowStart).Return([]schema.PullRequestRecord{}, nil)

	cfg := testConfig()
	cfg.Organizations = []string{"acme"}
	c := newTestCollector(t, cfg, source, s)
	result, err := c.Collect(ctx)
	require.NoError(t, err)

	assert.Equal(t, schema.RunSucceeded, result.State)
	assert.Equal(t, 3, result.RepositoriesSeen)
	assert.Equal(t, 1, result.RepositoriesCommitted)
	assert.Equal(t, []schema.RepositoryFailure{
		{Organization: "acme", Repository: "broken", Reason: "502 bad gateway"},
		{Organization: "acme", Repository: "flaky", Reason: "graphql timeout"},
	}, result.Failures)

	repos, err := s.RepoRollup(ctx, result.SnapshotID)
	require.NoError(t, err)
	require.Len(t, repos, 1)
	assert.Equal(t, "api", repos[0].Name)
}

func TestCollect_PagesRepositories(t *testing.T) {
	firstPage := make([]schema.RepositoryRecord, contract.RepositoryPageSize)
	for i := range firstPage {
		firstPage[i] = schema.RepositoryRecord{Name: fmt.Sprintf("repo-%02d", i)}
	}
	secondPage := []schema.RepositoryRecord{{Name: "x"}, {Name: "y"}, {Name: "z"}}

	source := &contract.MockActivitySource{}
	source.On("ListRepositories", mock.Anything, "acme", 1, contract.RepositoryPageSize).Return(firstPage, nil)
	source.On("ListRepositories", mock.Anything, "acme", 2, contract.RepositoryPageSize).Return(secondPage, nil)
	source.On("ListCommits", mock.Anything, "acme", mock.Anything, windowStart).Return([]schema.CommitRecord{}, nil)

	cfg := testConfig()
	cfg.Organizations = []string{"acme"}
	result, err := newTestCollector(t, cfg, source, newSQLiteStore(t)).Collect(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 53, result.RepositoriesSeen)
	assert.Equal(t, 53, result.RepositoriesEmpty)
	source.AssertNumberOfCalls(t, "ListRepositories", 2)
}

func TestCollect_SkipsRepositoriesListedTwice(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)

	// A repository created mid-listing shifts "repo-49" onto the second page.
	firstPage := make([]schema.RepositoryRecord, contract.RepositoryPageSize)
	for i := range firstPage {
		firstPage[i] = schema.RepositoryRecord{Name: fmt.Sprintf("repo-%02d", i)}
	}
	secondPage := []schema.RepositoryRecord{{Name: "repo-49"}, {Name: "tail"}}

	source := &contract.MockActivitySource{}
	source.On("ListRepositories", mock.Anything, "acme", 1, contract.RepositoryPageSize).Return(firstPage, nil)
	source.On("ListRepositories", mock.Anything, "acme", 2, contract.RepositoryPageSize).Return(secondPage, nil)
	source.On("ListCommits", mock.Anything, "acme", mock.Anything, windowStart).Return(commits("alice"), nil)
	source.On("ListPullRequests", mock.Anything, "acme", mock.Anything, windowStart).Return([]schema.PullRequestRecord{}, nil)

	cfg := testConfig()
	cfg.Organizations = []string{"acme"}
	result, err := newTestCollector(t, cfg, source, s).Collect(ctx)
	require.NoError(t, err)
	assert.Equal(t, schema.RunSucceeded, result.State)
	assert.Equal(t, 51, result.RepositoriesSeen)
	assert.Equal(t, 51, result.RepositoriesCommitted)
	source.AssertNumberOfCalls(t, "ListCommits", 51)

	repos, err := s.RepoRollup(ctx, result.SnapshotID)
	require.NoError(t, err)
	assert.Len(t, repos, 51)
}

func TestCollect_ListFailuresFailTheRun(t *testing.T) {
	t.Run("organizations", func(t *testing.T) {
		source := &contract.MockActivitySource{}
		source.On("ListMemberOrganizations", mock.Anything).Return([]string(nil), errors.New("401 bad credentials"))

		c := newTestCollector(t, testConfig(), source, newSQLiteStore(t))
		result, err := c.Collect(context.Background())
		assert.ErrorContains(t, err, "failed to list organizations")
		assert.Equal(t, schema.RunFailed, result.State)
		assert.Equal(t, schema.RunFailed, c.State())
	})

	t.Run("repositories", func(t *testing.T) {
		source := &contract.MockActivitySource{}
		source.On("ListRepositories", mock.Anything, "acme", 1, contract.RepositoryPageSize).
			Return([]schema.RepositoryRecord(nil), errors.New("404 not found"))

		cfg := testConfig()
		cfg.Organizations = []string{"acme"}
		_, err := newTestCollector(t, cfg, source, newSQLiteStore(t)).Collect(context.Background())
		assert.ErrorContains(t, err, "failed to list repositories of acme")
	})
}

func TestCollect_PersistenceFailureFailsTheRun(t *testing.T) {
	org := schema.Organization{ID: 1, Name: "acme"}
	w := &store.MockSnapshotWriter{}
	w.On("CreateSnapshot", mock.Anything, windowStart, fixedNow).
		Return(schema.Snapshot{ID: 9, StartTime: windowStart, EndTime: fixedNow}, nil)
	w.On("UpsertOrganization", mock.Anything, "acme").Return(org, nil)
	w.On("UpsertRepository", mock.Anything, org, "api").Return(schema.Repository{ID: 1, Name: "api", OrganizationID: 1}, nil)
	w.On("CommitRepositorySnapshot", mock.Anything, int64(9), org, mock.Anything, mock.Anything).
		Return(schema.RepositorySnapshot{}, errors.New("disk full"))

	source := &contract.MockActivitySource{}
	source.On("ListRepositories", mock.Anything, "acme", 1, contract.RepositoryPageSize).
		Return([]schema.RepositoryRecord{{Name: "api"}, {Name: "web"}}, nil)
	source.On("ListCommits", mock.Anything, "acme", "api", windowStart).Return(commits("alice"), nil)
	source.On("ListPullRequests", mock.Anything, "acme", "api", windowStart).Return([]schema.PullRequestRecord{}, nil)

	cfg := testConfig()
	cfg.Organizations = []string{"acme"}
	result, err := newTestCollector(t, cfg, source, w).Collect(context.Background())
	assert.ErrorContains(t, err, "disk full")
	assert.Equal(t, schema.RunFailed, result.State)
	assert.Equal(t, int64(9), result.SnapshotID)
	assert.Zero(t, result.RepositoriesCommitted)
	source.AssertNotCalled(t, "ListCommits", mock.Anything, "acme", "web", mock.Anything)
	w.AssertExpectations(t)
}

func TestCollect_CancelledWhilePacing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	source := &contract.MockActivitySource{}
	source.On("ListRepositories", mock.Anything, "acme", 1, contract.RepositoryPageSize).
		Return([]schema.RepositoryRecord{{Name: "api"}, {Name: "web"}}, nil)
	source.On("ListCommits", mock.Anything, "acme", "api", windowStart).
		Run(func(mock.Arguments) { cancel() }).
		Return([]schema.CommitRecord{}, nil)

	cfg := testConfig()
	cfg.Organizations = []string{"acme"}
	cfg.RateLimitDelay = time.Hour
	result, err := newTestCollector(t, cfg, source, newSQLiteStore(t)).Collect(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, schema.RunFailed, result.State)
	assert.Equal(t, 1, result.RepositoriesSeen)
}

func TestCollect_SingleFlight(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})

	source := &contract.MockActivitySource{}
	source.On("ListMemberOrganizations", mock.Anything).
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return([]string{}, nil)

	c := newTestCollector(t, testConfig(), source, newSQLiteStore(t))

	done := make(chan error, 1)
	go func() {
		_, err := c.Collect(context.Background())
		done <- err
	}()

	<-started
	assert.True(t, c.Running())
	assert.Equal(t, schema.RunRunning, c.State())
	_, err := c.Collect(context.Background())
	assert.ErrorIs(t, err, ErrRunInProgress)

	close(release)
	require.NoError(t, <-done)
	assert.False(t, c.Running())
	assert.Equal(t, schema.RunSucceeded, c.State())
}

func TestCollect_LockFile(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "nested", "orgpulse.lock")
	cfg := testConfig()
	cfg.Organizations = []string{"acme"}
	cfg.LockFile = lockPath

	source := &contract.MockActivitySource{}
	source.On("ListRepositories", mock.Anything, "acme", 1, contract.RepositoryPageSize).
		Return([]schema.RepositoryRecord{}, nil)
	c := newTestCollector(t, cfg, source, newSQLiteStore(t))

	// First run creates the lock directory and releases the lock afterwards
	_, err := c.Collect(context.Background())
	require.NoError(t, err)

	other := flock.New(lockPath)
	locked, err := other.TryLock()
	require.NoError(t, err)
	require.True(t, locked)
	defer func() { _ = other.Unlock() }()

	_, err = c.Collect(context.Background())
	assert.ErrorIs(t, err, ErrRunInProgress)
	source.AssertNumberOfCalls(t, "ListRepositories", 1)
}

func TestCollect_NoActivitySource(t *testing.T) {
	c := newTestCollector(t, testConfig(), nil, newSQLiteStore(t))
	result, err := c.Collect(context.Background())
	assert.ErrorIs(t, err, ErrNoActivitySource)
	assert.Equal(t, schema.RunFailed, result.State)
}

func TestCollect_WritesMetricsFile(t *testing.T) {
	metricsPath := filepath.Join(t.TempDir(), "orgpulse.prom")
	cfg := testConfig()
	cfg.Organizations = []string{"acme"}
	cfg.MetricsFile = metricsPath

	source := &contract.MockActivitySource{}
	source.On("ListRepositories", mock.Anything, "acme", 1, contract.RepositoryPageSize).
		Return([]schema.RepositoryRecord{{Name: "api"}, {Name: "docs"}}, nil)
	source.On("ListCommits", mock.Anything, "acme", "api", windowStart).Return(commits("alice"), nil)
	source.On("ListPullRequests", mock.Anything, "acme", "api", windowStart).Return([]schema.PullRequestRecord{}, nil)
	source.On("ListCommits", mock.Anything, "acme", "docs", windowStart).Return([]schema.CommitRecord{}, nil)

	_, err := newTestCollector(t, cfg, source, newSQLiteStore(t)).Collect(context.Background())
	require.NoError(t, err)

	data, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, `orgpulse_collection_runs_total{state="succeeded"} 1`)
	assert.Contains(t, text, `orgpulse_repositories_total{outcome="committed"} 1`)
	assert.Contains(t, text, `orgpulse_repositories_total{outcome="empty"} 1`)
	assert.Contains(t, text, "orgpulse_collection_last_success_timestamp_seconds")
}
