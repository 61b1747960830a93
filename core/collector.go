// Package core runs collection passes that turn GitHub activity into snapshots.
package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	"github.com/huangsam/orgpulse/core/agg"
	"github.com/huangsam/orgpulse/internal/contract"
	"github.com/huangsam/orgpulse/schema"
)

// Sentinel errors.
var (
	// ErrRunInProgress is returned when a collection run is already in flight,
	// in this process or in another one holding the lock file.
	ErrRunInProgress = errors.New("a collection run is already in progress")

	// ErrNoActivitySource is returned when the collector has nothing to fetch from.
	ErrNoActivitySource = errors.New("no activity source configured")
)

// Collector runs collection passes: fetch, filter, aggregate and persist.
// Only one pass runs at a time.
type Collector struct {
	cfg     *contract.Config
	source  contract.ActivitySource
	store   contract.SnapshotWriter
	logger  *slog.Logger
	metrics *Metrics
	now     func() time.Time

	running atomic.Bool

	mu    sync.Mutex
	state schema.RunState
}

var _ contract.Collector = &Collector{} // Compile-time check

// Option configures a Collector.
type Option func(*Collector)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Collector) { c.logger = logger }
}

// WithMetrics sets the metrics the collector records into.
func WithMetrics(m *Metrics) Option {
	return func(c *Collector) { c.metrics = m }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Collector) { c.now = now }
}

// NewCollector creates a Collector. A nil source makes every run fail with ErrNoActivitySource.
func NewCollector(cfg *contract.Config, source contract.ActivitySource, store contract.SnapshotWriter, opts ...Option) *Collector {
	c := &Collector{
		cfg:     cfg,
		source:  source,
		store:   store,
		logger:  slog.Default(),
		metrics: NewMetrics(),
		now:     time.Now,
		state:   schema.RunIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the state of the current or last run.
func (c *Collector) State() schema.RunState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Running reports whether a run is in flight in this process.
func (c *Collector) Running() bool {
	return c.running.Load()
}

// Metrics returns the collector's metrics.
func (c *Collector) Metrics() *Metrics {
	return c.metrics
}

func (c *Collector) setState(state schema.RunState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = state
}

// Collect runs one full collection pass and blocks until it finishes.
// Per-repository fetch failures are recorded in the result and do not fail the run.
// On failure, repositories committed before the error remain in the store.
func (c *Collector) Collect(ctx context.Context) (schema.CollectionResult, error) {
	if c.source == nil {
		return schema.CollectionResult{State: schema.RunFailed}, ErrNoActivitySource
	}
	if !c.running.CompareAndSwap(false, true) {
		return schema.CollectionResult{}, ErrRunInProgress
	}
	defer c.running.Store(false)

	lock, err := c.acquireLock()
	if err != nil {
		return schema.CollectionResult{}, err
	}
	if lock != nil {
		defer func() { _ = lock.Unlock() }()
	}

	c.setState(schema.RunRunning)
	started := c.now()
	result := schema.CollectionResult{State: schema.RunRunning}

	err = c.run(ctx, &result)

	result.Duration = c.now().Sub(started)
	if err != nil {
		result.State = schema.RunFailed
	} else {
		result.State = schema.RunSucceeded
	}
	c.setState(result.State)
	c.metrics.finish(result)
	c.writeMetrics()

	logArgs := []any{
		"snapshot_id", result.SnapshotID,
		"state", result.State,
		"repositories_committed", result.RepositoriesCommitted,
		"repositories_empty", result.RepositoriesEmpty,
		"repositories_failed", len(result.Failures),
		"duration", result.Duration,
	}
	if err != nil {
		c.logger.Error("collection failed", append(logArgs, "error", err)...)
		return result, err
	}
	c.logger.Info("collection finished", logArgs...)
	return result, nil
}

// acquireLock takes the cross-process lock file when one is configured.
func (c *Collector) acquireLock() (*flock.Flock, error) {
	if c.cfg.LockFile == "" {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(c.cfg.LockFile), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}
	lock := flock.New(c.cfg.LockFile)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock %s: %w", c.cfg.LockFile, err)
	}
	if !locked {
		return nil, fmt.Errorf("%w (lock held: %s)", ErrRunInProgress, c.cfg.LockFile)
	}
	return lock, nil
}

func (c *Collector) writeMetrics() {
	if c.cfg.MetricsFile == "" {
		return
	}
	if err := c.metrics.WriteToTextfile(c.cfg.MetricsFile); err != nil {
		c.logger.Warn("failed to write metrics file", "path", c.cfg.MetricsFile, "error", err)
	}
}

// run is the body of one pass. Returned errors fail the whole run.
func (c *Collector) run(ctx context.Context, result *schema.CollectionResult) error {
	start, end := c.cfg.Window(c.now())
	snap, err := c.store.CreateSnapshot(ctx, start, end)
	if err != nil {
		return err
	}
	result.SnapshotID = snap.ID
	result.StartTime = snap.StartTime
	result.EndTime = snap.EndTime
	c.logger.Info("collection started", "snapshot_id", snap.ID, "since", snap.StartTime)

	orgs, err := c.organizations(ctx)
	if err != nil {
		return err
	}
	for _, name := range orgs {
		if err := c.collectOrganization(ctx, snap, name, result); err != nil {
			return err
		}
		result.Organizations++
	}
	return nil
}

// organizations returns the configured organizations, or the user's memberships
// when none are configured, without those matching the ignore pattern.
func (c *Collector) organizations(ctx context.Context) ([]string, error) {
	names := c.cfg.Organizations
	if len(names) == 0 {
		var err error
		names, err = c.source.ListMemberOrganizations(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list organizations: %w", err)
		}
	}
	var out []string
	for _, name := range names {
		if c.cfg.IgnoredOrgPattern != nil && c.cfg.IgnoredOrgPattern.MatchString(name) {
			c.logger.Debug("ignoring organization", "org", name)
			continue
		}
		out = append(out, name)
	}
	return out, nil
}

func (c *Collector) collectOrganization(ctx context.Context, snap schema.Snapshot, name string, result *schema.CollectionResult) error {
	org, err := c.store.UpsertOrganization(ctx, name)
	if err != nil {
		return err
	}

	// Offset pages can shift while listing; a repository gets one snapshot per run.
	seen := make(map[string]struct{})
	pageSize := contract.RepositoryPageSize
	for page := 1; ; page++ {
		repos, err := c.source.ListRepositories(ctx, name, page, pageSize)
		if err != nil {
			return fmt.Errorf("failed to list repositories of %s: %w", name, err)
		}
		for _, rec := range repos {
			if _, dup := seen[rec.Name]; dup {
				c.logger.Debug("skipping repository listed twice", "repo", schema.RepoKey(name, rec.Name))
				continue
			}
			seen[rec.Name] = struct{}{}
			if err := c.collectRepository(ctx, snap, org, rec, result); err != nil {
				return err
			}
		}
		if len(repos) < pageSize {
			return nil
		}
	}
}

// collectRepository processes one repository. Fetch failures are recorded and
// swallowed; store failures and cancellation are returned.
func (c *Collector) collectRepository(ctx context.Context, snap schema.Snapshot, org schema.Organization, rec schema.RepositoryRecord, result *schema.CollectionResult) error {
	key := schema.RepoKey(org.Name, rec.Name)
	if rec.Private && !c.cfg.IncludePrivate {
		c.metrics.repository(outcomeIgnored)
		return nil
	}
	if c.cfg.IgnoredRepoPattern != nil && c.cfg.IgnoredRepoPattern.MatchString(rec.Name) {
		c.logger.Debug("ignoring repository", "repo", key)
		c.metrics.repository(outcomeIgnored)
		return nil
	}

	if result.RepositoriesSeen > 0 {
		if err := c.pace(ctx); err != nil {
			return err
		}
	}
	result.RepositoriesSeen++

	repo, err := c.store.UpsertRepository(ctx, org, rec.Name)
	if err != nil {
		return err
	}

	commits, err := c.source.ListCommits(ctx, org.Name, rec.Name, snap.StartTime)
	if err != nil {
		c.recordFailure(result, org.Name, rec.Name, err)
		return ctx.Err()
	}

	a := agg.New(org.Name, rec.Name)
	for _, commit := range commits {
		a.RecordCommit(commit, c.cfg.IgnoredUserPattern)
	}
	if a.Commits() == 0 {
		c.logger.Debug("skipping repository without commits", "repo", key)
		result.RepositoriesEmpty++
		c.metrics.repository(outcomeEmpty)
		return nil
	}

	prs, err := c.source.ListPullRequests(ctx, org.Name, rec.Name, snap.StartTime)
	if err != nil {
		c.recordFailure(result, org.Name, rec.Name, err)
		return ctx.Err()
	}
	for _, pr := range prs {
		if !pr.MergedSince(snap.StartTime) {
			continue
		}
		a.RecordPullRequest(pr, c.cfg.IgnoredUserPattern)
	}

	activity := a.Result()
	if _, err := c.store.CommitRepositorySnapshot(ctx, snap.ID, org, repo, activity); err != nil {
		return err
	}
	result.RepositoriesCommitted++
	c.metrics.repository(outcomeCommitted)
	c.logger.Debug("committed repository snapshot", "repo", key,
		"commits", activity.Commits, "prs", activity.PRs, "lines", activity.Lines)
	return nil
}

func (c *Collector) recordFailure(result *schema.CollectionResult, org, repo string, err error) {
	result.Failures = append(result.Failures, schema.RepositoryFailure{
		Organization: org,
		Repository:   repo,
		Reason:       err.Error(),
	})
	c.metrics.repository(outcomeFailed)
	c.logger.Warn("skipping repository after fetch error", "repo", schema.RepoKey(org, repo), "error", err)
}

// pace waits out the configured delay between repositories.
func (c *Collector) pace(ctx context.Context) error {
	if c.cfg.RateLimitDelay <= 0 {
		return nil
	}
	timer := time.NewTimer(c.cfg.RateLimitDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
