package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/huangsam/orgpulse/schema"
	"golang.org/x/sync/errgroup"
)

// Per-repository sums and distinct contributor counts are aggregated in separate
// derived tables so that joining contributor rows never inflates the sums.
const orgRollupQuery = `
	SELECT o.name, t.commits, t.line_total, t.prs, t.repo_count, COALESCE(c.contributor_count, 0)
	FROM (
		SELECT organization_id,
			SUM(commit_count) AS commits,
			SUM(line_count) AS line_total,
			SUM(pr_count) AS prs,
			COUNT(DISTINCT repository_id) AS repo_count
		FROM repository_snapshots
		WHERE snapshot_id = ?
		GROUP BY organization_id
	) t
	JOIN organizations o ON o.id = t.organization_id
	LEFT JOIN (
		SELECT rs.organization_id, COUNT(DISTINCT cs.contributor_id) AS contributor_count
		FROM repository_snapshots rs
		JOIN contributor_snapshots cs ON cs.repository_snapshot_id = rs.id
		WHERE rs.snapshot_id = ?
		GROUP BY rs.organization_id
	) c ON c.organization_id = t.organization_id
	ORDER BY t.commits DESC, o.name`

const repoRollupQuery = `
	SELECT o.name, r.name, rs.commit_count, rs.line_count, rs.pr_count, COALESCE(c.contributor_count, 0)
	FROM repository_snapshots rs
	JOIN organizations o ON o.id = rs.organization_id
	JOIN repositories r ON r.id = rs.repository_id
	LEFT JOIN (
		SELECT repository_snapshot_id, COUNT(DISTINCT contributor_id) AS contributor_count
		FROM contributor_snapshots
		GROUP BY repository_snapshot_id
	) c ON c.repository_snapshot_id = rs.id
	WHERE rs.snapshot_id = ?`

const repoRollupOrder = `
	ORDER BY rs.commit_count DESC, o.name, r.name`

const contributorRollupQuery = `
	SELECT c.username, SUM(cs.commit_count) AS commits, SUM(cs.line_count) AS line_total,
		COUNT(DISTINCT rs.repository_id) AS repo_count
	FROM contributor_snapshots cs
	JOIN repository_snapshots rs ON rs.id = cs.repository_snapshot_id
	JOIN contributors c ON c.id = cs.contributor_id
	WHERE rs.snapshot_id = ?
	GROUP BY c.id, c.username
	ORDER BY commits DESC, c.username`

const contributorOrgsQuery = `
	SELECT DISTINCT c.username, o.name
	FROM contributor_snapshots cs
	JOIN repository_snapshots rs ON rs.id = cs.repository_snapshot_id
	JOIN contributors c ON c.id = cs.contributor_id
	JOIN organizations o ON o.id = rs.organization_id
	WHERE rs.snapshot_id = ?`

const contributorActivityQuery = `
	SELECT o.name, r.name, c.username, cs.commit_count, cs.line_count
	FROM contributor_snapshots cs
	JOIN repository_snapshots rs ON rs.id = cs.repository_snapshot_id
	JOIN organizations o ON o.id = rs.organization_id
	JOIN repositories r ON r.id = rs.repository_id
	JOIN contributors c ON c.id = cs.contributor_id
	WHERE rs.snapshot_id = ?`

// OrgRollup returns one row per organization with activity in the snapshot.
func (s *Store) OrgRollup(ctx context.Context, snapshotID int64) ([]schema.OrgStats, error) {
	if s.disabled() {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, s.rebind(orgRollupQuery), snapshotID, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("failed to query organization rollup: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []schema.OrgStats
	for rows.Next() {
		var o schema.OrgStats
		if err := rows.Scan(&o.Name, &o.Commits, &o.Lines, &o.PRs, &o.RepoCount, &o.ContributorCount); err != nil {
			return nil, fmt.Errorf("failed to scan organization rollup: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// RepoRollup returns one row per repository snapshot.
func (s *Store) RepoRollup(ctx context.Context, snapshotID int64) ([]schema.RepoStats, error) {
	if s.disabled() {
		return nil, nil
	}
	return s.queryRepoStats(ctx, repoRollupQuery+repoRollupOrder, snapshotID)
}

// OrgDetail narrows the repository rollup to one organization.
func (s *Store) OrgDetail(ctx context.Context, snapshotID int64, org string) (schema.OrgDetail, error) {
	detail := schema.OrgDetail{Organization: org}
	if s.disabled() {
		return detail, nil
	}
	repos, err := s.queryRepoStats(ctx, repoRollupQuery+" AND o.name = ?"+repoRollupOrder, snapshotID, org)
	if err != nil {
		return detail, err
	}
	detail.Repositories = repos
	return detail, nil
}

func (s *Store) queryRepoStats(ctx context.Context, query string, args ...any) ([]schema.RepoStats, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query repository rollup: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []schema.RepoStats
	for rows.Next() {
		var r schema.RepoStats
		if err := rows.Scan(&r.Organization, &r.Name, &r.Commits, &r.Lines, &r.PRs, &r.ContributorCount); err != nil {
			return nil, fmt.Errorf("failed to scan repository rollup: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ContributorRollup returns one row per contributor with the organizations they touched.
func (s *Store) ContributorRollup(ctx context.Context, snapshotID int64) ([]schema.ContributorStats, error) {
	if s.disabled() {
		return nil, nil
	}

	orgs, err := s.contributorOrganizations(ctx, snapshotID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(contributorRollupQuery), snapshotID)
	if err != nil {
		return nil, fmt.Errorf("failed to query contributor rollup: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []schema.ContributorStats
	for rows.Next() {
		var c schema.ContributorStats
		if err := rows.Scan(&c.Username, &c.Commits, &c.Lines, &c.RepoCount); err != nil {
			return nil, fmt.Errorf("failed to scan contributor rollup: %w", err)
		}
		c.Organizations = orgs[c.Username]
		out = append(out, c)
	}
	return out, rows.Err()
}

// contributorOrganizations maps each username to its sorted organization names.
func (s *Store) contributorOrganizations(ctx context.Context, snapshotID int64) (map[string][]string, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(contributorOrgsQuery), snapshotID)
	if err != nil {
		return nil, fmt.Errorf("failed to query contributor organizations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	orgs := make(map[string][]string)
	for rows.Next() {
		var username, org string
		if err := rows.Scan(&username, &org); err != nil {
			return nil, fmt.Errorf("failed to scan contributor organization: %w", err)
		}
		orgs[username] = append(orgs[username], org)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, names := range orgs {
		sort.Strings(names)
	}
	return orgs, nil
}

// RepoDetail returns the contributors of one repository.
// PRs are reported as 0 since they are only tracked per repository.
func (s *Store) RepoDetail(ctx context.Context, snapshotID int64, org, repo string) (schema.RepoDetail, error) {
	detail := schema.RepoDetail{Organization: org, Repository: repo}
	if s.disabled() {
		return detail, nil
	}
	query := contributorActivityQuery + ` AND o.name = ? AND r.name = ?
	ORDER BY cs.commit_count DESC, c.username`
	err := s.scanContributorActivity(ctx, query, func(_, _, username string, commits, lines int64) {
		detail.Contributors = append(detail.Contributors, schema.RepoContributor{
			Username: username, Commits: commits, Lines: lines,
		})
	}, snapshotID, org, repo)
	return detail, err
}

// ContributorDetail returns the repositories one contributor touched.
func (s *Store) ContributorDetail(ctx context.Context, snapshotID int64, username string) (schema.ContributorDetail, error) {
	detail := schema.ContributorDetail{Username: username}
	if s.disabled() {
		return detail, nil
	}
	query := contributorActivityQuery + ` AND c.username = ?
	ORDER BY cs.commit_count DESC, o.name, r.name`
	err := s.scanContributorActivity(ctx, query, func(org, repo, _ string, commits, lines int64) {
		detail.Repositories = append(detail.Repositories, schema.ContributorRepo{
			Organization: org, Repository: repo, Commits: commits, Lines: lines,
		})
	}, snapshotID, username)
	return detail, err
}

func (s *Store) scanContributorActivity(ctx context.Context, query string, fn func(org, repo, username string, commits, lines int64), args ...any) error {
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return fmt.Errorf("failed to query contributor activity: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var org, repo, username string
		var commits, lines int64
		if err := rows.Scan(&org, &repo, &username, &commits, &lines); err != nil {
			return fmt.Errorf("failed to scan contributor activity: %w", err)
		}
		fn(org, repo, username, commits, lines)
	}
	return rows.Err()
}

// LoadRollups resolves the snapshot (0 means latest) and loads its three rollups concurrently.
func (s *Store) LoadRollups(ctx context.Context, snapshotID int64) (schema.Rollups, error) {
	info, err := s.ResolveSnapshot(ctx, snapshotID)
	if err != nil {
		return schema.Rollups{}, err
	}

	out := schema.Rollups{Snapshot: info}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.Organizations, err = s.OrgRollup(gctx, info.ID)
		return err
	})
	g.Go(func() (err error) {
		out.Repositories, err = s.RepoRollup(gctx, info.ID)
		return err
	})
	g.Go(func() (err error) {
		out.Contributors, err = s.ContributorRollup(gctx, info.ID)
		return err
	})
	if err := g.Wait(); err != nil {
		return schema.Rollups{}, err
	}
	return out, nil
}

// countRows returns the number of rows in a table.
func (s *Store) countRows(ctx context.Context, table string) (int64, error) {
	if err := validateTableName(table); err != nil {
		return 0, err
	}
	var n int64
	row := s.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTableName(table, s.backend)))
	if err := row.Scan(&n); err != nil && err != sql.ErrNoRows {
		return 0, err
	}
	return n, nil
}
