package schema

import (
	"sort"
	"strings"
)

// Sortable is a rollup row that can be ordered by any SortField.
// Fields that do not apply to a row kind report 0, which leaves those rows ordered by name.
type Sortable interface {
	SortName() string
	SortValue(field SortField) int64
}

// SortRows orders rows in place by field and order.
// Ties on numeric fields are broken by name ascending so the order is total and repeatable.
func SortRows[T Sortable](rows []T, field SortField, order SortOrder) {
	sort.SliceStable(rows, func(i, j int) bool {
		return lessRows(rows[i], rows[j], field, order)
	})
}

func lessRows(a, b Sortable, field SortField, order SortOrder) bool {
	if field != SortByName {
		va, vb := a.SortValue(field), b.SortValue(field)
		if va != vb {
			if order == Ascending {
				return va < vb
			}
			return va > vb
		}
		return compareNames(a.SortName(), b.SortName()) < 0
	}
	c := compareNames(a.SortName(), b.SortName())
	if order == Ascending {
		return c < 0
	}
	return c > 0
}

// compareNames compares case-insensitively, falling back to a byte comparison.
func compareNames(a, b string) int {
	if c := strings.Compare(strings.ToLower(a), strings.ToLower(b)); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}

// SortName implements Sortable.
func (s SnapshotInfo) SortName() string { return s.StartTime.UTC().Format("2006-01-02T15:04:05.000000000") }

// SortValue implements Sortable.
func (s SnapshotInfo) SortValue(field SortField) int64 {
	if field == SortByRepos {
		return s.RepoCount
	}
	return 0
}

// SortName implements Sortable.
func (o OrgStats) SortName() string { return o.Name }

// SortValue implements Sortable.
func (o OrgStats) SortValue(field SortField) int64 {
	switch field {
	case SortByCommits:
		return o.Commits
	case SortByLines:
		return o.Lines
	case SortByRepos:
		return o.RepoCount
	case SortByPRs:
		return o.PRs
	}
	return 0
}

// SortName implements Sortable.
func (r RepoStats) SortName() string { return r.FullName() }

// SortValue implements Sortable.
func (r RepoStats) SortValue(field SortField) int64 {
	switch field {
	case SortByCommits:
		return r.Commits
	case SortByLines:
		return r.Lines
	case SortByPRs:
		return r.PRs
	}
	return 0
}

// SortName implements Sortable.
func (c ContributorStats) SortName() string { return c.Username }

// SortValue implements Sortable.
func (c ContributorStats) SortValue(field SortField) int64 {
	switch field {
	case SortByCommits:
		return c.Commits
	case SortByLines:
		return c.Lines
	case SortByRepos:
		return c.RepoCount
	}
	return 0
}

// SortName implements Sortable.
func (c RepoContributor) SortName() string { return c.Username }

// SortValue implements Sortable.
func (c RepoContributor) SortValue(field SortField) int64 {
	switch field {
	case SortByCommits:
		return c.Commits
	case SortByLines:
		return c.Lines
	case SortByPRs:
		return c.PRs
	}
	return 0
}

// SortName implements Sortable.
func (r ContributorRepo) SortName() string { return r.FullName() }

// SortValue implements Sortable.
func (r ContributorRepo) SortValue(field SortField) int64 {
	switch field {
	case SortByCommits:
		return r.Commits
	case SortByLines:
		return r.Lines
	case SortByPRs:
		return r.PRs
	}
	return 0
}
