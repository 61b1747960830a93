package dashboard

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/huangsam/orgpulse/schema"
)

// View identifies what the dashboard is showing.
type View int

// All views of the dashboard.
const (
	OrgListView View = iota
	RepoListView
	ContributorListView
	SnapshotPickerView
	OrgDetailView
	RepoDetailView
	ContributorDetailView
)

// String returns the view title.
func (v View) String() string {
	switch v {
	case OrgListView:
		return "Organizations"
	case RepoListView:
		return "Repositories"
	case ContributorListView:
		return "Contributors"
	case SnapshotPickerView:
		return "Snapshots"
	case OrgDetailView:
		return "Organization"
	case RepoDetailView:
		return "Repository"
	case ContributorDetailView:
		return "Contributor"
	}
	return "Unknown"
}

// drillTarget is where activating a row leads.
// A non-zero snapshotID selects that snapshot instead of drilling.
type drillTarget struct {
	view       View
	context    string
	snapshotID int64
}

// ViewData is the loaded content of one view. Each view has its own
// implementation; Loading and Error stand in for any view.
type ViewData interface {
	// Len returns the number of selectable rows.
	Len() int

	sortRows(field schema.SortField, order schema.SortOrder)
	drill(row int) (drillTarget, bool)
	table() (headers []string, rows [][]string)
	// placeholder is text shown instead of the table, if any.
	placeholder() (string, bool)
	err() error
}

// loaded is embedded by the views that render a table.
type loaded struct{}

func (loaded) placeholder() (string, bool) { return "", false }
func (loaded) err() error                  { return nil }

// LoadingData is shown while a view's query is in flight.
type LoadingData struct{}

// ErrorData replaces a view's table when its query failed.
type ErrorData struct {
	Err error
}

// OrgListData is the organization rollup.
type OrgListData struct {
	loaded
	Rows []schema.OrgStats
}

// RepoListData is the repository rollup.
type RepoListData struct {
	loaded
	Rows []schema.RepoStats
}

// ContributorListData is the contributor rollup.
type ContributorListData struct {
	loaded
	Rows []schema.ContributorStats
}

// SnapshotPickerData lists the snapshots to choose from, newest first.
type SnapshotPickerData struct {
	loaded
	Rows []schema.SnapshotInfo
}

// OrgDetailData is one organization's repositories.
type OrgDetailData struct {
	loaded
	Detail schema.OrgDetail
}

// RepoDetailData is one repository's contributors.
type RepoDetailData struct {
	loaded
	Detail schema.RepoDetail
}

// ContributorDetailData is the repositories one contributor touched.
type ContributorDetailData struct {
	loaded
	Detail schema.ContributorDetail
}

var (
	_ ViewData = LoadingData{}
	_ ViewData = ErrorData{}
	_ ViewData = &OrgListData{}
	_ ViewData = &RepoListData{}
	_ ViewData = &ContributorListData{}
	_ ViewData = &SnapshotPickerData{}
	_ ViewData = &OrgDetailData{}
	_ ViewData = &RepoDetailData{}
	_ ViewData = &ContributorDetailData{}
)

func count(n int64) string { return schema.FormatCompact(n) }

func (LoadingData) Len() int                                    { return 0 }
func (LoadingData) sortRows(schema.SortField, schema.SortOrder) {}
func (LoadingData) drill(int) (drillTarget, bool)               { return drillTarget{}, false }
func (LoadingData) table() ([]string, [][]string)               { return nil, nil }
func (LoadingData) placeholder() (string, bool)                 { return "Loading...", true }
func (LoadingData) err() error                                  { return nil }

func (ErrorData) Len() int                                    { return 0 }
func (ErrorData) sortRows(schema.SortField, schema.SortOrder) {}
func (ErrorData) drill(int) (drillTarget, bool)               { return drillTarget{}, false }
func (ErrorData) table() ([]string, [][]string)               { return nil, nil }
func (e ErrorData) placeholder() (string, bool) {
	return fmt.Sprintf("Error: %v", e.Err), true
}
func (e ErrorData) err() error { return e.Err }

// Len implements ViewData.
func (d *OrgListData) Len() int { return len(d.Rows) }

func (d *OrgListData) sortRows(field schema.SortField, order schema.SortOrder) {
	schema.SortRows(d.Rows, field, order)
}

func (d *OrgListData) drill(row int) (drillTarget, bool) {
	return drillTarget{view: OrgDetailView, context: d.Rows[row].Name}, true
}

func (d *OrgListData) table() ([]string, [][]string) {
	rows := make([][]string, 0, len(d.Rows))
	for _, r := range d.Rows {
		rows = append(rows, []string{r.Name, count(r.Commits), count(r.Lines), count(r.PRs), count(r.RepoCount), count(r.ContributorCount)})
	}
	return []string{"Organization", "Commits", "Lines", "PRs", "Repos", "Contributors"}, rows
}

// Len implements ViewData.
func (d *RepoListData) Len() int { return len(d.Rows) }

func (d *RepoListData) sortRows(field schema.SortField, order schema.SortOrder) {
	schema.SortRows(d.Rows, field, order)
}

func (d *RepoListData) drill(row int) (drillTarget, bool) {
	return drillTarget{view: RepoDetailView, context: d.Rows[row].FullName()}, true
}

func (d *RepoListData) table() ([]string, [][]string) {
	return repoStatsTable(d.Rows)
}

func repoStatsTable(repos []schema.RepoStats) ([]string, [][]string) {
	rows := make([][]string, 0, len(repos))
	for _, r := range repos {
		rows = append(rows, []string{r.FullName(), count(r.Commits), count(r.Lines), count(r.PRs), count(r.ContributorCount)})
	}
	return []string{"Repository", "Commits", "Lines", "PRs", "Contributors"}, rows
}

// Len implements ViewData.
func (d *ContributorListData) Len() int { return len(d.Rows) }

func (d *ContributorListData) sortRows(field schema.SortField, order schema.SortOrder) {
	schema.SortRows(d.Rows, field, order)
}

func (d *ContributorListData) drill(row int) (drillTarget, bool) {
	return drillTarget{view: ContributorDetailView, context: d.Rows[row].Username}, true
}

func (d *ContributorListData) table() ([]string, [][]string) {
	rows := make([][]string, 0, len(d.Rows))
	for _, r := range d.Rows {
		rows = append(rows, []string{r.Username, count(r.Commits), count(r.Lines), count(r.RepoCount), strings.Join(r.Organizations, ", ")})
	}
	return []string{"Contributor", "Commits", "Lines", "Repos", "Organizations"}, rows
}

// Len implements ViewData.
func (d *SnapshotPickerData) Len() int { return len(d.Rows) }

// The picker keeps snapshots newest first regardless of the active sort.
func (d *SnapshotPickerData) sortRows(schema.SortField, schema.SortOrder) {}

func (d *SnapshotPickerData) drill(row int) (drillTarget, bool) {
	return drillTarget{view: OrgListView, snapshotID: d.Rows[row].ID}, true
}

func (d *SnapshotPickerData) table() ([]string, [][]string) {
	rows := make([][]string, 0, len(d.Rows))
	for _, s := range d.Rows {
		rows = append(rows, []string{
			strconv.FormatInt(s.ID, 10),
			s.StartTime.Local().Format(timeLayout),
			s.EndTime.Local().Format(timeLayout),
			count(s.RepoCount),
		})
	}
	return []string{"Snapshot", "Start", "End", "Repos"}, rows
}

// Len implements ViewData.
func (d *OrgDetailData) Len() int { return len(d.Detail.Repositories) }

func (d *OrgDetailData) sortRows(field schema.SortField, order schema.SortOrder) {
	schema.SortRows(d.Detail.Repositories, field, order)
}

func (d *OrgDetailData) drill(row int) (drillTarget, bool) {
	return drillTarget{view: RepoDetailView, context: d.Detail.Repositories[row].FullName()}, true
}

func (d *OrgDetailData) table() ([]string, [][]string) {
	return repoStatsTable(d.Detail.Repositories)
}

// Len implements ViewData.
func (d *RepoDetailData) Len() int { return len(d.Detail.Contributors) }

func (d *RepoDetailData) sortRows(field schema.SortField, order schema.SortOrder) {
	schema.SortRows(d.Detail.Contributors, field, order)
}

func (d *RepoDetailData) drill(row int) (drillTarget, bool) {
	return drillTarget{view: ContributorDetailView, context: d.Detail.Contributors[row].Username}, true
}

func (d *RepoDetailData) table() ([]string, [][]string) {
	rows := make([][]string, 0, len(d.Detail.Contributors))
	for _, c := range d.Detail.Contributors {
		rows = append(rows, []string{c.Username, count(c.Commits), count(c.Lines), count(c.PRs)})
	}
	return []string{"Contributor", "Commits", "Lines", "PRs"}, rows
}

// Len implements ViewData.
func (d *ContributorDetailData) Len() int { return len(d.Detail.Repositories) }

func (d *ContributorDetailData) sortRows(field schema.SortField, order schema.SortOrder) {
	schema.SortRows(d.Detail.Repositories, field, order)
}

func (d *ContributorDetailData) drill(row int) (drillTarget, bool) {
	return drillTarget{view: RepoDetailView, context: d.Detail.Repositories[row].FullName()}, true
}

func (d *ContributorDetailData) table() ([]string, [][]string) {
	rows := make([][]string, 0, len(d.Detail.Repositories))
	for _, r := range d.Detail.Repositories {
		rows = append(rows, []string{r.FullName(), count(r.Commits), count(r.Lines), count(r.PRs)})
	}
	return []string{"Repository", "Commits", "Lines", "PRs"}, rows
}
