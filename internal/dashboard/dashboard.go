// Package dashboard is the interactive terminal browser for collected snapshots.
//
// The dashboard is a single-threaded state machine. Key presses change
// sorting immediately; everything that loads data is queued as a command and
// applied one per step, after the previous load finished. Selection moves and
// drill-downs issued behind a queued load wait for it and act on its rows.
package dashboard

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/huangsam/orgpulse/internal/contract"
	"github.com/huangsam/orgpulse/schema"
)

// historyEntry is a view to return to on back navigation.
type historyEntry struct {
	view    View
	context string
}

// Dashboard holds the full UI state.
type Dashboard struct {
	reader    contract.SnapshotReader
	collector contract.Collector
	logger    *slog.Logger

	view      View
	context   string // drill-down key of the current view
	data      ViewData
	selected  int
	sortField schema.SortField
	sortOrder schema.SortOrder

	snapshots []schema.SnapshotInfo
	snapshot  schema.SnapshotInfo

	history []historyEntry
	queue   []command

	collecting bool
	banner     string // last collection or selection error, cleared by the next key press
	notice     string // transient status, cleared by the next key press
	quit       bool
}

// Option configures a Dashboard.
type Option func(*Dashboard)

// WithLogger sets the logger. The dashboard owns the terminal, so this should not write to it.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dashboard) { d.logger = logger }
}

// WithSort sets the initial sort.
func WithSort(field schema.SortField, order schema.SortOrder) Option {
	return func(d *Dashboard) {
		d.sortField = field
		d.sortOrder = order
	}
}

// New creates a Dashboard. A nil collector disables collection runs.
func New(reader contract.SnapshotReader, collector contract.Collector, opts ...Option) *Dashboard {
	d := &Dashboard{
		reader:    reader,
		collector: collector,
		logger:    slog.Default(),
		view:      OrgListView,
		data:      LoadingData{},
		sortField: schema.SortByCommits,
		sortOrder: schema.Descending,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Init selects the latest snapshot and loads the organization list.
// It fails when no snapshot exists or the first load fails.
func (d *Dashboard) Init(ctx context.Context) error {
	snapshots, err := d.reader.ListSnapshots(ctx)
	if err != nil {
		return fmt.Errorf("failed to list snapshots: %w", err)
	}
	if len(snapshots) == 0 {
		return contract.ErrNoSnapshot
	}
	d.snapshots = snapshots
	d.snapshot = snapshots[0]

	d.load(ctx, OrgListView, "")
	return d.data.err()
}

// View returns the current view.
func (d *Dashboard) View() View { return d.view }

// Context returns the drill-down key of the current view, empty for list views.
func (d *Dashboard) Context() string { return d.context }

// Data returns the loaded content of the current view.
func (d *Dashboard) Data() ViewData { return d.data }

// Selected returns the selected row index.
func (d *Dashboard) Selected() int { return d.selected }

// Sort returns the active sort field and order.
func (d *Dashboard) Sort() (schema.SortField, schema.SortOrder) { return d.sortField, d.sortOrder }

// Snapshot returns the current snapshot.
func (d *Dashboard) Snapshot() schema.SnapshotInfo { return d.snapshot }

// Collecting reports whether a collection run was requested and has not finished.
func (d *Dashboard) Collecting() bool { return d.collecting }

// Banner returns the last error worth showing above the view until the next key press.
func (d *Dashboard) Banner() string { return d.banner }

// Notice returns the transient status line.
func (d *Dashboard) Notice() string { return d.notice }

// Depth returns the number of entries on the history stack.
func (d *Dashboard) Depth() int { return len(d.history) }

// Pending returns the number of queued commands.
func (d *Dashboard) Pending() int { return len(d.queue) }

// Done reports whether the user asked to quit.
func (d *Dashboard) Done() bool { return d.quit }

// Step performs one state-changing action: the key press if there is one,
// otherwise the oldest queued command. It reports whether anything happened.
func (d *Dashboard) Step(ctx context.Context, key *Key) bool {
	if key != nil {
		d.HandleKey(*key)
		return true
	}
	if len(d.queue) == 0 {
		return false
	}
	cmd := d.queue[0]
	d.queue = d.queue[1:]
	cmd.apply(ctx, d)
	return true
}

// HandleKey applies a key press. Sort changes take effect immediately;
// view changes and drill-downs are queued, and so are selection moves while
// anything else is queued.
func (d *Dashboard) HandleKey(k Key) {
	d.notice = ""
	d.banner = ""
	action := ActionFor(k)
	if field, ok := sortActions[action]; ok {
		d.setSort(field)
		return
	}
	switch action {
	case ActionQuit:
		d.quit = true
	case ActionBack:
		d.enqueue(navigateBack{})
	case ActionShowOrgs:
		d.enqueue(switchView{view: OrgListView})
	case ActionShowRepos:
		d.enqueue(switchView{view: RepoListView})
	case ActionShowContributors:
		d.enqueue(switchView{view: ContributorListView})
	case ActionShowSnapshots:
		d.enqueue(switchView{view: SnapshotPickerView})
	case ActionUp:
		d.moveOrQueue(-1)
	case ActionDown:
		d.moveOrQueue(1)
	case ActionActivate:
		d.activate()
	case ActionToggleOrder:
		d.toggleOrder()
	case ActionCollect:
		d.enqueue(startCollection{})
	}
}

func (d *Dashboard) enqueue(cmd command) {
	d.queue = append(d.queue, cmd)
}

// activate queues opening the selected row. The row is resolved when the
// command runs, against the view and selection current by then.
func (d *Dashboard) activate() {
	if d.collecting && d.view != SnapshotPickerView {
		d.notice = "Drill-down unavailable while collecting"
		return
	}
	d.enqueue(drillDown{})
}

// moveOrQueue moves the selection now, or after the queued commands when a
// load is pending, since a load resets the selection.
func (d *Dashboard) moveOrQueue(delta int) {
	if len(d.queue) > 0 {
		d.enqueue(moveSelection{delta: delta})
		return
	}
	d.move(delta)
}

// setSort flips the order when field is already active and otherwise
// switches to field in descending order.
func (d *Dashboard) setSort(field schema.SortField) {
	if d.view == SnapshotPickerView {
		return
	}
	if field == d.sortField {
		d.sortOrder = d.sortOrder.Toggle()
	} else {
		d.sortField = field
		d.sortOrder = schema.Descending
	}
	d.resort()
}

func (d *Dashboard) toggleOrder() {
	if d.view == SnapshotPickerView {
		return
	}
	d.sortOrder = d.sortOrder.Toggle()
	d.resort()
}

func (d *Dashboard) resort() {
	d.data.sortRows(d.sortField, d.sortOrder)
	d.selected = 0
}

// move shifts the selection, wrapping at both ends.
func (d *Dashboard) move(delta int) {
	n := d.data.Len()
	if n == 0 {
		return
	}
	d.selected = ((d.selected+delta)%n + n) % n
}

func (d *Dashboard) pushHistory() {
	d.history = append(d.history, historyEntry{view: d.view, context: d.context})
}

// load switches to view and queries its data from the store.
// A failed query leaves the view in the Error state.
func (d *Dashboard) load(ctx context.Context, view View, key string) {
	d.view = view
	d.context = key
	d.selected = 0
	d.data = LoadingData{}

	data, err := d.query(ctx, view, key)
	if err != nil {
		d.logger.Error("failed to load view", "view", view.String(), "context", key,
			"snapshot_id", d.snapshot.ID, "error", err)
		d.data = ErrorData{Err: err}
		return
	}
	data.sortRows(d.sortField, d.sortOrder)
	d.data = data
}

func (d *Dashboard) query(ctx context.Context, view View, key string) (ViewData, error) {
	id := d.snapshot.ID
	switch view {
	case OrgListView:
		rows, err := d.reader.OrgRollup(ctx, id)
		return &OrgListData{Rows: rows}, err
	case RepoListView:
		rows, err := d.reader.RepoRollup(ctx, id)
		return &RepoListData{Rows: rows}, err
	case ContributorListView:
		rows, err := d.reader.ContributorRollup(ctx, id)
		return &ContributorListData{Rows: rows}, err
	case SnapshotPickerView:
		rows, err := d.reader.ListSnapshots(ctx)
		if err == nil {
			d.snapshots = rows
		}
		return &SnapshotPickerData{Rows: rows}, err
	case OrgDetailView:
		detail, err := d.reader.OrgDetail(ctx, id, key)
		return &OrgDetailData{Detail: detail}, err
	case RepoDetailView:
		org, repo, err := schema.SplitRepoKey(key)
		if err != nil {
			return nil, err
		}
		detail, err := d.reader.RepoDetail(ctx, id, org, repo)
		return &RepoDetailData{Detail: detail}, err
	case ContributorDetailView:
		detail, err := d.reader.ContributorDetail(ctx, id, key)
		return &ContributorDetailData{Detail: detail}, err
	}
	return nil, fmt.Errorf("unknown view %d", view)
}

// selectSnapshot makes the snapshot with the given id current.
func (d *Dashboard) selectSnapshot(ctx context.Context, id int64) error {
	for _, s := range d.snapshots {
		if s.ID == id {
			d.snapshot = s
			return nil
		}
	}
	snapshots, err := d.reader.ListSnapshots(ctx)
	if err != nil {
		return fmt.Errorf("failed to list snapshots: %w", err)
	}
	d.snapshots = snapshots
	for _, s := range snapshots {
		if s.ID == id {
			d.snapshot = s
			return nil
		}
	}
	return fmt.Errorf("snapshot %d not found", id)
}

// collect runs a collection pass to completion. On success the latest
// snapshot's organization list replaces the current view; on failure the
// view is left as it was and the error goes to the banner.
func (d *Dashboard) collect(ctx context.Context) {
	defer func() { d.collecting = false }()

	result, err := d.collector.Collect(ctx)
	if err != nil {
		d.logger.Error("collection failed", "error", err)
		d.banner = fmt.Sprintf("Collection failed: %v", err)
		return
	}

	snapshots, err := d.reader.ListSnapshots(ctx)
	if err != nil {
		d.banner = fmt.Sprintf("Collection finished but snapshots could not be listed: %v", err)
		return
	}
	if len(snapshots) == 0 {
		d.banner = contract.ErrNoSnapshot.Error()
		return
	}
	d.snapshots = snapshots
	d.snapshot = snapshots[0]
	d.history = nil
	d.load(ctx, OrgListView, "")

	d.notice = fmt.Sprintf("Collected snapshot #%d: %d repositories, %d without commits, %d failed",
		result.SnapshotID, result.RepositoriesCommitted, result.RepositoriesEmpty, len(result.Failures))
	d.logger.Info("collection finished", "snapshot_id", result.SnapshotID,
		"repositories_committed", result.RepositoriesCommitted, "failures", len(result.Failures))
}
