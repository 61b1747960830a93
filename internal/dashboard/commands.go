package dashboard

import "context"

// command is a deferred state change. The loop applies at most one per step,
// after any in-flight load has finished.
type command interface {
	apply(ctx context.Context, d *Dashboard)
}

// switchView replaces the current view with a top-level list or the picker.
type switchView struct {
	view View
}

// drillDown opens the row selected when the command runs: the matching
// detail view, or the snapshot in the picker.
type drillDown struct{}

// moveSelection shifts the selection once the loads queued before it are done.
type moveSelection struct {
	delta int
}

// navigateBack returns to the previous view on the history stack.
type navigateBack struct{}

// startCollection marks a run as in progress. The run itself happens on the
// following step so that the in-progress state is rendered first.
type startCollection struct{}

type runCollection struct{}

// selectSnapshot makes a snapshot current and shows its organizations.
type selectSnapshot struct {
	id int64
}

func (c switchView) apply(ctx context.Context, d *Dashboard) {
	if c.view == SnapshotPickerView {
		if d.view != SnapshotPickerView {
			d.pushHistory()
		}
	} else {
		d.history = nil
	}
	d.load(ctx, c.view, "")
}

func (drillDown) apply(ctx context.Context, d *Dashboard) {
	if d.selected >= d.data.Len() {
		return
	}
	target, ok := d.data.drill(d.selected)
	if !ok {
		return
	}
	if target.snapshotID != 0 {
		selectSnapshot{id: target.snapshotID}.apply(ctx, d)
		return
	}
	if d.collecting {
		d.notice = "Drill-down unavailable while collecting"
		return
	}
	d.pushHistory()
	d.load(ctx, target.view, target.context)
}

func (c moveSelection) apply(_ context.Context, d *Dashboard) {
	d.move(c.delta)
}

func (navigateBack) apply(ctx context.Context, d *Dashboard) {
	n := len(d.history)
	if n == 0 {
		return
	}
	prev := d.history[n-1]
	d.history = d.history[:n-1]
	d.load(ctx, prev.view, prev.context)
}

func (startCollection) apply(_ context.Context, d *Dashboard) {
	if d.collecting {
		d.notice = "A collection run is already in progress"
		return
	}
	if d.collector == nil {
		d.banner = "Collection is not configured"
		return
	}
	d.collecting = true
	d.banner = ""
	d.notice = ""
	d.enqueue(runCollection{})
}

func (runCollection) apply(ctx context.Context, d *Dashboard) {
	d.collect(ctx)
}

func (c selectSnapshot) apply(ctx context.Context, d *Dashboard) {
	if err := d.selectSnapshot(ctx, c.id); err != nil {
		d.banner = err.Error()
		return
	}
	d.history = nil
	d.load(ctx, OrgListView, "")
}
