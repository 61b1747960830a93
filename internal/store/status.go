package store

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/huangsam/orgpulse/schema"
)

// GetStatus returns status information about the snapshot store.
func (s *Store) GetStatus(ctx context.Context) (schema.StoreStatus, error) {
	status := schema.StoreStatus{
		Backend:    string(s.backend),
		Connected:  s.db != nil,
		TableSizes: make(map[string]int64),
	}
	if s.disabled() {
		return status, nil
	}

	// Missing before the first migration, which is fine
	var version int64
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_migrations LIMIT 1").Scan(&version); err == nil && version > 0 {
		status.SchemaVersion = uint(version)
	}

	var total int64
	var latest, oldest dbTime
	row := s.db.QueryRowContext(ctx, "SELECT COUNT(*), MAX(start_time), MIN(start_time) FROM snapshots")
	if err := row.Scan(&total, &latest, &oldest); err != nil {
		return status, fmt.Errorf("failed to get snapshot totals: %w", err)
	}
	status.TotalSnapshots = int(total)
	status.LatestStartTime = latest.Time
	status.OldestStartTime = oldest.Time

	if total > 0 {
		info, err := s.LatestSnapshot(ctx)
		if err != nil {
			return status, err
		}
		status.LatestSnapshotID = info.ID
	}

	for _, table := range allTables {
		n, err := s.countRows(ctx, table)
		if err != nil {
			return status, fmt.Errorf("failed to count rows in %s: %w", table, err)
		}
		status.TableSizes[table] = n
	}
	return status, nil
}

// PrintStoreStatus prints snapshot store status information.
func PrintStoreStatus(w io.Writer, status schema.StoreStatus) {
	_, _ = fmt.Fprintf(w, "Store Backend: %s\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Connected: %t\n", status.Connected)
	if !status.Connected {
		return
	}
	_, _ = fmt.Fprintf(w, "Schema Version: %d\n", status.SchemaVersion)
	_, _ = fmt.Fprintf(w, "Total Snapshots: %d\n", status.TotalSnapshots)
	if status.TotalSnapshots > 0 {
		_, _ = fmt.Fprintf(w, "Latest Snapshot ID: %d\n", status.LatestSnapshotID)
		_, _ = fmt.Fprintf(w, "Latest Snapshot: %s\n", status.LatestStartTime.Format("2006-01-02 15:04:05"))
		_, _ = fmt.Fprintf(w, "Oldest Snapshot: %s\n", status.OldestStartTime.Format("2006-01-02 15:04:05"))
	}
	tables := make([]string, 0, len(status.TableSizes))
	for table := range status.TableSizes {
		tables = append(tables, table)
	}
	sort.Strings(tables)
	_, _ = fmt.Fprintln(w, "Table Sizes:")
	for _, table := range tables {
		_, _ = fmt.Fprintf(w, "  %s: %d rows\n", table, status.TableSizes[table])
	}
}
