package schema

import "time"

// StoreStatus represents the status of the snapshot store.
type StoreStatus struct {
	Backend          string           `json:"backend"`
	Connected        bool             `json:"connected"`
	SchemaVersion    uint             `json:"schema_version"`
	TotalSnapshots   int              `json:"total_snapshots"`
	LatestSnapshotID int64            `json:"latest_snapshot_id"`
	LatestStartTime  time.Time        `json:"latest_start_time"`
	OldestStartTime  time.Time        `json:"oldest_start_time"`
	TableSizes       map[string]int64 `json:"table_sizes"`
}
