package store

import (
	"testing"
	"time"

	"github.com/huangsam/orgpulse/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateTableName(t *testing.T) {
	for _, name := range allTables {
		assert.NoError(t, validateTableName(name))
	}
	for _, name := range []string{"", "1table", "snap shots", "snapshots;DROP TABLE x", "a-b"} {
		assert.Error(t, validateTableName(name), name)
	}
}

func TestQuoteTableName(t *testing.T) {
	assert.Equal(t, "`snapshots`", quoteTableName("snapshots", schema.MySQLBackend))
	assert.Equal(t, `"snapshots"`, quoteTableName("snapshots", schema.PostgreSQLBackend))
	assert.Equal(t, `"snapshots"`, quoteTableName("snapshots", schema.SQLiteBackend))
}

func TestRebind(t *testing.T) {
	query := "SELECT * FROM t WHERE a = ? AND b = ?"
	assert.Equal(t, query, (&Store{backend: schema.SQLiteBackend}).rebind(query))
	assert.Equal(t, query, (&Store{backend: schema.MySQLBackend}).rebind(query))
	assert.Equal(t, "SELECT * FROM t WHERE a = $1 AND b = $2", (&Store{backend: schema.PostgreSQLBackend}).rebind(query))
}

func TestFormatTime(t *testing.T) {
	ts := time.Date(2026, 10, 1, 9, 30, 0, 5, time.FixedZone("X", 3600))

	assert.Equal(t, "2026-10-01T08:30:00.000000005Z", formatTime(ts, schema.SQLiteBackend))
	assert.Equal(t, ts.UTC(), formatTime(ts, schema.PostgreSQLBackend))
}

func TestDBTimeScan(t *testing.T) {
	want := time.Date(2026, 10, 1, 8, 30, 0, 0, time.UTC)
	tests := []struct {
		name  string
		value any
	}{
		{"sqlite text", "2026-10-01T08:30:00.000000000Z"},
		{"rfc3339 bytes", []byte("2026-10-01T08:30:00Z")},
		{"datetime text", "2026-10-01 08:30:00"},
		{"native", want.In(time.FixedZone("Y", -7200))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got dbTime
			require.NoError(t, got.Scan(tt.value))
			assert.True(t, want.Equal(got.Time))
			assert.Equal(t, time.UTC, got.Location())
		})
	}

	var zero dbTime
	require.NoError(t, zero.Scan(nil))
	assert.True(t, zero.IsZero())

	assert.Error(t, zero.Scan("yesterday"))
	assert.Error(t, zero.Scan(42))
}
