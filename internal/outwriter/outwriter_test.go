package outwriter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/huangsam/orgpulse/internal/contract"
	"github.com/huangsam/orgpulse/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testInfo = schema.SnapshotInfo{
	ID:        3,
	StartTime: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
	EndTime:   time.Date(2026, 10, 8, 0, 0, 0, 0, time.UTC),
	RepoCount: 4,
}

var testRepos = []schema.RepoStats{
	{Organization: "acme", Name: "api", Commits: 7, Lines: 120, PRs: 2, ContributorCount: 2},
	{Organization: "acme", Name: "web", Commits: 1, Lines: 50, PRs: 1, ContributorCount: 1},
	{Organization: "globex", Name: "core", Commits: 3, Lines: 0, PRs: 0, ContributorCount: 1},
}

func newBufferWriter() (*OutWriter, *bytes.Buffer) {
	var buf bytes.Buffer
	return &OutWriter{stdout: &buf}, &buf
}

func testConfig(mode schema.OutputMode) *contract.Config {
	return &contract.Config{
		Output:    mode,
		SortField: schema.SortByCommits,
		SortOrder: schema.Descending,
	}
}

func TestWriteRepoRollup_JSON(t *testing.T) {
	ow, buf := newBufferWriter()
	require.NoError(t, ow.WriteRepoRollup(testInfo, testRepos, testConfig(schema.JSONOut)))

	var report struct {
		Snapshot schema.SnapshotInfo `json:"snapshot"`
		Summary  Summary             `json:"summary"`
		Rows     []schema.RepoStats  `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &report))
	assert.Equal(t, int64(3), report.Snapshot.ID)
	assert.Equal(t, 3, report.Summary.Rows)
	assert.Equal(t, int64(11), report.Summary.TotalCommits)
	assert.InDelta(t, 3.0, report.Summary.MedianCommits, 1e-9)
	assert.Equal(t, testRepos, report.Rows)
}

func TestWriteRepoRollup_CSV(t *testing.T) {
	ow, buf := newBufferWriter()
	require.NoError(t, ow.WriteRepoRollup(testInfo, testRepos, testConfig(schema.CSVOut)))

	records, err := csv.NewReader(buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, []string{"rank", "snapshot_id", "organization", "repository", "commits", "lines", "prs", "contributors"}, records[0])
	assert.Equal(t, []string{"1", "3", "acme", "api", "7", "120", "2", "2"}, records[1])
	assert.Equal(t, []string{"3", "3", "globex", "core", "3", "0", "0", "1"}, records[3])
}

func TestWriteRepoRollup_Text(t *testing.T) {
	ow, buf := newBufferWriter()
	require.NoError(t, ow.WriteRepoRollup(testInfo, testRepos, testConfig(schema.TextOut)))

	out := buf.String()
	assert.Contains(t, strings.ToLower(out), "repository")
	assert.Contains(t, out, "globex")
	assert.Contains(t, out, "Snapshot #3")
	assert.Contains(t, out, "3 repositories sorted by commits desc")
	assert.Contains(t, out, "Commits: total 11")
}

func TestWriteContributorRollup_CSVJoinsOrganizations(t *testing.T) {
	ow, buf := newBufferWriter()
	rows := []schema.ContributorStats{
		{Username: "alice", Commits: 6, Lines: 150, RepoCount: 2, Organizations: []string{"acme", "globex"}},
	}
	require.NoError(t, ow.WriteContributorRollup(testInfo, rows, testConfig(schema.CSVOut)))

	records, err := csv.NewReader(buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "acme|globex", records[1][6])
}

func TestWriteOrgRollup_EmptyRows(t *testing.T) {
	ow, buf := newBufferWriter()
	require.NoError(t, ow.WriteOrgRollup(testInfo, nil, testConfig(schema.TextOut)))
	assert.Contains(t, buf.String(), "0 organizations")
	assert.Contains(t, buf.String(), "Commits: total 0")
}

func TestWriteOrgRollup_OutputFile(t *testing.T) {
	ow, buf := newBufferWriter()
	cfg := testConfig(schema.JSONOut)
	cfg.OutputFile = filepath.Join(t.TempDir(), "orgs.json")

	rows := []schema.OrgStats{{Name: "acme", Commits: 8, RepoCount: 2, ContributorCount: 2}}
	require.NoError(t, ow.WriteOrgRollup(testInfo, rows, cfg))
	assert.Empty(t, buf.String())

	data, err := os.ReadFile(cfg.OutputFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"name": "acme"`)
}

func TestWriteSnapshots(t *testing.T) {
	snapshots := []schema.SnapshotInfo{testInfo, {ID: 1, StartTime: testInfo.StartTime.AddDate(0, -1, 0), EndTime: testInfo.EndTime.AddDate(0, -1, 0)}}

	t.Run("csv", func(t *testing.T) {
		ow, buf := newBufferWriter()
		require.NoError(t, ow.WriteSnapshots(snapshots, testConfig(schema.CSVOut)))
		records, err := csv.NewReader(buf).ReadAll()
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Equal(t, []string{"3", "2026-10-01T00:00:00Z", "2026-10-08T00:00:00Z", "4"}, records[1])
	})

	t.Run("empty text", func(t *testing.T) {
		ow, buf := newBufferWriter()
		require.NoError(t, ow.WriteSnapshots(nil, testConfig(schema.TextOut)))
		assert.Contains(t, buf.String(), "No snapshots yet")
	})
}

func TestWriteCollection(t *testing.T) {
	result := schema.CollectionResult{
		SnapshotID:            5,
		State:                 schema.RunSucceeded,
		Organizations:         2,
		RepositoriesSeen:      4,
		RepositoriesCommitted: 3,
		RepositoriesEmpty:     1,
		Failures: []schema.RepositoryFailure{
			{Organization: "acme", Repository: "web", Reason: "fetch failed"},
		},
		Duration: 1500 * time.Millisecond,
	}

	t.Run("text", func(t *testing.T) {
		ow, buf := newBufferWriter()
		require.NoError(t, ow.WriteCollection(result, testConfig(schema.TextOut)))
		out := buf.String()
		assert.Contains(t, out, "Snapshot #5 succeeded")
		assert.Contains(t, out, "repositories seen: 4, committed: 3, without commits: 1, failed: 1")
		assert.Contains(t, out, "acme/web")
		assert.Contains(t, out, "fetch failed")
	})

	t.Run("csv lists failures", func(t *testing.T) {
		ow, buf := newBufferWriter()
		require.NoError(t, ow.WriteCollection(result, testConfig(schema.CSVOut)))
		records, err := csv.NewReader(buf).ReadAll()
		require.NoError(t, err)
		assert.Equal(t, [][]string{
			{"snapshot_id", "organization", "repository", "reason"},
			{"5", "acme", "web", "fetch failed"},
		}, records)
	})

	t.Run("json", func(t *testing.T) {
		ow, buf := newBufferWriter()
		require.NoError(t, ow.WriteCollection(result, testConfig(schema.JSONOut)))
		var decoded schema.CollectionResult
		require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
		assert.Equal(t, int64(5), decoded.SnapshotID)
		assert.Len(t, decoded.Failures, 1)
	})
}

func TestFormatTime(t *testing.T) {
	assert.Equal(t, "-", formatTime(time.Time{}))
	assert.NotEqual(t, "-", formatTime(testInfo.StartTime))
}
