package store

import (
	"context"
	"time"

	"github.com/huangsam/orgpulse/internal/contract"
	"github.com/huangsam/orgpulse/schema"
	"github.com/stretchr/testify/mock"
)

// MockSnapshotReader is a mock implementation of SnapshotReader for testing.
type MockSnapshotReader struct {
	mock.Mock
}

var _ contract.SnapshotReader = &MockSnapshotReader{} // Compile-time check

// ListSnapshots implements the SnapshotReader interface.
func (m *MockSnapshotReader) ListSnapshots(ctx context.Context) ([]schema.SnapshotInfo, error) {
	args := m.Called(ctx)
	out, _ := args.Get(0).([]schema.SnapshotInfo)
	return out, args.Error(1)
}

// LatestSnapshot implements the SnapshotReader interface.
func (m *MockSnapshotReader) LatestSnapshot(ctx context.Context) (schema.SnapshotInfo, error) {
	args := m.Called(ctx)
	return args.Get(0).(schema.SnapshotInfo), args.Error(1)
}

// OrgRollup implements the SnapshotReader interface.
func (m *MockSnapshotReader) OrgRollup(ctx context.Context, snapshotID int64) ([]schema.OrgStats, error) {
	args := m.Called(ctx, snapshotID)
	out, _ := args.Get(0).([]schema.OrgStats)
	return out, args.Error(1)
}

// RepoRollup implements the SnapshotReader interface.
func (m *MockSnapshotReader) RepoRollup(ctx context.Context, snapshotID int64) ([]schema.RepoStats, error) {
	args := m.Called(ctx, snapshotID)
	out, _ := args.Get(0).([]schema.RepoStats)
	return out, args.Error(1)
}

// ContributorRollup implements the SnapshotReader interface.
func (m *MockSnapshotReader) ContributorRollup(ctx context.Context, snapshotID int64) ([]schema.ContributorStats, error) {
	args := m.Called(ctx, snapshotID)
	out, _ := args.Get(0).([]schema.ContributorStats)
	return out, args.Error(1)
}

// OrgDetail implements the SnapshotReader interface.
func (m *MockSnapshotReader) OrgDetail(ctx context.Context, snapshotID int64, org string) (schema.OrgDetail, error) {
	args := m.Called(ctx, snapshotID, org)
	return args.Get(0).(schema.OrgDetail), args.Error(1)
}

// RepoDetail implements the SnapshotReader interface.
func (m *MockSnapshotReader) RepoDetail(ctx context.Context, snapshotID int64, org, repo string) (schema.RepoDetail, error) {
	args := m.Called(ctx, snapshotID, org, repo)
	return args.Get(0).(schema.RepoDetail), args.Error(1)
}

// ContributorDetail implements the SnapshotReader interface.
func (m *MockSnapshotReader) ContributorDetail(ctx context.Context, snapshotID int64, username string) (schema.ContributorDetail, error) {
	args := m.Called(ctx, snapshotID, username)
	return args.Get(0).(schema.ContributorDetail), args.Error(1)
}

// MockSnapshotWriter is a mock implementation of SnapshotWriter for testing.
type MockSnapshotWriter struct {
	mock.Mock
}

var _ contract.SnapshotWriter = &MockSnapshotWriter{} // Compile-time check

// UpsertOrganization implements the EntityStore interface.
func (m *MockSnapshotWriter) UpsertOrganization(ctx context.Context, name string) (schema.Organization, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(schema.Organization), args.Error(1)
}

// UpsertRepository implements the EntityStore interface.
func (m *MockSnapshotWriter) UpsertRepository(ctx context.Context, org schema.Organization, name string) (schema.Repository, error) {
	args := m.Called(ctx, org, name)
	return args.Get(0).(schema.Repository), args.Error(1)
}

// UpsertContributor implements the EntityStore interface.
func (m *MockSnapshotWriter) UpsertContributor(ctx context.Context, username string) (schema.Contributor, error) {
	args := m.Called(ctx, username)
	return args.Get(0).(schema.Contributor), args.Error(1)
}

// CreateSnapshot implements the SnapshotWriter interface.
func (m *MockSnapshotWriter) CreateSnapshot(ctx context.Context, start, end time.Time) (schema.Snapshot, error) {
	args := m.Called(ctx, start, end)
	return args.Get(0).(schema.Snapshot), args.Error(1)
}

// CommitRepositorySnapshot implements the SnapshotWriter interface.
func (m *MockSnapshotWriter) CommitRepositorySnapshot(ctx context.Context, snapshotID int64, org schema.Organization, repo schema.Repository, activity schema.RepositoryActivity) (schema.RepositorySnapshot, error) {
	args := m.Called(ctx, snapshotID, org, repo, activity)
	return args.Get(0).(schema.RepositorySnapshot), args.Error(1)
}
