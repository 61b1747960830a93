package contract

import (
	"context"
	"time"

	"github.com/huangsam/orgpulse/schema"
	"github.com/stretchr/testify/mock"
)

// MockActivitySource is a mock implementation of ActivitySource for testing.
type MockActivitySource struct {
	mock.Mock
}

var _ ActivitySource = &MockActivitySource{} // Compile-time check

// ListMemberOrganizations mocks the ListMemberOrganizations method.
func (m *MockActivitySource) ListMemberOrganizations(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	return args.Get(0).([]string), args.Error(1)
}

// ListRepositories mocks the ListRepositories method.
func (m *MockActivitySource) ListRepositories(ctx context.Context, org string, page, pageSize int) ([]schema.RepositoryRecord, error) {
	args := m.Called(ctx, org, page, pageSize)
	return args.Get(0).([]schema.RepositoryRecord), args.Error(1)
}

// ListCommits mocks the ListCommits method.
func (m *MockActivitySource) ListCommits(ctx context.Context, org, repo string, since time.Time) ([]schema.CommitRecord, error) {
	args := m.Called(ctx, org, repo, since)
	return args.Get(0).([]schema.CommitRecord), args.Error(1)
}

// ListPullRequests mocks the ListPullRequests method.
func (m *MockActivitySource) ListPullRequests(ctx context.Context, org, repo string, since time.Time) ([]schema.PullRequestRecord, error) {
	args := m.Called(ctx, org, repo, since)
	return args.Get(0).([]schema.PullRequestRecord), args.Error(1)
}

// MockCollector is a mock implementation of Collector for testing.
type MockCollector struct {
	mock.Mock
}

var _ Collector = &MockCollector{} // Compile-time check

// Collect mocks the Collect method.
func (m *MockCollector) Collect(ctx context.Context) (schema.CollectionResult, error) {
	args := m.Called(ctx)
	return args.Get(0).(schema.CollectionResult), args.Error(1)
}
