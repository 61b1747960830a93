package gateway

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/google/go-github/v62/github"
	"github.com/huangsam/orgpulse/schema"
	"github.com/shurcooL/githubv4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var since = time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)

// setupTestGateway creates a GitHubGateway that communicates with a mock HTTP server.
func setupTestGateway(t *testing.T, handler http.Handler) (*GitHubGateway, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	restClient := github.NewClient(server.Client())
	baseURL, err := url.Parse(server.URL + "/")
	require.NoError(t, err)
	restClient.BaseURL = baseURL

	return &GitHubGateway{
		restClient:    restClient,
		graphqlClient: githubv4.NewEnterpriseClient(server.URL, server.Client()),
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, server
}

func TestNewGitHubGateway(t *testing.T) {
	_, err := NewGitHubGateway("", nil)
	assert.ErrorIs(t, err, ErrMissingToken)

	g, err := NewGitHubGateway("ghp_test", nil)
	require.NoError(t, err)
	assert.NotNil(t, g.restClient)
	assert.NotNil(t, g.graphqlClient)
}

func TestGitHubGateway_ListMemberOrganizations(t *testing.T) {
	var serverURL string
	g, server := setupTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/user/memberships/orgs", r.URL.Path)
		assert.Equal(t, "active", r.URL.Query().Get("state"))
		if r.URL.Query().Get("page") == "" {
			w.Header().Set("Link", fmt.Sprintf(`<%s/user/memberships/orgs?state=active&page=2>; rel="next"`, serverURL))
			_, _ = fmt.Fprint(w, `[{"organization":{"login":"acme"}},{"organization":{"login":"globex"}}]`)
			return
		}
		_, _ = fmt.Fprint(w, `[{"organization":{"login":"initech"}},{"organization":{}}]`)
	}))
	serverURL = server.URL

	orgs, err := g.ListMemberOrganizations(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"acme", "globex", "initech"}, orgs)
}

func TestGitHubGateway_ListRepositories(t *testing.T) {
	testCases := []struct {
		name        string
		handler     http.HandlerFunc
		expected    []schema.RepositoryRecord
		expectedErr string
	}{
		{
			name: "happy path",
			handler: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/orgs/acme/repos", r.URL.Path)
				assert.Equal(t, "2", r.URL.Query().Get("page"))
				assert.Equal(t, "50", r.URL.Query().Get("per_page"))
				assert.Equal(t, "all", r.URL.Query().Get("type"))
				_, _ = fmt.Fprint(w, `[{"name":"api","private":true},{"name":"web","private":false}]`)
			},
			expected: []schema.RepositoryRecord{{Name: "api", Private: true}, {Name: "web"}},
		},
		{
			name: "error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusNotFound)
				_, _ = fmt.Fprint(w, `{"message":"Not Found"}`)
			},
			expectedErr: "failed to list repositories of acme (page 2)",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			g, _ := setupTestGateway(t, tc.handler)
			repos, err := g.ListRepositories(context.Background(), "acme", 2, 50)
			if tc.expectedErr != "" {
				assert.ErrorContains(t, err, tc.expectedErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, repos)
		})
	}
}

func TestGitHubGateway_ListCommits(t *testing.T) {
	t.Run("pages and resolves authors", func(t *testing.T) {
		var serverURL string
		g, server := setupTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/repos/acme/api/commits", r.URL.Path)
			assert.Equal(t, since.Format(time.RFC3339), r.URL.Query().Get("since"))
			if r.URL.Query().Get("page") == "" {
				w.Header().Set("Link", fmt.Sprintf(`<%s/repos/acme/api/commits?page=2>; rel="next"`, serverURL))
				_, _ = fmt.Fprint(w, `[{"sha":"a1","author":{"login":"alice"},"commit":{"committer":{"date":"2026-10-02T10:00:00Z"}}}]`)
				return
			}
			_, _ = fmt.Fprint(w, `[{"sha":"b2","author":null,"commit":{"committer":{"date":"2026-10-03T10:00:00Z"}}}]`)
		}))
		serverURL = server.URL

		commits, err := g.ListCommits(context.Background(), "acme", "api", since)
		require.NoError(t, err)
		require.Len(t, commits, 2)
		assert.Equal(t, "alice", commits[0].AuthorUsername)
		assert.Equal(t, time.Date(2026, 10, 2, 10, 0, 0, 0, time.UTC), commits[0].CommittedAt.UTC())
		assert.Equal(t, "b2", commits[1].SHA)
		assert.Empty(t, commits[1].AuthorUsername)
	})

	t.Run("empty repository", func(t *testing.T) {
		g, _ := setupTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusConflict)
			_, _ = fmt.Fprint(w, `{"message":"Git Repository is empty."}`)
		}))

		commits, err := g.ListCommits(context.Background(), "acme", "api", since)
		assert.NoError(t, err)
		assert.Empty(t, commits)
	})

	t.Run("server error", func(t *testing.T) {
		g, _ := setupTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = fmt.Fprint(w, `{"message":"Internal Server Error"}`)
		}))

		_, err := g.ListCommits(context.Background(), "acme", "api", since)
		assert.ErrorContains(t, err, "failed to list commits of acme/api")
		assert.NotErrorIs(t, err, ErrEmptyRepository)
	})
}

func TestGitHubGateway_ListPullRequests(t *testing.T) {
	pages := []string{
		`{"data":{"repository":{"pullRequests":{"pageInfo":{"hasNextPage":true,"endCursor":"c1"},"nodes":[
			{"number":7,"author":{"login":"carol"},"mergedAt":"2026-10-04T00:00:00Z","updatedAt":"2026-10-05T00:00:00Z","additions":10,"deletions":5}
		]}}}}`,
		`{"data":{"repository":{"pullRequests":{"pageInfo":{"hasNextPage":true,"endCursor":"c2"},"nodes":[
			{"number":6,"author":null,"mergedAt":"2026-09-30T00:00:00Z","updatedAt":"2026-10-01T12:00:00Z","additions":1,"deletions":1},
			{"number":5,"author":{"login":"dave"},"mergedAt":"2026-09-20T00:00:00Z","updatedAt":"2026-09-21T00:00:00Z","additions":3,"deletions":0}
		]}}}}`,
	}
	requests := 0
	g, _ := setupTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), "states: MERGED")
		if requests == 1 {
			assert.Contains(t, string(body), `"cursor":"c1"`)
		}
		require.Less(t, requests, len(pages), "paging should stop before the window")
		_, _ = fmt.Fprint(w, pages[requests])
		requests++
	}))

	prs, err := g.ListPullRequests(context.Background(), "acme", "api", since)
	require.NoError(t, err)
	assert.Equal(t, 2, requests)
	require.Len(t, prs, 2)

	assert.Equal(t, 7, prs[0].Number)
	assert.Equal(t, "carol", prs[0].AuthorUsername)
	assert.Equal(t, 15, prs[0].Additions+prs[0].Deletions)
	assert.True(t, prs[0].MergedSince(since))

	// Updated in the window but merged before it; the caller filters it out
	assert.Equal(t, 6, prs[1].Number)
	assert.Empty(t, prs[1].AuthorUsername)
	assert.False(t, prs[1].MergedSince(since))
}

func TestGitHubGateway_ListPullRequestsError(t *testing.T) {
	g, _ := setupTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = fmt.Fprint(w, `{"errors":[{"message":"Could not resolve to a Repository"}]}`)
	}))

	_, err := g.ListPullRequests(context.Background(), "acme", "gone", since)
	assert.ErrorContains(t, err, "failed to query pull requests of acme/gone")
}
