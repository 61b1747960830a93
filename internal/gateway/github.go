// Package gateway provides the GitHub activity source, abstracting away
// the underlying REST and GraphQL clients.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"
	"github.com/google/go-github/v62/github"
	"github.com/huangsam/orgpulse/internal/contract"
	"github.com/huangsam/orgpulse/schema"
	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"
)

// Sentinel errors.
var (
	// ErrMissingToken is returned when no GitHub token is configured.
	ErrMissingToken = errors.New("a GitHub token is required; set github-token or GITHUB_TOKEN, or store one with 'orgpulse init'")

	// ErrEmptyRepository marks a repository without any commits (HTTP 409).
	ErrEmptyRepository = errors.New("repository is empty")
)

const (
	commitsPageSize      = 100
	membershipsPageSize  = 100
	pullRequestsPageSize = 100
)

// GitHubGateway is the GitHub implementation of contract.ActivitySource.
type GitHubGateway struct {
	restClient    *github.Client
	graphqlClient *githubv4.Client
	logger        *slog.Logger
}

var _ contract.ActivitySource = &GitHubGateway{} // Compile-time check

// mergedPullRequestsQuery lists merged pull requests with their diff stats,
// most recently updated first.
type mergedPullRequestsQuery struct {
	Repository struct {
		PullRequests struct {
			PageInfo struct {
				HasNextPage bool
				EndCursor   githubv4.String
			}
			Nodes []struct {
				Number int
				Author struct {
					Login string
				}
				MergedAt  *githubv4.DateTime
				UpdatedAt githubv4.DateTime
				Additions int
				Deletions int
			}
		} `graphql:"pullRequests(states: MERGED, first: 100, after: $cursor, orderBy: {field: UPDATED_AT, direction: DESC})"`
	} `graphql:"repository(owner: $owner, name: $name)"`
}

// NewGitHubGateway creates a gateway authenticated with token. Both clients share
// one transport that waits out secondary rate limits for up to an hour.
func NewGitHubGateway(token string, logger *slog.Logger) (*GitHubGateway, error) {
	if token == "" {
		return nil, ErrMissingToken
	}
	if logger == nil {
		logger = slog.Default()
	}
	rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(nil, github_ratelimit.WithSingleSleepLimit(time.Hour, nil))
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := &http.Client{
		Transport: &oauth2.Transport{
			Base:   rateLimitWaiter,
			Source: ts,
		},
	}
	return &GitHubGateway{
		restClient:    github.NewClient(httpClient),
		graphqlClient: githubv4.NewClient(httpClient),
		logger:        logger,
	}, nil
}

// ListMemberOrganizations returns the organizations with an active membership for the token's user.
func (g *GitHubGateway) ListMemberOrganizations(ctx context.Context) ([]string, error) {
	opts := &github.ListOrgMembershipsOptions{
		State:       "active",
		ListOptions: github.ListOptions{PerPage: membershipsPageSize},
	}
	var orgs []string
	for {
		memberships, resp, err := g.restClient.Organizations.ListOrgMemberships(ctx, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list organization memberships: %w", err)
		}
		for _, m := range memberships {
			if login := m.GetOrganization().GetLogin(); login != "" {
				orgs = append(orgs, login)
			}
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	g.logger.Debug("listed member organizations", "count", len(orgs))
	return orgs, nil
}

// ListRepositories returns one page of an organization's repositories, public and private.
// Pages are numbered from 1.
func (g *GitHubGateway) ListRepositories(ctx context.Context, org string, page, pageSize int) ([]schema.RepositoryRecord, error) {
	opts := &github.RepositoryListByOrgOptions{
		Type:        "all",
		Sort:        "full_name",
		ListOptions: github.ListOptions{Page: page, PerPage: pageSize},
	}
	repos, _, err := g.restClient.Repositories.ListByOrg(ctx, org, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list repositories of %s (page %d): %w", org, page, err)
	}
	out := make([]schema.RepositoryRecord, 0, len(repos))
	for _, r := range repos {
		out = append(out, schema.RepositoryRecord{Name: r.GetName(), Private: r.GetPrivate()})
	}
	g.logger.Debug("listed repositories", "org", org, "page", page, "count", len(out))
	return out, nil
}

// ListCommits returns the commits on the default branch since the given time.
// An empty repository yields no commits and no error.
func (g *GitHubGateway) ListCommits(ctx context.Context, org, repo string, since time.Time) ([]schema.CommitRecord, error) {
	opts := &github.CommitsListOptions{
		Since:       since,
		ListOptions: github.ListOptions{PerPage: commitsPageSize},
	}
	var out []schema.CommitRecord
	for {
		commits, resp, err := g.restClient.Repositories.ListCommits(ctx, org, repo, opts)
		if err != nil {
			err = classify(err)
			if errors.Is(err, ErrEmptyRepository) {
				g.logger.Debug("repository is empty", "repo", schema.RepoKey(org, repo))
				return nil, nil
			}
			return nil, fmt.Errorf("failed to list commits of %s: %w", schema.RepoKey(org, repo), err)
		}
		for _, c := range commits {
			out = append(out, schema.CommitRecord{
				SHA:            c.GetSHA(),
				AuthorUsername: c.GetAuthor().GetLogin(),
				CommittedAt:    c.GetCommit().GetCommitter().GetDate().Time,
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return out, nil
}

// ListPullRequests returns merged pull requests updated since the given time.
// Paging stops at the first pull request last updated before since, because a
// pull request merged in the window was updated no earlier than its merge.
func (g *GitHubGateway) ListPullRequests(ctx context.Context, org, repo string, since time.Time) ([]schema.PullRequestRecord, error) {
	variables := map[string]any{
		"owner":  githubv4.String(org),
		"name":   githubv4.String(repo),
		"cursor": (*githubv4.String)(nil),
	}
	var out []schema.PullRequestRecord
	for {
		var q mergedPullRequestsQuery
		if err := g.graphqlClient.Query(ctx, &q, variables); err != nil {
			return nil, fmt.Errorf("failed to query pull requests of %s: %w", schema.RepoKey(org, repo), err)
		}
		prs := q.Repository.PullRequests
		for _, node := range prs.Nodes {
			if node.UpdatedAt.Before(since) {
				return out, nil
			}
			record := schema.PullRequestRecord{
				Number:         node.Number,
				AuthorUsername: node.Author.Login,
				Additions:      node.Additions,
				Deletions:      node.Deletions,
			}
			if node.MergedAt != nil {
				mergedAt := node.MergedAt.Time
				record.MergedAt = &mergedAt
			}
			out = append(out, record)
		}
		if !prs.PageInfo.HasNextPage {
			break
		}
		variables["cursor"] = githubv4.NewString(prs.PageInfo.EndCursor)
	}
	return out, nil
}

// classify maps GitHub error responses onto sentinel errors.
func classify(err error) error {
	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil && ghErr.Response.StatusCode == http.StatusConflict {
		return fmt.Errorf("%w: %s", ErrEmptyRepository, ghErr.Message)
	}
	return err
}
