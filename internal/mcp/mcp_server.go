// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/orgpulse/internal/contract"
	"github.com/huangsam/orgpulse/schema"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// SnapshotStore is the read side of the snapshot store the tools query.
type SnapshotStore interface {
	contract.SnapshotReader
	ResolveSnapshot(ctx context.Context, id int64) (schema.SnapshotInfo, error)
}

var sortFields = []string{"name", "commits", "lines", "repos", "prs"}

// NewMCPServer initializes and configures the orgpulse MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, reader SnapshotStore) *server.MCPServer {
	s := server.NewMCPServer(
		"orgpulse Activity Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		reader:  reader,
	}

	s.AddTool(mcp.NewTool("list_snapshots",
		mcp.WithDescription("List collected activity snapshots, newest first."),
	), h.handleListSnapshots)

	// Rollups share the snapshot, sort, order and limit parameters.
	rollupOptions := func(description string) []mcp.ToolOption {
		return []mcp.ToolOption{
			mcp.WithDescription(description),
			mcp.WithNumber("snapshot_id", mcp.Description("Snapshot to query. Defaults to the latest snapshot.")),
			mcp.WithString("sort", mcp.Description("Field to order rows by. Defaults to 'commits'."), mcp.Enum(sortFields...)),
			mcp.WithString("order", mcp.Description("Sort direction. Defaults to 'desc'."), mcp.Enum("asc", "desc")),
			mcp.WithNumber("limit", mcp.Description("Limit the number of rows returned.")),
		}
	}
	s.AddTool(mcp.NewTool("get_org_rollup",
		rollupOptions("Commit, line, pull request and contributor totals per organization.")...,
	), h.handleGetOrgRollup)
	s.AddTool(mcp.NewTool("get_repo_rollup",
		rollupOptions("Commit, line, pull request and contributor totals per repository.")...,
	), h.handleGetRepoRollup)
	s.AddTool(mcp.NewTool("get_contributor_rollup",
		rollupOptions("Commit and line totals per contributor across every tracked repository.")...,
	), h.handleGetContributorRollup)

	s.AddTool(mcp.NewTool("get_org_detail",
		mcp.WithDescription("Repositories of one organization within a snapshot."),
		mcp.WithString("organization", mcp.Description("Organization login."), mcp.Required()),
		mcp.WithNumber("snapshot_id", mcp.Description("Snapshot to query. Defaults to the latest snapshot.")),
	), h.handleGetOrgDetail)
	s.AddTool(mcp.NewTool("get_repo_detail",
		mcp.WithDescription("Contributors of one repository within a snapshot."),
		mcp.WithString("repository", mcp.Description("Repository in org/repo form."), mcp.Required()),
		mcp.WithNumber("snapshot_id", mcp.Description("Snapshot to query. Defaults to the latest snapshot.")),
	), h.handleGetRepoDetail)
	s.AddTool(mcp.NewTool("get_contributor_detail",
		mcp.WithDescription("Repositories one contributor touched within a snapshot."),
		mcp.WithString("username", mcp.Description("Contributor login."), mcp.Required()),
		mcp.WithNumber("snapshot_id", mcp.Description("Snapshot to query. Defaults to the latest snapshot.")),
	), h.handleGetContributorDetail)

	return s
}

// StartMCPServer serves the orgpulse tools over stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, reader SnapshotStore) error {
	s := NewMCPServer(baseCfg, reader)
	return server.ServeStdio(s)
}
