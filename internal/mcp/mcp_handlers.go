package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/huangsam/orgpulse/internal/contract"
	"github.com/huangsam/orgpulse/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	reader  SnapshotStore
}

// rollupResult is the payload of the rollup tools.
type rollupResult[T any] struct {
	Snapshot schema.SnapshotInfo `json:"snapshot"`
	Sort     schema.SortField    `json:"sort"`
	Order    schema.SortOrder    `json:"order"`
	Rows     []T                 `json:"rows"`
}

// detailResult is the payload of the drill-down tools.
type detailResult[T any] struct {
	Snapshot schema.SnapshotInfo `json:"snapshot"`
	Detail   T                   `json:"detail"`
}

// rollupParams are the validated rollup arguments.
type rollupParams struct {
	snapshotID int64
	field      schema.SortField
	order      schema.SortOrder
	limit      int
}

func (h *toolHandler) parseRollupParams(request mcp.CallToolRequest) (rollupParams, error) {
	p := rollupParams{
		snapshotID: int64(request.GetInt("snapshot_id", 0)),
		field:      h.baseCfg.SortField,
		order:      h.baseCfg.SortOrder,
		limit:      request.GetInt("limit", 0),
	}
	if p.field == "" {
		p.field = schema.SortByCommits
	}
	if p.order == "" {
		p.order = schema.Descending
	}
	if s := request.GetString("sort", ""); s != "" {
		p.field = schema.SortField(strings.ToLower(s))
		if _, ok := schema.ValidSortFields[p.field]; !ok {
			return p, fmt.Errorf("invalid sort field '%s'", s)
		}
	}
	if o := request.GetString("order", ""); o != "" {
		p.order = schema.SortOrder(strings.ToLower(o))
		if _, ok := schema.ValidSortOrders[p.order]; !ok {
			return p, fmt.Errorf("invalid sort order '%s'", o)
		}
	}
	if p.snapshotID < 0 {
		return p, fmt.Errorf("snapshot_id must be positive (received %d)", p.snapshotID)
	}
	if p.limit < 0 {
		return p, fmt.Errorf("limit cannot be negative (received %d)", p.limit)
	}
	return p, nil
}

// handleRollup resolves the snapshot, runs the query and orders the rows.
func handleRollup[T schema.Sortable](ctx context.Context, h *toolHandler, request mcp.CallToolRequest,
	query func(context.Context, int64) ([]T, error),
) (*mcp.CallToolResult, error) {
	p, err := h.parseRollupParams(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid rollup parameters: %v", err)), nil
	}
	info, err := h.reader.ResolveSnapshot(ctx, p.snapshotID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("snapshot lookup failed: %v", err)), nil
	}
	rows, err := query(ctx, info.ID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("rollup query failed: %v", err)), nil
	}

	schema.SortRows(rows, p.field, p.order)
	if p.limit > 0 && len(rows) > p.limit {
		rows = rows[:p.limit]
	}
	if rows == nil {
		rows = []T{}
	}
	return jsonResult(rollupResult[T]{Snapshot: info, Sort: p.field, Order: p.order, Rows: rows})
}

// handleDetail resolves the snapshot and runs one drill-down query.
func handleDetail[T any](ctx context.Context, h *toolHandler, request mcp.CallToolRequest,
	query func(context.Context, int64) (T, error),
) (*mcp.CallToolResult, error) {
	id := int64(request.GetInt("snapshot_id", 0))
	if id < 0 {
		return mcp.NewToolResultError(fmt.Sprintf("snapshot_id must be positive (received %d)", id)), nil
	}
	info, err := h.reader.ResolveSnapshot(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("snapshot lookup failed: %v", err)), nil
	}
	detail, err := query(ctx, info.ID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("detail query failed: %v", err)), nil
	}
	return jsonResult(detailResult[T]{Snapshot: info, Detail: detail})
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleListSnapshots(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snapshots, err := h.reader.ListSnapshots(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing snapshots failed: %v", err)), nil
	}
	if snapshots == nil {
		snapshots = []schema.SnapshotInfo{}
	}
	return jsonResult(snapshots)
}

func (h *toolHandler) handleGetOrgRollup(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return handleRollup(ctx, h, request, h.reader.OrgRollup)
}

func (h *toolHandler) handleGetRepoRollup(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return handleRollup(ctx, h, request, h.reader.RepoRollup)
}

func (h *toolHandler) handleGetContributorRollup(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return handleRollup(ctx, h, request, h.reader.ContributorRollup)
}

func (h *toolHandler) handleGetOrgDetail(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	org := strings.TrimSpace(request.GetString("organization", ""))
	if org == "" {
		return mcp.NewToolResultError("organization is required"), nil
	}
	return handleDetail(ctx, h, request, func(ctx context.Context, id int64) (schema.OrgDetail, error) {
		return h.reader.OrgDetail(ctx, id, org)
	})
}

func (h *toolHandler) handleGetRepoDetail(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	org, repo, err := schema.SplitRepoKey(strings.TrimSpace(request.GetString("repository", "")))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return handleDetail(ctx, h, request, func(ctx context.Context, id int64) (schema.RepoDetail, error) {
		return h.reader.RepoDetail(ctx, id, org, repo)
	})
}

func (h *toolHandler) handleGetContributorDetail(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	username := strings.TrimSpace(request.GetString("username", ""))
	if username == "" {
		return mcp.NewToolResultError("username is required"), nil
	}
	return handleDetail(ctx, h, request, func(ctx context.Context, id int64) (schema.ContributorDetail, error) {
		return h.reader.ContributorDetail(ctx, id, username)
	})
}
