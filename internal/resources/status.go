// Package resources implements the read-only MCP resource that
// summarizes core state for a host to consume without invoking a tool
// (SPEC_FULL.md "Supplemented Features"; grounded on the teacher's
// internal/resources package, in particular its sdd://project/status
// resource pattern).
package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/anthropics/agentctl/internal/board"
	"github.com/anthropics/agentctl/internal/queue"
	"github.com/anthropics/agentctl/internal/workflow"
)

// Handler serves the aggregate status resource.
type Handler struct {
	queue         *queue.Store
	boards        *board.Board
	workspaceRoot string
}

// NewHandler creates a status Handler over the given components.
func NewHandler(q *queue.Store, boards *board.Board, workspaceRoot string) *Handler {
	return &Handler{queue: q, boards: boards, workspaceRoot: workspaceRoot}
}

// statusView is the JSON shape served at orchestrator://status.
type statusView struct {
	Queue     queue.Stats           `json:"queue"`
	Boards    []string              `json:"boards"`
	Workflows []workflow.Checkpoint `json:"inFlightWorkflows"`
}

// StatusResource returns the MCP resource definition.
func (h *Handler) StatusResource() mcp.Resource {
	return mcp.NewResource(
		"orchestrator://status",
		"Orchestrator Status",
		mcp.WithResourceDescription("Queue stats, known boards, and in-flight workflow checkpoints"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleStatus returns the current aggregate status as JSON.
func (h *Handler) HandleStatus(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	view := statusView{
		Queue:     h.queue.Stats(),
		Boards:    h.boards.List(),
		Workflows: workflow.ListCheckpoints(h.workspaceRoot),
	}

	data, err := json.MarshalIndent(view, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling status: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
