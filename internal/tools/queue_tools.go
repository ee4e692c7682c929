package tools

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/anthropics/agentctl/internal/queue"
)

// QueueAddTool handles queue_add (spec.md §4.3 "add").
type QueueAddTool struct{ store *queue.Store }

// NewQueueAddTool creates a QueueAddTool over store.
func NewQueueAddTool(store *queue.Store) *QueueAddTool { return &QueueAddTool{store: store} }

// Definition returns the MCP tool definition for queue_add.
func (t *QueueAddTool) Definition() mcp.Tool {
	return mcp.NewTool("queue_add",
		mcp.WithDescription("Add a task to the priority queue. Returns the new task record."),
		mcp.WithString("task", mcp.Required(), mcp.Description("Human-readable task description")),
		mcp.WithObject("data", mcp.Description("Opaque payload preserved verbatim with the task")),
		mcp.WithString("priority", mcp.Description("high, normal (default), or low"), mcp.Enum("high", "normal", "low")),
		mcp.WithNumber("maxRetries", mcp.Description("Max retry count before the task fails terminally (default 3)")),
		mcp.WithArray("tags", mcp.Description("Optional list of string tags")),
	)
}

// Handle processes the queue_add tool call.
func (t *QueueAddTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	task := req.GetString("task", "")
	if strings.TrimSpace(task) == "" {
		return validationResult("'task' is required")
	}

	priority := queue.Priority(req.GetString("priority", ""))
	// -1 is the "absent" sentinel: an explicit 0 must reach Add as 0,
	// since spec.md's maxRetries=0 ("fail immediately") is a distinct
	// case from "not supplied, default to 3".
	maxRetries := intArg(req, "maxRetries", -1)
	tags := stringSliceArg(req, "tags")
	data := anyArg(req, "data")

	rec, err := t.store.Add(task, data, priority, maxRetries, tags)
	if err != nil {
		return nil, err
	}
	return jsonResult(rec)
}

// QueueClaimTool handles queue_claim (spec.md §4.3 "claim").
type QueueClaimTool struct{ store *queue.Store }

func NewQueueClaimTool(store *queue.Store) *QueueClaimTool { return &QueueClaimTool{store: store} }

func (t *QueueClaimTool) Definition() mcp.Tool {
	return mcp.NewTool("queue_claim",
		mcp.WithDescription("Claim the highest-priority, oldest pending task. Returns status=empty if none are pending."),
	)
}

func (t *QueueClaimTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	task, err := t.store.Claim()
	if err == queue.ClaimEmpty {
		return jsonResult(map[string]string{"status": "empty"})
	}
	if err != nil {
		return nil, err
	}
	return jsonResult(task)
}

// QueueCompleteTool handles queue_complete (spec.md §4.3 "complete").
type QueueCompleteTool struct{ store *queue.Store }

func NewQueueCompleteTool(store *queue.Store) *QueueCompleteTool {
	return &QueueCompleteTool{store: store}
}

func (t *QueueCompleteTool) Definition() mcp.Tool {
	return mcp.NewTool("queue_complete",
		mcp.WithDescription("Mark a claimed task done, recording its result."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Task id")),
		mcp.WithObject("result", mcp.Description("Result payload to store on the task")),
	)
}

func (t *QueueCompleteTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if id == "" {
		return validationResult("'id' is required")
	}
	task, err := t.store.Complete(id, anyArg(req, "result"))
	if err == queue.NotFound {
		return jsonResult(map[string]string{"status": "not_found"})
	}
	if err != nil {
		return nil, err
	}
	return jsonResult(task)
}

// QueueFailTool handles queue_fail (spec.md §4.3 "fail").
type QueueFailTool struct{ store *queue.Store }

func NewQueueFailTool(store *queue.Store) *QueueFailTool { return &QueueFailTool{store: store} }

func (t *QueueFailTool) Definition() mcp.Tool {
	return mcp.NewTool("queue_fail",
		mcp.WithDescription("Record a claimed task's failure. Retries if under maxRetries, otherwise terminally fails it."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Task id")),
		mcp.WithString("error", mcp.Required(), mcp.Description("Failure message")),
	)
}

func (t *QueueFailTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if id == "" {
		return validationResult("'id' is required")
	}
	errMsg := req.GetString("error", "")
	if errMsg == "" {
		return validationResult("'error' is required")
	}

	result, err := t.store.Fail(id, errMsg)
	if err == queue.NotFound {
		return jsonResult(map[string]string{"status": "not_found"})
	}
	if err != nil {
		return nil, err
	}
	return jsonResult(map[string]any{
		"status":  string(result.Status),
		"retries": result.Retries,
		"task":    result.Task,
	})
}

// QueueRetryTool handles queue_retry (spec.md §4.3's failed->pending transition).
type QueueRetryTool struct{ store *queue.Store }

func NewQueueRetryTool(store *queue.Store) *QueueRetryTool { return &QueueRetryTool{store: store} }

func (t *QueueRetryTool) Definition() mcp.Tool {
	return mcp.NewTool("queue_retry",
		mcp.WithDescription("Move a failed task back to pending without resetting its retry counter."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Task id")),
	)
}

func (t *QueueRetryTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if id == "" {
		return validationResult("'id' is required")
	}
	task, err := t.store.Retry(id)
	if err == queue.NotFound {
		return jsonResult(map[string]string{"status": "not_found"})
	}
	if err != nil {
		return nil, err
	}
	return jsonResult(task)
}

// QueuePendingTool handles queue_pending, a read-only introspection
// tool over the pending set in claim order (SPEC_FULL.md; grounded on
// the teacher's sdd_change_status pattern of a status tool alongside
// the mutators).
type QueuePendingTool struct{ store *queue.Store }

func NewQueuePendingTool(store *queue.Store) *QueuePendingTool {
	return &QueuePendingTool{store: store}
}

func (t *QueuePendingTool) Definition() mcp.Tool {
	return mcp.NewTool("queue_pending",
		mcp.WithDescription("List pending tasks in claim order (priority rank, then createdAt)."),
	)
}

func (t *QueuePendingTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(t.store.Pending())
}

// QueueStatsTool handles queue_stats (spec.md §4.3 "stats";
// SUPPLEMENTED FEATURES: exposed as its own tool).
type QueueStatsTool struct{ store *queue.Store }

func NewQueueStatsTool(store *queue.Store) *QueueStatsTool { return &QueueStatsTool{store: store} }

func (t *QueueStatsTool) Definition() mcp.Tool {
	return mcp.NewTool("queue_stats",
		mcp.WithDescription("Return total and per-status task counts."),
	)
}

func (t *QueueStatsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(t.store.Stats())
}

// QueueClearTool handles queue_clear (spec.md §4.3 "clear";
// SUPPLEMENTED FEATURES: exposed as its own tool).
type QueueClearTool struct{ store *queue.Store }

func NewQueueClearTool(store *queue.Store) *QueueClearTool { return &QueueClearTool{store: store} }

func (t *QueueClearTool) Definition() mcp.Tool {
	return mcp.NewTool("queue_clear",
		mcp.WithDescription("Delete done/failed tasks older than olderThanHours (default 24). Pending/claimed tasks are always kept."),
		mcp.WithNumber("olderThanHours", mcp.Description("Cutoff in hours (default 24)")),
	)
}

func (t *QueueClearTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	removed, err := t.store.Clear(floatArg(req, "olderThanHours", 0))
	if err != nil {
		return nil, err
	}
	return jsonResult(map[string]int{"removed": removed})
}
