package tools

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/anthropics/agentctl/internal/board"
)

// BoardPostTool handles board_post (spec.md §4.4 "post").
type BoardPostTool struct{ boards *board.Board }

func NewBoardPostTool(boards *board.Board) *BoardPostTool { return &BoardPostTool{boards: boards} }

func (t *BoardPostTool) Definition() mcp.Tool {
	return mcp.NewTool("board_post",
		mcp.WithDescription("Post a message to a named agent coordination board."),
		mcp.WithString("board", mcp.Required(), mcp.Description("Board name; sanitized to [A-Za-z0-9_-] for the log filename")),
		mcp.WithString("message", mcp.Required(), mcp.Description("Message body")),
		mcp.WithString("from", mcp.Description("Sender identity (default \"anonymous\")")),
		mcp.WithArray("tags", mcp.Description("Optional list of string tags")),
	)
}

func (t *BoardPostTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	boardName := req.GetString("board", "")
	if boardName == "" {
		return validationResult("'board' is required")
	}
	message := req.GetString("message", "")
	if strings.TrimSpace(message) == "" {
		return validationResult("'message' is required")
	}

	res, err := t.boards.Post(boardName, message, req.GetString("from", ""), stringSliceArg(req, "tags"))
	if err != nil {
		return nil, err
	}
	return jsonResult(res)
}

// BoardReadTool handles board_read (spec.md §4.4 "read").
type BoardReadTool struct{ boards *board.Board }

func NewBoardReadTool(boards *board.Board) *BoardReadTool { return &BoardReadTool{boards: boards} }

func (t *BoardReadTool) Definition() mcp.Tool {
	return mcp.NewTool("board_read",
		mcp.WithDescription(
			"Read a tail of a board's messages. Without 'since', returns the last 'limit' "+
				"messages in chronological order. 'since' as an ISO-8601 timestamp returns only "+
				"messages after it; since=\"last_read\" returns everything.",
		),
		mcp.WithString("board", mcp.Required(), mcp.Description("Board name")),
		mcp.WithString("since", mcp.Description("ISO-8601 timestamp, or \"last_read\"")),
		mcp.WithNumber("limit", mcp.Description("Max messages to return (default 50)")),
	)
}

func (t *BoardReadTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	boardName := req.GetString("board", "")
	if boardName == "" {
		return validationResult("'board' is required")
	}
	messages := t.boards.Read(boardName, req.GetString("since", ""), intArg(req, "limit", 0))
	return jsonResult(map[string]any{"messages": messages})
}

// BoardListTool handles board_list (spec.md §4.4 "list").
type BoardListTool struct{ boards *board.Board }

func NewBoardListTool(boards *board.Board) *BoardListTool { return &BoardListTool{boards: boards} }

func (t *BoardListTool) Definition() mcp.Tool {
	return mcp.NewTool("board_list", mcp.WithDescription("List known board names."))
}

func (t *BoardListTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(map[string]any{"boards": t.boards.List()})
}

// BoardClearTool handles board_clear (spec.md §4.4 "clear").
type BoardClearTool struct{ boards *board.Board }

func NewBoardClearTool(boards *board.Board) *BoardClearTool { return &BoardClearTool{boards: boards} }

func (t *BoardClearTool) Definition() mcp.Tool {
	return mcp.NewTool("board_clear",
		mcp.WithDescription("Delete a board's log file. Absence is not an error."),
		mcp.WithString("board", mcp.Required(), mcp.Description("Board name")),
	)
}

func (t *BoardClearTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	boardName := req.GetString("board", "")
	if boardName == "" {
		return validationResult("'board' is required")
	}
	if err := t.boards.Clear(boardName); err != nil {
		return nil, err
	}
	return jsonResult(map[string]string{"status": "cleared"})
}
