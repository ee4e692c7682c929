package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/anthropics/agentctl/internal/knowledge"
)

// KnowledgeSetTool handles knowledge_set (spec.md §4.2 "set").
type KnowledgeSetTool struct{ store *knowledge.Store }

func NewKnowledgeSetTool(store *knowledge.Store) *KnowledgeSetTool {
	return &KnowledgeSetTool{store: store}
}

func (t *KnowledgeSetTool) Definition() mcp.Tool {
	return mcp.NewTool("knowledge_set",
		mcp.WithDescription("Upsert a (category, key) entry. Preserves createdAt on update, always advances updatedAt."),
		mcp.WithString("category", mcp.Required(), mcp.Description("Category name")),
		mcp.WithString("key", mcp.Required(), mcp.Description("Key within the category")),
		mcp.WithObject("data", mcp.Required(), mcp.Description("Arbitrary JSON payload; required and non-null")),
		mcp.WithArray("tags", mcp.Description("Optional list of string tags")),
	)
}

func (t *KnowledgeSetTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	category := req.GetString("category", "")
	key := req.GetString("key", "")
	if category == "" || key == "" {
		return validationResult("'category' and 'key' are required")
	}
	data := anyArg(req, "data")
	if data == nil {
		return validationResult("'data' is required")
	}

	result, err := t.store.Set(category, key, data, stringSliceArg(req, "tags"))
	if err != nil {
		return nil, err
	}
	return jsonResult(map[string]string{"status": string(result)})
}

// KnowledgeGetTool handles knowledge_get (spec.md §4.2 "get").
type KnowledgeGetTool struct{ store *knowledge.Store }

func NewKnowledgeGetTool(store *knowledge.Store) *KnowledgeGetTool {
	return &KnowledgeGetTool{store: store}
}

func (t *KnowledgeGetTool) Definition() mcp.Tool {
	return mcp.NewTool("knowledge_get",
		mcp.WithDescription("Fetch the entry at (category, key)."),
		mcp.WithString("category", mcp.Required(), mcp.Description("Category name")),
		mcp.WithString("key", mcp.Required(), mcp.Description("Key within the category")),
	)
}

func (t *KnowledgeGetTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	category := req.GetString("category", "")
	key := req.GetString("key", "")
	if category == "" || key == "" {
		return validationResult("'category' and 'key' are required")
	}

	entry, ok := t.store.Get(category, key)
	if !ok {
		return jsonResult(map[string]string{"status": "not_found"})
	}
	return jsonResult(entry)
}

// KnowledgeDeleteTool handles knowledge_delete (spec.md §4.2 "delete").
type KnowledgeDeleteTool struct{ store *knowledge.Store }

func NewKnowledgeDeleteTool(store *knowledge.Store) *KnowledgeDeleteTool {
	return &KnowledgeDeleteTool{store: store}
}

func (t *KnowledgeDeleteTool) Definition() mcp.Tool {
	return mcp.NewTool("knowledge_delete",
		mcp.WithDescription("Delete the entry at (category, key), dropping the category once it becomes empty."),
		mcp.WithString("category", mcp.Required(), mcp.Description("Category name")),
		mcp.WithString("key", mcp.Required(), mcp.Description("Key within the category")),
	)
}

func (t *KnowledgeDeleteTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	category := req.GetString("category", "")
	key := req.GetString("key", "")
	if category == "" || key == "" {
		return validationResult("'category' and 'key' are required")
	}

	result, err := t.store.Delete(category, key)
	if err != nil {
		return nil, err
	}
	return jsonResult(map[string]string{"status": string(result)})
}

// KnowledgeListTool handles knowledge_list (spec.md §4.2 "list").
type KnowledgeListTool struct{ store *knowledge.Store }

func NewKnowledgeListTool(store *knowledge.Store) *KnowledgeListTool {
	return &KnowledgeListTool{store: store}
}

func (t *KnowledgeListTool) Definition() mcp.Tool {
	return mcp.NewTool("knowledge_list",
		mcp.WithDescription("List up to 'limit' keys in a category, in insertion order, with their updatedAt."),
		mcp.WithString("category", mcp.Required(), mcp.Description("Category name")),
		mcp.WithNumber("limit", mcp.Description("Max keys to return (default 50)")),
	)
}

func (t *KnowledgeListTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	category := req.GetString("category", "")
	if category == "" {
		return validationResult("'category' is required")
	}
	return jsonResult(map[string]any{"items": t.store.List(category, intArg(req, "limit", 0))})
}

// KnowledgeQueryTool handles knowledge_query (spec.md §4.2 "query").
type KnowledgeQueryTool struct{ store *knowledge.Store }

func NewKnowledgeQueryTool(store *knowledge.Store) *KnowledgeQueryTool {
	return &KnowledgeQueryTool{store: store}
}

func (t *KnowledgeQueryTool) Definition() mcp.Tool {
	return mcp.NewTool("knowledge_query",
		mcp.WithDescription(
			"Return entries in a category whose object-shaped data satisfies every (field, value) "+
				"pair in 'filter': string values match as a case-insensitive substring, other values "+
				"match by strict equality.",
		),
		mcp.WithString("category", mcp.Required(), mcp.Description("Category name")),
		mcp.WithObject("filter", mcp.Required(), mcp.Description("Field -> expected value")),
		mcp.WithNumber("limit", mcp.Description("Max matches to return (default 50)")),
	)
}

func (t *KnowledgeQueryTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	category := req.GetString("category", "")
	if category == "" {
		return validationResult("'category' is required")
	}
	filter := objectArg(req, "filter")
	if filter == nil {
		return validationResult("'filter' is required")
	}
	return jsonResult(map[string]any{
		"results": t.store.Query(category, filter, intArg(req, "limit", 0)),
	})
}

// KnowledgeCategoriesTool handles knowledge_categories (spec.md §4.2
// "categories").
type KnowledgeCategoriesTool struct{ store *knowledge.Store }

func NewKnowledgeCategoriesTool(store *knowledge.Store) *KnowledgeCategoriesTool {
	return &KnowledgeCategoriesTool{store: store}
}

func (t *KnowledgeCategoriesTool) Definition() mcp.Tool {
	return mcp.NewTool("knowledge_categories",
		mcp.WithDescription("List every category name with its entry count."),
	)
}

func (t *KnowledgeCategoriesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(map[string]any{"categories": t.store.Categories()})
}
