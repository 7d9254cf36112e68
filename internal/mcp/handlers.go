package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/agentpress/agentpress/internal/errors"
	"github.com/agentpress/agentpress/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	entries  ops.EntryStore
	embedder ops.Embedder
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(entries ops.EntryStore, embedder ops.Embedder) *Handlers {
	return &Handlers{entries: entries, embedder: embedder}
}

// Tool definitions

var storeToolDef = mcp.NewTool("memory_store",
	mcp.WithDescription("Store a memory entry: a titled markdown write-up of something learned, with optional summary, tags, and lessons learned."),
	mcp.WithString("title", mcp.Required(), mcp.Description("Short title for the entry")),
	mcp.WithString("content", mcp.Required(), mcp.Description("Markdown body of the entry")),
	mcp.WithString("agent", mcp.Required(), mcp.Description("Name of the agent storing the entry")),
	mcp.WithString("summary", mcp.Description("Optional one-paragraph summary")),
	mcp.WithString("project_id", mcp.Description("Optional project identifier")),
	mcp.WithArray("tags", mcp.Description("Optional tags"), mcp.Items(map[string]any{"type": "string"})),
	mcp.WithString("lessons_learned", mcp.Description("Optional lessons-learned notes")),
)

var getToolDef = mcp.NewTool("memory_get",
	mcp.WithDescription("Fetch a single memory entry by id."),
	mcp.WithNumber("id", mcp.Required(), mcp.Description("Entry id")),
)

var listToolDef = mcp.NewTool("memory_list",
	mcp.WithDescription("List memory entries, newest first, optionally filtered by tag or agent."),
	mcp.WithString("tag", mcp.Description("Only entries carrying this tag")),
	mcp.WithString("agent", mcp.Description("Only entries stored by this agent")),
	mcp.WithNumber("page", mcp.Description("Page number, starting at 1")),
	mcp.WithNumber("limit", mcp.Description("Page size, max 100")),
)

var searchToolDef = mcp.NewTool("memory_search",
	mcp.WithDescription("Case-insensitive substring search over titles, summaries, and lessons learned."),
	mcp.WithString("query", mcp.Required(), mcp.Description("Substring to search for")),
	mcp.WithNumber("limit", mcp.Description("Maximum results")),
)

var semanticSearchToolDef = mcp.NewTool("memory_semantic_search",
	mcp.WithDescription("Rank memory entries by semantic similarity to a natural-language query."),
	mcp.WithString("query", mcp.Required(), mcp.Description("Natural-language query")),
	mcp.WithString("agent", mcp.Description("Only entries stored by this agent")),
	mcp.WithString("project_id", mcp.Description("Only entries for this project")),
	mcp.WithArray("tags", mcp.Description("Only entries carrying at least one of these tags"), mcp.Items(map[string]any{"type": "string"})),
	mcp.WithNumber("limit", mcp.Description("Maximum results, max 20")),
	mcp.WithNumber("min_similarity", mcp.Description("Similarity floor between 0 and 1")),
)

// Request types for each tool

// StoreRequest represents the arguments for memory_store.
type StoreRequest struct {
	Title          string   `json:"title"`
	Content        string   `json:"content"`
	Agent          string   `json:"agent"`
	Summary        *string  `json:"summary,omitempty"`
	ProjectID      *string  `json:"project_id,omitempty"`
	Tags           []string `json:"tags,omitempty"`
	LessonsLearned *string  `json:"lessons_learned,omitempty"`
}

// GetRequest represents the arguments for memory_get.
type GetRequest struct {
	ID int64 `json:"id"`
}

// ListRequest represents the arguments for memory_list.
type ListRequest struct {
	Tag   string `json:"tag,omitempty"`
	Agent string `json:"agent,omitempty"`
	Page  int    `json:"page,omitempty"`
	Limit int    `json:"limit,omitempty"`
}

// SearchRequest represents the arguments for memory_search.
type SearchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

// SemanticSearchRequest represents the arguments for memory_semantic_search.
type SemanticSearchRequest struct {
	Query         string   `json:"query"`
	Agent         *string  `json:"agent,omitempty"`
	ProjectID     *string  `json:"project_id,omitempty"`
	Tags          []string `json:"tags,omitempty"`
	Limit         int      `json:"limit,omitempty"`
	MinSimilarity *float64 `json:"min_similarity,omitempty"`
}

// Handler implementations

// HandleStore handles the memory_store tool call.
func (h *Handlers) HandleStore(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[StoreRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	e, err := ops.Create(ctx, h.entries, h.embedder, ops.CreateInput{
		Title:          input.Title,
		Content:        input.Content,
		Agent:          input.Agent,
		Summary:        input.Summary,
		ProjectID:      input.ProjectID,
		Tags:           input.Tags,
		LessonsLearned: input.LessonsLearned,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(map[string]any{
		"post":          e,
		"has_embedding": e.HasEmbedding(),
	})
}

// HandleGet handles the memory_get tool call.
func (h *Handlers) HandleGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[GetRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	e, err := ops.Fetch(ctx, h.entries, input.ID)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(map[string]any{"post": e})
}

// HandleList handles the memory_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	out, err := ops.List(ctx, h.entries, ops.ListInput{
		Tag:   input.Tag,
		Agent: input.Agent,
		Page:  input.Page,
		Limit: input.Limit,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(out)
}

// HandleSearch handles the memory_search tool call.
func (h *Handlers) HandleSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SearchRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	results, err := ops.SearchText(ctx, h.entries, input.Query, input.Limit)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(map[string]any{
		"results": results,
		"total":   len(results),
		"query":   input.Query,
	})
}

// HandleSemanticSearch handles the memory_semantic_search tool call.
func (h *Handlers) HandleSemanticSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SemanticSearchRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	out, err := ops.SemanticSearch(ctx, h.entries, h.embedder, ops.SemanticSearchInput{
		Query:         input.Query,
		Agent:         input.Agent,
		ProjectID:     input.ProjectID,
		Tags:          input.Tags,
		Limit:         input.Limit,
		MinSimilarity: input.MinSimilarity,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(out)
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Note: Internal error details are not exposed to prevent leaking sensitive info.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if aErr, ok := err.(*errors.Error); ok {
		errorObj := map[string]any{
			"code":    aErr.Code,
			"message": aErr.Message,
			"status":  aErr.Status,
		}
		if aErr.Code != errors.ErrInternal && aErr.Details != nil {
			errorObj["details"] = aErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
