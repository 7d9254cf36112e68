package ops

import (
	"context"
	"strings"

	"github.com/agentpress/agentpress/internal/entry"
	"github.com/agentpress/agentpress/internal/errors"
)

// SearchText runs a case-insensitive substring search over titles,
// summaries, and lessons learned.
func SearchText(ctx context.Context, store EntryStore, query string, limit int) ([]entry.Entry, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errors.NewInvalidRequest("query is required")
	}
	if limit < 1 || limit > DefaultTextSearchLimit {
		limit = DefaultTextSearchLimit
	}
	return store.SearchEntriesText(ctx, query, limit)
}
