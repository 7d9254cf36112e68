package ops

import (
	"context"

	"github.com/agentpress/agentpress/internal/entry"
)

// ListInput contains parameters for the List operation.
type ListInput struct {
	Tag   string
	Agent string
	Page  int
	Limit int
}

// ListOutput is a page of entries plus pagination metadata.
type ListOutput struct {
	Entries    []entry.Entry `json:"entries"`
	Pagination Pagination    `json:"pagination"`
}

// List returns a filtered page of entries, newest first.
func List(ctx context.Context, store EntryStore, input ListInput) (*ListOutput, error) {
	page := input.Page
	if page < 1 {
		page = 1
	}
	limit := input.Limit
	if limit < 1 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	entries, total, err := store.ListEntries(ctx, entry.ListFilter{
		Tag:    input.Tag,
		Agent:  input.Agent,
		Limit:  limit,
		Offset: (page - 1) * limit,
	})
	if err != nil {
		return nil, err
	}

	totalPages := (total + limit - 1) / limit
	return &ListOutput{
		Entries: entries,
		Pagination: Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: totalPages,
		},
	}, nil
}
