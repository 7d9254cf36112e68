package ops

import (
	"context"

	"github.com/agentpress/agentpress/internal/entry"
)

// Fetch returns a single entry by id.
func Fetch(ctx context.Context, store EntryStore, id int64) (*entry.Entry, error) {
	return store.GetEntry(ctx, id)
}
