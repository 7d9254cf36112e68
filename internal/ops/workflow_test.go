package ops

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/agentpress/agentpress/internal/errors"
)

// TestFullWorkflow exercises the complete entry lifecycle:
// create → fetch → update → semantic search → list → delete → fetch (not found)
func TestFullWorkflow(t *testing.T) {
	store := newFakeStore()
	embedder := &fakeEmbedder{}
	ctx := context.Background()

	// 1. Create
	created, err := Create(ctx, store, embedder, CreateInput{
		Title:   "Lifecycle test",
		Content: "Initial content about connection pools.",
		Agent:   "claude-dev",
		Tags:    []string{"workflow"},
	})
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	require.True(t, created.HasEmbedding())
	id := created.ID

	// 2. Fetch
	fetched, err := Fetch(ctx, store, id)
	require.NoError(t, err)
	require.Equal(t, "Lifecycle test", fetched.Title)

	// 3. Update content; the embedding regenerates
	callsBefore := embedder.calls
	newContent := "Revised content about pool exhaustion."
	updated, err := Update(ctx, store, embedder, UpdateInput{ID: id, Content: &newContent})
	require.NoError(t, err)
	require.Equal(t, newContent, updated.Content)
	require.Equal(t, callsBefore+1, embedder.calls)

	// 4. Semantic search finds the embedded entry
	searchOut, err := SemanticSearch(ctx, store, embedder, SemanticSearchInput{Query: "pool exhaustion"})
	require.NoError(t, err)
	require.Equal(t, 1, searchOut.Total)
	require.Equal(t, id, searchOut.Results[0].ID)
	require.GreaterOrEqual(t, searchOut.TotalTimeMS, searchOut.SearchTimeMS)

	// 5. List
	listOut, err := List(ctx, store, ListInput{})
	require.NoError(t, err)
	require.Len(t, listOut.Entries, 1)
	require.Equal(t, 1, listOut.Pagination.Total)

	// 6. Delete
	require.NoError(t, Delete(ctx, store, id))

	// 7. Fetch after delete
	_, err = Fetch(ctx, store, id)
	require.True(t, errors.Is(err, errors.ErrNotFound))
}
