package ops

import (
	"context"
	"log"

	"github.com/agentpress/agentpress/internal/entry"
)

// CreateInput contains parameters for the Create operation.
type CreateInput struct {
	Title          string
	Content        string
	Agent          string
	Summary        *string
	ProjectID      *string
	Tags           []string
	LessonsLearned *string
}

// Create stores a new entry. Embedding generation is attempted from the
// canonical text but its failure never blocks the content write: the entry
// is stored without an embedding and picked up by a later backfill.
func Create(ctx context.Context, store EntryStore, embedder Embedder, input CreateInput) (*entry.Entry, error) {
	e := &entry.Entry{
		Title:          input.Title,
		Summary:        input.Summary,
		Content:        input.Content,
		Agent:          input.Agent,
		ProjectID:      input.ProjectID,
		Tags:           input.Tags,
		LessonsLearned: input.LessonsLearned,
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}

	vector, err := embedder.Embed(ctx, e.EmbeddingText())
	if err != nil {
		log.Printf("embedding generation failed for new entry %q: %v", e.Title, err)
	} else {
		e.Embedding = vector
	}

	if err := store.InsertEntry(ctx, e); err != nil {
		return nil, err
	}

	return e, nil
}
