package ops

import (
	"context"
	"log"

	"github.com/agentpress/agentpress/internal/entry"
	"github.com/agentpress/agentpress/internal/errors"
)

// UpdateInput contains parameters for the Update operation.
// Nil fields are left unchanged.
type UpdateInput struct {
	ID             int64
	Title          *string
	Summary        *string
	Content        *string
	Agent          *string
	ProjectID      *string
	Tags           *[]string
	LessonsLearned *string
}

// Update modifies an existing entry. The embedding is regenerated only when
// one of the embedded fields (title, content, summary, lessons learned)
// actually changes; if regeneration fails, the prior embedding is kept
// as-is, even though it no longer matches the content, until a backfill
// pass reconciles it.
func Update(ctx context.Context, store EntryStore, embedder Embedder, input UpdateInput) (*entry.Entry, error) {
	if input.Title == nil && input.Summary == nil && input.Content == nil &&
		input.Agent == nil && input.ProjectID == nil && input.Tags == nil && input.LessonsLearned == nil {
		return nil, errors.NewInvalidRequest("at least one field must be provided")
	}

	e, err := store.GetEntry(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	textBefore := e.EmbeddingText()

	if input.Title != nil {
		e.Title = *input.Title
	}
	if input.Summary != nil {
		e.Summary = input.Summary
	}
	if input.Content != nil {
		e.Content = *input.Content
	}
	if input.Agent != nil {
		e.Agent = *input.Agent
	}
	if input.ProjectID != nil {
		e.ProjectID = input.ProjectID
	}
	if input.Tags != nil {
		e.Tags = *input.Tags
	}
	if input.LessonsLearned != nil {
		e.LessonsLearned = input.LessonsLearned
	}

	if err := e.Validate(); err != nil {
		return nil, err
	}

	var newVector []float32
	if e.EmbeddingText() != textBefore {
		vector, err := embedder.Embed(ctx, e.EmbeddingText())
		if err != nil {
			log.Printf("embedding regeneration failed for entry %d, keeping prior embedding: %v", e.ID, err)
		} else {
			newVector = vector
		}
	}

	if err := store.UpdateEntry(ctx, e, newVector); err != nil {
		return nil, err
	}
	if newVector != nil {
		e.Embedding = newVector
	}

	return e, nil
}
