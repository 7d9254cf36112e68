package ops

import (
	"context"
	"fmt"

	"github.com/agentpress/agentpress/internal/errors"
)

// BackfillInput contains parameters for a backfill pass.
type BackfillInput struct {
	BatchSize int  // 0 means DefaultBackfillBatch
	DryRun    bool // report candidates without generating anything
}

// BackfillItem records the outcome for one entry in a backfill batch.
type BackfillItem struct {
	ID     int64  `json:"id"`
	Title  string `json:"title"`
	Status string `json:"status"` // "pending", "updated", or "failed"
	Error  string `json:"error,omitempty"`
}

// BackfillOutput summarizes a backfill pass.
type BackfillOutput struct {
	DryRun    bool           `json:"dry_run"`
	Processed int            `json:"processed"`
	Updated   int            `json:"updated"`
	Failed    int            `json:"failed"`
	Remaining int            `json:"remaining"`
	Items     []BackfillItem `json:"items"`
}

// Backfill generates embeddings for entries that are missing one, a batch
// at a time. Individual failures are recorded and skipped so one bad entry
// cannot stall the rest of the batch. With DryRun set it only reports which
// entries would be processed.
func Backfill(ctx context.Context, store EntryStore, embedder Embedder, input BackfillInput) (*BackfillOutput, error) {
	batch := input.BatchSize
	if batch == 0 {
		batch = DefaultBackfillBatch
	}
	if batch < MinBackfillBatch || batch > MaxBackfillBatch {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("batch_size must be between %d and %d", MinBackfillBatch, MaxBackfillBatch))
	}

	candidates, err := store.EntriesMissingEmbedding(ctx, batch)
	if err != nil {
		return nil, err
	}

	out := &BackfillOutput{
		DryRun: input.DryRun,
		Items:  make([]BackfillItem, 0, len(candidates)),
	}

	if input.DryRun {
		for _, e := range candidates {
			out.Items = append(out.Items, BackfillItem{ID: e.ID, Title: e.Title, Status: "pending"})
		}
		out.Processed = len(candidates)
	} else {
		for _, e := range candidates {
			item := BackfillItem{ID: e.ID, Title: e.Title}

			vector, err := embedder.Embed(ctx, e.EmbeddingText())
			if err == nil {
				err = store.SetEntryEmbedding(ctx, e.ID, vector)
			}
			if err != nil {
				item.Status = "failed"
				item.Error = err.Error()
				out.Failed++
			} else {
				item.Status = "updated"
				out.Updated++
			}

			out.Items = append(out.Items, item)
			out.Processed++
		}
	}

	remaining, err := store.CountMissingEmbedding(ctx)
	if err != nil {
		return nil, err
	}
	out.Remaining = remaining

	return out, nil
}
