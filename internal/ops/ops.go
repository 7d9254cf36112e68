// Package ops implements the application operations over the entry store
// and the embedding client. Each operation validates its input, talks to
// the stores through small interfaces, and returns a typed output.
package ops

import (
	"context"

	"github.com/agentpress/agentpress/internal/entry"
)

// Operation limits
const (
	DefaultListLimit = 20
	MaxListLimit     = 100

	DefaultTextSearchLimit = 50

	DefaultSimilarityLimit = 10
	MaxSimilarityLimit     = 20
	DefaultMinSimilarity   = 0.7

	DefaultBackfillBatch = 10
	MinBackfillBatch     = 1
	MaxBackfillBatch     = 50
)

// EntryStore is the persistence surface the entry operations need.
// *db.Store satisfies it.
type EntryStore interface {
	InsertEntry(ctx context.Context, e *entry.Entry) error
	GetEntry(ctx context.Context, id int64) (*entry.Entry, error)
	UpdateEntry(ctx context.Context, e *entry.Entry, newVector []float32) error
	DeleteEntry(ctx context.Context, id int64) error
	ListEntries(ctx context.Context, f entry.ListFilter) ([]entry.Entry, int, error)
	SearchEntriesText(ctx context.Context, query string, limit int) ([]entry.Entry, error)
	SearchEntriesSimilarity(ctx context.Context, q entry.SimilarityQuery) ([]entry.SimilarityMatch, error)
	EntriesMissingEmbedding(ctx context.Context, limit int) ([]entry.Entry, error)
	CountMissingEmbedding(ctx context.Context) (int, error)
	SetEntryEmbedding(ctx context.Context, id int64, vector []float32) error
}

// Embedder turns text into a fixed-length vector. *embeddings.Client
// satisfies it.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Pagination contains pagination metadata for list operations.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}
