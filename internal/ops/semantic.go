package ops

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/agentpress/agentpress/internal/entry"
	"github.com/agentpress/agentpress/internal/errors"
)

// SemanticSearchInput contains parameters for a semantic search.
type SemanticSearchInput struct {
	Query         string
	Agent         *string
	ProjectID     *string
	Tags          []string
	Limit         int      // 0 means DefaultSimilarityLimit
	MinSimilarity *float64 // nil means DefaultMinSimilarity
}

// SemanticResult is one scored match.
type SemanticResult struct {
	entry.Entry
	SimilarityScore float64 `json:"similarity_score"`
}

// SemanticSearchOutput is the scored result set with a timing breakdown.
type SemanticSearchOutput struct {
	Results              []SemanticResult `json:"results"`
	Total                int              `json:"total"`
	Query                string           `json:"query"`
	QueryEmbeddingTimeMS int64            `json:"query_embedding_time_ms"`
	SearchTimeMS         int64            `json:"search_time_ms"`
	TotalTimeMS          int64            `json:"total_time_ms"`
}

// SemanticSearch embeds the query text and ranks entries by cosine
// similarity. All parameter validation happens before the provider is
// called, so a bad limit never costs an embedding request. A provider
// failure surfaces as service-unavailable rather than an internal error.
func SemanticSearch(ctx context.Context, store EntryStore, embedder Embedder, input SemanticSearchInput) (*SemanticSearchOutput, error) {
	start := time.Now()

	if strings.TrimSpace(input.Query) == "" {
		return nil, errors.NewInvalidRequest("query is required")
	}

	limit := input.Limit
	if limit == 0 {
		limit = DefaultSimilarityLimit
	}
	if limit < 1 || limit > MaxSimilarityLimit {
		return nil, errors.NewInvalidRequest("limit must be between 1 and 20")
	}

	minSimilarity := DefaultMinSimilarity
	if input.MinSimilarity != nil {
		minSimilarity = *input.MinSimilarity
		if minSimilarity < 0 || minSimilarity > 1 {
			return nil, errors.NewInvalidRequest("min_similarity must be between 0 and 1")
		}
	}

	embedStart := time.Now()
	vector, err := embedder.Embed(ctx, input.Query)
	if err != nil {
		if errors.Is(err, errors.ErrNotConfigured) || errors.Is(err, errors.ErrInvalidRequest) {
			return nil, err
		}
		return nil, errors.NewUnavailable("embedding service unavailable")
	}
	embedTime := time.Since(embedStart)

	searchStart := time.Now()
	matches, err := store.SearchEntriesSimilarity(ctx, entry.SimilarityQuery{
		Vector:        vector,
		Agent:         input.Agent,
		ProjectID:     input.ProjectID,
		Tags:          input.Tags,
		Limit:         limit,
		MinSimilarity: minSimilarity,
	})
	if err != nil {
		return nil, err
	}
	searchTime := time.Since(searchStart)

	results := make([]SemanticResult, len(matches))
	for i, m := range matches {
		results[i] = SemanticResult{
			Entry:           m.Entry,
			SimilarityScore: roundScore(m.Score),
		}
	}

	return &SemanticSearchOutput{
		Results:              results,
		Total:                len(results),
		Query:                input.Query,
		QueryEmbeddingTimeMS: embedTime.Milliseconds(),
		SearchTimeMS:         searchTime.Milliseconds(),
		TotalTimeMS:          time.Since(start).Milliseconds(),
	}, nil
}

// roundScore truncates similarity scores to four decimal places for output.
func roundScore(s float64) float64 {
	return math.Round(s*10000) / 10000
}
