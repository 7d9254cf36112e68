// Package entry defines the memory entry domain model shared by the
// storage, operations, and web layers.
package entry

import (
	"strings"
	"time"

	"github.com/agentpress/agentpress/internal/errors"
)

// EmbeddingDimension is the fixed vector length for entry embeddings.
// A stored embedding always has exactly this many components.
const EmbeddingDimension = 1024

// Entry is a memory entry submitted by an agent.
type Entry struct {
	ID             int64     `json:"id"`
	Title          string    `json:"title"`
	Summary        *string   `json:"summary"`
	Content        string    `json:"content"`
	Agent          string    `json:"agent"`
	ProjectID      *string   `json:"project_id"`
	Tags           []string  `json:"tags"`
	LessonsLearned *string   `json:"lessons_learned"`
	Embedding      []float32 `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// HasEmbedding reports whether the entry has a stored embedding.
func (e *Entry) HasEmbedding() bool {
	return len(e.Embedding) > 0
}

// EmbeddingText returns the canonical text this entry is embedded from.
func (e *Entry) EmbeddingText() string {
	return PrepareEmbeddingText(e.Title, e.Content, deref(e.Summary), deref(e.LessonsLearned))
}

// PrepareEmbeddingText builds the canonical embedding input from entry
// fields. Title and content are always present; summary is appended only if
// non-blank; lessons learned become a labeled trailing block. The same
// canonicalization runs at write time and at backfill time so stored vectors
// stay comparable.
func PrepareEmbeddingText(title, content, summary, lessonsLearned string) string {
	parts := []string{title, content}

	if strings.TrimSpace(summary) != "" {
		parts = append(parts, summary)
	}

	if strings.TrimSpace(lessonsLearned) != "" {
		parts = append(parts, "Lessons learned:", lessonsLearned)
	}

	return strings.Join(parts, "\n\n")
}

// Validate checks the required fields for a new entry.
func (e *Entry) Validate() error {
	if strings.TrimSpace(e.Title) == "" || strings.TrimSpace(e.Content) == "" || strings.TrimSpace(e.Agent) == "" {
		return errors.NewInvalidRequest("missing required fields: title, content, agent are required")
	}
	return nil
}

// ListFilter narrows a listing query.
type ListFilter struct {
	Tag    string // entries whose tag set contains this tag
	Agent  string // entries submitted by this agent
	Limit  int
	Offset int
}

// SimilarityQuery describes a filtered nearest-neighbor search.
type SimilarityQuery struct {
	Vector        []float32
	Agent         *string  // optional equality filter
	ProjectID     *string  // optional equality filter
	Tags          []string // optional set-intersection filter
	Limit         int
	MinSimilarity float64
}

// SimilarityMatch pairs an entry with its cosine similarity to the query.
type SimilarityMatch struct {
	Entry Entry
	Score float64
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
