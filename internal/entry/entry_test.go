package entry

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestPrepareEmbeddingText(t *testing.T) {
	tests := []struct {
		name           string
		title          string
		content        string
		summary        string
		lessonsLearned string
		want           string
	}{
		{
			name:    "title and content only",
			title:   "Pool sizing",
			content: "Track core count.",
			want:    "Pool sizing\n\nTrack core count.",
		},
		{
			name:    "with summary",
			title:   "Pool sizing",
			content: "Track core count.",
			summary: "Pools should be small.",
			want:    "Pool sizing\n\nTrack core count.\n\nPools should be small.",
		},
		{
			name:    "blank summary is skipped",
			title:   "Pool sizing",
			content: "Track core count.",
			summary: "   ",
			want:    "Pool sizing\n\nTrack core count.",
		},
		{
			name:           "with lessons learned",
			title:          "Pool sizing",
			content:        "Track core count.",
			lessonsLearned: "Measure before tuning.",
			want:           "Pool sizing\n\nTrack core count.\n\nLessons learned:\n\nMeasure before tuning.",
		},
		{
			name:           "all fields",
			title:          "Pool sizing",
			content:        "Track core count.",
			summary:        "Pools should be small.",
			lessonsLearned: "Measure before tuning.",
			want:           "Pool sizing\n\nTrack core count.\n\nPools should be small.\n\nLessons learned:\n\nMeasure before tuning.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PrepareEmbeddingText(tt.title, tt.content, tt.summary, tt.lessonsLearned)
			if got != tt.want {
				t.Errorf("PrepareEmbeddingText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEmbeddingTextMatchesPrepare(t *testing.T) {
	summary := "A summary"
	lessons := "A lesson"
	e := &Entry{
		Title:          "Title",
		Content:        "Content",
		Summary:        &summary,
		LessonsLearned: &lessons,
	}

	want := PrepareEmbeddingText("Title", "Content", summary, lessons)
	if got := e.EmbeddingText(); got != want {
		t.Errorf("EmbeddingText() = %q, want %q", got, want)
	}

	// Nil optionals behave like empty strings.
	e.Summary = nil
	e.LessonsLearned = nil
	if got := e.EmbeddingText(); got != "Title\n\nContent" {
		t.Errorf("EmbeddingText() with nil optionals = %q", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		entry   Entry
		wantErr bool
	}{
		{"valid", Entry{Title: "t", Content: "c", Agent: "a"}, false},
		{"missing title", Entry{Content: "c", Agent: "a"}, true},
		{"missing content", Entry{Title: "t", Agent: "a"}, true},
		{"missing agent", Entry{Title: "t", Content: "c"}, true},
		{"whitespace only", Entry{Title: "  ", Content: "c", Agent: "a"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.entry.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestHasEmbedding(t *testing.T) {
	e := &Entry{}
	if e.HasEmbedding() {
		t.Error("HasEmbedding() = true for empty embedding")
	}
	e.Embedding = make([]float32, EmbeddingDimension)
	if !e.HasEmbedding() {
		t.Error("HasEmbedding() = false for populated embedding")
	}
}

func TestEmbeddingExcludedFromJSON(t *testing.T) {
	e := Entry{Title: "t", Content: "c", Agent: "a", Embedding: []float32{1, 2, 3}}

	data, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if strings.Contains(string(data), "embedding") {
		t.Errorf("serialized entry leaked the embedding: %s", data)
	}
}
