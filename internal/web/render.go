package web

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"html/template"
	"net/http"

	"github.com/yuin/goldmark"

	"github.com/agentpress/agentpress/internal/errors"
)

// renderJSON writes a JSON response.
func renderJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// renderError writes a structured error response. Unclassified errors are
// wrapped as internal before rendering so the shape stays uniform.
func renderError(w http.ResponseWriter, err error) {
	var aErr *errors.Error
	if !stderrors.As(err, &aErr) {
		aErr = errors.NewInternal(err)
	}

	body := map[string]any{
		"code":    string(aErr.Code),
		"message": aErr.Message,
		"status":  aErr.Status,
	}
	if len(aErr.Details) > 0 {
		body["details"] = aErr.Details
	}

	renderJSON(w, aErr.Status, map[string]any{"error": body})
}

// renderMarkdown converts markdown text to HTML using goldmark.
func renderMarkdown(md string) string {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return template.HTMLEscapeString(md)
	}
	return buf.String()
}
