package web

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/agentpress/agentpress/internal/errors"
	"github.com/agentpress/agentpress/internal/ops"
)

// HandleHealth handles GET /api/health.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.pinger.Ping(r.Context()); err != nil {
		renderError(w, errors.NewUnavailable("database unreachable"))
		return
	}
	renderJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": h.version,
	})
}

type createRequest struct {
	Title          string   `json:"title"`
	Summary        *string  `json:"summary"`
	Content        string   `json:"content"`
	Agent          string   `json:"agent"`
	ProjectID      *string  `json:"project_id"`
	Tags           []string `json:"tags"`
	LessonsLearned *string  `json:"lessons_learned"`
}

// HandleCreate handles POST /api/posts — agent-authenticated entry creation.
// When the request omits the agent name, the token's agent tag is used.
func (h *Handlers) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := decodeJSON(r, &req); err != nil {
		renderError(w, err)
		return
	}

	if req.Agent == "" {
		if t := tokenFromContext(r.Context()); t != nil && t.AgentTag != nil {
			req.Agent = *t.AgentTag
		}
	}

	e, err := ops.Create(r.Context(), h.entries, h.embedder, ops.CreateInput{
		Title:          req.Title,
		Summary:        req.Summary,
		Content:        req.Content,
		Agent:          req.Agent,
		ProjectID:      req.ProjectID,
		Tags:           req.Tags,
		LessonsLearned: req.LessonsLearned,
	})
	if err != nil {
		renderError(w, err)
		return
	}

	renderJSON(w, http.StatusCreated, map[string]any{
		"post":          e,
		"has_embedding": e.HasEmbedding(),
	})
}

// HandleList handles GET /api/posts — public paginated listing.
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	out, err := ops.List(r.Context(), h.entries, ops.ListInput{
		Tag:   r.URL.Query().Get("tag"),
		Agent: r.URL.Query().Get("agent"),
		Page:  parseIntParam(r, "page", 0),
		Limit: parseIntParam(r, "limit", 0),
	})
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

// HandleSearch handles GET /api/posts/search — substring search.
func (h *Handlers) HandleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	results, err := ops.SearchText(r.Context(), h.entries, query, parseIntParam(r, "limit", 0))
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, map[string]any{
		"results": results,
		"total":   len(results),
		"query":   query,
	})
}

type semanticSearchRequest struct {
	Query         string   `json:"query"`
	Agent         *string  `json:"agent"`
	ProjectID     *string  `json:"project_id"`
	Tags          []string `json:"tags"`
	Limit         int      `json:"limit"`
	MinSimilarity *float64 `json:"min_similarity"`
}

// HandleSemanticSearch handles POST /api/posts/semantic-search.
func (h *Handlers) HandleSemanticSearch(w http.ResponseWriter, r *http.Request) {
	var req semanticSearchRequest
	if err := decodeJSON(r, &req); err != nil {
		renderError(w, err)
		return
	}

	out, err := ops.SemanticSearch(r.Context(), h.entries, h.embedder, ops.SemanticSearchInput{
		Query:         req.Query,
		Agent:         req.Agent,
		ProjectID:     req.ProjectID,
		Tags:          req.Tags,
		Limit:         req.Limit,
		MinSimilarity: req.MinSimilarity,
	})
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

// HandleGet handles GET /api/posts/{id}. With ?render=html the markdown
// content is also returned rendered.
func (h *Handlers) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		renderError(w, err)
		return
	}

	e, err := ops.Fetch(r.Context(), h.entries, id)
	if err != nil {
		renderError(w, err)
		return
	}

	body := map[string]any{"post": e}
	if r.URL.Query().Get("render") == "html" {
		body["content_html"] = renderMarkdown(e.Content)
	}
	renderJSON(w, http.StatusOK, body)
}

type updateRequest struct {
	Title          *string   `json:"title"`
	Summary        *string   `json:"summary"`
	Content        *string   `json:"content"`
	Agent          *string   `json:"agent"`
	ProjectID      *string   `json:"project_id"`
	Tags           *[]string `json:"tags"`
	LessonsLearned *string   `json:"lessons_learned"`
}

// HandleUpdate handles PUT /api/posts/{id} — admin partial update.
func (h *Handlers) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		renderError(w, err)
		return
	}

	var req updateRequest
	if err := decodeJSON(r, &req); err != nil {
		renderError(w, err)
		return
	}

	e, err := ops.Update(r.Context(), h.entries, h.embedder, ops.UpdateInput{
		ID:             id,
		Title:          req.Title,
		Summary:        req.Summary,
		Content:        req.Content,
		Agent:          req.Agent,
		ProjectID:      req.ProjectID,
		Tags:           req.Tags,
		LessonsLearned: req.LessonsLearned,
	})
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, map[string]any{"post": e})
}

// HandleDelete handles DELETE /api/posts/{id} — admin hard delete.
func (h *Handlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		renderError(w, err)
		return
	}
	if err := ops.Delete(r.Context(), h.entries, id); err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, map[string]any{"deleted": true, "id": id})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleLogin handles POST /api/admin/login.
func (h *Handlers) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		renderError(w, err)
		return
	}

	sessionToken, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, map[string]any{"token": sessionToken})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// HandleChangePassword handles POST /api/admin/change-password.
func (h *Handlers) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		renderError(w, err)
		return
	}

	email, _ := r.Context().Value(ctxKeyAdmin).(string)
	if err := h.auth.ChangePassword(r.Context(), email, req.CurrentPassword, req.NewPassword); err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, map[string]any{"changed": true})
}

// HandleListTokens handles GET /api/admin/tokens. Hashes and plaintexts are
// never included.
func (h *Handlers) HandleListTokens(w http.ResponseWriter, r *http.Request) {
	tokens, err := h.tokens.List(r.Context())
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, map[string]any{"tokens": tokens})
}

type createTokenRequest struct {
	Name     string `json:"name"`
	AgentTag string `json:"agent_tag"`
}

// HandleCreateToken handles POST /api/admin/tokens. The plaintext credential
// appears in this response and nowhere else.
func (h *Handlers) HandleCreateToken(w http.ResponseWriter, r *http.Request) {
	var req createTokenRequest
	if err := decodeJSON(r, &req); err != nil {
		renderError(w, err)
		return
	}

	plaintext, record, err := h.tokens.Create(r.Context(), req.Name, req.AgentTag)
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusCreated, map[string]any{
		"token":  plaintext,
		"record": record,
	})
}

// HandleRevokeToken handles DELETE /api/admin/tokens/{id}.
func (h *Handlers) HandleRevokeToken(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		renderError(w, err)
		return
	}
	if err := h.tokens.Revoke(r.Context(), id); err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, map[string]any{"revoked": true, "id": id})
}

type backfillRequest struct {
	BatchSize int  `json:"batch_size"`
	DryRun    bool `json:"dry_run"`
}

// HandleBackfill handles POST /api/admin/backfill-embeddings.
func (h *Handlers) HandleBackfill(w http.ResponseWriter, r *http.Request) {
	var req backfillRequest
	if err := decodeJSON(r, &req); err != nil {
		renderError(w, err)
		return
	}

	out, err := ops.Backfill(r.Context(), h.entries, h.embedder, ops.BackfillInput{
		BatchSize: req.BatchSize,
		DryRun:    req.DryRun,
	})
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

// decodeJSON decodes a request body, mapping malformed JSON to a 400.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.NewInvalidRequest("invalid JSON body")
	}
	return nil
}

// parseID parses the {id} path segment.
func parseID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, errors.NewInvalidRequest("id must be a positive integer")
	}
	return id, nil
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}
