package web

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/agentpress/agentpress/internal/errors"
	"github.com/agentpress/agentpress/internal/token"
)

type ctxKey int

const (
	ctxKeyToken ctxKey = iota
	ctxKeyAdmin
)

// requestLog assigns each request a ULID and logs method, path, status, and
// duration.
func requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := ulid.Make().String()
		start := time.Now()

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(rec, r)

		log.Printf("%s %s %s %d %s", id, r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}

// statusRecorder captures the response status for the request log.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// requireToken authenticates the bearer credential and stashes the token
// record in the request context.
func (h *Handlers) requireToken(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := h.tokens.Authenticate(r.Context(), r.Header.Get("Authorization"))
		if err != nil {
			renderError(w, err)
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), ctxKeyToken, t)))
	}
}

// requireSession authenticates the admin session token from the
// Authorization header and stashes the admin email in the request context.
func (h *Handlers) requireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			renderError(w, errors.NewUnauthorized("missing Authorization header"))
			return
		}
		const prefix = "Bearer "
		if len(header) <= len(prefix) || header[:len(prefix)] != prefix {
			renderError(w, errors.NewUnauthorized("invalid Authorization header format"))
			return
		}
		email, ok := h.auth.Sessions().Lookup(header[len(prefix):])
		if !ok {
			renderError(w, errors.NewUnauthorized("invalid or expired session"))
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), ctxKeyAdmin, email)))
	}
}

// tokenFromContext returns the authenticated token record, if any.
func tokenFromContext(ctx context.Context) *token.Token {
	t, _ := ctx.Value(ctxKeyToken).(*token.Token)
	return t
}
