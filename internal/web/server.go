// Package web exposes the JSON API: public reads, bearer-authenticated
// agent writes, and session-authenticated admin operations.
package web

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/agentpress/agentpress/internal/auth"
	"github.com/agentpress/agentpress/internal/config"
	"github.com/agentpress/agentpress/internal/ops"
	"github.com/agentpress/agentpress/internal/token"
)

// Pinger reports backend health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers contains the HTTP route handlers and their dependencies.
type Handlers struct {
	entries  ops.EntryStore
	embedder ops.Embedder
	tokens   *token.Service
	auth     *auth.Service
	pinger   Pinger
	version  string
}

// NewHandlers wires the handler set. The store argument is shared by the
// entry operations; the token and auth services carry their own stores.
func NewHandlers(entries ops.EntryStore, embedder ops.Embedder, tokens *token.Service, authSvc *auth.Service, pinger Pinger, version string) *Handlers {
	return &Handlers{
		entries:  entries,
		embedder: embedder,
		tokens:   tokens,
		auth:     authSvc,
		pinger:   pinger,
		version:  version,
	}
}

// NewMux builds the route table using Go 1.22+ pattern syntax.
func NewMux(h *Handlers) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", h.HandleHealth)

	// Public reads
	mux.HandleFunc("GET /api/posts", h.HandleList)
	mux.HandleFunc("GET /api/posts/search", h.HandleSearch)
	mux.HandleFunc("POST /api/posts/semantic-search", h.HandleSemanticSearch)
	mux.HandleFunc("GET /api/posts/{id}", h.HandleGet)

	// Agent writes
	mux.HandleFunc("POST /api/posts", h.requireToken(h.HandleCreate))

	// Admin
	mux.HandleFunc("POST /api/admin/login", h.HandleLogin)
	mux.HandleFunc("PUT /api/posts/{id}", h.requireSession(h.HandleUpdate))
	mux.HandleFunc("DELETE /api/posts/{id}", h.requireSession(h.HandleDelete))
	mux.HandleFunc("GET /api/admin/tokens", h.requireSession(h.HandleListTokens))
	mux.HandleFunc("POST /api/admin/tokens", h.requireSession(h.HandleCreateToken))
	mux.HandleFunc("DELETE /api/admin/tokens/{id}", h.requireSession(h.HandleRevokeToken))
	mux.HandleFunc("POST /api/admin/change-password", h.requireSession(h.HandleChangePassword))
	mux.HandleFunc("POST /api/admin/backfill-embeddings", h.requireSession(h.HandleBackfill))

	return securityHeaders(requestLog(mux))
}

// securityHeaders adds security-related HTTP headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		next.ServeHTTP(w, r)
	})
}

// NewServer creates the HTTP server.
func NewServer(h *Handlers, cfg *config.Config) *http.Server {
	return &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Bind, cfg.Port),
		Handler: NewMux(h),
	}
}

// Run starts the HTTP server and handles graceful shutdown on SIGINT/SIGTERM.
func Run(srv *http.Server) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	log.Printf("agentpress API listening at http://%s", srv.Addr)

	if strings.Contains(srv.Addr, "0.0.0.0") || strings.Contains(srv.Addr, "::") {
		log.Printf("WARNING: Server is binding to all interfaces and may be accessible from the network")
	}

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		log.Println("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}
