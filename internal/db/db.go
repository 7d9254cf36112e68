// Package db implements the Postgres storage layer using a pgx connection
// pool with pgvector for embedding columns.
package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvec "github.com/pgvector/pgvector-go/pgx"

	"github.com/agentpress/agentpress/internal/config"
	"github.com/agentpress/agentpress/internal/entry"
	"github.com/agentpress/agentpress/internal/errors"
)

// Store wraps a pgx connection pool. It is constructed once at process start
// and closed on shutdown; there is no lazy first-use initialization.
type Store struct {
	pool *pgxpool.Pool
}

// Connect opens a connection pool against cfg.DatabaseURL and verifies it
// with a ping. pgvector types are registered on every new connection.
func Connect(ctx context.Context, cfg *config.Config) (*Store, error) {
	if cfg.DatabaseURL == "" {
		return nil, errors.NewNotConfigured("DATABASE_URL")
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}
	if cfg.DBMaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.DBMaxConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ping verifies database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// EnsureSchema creates the extension, tables, and indexes. All statements
// are idempotent so the command can be re-run safely.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("failed to enable pgvector extension: %w", err)
	}

	schema := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS admin_users (
  id            SERIAL PRIMARY KEY,
  email         VARCHAR(255) UNIQUE NOT NULL,
  password_hash VARCHAR(255) NOT NULL,
  created_at    TIMESTAMPTZ DEFAULT NOW(),
  updated_at    TIMESTAMPTZ DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS api_tokens (
  id           SERIAL PRIMARY KEY,
  token_hash   VARCHAR(64) UNIQUE NOT NULL,
  name         VARCHAR(255) NOT NULL,
  agent_tag    VARCHAR(100),
  created_at   TIMESTAMPTZ DEFAULT NOW(),
  last_used_at TIMESTAMPTZ,
  revoked_at   TIMESTAMPTZ,
  is_revoked   BOOLEAN DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS memory_entries (
  id              SERIAL PRIMARY KEY,
  title           VARCHAR(500) NOT NULL,
  summary         TEXT,
  content         TEXT NOT NULL,
  agent           VARCHAR(100) NOT NULL,
  project_id      VARCHAR(100),
  tags            TEXT[],
  lessons_learned TEXT,
  embedding       VECTOR(%d),
  created_at      TIMESTAMPTZ DEFAULT NOW(),
  updated_at      TIMESTAMPTZ DEFAULT NOW()
);
`, entry.EmbeddingDimension)

	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_memory_agent ON memory_entries(agent)",
		"CREATE INDEX IF NOT EXISTS idx_memory_project ON memory_entries(project_id)",
		"CREATE INDEX IF NOT EXISTS idx_memory_date ON memory_entries(created_at)",
		"CREATE INDEX IF NOT EXISTS idx_memory_tags ON memory_entries USING GIN(tags)",
		"CREATE INDEX IF NOT EXISTS idx_memory_embedding ON memory_entries USING hnsw (embedding vector_cosine_ops)",
		"CREATE INDEX IF NOT EXISTS idx_api_tokens_hash ON api_tokens(token_hash)",
		"CREATE INDEX IF NOT EXISTS idx_api_tokens_revoked ON api_tokens(is_revoked)",
	}
	for _, stmt := range indexes {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}
