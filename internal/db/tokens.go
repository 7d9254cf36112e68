package db

import (
	"context"
	stderrors "errors"
	"strconv"

	"github.com/jackc/pgx/v5"

	"github.com/agentpress/agentpress/internal/errors"
	"github.com/agentpress/agentpress/internal/token"
)

const tokenColumns = "id, token_hash, name, agent_tag, created_at, last_used_at, revoked_at, is_revoked"

// InsertToken stores a new API token record.
func (s *Store) InsertToken(ctx context.Context, t *token.Token) error {
	query := `
		INSERT INTO api_tokens (token_hash, name, agent_tag)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	err := s.pool.QueryRow(ctx, query, t.TokenHash, t.Name, t.AgentTag).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return errors.NewInternal(err)
	}

	return nil
}

// GetTokenByHash returns the active (non-revoked) token with the given hash,
// or (nil, nil) when none matches. Revoked tokens look identical to unknown
// ones from here.
func (s *Store) GetTokenByHash(ctx context.Context, hash string) (*token.Token, error) {
	query := "SELECT " + tokenColumns + " FROM api_tokens WHERE token_hash = $1 AND is_revoked = FALSE"

	t, err := scanToken(s.pool.QueryRow(ctx, query, hash))
	if stderrors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	return t, nil
}

// TouchTokenLastUsed records a successful authorization.
func (s *Store) TouchTokenLastUsed(ctx context.Context, id int64) error {
	_, err := s.pool.Exec(ctx, "UPDATE api_tokens SET last_used_at = NOW() WHERE id = $1", id)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// RevokeToken sets the revocation flag and timestamp. Already revoked tokens
// are left untouched, so revoking twice is not an error.
func (s *Store) RevokeToken(ctx context.Context, id int64) error {
	query := `
		UPDATE api_tokens
		SET is_revoked = TRUE, revoked_at = COALESCE(revoked_at, NOW())
		WHERE id = $1
	`

	tag, err := s.pool.Exec(ctx, query, id)
	if err != nil {
		return errors.NewInternal(err)
	}
	if tag.RowsAffected() == 0 {
		return errors.NewNotFound(strconv.FormatInt(id, 10))
	}

	return nil
}

// ListTokens returns all tokens including revoked ones, newest first.
func (s *Store) ListTokens(ctx context.Context) ([]token.Token, error) {
	query := "SELECT " + tokenColumns + " FROM api_tokens ORDER BY created_at DESC"

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var tokens []token.Token
	for rows.Next() {
		t, err := scanToken(rows)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		tokens = append(tokens, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}

	return tokens, nil
}

// scanToken scans a single row into a Token.
func scanToken(row rowScanner) (*token.Token, error) {
	var t token.Token
	err := row.Scan(
		&t.ID, &t.TokenHash, &t.Name, &t.AgentTag,
		&t.CreatedAt, &t.LastUsedAt, &t.RevokedAt, &t.IsRevoked,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
