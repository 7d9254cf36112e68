// Package token issues and validates the opaque bearer credentials agents
// use against the write API. Only the SHA-256 hash of a credential is ever
// persisted; the plaintext is returned once at creation and never again.
package token

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"log"
	"strings"
	"time"

	"github.com/agentpress/agentpress/internal/errors"
)

// Token is a stored API credential record. The hash never leaves the
// process: it is excluded from JSON and administrative listings.
type Token struct {
	ID         int64      `json:"id"`
	TokenHash  string     `json:"-"`
	Name       string     `json:"name"`
	AgentTag   *string    `json:"agent_tag"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at"`
	RevokedAt  *time.Time `json:"revoked_at"`
	IsRevoked  bool       `json:"is_revoked"`
}

// Store is the persistence surface the service needs.
type Store interface {
	// InsertToken stores a new token record, filling server-assigned fields.
	InsertToken(ctx context.Context, t *Token) error
	// GetTokenByHash returns the active token with the given hash, or
	// (nil, nil) when no active token matches.
	GetTokenByHash(ctx context.Context, hash string) (*Token, error)
	// TouchTokenLastUsed records a successful authorization.
	TouchTokenLastUsed(ctx context.Context, id int64) error
	// RevokeToken soft-deletes a token. Revoking twice is not an error.
	RevokeToken(ctx context.Context, id int64) error
	// ListTokens returns all tokens, including revoked ones, newest first.
	ListTokens(ctx context.Context) ([]Token, error)
}

// Service implements token creation and bearer authentication.
type Service struct {
	store Store
}

// NewService creates a token service backed by the given store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Hash computes the hex SHA-256 digest of a plaintext token.
func Hash(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}

// Create generates a new credential with 256 bits of entropy, stores only
// its hash, and returns the plaintext exactly once.
func (s *Service) Create(ctx context.Context, name, agentTag string) (string, *Token, error) {
	if strings.TrimSpace(name) == "" {
		return "", nil, errors.NewInvalidRequest("token name is required")
	}

	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return "", nil, errors.NewInternal(err)
	}
	plaintext := hex.EncodeToString(secret)

	t := &Token{
		TokenHash: Hash(plaintext),
		Name:      name,
	}
	if agentTag != "" {
		t.AgentTag = &agentTag
	}

	if err := s.store.InsertToken(ctx, t); err != nil {
		return "", nil, err
	}

	return plaintext, t, nil
}

// Authenticate validates an Authorization header value. Missing headers,
// malformed headers, and unknown or revoked credentials are rejected with
// distinct reasons. On success the token's last-used timestamp is updated
// in the background; that write never blocks or fails the authorization
// decision.
func (s *Service) Authenticate(ctx context.Context, headerValue string) (*Token, error) {
	if headerValue == "" {
		return nil, errors.NewUnauthorized("missing Authorization header")
	}

	parts := strings.Split(headerValue, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, errors.NewUnauthorized("invalid Authorization header format")
	}

	t, err := s.store.GetTokenByHash(ctx, Hash(parts[1]))
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, errors.NewUnauthorized("invalid or revoked API token")
	}

	go func(id int64) {
		touchCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.store.TouchTokenLastUsed(touchCtx, id); err != nil {
			log.Printf("failed to update last_used_at for token %d: %v", id, err)
		}
	}(t.ID)

	return t, nil
}

// Revoke soft-deletes a token. It is idempotent: revoking an already revoked
// token succeeds, and a revoked token never authorizes another request.
func (s *Service) Revoke(ctx context.Context, id int64) error {
	return s.store.RevokeToken(ctx, id)
}

// List returns all tokens for administrative display. Hashes are carried on
// the records but excluded from serialization.
func (s *Service) List(ctx context.Context) ([]Token, error) {
	return s.store.ListTokens(ctx)
}
