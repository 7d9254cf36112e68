// Package auth handles interactive admin authentication: bcrypt-verified
// credentials and opaque expiring session tokens. This is a separate,
// simpler trust domain from the agent API tokens.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/agentpress/agentpress/internal/errors"
)

// SessionTTL is how long an admin session stays valid.
const SessionTTL = 24 * time.Hour

// bcryptCost matches the cost used when the admin table was first seeded.
const bcryptCost = 10

// Admin is a stored administrator record.
type Admin struct {
	ID           int64
	Email        string
	PasswordHash string
}

// Store is the persistence surface the service needs.
type Store interface {
	// InsertAdmin creates an admin user.
	InsertAdmin(ctx context.Context, email, passwordHash string) error
	// GetAdminByEmail returns the admin with the given email, or (nil, nil)
	// when none exists.
	GetAdminByEmail(ctx context.Context, email string) (*Admin, error)
	// UpdateAdminPassword replaces an admin's password hash.
	UpdateAdminPassword(ctx context.Context, email, passwordHash string) error
}

// HashPassword computes a bcrypt hash of a plaintext password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// session is an issued admin session.
type session struct {
	email     string
	expiresAt time.Time
}

// Sessions is an in-memory expiring session registry.
type Sessions struct {
	mu     sync.Mutex
	ttl    time.Duration
	tokens map[string]session
}

// NewSessions creates a session registry with the given TTL.
func NewSessions(ttl time.Duration) *Sessions {
	return &Sessions{
		ttl:    ttl,
		tokens: make(map[string]session),
	}
}

// Issue creates a new opaque session token for an admin.
func (s *Sessions) Issue(email string) (string, error) {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return "", err
	}
	tok := hex.EncodeToString(secret)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[tok] = session{email: email, expiresAt: time.Now().Add(s.ttl)}

	return tok, nil
}

// Lookup resolves a session token to the admin email. Expired sessions are
// removed on access.
func (s *Sessions) Lookup(tok string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.tokens[tok]
	if !ok {
		return "", false
	}
	if time.Now().After(sess.expiresAt) {
		delete(s.tokens, tok)
		return "", false
	}
	return sess.email, true
}

// Service implements admin login, password rotation, and seeding.
type Service struct {
	store    Store
	sessions *Sessions
}

// NewService creates an auth service backed by the given store.
func NewService(store Store, sessions *Sessions) *Service {
	return &Service{store: store, sessions: sessions}
}

// Sessions exposes the session registry for the web layer's session check.
func (s *Service) Sessions() *Sessions {
	return s.sessions
}

// Login verifies credentials and issues a session token. Unknown emails and
// wrong passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return "", errors.NewInvalidRequest("email and password are required")
	}

	admin, err := s.store.GetAdminByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if admin == nil || bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)) != nil {
		return "", errors.NewUnauthorized("invalid email or password")
	}

	return s.sessions.Issue(admin.Email)
}

// ChangePassword verifies the current password and stores a bcrypt hash of
// the new one.
func (s *Service) ChangePassword(ctx context.Context, email, currentPassword, newPassword string) error {
	if currentPassword == "" || newPassword == "" {
		return errors.NewInvalidRequest("current and new passwords are required")
	}

	admin, err := s.store.GetAdminByEmail(ctx, email)
	if err != nil {
		return err
	}
	if admin == nil {
		return errors.NewNotFound(email)
	}
	if bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(currentPassword)) != nil {
		return errors.NewInvalidRequest("current password is incorrect")
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return errors.NewInternal(err)
	}

	return s.store.UpdateAdminPassword(ctx, email, hash)
}

// CreateAdmin seeds an admin user with a bcrypt-hashed password.
func (s *Service) CreateAdmin(ctx context.Context, email, password string) error {
	if strings.TrimSpace(email) == "" || password == "" {
		return errors.NewInvalidRequest("email and password are required")
	}

	hash, err := HashPassword(password)
	if err != nil {
		return errors.NewInternal(err)
	}

	return s.store.InsertAdmin(ctx, email, hash)
}
