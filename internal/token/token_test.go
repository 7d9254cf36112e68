package token

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/agentpress/agentpress/internal/errors"
)

// fakeStore is an in-memory token store.
type fakeStore struct {
	mu      sync.Mutex
	tokens  map[int64]*Token
	nextID  int64
	touched chan int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tokens:  make(map[int64]*Token),
		nextID:  1,
		touched: make(chan int64, 8),
	}
}

func (f *fakeStore) InsertToken(ctx context.Context, t *Token) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t.ID = f.nextID
	t.CreatedAt = time.Now()
	f.nextID++
	copied := *t
	f.tokens[t.ID] = &copied
	return nil
}

func (f *fakeStore) GetTokenByHash(ctx context.Context, hash string) (*Token, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tokens {
		if t.TokenHash == hash && !t.IsRevoked {
			copied := *t
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) TouchTokenLastUsed(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tokens[id]
	if !ok {
		return errors.NewNotFound(fmt.Sprintf("token %d", id))
	}
	now := time.Now()
	t.LastUsedAt = &now
	select {
	case f.touched <- id:
	default:
	}
	return nil
}

func (f *fakeStore) RevokeToken(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tokens[id]
	if !ok {
		return errors.NewNotFound(fmt.Sprintf("token %d", id))
	}
	t.IsRevoked = true
	if t.RevokedAt == nil {
		now := time.Now()
		t.RevokedAt = &now
	}
	return nil
}

func (f *fakeStore) ListTokens(ctx context.Context) ([]Token, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Token
	for _, t := range f.tokens {
		out = append(out, *t)
	}
	return out, nil
}

func TestCreate(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)

	plaintext, record, err := svc.Create(context.Background(), "ci token", "ci")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if len(plaintext) != 64 {
		t.Errorf("plaintext length = %d, want 64", len(plaintext))
	}
	if record.TokenHash != Hash(plaintext) {
		t.Error("stored hash does not match the plaintext's digest")
	}
	if record.TokenHash == plaintext {
		t.Error("plaintext was stored as the hash")
	}
	if record.AgentTag == nil || *record.AgentTag != "ci" {
		t.Errorf("AgentTag = %v, want ci", record.AgentTag)
	}
}

func TestCreateRequiresName(t *testing.T) {
	svc := NewService(newFakeStore())

	_, _, err := svc.Create(context.Background(), "   ", "")
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Fatalf("Create() error = %v, want INVALID_REQUEST", err)
	}
}

func TestCreateUniquePlaintexts(t *testing.T) {
	svc := NewService(newFakeStore())
	seen := make(map[string]bool)

	for i := 0; i < 10; i++ {
		plaintext, _, err := svc.Create(context.Background(), fmt.Sprintf("t%d", i), "")
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if seen[plaintext] {
			t.Fatal("duplicate plaintext issued")
		}
		seen[plaintext] = true
	}
}

func TestAuthenticate(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)

	plaintext, record, err := svc.Create(context.Background(), "ci token", "")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := svc.Authenticate(context.Background(), "Bearer "+plaintext)
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if got.ID != record.ID {
		t.Errorf("authenticated token id = %d, want %d", got.ID, record.ID)
	}

	// Last-used update happens off the request path.
	select {
	case id := <-store.touched:
		if id != record.ID {
			t.Errorf("touched id = %d, want %d", id, record.ID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("last-used update never happened")
	}
}

func TestAuthenticateRejections(t *testing.T) {
	svc := NewService(newFakeStore())

	tests := []struct {
		name   string
		header string
		reason string
	}{
		{"missing header", "", "missing Authorization header"},
		{"wrong scheme", "Basic dXNlcg==", "invalid Authorization header format"},
		{"no credential", "Bearer", "invalid Authorization header format"},
		{"unknown token", "Bearer " + Hash("nope"), "invalid or revoked API token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Authenticate(context.Background(), tt.header)
			if !errors.Is(err, errors.ErrUnauthorized) {
				t.Fatalf("Authenticate() error = %v, want UNAUTHORIZED", err)
			}
			if aErr := err.(*errors.Error); aErr.Message != tt.reason {
				t.Errorf("reason = %q, want %q", aErr.Message, tt.reason)
			}
		})
	}
}

func TestRevoke(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)

	plaintext, record, err := svc.Create(context.Background(), "doomed", "")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := svc.Revoke(context.Background(), record.ID); err != nil {
		t.Fatalf("Revoke() error = %v", err)
	}

	_, err = svc.Authenticate(context.Background(), "Bearer "+plaintext)
	if !errors.Is(err, errors.ErrUnauthorized) {
		t.Fatalf("Authenticate() after revoke = %v, want UNAUTHORIZED", err)
	}

	// Revoking again succeeds.
	if err := svc.Revoke(context.Background(), record.ID); err != nil {
		t.Fatalf("second Revoke() error = %v", err)
	}
}

func TestHashIsDeterministic(t *testing.T) {
	a := Hash("credential")
	b := Hash("credential")
	if a != b {
		t.Error("Hash() not deterministic")
	}
	if len(a) != 64 {
		t.Errorf("hash length = %d, want 64", len(a))
	}
	if Hash("other") == a {
		t.Error("distinct inputs produced the same hash")
	}
}
