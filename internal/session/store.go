// Package session persists the access/refresh token pair between runs.
package session

import (
	"context"
	"errors"
	"sync"
)

// Storage keys for the token pair. Every backend uses the same names.
const (
	AccessKey  = "access_token"
	RefreshKey = "refresh_token"
)

// ErrStoreUnavailable wraps backend failures.
var ErrStoreUnavailable = errors.New("session: store unavailable")

// Tokens is the opaque token pair issued by the token endpoint.
type Tokens struct {
	Access  string `json:"access_token"`
	Refresh string `json:"refresh_token"`
}

// Empty reports whether no access token is held.
func (t Tokens) Empty() bool {
	return t.Access == ""
}

// Store persists both tokens together. Load on an empty store returns the
// zero Tokens and a nil error.
type Store interface {
	Load(ctx context.Context) (Tokens, error)
	Save(ctx context.Context, tokens Tokens) error
	Clear(ctx context.Context) error
}

// MemoryStore keeps tokens in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	tokens Tokens
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load implements Store.
func (m *MemoryStore) Load(ctx context.Context) (Tokens, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tokens, nil
}

// Save implements Store.
func (m *MemoryStore) Save(ctx context.Context, tokens Tokens) error {
	m.mu.Lock()
	m.tokens = tokens
	m.mu.Unlock()
	return nil
}

// Clear implements Store.
func (m *MemoryStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	m.tokens = Tokens{}
	m.mu.Unlock()
	return nil
}
