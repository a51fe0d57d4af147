package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/frahmantamala/crm/internal/core/session"
)

var ErrSessionNotFound = errors.New("session not found")

// TokenStore keeps the session detail of every live access token.
type TokenStore interface {
	Save(ctx context.Context, token string, detail *session.Detail, ttl time.Duration) error
	Get(ctx context.Context, token string) (*session.Detail, error)
	Delete(ctx context.Context, token string) error
}

type memoryEntry struct {
	detail    session.Detail
	expiresAt time.Time
}

// MemoryStore is the in-process token store used when no Redis is configured.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry), now: time.Now}
}

func (s *MemoryStore) Save(_ context.Context, token string, detail *session.Detail, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.purgeLocked()
	s.entries[token] = memoryEntry{detail: *detail, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, token string) (*session.Detail, error) {
	s.mu.RLock()
	entry, ok := s.entries[token]
	s.mu.RUnlock()

	if !ok || !s.now().Before(entry.expiresAt) {
		return nil, ErrSessionNotFound
	}
	detail := entry.detail
	return &detail, nil
}

func (s *MemoryStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, token)
	return nil
}

// purgeLocked drops expired entries so abandoned sessions do not accumulate.
func (s *MemoryStore) purgeLocked() {
	now := s.now()
	for token, entry := range s.entries {
		if !now.Before(entry.expiresAt) {
			delete(s.entries, token)
		}
	}
}
