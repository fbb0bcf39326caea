package tokenstore

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-memory token store. It is useful for tests and for
// sharing a token between multiple clients inside one process.
type Memory struct {
	mu     sync.Mutex
	token  string
	expiry time.Time
}

// NewMemory creates an empty in-memory token store.
func NewMemory() *Memory {
	return &Memory{}
}

// Load returns the stored token, or an empty token when nothing is stored.
func (s *Memory) Load(ctx context.Context) (string, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, s.expiry, nil
}

// Save stores the token and its expiry.
func (s *Memory) Save(ctx context.Context, accessToken string, expiry time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = accessToken
	s.expiry = expiry
	return nil
}
