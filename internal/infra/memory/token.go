package infra_memory

import (
	"context"
	"sync"

	"golang.org/x/oauth2"
)

type TokenStorage struct {
	mu     sync.RWMutex
	tokens map[string]oauth2.Token
}

func NewTokenStorage() *TokenStorage {
	return &TokenStorage{tokens: make(map[string]oauth2.Token)}
}

func (s *TokenStorage) Save(ctx context.Context, sessionID string, token *oauth2.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[sessionID] = *token
	return nil
}

// Load returns nil, nil when the session never linked an account.
func (s *TokenStorage) Load(ctx context.Context, sessionID string) (*oauth2.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tokens[sessionID]
	if !ok {
		return nil, nil
	}
	return &t, nil
}
