package infra_memory

import (
	"context"
	"sync"
)

type MembershipStorage struct {
	mu       sync.RWMutex
	sessions map[string]string
}

func NewMembershipStorage() *MembershipStorage {
	return &MembershipStorage{sessions: make(map[string]string)}
}

func (s *MembershipStorage) Set(ctx context.Context, sessionID string, roomCode string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = roomCode
	return nil
}

// Get returns "" when the session is in no room.
func (s *MembershipStorage) Get(ctx context.Context, sessionID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[sessionID], nil
}

func (s *MembershipStorage) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}
