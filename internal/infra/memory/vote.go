package infra_memory

import (
	"context"
	"sync"

	"github.com/humanbelnik/musicroom/internal/model"
)

type VoteStorage struct {
	mu sync.Mutex
	// room code -> set of votes
	rooms map[string]map[model.Vote]struct{}
}

func NewVoteStorage() *VoteStorage {
	return &VoteStorage{rooms: make(map[string]map[model.Vote]struct{})}
}

func (s *VoteStorage) Add(ctx context.Context, vote model.Vote) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	votes, ok := s.rooms[vote.RoomCode]
	if !ok {
		votes = make(map[model.Vote]struct{})
		s.rooms[vote.RoomCode] = votes
	}
	if _, dup := votes[vote]; dup {
		return false, nil
	}
	votes[vote] = struct{}{}
	return true, nil
}

func (s *VoteStorage) Count(ctx context.Context, roomCode string, trackID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for v := range s.rooms[roomCode] {
		if v.TrackID == trackID {
			n++
		}
	}
	return n, nil
}

func (s *VoteStorage) ClearRoom(ctx context.Context, roomCode string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.rooms, roomCode)
	return nil
}
