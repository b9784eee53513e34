// Package infra_memory keeps rooms, votes, memberships and provider tokens in
// process memory. Used when no Postgres/Redis is configured and in tests.
package infra_memory

import (
	"context"
	"sort"
	"sync"

	"github.com/humanbelnik/musicroom/internal/model"
	usecase_room "github.com/humanbelnik/musicroom/internal/usecase/room"
)

type RoomStorage struct {
	mu     sync.RWMutex
	byCode map[string]model.Room
	byHost map[string]string
}

func NewRoomStorage() *RoomStorage {
	return &RoomStorage{
		byCode: make(map[string]model.Room),
		byHost: make(map[string]string),
	}
}

func (s *RoomStorage) Create(ctx context.Context, room model.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byCode[room.Code]; ok {
		return usecase_room.ErrCodeConflict
	}
	if _, ok := s.byHost[room.HostID]; ok {
		return usecase_room.ErrHostConflict
	}
	s.byCode[room.Code] = cloneRoom(room)
	s.byHost[room.HostID] = room.Code
	return nil
}

func (s *RoomStorage) ByCode(ctx context.Context, code string) (model.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	room, ok := s.byCode[code]
	if !ok {
		return model.Room{}, model.ErrNotFound
	}
	return cloneRoom(room), nil
}

func (s *RoomStorage) ByHost(ctx context.Context, hostID string) (model.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	code, ok := s.byHost[hostID]
	if !ok {
		return model.Room{}, model.ErrNotFound
	}
	return cloneRoom(s.byCode[code]), nil
}

func (s *RoomStorage) CodeExists(ctx context.Context, code string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.byCode[code]
	return ok, nil
}

func (s *RoomStorage) UpdateSettings(ctx context.Context, code string, guestCanPause bool, votesToSkip int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.byCode[code]
	if !ok {
		return model.ErrNotFound
	}
	room.GuestCanPause = guestCanPause
	room.VotesToSkip = votesToSkip
	s.byCode[code] = room
	return nil
}

func (s *RoomStorage) SetCurrentTrack(ctx context.Context, code string, trackID *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.byCode[code]
	if !ok {
		return model.ErrNotFound
	}
	room.CurrentTrackID = cloneString(trackID)
	s.byCode[code] = room
	return nil
}

func (s *RoomStorage) DeleteByHost(ctx context.Context, hostID string) (model.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	code, ok := s.byHost[hostID]
	if !ok {
		return model.Room{}, model.ErrNotFound
	}
	room := s.byCode[code]
	delete(s.byCode, code)
	delete(s.byHost, hostID)
	return room, nil
}

func (s *RoomStorage) List(ctx context.Context) ([]model.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rooms := make([]model.Room, 0, len(s.byCode))
	for _, room := range s.byCode {
		rooms = append(rooms, cloneRoom(room))
	}
	sort.Slice(rooms, func(i, j int) bool {
		return rooms[i].CreatedAt.Before(rooms[j].CreatedAt)
	})
	return rooms, nil
}

func cloneRoom(r model.Room) model.Room {
	r.CurrentTrackID = cloneString(r.CurrentTrackID)
	return r
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
