package usecase_membership

import (
	"context"
	"errors"

	"github.com/humanbelnik/musicroom/internal/model"
	"github.com/humanbelnik/musicroom/internal/service/roomlock"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Store maps a session to the code of the room it joined.
type Store interface {
	Set(ctx context.Context, sessionID string, roomCode string) error
	// Get returns "" when the session is in no room.
	Get(ctx context.Context, sessionID string) (string, error)
	Delete(ctx context.Context, sessionID string) error
}

type RoomRegistry interface {
	RoomByCode(ctx context.Context, code string) (model.Room, error)
	RoomByHost(ctx context.Context, hostID string) (model.Room, error)
	DeleteRoom(ctx context.Context, hostID string) (*model.Room, error)
}

type VoteLedger interface {
	ClearVotes(ctx context.Context, roomCode string) error
}

type Notifier interface {
	Publish(event model.Event)
}

type Usecase struct {
	store    Store
	rooms    RoomRegistry
	votes    VoteLedger
	locker   *roomlock.Locker
	notifier Notifier
	logger   zerolog.Logger
}

type Option func(*Usecase)

func WithLogger(logger zerolog.Logger) Option {
	return func(u *Usecase) {
		u.logger = logger
	}
}

func WithNotifier(n Notifier) Option {
	return func(u *Usecase) {
		u.notifier = n
	}
}

func New(
	store Store,
	rooms RoomRegistry,
	votes VoteLedger,
	locker *roomlock.Locker,
	opts ...Option,
) *Usecase {
	u := &Usecase{
		store:  store,
		rooms:  rooms,
		votes:  votes,
		locker: locker,
		logger: log.Logger,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Join records the session as a member of code, replacing any previous room.
func (u *Usecase) Join(ctx context.Context, sessionID string, code string) error {
	if _, err := u.rooms.RoomByCode(ctx, code); err != nil {
		return err
	}
	if err := u.store.Set(ctx, sessionID, code); err != nil {
		return errors.Join(model.ErrInternal, err)
	}
	u.logger.Info().Str("session", sessionID).Str("room", code).Msg("joined room")
	return nil
}

// Leave clears the session's membership. A host leaving takes the room and
// its votes down with it.
func (u *Usecase) Leave(ctx context.Context, sessionID string) error {
	if err := u.store.Delete(ctx, sessionID); err != nil {
		return errors.Join(model.ErrInternal, err)
	}

	room, err := u.rooms.RoomByHost(ctx, sessionID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil
		}
		return err
	}

	unlock := u.locker.Lock(room.Code)
	defer unlock()

	if err := u.votes.ClearVotes(ctx, room.Code); err != nil {
		return err
	}
	deleted, err := u.rooms.DeleteRoom(ctx, sessionID)
	if err != nil {
		return err
	}
	if deleted == nil {
		return nil
	}

	u.logger.Info().Str("session", sessionID).Str("room", deleted.Code).Msg("host left, room closed")
	if u.notifier != nil {
		u.notifier.Publish(model.Event{
			Type:     model.EventRoomClosed,
			RoomCode: deleted.Code,
		})
	}
	return nil
}

// CurrentRoom reports the room the session is in. A membership pointing at a
// room that no longer exists is dropped.
func (u *Usecase) CurrentRoom(ctx context.Context, sessionID string) (string, bool, error) {
	code, err := u.store.Get(ctx, sessionID)
	if err != nil {
		return "", false, errors.Join(model.ErrInternal, err)
	}
	if code == "" {
		return "", false, nil
	}

	if _, err := u.rooms.RoomByCode(ctx, code); err != nil {
		if !errors.Is(err, model.ErrNotFound) {
			return "", false, err
		}
		if err := u.store.Delete(ctx, sessionID); err != nil {
			return "", false, errors.Join(model.ErrInternal, err)
		}
		return "", false, nil
	}
	return code, true, nil
}
