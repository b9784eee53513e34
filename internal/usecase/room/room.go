package usecase_room

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/humanbelnik/musicroom/internal/model"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	// Returned by repositories when a unique index rejects an insert.
	ErrCodeConflict = errors.New("code conflict")
	ErrHostConflict = errors.New("host already owns a room")
)

//go:generate mockery --name=RoomRepository --output=./mocks/repository --filename=RoomRepository.go
type RoomRepository interface {
	Create(ctx context.Context, room model.Room) error
	ByCode(ctx context.Context, code string) (model.Room, error)
	ByHost(ctx context.Context, hostID string) (model.Room, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	UpdateSettings(ctx context.Context, code string, guestCanPause bool, votesToSkip int) error
	SetCurrentTrack(ctx context.Context, code string, trackID *string) error
	DeleteByHost(ctx context.Context, hostID string) (model.Room, error)
	List(ctx context.Context) ([]model.Room, error)
}

type Usecase struct {
	repo    RoomRepository
	logger  zerolog.Logger
	now     func() time.Time
	newCode func() string
}

type Option func(*Usecase)

func WithLogger(logger zerolog.Logger) Option {
	return func(u *Usecase) {
		u.logger = logger
	}
}

func WithCodeGenerator(gen func() string) Option {
	return func(u *Usecase) {
		u.newCode = gen
	}
}

func WithClock(now func() time.Time) Option {
	return func(u *Usecase) {
		u.now = now
	}
}

func New(repo RoomRepository, opts ...Option) *Usecase {
	u := &Usecase{
		repo:    repo,
		logger:  log.Logger,
		now:     time.Now,
		newCode: buildRoomCode,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// CreateRoom is an upsert keyed by host: a host that already owns a room gets
// its settings updated and created=false.
func (u *Usecase) CreateRoom(ctx context.Context, hostID string, guestCanPause bool, votesToSkip int) (room model.Room, created bool, err error) {
	if hostID == "" {
		return model.Room{}, false, fmt.Errorf("%w: empty host", model.ErrValidation)
	}
	if err := validateVotesToSkip(votesToSkip); err != nil {
		return model.Room{}, false, err
	}

	for {
		if err := ctx.Err(); err != nil {
			return model.Room{}, false, err
		}

		existing, err := u.repo.ByHost(ctx, hostID)
		if err == nil {
			room, err := u.applySettings(ctx, existing, guestCanPause, votesToSkip)
			return room, false, err
		}
		if !errors.Is(err, model.ErrNotFound) {
			return model.Room{}, false, errors.Join(model.ErrInternal, err)
		}

		code, err := u.resolveRoomCode(ctx)
		if err != nil {
			return model.Room{}, false, err
		}

		room = model.Room{
			Code:          code,
			HostID:        hostID,
			GuestCanPause: guestCanPause,
			VotesToSkip:   votesToSkip,
			CreatedAt:     u.now().UTC(),
		}
		err = u.repo.Create(ctx, room)
		switch {
		case err == nil:
			u.logger.Info().Str("room", code).Str("host", hostID).Msg("room created")
			return room, true, nil
		case errors.Is(err, ErrCodeConflict):
			// Code was taken between the check and the insert.
			u.logger.Warn().Str("room", code).Msg("room code conflict, retrying")
		case errors.Is(err, ErrHostConflict):
			// Concurrent create by the same host won, next pass updates it.
			u.logger.Warn().Str("host", hostID).Msg("host conflict, retrying as update")
		default:
			return model.Room{}, false, errors.Join(model.ErrInternal, err)
		}
	}
}

// Rejection sampling against existing codes. The code space is 26^6 so this
// terminates in practice.
func (u *Usecase) resolveRoomCode(ctx context.Context) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		code := u.newCode()
		exists, err := u.repo.CodeExists(ctx, code)
		if err != nil {
			return "", errors.Join(model.ErrInternal, err)
		}
		if !exists {
			return code, nil
		}
	}
}

func buildRoomCode() string {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	var builder strings.Builder
	builder.Grow(model.RoomCodeLength)

	for range model.RoomCodeLength {
		builder.WriteByte(letters[rand.IntN(len(letters))])
	}

	return builder.String()
}

func (u *Usecase) RoomByCode(ctx context.Context, code string) (model.Room, error) {
	room, err := u.repo.ByCode(ctx, code)
	if err != nil {
		return model.Room{}, wrapRepoErr(err)
	}
	return room, nil
}

func (u *Usecase) RoomByHost(ctx context.Context, hostID string) (model.Room, error) {
	room, err := u.repo.ByHost(ctx, hostID)
	if err != nil {
		return model.Room{}, wrapRepoErr(err)
	}
	return room, nil
}

func (u *Usecase) Rooms(ctx context.Context) ([]model.Room, error) {
	rooms, err := u.repo.List(ctx)
	if err != nil {
		return nil, errors.Join(model.ErrInternal, err)
	}
	return rooms, nil
}

func (u *Usecase) UpdateRoom(ctx context.Context, code string, requesterID string, guestCanPause bool, votesToSkip int) (model.Room, error) {
	if err := validateVotesToSkip(votesToSkip); err != nil {
		return model.Room{}, err
	}

	room, err := u.repo.ByCode(ctx, code)
	if err != nil {
		return model.Room{}, wrapRepoErr(err)
	}
	if !room.IsHost(requesterID) {
		return model.Room{}, model.ErrPermissionDenied
	}

	return u.applySettings(ctx, room, guestCanPause, votesToSkip)
}

// DeleteRoom removes the room owned by hostID. Having no room is not an error,
// deleted is nil then.
func (u *Usecase) DeleteRoom(ctx context.Context, hostID string) (deleted *model.Room, err error) {
	room, err := u.repo.DeleteByHost(ctx, hostID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, nil
		}
		return nil, errors.Join(model.ErrInternal, err)
	}
	u.logger.Info().Str("room", room.Code).Str("host", hostID).Msg("room deleted")
	return &room, nil
}

func (u *Usecase) SetCurrentTrack(ctx context.Context, code string, trackID string) error {
	var id *string
	if trackID != "" {
		id = &trackID
	}
	if err := u.repo.SetCurrentTrack(ctx, code, id); err != nil {
		return wrapRepoErr(err)
	}
	return nil
}

func (u *Usecase) applySettings(ctx context.Context, room model.Room, guestCanPause bool, votesToSkip int) (model.Room, error) {
	if err := u.repo.UpdateSettings(ctx, room.Code, guestCanPause, votesToSkip); err != nil {
		return model.Room{}, wrapRepoErr(err)
	}
	room.GuestCanPause = guestCanPause
	room.VotesToSkip = votesToSkip
	return room, nil
}

func validateVotesToSkip(votesToSkip int) error {
	if votesToSkip <= 0 {
		return fmt.Errorf("%w: votes to skip must be positive, got %d", model.ErrValidation, votesToSkip)
	}
	return nil
}

func wrapRepoErr(err error) error {
	if errors.Is(err, model.ErrNotFound) {
		return model.ErrNotFound
	}
	return errors.Join(model.ErrInternal, err)
}
