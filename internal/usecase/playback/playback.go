package usecase_playback

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/humanbelnik/musicroom/internal/model"
	"github.com/humanbelnik/musicroom/internal/service/roomlock"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const DefaultProviderTimeout = 3 * time.Second

//go:generate mockery --name=Provider --output=./mocks/provider --filename=Provider.go
type Provider interface {
	// CurrentlyPlaying returns nil, nil when nothing is playing.
	CurrentlyPlaying(ctx context.Context, hostID string) (*model.Track, error)
	Pause(ctx context.Context, hostID string) error
	Play(ctx context.Context, hostID string) error
	Skip(ctx context.Context, hostID string) error
}

type RoomRegistry interface {
	RoomByCode(ctx context.Context, code string) (model.Room, error)
	SetCurrentTrack(ctx context.Context, code string, trackID string) error
}

type VoteLedger interface {
	CastVote(ctx context.Context, userID string, roomCode string, trackID string) (bool, error)
	CountVotes(ctx context.Context, roomCode string, trackID string) (int, error)
	ClearVotes(ctx context.Context, roomCode string) error
}

type Notifier interface {
	Publish(event model.Event)
}

type Usecase struct {
	rooms    RoomRegistry
	votes    VoteLedger
	provider Provider
	locker   *roomlock.Locker
	notifier Notifier
	timeout  time.Duration
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

func WithProviderTimeout(d time.Duration) Option {
	return func(u *Usecase) {
		if d > 0 {
			u.timeout = d
		}
	}
}

func New(
	rooms RoomRegistry,
	votes VoteLedger,
	provider Provider,
	locker *roomlock.Locker,
	opts ...Option,
) *Usecase {
	u := &Usecase{
		rooms:    rooms,
		votes:    votes,
		provider: provider,
		locker:   locker,
		timeout:  DefaultProviderTimeout,
		logger:   log.Logger,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// RefreshNowPlaying asks the provider what the host is playing. A provider
// failure or idle player yields an empty snapshot and changes nothing.
// When the track differs from the one on record, the room switches to it and
// its votes are dropped before they are counted for the snapshot.
func (u *Usecase) RefreshNowPlaying(ctx context.Context, code string) (model.Snapshot, error) {
	unlock := u.locker.Lock(code)
	defer unlock()

	room, err := u.rooms.RoomByCode(ctx, code)
	if err != nil {
		return model.Snapshot{}, err
	}

	track, err := u.currentlyPlaying(ctx, room.HostID)
	if err != nil {
		u.logger.Warn().Err(err).Str("room", code).Msg("now playing unavailable")
		return model.Snapshot{}, nil
	}
	if track == nil || track.ID == "" {
		return model.Snapshot{}, nil
	}

	changed := track.ID != room.TrackID()
	if changed {
		if err := u.rooms.SetCurrentTrack(ctx, code, track.ID); err != nil {
			return model.Snapshot{}, err
		}
		if err := u.votes.ClearVotes(ctx, code); err != nil {
			return model.Snapshot{}, err
		}
		u.logger.Info().Str("room", code).Str("track", track.ID).Msg("track changed, votes reset")
	}

	votes, err := u.votes.CountVotes(ctx, code, track.ID)
	if err != nil {
		return model.Snapshot{}, err
	}

	snap := model.NewSnapshot(*track, votes, room.VotesToSkip)
	if changed {
		u.publish(model.Event{Type: model.EventTrackChanged, RoomCode: code, Payload: snap})
	}
	return snap, nil
}

// RequestSkip lets the host skip outright. A guest request is a vote for the
// current track; the vote is stored first and the skip fires once the stored
// count reaches the room threshold.
func (u *Usecase) RequestSkip(ctx context.Context, requesterID string, code string) (model.SkipOutcome, error) {
	unlock := u.locker.Lock(code)
	defer unlock()

	room, err := u.rooms.RoomByCode(ctx, code)
	if err != nil {
		return model.SkipOutcome{}, err
	}
	outcome := model.SkipOutcome{VotesRequired: room.VotesToSkip}

	if room.IsHost(requesterID) {
		if err := u.skip(ctx, room, "host"); err != nil {
			return outcome, err
		}
		outcome.Skipped = true
		return outcome, nil
	}

	trackID := room.TrackID()
	if trackID == "" {
		return outcome, fmt.Errorf("%w: no track is playing in room %s", model.ErrValidation, code)
	}

	if _, err := u.votes.CastVote(ctx, requesterID, code, trackID); err != nil {
		return outcome, err
	}
	count, err := u.votes.CountVotes(ctx, code, trackID)
	if err != nil {
		return outcome, err
	}
	outcome.Votes = count

	if count < room.VotesToSkip {
		u.publish(model.Event{
			Type:     model.EventVotesUpdated,
			RoomCode: code,
			Payload:  outcome,
		})
		return outcome, nil
	}

	// Votes stay recorded if the provider fails so a retry still meets the threshold.
	if err := u.skip(ctx, room, "vote"); err != nil {
		return outcome, err
	}
	outcome.Skipped = true
	outcome.Votes = 0
	return outcome, nil
}

func (u *Usecase) RequestPause(ctx context.Context, requesterID string, code string) error {
	return u.control(ctx, requesterID, code, "pause", u.provider.Pause)
}

func (u *Usecase) RequestPlay(ctx context.Context, requesterID string, code string) error {
	return u.control(ctx, requesterID, code, "play", u.provider.Play)
}

func (u *Usecase) control(
	ctx context.Context,
	requesterID string,
	code string,
	action string,
	fn func(ctx context.Context, hostID string) error,
) error {
	room, err := u.rooms.RoomByCode(ctx, code)
	if err != nil {
		return err
	}
	if !room.CanControlPlayback(requesterID) {
		return model.ErrPermissionDenied
	}

	if err := u.callProvider(ctx, room.HostID, fn); err != nil {
		u.logger.Error().Err(err).Str("room", code).Str("action", action).Msg("playback command failed")
		return err
	}
	return nil
}

func (u *Usecase) skip(ctx context.Context, room model.Room, reason string) error {
	if err := u.callProvider(ctx, room.HostID, u.provider.Skip); err != nil {
		u.logger.Error().Err(err).Str("room", room.Code).Msg("skip failed")
		return err
	}
	if err := u.votes.ClearVotes(ctx, room.Code); err != nil {
		return err
	}

	u.logger.Info().Str("room", room.Code).Str("track", room.TrackID()).Str("reason", reason).Msg("track skipped")
	u.publish(model.Event{
		Type:     model.EventTrackSkipped,
		RoomCode: room.Code,
		Payload:  map[string]string{"reason": reason, "track_id": room.TrackID()},
	})
	return nil
}

func (u *Usecase) currentlyPlaying(ctx context.Context, hostID string) (*model.Track, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	track, err := u.provider.CurrentlyPlaying(ctx, hostID)
	if err != nil {
		return nil, errors.Join(model.ErrProviderUnavailable, err)
	}
	return track, nil
}

func (u *Usecase) callProvider(ctx context.Context, hostID string, fn func(ctx context.Context, hostID string) error) error {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	if err := fn(ctx, hostID); err != nil {
		return errors.Join(model.ErrProviderUnavailable, err)
	}
	return nil
}

func (u *Usecase) publish(e model.Event) {
	if u.notifier != nil {
		u.notifier.Publish(e)
	}
}
