package usecase_playback

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	infra_memory "github.com/humanbelnik/musicroom/internal/infra/memory"
	"github.com/humanbelnik/musicroom/internal/model"
	"github.com/humanbelnik/musicroom/internal/service/roomlock"
	mocks "github.com/humanbelnik/musicroom/internal/usecase/playback/mocks/provider"
	usecase_room "github.com/humanbelnik/musicroom/internal/usecase/room"
	usecase_vote "github.com/humanbelnik/musicroom/internal/usecase/vote"
	"github.com/ozontech/allure-go/pkg/framework/provider"
	"github.com/ozontech/allure-go/pkg/framework/suite"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const hostID = "host-session"

type UsecasePlaybackSuite struct {
	suite.Suite
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []model.Event
}

func (n *recordingNotifier) Publish(e model.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
}

func (n *recordingNotifier) types() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.events))
	for _, e := range n.events {
		out = append(out, e.Type)
	}
	return out
}

type resources struct {
	usecase  *Usecase
	provider *mocks.Provider
	rooms    *usecase_room.Usecase
	votes    *usecase_vote.Usecase
	notifier *recordingNotifier
	ctx      context.Context
}

func initResources(t provider.T, opts ...Option) *resources {
	rooms := usecase_room.New(infra_memory.NewRoomStorage(), usecase_room.WithLogger(zerolog.Nop()))
	votes := usecase_vote.New(infra_memory.NewVoteStorage())
	prov := mocks.NewProvider(t)
	notifier := &recordingNotifier{}

	opts = append([]Option{WithLogger(zerolog.Nop()), WithNotifier(notifier)}, opts...)
	return &resources{
		usecase:  New(rooms, votes, prov, roomlock.New(), opts...),
		provider: prov,
		rooms:    rooms,
		votes:    votes,
		notifier: notifier,
		ctx:      context.Background(),
	}
}

// roomPlaying creates a room for hostID that already tracks trackID.
func (r *resources) roomPlaying(t provider.T, guestCanPause bool, votesToSkip int, trackID string) model.Room {
	room, _, err := r.rooms.CreateRoom(r.ctx, hostID, guestCanPause, votesToSkip)
	require.NoError(t, err)
	if trackID != "" {
		require.NoError(t, r.rooms.SetCurrentTrack(r.ctx, room.Code, trackID))
	}
	return room
}

func track(id string) *model.Track {
	return &model.Track{
		ID:         id,
		Title:      "Song " + id,
		Artists:    []string{"A", "B"},
		DurationMs: 200000,
		PositionMs: 1000,
		CoverURL:   "https://img/" + id,
		IsPlaying:  true,
	}
}

func (s *UsecasePlaybackSuite) TestRefreshNowPlaying(t provider.T) {
	t.Run("Should adopt first track and report zero votes", func(t provider.T) {
		r := initResources(t)
		room := r.roomPlaying(t, false, 2, "")
		r.provider.On("CurrentlyPlaying", mock.Anything, hostID).Return(track("t1"), nil).Once()

		snap, err := r.usecase.RefreshNowPlaying(r.ctx, room.Code)

		require.NoError(t, err)
		assert.Equal(t, "t1", snap.ID)
		assert.Equal(t, "A, B", snap.Artists)
		assert.Equal(t, 0, snap.Votes)
		assert.Equal(t, 2, snap.VotesRequired)
		stored, _ := r.rooms.RoomByCode(r.ctx, room.Code)
		assert.Equal(t, "t1", stored.TrackID())
		assert.Equal(t, []string{model.EventTrackChanged}, r.notifier.types())
	})

	t.Run("Should keep votes while the track is unchanged", func(t provider.T) {
		r := initResources(t)
		room := r.roomPlaying(t, false, 3, "t1")
		_, err := r.votes.CastVote(r.ctx, "guest-1", room.Code, "t1")
		require.NoError(t, err)
		r.provider.On("CurrentlyPlaying", mock.Anything, hostID).Return(track("t1"), nil).Once()

		snap, err := r.usecase.RefreshNowPlaying(r.ctx, room.Code)

		require.NoError(t, err)
		assert.Equal(t, 1, snap.Votes)
		assert.Empty(t, r.notifier.types())
	})

	t.Run("Should clear votes when the track changes", func(t provider.T) {
		r := initResources(t)
		room := r.roomPlaying(t, false, 3, "t1")
		for i := 0; i < 2; i++ {
			_, err := r.votes.CastVote(r.ctx, fmt.Sprintf("guest-%d", i), room.Code, "t1")
			require.NoError(t, err)
		}
		r.provider.On("CurrentlyPlaying", mock.Anything, hostID).Return(track("t2"), nil).Once()

		snap, err := r.usecase.RefreshNowPlaying(r.ctx, room.Code)

		require.NoError(t, err)
		assert.Equal(t, "t2", snap.ID)
		assert.Equal(t, 0, snap.Votes)
		old, _ := r.votes.CountVotes(r.ctx, room.Code, "t1")
		assert.Equal(t, 0, old)
		stored, _ := r.rooms.RoomByCode(r.ctx, room.Code)
		assert.Equal(t, "t2", stored.TrackID())
	})

	t.Run("Should return empty snapshot when nothing plays", func(t provider.T) {
		r := initResources(t)
		room := r.roomPlaying(t, false, 1, "t1")
		r.provider.On("CurrentlyPlaying", mock.Anything, hostID).Return(nil, nil).Once()

		snap, err := r.usecase.RefreshNowPlaying(r.ctx, room.Code)

		require.NoError(t, err)
		assert.True(t, snap.IsEmpty())
		stored, _ := r.rooms.RoomByCode(r.ctx, room.Code)
		assert.Equal(t, "t1", stored.TrackID())
	})

	t.Run("Should swallow provider failure without side effects", func(t provider.T) {
		r := initResources(t)
		room := r.roomPlaying(t, false, 3, "t1")
		_, err := r.votes.CastVote(r.ctx, "guest-1", room.Code, "t1")
		require.NoError(t, err)
		r.provider.On("CurrentlyPlaying", mock.Anything, hostID).Return(nil, errors.New("boom")).Once()

		snap, err := r.usecase.RefreshNowPlaying(r.ctx, room.Code)

		require.NoError(t, err)
		assert.True(t, snap.IsEmpty())
		count, _ := r.votes.CountVotes(r.ctx, room.Code, "t1")
		assert.Equal(t, 1, count)
	})

	t.Run("Should give up on a slow provider", func(t provider.T) {
		r := initResources(t, WithProviderTimeout(20*time.Millisecond))
		room := r.roomPlaying(t, false, 1, "")
		r.provider.On("CurrentlyPlaying", mock.Anything, hostID).
			Run(func(args mock.Arguments) {
				<-args.Get(0).(context.Context).Done()
			}).
			Return(nil, context.DeadlineExceeded).Once()

		snap, err := r.usecase.RefreshNowPlaying(r.ctx, room.Code)

		require.NoError(t, err)
		assert.True(t, snap.IsEmpty())
	})

	t.Run("Should report unknown room", func(t provider.T) {
		r := initResources(t)

		_, err := r.usecase.RefreshNowPlaying(r.ctx, "NOPEXX")

		assert.ErrorIs(t, err, model.ErrNotFound)
	})
}

func (s *UsecasePlaybackSuite) TestRequestSkip(t provider.T) {
	t.Run("Should skip after threshold is reached and not before", func(t provider.T) {
		for n := 1; n <= 5; n++ {
			r := initResources(t)
			room := r.roomPlaying(t, false, n, "t1")
			r.provider.On("Skip", mock.Anything, hostID).Return(nil).Once()

			for i := 0; i < n-1; i++ {
				out, err := r.usecase.RequestSkip(r.ctx, fmt.Sprintf("guest-%d", i), room.Code)
				require.NoError(t, err)
				assert.False(t, out.Skipped)
				assert.Equal(t, i+1, out.Votes)
			}
			r.provider.AssertNotCalled(t, "Skip", mock.Anything, hostID)

			out, err := r.usecase.RequestSkip(r.ctx, "guest-last", room.Code)

			require.NoError(t, err)
			assert.True(t, out.Skipped)
			count, _ := r.votes.CountVotes(r.ctx, room.Code, "t1")
			assert.Equal(t, 0, count)
			r.provider.AssertNumberOfCalls(t, "Skip", 1)
		}
	})

	t.Run("Should not double count a repeated vote", func(t provider.T) {
		r := initResources(t)
		room := r.roomPlaying(t, false, 2, "t1")

		for i := 0; i < 3; i++ {
			out, err := r.usecase.RequestSkip(r.ctx, "guest-1", room.Code)
			require.NoError(t, err)
			assert.False(t, out.Skipped)
			assert.Equal(t, 1, out.Votes)
		}
		assert.Equal(t, model.EventVotesUpdated, r.notifier.types()[0])
	})

	t.Run("Should skip with two votes of two required", func(t provider.T) {
		r := initResources(t)
		room := r.roomPlaying(t, false, 2, "t1")
		r.provider.On("Skip", mock.Anything, hostID).Return(nil).Once()

		first, err := r.usecase.RequestSkip(r.ctx, "guest-a", room.Code)
		require.NoError(t, err)
		second, err := r.usecase.RequestSkip(r.ctx, "guest-b", room.Code)
		require.NoError(t, err)

		assert.False(t, first.Skipped)
		assert.Equal(t, 1, first.Votes)
		assert.True(t, second.Skipped)
		assert.Equal(t, 0, second.Votes)
		assert.Equal(t, []string{model.EventVotesUpdated, model.EventTrackSkipped}, r.notifier.types())
	})

	t.Run("Should let host skip regardless of votes", func(t provider.T) {
		r := initResources(t)
		room := r.roomPlaying(t, false, 5, "t1")
		_, err := r.votes.CastVote(r.ctx, "guest-1", room.Code, "t1")
		require.NoError(t, err)
		r.provider.On("Skip", mock.Anything, hostID).Return(nil).Once()

		out, err := r.usecase.RequestSkip(r.ctx, hostID, room.Code)

		require.NoError(t, err)
		assert.True(t, out.Skipped)
		count, _ := r.votes.CountVotes(r.ctx, room.Code, "t1")
		assert.Equal(t, 0, count)
	})

	t.Run("Should keep votes when provider skip fails", func(t provider.T) {
		r := initResources(t)
		room := r.roomPlaying(t, false, 1, "t1")
		r.provider.On("Skip", mock.Anything, hostID).Return(errors.New("boom")).Once()

		out, err := r.usecase.RequestSkip(r.ctx, "guest-1", room.Code)

		assert.ErrorIs(t, err, model.ErrProviderUnavailable)
		assert.False(t, out.Skipped)
		count, _ := r.votes.CountVotes(r.ctx, room.Code, "t1")
		assert.Equal(t, 1, count)
	})

	t.Run("Should reject guest vote with no track", func(t provider.T) {
		r := initResources(t)
		room := r.roomPlaying(t, false, 1, "")

		_, err := r.usecase.RequestSkip(r.ctx, "guest-1", room.Code)

		assert.ErrorIs(t, err, model.ErrValidation)
	})

	t.Run("Should skip once per threshold under concurrent votes", func(t provider.T) {
		r := initResources(t)
		room := r.roomPlaying(t, false, 3, "t1")
		r.provider.On("Skip", mock.Anything, hostID).Return(nil).Times(3)

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, _ = r.usecase.RequestSkip(r.ctx, fmt.Sprintf("guest-%d", i), room.Code)
			}(i)
		}
		wg.Wait()

		r.provider.AssertNumberOfCalls(t, "Skip", 3)
		count, _ := r.votes.CountVotes(r.ctx, room.Code, "t1")
		assert.Equal(t, 1, count)
	})
}

func (s *UsecasePlaybackSuite) TestControl(t provider.T) {
	t.Run("Should deny guest pause when not allowed", func(t provider.T) {
		r := initResources(t)
		room := r.roomPlaying(t, false, 1, "t1")

		err := r.usecase.RequestPause(r.ctx, "guest-1", room.Code)

		assert.ErrorIs(t, err, model.ErrPermissionDenied)
	})

	t.Run("Should forward guest play when allowed", func(t provider.T) {
		r := initResources(t)
		room := r.roomPlaying(t, true, 1, "t1")
		r.provider.On("Play", mock.Anything, hostID).Return(nil).Once()

		err := r.usecase.RequestPlay(r.ctx, "guest-1", room.Code)

		assert.NoError(t, err)
	})

	t.Run("Should forward host pause", func(t provider.T) {
		r := initResources(t)
		room := r.roomPlaying(t, false, 1, "t1")
		r.provider.On("Pause", mock.Anything, hostID).Return(nil).Once()

		err := r.usecase.RequestPause(r.ctx, hostID, room.Code)

		assert.NoError(t, err)
	})

	t.Run("Should map provider failure", func(t provider.T) {
		r := initResources(t)
		room := r.roomPlaying(t, false, 1, "t1")
		r.provider.On("Pause", mock.Anything, hostID).Return(errors.New("boom")).Once()

		err := r.usecase.RequestPause(r.ctx, hostID, room.Code)

		assert.ErrorIs(t, err, model.ErrProviderUnavailable)
	})
}

func TestUsecasePlaybackSuite(t *testing.T) {
	suite.RunSuite(t, new(UsecasePlaybackSuite))
}
