package usecase_vote

import (
	"context"
	"fmt"

	"github.com/humanbelnik/musicroom/internal/model"
)

//go:generate mockery --name=VoteRepository --output=./mocks/repository --filename=VoteRepository.go
type VoteRepository interface {
	// Add stores the vote unless the same (user, room, track) is already there.
	Add(ctx context.Context, vote model.Vote) (added bool, err error)
	Count(ctx context.Context, roomCode string, trackID string) (int, error)
	ClearRoom(ctx context.Context, roomCode string) error
}

type Usecase struct {
	voteRepository VoteRepository
}

func New(
	r VoteRepository,
) *Usecase {
	return &Usecase{
		voteRepository: r,
	}
}

func (u *Usecase) CastVote(ctx context.Context, userID string, roomCode string, trackID string) (bool, error) {
	if userID == "" || roomCode == "" || trackID == "" {
		return false, fmt.Errorf("%w: vote needs user, room and track", model.ErrValidation)
	}

	added, err := u.voteRepository.Add(ctx, model.Vote{
		UserID:   userID,
		RoomCode: roomCode,
		TrackID:  trackID,
	})
	if err != nil {
		return false, fmt.Errorf("%w: %w", model.ErrInternal, err)
	}
	return added, nil
}

func (u *Usecase) CountVotes(ctx context.Context, roomCode string, trackID string) (int, error) {
	if trackID == "" {
		return 0, nil
	}
	n, err := u.voteRepository.Count(ctx, roomCode, trackID)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", model.ErrInternal, err)
	}
	return n, nil
}

func (u *Usecase) ClearVotes(ctx context.Context, roomCode string) error {
	if err := u.voteRepository.ClearRoom(ctx, roomCode); err != nil {
		return fmt.Errorf("%w: %w", model.ErrInternal, err)
	}
	return nil
}
