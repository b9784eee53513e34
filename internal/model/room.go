package model

import "time"

const (
	RoomCodeLength     = 6
	DefaultVotesToSkip = 1
)

type Room struct {
	Code          string
	HostID        string
	GuestCanPause bool
	VotesToSkip   int
	// nil until the provider reported a track for this room
	CurrentTrackID *string
	CreatedAt      time.Time
}

func (r Room) IsHost(sessionID string) bool {
	return sessionID != "" && r.HostID == sessionID
}

func (r Room) CanControlPlayback(sessionID string) bool {
	return r.IsHost(sessionID) || r.GuestCanPause
}

func (r Room) TrackID() string {
	if r.CurrentTrackID == nil {
		return ""
	}
	return *r.CurrentTrackID
}
