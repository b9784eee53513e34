package model

const (
	EventNowPlaying   = "NOW_PLAYING"
	EventTrackChanged = "TRACK_CHANGED"
	EventVotesUpdated = "VOTES_UPDATED"
	EventTrackSkipped = "TRACK_SKIPPED"
	EventRoomClosed   = "ROOM_CLOSED"
)

type Event struct {
	Type     string `json:"type"`
	RoomCode string `json:"room_code"`
	Payload  any    `json:"payload,omitempty"`
}
