package model

type Vote struct {
	UserID   string
	RoomCode string
	TrackID  string
}

type SkipOutcome struct {
	Skipped       bool
	Votes         int
	VotesRequired int
}
