package model

import "strings"

const artistsSeparator = ", "

// Track is what the playback provider reports as currently playing.
type Track struct {
	ID         string
	Title      string
	Artists    []string
	DurationMs int
	PositionMs int
	CoverURL   string
	IsPlaying  bool
}

type Snapshot struct {
	ID            string
	Title         string
	Artists       string
	Duration      int
	Time          int
	ImageURL      string
	IsPlaying     bool
	Votes         int
	VotesRequired int
}

func (s Snapshot) IsEmpty() bool {
	return s.ID == ""
}

func NewSnapshot(t Track, votes, votesRequired int) Snapshot {
	return Snapshot{
		ID:            t.ID,
		Title:         t.Title,
		Artists:       strings.Join(t.Artists, artistsSeparator),
		Duration:      t.DurationMs,
		Time:          t.PositionMs,
		ImageURL:      t.CoverURL,
		IsPlaying:     t.IsPlaying,
		Votes:         votes,
		VotesRequired: votesRequired,
	}
}
