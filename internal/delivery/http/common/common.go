package http_common

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/humanbelnik/musicroom/internal/model"
	"github.com/rs/zerolog"
)

type ErrorResponse struct {
	Message string `json:"message"`
}

// StatusFor maps domain errors to an HTTP status and a client-facing message.
func StatusFor(err error) (int, string) {
	switch {
	case errors.Is(err, model.ErrValidation):
		return http.StatusBadRequest, "invalid request"
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, model.ErrPermissionDenied):
		return http.StatusForbidden, "permission denied"
	case errors.Is(err, model.ErrProviderUnavailable):
		return http.StatusBadGateway, "playback provider unavailable"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func WriteError(ctx *gin.Context, logger zerolog.Logger, msg string, err error) {
	status, message := StatusFor(err)

	event := logger.Warn()
	if status >= http.StatusInternalServerError {
		event = logger.Error()
	}
	event.Err(err).Int("status", status).Str("path", ctx.FullPath()).Msg(msg)

	ctx.JSON(status, ErrorResponse{Message: message})
}

// SongDTO is the now-playing view shared by REST and websocket clients.
type SongDTO struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Artist        string `json:"artist"`
	Duration      int    `json:"duration"`
	Time          int    `json:"time"`
	ImageURL      string `json:"image_url"`
	IsPlaying     bool   `json:"is_playing"`
	Votes         int    `json:"votes"`
	VotesRequired int    `json:"votes_required"`
}

func NewSongDTO(s model.Snapshot) SongDTO {
	return SongDTO{
		ID:            s.ID,
		Title:         s.Title,
		Artist:        s.Artists,
		Duration:      s.Duration,
		Time:          s.Time,
		ImageURL:      s.ImageURL,
		IsPlaying:     s.IsPlaying,
		Votes:         s.Votes,
		VotesRequired: s.VotesRequired,
	}
}

type SkipOutcomeDTO struct {
	Skipped       bool `json:"skipped"`
	Votes         int  `json:"votes"`
	VotesRequired int  `json:"votes_required"`
}

func NewSkipOutcomeDTO(o model.SkipOutcome) SkipOutcomeDTO {
	return SkipOutcomeDTO{
		Skipped:       o.Skipped,
		Votes:         o.Votes,
		VotesRequired: o.VotesRequired,
	}
}
