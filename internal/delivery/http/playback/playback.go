package http_playback

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	http_common "github.com/humanbelnik/musicroom/internal/delivery/http/common"
	http_session_middleware "github.com/humanbelnik/musicroom/internal/delivery/http/middleware/session"
	"github.com/humanbelnik/musicroom/internal/model"
	usecase_membership "github.com/humanbelnik/musicroom/internal/usecase/membership"
	usecase_playback "github.com/humanbelnik/musicroom/internal/usecase/playback"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Controller struct {
	playback   *usecase_playback.Usecase
	membership *usecase_membership.Usecase

	logger zerolog.Logger
}

type ControllerOption func(*Controller)

func WithLogger(logger zerolog.Logger) ControllerOption {
	return func(c *Controller) {
		c.logger = logger
	}
}

func New(
	playback *usecase_playback.Usecase,
	membership *usecase_membership.Usecase,
	opts ...ControllerOption,
) *Controller {
	c := &Controller{
		playback:   playback,
		membership: membership,
		logger:     log.Logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	playback := router.Group("/playback")
	{
		playback.GET("/current-song", c.currentSong)
		playback.PUT("/pause", c.pause)
		playback.PUT("/play", c.play)
		playback.POST("/skip", c.skip)
	}
}

// roomOf resolves the room the caller is a member of.
func (c *Controller) roomOf(ctx *gin.Context) (string, error) {
	code, ok, err := c.membership.CurrentRoom(ctx, http_session_middleware.SessionID(ctx))
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%w: session is not in a room", model.ErrNotFound)
	}
	return code, nil
}

func (c *Controller) currentSong(ctx *gin.Context) {
	code, err := c.roomOf(ctx)
	if err != nil {
		http_common.WriteError(ctx, c.logger, "failed to resolve room", err)
		return
	}

	snap, err := c.playback.RefreshNowPlaying(ctx, code)
	if err != nil {
		http_common.WriteError(ctx, c.logger, "failed to refresh now playing", err)
		return
	}
	if snap.IsEmpty() {
		ctx.Status(http.StatusNoContent)
		return
	}

	ctx.JSON(http.StatusOK, http_common.NewSongDTO(snap))
}

func (c *Controller) pause(ctx *gin.Context) {
	c.command(ctx, "pause", c.playback.RequestPause)
}

func (c *Controller) play(ctx *gin.Context) {
	c.command(ctx, "play", c.playback.RequestPlay)
}

func (c *Controller) skip(ctx *gin.Context) {
	c.command(ctx, "skip", func(ctx context.Context, requesterID string, code string) error {
		_, err := c.playback.RequestSkip(ctx, requesterID, code)
		return err
	})
}

func (c *Controller) command(
	ctx *gin.Context,
	action string,
	fn func(ctx context.Context, requesterID string, code string) error,
) {
	code, err := c.roomOf(ctx)
	if err != nil {
		http_common.WriteError(ctx, c.logger, "failed to resolve room", err)
		return
	}

	if err := fn(ctx, http_session_middleware.SessionID(ctx), code); err != nil {
		http_common.WriteError(ctx, c.logger, action+" failed", err)
		return
	}

	ctx.Status(http.StatusNoContent)
}
