package http_spotify

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	http_common "github.com/humanbelnik/musicroom/internal/delivery/http/common"
	http_session_middleware "github.com/humanbelnik/musicroom/internal/delivery/http/middleware/session"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const stateKey = "oauth_state"

type Authenticator interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, sessionID string, code string) error
	IsAuthenticated(ctx context.Context, sessionID string) (bool, error)
}

type Controller struct {
	auth        Authenticator
	frontendURL string

	logger zerolog.Logger
}

type ControllerOption func(*Controller)

func WithLogger(logger zerolog.Logger) ControllerOption {
	return func(c *Controller) {
		c.logger = logger
	}
}

func New(
	auth Authenticator,
	frontendURL string,
	opts ...ControllerOption,
) *Controller {
	c := &Controller{
		auth:        auth,
		frontendURL: frontendURL,
		logger:      log.Logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	spotify := router.Group("/spotify")
	{
		spotify.GET("/auth-url", c.authURL)
		spotify.GET("/redirect", c.redirect)
		spotify.GET("/is-authenticated", c.isAuthenticated)
	}
}

type AuthURLResponseDTO struct {
	URL string `json:"url"`
}

type AuthStatusResponseDTO struct {
	Status bool `json:"status"`
}

func (c *Controller) authURL(ctx *gin.Context) {
	state := uuid.NewString()
	if err := http_session_middleware.SetValue(ctx, stateKey, state); err != nil {
		c.logger.Error().Err(err).Msg("failed to store oauth state")
		ctx.JSON(http.StatusInternalServerError, http_common.ErrorResponse{
			Message: "internal error",
		})
		return
	}

	ctx.JSON(http.StatusOK, AuthURLResponseDTO{URL: c.auth.AuthURL(state)})
}

func (c *Controller) redirect(ctx *gin.Context) {
	if errParam := ctx.Query("error"); errParam != "" {
		c.logger.Warn().Str("error", errParam).Msg("authorization declined")
		ctx.Redirect(http.StatusFound, c.frontendURL)
		return
	}

	state := ctx.Query("state")
	if state == "" || state != http_session_middleware.Value(ctx, stateKey) {
		ctx.JSON(http.StatusBadRequest, http_common.ErrorResponse{
			Message: "state mismatch",
		})
		return
	}
	_ = http_session_middleware.SetValue(ctx, stateKey, "")

	code := ctx.Query("code")
	if code == "" {
		ctx.JSON(http.StatusBadRequest, http_common.ErrorResponse{
			Message: "missing code",
		})
		return
	}

	if err := c.auth.Exchange(ctx, http_session_middleware.SessionID(ctx), code); err != nil {
		http_common.WriteError(ctx, c.logger, "token exchange failed", err)
		return
	}

	ctx.Redirect(http.StatusFound, c.frontendURL)
}

func (c *Controller) isAuthenticated(ctx *gin.Context) {
	ok, err := c.auth.IsAuthenticated(ctx, http_session_middleware.SessionID(ctx))
	if err != nil {
		http_common.WriteError(ctx, c.logger, "failed to check authentication", err)
		return
	}

	ctx.JSON(http.StatusOK, AuthStatusResponseDTO{Status: ok})
}
