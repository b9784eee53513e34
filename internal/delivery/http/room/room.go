package http_room

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	http_common "github.com/humanbelnik/musicroom/internal/delivery/http/common"
	http_session_middleware "github.com/humanbelnik/musicroom/internal/delivery/http/middleware/session"
	"github.com/humanbelnik/musicroom/internal/model"
	usecase_membership "github.com/humanbelnik/musicroom/internal/usecase/membership"
	usecase_room "github.com/humanbelnik/musicroom/internal/usecase/room"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Controller struct {
	rooms      *usecase_room.Usecase
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
	rooms *usecase_room.Usecase,
	membership *usecase_membership.Usecase,
	opts ...ControllerOption,
) *Controller {
	c := &Controller{
		rooms:      rooms,
		membership: membership,
		logger:     log.Logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	rooms := router.Group("/rooms")
	{
		rooms.GET("", c.list)
		rooms.POST("", c.create)
		rooms.POST("/leave", c.leave)
		rooms.GET("/:code", c.get)
		rooms.PATCH("/:code", c.update)
		rooms.POST("/:code/join", c.join)
	}
	router.GET("/user-in-room", c.userInRoom)
}

type RoomDTO struct {
	Code          string    `json:"code"`
	GuestCanPause bool      `json:"guest_can_pause"`
	VotesToSkip   int       `json:"votes_to_skip"`
	CreatedAt     time.Time `json:"created_at"`
	IsHost        bool      `json:"is_host"`
}

func toRoomDTO(room model.Room, sessionID string) RoomDTO {
	return RoomDTO{
		Code:          room.Code,
		GuestCanPause: room.GuestCanPause,
		VotesToSkip:   room.VotesToSkip,
		CreatedAt:     room.CreatedAt,
		IsHost:        room.IsHost(sessionID),
	}
}

type SettingsRequestDTO struct {
	GuestCanPause bool `json:"guest_can_pause"`
	VotesToSkip   *int `json:"votes_to_skip"`
}

func (r SettingsRequestDTO) votesToSkip() int {
	if r.VotesToSkip == nil {
		return model.DefaultVotesToSkip
	}
	return *r.VotesToSkip
}

type CodeResponseDTO struct {
	Code string `json:"code"`
}

func (c *Controller) list(ctx *gin.Context) {
	sessionID := http_session_middleware.SessionID(ctx)

	rooms, err := c.rooms.Rooms(ctx)
	if err != nil {
		http_common.WriteError(ctx, c.logger, "failed to list rooms", err)
		return
	}

	resp := make([]RoomDTO, 0, len(rooms))
	for _, room := range rooms {
		resp = append(resp, toRoomDTO(room, sessionID))
	}
	ctx.JSON(http.StatusOK, resp)
}

func (c *Controller) get(ctx *gin.Context) {
	room, err := c.rooms.RoomByCode(ctx, ctx.Param("code"))
	if err != nil {
		http_common.WriteError(ctx, c.logger, "failed to get room", err)
		return
	}

	ctx.JSON(http.StatusOK, toRoomDTO(room, http_session_middleware.SessionID(ctx)))
}

// create opens a room for the caller or updates the one they already host.
// Either way the caller ends up inside it.
func (c *Controller) create(ctx *gin.Context) {
	sessionID := http_session_middleware.SessionID(ctx)

	var req SettingsRequestDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, http_common.ErrorResponse{
			Message: "invalid request format",
		})
		return
	}

	room, created, err := c.rooms.CreateRoom(ctx, sessionID, req.GuestCanPause, req.votesToSkip())
	if err != nil {
		http_common.WriteError(ctx, c.logger, "failed to create room", err)
		return
	}
	if err := c.membership.Join(ctx, sessionID, room.Code); err != nil {
		http_common.WriteError(ctx, c.logger, "failed to join created room", err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	ctx.JSON(status, toRoomDTO(room, sessionID))
}

func (c *Controller) update(ctx *gin.Context) {
	sessionID := http_session_middleware.SessionID(ctx)

	var req SettingsRequestDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, http_common.ErrorResponse{
			Message: "invalid request format",
		})
		return
	}

	room, err := c.rooms.UpdateRoom(ctx, ctx.Param("code"), sessionID, req.GuestCanPause, req.votesToSkip())
	if err != nil {
		http_common.WriteError(ctx, c.logger, "failed to update room", err)
		return
	}

	ctx.JSON(http.StatusOK, toRoomDTO(room, sessionID))
}

func (c *Controller) join(ctx *gin.Context) {
	code := ctx.Param("code")

	if err := c.membership.Join(ctx, http_session_middleware.SessionID(ctx), code); err != nil {
		http_common.WriteError(ctx, c.logger, "failed to join room", err)
		return
	}

	ctx.JSON(http.StatusOK, CodeResponseDTO{Code: code})
}

func (c *Controller) leave(ctx *gin.Context) {
	if err := c.membership.Leave(ctx, http_session_middleware.SessionID(ctx)); err != nil {
		http_common.WriteError(ctx, c.logger, "failed to leave room", err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

func (c *Controller) userInRoom(ctx *gin.Context) {
	code, _, err := c.membership.CurrentRoom(ctx, http_session_middleware.SessionID(ctx))
	if err != nil {
		http_common.WriteError(ctx, c.logger, "failed to resolve membership", err)
		return
	}

	ctx.JSON(http.StatusOK, CodeResponseDTO{Code: code})
}
