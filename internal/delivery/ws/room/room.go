package ws_room

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	http_common "github.com/humanbelnik/musicroom/internal/delivery/http/common"
	http_session_middleware "github.com/humanbelnik/musicroom/internal/delivery/http/middleware/session"
	usecase_room "github.com/humanbelnik/musicroom/internal/usecase/room"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 512
	sendBuffer     = 32
)

type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	roomCode  string
	sessionID string
}

type Controller struct {
	hub      *Hub
	rooms    *usecase_room.Usecase
	upgrader websocket.Upgrader

	logger zerolog.Logger
}

type ControllerOption func(*Controller)

func WithLogger(logger zerolog.Logger) ControllerOption {
	return func(c *Controller) {
		c.logger = logger
	}
}

func New(
	hub *Hub,
	rooms *usecase_room.Usecase,
	opts ...ControllerOption,
) *Controller {
	c := &Controller{
		hub:   hub,
		rooms: rooms,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: log.Logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/ws/rooms/:code", c.serve)
}

func (c *Controller) serve(ctx *gin.Context) {
	room, err := c.rooms.RoomByCode(ctx, ctx.Param("code"))
	if err != nil {
		http_common.WriteError(ctx, c.logger, "websocket for unknown room", err)
		return
	}

	conn, err := c.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		c.logger.Error().Err(err).Str("room", room.Code).Msg("websocket upgrade failed")
		return
	}

	client := &Client{
		hub:       c.hub,
		conn:      conn,
		send:      make(chan []byte, sendBuffer),
		roomCode:  room.Code,
		sessionID: http_session_middleware.SessionID(ctx),
	}
	if !c.hub.Register(client) {
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// readPump only watches for the peer going away; clients never send events.
func (cl *Client) readPump() {
	defer func() {
		cl.hub.Unregister(cl)
		cl.conn.Close()
	}()

	cl.conn.SetReadLimit(maxMessageSize)
	_ = cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := cl.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (cl *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		cl.conn.Close()
	}()

	for {
		select {
		case message, ok := <-cl.send:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = cl.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := cl.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
