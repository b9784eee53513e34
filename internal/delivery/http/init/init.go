package http_init

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/humanbelnik/musicroom/internal/config"
)

const apiPrefix = "/api/v1"

type Controller interface {
	RegisterRoutes(router *gin.RouterGroup)
}

type ControllerPool struct {
	pool   []Controller
	rg     *gin.RouterGroup
	engine *gin.Engine
}

// NewControllerPool builds the engine; middlewares apply to every API route.
func NewControllerPool(mode string, middlewares ...gin.HandlerFunc) *ControllerPool {
	if mode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	if mode == gin.DebugMode {
		engine.Use(gin.Logger())
	}
	engine.Use(gin.Recovery())

	rg := engine.Group(apiPrefix, middlewares...)
	return &ControllerPool{
		pool:   make([]Controller, 0, 4),
		rg:     rg,
		engine: engine,
	}
}

func (pool *ControllerPool) Register() {
	for _, c := range pool.pool {
		c.RegisterRoutes(pool.rg)
	}
}

func (pool *ControllerPool) Add(c Controller) {
	pool.pool = append(pool.pool, c)
}

func (pool *ControllerPool) Handler() http.Handler {
	return pool.engine
}

func (pool *ControllerPool) Server(cfg config.HTTPServer) *http.Server {
	return &http.Server{
		Addr:              cfg.Host + ":" + cfg.Port,
		Handler:           pool.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
