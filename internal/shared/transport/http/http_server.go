package http

import (
	"context"
	nethttp "net/http"
	"time"

	"TrenchGame/internal/shared/transport/http/middleware"
	"TrenchGame/modules/kit/logx"

	"github.com/gin-gonic/gin"
)

// Registrar is a module that serves HTTP routes.
type Registrar interface {
	HttpRegister(g *gin.RouterGroup)
}

type Server struct {
	engine *gin.Engine
	group  *gin.RouterGroup
	srv    *nethttp.Server
}

// NewHttpServer wires recovery, CORS, access logging and /healthz onto engine.
// No write timeout is set because /ws connections are long lived.
func NewHttpServer(addr string, engine *gin.Engine, logger logx.Logger) *Server {
	if engine == nil {
		engine = gin.New()
	}
	engine.Use(gin.Recovery())
	engine.Use(middleware.Cors())
	engine.Use(middleware.AccessLog(logx.OrNop(logger)))
	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(nethttp.StatusOK, gin.H{"status": "ok"})
	})

	return &Server{
		engine: engine,
		group:  engine.Group(""),
		srv: &nethttp.Server{
			Addr:              addr,
			Handler:           engine,
			ReadHeaderTimeout: 5 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
	}
}

// Start blocks serving HTTP. It returns nethttp.ErrServerClosed after Shutdown.
func (s *Server) Start() error {
	return s.srv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) Group() *gin.RouterGroup {
	return s.group
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) Handler() nethttp.Handler {
	return s.engine
}
