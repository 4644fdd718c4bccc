package ws

import (
	"net/http"

	"TrenchGame/modules/kit/logx"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Server upgrades HTTP requests and starts a WsServer per connection.
type Server struct {
	router    *Router
	log       logx.Logger
	readLimit int64
	upgrader  websocket.Upgrader
	onConnect func(WSConn)
}

func NewServer(r *Router, l logx.Logger, readLimit int64) *Server {
	return &Server{
		router:    r,
		log:       logx.OrNop(l),
		readLimit: readLimit,
		upgrader: websocket.Upgrader{
			// Browser clients are served from any origin.
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// OnConnect registers fn to run for every new connection before its loops start.
func (s *Server) OnConnect(fn func(WSConn)) {
	s.onConnect = fn
}

func (s *Server) ServeHTTP(resp http.ResponseWriter, req *http.Request) {
	wsConn, err := s.upgrader.Upgrade(resp, req, nil)
	if err != nil {
		s.log.Error("websocket upgrade error", zap.Error(err))
		return
	}
	if s.readLimit > 0 {
		wsConn.SetReadLimit(s.readLimit)
	}

	wsServer := NewWsServer(wsConn, s.log)
	wsServer.Router(s.router)
	s.log.Info("websocket upgrade success", zap.String("conn_id", wsServer.ID()), zap.String("addr", wsServer.Addr()))
	if s.onConnect != nil {
		s.onConnect(wsServer)
	}
	wsServer.Run()
}
