package ws

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"TrenchGame/modules/kit/logx"

	"github.com/gorilla/websocket"
	"github.com/segmentio/ksuid"
	"go.uber.org/zap"
)

const (
	outChanSize = 256
	writeWait   = 10 * time.Second
)

// WsServer owns one upgraded connection: a read loop feeding the router and
// a write loop draining outChan.
type WsServer struct {
	id       string
	conn     *websocket.Conn
	router   *Router
	outChan  chan any
	property map[string]any
	sync.RWMutex
	done      chan struct{}
	closeOnce sync.Once
	log       logx.Logger
}

func NewWsServer(wsConn *websocket.Conn, l logx.Logger) *WsServer {
	return &WsServer{
		id:       ksuid.New().String(),
		conn:     wsConn,
		outChan:  make(chan any, outChanSize),
		property: make(map[string]any),
		done:     make(chan struct{}),
		log:      logx.OrNop(l),
	}
}

func (s *WsServer) Router(router *Router) {
	s.router = router
}

func (s *WsServer) ID() string {
	return s.id
}

func (s *WsServer) SetProperty(key string, value any) {
	s.Lock()
	defer s.Unlock()
	s.property[key] = value
}

func (s *WsServer) GetProperty(key string) any {
	s.RLock()
	defer s.RUnlock()
	return s.property[key]
}

func (s *WsServer) RemoveProperty(key string) {
	s.Lock()
	defer s.Unlock()
	delete(s.property, key)
}

func (s *WsServer) Addr() string {
	return s.conn.RemoteAddr().String()
}

func (s *WsServer) Push(msg any) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.outChan <- msg:
		return true
	default:
		s.log.Warn("ws_server out queue full, message dropped", zap.String("conn_id", s.id))
		return false
	}
}

func (s *WsServer) Run() {
	go s.readMsgLoop()
	go s.writeMsgLoop()
}

func (s *WsServer) readMsgLoop() {
	defer func() {
		if err := recover(); err != nil {
			s.log.Error("ws readMsgLoop panic", zap.String("err", fmt.Sprintf("%v", err)), zap.String("conn_id", s.id))
		}
		s.Close()
	}()
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warn("ws_server read msg", zap.Error(err), zap.String("conn_id", s.id))
			}
			return
		}

		req := WsMsgReq{Conn: s}
		if body, err := decodeReqBody(data); err != nil {
			s.log.Debug("ws_server malformed msg", zap.Error(err), zap.String("conn_id", s.id))
		} else {
			req.Body = body
		}
		resp := WsMsgResp{Body: &RespBody{}}
		s.router.Dispatch(&req, &resp)

		if resp.Body.Msg != nil {
			s.Push(resp.Body.Msg)
		}
	}
}

func decodeReqBody(data []byte) (*ReqBody, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, err
	}
	if fields == nil {
		return nil, errors.New("message is null")
	}
	typ, _ := fields[TypeKey].(string)
	return &ReqBody{Type: typ, Fields: fields}, nil
}

func (s *WsServer) writeMsgLoop() {
	for {
		select {
		case msg := <-s.outChan:
			if err := s.write(msg); err != nil {
				s.log.Warn("ws_server write error", zap.Error(err), zap.String("conn_id", s.id))
				s.Close()
				return
			}
		case <-s.done:
			return
		}
	}
}

func (s *WsServer) write(msg any) error {
	data, err := json.Marshal(msg)
	if err != nil {
		s.log.Error("ws_server write marshal json error", zap.Error(err), zap.String("conn_id", s.id))
		return nil
	}
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

func (s *WsServer) Close() {
	s.closeOnce.Do(func() {
		_ = s.conn.Close()
		close(s.done)
	})
}

func (s *WsServer) Done() <-chan struct{} {
	return s.done
}
