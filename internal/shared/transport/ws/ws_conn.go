package ws

import "TrenchGame/internal/shared/transport"

// ReqBody is one inbound JSON text frame. Fields holds the whole decoded
// object, Type included; numbers are kept as json.Number.
type ReqBody struct {
	Type   string
	Fields map[string]any
}

// RespBody is what a handler leaves behind for the router: the result code
// for the access log and, optionally, a message for the sender only.
type RespBody struct {
	Code    transport.BizCode
	Reason  string
	Message string
	Msg     any
}

type WsMsgReq struct {
	Body *ReqBody
	Conn WSConn
}

type WsMsgResp struct {
	Body *RespBody
}

// WSConn is one client connection as seen by handlers.
type WSConn interface {
	// ID is unique for the life of the process.
	ID() string
	// Properties are per-connection annotations set by handlers, such as
	// the battle the connection plays in.
	SetProperty(key string, value any)
	GetProperty(key string) any
	RemoveProperty(key string)
	Addr() string
	// Push queues msg for the write loop. It never blocks; false means the
	// message was dropped because the connection is closed or backed up.
	Push(msg any) bool
	Close()
	// Done is closed when the connection ends.
	Done() <-chan struct{}
}

const TypeKey = "type"

// PropBattleID holds the id of the battle a connection was seated in. The
// router copies it into every access log line of that connection.
const PropBattleID = "battle_id"
