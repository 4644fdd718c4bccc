package ws

import (
	"context"
	"strings"

	"TrenchGame/internal/shared/transport"
	"TrenchGame/modules/kit/logx"

	"go.uber.org/zap"
)

type Group struct {
	prefix   string
	handlers map[string]HandlerFunc
}

type HandlerFunc func(ctx context.Context, req *WsMsgReq, resp *WsMsgResp)

// RejectFunc renders a routing failure into a message for the sender.
type RejectFunc func(req *WsMsgReq, resp *WsMsgResp) any

func (g *Group) Handle(name string, h HandlerFunc) {
	g.handlers[name] = h
}

// Registrar is a module that serves WS message types.
type Registrar interface {
	WsRegister(r *Router)
}

type Router struct {
	groups map[string]*Group
	log    logx.Logger
	reject RejectFunc
}

func NewRouter(l logx.Logger) *Router {
	return &Router{
		groups: make(map[string]*Group),
		log:    logx.OrNop(l),
	}
}

// Group returns the handler group for messages typed "<prefix>:<name>".
// The empty prefix holds plain names such as "start".
func (r *Router) Group(prefix string) *Group {
	group := r.groups[prefix]
	if group == nil {
		group = &Group{
			prefix:   prefix,
			handlers: make(map[string]HandlerFunc),
		}
		r.groups[prefix] = group
	}
	return group
}

func (r *Router) OnReject(fn RejectFunc) {
	r.reject = fn
}

// Dispatch routes req by its type and writes one access log line.
func (r *Router) Dispatch(req *WsMsgReq, resp *WsMsgResp) {
	ctx := r.prepareDispatchContext(req, resp)
	defer r.writeAccessLog(ctx, resp)
	defer r.recoverHandler(ctx, resp)

	if !r.validateDispatchInput(req, resp) {
		return
	}

	handlerFunc := r.findHandler(req.Body.Type, resp)
	if handlerFunc == nil {
		r.renderReject(req, resp)
		return
	}

	handlerFunc(ctx, req, resp)
}

func (r *Router) prepareDispatchContext(req *WsMsgReq, resp *WsMsgResp) context.Context {
	action := "WS unknown"
	if req != nil && req.Body != nil && req.Body.Type != "" {
		action = "WS " + req.Body.Type
	}
	ctx := transport.NewContext(action)
	if req != nil && req.Conn != nil {
		transport.AddFields(ctx, zap.String("conn_id", req.Conn.ID()))
		if id, ok := req.Conn.GetProperty(PropBattleID).(string); ok && id != "" {
			transport.AddFields(ctx, zap.String("battle_id", id))
		}
	}

	if resp != nil && resp.Body != nil {
		// A handler that forgets to set a code is logged as a failure.
		resp.Body.Code = transport.SystemError
		resp.Body.Msg = nil
	}
	return ctx
}

func (r *Router) validateDispatchInput(req *WsMsgReq, resp *WsMsgResp) bool {
	if req != nil && req.Body != nil && resp != nil && resp.Body != nil {
		return true
	}
	r.setErrorResponse(resp, transport.InvalidParam, "MALFORMED_MESSAGE", "message is not a JSON object")
	r.renderReject(req, resp)
	return false
}

func (r *Router) findHandler(route string, resp *WsMsgResp) HandlerFunc {
	prefix, handler, ok := parseRouteName(route)
	if !ok {
		r.setErrorResponse(resp, transport.InvalidParam, "MALFORMED_MESSAGE", "missing message type")
		return nil
	}

	group := r.groups[prefix]
	if group == nil {
		r.setErrorResponse(resp, transport.InvalidParam, "MALFORMED_MESSAGE", "unknown message group")
		return nil
	}

	handlerFunc := group.handlers[handler]
	if handlerFunc == nil {
		r.setErrorResponse(resp, transport.InvalidParam, "MALFORMED_MESSAGE", "unknown message type")
		return nil
	}
	return handlerFunc
}

func parseRouteName(name string) (string, string, bool) {
	if name == "" {
		return "", "", false
	}
	prefix, handler, found := strings.Cut(name, ":")
	if !found {
		return "", name, true
	}
	if prefix == "" || handler == "" || strings.Contains(handler, ":") {
		return "", "", false
	}
	return prefix, handler, true
}

func (r *Router) setErrorResponse(resp *WsMsgResp, code transport.BizCode, reason, msg string) {
	if resp == nil || resp.Body == nil {
		return
	}
	resp.Body.Code = code
	resp.Body.Reason = reason
	resp.Body.Message = msg
}

func (r *Router) renderReject(req *WsMsgReq, resp *WsMsgResp) {
	if r.reject == nil || resp == nil || resp.Body == nil {
		return
	}
	resp.Body.Msg = r.reject(req, resp)
}

func (r *Router) recoverHandler(ctx context.Context, resp *WsMsgResp) {
	if p := recover(); p != nil {
		r.log.WithContext(ctx).Error("ws handler panic", zap.Any("panic", p), zap.Stack("stack"))
		r.setErrorResponse(resp, transport.SystemError, "INTERNAL_ERROR", "internal server error")
		if resp != nil && resp.Body != nil {
			resp.Body.Msg = nil
		}
	}
}

func (r *Router) writeAccessLog(ctx context.Context, resp *WsMsgResp) {
	bizCode := transport.SystemError
	if resp != nil && resp.Body != nil {
		bizCode = resp.Body.Code
		transport.SetErrorReason(ctx, resp.Body.Reason)
	}
	transport.SetBizCode(ctx, bizCode)
	transport.WriteAccessLog(ctx, r.log)
}
