package ws

import (
	"context"

	"TrenchGame/internal/battle/actors"
	"TrenchGame/internal/battle/dto"
	"TrenchGame/internal/battle/entity"
	"TrenchGame/internal/battle/game"
	"TrenchGame/internal/battle/interfaces/handler"
	"TrenchGame/internal/shared/transport"
	"TrenchGame/internal/shared/transport/ws"

	"go.uber.org/zap"
)

// WsHandler serves the battle protocol. Successful messages get no direct
// reply: their effects reach the players as pushes from the battle.
type WsHandler struct {
	battle *handler.Battle
}

func NewWsHandler(b *handler.Battle) *WsHandler {
	return &WsHandler{battle: b}
}

func (h *WsHandler) RegisterRoutes(r *ws.Router) {
	r.Group("").Handle("start", h.start)

	actionGroup := r.Group("action")
	actionGroup.Handle("move", h.move)
	actionGroup.Handle("heal", h.heal)
	actionGroup.Handle("shoot", h.shoot)

	r.OnReject(h.rejected)
}

func (h *WsHandler) start(ctx context.Context, wsReq *ws.WsMsgReq, wsResp *ws.WsMsgResp) {
	if wsReq.Conn == nil {
		h.error(ctx, wsReq, wsResp, game.ErrMalformedMessage, 0)
		return
	}
	if _, ok := h.battle.Sessions.Get(wsReq.Conn); ok {
		h.error(ctx, wsReq, wsResp, game.ErrAlreadyInBattle, 0)
		return
	}

	res, err := h.battle.Runtime.Start(ctx, wsReq.Conn)
	if err != nil {
		h.error(ctx, wsReq, wsResp, err, 0)
		return
	}
	if !h.battle.Sessions.Bind(wsReq.Conn, res.PID) {
		h.battle.Runtime.Leave(res.PID, game.PlayerID(wsReq.Conn.ID()))
		h.error(ctx, wsReq, wsResp, game.ErrAlreadyInBattle, 0)
		return
	}
	wsReq.Conn.SetProperty(ws.PropBattleID, res.BattleID)
	transport.AddFields(ctx, zap.String("battle_id", res.BattleID))
	h.ok(wsResp)
}

func (h *WsHandler) move(ctx context.Context, wsReq *ws.WsMsgReq, wsResp *ws.WsMsgResp) {
	var req dto.MoveReq
	if err := ws.BindJSON(wsReq, &req); err != nil || req.SoldierID == nil || req.X == nil || req.Y == nil {
		h.error(ctx, wsReq, wsResp, game.ErrMalformedMessage.WithMsg("move needs soldierID, x and y"), 0)
		return
	}
	h.act(ctx, wsReq, wsResp, &actors.MoveAction{
		PlayerID:  game.PlayerID(wsReq.Conn.ID()),
		SoldierID: entity.ID(*req.SoldierID),
		X:         *req.X,
		Y:         *req.Y,
	})
}

func (h *WsHandler) heal(ctx context.Context, wsReq *ws.WsMsgReq, wsResp *ws.WsMsgResp) {
	var req dto.HealReq
	if err := ws.BindJSON(wsReq, &req); err != nil || req.SoldierID == nil || req.HealthKitID == nil {
		h.error(ctx, wsReq, wsResp, game.ErrMalformedMessage.WithMsg("heal needs soldierID and healthKitID"), 0)
		return
	}
	h.act(ctx, wsReq, wsResp, &actors.HealAction{
		PlayerID:    game.PlayerID(wsReq.Conn.ID()),
		SoldierID:   entity.ID(*req.SoldierID),
		HealthKitID: entity.ID(*req.HealthKitID),
	})
}

func (h *WsHandler) shoot(ctx context.Context, wsReq *ws.WsMsgReq, wsResp *ws.WsMsgResp) {
	var req dto.ShootReq
	if err := ws.BindJSON(wsReq, &req); err != nil || req.SoldierID == nil || req.Direction == nil {
		h.error(ctx, wsReq, wsResp, game.ErrMalformedMessage.WithMsg("shoot needs soldierID and direction"), 0)
		return
	}
	h.act(ctx, wsReq, wsResp, &actors.ShootAction{
		PlayerID:  game.PlayerID(wsReq.Conn.ID()),
		SoldierID: entity.ID(*req.SoldierID),
		Direction: *req.Direction,
	})
}

func (h *WsHandler) act(ctx context.Context, wsReq *ws.WsMsgReq, wsResp *ws.WsMsgResp, action any) {
	pid, ok := h.battle.Sessions.Get(wsReq.Conn)
	if !ok {
		h.error(ctx, wsReq, wsResp, game.ErrNotInBattle, 0)
		return
	}
	gameTime, err := h.battle.Runtime.Act(ctx, pid, action)
	if err != nil {
		h.error(ctx, wsReq, wsResp, err, gameTime)
		return
	}
	h.ok(wsResp)
}

// rejected renders routing failures the same way as rule rejections.
func (h *WsHandler) rejected(wsReq *ws.WsMsgReq, wsResp *ws.WsMsgResp) any {
	action := ""
	if wsReq != nil && wsReq.Body != nil {
		action = wsReq.Body.Type
	}
	return dto.Rejected{
		Type:    dto.TypeRejected,
		Action:  action,
		Code:    int(wsResp.Body.Code),
		Reason:  wsResp.Body.Reason,
		Message: wsResp.Body.Message,
	}
}

func (h *WsHandler) ok(resp *ws.WsMsgResp) {
	resp.Body.Code = transport.OK
	resp.Body.Msg = nil
}

func (h *WsHandler) error(ctx context.Context, wsReq *ws.WsMsgReq, wsResp *ws.WsMsgResp, err error, gameTime float64) {
	code, reason, msg := handler.HandleError(ctx, h.battle.Log, wsReq.Body.Type, err)
	wsResp.Body.Code = code
	wsResp.Body.Reason = reason
	wsResp.Body.Message = msg
	rejected := h.rejected(wsReq, wsResp).(dto.Rejected)
	rejected.GameTime = gameTime
	wsResp.Body.Msg = rejected
}
