package handler

import (
	"context"

	"TrenchGame/internal/battle/actors"
	"TrenchGame/internal/battle/dto"
	"TrenchGame/internal/battle/game"
	"TrenchGame/internal/shared/session"
	"TrenchGame/internal/shared/transport/ws"
	"TrenchGame/modules/kit/logx"

	"github.com/asynkron/protoactor-go/actor"
)

// Runtime is what the transports need from the battle actor system.
type Runtime interface {
	Start(ctx context.Context, conn actors.Conn) (*actors.StartResult, error)
	Act(ctx context.Context, battle *actor.PID, action any) (float64, error)
	Leave(battle *actor.PID, p game.PlayerID)
	Battles(ctx context.Context) ([]dto.BattleInfo, error)
}

// Battle is shared by the WS and HTTP handlers.
type Battle struct {
	Runtime  Runtime
	Sessions *session.Manager[*actor.PID]
	Log      logx.Logger
}

// NewBattle wires a session registry whose closed connections leave their
// battle.
func NewBattle(rt Runtime, l logx.Logger) *Battle {
	return &Battle{
		Runtime: rt,
		Sessions: session.NewManager(func(conn ws.WSConn, pid *actor.PID) {
			conn.RemoveProperty(ws.PropBattleID)
			rt.Leave(pid, game.PlayerID(conn.ID()))
		}),
		Log: logx.OrNop(l),
	}
}
