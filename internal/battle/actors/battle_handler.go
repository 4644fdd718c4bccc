package actors

import (
	"TrenchGame/internal/battle/game"

	"github.com/asynkron/protoactor-go/actor"
)

// BattleHandler turns player actions into session calls.
type BattleHandler struct{}

var BH = &BattleHandler{}

func (h *BattleHandler) HandleMove(ctx actor.Context, b *BattleActor, req *MoveAction) {
	b.act(ctx, func(s *game.Session) ([]game.Envelope, error) {
		return s.Move(req.PlayerID, req.SoldierID, req.X, req.Y)
	})
}

func (h *BattleHandler) HandleHeal(ctx actor.Context, b *BattleActor, req *HealAction) {
	b.act(ctx, func(s *game.Session) ([]game.Envelope, error) {
		return s.Heal(req.PlayerID, req.SoldierID, req.HealthKitID)
	})
}

func (h *BattleHandler) HandleShoot(ctx actor.Context, b *BattleActor, req *ShootAction) {
	b.act(ctx, func(s *game.Session) ([]game.Envelope, error) {
		return s.Shoot(req.PlayerID, req.SoldierID, req.Direction)
	})
}
