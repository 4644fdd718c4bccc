package game

import (
	"TrenchGame/internal/battle/dto"
	"TrenchGame/internal/battle/entity"
	"TrenchGame/internal/battle/geom"
	"TrenchGame/internal/battle/impact"
	"TrenchGame/internal/battle/placement"

	"go.uber.org/zap"
)

// actor resolves and authorizes the soldier a player wants to act with.
func (s *Session) actor(p PlayerID, soldierID entity.ID) (*entity.Soldier, error) {
	if s.phase != PhaseInProgress {
		return nil, ErrGameNotInProgress
	}
	team, ok := s.teams[p]
	if !ok {
		return nil, ErrNotInBattle
	}
	so, ok := s.soldiers.Get(soldierID)
	if !ok {
		return nil, ErrUnknownEntityID.WithData("soldier_id", int(soldierID))
	}
	if so.Team != team {
		return nil, ErrWrongTeamActor.WithData("soldier_id", int(soldierID))
	}
	if team != s.currentTeam {
		return nil, ErrNotYourTurn
	}
	return so, nil
}

// settle applies every impact already due, so an action never moves or
// heals a soldier in a world that should have changed before it arrived.
// Its envelopes go out ahead of the action's own, even when the action is
// then rejected.
func (s *Session) settle() ([]Envelope, float64) {
	now := s.clock.Now()
	return s.ResolveImpacts(now), now
}

func (s *Session) endTurn() {
	s.currentTeam = s.pick()
}

// Move relocates a soldier to (x, y), clamped to the field. A general brings
// every regular of its team within the squad radius along by the same offset.
func (s *Session) Move(p PlayerID, soldierID entity.ID, x, y float64) ([]Envelope, error) {
	if !geom.Finite(x, y) {
		return nil, ErrMalformedMessage.WithMsg("coordinates must be finite")
	}
	due, now := s.settle()
	so, err := s.actor(p, soldierID)
	if err != nil {
		return due, err
	}

	tx, ty := geom.Clamp(x, y, so.Size, so.Size, s.field)
	dx, dy := tx-so.X, ty-so.Y
	updates := make([]any, 0, 1)
	sound := entity.SoundMove

	if so.Rank == entity.RankGeneral {
		sound = entity.SoundMoveGroup
		for _, f := range s.followers(so) {
			s.shift(f, dx, dy)
			updates = append(updates, moveUpdate(f))
		}
	}
	so.X, so.Y = tx, ty
	so.UpdateTrench(s.trenches)
	updates = append(updates, moveUpdate(so))

	s.endTurn()
	out := append(due, broadcast(dto.NewTurn{
		Type:        dto.TypeNewTurn,
		Sound:       dto.SoundPtr(sound),
		CurrentTeam: s.currentTeam,
		Updates:     updates,
		GameTime:    now,
	}))
	if s.bullets.Len() > 0 {
		impact.Recompute(s.bullets.All(), s.world(), now)
		out = append(out, s.updateBullets(now))
	}
	return out, nil
}

func (s *Session) followers(general *entity.Soldier) []*entity.Soldier {
	var out []*entity.Soldier
	for _, o := range s.soldiers.All() {
		if o.ID == general.ID || o.Team != general.Team || o.Rank != entity.RankRegular {
			continue
		}
		if geom.Dist(o.X, o.Y, general.X, general.Y) <= s.rules.SquadRadius {
			out = append(out, o)
		}
	}
	return out
}

// shift moves a follower by (dx, dy), then walks it clear of walls and other
// soldiers and keeps it on the field.
func (s *Session) shift(so *entity.Soldier, dx, dy float64) {
	b := so.Bounds()
	b.X, b.Y = geom.Clamp(b.X+dx, b.Y+dy, b.W, b.H, s.field)
	x, y, ok := placement.Nudge(s.rng, b, s.field, s.rules.NudgeRange, s.rules.NudgeAttempts, func(c geom.Bounds) bool {
		return s.blocked(so.ID, c)
	})
	if !ok {
		s.log.Warn("nudge gave up, keeping last position",
			zap.Int("soldier_id", int(so.ID)),
			zap.Int("attempts", s.rules.NudgeAttempts))
	}
	so.X, so.Y = geom.Clamp(x, y, so.Size, so.Size, s.field)
	so.UpdateTrench(s.trenches)
}

func (s *Session) blocked(self entity.ID, b geom.Bounds) bool {
	if geom.IntersectsAny(b, s.walls) {
		return true
	}
	for _, o := range s.soldiers.All() {
		if o.ID != self && geom.Intersects(b, o.Bounds()) {
			return true
		}
	}
	return false
}

// Heal consumes a health kit to give a soldier one more health point.
func (s *Session) Heal(p PlayerID, soldierID, kitID entity.ID) ([]Envelope, error) {
	due, now := s.settle()
	so, err := s.actor(p, soldierID)
	if err != nil {
		return due, err
	}
	if _, ok := s.kits.Get(kitID); !ok {
		return due, ErrUnknownEntityID.WithData("health_kit_id", int(kitID))
	}
	s.kits.Remove(kitID)
	so.Health++

	sound := entity.SoundHeal
	if so.Health == s.rules.ArmoredHealth {
		sound = entity.SoundHealArmor
	}
	s.endTurn()
	return append(due, broadcast(dto.NewTurn{
		Type:        dto.TypeNewTurn,
		Sound:       dto.SoundPtr(sound),
		CurrentTeam: s.currentTeam,
		Updates: []any{
			dto.HealUpdate{ID: int(so.ID), Heal: true, Health: so.Health},
			dto.RemoveUpdate{ID: int(kitID), Remove: true},
		},
		GameTime: now,
	})), nil
}

// Shoot fires a bullet from the soldier's position along dir and forecasts
// its impact right away.
func (s *Session) Shoot(p PlayerID, soldierID entity.ID, dir geom.Vec) ([]Envelope, error) {
	unit, ok := dir.Unit()
	if !ok {
		return nil, ErrMalformedMessage.WithMsg("direction must be a non-zero finite vector")
	}
	due, now := s.settle()
	so, err := s.actor(p, soldierID)
	if err != nil {
		return due, err
	}

	b := &entity.Bullet{
		ID:        s.newID(),
		StartX:    so.X,
		StartY:    so.Y,
		Dir:       unit,
		Team:      so.Team,
		InTrench:  so.InTrench,
		Speed:     s.rules.BulletSpeed,
		Radius:    s.rules.BulletRadius,
		StartTime: now,
	}
	b.Impact = impact.Compute(b, s.world(), now)
	s.bullets.Add(b.ID, b)

	s.endTurn()
	return append(due, broadcast(dto.NewTurn{
		Type:        dto.TypeNewTurn,
		Sound:       dto.SoundPtr(entity.SoundShoot),
		CurrentTeam: s.currentTeam,
		Updates:     []any{dto.Bullet(b)},
		GameTime:    now,
	})), nil
}

func (s *Session) updateBullets(now float64) Envelope {
	return broadcast(dto.UpdateBullets{
		Type:        dto.TypeUpdate,
		CurrentTeam: s.currentTeam,
		Updates:     s.bulletRecords(),
		GameTime:    now,
	})
}

func moveUpdate(so *entity.Soldier) dto.MoveUpdate {
	return dto.MoveUpdate{ID: int(so.ID), X: so.X, Y: so.Y, Trench: so.InTrench}
}
