package game

import (
	"TrenchGame/internal/battle/dto"
	"TrenchGame/internal/battle/entity"
	"TrenchGame/internal/battle/impact"

	"go.uber.org/zap"
)

// ResolveImpacts applies every bullet due by now, earliest first. Each death
// refreshes the forecasts of the remaining bullets before the next one is
// applied, so a dead soldier can neither block nor take another hit.
func (s *Session) ResolveImpacts(now float64) []Envelope {
	if s.phase != PhaseInProgress {
		return nil
	}
	var out []Envelope
	recomputed := false

	for s.phase == PhaseInProgress {
		b := s.nextDue(now)
		if b == nil {
			break
		}
		s.bullets.Remove(b.ID)
		at := b.Impact.Time
		sound := b.Impact.Sound
		updates := []any{dto.RemoveUpdate{ID: int(b.ID), Remove: true}}

		if b.Impact.Hit {
			if so, ok := s.soldiers.Get(b.Impact.SoldierID); ok {
				sound = entity.SoundInjury
				if so.Health >= s.rules.ArmoredHealth {
					sound = entity.SoundArmorHit
				}
				so.Health--
				updates = append(updates, dto.DamageUpdate{ID: int(so.ID), Damage: true, Health: so.Health})
				if !so.Alive() {
					s.soldiers.Remove(so.ID)
					updates = append(updates, dto.RemoveUpdate{ID: int(so.ID), Remove: true})
					impact.Recompute(s.bullets.All(), s.world(), at)
					recomputed = true
					s.log.Info("soldier killed",
						zap.Int("soldier_id", int(so.ID)),
						zap.Stringer("team", so.Team))
				}
			} else {
				s.log.Warn("bullet hit a soldier that is gone",
					zap.Int("bullet_id", int(b.ID)),
					zap.Int("soldier_id", int(b.Impact.SoldierID)))
			}
		}

		out = append(out, broadcast(dto.BulletHit{
			Type:     dto.TypeBulletHit,
			Sound:    dto.SoundPtr(sound),
			Updates:  updates,
			GameTime: at,
		}))
		if over, ok := s.checkGameOver(at); ok {
			out = append(out, over)
		}
	}

	if recomputed && s.phase == PhaseInProgress && s.bullets.Len() > 0 {
		out = append(out, s.updateBullets(now))
	}
	return out
}

// nextDue picks the bullet with the smallest impact time not after now.
// Ties go to the lowest id.
func (s *Session) nextDue(now float64) *entity.Bullet {
	var best *entity.Bullet
	for _, b := range s.bullets.All() {
		if b.Impact.Time > now {
			continue
		}
		if best == nil || b.Impact.Time < best.Impact.Time {
			best = b
		}
	}
	return best
}

func (s *Session) checkGameOver(at float64) (Envelope, bool) {
	alive := make(map[entity.Team]int, len(entity.Teams))
	for _, so := range s.soldiers.All() {
		alive[so.Team]++
	}
	for _, t := range entity.Teams {
		if alive[t] > 0 {
			continue
		}
		s.phase = PhaseFinished
		s.winner = t.Opponent()
		s.bullets = NewRegistry[*entity.Bullet]()

		survivors := make([]dto.SoldierRecord, 0, alive[s.winner])
		for _, so := range s.soldiers.All() {
			survivors = append(survivors, dto.Soldier(so))
		}
		s.log.Info("battle finished",
			zap.Stringer("winner", s.winner),
			zap.Int("survivors", len(survivors)))
		return broadcast(dto.GameOver{
			Type:      dto.TypeGameOver,
			Winner:    s.winner,
			Survivors: survivors,
			GameTime:  at,
		}), true
	}
	return Envelope{}, false
}
