// Package impact forecasts, in closed form, when and where a bullet's flight
// ends. A bullet is a square of half-size Radius moving at constant velocity,
// so every candidate contact time is the solution of a linear equation on
// one axis. Nothing here depends on a clock tick.
package impact

import (
	"math"

	"TrenchGame/internal/battle/entity"
	"TrenchGame/internal/battle/geom"
)

// World is the geometry a forecast depends on. Soldiers must only hold live
// soldiers.
type World struct {
	Field    geom.Bounds
	Walls    []*entity.Wall
	Trenches []*entity.Trench
	Soldiers []*entity.Soldier
}

// Compute returns the earliest contact of b at or after now. Categories are
// evaluated boundary, walls, trenches, soldiers; a later candidate replaces
// the current best only when strictly earlier, so ties go to the earlier
// category and, inside one category, to the earlier item.
func Compute(b *entity.Bullet, w World, now float64) entity.Impact {
	best := entity.Never()
	consider := func(t float64, imp entity.Impact) {
		if t < best.Time {
			imp.Time = t
			best = imp
		}
	}

	consider(exitTime(b, w.Field, now), entity.Impact{Disappear: true})

	for _, wall := range w.Walls {
		consider(entryTime(b, wall.Bounds(), now), entity.Impact{Disappear: true, Sound: entity.SoundBump})
	}

	if b.InTrench {
		cx, cy := b.PositionAt(now)
		for _, tr := range w.Trenches {
			if !tr.Contains(cx, cy) {
				continue
			}
			consider(exitTime(b, tr.Bounds(), now), entity.Impact{Disappear: true, Sound: entity.SoundBump})
		}
	}

	for _, s := range w.Soldiers {
		if !s.Alive() || s.Team == b.Team || s.InTrench != b.InTrench {
			continue
		}
		consider(entryTime(b, s.Bounds(), now), entity.Impact{Disappear: true, SoldierID: s.ID, Hit: true})
	}
	return best
}

// Recompute refreshes the forecast of every bullet.
func Recompute(bullets []*entity.Bullet, w World, now float64) {
	for _, b := range bullets {
		b.Impact = Compute(b, w, now)
	}
}

// entryTime is the first time at or after now when the bullet's square
// touches target, +Inf if never.
func entryTime(b *entity.Bullet, target geom.Bounds, now float64) float64 {
	if geom.Intersects(b.BoundsAt(now), target) {
		return now
	}
	v := b.Velocity()
	r := b.Radius
	best := math.Inf(1)

	if t, ok := solve(b.StartX, v.X, r, target.Left(), target.Right(), b.StartTime); ok && t >= now {
		_, y := b.PositionAt(t)
		if y+r > target.Top() && y-r < target.Bottom() && t < best {
			best = t
		}
	}
	if t, ok := solve(b.StartY, v.Y, r, target.Top(), target.Bottom(), b.StartTime); ok && t >= now {
		x, _ := b.PositionAt(t)
		if x+r > target.Left() && x-r < target.Right() && t < best {
			best = t
		}
	}
	return best
}

// solve returns when the leading edge along one axis reaches the near edge
// of [lo, hi]. start is the centre coordinate at t0.
func solve(start, vel, r, lo, hi, t0 float64) (float64, bool) {
	switch {
	case vel > 0:
		return t0 + (lo-(start+r))/vel, true
	case vel < 0:
		return t0 + (hi-(start-r))/vel, true
	default:
		return 0, false
	}
}

// exitTime is when the bullet's leading edge reaches the far side of a
// containing region, never earlier than now.
func exitTime(b *entity.Bullet, region geom.Bounds, now float64) float64 {
	v := b.Velocity()
	r := b.Radius
	best := math.Inf(1)
	switch {
	case v.X > 0:
		best = math.Min(best, b.StartTime+(region.Right()-(b.StartX+r))/v.X)
	case v.X < 0:
		best = math.Min(best, b.StartTime+(region.Left()-(b.StartX-r))/v.X)
	}
	switch {
	case v.Y > 0:
		best = math.Min(best, b.StartTime+(region.Bottom()-(b.StartY+r))/v.Y)
	case v.Y < 0:
		best = math.Min(best, b.StartTime+(region.Top()-(b.StartY-r))/v.Y)
	}
	if math.IsInf(best, 1) {
		return best
	}
	return math.Max(best, now)
}
