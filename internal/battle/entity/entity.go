// Package entity is the battlefield object model. Every placed object
// exposes its footprint through Bounds.
package entity

import (
	"math"

	"TrenchGame/internal/battle/geom"
)

type Soldier struct {
	ID       ID
	Team     Team
	Rank     Rank
	X, Y     float64
	Size     float64
	Health   int
	InTrench bool
}

func (s *Soldier) Bounds() geom.Bounds {
	return geom.Bounds{X: s.X, Y: s.Y, W: s.Size, H: s.Size}
}

func (s *Soldier) Alive() bool { return s.Health > 0 }

// UpdateTrench recomputes InTrench from the soldier's centre point.
func (s *Soldier) UpdateTrench(trenches []*Trench) {
	s.InTrench = false
	for _, t := range trenches {
		if t.Contains(s.X, s.Y) {
			s.InTrench = true
			return
		}
	}
}

// Wall is an immutable vertical obstacle.
type Wall struct {
	ID   ID
	X, Y float64
	W, H float64
}

func (w *Wall) Bounds() geom.Bounds {
	return geom.Bounds{X: w.X, Y: w.Y, W: w.W, H: w.H}
}

// Trench is a full-height vertical lane.
type Trench struct {
	ID          ID
	X           float64
	W           float64
	FieldHeight float64
}

func (t *Trench) Bounds() geom.Bounds {
	return geom.Bounds{X: t.X, Y: t.FieldHeight / 2, W: t.W, H: t.FieldHeight}
}

// Contains reports whether the point is inside the lane.
func (t *Trench) Contains(x, y float64) bool {
	return t.Bounds().Contains(x, y)
}

// HealthKit is consumed by a single heal.
type HealthKit struct {
	ID   ID
	X, Y float64
	Size float64
}

func (k *HealthKit) Bounds() geom.Bounds {
	return geom.Bounds{X: k.X, Y: k.Y, W: k.Size, H: k.Size}
}

// Impact is the cached forecast of where a bullet's flight ends.
type Impact struct {
	// Time is absolute game time, +Inf when the bullet never hits anything.
	Time      float64
	Disappear bool
	// SoldierID is set only when Hit is true.
	SoldierID ID
	Hit       bool
	Sound     Sound
}

// Never is the forecast of a bullet that hits nothing.
func Never() Impact {
	return Impact{Time: math.Inf(1)}
}

func (i Impact) Finite() bool { return !math.IsInf(i.Time, 1) }

type Bullet struct {
	ID             ID
	StartX, StartY float64
	// Dir is a unit vector.
	Dir       geom.Vec
	Team      Team
	InTrench  bool
	Speed     float64
	Radius    float64
	StartTime float64
	Impact    Impact
}

// PositionAt returns the bullet centre at game time t.
func (b *Bullet) PositionAt(t float64) (float64, float64) {
	d := b.Speed * (t - b.StartTime)
	return b.StartX + b.Dir.X*d, b.StartY + b.Dir.Y*d
}

// BoundsAt is the bullet's square footprint at game time t.
func (b *Bullet) BoundsAt(t float64) geom.Bounds {
	x, y := b.PositionAt(t)
	return geom.Bounds{X: x, Y: y, W: 2 * b.Radius, H: 2 * b.Radius}
}

// Velocity is the bullet's displacement per second.
func (b *Bullet) Velocity() geom.Vec {
	return geom.Vec{X: b.Dir.X * b.Speed, Y: b.Dir.Y * b.Speed}
}
