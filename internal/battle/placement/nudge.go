package placement

import (
	"math/rand/v2"

	"TrenchGame/internal/battle/geom"
)

// Nudge walks b in random steps of up to step per axis, clamped to field,
// until blocked no longer reports a collision. After attempts steps it gives
// up and returns the last position with ok false.
func Nudge(rng *rand.Rand, b geom.Bounds, field geom.Bounds, step float64, attempts int, blocked func(geom.Bounds) bool) (x, y float64, ok bool) {
	if !blocked(b) {
		return b.X, b.Y, true
	}
	for range attempts {
		b.X += (rng.Float64()*2 - 1) * step
		b.Y += (rng.Float64()*2 - 1) * step
		b.X, b.Y = geom.Clamp(b.X, b.Y, b.W, b.H, field)
		if !blocked(b) {
			return b.X, b.Y, true
		}
	}
	return b.X, b.Y, false
}
