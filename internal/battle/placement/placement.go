// Package placement lays out a fresh battlefield by rejection sampling.
package placement

import (
	"math/rand/v2"

	"TrenchGame/internal/battle/entity"
	"TrenchGame/internal/battle/geom"
	"TrenchGame/internal/battle/rules"
	"TrenchGame/modules/kit/errx"
	"TrenchGame/modules/kit/logx"

	"go.uber.org/zap"
)

const CodePlacementExhausted errx.Code = "PLACEMENT_EXHAUSTED"

// ErrPlacementExhausted means no free position was found within the
// configured attempt budget. The layout is too dense for the field.
var ErrPlacementExhausted = errx.NewSys(CodePlacementExhausted, "no free position for entity")

// Layout is a complete starting battlefield.
type Layout struct {
	Trenches []*entity.Trench
	Walls    []*entity.Wall
	Kits     []*entity.HealthKit
	Soldiers []*entity.Soldier
}

type Generator struct {
	rules  rules.Rules
	rng    *rand.Rand
	nextID func() entity.ID
	log    logx.Logger
	field  geom.Bounds
}

// NewGenerator returns a generator drawing ids from nextID.
func NewGenerator(r rules.Rules, rng *rand.Rand, nextID func() entity.ID, l logx.Logger) *Generator {
	return &Generator{
		rules:  r,
		rng:    rng,
		nextID: nextID,
		log:    logx.OrNop(l),
		field:  geom.Field(r.FieldWidth, r.FieldHeight),
	}
}

// Generate places trenches, then walls clear of trenches, then kits clear of
// walls, then both armies clear of walls, kits and each other.
func (g *Generator) Generate() (*Layout, error) {
	out := &Layout{}
	g.placeTrenches(out)
	if err := g.placeWalls(out); err != nil {
		return nil, err
	}
	if err := g.placeKits(out); err != nil {
		return nil, err
	}
	for _, team := range entity.Teams {
		if err := g.placeTeam(out, team); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (g *Generator) placeTrenches(out *Layout) {
	r := g.rules
	half := r.TrenchWidth / 2
	spans := [2][2]float64{
		{r.LeftQuarter(), r.MidX() - r.TrenchMargin - half},
		{r.MidX() + r.TrenchMargin + half, r.RightQuarter()},
	}
	for _, s := range spans {
		out.Trenches = append(out.Trenches, &entity.Trench{
			ID:          g.nextID(),
			X:           g.uniform(s[0], s[1]),
			W:           r.TrenchWidth,
			FieldHeight: r.FieldHeight,
		})
	}
}

func (g *Generator) placeWalls(out *Layout) error {
	r := g.rules
	region := span(r.LeftQuarter(), r.RightQuarter(), r.FieldHeight)
	for range r.Walls {
		w, h := r.WallThickness, g.uniform(r.WallMinLength, r.WallMaxLength)
		x, y, err := g.place("wall", region, w, h, func(b geom.Bounds) bool {
			return !geom.IntersectsAny(b, out.Trenches)
		})
		if err != nil {
			return err
		}
		out.Walls = append(out.Walls, &entity.Wall{ID: g.nextID(), X: x, Y: y, W: w, H: h})
	}
	return nil
}

func (g *Generator) placeKits(out *Layout) error {
	r := g.rules
	size := r.HealthKitSize
	for range r.HealthKits {
		x, y, err := g.place("health_kit", g.field, size, size, func(b geom.Bounds) bool {
			return !geom.IntersectsAny(b, out.Walls)
		})
		if err != nil {
			return err
		}
		out.Kits = append(out.Kits, &entity.HealthKit{ID: g.nextID(), X: x, Y: y, Size: size})
	}
	return nil
}

func (g *Generator) placeTeam(out *Layout, team entity.Team) error {
	r := g.rules
	region := span(0, r.LeftQuarter(), r.FieldHeight)
	if team == entity.TeamSquares {
		region = span(r.RightQuarter(), r.FieldWidth, r.FieldHeight)
	}
	ranks := make([]entity.Rank, 0, r.GeneralsPerTeam+r.RegularsPerTeam)
	for range r.GeneralsPerTeam {
		ranks = append(ranks, entity.RankGeneral)
	}
	for range r.RegularsPerTeam {
		ranks = append(ranks, entity.RankRegular)
	}

	size := r.SoldierSize
	for _, rank := range ranks {
		x, y, err := g.place("soldier", region, size, size, func(b geom.Bounds) bool {
			return !geom.IntersectsAny(b, out.Walls) &&
				!geom.IntersectsAny(b, out.Kits) &&
				!geom.IntersectsAny(b, out.Soldiers)
		})
		if err != nil {
			return err
		}
		s := &entity.Soldier{
			ID:     g.nextID(),
			Team:   team,
			Rank:   rank,
			X:      x,
			Y:      y,
			Size:   size,
			Health: r.StartHealth,
		}
		s.UpdateTrench(out.Trenches)
		out.Soldiers = append(out.Soldiers, s)
	}
	return nil
}

// place samples centre points uniformly in region until valid accepts the
// clamped footprint. Clamping happens before the check so the accepted
// position is the final one.
func (g *Generator) place(kind string, region geom.Bounds, w, h float64, valid func(geom.Bounds) bool) (float64, float64, error) {
	for range g.rules.PlacementAttempts {
		x := g.uniform(region.Left(), region.Right())
		y := g.uniform(region.Top(), region.Bottom())
		x, y = geom.Clamp(x, y, w, h, g.field)
		if valid(geom.Bounds{X: x, Y: y, W: w, H: h}) {
			return x, y, nil
		}
	}
	err := ErrPlacementExhausted.
		WithData("kind", kind).
		WithData("attempts", g.rules.PlacementAttempts)
	g.log.Warn("placement exhausted", zap.String("kind", kind), zap.Int("attempts", g.rules.PlacementAttempts))
	return 0, 0, err
}

func (g *Generator) uniform(lo, hi float64) float64 {
	return lo + g.rng.Float64()*(hi-lo)
}

func span(minX, maxX, height float64) geom.Bounds {
	return geom.Bounds{X: (minX + maxX) / 2, Y: height / 2, W: maxX - minX, H: height}
}
