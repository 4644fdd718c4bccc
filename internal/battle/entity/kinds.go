package entity

import "fmt"

// ID identifies any entity of a battle. Ids start at 1 and are never reused.
type ID int

type Team uint8

const (
	TeamCircles Team = iota + 1
	TeamSquares
)

// Teams lists every team in a fixed order.
var Teams = [2]Team{TeamCircles, TeamSquares}

func (t Team) String() string {
	switch t {
	case TeamCircles:
		return "circles"
	case TeamSquares:
		return "squares"
	default:
		return fmt.Sprintf("team(%d)", uint8(t))
	}
}

func (t Team) Valid() bool {
	return t == TeamCircles || t == TeamSquares
}

// Opponent returns the other team.
func (t Team) Opponent() Team {
	switch t {
	case TeamCircles:
		return TeamSquares
	case TeamSquares:
		return TeamCircles
	default:
		panic(fmt.Sprintf("entity: no opponent for %v", t))
	}
}

func (t Team) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("entity: invalid team %d", uint8(t))
	}
	return []byte(t.String()), nil
}

func (t *Team) UnmarshalText(b []byte) error {
	switch string(b) {
	case "circles":
		*t = TeamCircles
	case "squares":
		*t = TeamSquares
	default:
		return fmt.Errorf("entity: unknown team %q", b)
	}
	return nil
}

type Rank uint8

const (
	RankGeneral Rank = iota + 1
	RankRegular
)

func (r Rank) String() string {
	switch r {
	case RankGeneral:
		return "general"
	case RankRegular:
		return "regular"
	default:
		return fmt.Sprintf("rank(%d)", uint8(r))
	}
}

func (r Rank) MarshalText() ([]byte, error) {
	if r != RankGeneral && r != RankRegular {
		return nil, fmt.Errorf("entity: invalid rank %d", uint8(r))
	}
	return []byte(r.String()), nil
}

func (r *Rank) UnmarshalText(b []byte) error {
	switch string(b) {
	case "general":
		*r = RankGeneral
	case "regular":
		*r = RankRegular
	default:
		return fmt.Errorf("entity: unknown rank %q", b)
	}
	return nil
}

// Sound tags the client-side effect of an event. The empty sound is silent.
type Sound string

const (
	SoundNone      Sound = ""
	SoundMove      Sound = "move"
	SoundMoveGroup Sound = "moveGroup"
	SoundHeal      Sound = "heal"
	SoundHealArmor Sound = "healArmor"
	SoundShoot     Sound = "shoot"
	SoundBump      Sound = "bump"
	SoundArmorHit  Sound = "armorHit"
	SoundInjury    Sound = "injuryHit"
)
