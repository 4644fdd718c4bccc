package actors

import (
	"TrenchGame/internal/battle/dto"
	"TrenchGame/internal/battle/entity"
	"TrenchGame/internal/battle/game"
	"TrenchGame/internal/battle/geom"

	"github.com/asynkron/protoactor-go/actor"
)

// Conn is the part of a client connection a battle needs.
type Conn interface {
	ID() string
	Push(msg any) bool
}

// SessionFactory builds the game state of a new battle.
type SessionFactory func(id string) (*game.Session, error)

// Requests to the manager.

type StartBattle struct {
	Conn Conn
}

type StartResult struct {
	BattleID string
	PID      *actor.PID
	Err      error
}

type ListBattles struct{}

type BattleList struct {
	Battles []dto.BattleInfo
}

// Requests to a battle. Each is answered with *ActionResult.

type MoveAction struct {
	PlayerID  game.PlayerID
	SoldierID entity.ID
	X, Y      float64
}

type HealAction struct {
	PlayerID    game.PlayerID
	SoldierID   entity.ID
	HealthKitID entity.ID
}

type ShootAction struct {
	PlayerID  game.PlayerID
	SoldierID entity.ID
	Direction geom.Vec
}

type ActionResult struct {
	Err      error
	GameTime float64
}

// PlayerLeft tells a battle a connection is gone. No reply.
type PlayerLeft struct {
	PlayerID game.PlayerID
}

// Manager <-> battle traffic.

type joinBattle struct {
	Conn    Conn
	ReplyTo *actor.PID
	Tries   int
}

// Replies travel without a sender, so they name their battle.

type joinAccepted struct {
	BattleID string
	PID      *actor.PID
	ReplyTo  *actor.PID
}

type joinRejected struct {
	BattleID string
	Full     bool
	Err      error
	join     *joinBattle
}

type battleStatus struct {
	Info dto.BattleInfo
}

type battleIdle struct {
	ID string
}

// impactWake is the timer tick for the pending impact numbered seq.
type impactWake struct {
	seq uint64
}
