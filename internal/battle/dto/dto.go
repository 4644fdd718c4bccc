// Package dto holds the JSON messages exchanged with clients.
package dto

import (
	"math"

	"TrenchGame/internal/battle/entity"
	"TrenchGame/internal/battle/geom"
)

const (
	TypeStart       = "start"
	TypeMove        = "action:move"
	TypeHeal        = "action:heal"
	TypeShoot       = "action:shoot"
	TypeInit        = "init"
	TypeGameStarted = "gameStarted"
	TypeNewTurn     = "newTurn"
	TypeBulletHit   = "bulletHit"
	TypeUpdate      = "updateBullets"
	TypeGameOver    = "gameOver"
	TypeRejected    = "rejected"
)

// Inbound action payloads. Pointers tell a missing field from a zero one.

type MoveReq struct {
	SoldierID *int     `json:"soldierID"`
	X         *float64 `json:"x"`
	Y         *float64 `json:"y"`
}

type HealReq struct {
	SoldierID   *int `json:"soldierID"`
	HealthKitID *int `json:"healthKitID"`
}

type ShootReq struct {
	SoldierID *int      `json:"soldierID"`
	Direction *geom.Vec `json:"direction"`
}

type FieldRecord struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type TrenchRecord struct {
	ID    int     `json:"id"`
	X     float64 `json:"x"`
	Width float64 `json:"width"`
}

type WallRecord struct {
	ID     int     `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type HealthKitRecord struct {
	ID int     `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

type SoldierRecord struct {
	ID     int         `json:"id"`
	X      float64     `json:"x"`
	Y      float64     `json:"y"`
	Team   entity.Team `json:"team"`
	Status entity.Rank `json:"status"`
	Health int         `json:"health"`
	Trench bool        `json:"trench"`
	Alive  bool        `json:"alive"`
}

// BulletRecord carries everything a client needs to animate a bullet.
// ImpactTime is null for a bullet that never hits anything.
type BulletRecord struct {
	ID              int         `json:"id"`
	StartX          float64     `json:"startX"`
	StartY          float64     `json:"startY"`
	Direction       geom.Vec    `json:"direction"`
	Team            entity.Team `json:"team"`
	InTrench        bool        `json:"inTrench"`
	Speed           float64     `json:"speed"`
	Radius          float64     `json:"radius"`
	StartTime       float64     `json:"startTime"`
	ImpactTime      *float64    `json:"impactTime"`
	ImpactDisappear bool        `json:"impactDisappear"`
	ImpactSoldierID *int        `json:"impactSoldierID"`
}

type Snapshot struct {
	Field       FieldRecord       `json:"field"`
	Trenches    []TrenchRecord    `json:"trenches"`
	Walls       []WallRecord      `json:"walls"`
	HealthKits  []HealthKitRecord `json:"healthKits"`
	Soldiers    []SoldierRecord   `json:"soldiers"`
	Bullets     []BulletRecord    `json:"bullets"`
	CurrentTeam *entity.Team      `json:"currentTeam"`
}

// Entity updates carried in newTurn and bulletHit.

type MoveUpdate struct {
	ID     int     `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Trench bool    `json:"trench"`
}

type HealUpdate struct {
	ID     int  `json:"id"`
	Heal   bool `json:"heal"`
	Health int  `json:"health"`
}

type DamageUpdate struct {
	ID     int  `json:"id"`
	Damage bool `json:"damage"`
	Health int  `json:"health"`
}

type RemoveUpdate struct {
	ID     int  `json:"id"`
	Remove bool `json:"remove"`
}

// Server messages.

type Init struct {
	Type     string      `json:"type"`
	Data     Snapshot    `json:"data"`
	Team     entity.Team `json:"team"`
	Phase    string      `json:"phase"`
	GameTime float64     `json:"gameTime"`
}

type GameStarted struct {
	Type        string      `json:"type"`
	CurrentTeam entity.Team `json:"currentTeam"`
	GameTime    float64     `json:"gameTime"`
}

type NewTurn struct {
	Type        string        `json:"type"`
	Sound       *entity.Sound `json:"sound"`
	CurrentTeam entity.Team   `json:"currentTeam"`
	Updates     []any         `json:"updates"`
	GameTime    float64       `json:"gameTime"`
}

type BulletHit struct {
	Type     string        `json:"type"`
	Sound    *entity.Sound `json:"sound"`
	Updates  []any         `json:"updates"`
	GameTime float64       `json:"gameTime"`
}

type UpdateBullets struct {
	Type        string         `json:"type"`
	Sound       *entity.Sound  `json:"sound"`
	CurrentTeam entity.Team    `json:"currentTeam"`
	Updates     []BulletRecord `json:"updates"`
	GameTime    float64        `json:"gameTime"`
}

type GameOver struct {
	Type      string          `json:"type"`
	Winner    entity.Team     `json:"winner"`
	Survivors []SoldierRecord `json:"survivors"`
	GameTime  float64         `json:"gameTime"`
}

type Rejected struct {
	Type     string  `json:"type"`
	Action   string  `json:"action"`
	Code     int     `json:"code"`
	Reason   string  `json:"reason"`
	Message  string  `json:"message"`
	GameTime float64 `json:"gameTime"`
}

// BattleInfo is one row of GET /battles.
type BattleInfo struct {
	ID      string `json:"id"`
	Phase   string `json:"phase"`
	Players int    `json:"players"`
	Full    bool   `json:"full"`
}

// SoundPtr maps the silent sound to null.
func SoundPtr(s entity.Sound) *entity.Sound {
	if s == entity.SoundNone {
		return nil
	}
	return &s
}

func Soldier(s *entity.Soldier) SoldierRecord {
	return SoldierRecord{
		ID:     int(s.ID),
		X:      s.X,
		Y:      s.Y,
		Team:   s.Team,
		Status: s.Rank,
		Health: s.Health,
		Trench: s.InTrench,
		Alive:  s.Alive(),
	}
}

func Bullet(b *entity.Bullet) BulletRecord {
	rec := BulletRecord{
		ID:              int(b.ID),
		StartX:          b.StartX,
		StartY:          b.StartY,
		Direction:       b.Dir,
		Team:            b.Team,
		InTrench:        b.InTrench,
		Speed:           b.Speed,
		Radius:          b.Radius,
		StartTime:       b.StartTime,
		ImpactDisappear: b.Impact.Disappear,
	}
	if !math.IsInf(b.Impact.Time, 0) {
		t := b.Impact.Time
		rec.ImpactTime = &t
	}
	if b.Impact.Hit {
		id := int(b.Impact.SoldierID)
		rec.ImpactSoldierID = &id
	}
	return rec
}

func Wall(w *entity.Wall) WallRecord {
	return WallRecord{ID: int(w.ID), X: w.X, Y: w.Y, Width: w.W, Height: w.H}
}

func Trench(t *entity.Trench) TrenchRecord {
	return TrenchRecord{ID: int(t.ID), X: t.X, Width: t.W}
}

func HealthKit(k *entity.HealthKit) HealthKitRecord {
	return HealthKitRecord{ID: int(k.ID), X: k.X, Y: k.Y}
}
