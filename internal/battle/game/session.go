// Package game is the authoritative battle state machine. It does no I/O:
// every operation returns the messages to deliver and leaves delivery and
// scheduling to the caller, which must serialize calls.
package game

import (
	"fmt"
	"math"
	"math/rand/v2"

	"TrenchGame/internal/battle/dto"
	"TrenchGame/internal/battle/entity"
	"TrenchGame/internal/battle/geom"
	"TrenchGame/internal/battle/impact"
	"TrenchGame/internal/battle/placement"
	"TrenchGame/internal/battle/rules"
	"TrenchGame/modules/kit/logx"

	"go.uber.org/zap"
)

type Phase uint8

const (
	PhaseWaitingForPlayers Phase = iota
	PhaseInProgress
	PhaseFinished
)

func (p Phase) String() string {
	switch p {
	case PhaseWaitingForPlayers:
		return "waitingForPlayers"
	case PhaseInProgress:
		return "inProgress"
	case PhaseFinished:
		return "finished"
	default:
		return fmt.Sprintf("phase(%d)", uint8(p))
	}
}

// PlayerID identifies one connected player.
type PlayerID string

// Envelope is one outbound message. An empty To means every player.
type Envelope struct {
	To  PlayerID
	Msg any
}

func broadcast(msg any) Envelope { return Envelope{Msg: msg} }

type Options struct {
	Rules rules.Rules
	Clock Clock
	Rand  *rand.Rand
	// PickTeam chooses whose turn is next. Defaults to a fair coin.
	PickTeam func() entity.Team
	// Layout replaces the generated battlefield.
	Layout *placement.Layout
	Logger logx.Logger
}

type Session struct {
	id    string
	rules rules.Rules
	clock Clock
	rng   *rand.Rand
	pick  func() entity.Team
	log   logx.Logger
	field geom.Bounds

	phase       Phase
	seats       map[entity.Team]PlayerID
	teams       map[PlayerID]entity.Team
	currentTeam entity.Team
	winner      entity.Team
	lastID      entity.ID

	trenches []*entity.Trench
	walls    []*entity.Wall
	soldiers *Registry[*entity.Soldier]
	kits     *Registry[*entity.HealthKit]
	bullets  *Registry[*entity.Bullet]
}

// New creates a session waiting for players, generating a battlefield
// unless opts.Layout is set.
func New(id string, opts Options) (*Session, error) {
	if err := opts.Rules.Validate(); err != nil {
		return nil, err
	}
	s := &Session{
		id:       id,
		rules:    opts.Rules,
		clock:    opts.Clock,
		rng:      opts.Rand,
		pick:     opts.PickTeam,
		log:      logx.OrNop(opts.Logger).With(zap.String("battle_id", id)),
		field:    geom.Field(opts.Rules.FieldWidth, opts.Rules.FieldHeight),
		seats:    make(map[entity.Team]PlayerID, 2),
		teams:    make(map[PlayerID]entity.Team, 2),
		soldiers: NewRegistry[*entity.Soldier](),
		kits:     NewRegistry[*entity.HealthKit](),
		bullets:  NewRegistry[*entity.Bullet](),
	}
	if s.clock == nil {
		s.clock = NewClock()
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if s.pick == nil {
		s.pick = func() entity.Team { return entity.Teams[s.rng.IntN(len(entity.Teams))] }
	}

	layout := opts.Layout
	if layout == nil {
		var err error
		layout, err = placement.NewGenerator(s.rules, s.rng, s.newID, s.log).Generate()
		if err != nil {
			return nil, err
		}
	}
	s.load(layout)
	return s, nil
}

func (s *Session) load(l *placement.Layout) {
	track := func(id entity.ID) {
		s.lastID = max(s.lastID, id)
	}
	for _, t := range l.Trenches {
		track(t.ID)
		s.trenches = append(s.trenches, t)
	}
	for _, w := range l.Walls {
		track(w.ID)
		s.walls = append(s.walls, w)
	}
	for _, k := range l.Kits {
		track(k.ID)
		s.kits.Add(k.ID, k)
	}
	for _, so := range l.Soldiers {
		track(so.ID)
		so.UpdateTrench(s.trenches)
		s.soldiers.Add(so.ID, so)
	}
}

func (s *Session) newID() entity.ID {
	s.lastID++
	return s.lastID
}

func (s *Session) ID() string          { return s.id }
func (s *Session) Phase() Phase        { return s.phase }
func (s *Session) Now() float64        { return s.clock.Now() }
func (s *Session) Players() int        { return len(s.teams) }
func (s *Session) Winner() entity.Team { return s.winner }

// CurrentTeam is whose turn it is. It is zero until the battle starts.
func (s *Session) CurrentTeam() entity.Team { return s.currentTeam }

// IsFull reports whether a new player must be routed to another session.
func (s *Session) IsFull() bool {
	return s.phase != PhaseWaitingForPlayers || len(s.seats) >= len(entity.Teams)
}

// Team returns the team a player controls.
func (s *Session) Team(p PlayerID) (entity.Team, bool) {
	t, ok := s.teams[p]
	return t, ok
}

func (s *Session) Soldier(id entity.ID) (*entity.Soldier, bool) { return s.soldiers.Get(id) }
func (s *Session) Soldiers() []*entity.Soldier                  { return s.soldiers.All() }
func (s *Session) Bullets() []*entity.Bullet                    { return s.bullets.All() }
func (s *Session) HealthKits() []*entity.HealthKit              { return s.kits.All() }

// Join seats a player. The first player gets a random team, the second the
// other one, and the battle starts when both seats are taken.
func (s *Session) Join(p PlayerID) ([]Envelope, error) {
	if _, ok := s.teams[p]; ok {
		return nil, ErrAlreadyInBattle
	}
	if s.IsFull() {
		return nil, ErrSessionFull
	}

	var team entity.Team
	for _, t := range entity.Teams {
		if _, taken := s.seats[t]; !taken {
			team = t
			break
		}
	}
	if len(s.seats) == 0 {
		team = entity.Teams[s.rng.IntN(len(entity.Teams))]
	}
	s.seats[team] = p
	s.teams[p] = team

	now := s.clock.Now()
	out := []Envelope{{To: p, Msg: dto.Init{
		Type:     dto.TypeInit,
		Data:     s.Snapshot(),
		Team:     team,
		Phase:    s.phase.String(),
		GameTime: now,
	}}}

	if len(s.seats) == len(entity.Teams) {
		s.phase = PhaseInProgress
		s.currentTeam = s.pick()
		out = append(out, broadcast(dto.GameStarted{
			Type:        dto.TypeGameStarted,
			CurrentTeam: s.currentTeam,
			GameTime:    now,
		}))
	}
	s.log.Info("player joined",
		zap.String("player_id", string(p)),
		zap.Stringer("team", team),
		zap.Stringer("phase", s.phase))
	return out, nil
}

// Leave removes a player. A waiting seat is freed; a started battle keeps
// running for whoever is still connected.
func (s *Session) Leave(p PlayerID) bool {
	team, ok := s.teams[p]
	if !ok {
		return false
	}
	delete(s.teams, p)
	if s.phase == PhaseWaitingForPlayers {
		delete(s.seats, team)
	}
	s.log.Info("player left",
		zap.String("player_id", string(p)),
		zap.Stringer("team", team),
		zap.Stringer("phase", s.phase))
	return true
}

// Recipients lists connected players in team order.
func (s *Session) Recipients() []PlayerID {
	out := make([]PlayerID, 0, len(s.teams))
	for _, t := range entity.Teams {
		if p, ok := s.seats[t]; ok {
			if _, connected := s.teams[p]; connected {
				out = append(out, p)
			}
		}
	}
	return out
}

// Snapshot is the full state sent on join.
func (s *Session) Snapshot() dto.Snapshot {
	snap := dto.Snapshot{
		Field:      dto.FieldRecord{Width: s.rules.FieldWidth, Height: s.rules.FieldHeight},
		Trenches:   make([]dto.TrenchRecord, 0, len(s.trenches)),
		Walls:      make([]dto.WallRecord, 0, len(s.walls)),
		HealthKits: make([]dto.HealthKitRecord, 0, s.kits.Len()),
		Soldiers:   make([]dto.SoldierRecord, 0, s.soldiers.Len()),
		Bullets:    s.bulletRecords(),
	}
	for _, t := range s.trenches {
		snap.Trenches = append(snap.Trenches, dto.Trench(t))
	}
	for _, w := range s.walls {
		snap.Walls = append(snap.Walls, dto.Wall(w))
	}
	for _, k := range s.kits.All() {
		snap.HealthKits = append(snap.HealthKits, dto.HealthKit(k))
	}
	for _, so := range s.soldiers.All() {
		snap.Soldiers = append(snap.Soldiers, dto.Soldier(so))
	}
	if s.currentTeam.Valid() {
		ct := s.currentTeam
		snap.CurrentTeam = &ct
	}
	return snap
}

func (s *Session) bulletRecords() []dto.BulletRecord {
	out := make([]dto.BulletRecord, 0, s.bullets.Len())
	for _, b := range s.bullets.All() {
		out = append(out, dto.Bullet(b))
	}
	return out
}

func (s *Session) world() impact.World {
	return impact.World{
		Field:    s.field,
		Walls:    s.walls,
		Trenches: s.trenches,
		Soldiers: s.soldiers.All(),
	}
}

// NextWake is the earliest pending impact time, false when no bullet will
// ever land.
func (s *Session) NextWake() (float64, bool) {
	next := math.Inf(1)
	for _, b := range s.bullets.All() {
		next = math.Min(next, b.Impact.Time)
	}
	return next, !math.IsInf(next, 1)
}
