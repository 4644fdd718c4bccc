package game

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"TrenchGame/internal/battle/dto"
	"TrenchGame/internal/battle/entity"
	"TrenchGame/internal/battle/geom"
	"TrenchGame/internal/battle/impact"
	"TrenchGame/internal/battle/placement"
	"TrenchGame/internal/battle/rules"
	"TrenchGame/modules/kit/logx"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeClock struct{ t float64 }

func (c *fakeClock) Now() float64 { return c.t }

type fixture struct {
	s     *Session
	clock *fakeClock
	next  entity.Team
	p     map[entity.Team]PlayerID
}

func soldier(id entity.ID, team entity.Team, rank entity.Rank, x, y float64) *entity.Soldier {
	return &entity.Soldier{ID: id, Team: team, Rank: rank, X: x, Y: y, Size: 25.6, Health: 2}
}

// newFixture builds a started battle over a hand-made layout. The team whose
// turn comes next is whatever f.next holds when an action completes.
func newFixture(t *testing.T, l *placement.Layout) *fixture {
	t.Helper()
	f := &fixture{clock: &fakeClock{}, next: entity.TeamCircles, p: map[entity.Team]PlayerID{}}
	s, err := New("battle-1", Options{
		Rules:    rules.Default(),
		Clock:    f.clock,
		Rand:     rand.New(rand.NewPCG(7, 11)),
		PickTeam: func() entity.Team { return f.next },
		Layout:   l,
	})
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	f.s = s
	for _, p := range []PlayerID{"p1", "p2"} {
		if _, err := s.Join(p); err != nil {
			t.Fatalf("join %s: %v", p, err)
		}
		team, _ := s.Team(p)
		f.p[team] = p
	}
	if s.Phase() != PhaseInProgress {
		t.Fatalf("phase=%v after two joins", s.Phase())
	}
	return f
}

func findMsg[T any](out []Envelope) (T, bool) {
	for _, e := range out {
		if m, ok := e.Msg.(T); ok {
			return m, true
		}
	}
	var zero T
	return zero, false
}

func indexOf[T any](out []Envelope) int {
	for i, e := range out {
		if _, ok := e.Msg.(T); ok {
			return i
		}
	}
	return -1
}

func TestJoin_SeatsTwoPlayersThenRefuses(t *testing.T) {
	clock := &fakeClock{t: 1.5}
	s, err := New("b", Options{Rules: rules.Default(), Clock: clock, Rand: rand.New(rand.NewPCG(1, 2))})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	out, err := s.Join("a")
	if err != nil {
		t.Fatalf("join a: %v", err)
	}
	initMsg, ok := findMsg[dto.Init](out)
	if !ok || out[0].To != "a" || initMsg.Phase != "waitingForPlayers" || initMsg.GameTime != 1.5 {
		t.Fatalf("unexpected init %+v", out)
	}
	if len(initMsg.Data.Soldiers) != 24 || len(initMsg.Data.Trenches) != 2 || len(initMsg.Data.Walls) != 5 || len(initMsg.Data.HealthKits) != 10 {
		t.Fatalf("unexpected snapshot sizes %+v", initMsg.Data)
	}
	if initMsg.Data.CurrentTeam != nil {
		t.Fatalf("current team should be null before the start")
	}
	if s.IsFull() {
		t.Fatalf("one player should not fill the battle")
	}
	if _, err := s.Join("a"); !errors.Is(err, ErrAlreadyInBattle) {
		t.Fatalf("rejoin err=%v", err)
	}

	out, err = s.Join("b")
	if err != nil {
		t.Fatalf("join b: %v", err)
	}
	ta, _ := s.Team("a")
	tb, _ := s.Team("b")
	if ta == tb {
		t.Fatalf("both players on %v", ta)
	}
	started, ok := findMsg[dto.GameStarted](out)
	if !ok || !started.CurrentTeam.Valid() || s.Phase() != PhaseInProgress {
		t.Fatalf("battle did not start: %+v", out)
	}
	if !s.IsFull() {
		t.Fatalf("battle should be full")
	}
	if _, err := s.Join("c"); !errors.Is(err, ErrSessionFull) {
		t.Fatalf("third join err=%v", err)
	}
}

func TestJoin_LogsCarryBattleID(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	s, err := New("b-7", Options{
		Rules:  rules.Default(),
		Clock:  &fakeClock{},
		Rand:   rand.New(rand.NewPCG(1, 2)),
		Logger: logx.NewZapLogger(zap.New(core)),
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := s.Join("a"); err != nil {
		t.Fatalf("join: %v", err)
	}
	joined := logs.FilterMessage("player joined").All()
	if len(joined) != 1 || joined[0].ContextMap()["battle_id"] != "b-7" {
		t.Fatalf("player joined entries=%v", joined)
	}
}

func TestLeave_WhileWaitingFreesSeat(t *testing.T) {
	s, err := New("b", Options{Rules: rules.Default(), Clock: &fakeClock{}, Rand: rand.New(rand.NewPCG(1, 2))})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	_, _ = s.Join("a")
	if !s.Leave("a") || s.Players() != 0 || s.IsFull() {
		t.Fatalf("leave did not free the seat")
	}
	if _, err := s.Join("b"); err != nil {
		t.Fatalf("join after leave: %v", err)
	}
}

func TestLeave_InProgressKeepsBattle(t *testing.T) {
	f := newFixture(t, &placement.Layout{Soldiers: []*entity.Soldier{
		soldier(1, entity.TeamCircles, entity.RankGeneral, 100, 100),
		soldier(2, entity.TeamSquares, entity.RankGeneral, 900, 100),
	}})
	f.s.Leave(f.p[entity.TeamSquares])
	if f.s.Phase() != PhaseInProgress || !f.s.IsFull() {
		t.Fatalf("battle should keep running and stay closed")
	}
	if got := f.s.Recipients(); len(got) != 1 || got[0] != f.p[entity.TeamCircles] {
		t.Fatalf("recipients=%v", got)
	}
}

func TestMove_GeneralBringsSquad(t *testing.T) {
	f := newFixture(t, &placement.Layout{Soldiers: []*entity.Soldier{
		soldier(1, entity.TeamCircles, entity.RankGeneral, 200, 200),
		soldier(2, entity.TeamCircles, entity.RankRegular, 250, 200),
		soldier(3, entity.TeamCircles, entity.RankRegular, 200, 350),
		soldier(4, entity.TeamSquares, entity.RankGeneral, 1500, 200),
		soldier(5, entity.TeamSquares, entity.RankRegular, 1550, 200),
	}})
	f.next = entity.TeamSquares

	out, err := f.s.Move(f.p[entity.TeamCircles], 1, 250, 200)
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	g, _ := f.s.Soldier(1)
	r, _ := f.s.Soldier(2)
	far, _ := f.s.Soldier(3)
	if g.X != 250 || g.Y != 200 {
		t.Fatalf("general at (%v,%v)", g.X, g.Y)
	}
	if r.X != 300 || r.Y != 200 {
		t.Fatalf("follower at (%v,%v), want (300,200)", r.X, r.Y)
	}
	if far.X != 200 || far.Y != 350 {
		t.Fatalf("regular outside the squad radius moved to (%v,%v)", far.X, far.Y)
	}
	turn, ok := findMsg[dto.NewTurn](out)
	if !ok || turn.Sound == nil || *turn.Sound != entity.SoundMoveGroup || len(turn.Updates) != 2 {
		t.Fatalf("unexpected newTurn %+v", turn)
	}
	if f.s.CurrentTeam() != entity.TeamSquares || turn.CurrentTeam != entity.TeamSquares {
		t.Fatalf("turn did not pass to squares")
	}
	if _, ok := findMsg[dto.UpdateBullets](out); ok {
		t.Fatalf("no bullets, no updateBullets")
	}
}

func TestMove_ClampsAndTracksTrench(t *testing.T) {
	tr := &entity.Trench{ID: 10, X: 600, W: 120, FieldHeight: 602}
	f := newFixture(t, &placement.Layout{
		Trenches: []*entity.Trench{tr},
		Soldiers: []*entity.Soldier{
			soldier(1, entity.TeamCircles, entity.RankRegular, 200, 200),
			soldier(2, entity.TeamSquares, entity.RankRegular, 1500, 200),
		},
	})
	out, err := f.s.Move(f.p[entity.TeamCircles], 1, 610, -50)
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	so, _ := f.s.Soldier(1)
	if so.X != 610 || so.Y != 12.8 || !so.InTrench {
		t.Fatalf("soldier %+v", so)
	}
	turn, _ := findMsg[dto.NewTurn](out)
	if *turn.Sound != entity.SoundMove {
		t.Fatalf("sound=%v", *turn.Sound)
	}
}

func TestActions_RejectionOrder(t *testing.T) {
	f := newFixture(t, &placement.Layout{Soldiers: []*entity.Soldier{
		soldier(1, entity.TeamCircles, entity.RankRegular, 200, 200),
		soldier(2, entity.TeamSquares, entity.RankRegular, 1500, 200),
	}})
	circles, squares := f.p[entity.TeamCircles], f.p[entity.TeamSquares]

	cases := []struct {
		name string
		err  error
		run  func() error
	}{
		{"unknown soldier", ErrUnknownEntityID, func() error { _, err := f.s.Move(circles, 99, 1, 1); return err }},
		{"other team's soldier", ErrWrongTeamActor, func() error { _, err := f.s.Move(circles, 2, 1, 1); return err }},
		{"not your turn", ErrNotYourTurn, func() error { _, err := f.s.Move(squares, 2, 1, 1); return err }},
		{"stranger", ErrNotInBattle, func() error { _, err := f.s.Move("ghost", 1, 1, 1); return err }},
		{"nan", ErrMalformedMessage, func() error { _, err := f.s.Move(circles, 1, math.NaN(), 1); return err }},
		{"zero direction", ErrMalformedMessage, func() error { _, err := f.s.Shoot(circles, 1, geom.Vec{}); return err }},
		{"unknown kit", ErrUnknownEntityID, func() error { _, err := f.s.Heal(circles, 1, 42); return err }},
	}
	for _, c := range cases {
		if err := c.run(); !errors.Is(err, c.err) {
			t.Fatalf("%s: err=%v want %v", c.name, err, c.err)
		}
	}
	if so, _ := f.s.Soldier(2); so.X != 1500 {
		t.Fatalf("rejected action mutated state")
	}
	if f.s.CurrentTeam() != entity.TeamCircles {
		t.Fatalf("rejected action passed the turn")
	}
}

func TestHeal_ArmorSoundAtThreeAndKitIsSingleUse(t *testing.T) {
	f := newFixture(t, &placement.Layout{
		Kits: []*entity.HealthKit{{ID: 20, X: 500, Y: 500, Size: 19.2}, {ID: 21, X: 520, Y: 500, Size: 19.2}},
		Soldiers: []*entity.Soldier{
			soldier(1, entity.TeamCircles, entity.RankRegular, 200, 200),
			soldier(2, entity.TeamSquares, entity.RankRegular, 1500, 200),
		},
	})
	circles := f.p[entity.TeamCircles]

	out, err := f.s.Heal(circles, 1, 20)
	if err != nil {
		t.Fatalf("first heal: %v", err)
	}
	turn, _ := findMsg[dto.NewTurn](out)
	if *turn.Sound != entity.SoundHealArmor {
		t.Fatalf("first heal sound=%v want healArmor", *turn.Sound)
	}

	out, err = f.s.Heal(circles, 1, 21)
	if err != nil {
		t.Fatalf("second heal: %v", err)
	}
	turn, _ = findMsg[dto.NewTurn](out)
	if *turn.Sound != entity.SoundHeal {
		t.Fatalf("second heal sound=%v want heal", *turn.Sound)
	}

	so, _ := f.s.Soldier(1)
	if so.Health != 4 || len(f.s.HealthKits()) != 0 {
		t.Fatalf("health=%d kits=%d", so.Health, len(f.s.HealthKits()))
	}
	if _, err := f.s.Heal(circles, 1, 20); !errors.Is(err, ErrUnknownEntityID) {
		t.Fatalf("reusing a kit err=%v", err)
	}
}

func TestShoot_TwoBulletsBothForecast(t *testing.T) {
	f := newFixture(t, &placement.Layout{
		Walls: []*entity.Wall{{ID: 30, X: 700, Y: 200, W: 19.2, H: 80}},
		Soldiers: []*entity.Soldier{
			soldier(1, entity.TeamCircles, entity.RankRegular, 200, 200),
			soldier(2, entity.TeamSquares, entity.RankRegular, 1500, 400),
		},
	})
	circles := f.p[entity.TeamCircles]

	if _, err := f.s.Shoot(circles, 1, geom.Vec{X: 5}); err != nil {
		t.Fatalf("first shot: %v", err)
	}
	f.clock.t = 0.1
	out, err := f.s.Shoot(circles, 1, geom.Vec{X: 1300, Y: 200})
	if err != nil {
		t.Fatalf("second shot: %v", err)
	}
	turn, _ := findMsg[dto.NewTurn](out)
	if *turn.Sound != entity.SoundShoot || len(turn.Updates) != 1 {
		t.Fatalf("unexpected newTurn %+v", turn)
	}

	bullets := f.s.Bullets()
	if len(bullets) != 2 {
		t.Fatalf("bullets=%d", len(bullets))
	}
	for _, b := range bullets {
		if !b.Impact.Finite() {
			t.Fatalf("bullet %d has no impact", b.ID)
		}
		if again := impact.Compute(b, f.s.world(), f.clock.t); again != b.Impact {
			t.Fatalf("bullet %d forecast stale: %+v vs %+v", b.ID, b.Impact, again)
		}
	}
	if bullets[0].Impact.Sound != entity.SoundBump {
		t.Fatalf("first bullet should hit the wall, got %+v", bullets[0].Impact)
	}
	if !bullets[1].Impact.Hit || bullets[1].Impact.SoldierID != 2 {
		t.Fatalf("second bullet should hit soldier 2, got %+v", bullets[1].Impact)
	}
	if at, ok := f.s.NextWake(); !ok || at != bullets[0].Impact.Time {
		t.Fatalf("next wake=%v ok=%v", at, ok)
	}
}

func TestResolveImpacts_DamageKillAndGameOver(t *testing.T) {
	f := newFixture(t, &placement.Layout{Soldiers: []*entity.Soldier{
		soldier(1, entity.TeamCircles, entity.RankRegular, 100, 200),
		soldier(2, entity.TeamSquares, entity.RankRegular, 400, 200),
	}})
	circles := f.p[entity.TeamCircles]

	if _, err := f.s.Shoot(circles, 1, geom.Vec{X: 1}); err != nil {
		t.Fatalf("shoot: %v", err)
	}
	due, _ := f.s.NextWake()
	if out := f.s.ResolveImpacts(due - 0.01); len(out) != 0 {
		t.Fatalf("nothing is due yet, got %+v", out)
	}
	f.clock.t = due
	out := f.s.ResolveImpacts(due)
	hit, ok := findMsg[dto.BulletHit](out)
	if !ok || *hit.Sound != entity.SoundInjury || len(hit.Updates) != 2 {
		t.Fatalf("unexpected bulletHit %+v", out)
	}
	if so, _ := f.s.Soldier(2); so.Health != 1 {
		t.Fatalf("health=%d want 1", so.Health)
	}

	if _, err := f.s.Shoot(circles, 1, geom.Vec{X: 1}); err != nil {
		t.Fatalf("second shoot: %v", err)
	}
	due, _ = f.s.NextWake()
	out = f.s.ResolveImpacts(due)
	over, ok := findMsg[dto.GameOver](out)
	if !ok || over.Winner != entity.TeamCircles || len(over.Survivors) != 1 || over.Survivors[0].ID != 1 {
		t.Fatalf("unexpected gameOver %+v", out)
	}
	if f.s.Phase() != PhaseFinished {
		t.Fatalf("phase=%v", f.s.Phase())
	}
	if _, ok := f.s.NextWake(); ok {
		t.Fatalf("finished battle should not wake")
	}
	if _, err := f.s.Shoot(circles, 1, geom.Vec{X: 1}); !errors.Is(err, ErrGameNotInProgress) {
		t.Fatalf("action after finish err=%v", err)
	}
}

func TestResolveImpacts_DeathReforecastsOtherBullets(t *testing.T) {
	target := soldier(2, entity.TeamSquares, entity.RankRegular, 400, 200)
	target.Health = 1
	f := newFixture(t, &placement.Layout{Soldiers: []*entity.Soldier{
		soldier(1, entity.TeamCircles, entity.RankRegular, 100, 200),
		target,
		soldier(3, entity.TeamSquares, entity.RankRegular, 1500, 500),
	}})
	circles := f.p[entity.TeamCircles]

	if _, err := f.s.Shoot(circles, 1, geom.Vec{X: 1}); err != nil {
		t.Fatalf("shoot: %v", err)
	}
	f.clock.t = 0.2
	if _, err := f.s.Shoot(circles, 1, geom.Vec{X: 1}); err != nil {
		t.Fatalf("shoot: %v", err)
	}
	second := f.s.Bullets()[1]
	before := second.Impact
	if !before.Hit || before.SoldierID != 2 {
		t.Fatalf("second bullet should first aim at soldier 2: %+v", before)
	}

	first, _ := f.s.NextWake()
	f.clock.t = first
	out := f.s.ResolveImpacts(first)
	if _, ok := f.s.Soldier(2); ok {
		t.Fatalf("soldier 2 should be dead")
	}
	upd, ok := findMsg[dto.UpdateBullets](out)
	if !ok || len(upd.Updates) != 1 || upd.Updates[0].ImpactSoldierID != nil {
		t.Fatalf("expected an updateBullets with the refreshed forecast, got %+v", out)
	}
	if second.Impact.Hit || second.Impact.Time <= before.Time {
		t.Fatalf("forecast after death %+v should be later than %+v", second.Impact, before)
	}
	if f.s.Phase() != PhaseInProgress {
		t.Fatalf("squares still have soldier 3")
	}
}

// shotAtSquares has circles fire at soldier 2 and hands the turn to squares.
// It returns the forecast impact time.
func shotAtSquares(t *testing.T, f *fixture) float64 {
	t.Helper()
	f.next = entity.TeamSquares
	if _, err := f.s.Shoot(f.p[entity.TeamCircles], 1, geom.Vec{X: 1}); err != nil {
		t.Fatalf("shoot: %v", err)
	}
	due, ok := f.s.NextWake()
	if !ok {
		t.Fatalf("bullet has no impact")
	}
	return due
}

func TestMove_OverdueHitLandsBeforeTheMove(t *testing.T) {
	f := newFixture(t, &placement.Layout{Soldiers: []*entity.Soldier{
		soldier(1, entity.TeamCircles, entity.RankRegular, 100, 200),
		soldier(2, entity.TeamSquares, entity.RankRegular, 400, 200),
	}})
	due := shotAtSquares(t, f)

	f.clock.t = due + 0.0005
	out, err := f.s.Move(f.p[entity.TeamSquares], 2, 400, 500)
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	hitAt, turnAt := indexOf[dto.BulletHit](out), indexOf[dto.NewTurn](out)
	if hitAt < 0 || turnAt < 0 || hitAt > turnAt {
		t.Fatalf("bulletHit should precede newTurn: %+v", out)
	}
	hit := out[hitAt].Msg.(dto.BulletHit)
	if *hit.Sound != entity.SoundInjury || hit.GameTime != due {
		t.Fatalf("unexpected bulletHit %+v", hit)
	}
	so, _ := f.s.Soldier(2)
	if so.Health != 1 {
		t.Fatalf("soldier dodged a hit that had already landed, health=%d", so.Health)
	}
	if so.Y != 500 {
		t.Fatalf("move itself should still apply, y=%v", so.Y)
	}
	if n := len(f.s.Bullets()); n != 0 {
		t.Fatalf("bullets=%d", n)
	}
}

func TestMove_OverdueWallHitIsNotReforecast(t *testing.T) {
	f := newFixture(t, &placement.Layout{
		Walls: []*entity.Wall{{ID: 30, X: 700, Y: 200, W: 19.2, H: 80}},
		Soldiers: []*entity.Soldier{
			soldier(1, entity.TeamCircles, entity.RankRegular, 200, 200),
			soldier(2, entity.TeamSquares, entity.RankRegular, 1500, 400),
		},
	})
	due := shotAtSquares(t, f)
	if b := f.s.Bullets()[0]; b.Impact.Sound != entity.SoundBump {
		t.Fatalf("bullet should be headed for the wall: %+v", b.Impact)
	}

	f.clock.t = due + 0.1
	out, err := f.s.Move(f.p[entity.TeamSquares], 2, 1500, 300)
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	hit, ok := findMsg[dto.BulletHit](out)
	if !ok || *hit.Sound != entity.SoundBump || hit.GameTime != due {
		t.Fatalf("expected the wall hit, got %+v", out)
	}
	if _, ok := findMsg[dto.UpdateBullets](out); ok {
		t.Fatalf("a spent bullet must not be forecast again: %+v", out)
	}
	if n := len(f.s.Bullets()); n != 0 {
		t.Fatalf("bullets=%d", n)
	}
	if so, _ := f.s.Soldier(2); so.Health != 2 {
		t.Fatalf("health=%d", so.Health)
	}
}

func TestHeal_OverdueLethalHitWins(t *testing.T) {
	target := soldier(2, entity.TeamSquares, entity.RankRegular, 400, 200)
	target.Health = 1
	f := newFixture(t, &placement.Layout{
		Kits: []*entity.HealthKit{{ID: 40, X: 800, Y: 500, Size: 19.2}},
		Soldiers: []*entity.Soldier{
			soldier(1, entity.TeamCircles, entity.RankRegular, 100, 200),
			target,
			soldier(3, entity.TeamSquares, entity.RankRegular, 1500, 500),
		},
	})
	due := shotAtSquares(t, f)

	f.clock.t = due + 0.0005
	out, err := f.s.Heal(f.p[entity.TeamSquares], 2, 40)
	if !errors.Is(err, ErrUnknownEntityID) {
		t.Fatalf("healing a soldier already shot dead err=%v", err)
	}
	if _, ok := findMsg[dto.BulletHit](out); !ok {
		t.Fatalf("rejected heal should still carry the due hit: %+v", out)
	}
	if _, ok := findMsg[dto.NewTurn](out); ok {
		t.Fatalf("rejected heal must not pass the turn")
	}
	if _, ok := f.s.Soldier(2); ok {
		t.Fatalf("soldier 2 should be dead")
	}
	if n := len(f.s.HealthKits()); n != 1 {
		t.Fatalf("kit consumed by a rejected heal, kits=%d", n)
	}
	if f.s.Phase() != PhaseInProgress || f.s.CurrentTeam() != entity.TeamSquares {
		t.Fatalf("phase=%v team=%v", f.s.Phase(), f.s.CurrentTeam())
	}
}

func TestHeal_OverdueLethalHitEndsBattle(t *testing.T) {
	target := soldier(2, entity.TeamSquares, entity.RankRegular, 400, 200)
	target.Health = 1
	f := newFixture(t, &placement.Layout{
		Kits: []*entity.HealthKit{{ID: 40, X: 800, Y: 500, Size: 19.2}},
		Soldiers: []*entity.Soldier{
			soldier(1, entity.TeamCircles, entity.RankRegular, 100, 200),
			target,
		},
	})
	due := shotAtSquares(t, f)

	f.clock.t = due + 0.0005
	out, err := f.s.Heal(f.p[entity.TeamSquares], 2, 40)
	if !errors.Is(err, ErrGameNotInProgress) {
		t.Fatalf("err=%v want game not in progress", err)
	}
	over, ok := findMsg[dto.GameOver](out)
	if !ok || over.Winner != entity.TeamCircles || over.GameTime != due {
		t.Fatalf("unexpected gameOver %+v", out)
	}
	if indexOf[dto.BulletHit](out) > indexOf[dto.GameOver](out) {
		t.Fatalf("bulletHit should precede gameOver: %+v", out)
	}
	if f.s.Phase() != PhaseFinished {
		t.Fatalf("phase=%v", f.s.Phase())
	}
}
