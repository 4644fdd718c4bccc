package actors

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"TrenchGame/internal/battle/dto"
	"TrenchGame/internal/battle/entity"
	"TrenchGame/internal/battle/game"
	"TrenchGame/internal/battle/geom"
	"TrenchGame/internal/battle/placement"
	"TrenchGame/internal/battle/rules"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const waitFor = 2 * time.Second

type fakeConn struct {
	id   string
	mu   sync.Mutex
	msgs []any
}

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) Push(msg any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, msg)
	return true
}

func (c *fakeConn) snapshot() []any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]any(nil), c.msgs...)
}

func first[T any](c *fakeConn) (T, bool) {
	for _, m := range c.snapshot() {
		if v, ok := m.(T); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

func eventually[T any](t *testing.T, c *fakeConn) T {
	t.Helper()
	var out T
	require.Eventually(t, func() bool {
		v, ok := first[T](c)
		out = v
		return ok
	}, waitFor, 5*time.Millisecond)
	return out
}

// duel is two soldiers facing each other on an otherwise empty field.
func duel() *placement.Layout {
	return &placement.Layout{
		Soldiers: []*entity.Soldier{
			{ID: 1, Team: entity.TeamCircles, Rank: entity.RankGeneral, X: 100, Y: 100, Size: 25.6, Health: 2},
			{ID: 2, Team: entity.TeamSquares, Rank: entity.RankRegular, X: 160, Y: 100, Size: 25.6, Health: 2},
		},
	}
}

func newRuntime(t *testing.T) *Runtime {
	t.Helper()
	rt := NewRuntime(func(id string) (*game.Session, error) {
		return game.New(id, game.Options{
			Rules:    rules.Default(),
			PickTeam: func() entity.Team { return entity.TeamCircles },
			Layout:   duel(),
		})
	}, nil, time.Second)
	t.Cleanup(rt.Shutdown)
	return rt
}

// startPair seats two connections and returns them ordered circles first.
func startPair(t *testing.T, rt *Runtime) (circles, squares *fakeConn, res *StartResult) {
	t.Helper()
	a, b := &fakeConn{id: "a"}, &fakeConn{id: "b"}
	ra, err := rt.Start(context.Background(), a)
	require.NoError(t, err)
	rb, err := rt.Start(context.Background(), b)
	require.NoError(t, err)
	require.Equal(t, ra.BattleID, rb.BattleID)

	initA := eventually[dto.Init](t, a)
	if initA.Team == entity.TeamCircles {
		return a, b, ra
	}
	return b, a, ra
}

func TestRuntime_StartPairsPlayers(t *testing.T) {
	rt := newRuntime(t)
	circles, squares, res := startPair(t, rt)

	for _, c := range []*fakeConn{circles, squares} {
		started := eventually[dto.GameStarted](t, c)
		assert.Equal(t, entity.TeamCircles, started.CurrentTeam)
	}
	initC := eventually[dto.Init](t, circles)
	initS := eventually[dto.Init](t, squares)
	assert.NotEqual(t, initC.Team, initS.Team)
	assert.Len(t, initC.Data.Soldiers, 2)

	require.Eventually(t, func() bool {
		list, err := rt.Battles(context.Background())
		return err == nil && len(list) == 1 && list[0].Full && list[0].Players == 2
	}, waitFor, 5*time.Millisecond)

	third := &fakeConn{id: "c"}
	r3, err := rt.Start(context.Background(), third)
	require.NoError(t, err)
	assert.NotEqual(t, res.BattleID, r3.BattleID)
	initC3 := eventually[dto.Init](t, third)
	assert.Equal(t, "waitingForPlayers", initC3.Phase)
}

func TestRuntime_ActionRejections(t *testing.T) {
	rt := newRuntime(t)
	_, squares, res := startPair(t, rt)

	_, err := rt.Act(context.Background(), res.PID, &MoveAction{PlayerID: game.PlayerID(squares.id), SoldierID: 2, X: 200, Y: 200})
	assert.True(t, errors.Is(err, game.ErrNotYourTurn), "got %v", err)

	_, err = rt.Act(context.Background(), res.PID, &MoveAction{PlayerID: "stranger", SoldierID: 1, X: 200, Y: 200})
	assert.True(t, errors.Is(err, game.ErrNotInBattle), "got %v", err)

	_, err = rt.Act(context.Background(), nil, &MoveAction{})
	assert.True(t, errors.Is(err, game.ErrNotInBattle), "got %v", err)
}

func TestRuntime_BulletLandsOnTimer(t *testing.T) {
	rt := newRuntime(t)
	circles, squares, res := startPair(t, rt)

	_, err := rt.Act(context.Background(), res.PID, &ShootAction{
		PlayerID:  game.PlayerID(circles.id),
		SoldierID: 1,
		Direction: geom.Vec{X: 1},
	})
	require.NoError(t, err)

	turn := eventually[dto.NewTurn](t, squares)
	assert.Equal(t, entity.TeamSquares, turn.CurrentTeam)

	for _, c := range []*fakeConn{circles, squares} {
		hit := eventually[dto.BulletHit](t, c)
		require.NotNil(t, hit.Sound)
		assert.Equal(t, entity.SoundInjury, *hit.Sound)
	}
}

func TestRuntime_EmptyBattleIsRemoved(t *testing.T) {
	rt := newRuntime(t)
	circles, squares, res := startPair(t, rt)

	rt.Leave(res.PID, game.PlayerID(circles.id))
	require.Eventually(t, func() bool {
		list, err := rt.Battles(context.Background())
		return err == nil && len(list) == 1 && list[0].Players == 1
	}, waitFor, 5*time.Millisecond)

	rt.Leave(res.PID, game.PlayerID(squares.id))
	require.Eventually(t, func() bool {
		list, err := rt.Battles(context.Background())
		return err == nil && len(list) == 0
	}, waitFor, 5*time.Millisecond)
}
