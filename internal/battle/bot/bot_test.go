package bot

import (
	"context"
	"math/rand/v2"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"TrenchGame/internal/battle/actors"
	"TrenchGame/internal/battle/entity"
	"TrenchGame/internal/battle/game"
	"TrenchGame/internal/battle/interfaces"
	"TrenchGame/internal/battle/placement"
	"TrenchGame/internal/battle/rules"
	transporthttp "TrenchGame/internal/shared/transport/http"
	"TrenchGame/internal/shared/transport/ws"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// newServer runs the full battle stack behind an httptest server and
// returns its WebSocket URL.
func newServer(t *testing.T) string {
	t.Helper()
	r := rules.Default()
	r.BulletSpeed = 3000

	rt := actors.NewRuntime(func(id string) (*game.Session, error) {
		return game.New(id, game.Options{
			Rules: r,
			Layout: &placement.Layout{Soldiers: []*entity.Soldier{
				{ID: 1, Team: entity.TeamCircles, Rank: entity.RankRegular, X: 100, Y: 300, Size: r.SoldierSize, Health: 1},
				{ID: 2, Team: entity.TeamSquares, Rank: entity.RankRegular, X: 400, Y: 300, Size: r.SoldierSize, Health: 1},
			}},
		})
	}, nil, time.Second)
	t.Cleanup(rt.Shutdown)

	module := interfaces.New(rt, nil)
	router := ws.NewRouter(nil)
	module.WsRegister(router)

	gin.SetMode(gin.TestMode)
	srv := transporthttp.NewHttpServer("", nil, nil)
	module.HttpRegister(srv.Group())
	srv.Engine().GET("/ws", gin.WrapH(ws.NewServer(router, nil, 4096)))

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
}

func TestBots_PlayDuelToTheEnd(t *testing.T) {
	url := newServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	results := make([]*Result, 2)
	g, gctx := errgroup.WithContext(ctx)
	for i := range results {
		b, err := Dial(gctx, url, rand.New(rand.NewPCG(uint64(i), 99)), nil)
		require.NoError(t, err)
		t.Cleanup(func() { _ = b.Close() })
		g.Go(func() error {
			res, err := b.Run(gctx)
			results[i] = res
			return err
		})
	}
	require.NoError(t, g.Wait())

	assert.NotEqual(t, results[0].Team, results[1].Team)
	assert.True(t, results[0].Winner.Valid())
	assert.Equal(t, results[0].Winner, results[1].Winner)
	assert.Positive(t, results[0].Actions+results[1].Actions)
	for _, res := range results {
		assert.Zero(t, res.Rejections[string(game.CodeWrongTeamActor)])
		assert.Zero(t, res.Rejections[string(game.CodeMalformedMessage)])
	}
}
