// Package bot is a scripted battle client. It speaks the public WebSocket
// protocol only, which makes it usable both as a load generator and as an
// end-to-end test driver.
package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"math"
	"math/rand/v2"
	"slices"

	"TrenchGame/internal/battle/dto"
	"TrenchGame/internal/battle/entity"
	"TrenchGame/internal/battle/game"
	"TrenchGame/modules/kit/logx"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// maxRetries caps consecutive actions sent after rejections in one turn.
	maxRetries = 3
	moveStep   = 50
)

// Result summarises one finished game from a bot's point of view.
type Result struct {
	Team       entity.Team
	Winner     entity.Team
	Actions    int
	Rejections map[string]int
}

type soldier struct {
	id   int
	team entity.Team
	x, y float64
}

// Bot plays one battle over one connection.
type Bot struct {
	conn *websocket.Conn
	rng  *rand.Rand
	log  logx.Logger

	team     entity.Team
	soldiers map[int]*soldier
	retries  int
	result   Result
}

// Dial connects to the battle server's /ws endpoint at url.
func Dial(ctx context.Context, url string, rng *rand.Rand, l logx.Logger) (*Bot, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Bot{
		conn:     conn,
		rng:      rng,
		log:      logx.OrNop(l),
		soldiers: make(map[int]*soldier),
		result:   Result{Rejections: make(map[string]int)},
	}, nil
}

func (b *Bot) Close() error {
	return b.conn.Close()
}

// Run joins a battle and plays until it is over, ctx ends or the
// connection fails.
func (b *Bot) Run(ctx context.Context) (*Result, error) {
	stop := context.AfterFunc(ctx, func() { _ = b.conn.Close() })
	defer stop()

	if err := b.send(map[string]any{"type": dto.TypeStart}); err != nil {
		return nil, err
	}
	for {
		var f frame
		if err := b.conn.ReadJSON(&f); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("read: %w", err)
		}
		done, err := b.handle(&f)
		if err != nil {
			return nil, err
		}
		if done {
			return &b.result, nil
		}
	}
}

// frame is the union of every server message the bot reads.
type frame struct {
	Type        string            `json:"type"`
	Team        entity.Team       `json:"team"`
	Data        *dto.Snapshot     `json:"data"`
	CurrentTeam *entity.Team      `json:"currentTeam"`
	Updates     []json.RawMessage `json:"updates"`
	Winner      entity.Team       `json:"winner"`
	Reason      string            `json:"reason"`
	Action      string            `json:"action"`
}

// update is the union of the entity updates in newTurn and bulletHit.
type update struct {
	ID     int      `json:"id"`
	X      *float64 `json:"x"`
	Y      *float64 `json:"y"`
	StartX *float64 `json:"startX"`
	Remove bool     `json:"remove"`
}

func (b *Bot) handle(f *frame) (bool, error) {
	switch f.Type {
	case dto.TypeInit:
		if f.Data == nil {
			return false, errors.New("init without snapshot")
		}
		b.team = f.Team
		b.result.Team = f.Team
		for _, s := range f.Data.Soldiers {
			b.soldiers[s.ID] = &soldier{id: s.ID, team: s.Team, x: s.X, y: s.Y}
		}
	case dto.TypeGameStarted:
		return false, b.onTurn(f.CurrentTeam)
	case dto.TypeNewTurn:
		b.apply(f.Updates)
		b.retries = 0
		return false, b.onTurn(f.CurrentTeam)
	case dto.TypeBulletHit:
		b.apply(f.Updates)
	case dto.TypeGameOver:
		b.result.Winner = f.Winner
		return true, nil
	case dto.TypeRejected:
		b.result.Rejections[f.Reason]++
		b.log.Debug("action rejected", zap.String("action", f.Action), zap.String("reason", f.Reason))
		if f.Reason == string(game.CodeNotYourTurn) || b.retries >= maxRetries {
			return false, nil
		}
		b.retries++
		return false, b.act()
	}
	return false, nil
}

func (b *Bot) apply(raw []json.RawMessage) {
	for _, r := range raw {
		var u update
		if err := json.Unmarshal(r, &u); err != nil || u.StartX != nil {
			continue
		}
		s, ok := b.soldiers[u.ID]
		if !ok {
			continue
		}
		switch {
		case u.Remove:
			delete(b.soldiers, u.ID)
		case u.X != nil && u.Y != nil:
			s.x, s.y = *u.X, *u.Y
		}
	}
}

func (b *Bot) onTurn(current *entity.Team) error {
	if current == nil || *current != b.team {
		return nil
	}
	return b.act()
}

// act shoots at the enemy nearest to a random own soldier, or now and then
// walks toward it instead.
func (b *Bot) act() error {
	var own, enemies []*soldier
	for _, id := range slices.Sorted(maps.Keys(b.soldiers)) {
		s := b.soldiers[id]
		if s.team == b.team {
			own = append(own, s)
		} else {
			enemies = append(enemies, s)
		}
	}
	if len(own) == 0 || len(enemies) == 0 {
		return nil
	}
	me := own[b.rng.IntN(len(own))]
	target := nearest(me, enemies)
	dx, dy := target.x-me.x, target.y-me.y
	dist := math.Hypot(dx, dy)
	if dist == 0 {
		dx, dist = 1, 1
	}

	b.result.Actions++
	if b.rng.Float64() < 0.7 {
		return b.send(map[string]any{
			"type":      dto.TypeShoot,
			"soldierID": me.id,
			"direction": map[string]float64{"x": dx / dist, "y": dy / dist},
		})
	}
	step := math.Min(moveStep, dist/2)
	return b.send(map[string]any{
		"type":      dto.TypeMove,
		"soldierID": me.id,
		"x":         me.x + dx/dist*step,
		"y":         me.y + dy/dist*step,
	})
}

func nearest(from *soldier, to []*soldier) *soldier {
	best := to[0]
	bestDist := math.Inf(1)
	for _, s := range to {
		if d := math.Hypot(s.x-from.x, s.y-from.y); d < bestDist {
			best, bestDist = s, d
		}
	}
	return best
}

func (b *Bot) send(msg any) error {
	if err := b.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}
