package actors

import (
	"context"
	"errors"
	"fmt"
	"time"

	"TrenchGame/internal/battle/dto"
	"TrenchGame/internal/battle/game"
	"TrenchGame/modules/kit/errx"
	"TrenchGame/modules/kit/logx"

	"github.com/asynkron/protoactor-go/actor"
	"go.uber.org/zap"
)

// wakeSlack keeps a timer from firing a hair before the impact it waits for.
const wakeSlack = time.Millisecond

type State int

const (
	None State = iota
	Online
	Closing
	Offline
)

// BattleActor owns one game session. Every mutation of the session happens
// on this actor's mailbox.
type BattleActor struct {
	state      State
	sess       *game.Session
	conns      map[game.PlayerID]Conn
	dispatcher *Dispatcher
	log        logx.Logger

	timer    *time.Timer
	seq      uint64
	lastInfo dto.BattleInfo
}

func NewBattleActor(sess *game.Session, l logx.Logger) *BattleActor {
	return &BattleActor{
		state:      None,
		sess:       sess,
		conns:      make(map[game.PlayerID]Conn),
		dispatcher: NewDispatcher(),
		log:        logx.OrNop(l).With(zap.String("battle_id", sess.ID())),
	}
}

func (b *BattleActor) Receive(ctx actor.Context) {
	defer b.recoverPanic(ctx)

	switch msg := ctx.Message().(type) {
	case *actor.Started:
		b.state = Online
		b.reportStatus(ctx)
	case *actor.Stopping:
		b.stopTimer()
		b.state = Closing
	case *actor.Stopped:
		b.stopTimer()
		b.state = Offline
	case *actor.Restarting:
		b.stopTimer()
	case *joinBattle:
		b.join(ctx, msg)
	case *PlayerLeft:
		b.leave(ctx, msg.PlayerID)
	case *impactWake:
		if msg.seq != b.seq {
			return
		}
		b.timer = nil
		b.resolve(ctx)
	default:
		b.dispatcher.Dispatch(ctx, b, msg)
	}
}

func (b *BattleActor) join(ctx actor.Context, req *joinBattle) {
	if b.state != Online {
		ctx.Respond(&joinRejected{BattleID: b.sess.ID(), Full: true, join: req})
		return
	}
	p := game.PlayerID(req.Conn.ID())
	out, err := b.sess.Join(p)
	if err != nil {
		ctx.Respond(&joinRejected{BattleID: b.sess.ID(), Full: errors.Is(err, game.ErrSessionFull), Err: err, join: req})
		return
	}
	b.conns[p] = req.Conn
	b.deliver(out)
	b.reportStatus(ctx)
	ctx.Respond(&joinAccepted{BattleID: b.sess.ID(), PID: ctx.Self(), ReplyTo: req.ReplyTo})
}

func (b *BattleActor) leave(ctx actor.Context, p game.PlayerID) {
	if _, ok := b.conns[p]; !ok {
		return
	}
	delete(b.conns, p)
	b.sess.Leave(p)
	if len(b.conns) > 0 {
		b.reportStatus(ctx)
		return
	}
	b.state = Closing
	b.stopTimer()
	b.log.Info("battle idle")
	ctx.Send(ctx.Parent(), &battleIdle{ID: b.sess.ID()})
}

// act runs a player action and answers the asker with its outcome. A
// rejected action may still have settled impacts that were due, so its
// envelopes go out either way.
func (b *BattleActor) act(ctx actor.Context, run func(s *game.Session) ([]game.Envelope, error)) {
	out, err := run(b.sess)
	b.deliver(out)
	if len(out) > 0 {
		b.reschedule(ctx)
		b.reportStatus(ctx)
	}
	ctx.Respond(&ActionResult{Err: err, GameTime: b.sess.Now()})
}

func (b *BattleActor) resolve(ctx actor.Context) {
	out := b.sess.ResolveImpacts(b.sess.Now())
	b.deliver(out)
	b.reschedule(ctx)
	b.reportStatus(ctx)
}

// reschedule arms one timer for the earliest pending impact. Bumping seq
// makes ticks from earlier timers stale.
func (b *BattleActor) reschedule(ctx actor.Context) {
	b.stopTimer()
	b.seq++
	if b.state != Online || b.sess.Phase() != game.PhaseInProgress {
		return
	}
	at, ok := b.sess.NextWake()
	if !ok {
		return
	}
	delay := time.Duration((at-b.sess.Now())*float64(time.Second)) + wakeSlack
	if delay < 0 {
		delay = 0
	}
	root := ctx.ActorSystem().Root
	self := ctx.Self()
	wake := &impactWake{seq: b.seq}
	b.timer = time.AfterFunc(delay, func() {
		root.Send(self, wake)
	})
}

func (b *BattleActor) stopTimer() {
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
}

func (b *BattleActor) deliver(out []game.Envelope) {
	for _, env := range out {
		if env.To != "" {
			b.push(env.To, env.Msg)
			continue
		}
		for _, p := range b.sess.Recipients() {
			b.push(p, env.Msg)
		}
	}
}

func (b *BattleActor) push(p game.PlayerID, msg any) {
	c, ok := b.conns[p]
	if !ok {
		return
	}
	if !c.Push(msg) {
		b.log.Warn("push dropped", zap.String("player_id", string(p)))
	}
}

func (b *BattleActor) info() dto.BattleInfo {
	return dto.BattleInfo{
		ID:      b.sess.ID(),
		Phase:   b.sess.Phase().String(),
		Players: b.sess.Players(),
		Full:    b.state != Online || b.sess.IsFull(),
	}
}

func (b *BattleActor) reportStatus(ctx actor.Context) {
	info := b.info()
	if info == b.lastInfo {
		return
	}
	b.lastInfo = info
	if parent := ctx.Parent(); parent != nil {
		ctx.Send(parent, &battleStatus{Info: info})
	}
}

func (b *BattleActor) recoverPanic(ctx actor.Context) {
	p := recover()
	if p == nil {
		return
	}
	err := errx.ErrInternal.WithCause(fmt.Errorf("battle actor panic: %v", p))
	logx.ReportSysErrorWithLoggerContext(context.Background(), b.log,
		logx.NewSysLog("battle_actor", err),
		zap.String("message", fmt.Sprintf("%T", ctx.Message())))
	if ctx.Sender() == nil {
		return
	}
	if join, ok := ctx.Message().(*joinBattle); ok {
		ctx.Respond(&joinRejected{BattleID: b.sess.ID(), Err: err, join: join})
		return
	}
	ctx.Respond(&ActionResult{Err: err, GameTime: b.sess.Now()})
}
