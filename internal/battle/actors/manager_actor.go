package actors

import (
	"context"
	"fmt"

	"TrenchGame/internal/battle/dto"
	"TrenchGame/internal/battle/game"
	"TrenchGame/modules/kit/errx"
	"TrenchGame/modules/kit/logx"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// maxJoinTries bounds how often a start request is rerouted after landing
// on a battle that filled up in the meantime.
const maxJoinTries = 3

type battleRef struct {
	pid  *actor.PID
	info dto.BattleInfo
}

// ManagerActor pairs players into battles: a start request joins the oldest
// battle that still has a free seat, or a freshly spawned one.
type ManagerActor struct {
	newSession SessionFactory
	log        logx.Logger
	battles    map[string]*battleRef
	order      []string
}

func NewManagerActor(newSession SessionFactory, l logx.Logger) *ManagerActor {
	if l == nil {
		l = logx.NewZapLogger(nil)
	}
	return &ManagerActor{
		newSession: newSession,
		log:        l,
		battles:    make(map[string]*battleRef),
	}
}

func (m *ManagerActor) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *StartBattle:
		if msg == nil || msg.Conn == nil {
			ctx.Respond(&StartResult{Err: game.ErrMalformedMessage})
			return
		}
		m.route(ctx, &joinBattle{Conn: msg.Conn, ReplyTo: ctx.Sender()})
	case *joinAccepted:
		ctx.Send(msg.ReplyTo, &StartResult{BattleID: msg.BattleID, PID: msg.PID})
	case *joinRejected:
		m.rejected(ctx, msg)
	case *battleStatus:
		if ref, ok := m.battles[msg.Info.ID]; ok {
			ref.info = msg.Info
		}
	case *battleIdle:
		m.remove(ctx, msg.ID)
	case *ListBattles:
		ctx.Respond(&BattleList{Battles: m.list()})
	}
}

func (m *ManagerActor) route(ctx actor.Context, join *joinBattle) {
	ref, err := m.pending(ctx)
	if err != nil {
		ctx.Send(join.ReplyTo, &StartResult{Err: err})
		return
	}
	join.Tries++
	ctx.Request(ref.pid, join)
}

func (m *ManagerActor) rejected(ctx actor.Context, msg *joinRejected) {
	join := msg.join
	if ref, ok := m.battles[msg.BattleID]; ok && msg.Full {
		ref.info.Full = true
	}
	if !msg.Full {
		ctx.Send(join.ReplyTo, &StartResult{Err: msg.Err})
		return
	}
	if join.Tries >= maxJoinTries {
		m.log.Warn("start request gave up after full battles",
			zap.String("player_id", join.Conn.ID()),
			zap.Int("tries", join.Tries))
		ctx.Send(join.ReplyTo, &StartResult{Err: errx.ErrUnavailable})
		return
	}
	m.route(ctx, join)
}

// pending returns the oldest battle with a free seat, spawning one if none
// is left.
func (m *ManagerActor) pending(ctx actor.Context) (*battleRef, error) {
	for _, id := range m.order {
		if ref := m.battles[id]; !ref.info.Full {
			return ref, nil
		}
	}

	id := uuid.NewString()
	sess, err := m.newSession(id)
	if err != nil {
		err = errx.ErrInternal.WithCause(fmt.Errorf("new battle %s: %w", id, err))
		logx.ReportSysErrorWithLoggerContext(context.Background(), m.log,
			logx.NewSysLog("spawn_battle", err), zap.String("battle_id", id))
		return nil, err
	}
	props := actor.PropsFromProducer(func() actor.Actor {
		return NewBattleActor(sess, m.log)
	})
	ref := &battleRef{
		pid:  ctx.Spawn(props),
		info: dto.BattleInfo{ID: id, Phase: sess.Phase().String()},
	}
	m.battles[id] = ref
	m.order = append(m.order, id)
	m.log.Info("battle spawned", zap.String("battle_id", id))
	return ref, nil
}

func (m *ManagerActor) remove(ctx actor.Context, id string) {
	ref, ok := m.battles[id]
	if !ok {
		return
	}
	delete(m.battles, id)
	for i, v := range m.order {
		if v == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	ctx.Poison(ref.pid)
	m.log.Info("battle removed", zap.String("battle_id", id))
}

func (m *ManagerActor) list() []dto.BattleInfo {
	out := make([]dto.BattleInfo, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.battles[id].info)
	}
	return out
}
