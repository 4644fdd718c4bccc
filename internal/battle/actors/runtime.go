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
)

const defaultAskTimeout = 3 * time.Second

// Runtime is the synchronous face of the actor system used by transports.
type Runtime struct {
	system  *actor.ActorSystem
	root    *actor.RootContext
	manager *actor.PID
	timeout time.Duration
}

func NewRuntime(newSession SessionFactory, l logx.Logger, askTimeout time.Duration) *Runtime {
	if askTimeout <= 0 {
		askTimeout = defaultAskTimeout
	}

	system := actor.NewActorSystem()
	root := system.Root
	managerProps := actor.PropsFromProducer(func() actor.Actor {
		return NewManagerActor(newSession, l)
	})
	manager := root.Spawn(managerProps)

	return &Runtime{
		system:  system,
		root:    root,
		manager: manager,
		timeout: askTimeout,
	}
}

func (r *Runtime) Shutdown() {
	if r == nil {
		return
	}
	if r.root != nil && r.manager != nil {
		r.root.Stop(r.manager)
	}
	if r.system != nil {
		r.system.Shutdown()
	}
}

// Start seats conn in a battle and returns it. The init message, and
// gameStarted when the second seat fills, are pushed to conn before Start
// returns.
func (r *Runtime) Start(ctx context.Context, conn Conn) (*StartResult, error) {
	res, err := r.request(r.manager, &StartBattle{Conn: conn}, r.timeoutFromContext(ctx))
	if err != nil {
		return nil, err
	}
	out, ok := res.(*StartResult)
	if !ok {
		return nil, errx.ErrInternal.WithCause(fmt.Errorf("unexpected start reply %T", res))
	}
	if out.Err != nil {
		return nil, out.Err
	}
	return out, nil
}

// Act sends a player action to its battle. A rule rejection comes back as
// the error, along with the battle's game time.
func (r *Runtime) Act(ctx context.Context, battle *actor.PID, action any) (float64, error) {
	res, err := r.request(battle, action, r.timeoutFromContext(ctx))
	if err != nil {
		return 0, err
	}
	out, ok := res.(*ActionResult)
	if !ok {
		return 0, errx.ErrInternal.WithCause(fmt.Errorf("unexpected action reply %T", res))
	}
	return out.GameTime, out.Err
}

// Leave tells battle the player's connection is gone.
func (r *Runtime) Leave(battle *actor.PID, p game.PlayerID) {
	if r == nil || r.root == nil || battle == nil {
		return
	}
	r.root.Send(battle, &PlayerLeft{PlayerID: p})
}

func (r *Runtime) Battles(ctx context.Context) ([]dto.BattleInfo, error) {
	res, err := r.request(r.manager, &ListBattles{}, r.timeoutFromContext(ctx))
	if err != nil {
		return nil, err
	}
	out, ok := res.(*BattleList)
	if !ok {
		return nil, errx.ErrInternal.WithCause(fmt.Errorf("unexpected list reply %T", res))
	}
	return out.Battles, nil
}

func (r *Runtime) request(pid *actor.PID, msg any, timeout time.Duration) (any, error) {
	if r == nil || r.root == nil {
		return nil, errx.ErrUnavailable.WithMsg("actor runtime not initialised")
	}
	if pid == nil {
		return nil, game.ErrNotInBattle
	}

	future := r.root.RequestFuture(pid, msg, timeout)
	res, err := future.Result()
	switch {
	case err == nil:
		return res, nil
	case errors.Is(err, actor.ErrTimeout):
		return nil, errx.ErrTimeout.WithCause(err)
	case errors.Is(err, actor.ErrDeadLetter):
		return nil, game.ErrNotInBattle
	default:
		return nil, errx.ErrUnavailable.WithCause(err)
	}
}

func (r *Runtime) timeoutFromContext(ctx context.Context) time.Duration {
	if r == nil || r.timeout <= 0 {
		return defaultAskTimeout
	}
	if ctx == nil {
		return r.timeout
	}
	deadline, ok := ctx.Deadline()
	if !ok {
		return r.timeout
	}
	remain := time.Until(deadline)
	if remain <= 0 {
		return time.Millisecond
	}
	if remain < r.timeout {
		return remain
	}
	return r.timeout
}
