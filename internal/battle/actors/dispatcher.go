package actors

import (
	"reflect"

	"github.com/asynkron/protoactor-go/actor"
)

type handlerFunc func(ctx actor.Context, b *BattleActor, req any)

// Dispatcher routes player action messages to typed handlers by their
// concrete type.
type Dispatcher struct {
	handlers map[reflect.Type]handlerFunc
}

func NewDispatcher() *Dispatcher {
	d := &Dispatcher{
		handlers: make(map[reflect.Type]handlerFunc),
	}
	d.registerAll()
	return d
}

func (d *Dispatcher) registerAll() {
	register(d, BH.HandleMove)
	register(d, BH.HandleHeal)
	register(d, BH.HandleShoot)
}

func register[Req any](d *Dispatcher, fn func(ctx actor.Context, b *BattleActor, req Req)) {
	reqType := reflect.TypeOf((*Req)(nil)).Elem()
	d.handlers[reqType] = func(ctx actor.Context, b *BattleActor, req any) {
		fn(ctx, b, req.(Req))
	}
}

// Dispatch reports false when no handler is registered for msg.
func (d *Dispatcher) Dispatch(ctx actor.Context, b *BattleActor, msg any) bool {
	h, ok := d.handlers[reflect.TypeOf(msg)]
	if !ok {
		return false
	}
	h(ctx, b, msg)
	return true
}
