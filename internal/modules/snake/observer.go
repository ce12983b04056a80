package snake

import (
	"github.com/nfrund/shellrt/internal/actor"
	"github.com/nfrund/shellrt/internal/core/motion"
	"github.com/nfrund/shellrt/internal/runtime"
)

// ObserverState is what the observer has seen of the game so far.
type ObserverState struct {
	Updates  uint64
	LastTick uint64
	Heads    map[int]motion.Point
}

func newObserver(rt *runtime.Runtime, topics Topics, onUpdate func(ObserverState)) (*actor.Actor[ObserverState], error) {
	updates, err := runtime.Subscribe(rt, topics.StateUpdate)
	if err != nil {
		return nil, err
	}

	return actor.New(ModuleName+".observer", ObserverState{}, []actor.Binding[ObserverState]{
		actor.OnMessage(updates, func(ctx actor.Context, s ObserverState, u StateUpdate) (ObserverState, error) {
			next := Observe(s, u)
			ctx.Logger.Debug("State update", "tick", u.Tick, "heads", u.Heads)
			if onUpdate != nil {
				onUpdate(next)
			}
			return next, nil
		}),
	}, rt.ActorOptions()...)
}

// Observe folds one update into the observer's view. The update carries its
// own copy of the heads, so it is kept as is.
func Observe(s ObserverState, u StateUpdate) ObserverState {
	return ObserverState{
		Updates:  s.Updates + 1,
		LastTick: u.Tick,
		Heads:    u.Heads,
	}
}
