package snake

import (
	"fmt"

	"github.com/nfrund/shellrt/internal/actor"
	"github.com/nfrund/shellrt/internal/core/dirqueue"
	"github.com/nfrund/shellrt/internal/pubsub"
	"github.com/nfrund/shellrt/internal/runtime"
	"github.com/nfrund/shellrt/internal/timer"
)

// botRoute is the turn sequence every bot player cycles through. Players
// start at different offsets so they do not move in lockstep.
var botRoute = []dirqueue.Direction{dirqueue.Up, dirqueue.Right, dirqueue.Down, dirqueue.Right}

// BotMove returns the direction player asks for on its n-th move.
func BotMove(player int, n uint64) dirqueue.Direction {
	return botRoute[(n+uint64(player))%uint64(len(botRoute))]
}

func newBot(rt *runtime.Runtime, cfg Config, topics Topics) (*actor.Actor[uint64], error) {
	input, err := runtime.Publisher(rt, topics.Direction)
	if err != nil {
		return nil, err
	}
	every, err := rt.Every(ModuleName+".bot", cfg.BotInterval)
	if err != nil {
		return nil, err
	}

	return actor.New(ModuleName+".bot", uint64(0), []actor.Binding[uint64]{
		actor.OnElapsed(every, botTurn(input, cfg.Players)),
	}, rt.ActorOptions()...)
}

// botTurn makes one move per player per timer event. Missed deadlines are
// not replayed; input that late would only be dropped by the game's queue.
func botTurn(input *pubsub.Publisher[DirectionMsg], players int) actor.Reducer[uint64, timer.Elapsed] {
	return func(ctx actor.Context, moves uint64, _ timer.Elapsed) (uint64, error) {
		for p := 1; p <= players; p++ {
			msg := DirectionMsg{PlayerID: p, Direction: BotMove(p, moves)}
			if err := input.Publish(ctx, msg); err != nil {
				return moves, fmt.Errorf("publish direction for player %d: %w", p, err)
			}
		}
		return moves + 1, nil
	}
}
