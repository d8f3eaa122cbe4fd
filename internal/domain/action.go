package domain

import (
	"fmt"
	"math/rand"
)

type Action int

const (
	ActionNoop   Action = 0
	ActionRepair Action = 1
	ActionSell   Action = 2
)

func (a Action) Valid() bool {
	switch a {
	case ActionNoop, ActionRepair, ActionSell:
		return true
	default:
		return false
	}
}

func (a Action) String() string {
	switch a {
	case ActionNoop:
		return "noop"
	case ActionRepair:
		return "repair"
	case ActionSell:
		return "sell"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// ParseAction accepts either the numeric form ("0".."2") or the label.
func ParseAction(raw string) (Action, error) {
	switch raw {
	case "0", "noop", "no-op", "nothing":
		return ActionNoop, nil
	case "1", "repair":
		return ActionRepair, nil
	case "2", "sell":
		return ActionSell, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidAction, raw)
	}
}

// Discrete is a finite action space {0, ..., N-1}.
type Discrete struct {
	N int
}

// ActionSpace is Discrete(3): no-op, repair, sell.
var ActionSpace = Discrete{N: 3}

func (d Discrete) Contains(a Action) bool {
	return int(a) >= 0 && int(a) < d.N
}

func (d Discrete) Sample(rng *rand.Rand) Action {
	if rng == nil {
		return Action(rand.Intn(d.N))
	}
	return Action(rng.Intn(d.N))
}
