package application

import (
	"fmt"
	"strings"

	"github.com/bnema/studentgym/internal/domain"
)

// Policy picks the action for each step of a scripted run.
type Policy string

const (
	PolicyRandom Policy = "random"
	PolicyNoop   Policy = "noop"
	PolicyRepair Policy = "repair"
	PolicySell   Policy = "sell"
)

func (p Policy) Valid() bool {
	switch p {
	case PolicyRandom, PolicyNoop, PolicyRepair, PolicySell:
		return true
	default:
		return false
	}
}

func ParsePolicy(raw string) (Policy, error) {
	policy := Policy(strings.ToLower(strings.TrimSpace(raw)))
	if !policy.Valid() {
		return "", fmt.Errorf("unsupported policy %q (want random, noop, repair or sell)", raw)
	}
	return policy, nil
}

type RunCommand struct {
	Steps     int
	Policy    Policy
	Seed      int64
	BatchSize int
}

type StepCommand struct {
	Action    domain.Action
	BatchSize int
}
