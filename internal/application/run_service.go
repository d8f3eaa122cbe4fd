package application

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/bnema/studentgym/internal/domain"
)

// Stepper is the part of an environment a scripted run drives.
type Stepper interface {
	Reset(ctx context.Context) (domain.ResetResult, error)
	StepBatch(ctx context.Context, action domain.Action, batchSize int) (domain.StepResult, error)
}

type RunProgress struct {
	Step   int
	Action domain.Action
	Result domain.StepResult
	Total  float64
}

type RunService struct {
	env Stepper
}

func NewRunService(env Stepper) *RunService {
	return &RunService{env: env}
}

// RunEpisode resets the environment and steps it until the episode ends or cmd.Steps calls were made.
// The environment is left open for the caller to close.
func (s *RunService) RunEpisode(ctx context.Context, cmd RunCommand, progress func(RunProgress)) (RunSummary, error) {
	if cmd.Steps < 1 {
		return RunSummary{}, fmt.Errorf("steps must be positive, got %d", cmd.Steps)
	}
	if cmd.BatchSize < 1 {
		return RunSummary{}, fmt.Errorf("%w: %d", domain.ErrInvalidBatchSize, cmd.BatchSize)
	}
	if !cmd.Policy.Valid() {
		return RunSummary{}, fmt.Errorf("unsupported policy %q", cmd.Policy)
	}

	reset, err := s.env.Reset(ctx)
	if err != nil {
		return RunSummary{}, err
	}

	rng := rand.New(rand.NewSource(cmd.Seed))
	summary := RunSummary{EpisodeID: reset.Info.EpisodeID}

	for step := 0; step < cmd.Steps; step++ {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		action := choose(cmd.Policy, rng)
		result, err := s.env.StepBatch(ctx, action, cmd.BatchSize)
		if err != nil {
			if errors.Is(err, domain.ErrEpisodeEnded) {
				break
			}
			return summary, fmt.Errorf("run step %d: %w", step+1, err)
		}

		summary.Steps++
		summary.Ticks += len(result.Observations)
		summary.TotalReward += result.Reward
		switch action {
		case domain.ActionRepair:
			summary.Repairs++
		case domain.ActionSell:
			summary.Sells++
		}
		summary.Terminated = result.Terminated
		summary.Truncated = result.Truncated

		if progress != nil {
			progress(RunProgress{Step: summary.Steps, Action: action, Result: result, Total: summary.TotalReward})
		}
		if result.Done() {
			break
		}
	}

	return summary, nil
}

func choose(policy Policy, rng *rand.Rand) domain.Action {
	switch policy {
	case PolicyNoop:
		return domain.ActionNoop
	case PolicyRepair:
		return domain.ActionRepair
	case PolicySell:
		return domain.ActionSell
	default:
		return domain.ActionSpace.Sample(rng)
	}
}
