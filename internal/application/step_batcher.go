package application

import (
	"context"
	"fmt"
	"math"

	"github.com/bnema/studentgym/internal/domain"
	"github.com/bnema/studentgym/internal/ports"
)

// BatchResult is one normalized batch. TickRewards is only set when the server reported per-tick rewards.
type BatchResult struct {
	domain.StepResult
	TickRewards []float64
}

// StepBatcher turns one batched step request into a single ordered result.
type StepBatcher struct {
	client ports.SimulationClient
	spaces SpaceAdapter
}

func NewStepBatcher(client ports.SimulationClient) *StepBatcher {
	return &StepBatcher{client: client}
}

// Run advances the remote episode by up to batchSize ticks with the same action.
// Observations stop at the terminating tick and are never padded.
func (b *StepBatcher) Run(ctx context.Context, episodeID domain.EpisodeID, action, batchSize int) (BatchResult, error) {
	if batchSize < 1 {
		return BatchResult{}, fmt.Errorf("%w: %d", domain.ErrInvalidBatchSize, batchSize)
	}

	reply, err := b.client.Step(ctx, ports.StepRequest{
		EpisodeID: episodeID,
		Action:    action,
		BatchSize: batchSize,
	})
	if err != nil {
		return BatchResult{}, fmt.Errorf("step batch: %w", err)
	}

	ticks := len(reply.Observations)
	ended := reply.Terminated || reply.Truncated
	switch {
	case ticks == 0:
		return BatchResult{}, domain.NewProtocolError("observations", "batch returned no observations")
	case ticks > batchSize:
		return BatchResult{}, domain.NewProtocolError("observations", "batch returned %d observations for %d requested ticks", ticks, batchSize)
	case ticks < batchSize && !ended:
		return BatchResult{}, domain.NewProtocolError("observations", "batch stopped after %d of %d ticks without terminating", ticks, batchSize)
	}

	observations, err := b.spaces.DecodeObservations(reply.Observations)
	if err != nil {
		return BatchResult{}, err
	}

	reward, err := batchReward(reply, ticks)
	if err != nil {
		return BatchResult{}, err
	}

	var tickRewards []float64
	if len(reply.Rewards) > 0 {
		tickRewards = append([]float64(nil), reply.Rewards...)
	}

	return BatchResult{
		StepResult: domain.StepResult{
			Observations: observations,
			Reward:       reward,
			Terminated:   reply.Terminated,
			Truncated:    reply.Truncated,
			Info:         domain.NewInfo(0, episodeID, 0, reply.Info),
		},
		TickRewards: tickRewards,
	}, nil
}

// batchReward passes the server's aggregate through unchanged and only sums per-tick rewards when it is absent.
func batchReward(reply ports.StepReply, ticks int) (float64, error) {
	if len(reply.Rewards) > 0 && len(reply.Rewards) != ticks {
		return 0, domain.NewProtocolError("rewards", "got %d rewards for %d observations", len(reply.Rewards), ticks)
	}

	if reply.Reward != nil {
		if !isFinite(*reply.Reward) {
			return 0, domain.NewProtocolError("reward", "not a finite number")
		}
		return *reply.Reward, nil
	}

	if len(reply.Rewards) == 0 {
		return 0, domain.NewProtocolError("reward", "response carries neither reward nor rewards")
	}

	var total float64
	for _, r := range reply.Rewards {
		if !isFinite(r) {
			return 0, domain.NewProtocolError("rewards", "not a finite number")
		}
		total += r
	}
	return total, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
