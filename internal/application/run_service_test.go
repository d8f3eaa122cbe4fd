package application

import (
	"context"
	"testing"

	"github.com/bnema/studentgym/internal/domain"
	"github.com/bnema/studentgym/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type managerStepper struct {
	*SessionManager
}

func (s managerStepper) StepBatch(ctx context.Context, action domain.Action, batchSize int) (domain.StepResult, error) {
	return s.Step(ctx, action, batchSize)
}

func TestRunServiceStopsWhenEpisodeEnds(t *testing.T) {
	t.Parallel()

	client := &scriptedClient{
		resets: []ports.ResetReply{resetReply("ep-1")},
		steps: []ports.StepReply{
			fullBatch(10, 1),
			fullBatch(10, 2),
			{Observations: observations(4, 0), Reward: float(-10), Terminated: true},
		},
	}
	manager := newTestManager(client, func() domain.Config {
		cfg := testConfig()
		cfg.MaxStepsPerEpisode = 100
		return cfg
	}())

	var seen []int
	summary, err := NewRunService(managerStepper{manager}).RunEpisode(context.Background(), RunCommand{
		Steps:     50,
		Policy:    PolicyRepair,
		BatchSize: 10,
	}, func(p RunProgress) { seen = append(seen, p.Step) })
	require.NoError(t, err)

	assert.Equal(t, RunSummary{
		EpisodeID:   "ep-1",
		Steps:       3,
		Ticks:       24,
		TotalReward: -7,
		Repairs:     3,
		Terminated:  true,
	}, summary)
	assert.Equal(t, []int{1, 2, 3}, seen)
	assert.Len(t, client.resetCalls, 1)
}

func TestRunServiceHonoursStepLimit(t *testing.T) {
	t.Parallel()

	client := &scriptedClient{
		resets: []ports.ResetReply{resetReply("ep-1")},
		steps:  []ports.StepReply{fullBatch(2, 1), fullBatch(2, 1)},
	}
	manager := newTestManager(client, testConfig())

	summary, err := NewRunService(managerStepper{manager}).RunEpisode(context.Background(), RunCommand{
		Steps:     2,
		Policy:    PolicySell,
		BatchSize: 2,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Steps)
	assert.Equal(t, 2, summary.Sells)
	assert.False(t, summary.Terminated)
}

func TestRunServiceRandomPolicyIsSeeded(t *testing.T) {
	t.Parallel()

	run := func() []domain.Action {
		client := &scriptedClient{resets: []ports.ResetReply{resetReply("ep-1")}}
		for i := 0; i < 8; i++ {
			client.steps = append(client.steps, fullBatch(1, 0))
		}
		manager := newTestManager(client, testConfig())
		var actions []domain.Action
		_, err := NewRunService(managerStepper{manager}).RunEpisode(context.Background(), RunCommand{
			Steps: 8, Policy: PolicyRandom, Seed: 42, BatchSize: 1,
		}, func(p RunProgress) { actions = append(actions, p.Action) })
		require.NoError(t, err)
		return actions
	}

	first := run()
	assert.Len(t, first, 8)
	assert.Equal(t, first, run())
}

func TestRunServiceValidatesCommand(t *testing.T) {
	t.Parallel()

	service := NewRunService(managerStepper{newTestManager(&scriptedClient{}, testConfig())})

	_, err := service.RunEpisode(context.Background(), RunCommand{Steps: 0, Policy: PolicyNoop, BatchSize: 1}, nil)
	require.Error(t, err)
	_, err = service.RunEpisode(context.Background(), RunCommand{Steps: 1, Policy: PolicyNoop}, nil)
	require.ErrorIs(t, err, domain.ErrInvalidBatchSize)
	_, err = service.RunEpisode(context.Background(), RunCommand{Steps: 1, Policy: "greedy", BatchSize: 1}, nil)
	require.Error(t, err)
}

func TestParsePolicy(t *testing.T) {
	t.Parallel()

	policy, err := ParsePolicy(" Repair ")
	require.NoError(t, err)
	assert.Equal(t, PolicyRepair, policy)

	_, err = ParsePolicy("greedy")
	require.Error(t, err)
}

func TestNewRewardStatsEmpty(t *testing.T) {
	t.Parallel()

	assert.Equal(t, RewardStats{}, NewRewardStats(nil))
}
