package application

import (
	"bytes"
	"context"
	"errors"
	"log"
	"testing"
	"time"

	"github.com/bnema/studentgym/internal/domain"
	"github.com/bnema/studentgym/internal/ports"
	"github.com/bnema/studentgym/internal/ports/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var startedAt = time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)

func newTestManager(client ports.SimulationClient, cfg domain.Config) *SessionManager {
	return NewSessionManager(client, cfg, fixedClock{now: startedAt}, nil)
}

func TestSessionManagerScenario(t *testing.T) {
	t.Parallel()

	client := &scriptedClient{
		resets: []ports.ResetReply{resetReply("ep-1")},
		steps: []ports.StepReply{
			fullBatch(10, -1),
			{Observations: observations(3, 20), Reward: float(50), Terminated: true},
		},
	}
	manager := newTestManager(client, testConfig())

	reset, err := manager.Reset(context.Background())
	require.NoError(t, err)
	assert.Len(t, reset.Observation.Slice(), domain.ObservationSize)
	assert.Equal(t, 0, manager.Episode().Step)
	assert.Equal(t, domain.EpisodeID("ep-1"), reset.Info.EpisodeID)
	assert.Equal(t, domain.EpisodeStateActive, manager.State())
	assert.Equal(t, []ports.ResetRequest{{EnvType: "DegradationEnv", MaxSteps: 20}}, client.resetCalls)

	first, err := manager.Step(context.Background(), domain.ActionNoop, 10)
	require.NoError(t, err)
	assert.Len(t, first.Observations, 10)
	assert.False(t, first.Terminated)
	assert.False(t, first.Truncated)
	assert.Equal(t, 0, first.Info.Step)
	assert.Equal(t, 10, manager.Episode().Step)

	second, err := manager.Step(context.Background(), domain.ActionSell, 10)
	require.NoError(t, err)
	assert.Len(t, second.Observations, 3)
	assert.True(t, second.Terminated)
	assert.False(t, second.Truncated)
	assert.Equal(t, 10, second.Info.Step)
	assert.Equal(t, 49.0, second.Info.TotalReward)
	assert.Equal(t, 13, manager.Episode().Step)
	assert.Equal(t, domain.EpisodeStateTerminated, manager.State())

	assert.Equal(t, []ports.StepRequest{
		{EpisodeID: "ep-1", Action: 0, BatchSize: 10},
		{EpisodeID: "ep-1", Action: 2, BatchSize: 10},
	}, client.stepCalls)
	assert.Equal(t, []float64{-1, 50}, manager.Rewards())
}

func TestSessionManagerAutoResetOnNextStep(t *testing.T) {
	t.Parallel()

	client := &scriptedClient{
		resets: []ports.ResetReply{resetReply("ep-1"), resetReply("ep-2")},
		steps: []ports.StepReply{
			{Observations: observations(2, 0), Reward: float(1), Terminated: true},
			fullBatch(10, 3),
		},
	}
	manager := newTestManager(client, testConfig())

	_, err := manager.Reset(context.Background())
	require.NoError(t, err)

	ended, err := manager.Step(context.Background(), domain.ActionNoop, 10)
	require.NoError(t, err)
	assert.True(t, ended.Terminated)
	assert.Len(t, client.resetCalls, 1, "termination must not renew within the same call")

	renewed, err := manager.Step(context.Background(), domain.ActionRepair, 10)
	require.NoError(t, err)
	assert.False(t, renewed.Terminated)
	assert.Equal(t, domain.EpisodeID("ep-2"), renewed.Info.EpisodeID)
	assert.Equal(t, 0, renewed.Info.Step)
	assert.Equal(t, 10, manager.Episode().Step)
	assert.Equal(t, 3.0, manager.Episode().TotalReward)
	assert.Len(t, client.resetCalls, 2)
	assert.Equal(t, []ports.CloseRequest{{EpisodeID: "ep-1"}}, client.closeCalls)
	assert.Equal(t, []float64{3}, manager.Rewards())
}

func TestSessionManagerWithoutAutoResetReportsEpisodeEnded(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.AutoReset = false
	client := &scriptedClient{
		resets: []ports.ResetReply{resetReply("ep-1")},
		steps:  []ports.StepReply{{Observations: observations(1, 0), Reward: float(0), Truncated: true}},
	}
	manager := newTestManager(client, cfg)

	_, err := manager.Reset(context.Background())
	require.NoError(t, err)
	_, err = manager.Step(context.Background(), domain.ActionNoop, 10)
	require.NoError(t, err)

	_, err = manager.Step(context.Background(), domain.ActionNoop, 10)
	require.ErrorIs(t, err, domain.ErrEpisodeEnded)
	assert.Len(t, client.stepCalls, 1)
	assert.Len(t, client.resetCalls, 1)
}

func TestSessionManagerInvalidActionMakesNoCalls(t *testing.T) {
	client := mocks.NewMockSimulationClient(t)
	manager := newTestManager(client, testConfig())

	_, err := manager.Step(context.Background(), domain.Action(7), 10)
	require.ErrorIs(t, err, domain.ErrInvalidAction)
	assert.Equal(t, domain.EpisodeStateUninitialized, manager.State())
}

func TestSessionManagerInvalidActionLeavesEpisodeUnchanged(t *testing.T) {
	t.Parallel()

	client := &scriptedClient{resets: []ports.ResetReply{resetReply("ep-1")}}
	manager := newTestManager(client, testConfig())
	_, err := manager.Reset(context.Background())
	require.NoError(t, err)
	before := manager.Episode()

	_, err = manager.Step(context.Background(), domain.Action(-1), 10)
	require.ErrorIs(t, err, domain.ErrInvalidAction)
	_, err = manager.Step(context.Background(), domain.ActionNoop, 0)
	require.ErrorIs(t, err, domain.ErrInvalidBatchSize)

	assert.Equal(t, before, manager.Episode())
	assert.Empty(t, client.stepCalls)
}

func TestSessionManagerStepBeforeResetFails(t *testing.T) {
	client := mocks.NewMockSimulationClient(t)
	manager := newTestManager(client, testConfig())

	_, err := manager.Step(context.Background(), domain.ActionNoop, 10)
	require.ErrorIs(t, err, domain.ErrSession)
}

func TestSessionManagerFailedStepLeavesStateUnchanged(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		client  *scriptedClient
		wantErr error
	}{
		{
			name:    "transport",
			client:  &scriptedClient{stepErrs: []error{&domain.TransportError{Op: "step", Attempts: 4, Err: errors.New("timeout")}}},
			wantErr: domain.ErrTransport,
		},
		{
			name:    "protocol",
			client:  &scriptedClient{steps: []ports.StepReply{{Observations: observations(4, 0), Reward: float(1)}}},
			wantErr: domain.ErrProtocol,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			tc.client.resets = []ports.ResetReply{resetReply("ep-1")}
			manager := newTestManager(tc.client, testConfig())
			_, err := manager.Reset(context.Background())
			require.NoError(t, err)
			before := manager.Episode()

			_, err = manager.Step(context.Background(), domain.ActionNoop, 10)
			require.ErrorIs(t, err, tc.wantErr)
			assert.Equal(t, before, manager.Episode())
			assert.Equal(t, domain.EpisodeStateActive, manager.State())
			assert.Empty(t, manager.Rewards())
		})
	}
}

func TestSessionManagerTruncatesAtStepBudget(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.MaxStepsPerEpisode = 15
	client := &scriptedClient{
		resets: []ports.ResetReply{resetReply("ep-1")},
		steps:  []ports.StepReply{fullBatch(10, 1), fullBatch(5, 1)},
	}
	manager := newTestManager(client, cfg)
	_, err := manager.Reset(context.Background())
	require.NoError(t, err)

	_, err = manager.Step(context.Background(), domain.ActionNoop, 10)
	require.NoError(t, err)
	last, err := manager.Step(context.Background(), domain.ActionNoop, 10)
	require.NoError(t, err)

	assert.Equal(t, 5, client.stepCalls[1].BatchSize)
	assert.Len(t, last.Observations, 5)
	assert.True(t, last.Truncated)
	assert.False(t, last.Terminated)
	assert.Equal(t, domain.EpisodeStateTerminated, manager.State())
}

func TestSessionManagerResetReleasesPreviousEpisode(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	client := &scriptedClient{
		resets:   []ports.ResetReply{resetReply("ep-1"), resetReply("ep-2")},
		closeErr: errors.New("server gone"),
	}
	manager := NewSessionManager(client, testConfig(), fixedClock{now: startedAt}, log.New(&logs, "", 0))

	_, err := manager.Reset(context.Background())
	require.NoError(t, err)
	second, err := manager.Reset(context.Background())
	require.NoError(t, err)

	assert.Equal(t, domain.EpisodeID("ep-2"), second.Info.EpisodeID)
	assert.Equal(t, []ports.CloseRequest{{EpisodeID: "ep-1"}}, client.closeCalls)
	assert.Contains(t, logs.String(), "release previous episode ep-1")
	assert.Equal(t, startedAt, manager.Episode().StartedAt)
}

func TestSessionManagerResetRejectsProtocolViolations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		reply ports.ResetReply
	}{
		{name: "missing episode id", reply: ports.ResetReply{Observation: observationJSON(1)}},
		{name: "short observation", reply: ports.ResetReply{EpisodeID: "ep-1", Observation: []byte(`[1,2,3]`)}},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			manager := newTestManager(&scriptedClient{resets: []ports.ResetReply{tc.reply}}, testConfig())
			_, err := manager.Reset(context.Background())
			require.ErrorIs(t, err, domain.ErrProtocol)
			assert.Equal(t, domain.EpisodeStateUninitialized, manager.State())
		})
	}
}

func TestSessionManagerResetPropagatesAuthentication(t *testing.T) {
	client := mocks.NewMockSimulationClient(t)
	client.EXPECT().Reset(mockAnyContext(), ports.ResetRequest{EnvType: "DegradationEnv", MaxSteps: 20}).
		Return(ports.ResetReply{}, &domain.TransportError{Op: "reset", Attempts: 1, Err: domain.ErrAuthentication})

	_, err := newTestManager(client, testConfig()).Reset(context.Background())
	require.ErrorIs(t, err, domain.ErrAuthentication)
}

func TestSessionManagerCloseIsIdempotent(t *testing.T) {
	client := mocks.NewMockSimulationClient(t)
	client.EXPECT().Reset(mockAnyContext(), ports.ResetRequest{EnvType: "DegradationEnv", MaxSteps: 20}).Return(resetReply("ep-1"), nil)
	client.EXPECT().Close(mockAnyContext(), ports.CloseRequest{EpisodeID: "ep-1"}).Return(nil).Once()
	manager := newTestManager(client, testConfig())

	_, err := manager.Reset(context.Background())
	require.NoError(t, err)

	require.NoError(t, manager.Close(context.Background()))
	require.NoError(t, manager.Close(context.Background()))
	assert.Equal(t, domain.EpisodeStateClosed, manager.State())

	_, err = manager.Step(context.Background(), domain.ActionNoop, 10)
	require.ErrorIs(t, err, domain.ErrSession)
	_, err = manager.Reset(context.Background())
	require.ErrorIs(t, err, domain.ErrSession)
}

func TestSessionManagerCloseBeforeResetMakesNoCalls(t *testing.T) {
	client := mocks.NewMockSimulationClient(t)
	manager := newTestManager(client, testConfig())

	require.NoError(t, manager.Close(context.Background()))
	require.NoError(t, manager.Close(context.Background()))
	assert.Equal(t, domain.EpisodeStateClosed, manager.State())
}

func TestSessionManagerFailedCloseKeepsEpisode(t *testing.T) {
	t.Parallel()

	client := &scriptedClient{resets: []ports.ResetReply{resetReply("ep-1")}, closeErr: &domain.TransportError{Op: "close", Attempts: 4, Err: errors.New("refused")}}
	manager := newTestManager(client, testConfig())
	_, err := manager.Reset(context.Background())
	require.NoError(t, err)

	err = manager.Close(context.Background())
	require.ErrorIs(t, err, domain.ErrTransport)
	assert.Equal(t, domain.EpisodeStateActive, manager.State())

	client.closeErr = nil
	require.NoError(t, manager.Close(context.Background()))
	assert.Len(t, client.closeCalls, 2)
}

func TestSessionManagerRestore(t *testing.T) {
	t.Parallel()

	client := &scriptedClient{steps: []ports.StepReply{fullBatch(5, 2)}}
	manager := newTestManager(client, testConfig())

	require.Error(t, manager.Restore(domain.Episode{}))
	require.NoError(t, manager.Restore(domain.Episode{ID: "ep-9", Step: 15, TotalReward: 1}))
	assert.Equal(t, domain.EpisodeStateActive, manager.State())

	result, err := manager.Step(context.Background(), domain.ActionRepair, 10)
	require.NoError(t, err)
	assert.Equal(t, 15, result.Info.Step)
	assert.True(t, result.Truncated)
	assert.Equal(t, 5, client.stepCalls[0].BatchSize)
	assert.Equal(t, 3.0, manager.Episode().TotalReward)

	terminated := newTestManager(client, testConfig())
	require.NoError(t, terminated.Restore(domain.Episode{ID: "ep-9", Step: 20}))
	assert.Equal(t, domain.EpisodeStateTerminated, terminated.State())
	assert.True(t, terminated.Episode().Truncated)
}

func TestSessionManagerStatus(t *testing.T) {
	t.Parallel()

	client := &scriptedClient{
		resets: []ports.ResetReply{resetReply("ep-1")},
		steps:  []ports.StepReply{fullBatch(10, 2), fullBatch(10, -4)},
	}
	manager := newTestManager(client, testConfig())
	_, err := manager.Reset(context.Background())
	require.NoError(t, err)
	_, err = manager.Step(context.Background(), domain.ActionRepair, 10)
	require.NoError(t, err)
	_, err = manager.Step(context.Background(), domain.ActionSell, 10)
	require.NoError(t, err)

	status := manager.Status("default")
	require.NotNil(t, status.Observation)
	assert.Equal(t, []domain.Action{domain.ActionRepair, domain.ActionSell}, status.Actions)
	assert.Equal(t, RewardStats{Count: 2, Total: -2, Mean: -1, Min: -4, Max: 2}, status.Stats)
	assert.Equal(t, 20, status.MaxSteps)
	assert.True(t, status.Episode.Truncated)
}

func TestSessionManagerRecordsPerTickRewards(t *testing.T) {
	t.Parallel()

	client := &scriptedClient{
		resets: []ports.ResetReply{resetReply("ep-1")},
		steps: []ports.StepReply{
			{Observations: observations(3, 0), Rewards: []float64{1, 2, 3}},
			fullBatch(2, 5),
		},
	}
	manager := newTestManager(client, testConfig())

	_, ok := manager.LastObservation()
	assert.False(t, ok)

	_, err := manager.Reset(context.Background())
	require.NoError(t, err)
	first, err := manager.Step(context.Background(), domain.ActionNoop, 3)
	require.NoError(t, err)
	assert.Equal(t, 6.0, first.Reward)
	_, err = manager.Step(context.Background(), domain.ActionRepair, 2)
	require.NoError(t, err)

	assert.Equal(t, []float64{1, 2, 3, 5}, manager.Rewards())

	history := manager.History()
	require.Len(t, history, 2)
	assert.Equal(t, StepRecord{EpisodeID: "ep-1", Action: domain.ActionNoop, Ticks: 3, Reward: 6, TickRewards: []float64{1, 2, 3}}, history[0])
	assert.Nil(t, history[1].TickRewards)
	assert.Equal(t, 5.0, history[1].Reward)

	last, ok := manager.LastObservation()
	require.True(t, ok)
	assert.Equal(t, 3.0, last.Sensors()[0])
	assert.Equal(t, 20, manager.MaxSteps())

	status := manager.Status("default")
	assert.Equal(t, []float64{1, 2, 3, 5}, status.Rewards)
	assert.Equal(t, RewardStats{Count: 4, Total: 11, Mean: 2.75, Min: 1, Max: 5}, status.Stats)
	assert.Equal(t, []domain.Action{domain.ActionNoop, domain.ActionRepair}, status.Actions)
}

func TestSessionManagerAdvanceOrRenew(t *testing.T) {
	t.Parallel()

	terminate := func(t *testing.T, m *SessionManager) {
		t.Helper()
		_, err := m.Reset(context.Background())
		require.NoError(t, err)
		_, err = m.Step(context.Background(), domain.ActionSell, 10)
		require.NoError(t, err)
		require.Equal(t, domain.EpisodeStateTerminated, m.State())
	}

	tests := []struct {
		name        string
		autoReset   bool
		prepare     func(t *testing.T, m *SessionManager, c *scriptedClient)
		wantRenewed bool
		wantErr     error
		wantErrText string
		wantState   domain.EpisodeState
		wantEpisode domain.EpisodeID
		wantStep    int
		wantCloses  []ports.CloseRequest
	}{
		{
			name:      "active episode is left alone",
			autoReset: true,
			prepare: func(t *testing.T, m *SessionManager, _ *scriptedClient) {
				_, err := m.Reset(context.Background())
				require.NoError(t, err)
			},
			wantState:   domain.EpisodeStateActive,
			wantEpisode: "ep-1",
		},
		{
			name:      "terminated with auto-reset opens a new episode",
			autoReset: true,
			prepare: func(t *testing.T, m *SessionManager, _ *scriptedClient) {
				terminate(t, m)
			},
			wantRenewed: true,
			wantState:   domain.EpisodeStateActive,
			wantEpisode: "ep-2",
			wantCloses:  []ports.CloseRequest{{EpisodeID: "ep-1"}},
		},
		{
			name:      "terminated without auto-reset",
			autoReset: false,
			prepare: func(t *testing.T, m *SessionManager, _ *scriptedClient) {
				terminate(t, m)
			},
			wantErr:     domain.ErrEpisodeEnded,
			wantState:   domain.EpisodeStateTerminated,
			wantEpisode: "ep-1",
			wantStep:    2,
		},
		{
			name:      "failed renewal keeps the finished episode",
			autoReset: true,
			prepare: func(t *testing.T, m *SessionManager, c *scriptedClient) {
				terminate(t, m)
				c.resetErr = &domain.TransportError{Op: "reset", Attempts: 4, Err: errors.New("connection refused")}
			},
			wantErr:     domain.ErrTransport,
			wantErrText: "auto-reset:",
			wantState:   domain.EpisodeStateTerminated,
			wantEpisode: "ep-1",
			wantStep:    2,
		},
		{
			name:      "closed environment",
			autoReset: true,
			prepare: func(t *testing.T, m *SessionManager, _ *scriptedClient) {
				_, err := m.Reset(context.Background())
				require.NoError(t, err)
				require.NoError(t, m.Close(context.Background()))
			},
			wantErr:     domain.ErrSession,
			wantState:   domain.EpisodeStateClosed,
			wantEpisode: "ep-1",
			wantCloses:  []ports.CloseRequest{{EpisodeID: "ep-1"}},
		},
		{
			name:        "never reset",
			autoReset:   true,
			prepare:     func(*testing.T, *SessionManager, *scriptedClient) {},
			wantErr:     domain.ErrSession,
			wantState:   domain.EpisodeStateUninitialized,
			wantEpisode: "",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cfg := testConfig()
			cfg.AutoReset = tc.autoReset
			client := &scriptedClient{
				resets: []ports.ResetReply{resetReply("ep-1"), resetReply("ep-2")},
				steps:  []ports.StepReply{{Observations: observations(2, 0), Reward: float(1), Terminated: true}},
			}
			manager := newTestManager(client, cfg)
			tc.prepare(t, manager, client)
			resetsBefore := len(client.resetCalls)

			renewed, err := manager.AdvanceOrRenew(context.Background())
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				if tc.wantErrText != "" {
					assert.ErrorContains(t, err, tc.wantErrText)
				}
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tc.wantRenewed, renewed)
			assert.Equal(t, tc.wantState, manager.State())
			assert.Equal(t, tc.wantEpisode, manager.Episode().ID)
			assert.Equal(t, tc.wantStep, manager.Episode().Step)
			assert.Equal(t, tc.wantCloses, client.closeCalls)
			if !tc.wantRenewed && tc.wantErrText == "" {
				assert.Equal(t, resetsBefore, len(client.resetCalls))
			}
		})
	}
}

func TestSessionManagerRenewedEpisodeSurvivesFailedBatch(t *testing.T) {
	t.Parallel()

	client := &scriptedClient{
		resets:   []ports.ResetReply{resetReply("ep-1"), resetReply("ep-2")},
		steps:    []ports.StepReply{{Observations: observations(2, 0), Reward: float(1), Terminated: true}},
		stepErrs: []error{nil, &domain.TransportError{Op: "step", Attempts: 4, Err: errors.New("timeout")}},
	}
	manager := newTestManager(client, testConfig())

	_, err := manager.Reset(context.Background())
	require.NoError(t, err)
	_, err = manager.Step(context.Background(), domain.ActionSell, 10)
	require.NoError(t, err)

	_, err = manager.Step(context.Background(), domain.ActionNoop, 10)
	require.ErrorIs(t, err, domain.ErrTransport)

	assert.Equal(t, domain.EpisodeStateActive, manager.State())
	assert.Equal(t, domain.EpisodeID("ep-2"), manager.Episode().ID)
	assert.Equal(t, 0, manager.Episode().Step)
	assert.Equal(t, []ports.CloseRequest{{EpisodeID: "ep-1"}}, client.closeCalls)
	assert.Empty(t, manager.Rewards())
}
