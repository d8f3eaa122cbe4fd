package application

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/bnema/studentgym/internal/domain"
	"github.com/bnema/studentgym/internal/ports"
)

// StepRecord is the client-side history entry for one completed step call.
// TickRewards is set when the server reported a reward per tick.
type StepRecord struct {
	EpisodeID   domain.EpisodeID
	Action      domain.Action
	Ticks       int
	Reward      float64
	TickRewards []float64
	Ended       bool
}

// SessionManager owns the episode identity, its tick counter and the lifecycle state.
// It is not safe for concurrent use.
type SessionManager struct {
	client  ports.SimulationClient
	batcher *StepBatcher
	spaces  SpaceAdapter
	clock   ports.Clock
	logger  *log.Logger

	envType   string
	maxSteps  int
	autoReset bool

	state   domain.EpisodeState
	episode domain.Episode
	last    domain.Observation
	hasLast bool
	history []StepRecord
}

func NewSessionManager(client ports.SimulationClient, cfg domain.Config, clock ports.Clock, logger *log.Logger) *SessionManager {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	return &SessionManager{
		client:    client,
		batcher:   NewStepBatcher(client),
		clock:     clock,
		logger:    logger,
		envType:   cfg.EnvType,
		maxSteps:  cfg.MaxStepsPerEpisode,
		autoReset: cfg.AutoReset,
		state:     domain.EpisodeStateUninitialized,
	}
}

// Reset opens a new remote episode. A previously held episode is released best-effort once the new one exists.
func (m *SessionManager) Reset(ctx context.Context) (domain.ResetResult, error) {
	if m.state == domain.EpisodeStateClosed {
		return domain.ResetResult{}, fmt.Errorf("%w: environment is closed", domain.ErrSession)
	}
	return m.openEpisode(ctx)
}

// Step validates the action before anything else, renews a finished episode when auto-reset is on and runs one batch.
func (m *SessionManager) Step(ctx context.Context, action domain.Action, batchSize int) (domain.StepResult, error) {
	code, err := m.spaces.EncodeAction(action)
	if err != nil {
		return domain.StepResult{}, err
	}
	if batchSize < 1 {
		return domain.StepResult{}, fmt.Errorf("%w: %d", domain.ErrInvalidBatchSize, batchSize)
	}

	if _, err := m.AdvanceOrRenew(ctx); err != nil {
		return domain.StepResult{}, err
	}

	ticks := batchSize
	if remaining := m.episode.Remaining(m.maxSteps); remaining >= 0 && remaining < ticks {
		ticks = remaining
	}

	startStep := m.episode.Step
	batch, err := m.batcher.Run(ctx, m.episode.ID, code, ticks)
	if err != nil {
		return domain.StepResult{}, fmt.Errorf("step episode %s: %w", m.episode.ID, err)
	}

	m.episode.Step += len(batch.Observations)
	m.episode.TotalReward += batch.Reward
	m.episode.Terminated = batch.Terminated
	m.episode.Truncated = batch.Truncated
	if !m.episode.Ended() && m.episode.Remaining(m.maxSteps) == 0 {
		m.episode.Truncated = true
	}
	if m.episode.Ended() {
		m.state = domain.EpisodeStateTerminated
	}
	m.last, m.hasLast = batch.Observations[len(batch.Observations)-1], true
	m.history = append(m.history, StepRecord{
		EpisodeID: m.episode.ID,
		Action:    action,
		Ticks:       len(batch.Observations),
		Reward:      batch.Reward,
		TickRewards: batch.TickRewards,
		Ended:       m.episode.Ended(),
	})

	result := batch.StepResult
	result.Terminated = m.episode.Terminated
	result.Truncated = m.episode.Truncated
	result.Info.Step = startStep
	result.Info.TotalReward = m.episode.TotalReward
	return result, nil
}

// AdvanceOrRenew makes the episode steppable. It reports whether a new episode had to be opened.
func (m *SessionManager) AdvanceOrRenew(ctx context.Context) (bool, error) {
	switch m.state {
	case domain.EpisodeStateActive:
		return false, nil
	case domain.EpisodeStateTerminated:
		if !m.autoReset {
			return false, fmt.Errorf("%w: episode %s finished after %d steps", domain.ErrEpisodeEnded, m.episode.ID, m.episode.Step)
		}
		m.logger.Printf("episode %s ended after %d steps, starting a new one", m.episode.ID, m.episode.Step)
		if _, err := m.openEpisode(ctx); err != nil {
			return false, fmt.Errorf("auto-reset: %w", err)
		}
		return true, nil
	case domain.EpisodeStateClosed:
		return false, fmt.Errorf("%w: environment is closed", domain.ErrSession)
	default:
		return false, fmt.Errorf("%w: call reset first", domain.ErrSession)
	}
}

// Close releases the remote episode. Closing twice, or before any reset, does nothing.
// On failure the episode stays held so the call can be retried.
func (m *SessionManager) Close(ctx context.Context) error {
	switch m.state {
	case domain.EpisodeStateClosed:
		return nil
	case domain.EpisodeStateUninitialized:
		m.state = domain.EpisodeStateClosed
		return nil
	}

	if err := m.client.Close(ctx, ports.CloseRequest{EpisodeID: m.episode.ID}); err != nil {
		return fmt.Errorf("close episode %s: %w", m.episode.ID, err)
	}
	m.state = domain.EpisodeStateClosed
	return nil
}

// Restore adopts an episode handle kept outside this process.
func (m *SessionManager) Restore(episode domain.Episode) error {
	if m.state == domain.EpisodeStateClosed {
		return fmt.Errorf("%w: environment is closed", domain.ErrSession)
	}
	if strings.TrimSpace(string(episode.ID)) == "" {
		return fmt.Errorf("%w: episode id is required", domain.ErrSession)
	}

	if !episode.Ended() && episode.Remaining(m.maxSteps) == 0 {
		episode.Truncated = true
	}
	m.episode = episode
	m.hasLast = false
	m.history = nil
	m.state = domain.EpisodeStateActive
	if episode.Ended() {
		m.state = domain.EpisodeStateTerminated
	}
	return nil
}

func (m *SessionManager) Episode() domain.Episode {
	return m.episode
}

func (m *SessionManager) State() domain.EpisodeState {
	return m.state
}

func (m *SessionManager) MaxSteps() int {
	return m.maxSteps
}

// LastObservation is the most recent observation seen by this process, if any.
func (m *SessionManager) LastObservation() (domain.Observation, bool) {
	return m.last, m.hasLast
}

// History returns the step records of the current episode.
func (m *SessionManager) History() []StepRecord {
	out := make([]StepRecord, len(m.history))
	copy(out, m.history)
	return out
}

// Rewards is the reward series of the current episode: one value per tick when the server sent
// per-tick rewards, otherwise one aggregate per step call.
func (m *SessionManager) Rewards() []float64 {
	rewards := make([]float64, 0, len(m.history))
	for _, record := range m.history {
		if len(record.TickRewards) > 0 {
			rewards = append(rewards, record.TickRewards...)
			continue
		}
		rewards = append(rewards, record.Reward)
	}
	return rewards
}

func (m *SessionManager) openEpisode(ctx context.Context) (domain.ResetResult, error) {
	reply, err := m.client.Reset(ctx, ports.ResetRequest{EnvType: m.envType, MaxSteps: m.maxSteps})
	if err != nil {
		return domain.ResetResult{}, fmt.Errorf("reset episode: %w", err)
	}
	if strings.TrimSpace(string(reply.EpisodeID)) == "" {
		return domain.ResetResult{}, domain.NewProtocolError("episode_id", "reset returned an empty episode id")
	}
	obs, err := m.spaces.DecodeObservation(reply.Observation)
	if err != nil {
		return domain.ResetResult{}, fmt.Errorf("reset episode: %w", err)
	}

	previous := m.episode
	held := m.state == domain.EpisodeStateActive || m.state == domain.EpisodeStateTerminated

	m.episode = domain.Episode{ID: reply.EpisodeID, StartedAt: m.clock.Now()}
	m.state = domain.EpisodeStateActive
	m.last, m.hasLast = obs, true
	m.history = nil

	if held && previous.ID != "" && previous.ID != reply.EpisodeID {
		if err := m.client.Close(ctx, ports.CloseRequest{EpisodeID: previous.ID}); err != nil {
			m.logger.Printf("release previous episode %s: %v", previous.ID, err)
		}
	}

	return domain.ResetResult{
		Observation: obs,
		Info:        domain.NewInfo(0, reply.EpisodeID, 0, reply.Info),
	}, nil
}

// Status snapshots the session for rendering.
func (m *SessionManager) Status(session string) EpisodeStatus {
	status := EpisodeStatus{
		Session:   session,
		State:     m.State(),
		Episode:   m.Episode(),
		MaxSteps:  m.MaxSteps(),
		Rewards:   m.Rewards(),
		UpdatedAt: m.clock.Now(),
	}
	if obs, ok := m.LastObservation(); ok {
		status.Observation = &obs
	}
	for _, record := range m.History() {
		status.Actions = append(status.Actions, record.Action)
	}
	status.Stats = NewRewardStats(status.Rewards)
	return status
}
