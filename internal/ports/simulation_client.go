package ports

import (
	"context"
	"encoding/json"

	"github.com/bnema/studentgym/internal/domain"
)

type ResetRequest struct {
	EnvType  string
	MaxSteps int
}

type ResetReply struct {
	EpisodeID   domain.EpisodeID
	Observation json.RawMessage
	Info        map[string]any
}

type StepRequest struct {
	EpisodeID domain.EpisodeID
	Action    int
	BatchSize int
}

// StepReply is the raw batch as the server sent it. Reward is nil when the server only sends per-tick Rewards.
type StepReply struct {
	Observations []json.RawMessage
	Reward       *float64
	Rewards      []float64
	Terminated   bool
	Truncated    bool
	Info         map[string]any
}

type CloseRequest struct {
	EpisodeID domain.EpisodeID
}

// SimulationClient is the remote simulation service. Implementations own retries and timeouts.
type SimulationClient interface {
	Reset(ctx context.Context, req ResetRequest) (ResetReply, error)
	Step(ctx context.Context, req StepRequest) (StepReply, error)
	Close(ctx context.Context, req CloseRequest) error
}
