package domain

import "time"

type EpisodeID string

type EpisodeState string

const (
	EpisodeStateUninitialized EpisodeState = "uninitialized"
	EpisodeStateActive        EpisodeState = "active"
	EpisodeStateTerminated    EpisodeState = "terminated"
	EpisodeStateClosed        EpisodeState = "closed"
)

type Episode struct {
	ID          EpisodeID
	Step        int
	Terminated  bool
	Truncated   bool
	TotalReward float64
	StartedAt   time.Time
}

func (e Episode) Ended() bool {
	return e.Terminated || e.Truncated
}

// Remaining reports how many ticks are left before maxSteps; zero or negative budgets are unlimited.
func (e Episode) Remaining(maxSteps int) int {
	if maxSteps <= 0 {
		return -1
	}
	if left := maxSteps - e.Step; left > 0 {
		return left
	}
	return 0
}
