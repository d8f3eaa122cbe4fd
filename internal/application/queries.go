package application

import (
	"time"

	"github.com/bnema/studentgym/internal/domain"
)

// RewardStats summarizes the per-step rewards of an episode.
type RewardStats struct {
	Count int
	Total float64
	Mean  float64
	Min   float64
	Max   float64
}

func NewRewardStats(rewards []float64) RewardStats {
	stats := RewardStats{Count: len(rewards)}
	for i, r := range rewards {
		stats.Total += r
		if i == 0 || r < stats.Min {
			stats.Min = r
		}
		if i == 0 || r > stats.Max {
			stats.Max = r
		}
	}
	if stats.Count > 0 {
		stats.Mean = stats.Total / float64(stats.Count)
	}
	return stats
}

type EpisodeStatus struct {
	Session     string
	State       domain.EpisodeState
	Episode     domain.Episode
	MaxSteps    int
	Observation *domain.Observation
	Rewards     []float64
	Actions     []domain.Action
	Stats       RewardStats
	UpdatedAt   time.Time
}

// RunSummary is what a scripted run reports once the loop ends.
type RunSummary struct {
	EpisodeID   domain.EpisodeID
	Steps       int
	Ticks       int
	TotalReward float64
	Repairs     int
	Sells       int
	Terminated  bool
	Truncated   bool
}
