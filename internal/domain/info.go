package domain

const (
	InfoKeyStep        = "step"
	InfoKeyEpisodeID   = "episode_id"
	InfoKeyTotalReward = "total_reward"
)

// Info carries the reserved, typed keys every result exposes plus whatever else the server sent.
type Info struct {
	// Step is the episode's tick counter when the batch started, so the first batch of an episode reports 0.
	Step        int
	EpisodeID   EpisodeID
	TotalReward float64
	Extra       map[string]any
}

func IsReservedInfoKey(key string) bool {
	switch key {
	case InfoKeyStep, InfoKeyEpisodeID, InfoKeyTotalReward:
		return true
	default:
		return false
	}
}

// NewInfo copies server fields into Extra, dropping any that collide with reserved keys.
func NewInfo(step int, episodeID EpisodeID, totalReward float64, server map[string]any) Info {
	info := Info{Step: step, EpisodeID: episodeID, TotalReward: totalReward}
	for key, value := range server {
		if IsReservedInfoKey(key) {
			continue
		}
		if info.Extra == nil {
			info.Extra = make(map[string]any, len(server))
		}
		info.Extra[key] = value
	}
	return info
}

func (i Info) Get(key string) (any, bool) {
	switch key {
	case InfoKeyStep:
		return i.Step, true
	case InfoKeyEpisodeID:
		return string(i.EpisodeID), true
	case InfoKeyTotalReward:
		return i.TotalReward, true
	}
	value, ok := i.Extra[key]
	return value, ok
}

func (i Info) Map() map[string]any {
	out := make(map[string]any, len(i.Extra)+3)
	for key, value := range i.Extra {
		out[key] = value
	}
	out[InfoKeyStep] = i.Step
	out[InfoKeyEpisodeID] = string(i.EpisodeID)
	out[InfoKeyTotalReward] = i.TotalReward
	return out
}
