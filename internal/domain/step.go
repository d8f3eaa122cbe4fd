package domain

type StepResult struct {
	Observations []Observation
	Reward       float64
	Terminated   bool
	Truncated    bool
	Info         Info
}

func (r StepResult) Done() bool {
	return r.Terminated || r.Truncated
}

// Last returns the final observation of the batch.
func (r StepResult) Last() (Observation, bool) {
	if len(r.Observations) == 0 {
		return Observation{}, false
	}
	return r.Observations[len(r.Observations)-1], true
}

type ResetResult struct {
	Observation Observation
	Info        Info
}
