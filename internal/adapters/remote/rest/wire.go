package rest

import (
	"encoding/json"
	"strings"
)

const (
	resetPath = "reset"
	stepPath  = "step"
	closePath = "close"
)

type resetRequest struct {
	UserToken string `json:"user_token"`
	EnvType   string `json:"env_type"`
	MaxSteps  int    `json:"max_steps,omitempty"`
}

type resetResponse struct {
	EpisodeID   string          `json:"episode_id"`
	Observation json.RawMessage `json:"observation"`
	Info        map[string]any  `json:"info"`
}

type stepRequest struct {
	EpisodeID string `json:"episode_id"`
	Action    int    `json:"action"`
	BatchSize int    `json:"batch_size"`
}

type stepResponse struct {
	Observations []json.RawMessage `json:"observations"`
	Reward       *float64          `json:"reward"`
	Rewards      []float64         `json:"rewards"`
	Terminated   bool              `json:"terminated"`
	Truncated    bool              `json:"truncated"`
	Info         map[string]any    `json:"info"`
}

type closeRequest struct {
	EpisodeID string `json:"episode_id"`
}

type closeResponse struct {
	Success *bool `json:"success"`
}

type errorResponse struct {
	Detail  json.RawMessage `json:"detail"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

const maxErrorMessageLen = 512

// errorMessage extracts a readable message from an error body, falling back to the raw text.
func errorMessage(body []byte) string {
	var payload errorResponse
	if err := json.Unmarshal(body, &payload); err == nil {
		if len(payload.Detail) > 0 {
			var detail string
			if err := json.Unmarshal(payload.Detail, &detail); err == nil && detail != "" {
				return detail
			}
			return truncate(string(payload.Detail))
		}
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	return truncate(strings.TrimSpace(string(body)))
}

func truncate(message string) string {
	if len(message) > maxErrorMessageLen {
		return message[:maxErrorMessageLen] + "..."
	}
	return message
}
