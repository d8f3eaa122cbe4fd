package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bnema/studentgym/internal/domain"
	"github.com/bnema/studentgym/internal/ports"
	"github.com/stretchr/testify/mock"
)

func mockAnyContext() interface{} {
	return mock.Anything
}

func observationJSON(value float64) json.RawMessage {
	values := make([]string, domain.ObservationSize)
	for i := range values {
		values[i] = fmt.Sprintf("%g", value+float64(i)/10)
	}
	return json.RawMessage("[" + strings.Join(values, ",") + "]")
}

func observations(n int, start float64) []json.RawMessage {
	out := make([]json.RawMessage, n)
	for i := range out {
		out[i] = observationJSON(start + float64(i))
	}
	return out
}

func float(v float64) *float64 {
	return &v
}

func testConfig() domain.Config {
	cfg := domain.DefaultConfig()
	cfg.UserToken = "token-1"
	cfg.StepSize = 10
	cfg.MaxStepsPerEpisode = 20
	return cfg
}

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}

// scriptedClient plays back canned replies in order and records every request it sees.
type scriptedClient struct {
	resets   []ports.ResetReply
	steps    []ports.StepReply
	stepErrs []error
	resetErr error
	closeErr error

	resetCalls []ports.ResetRequest
	stepCalls  []ports.StepRequest
	closeCalls []ports.CloseRequest
}

func (c *scriptedClient) Reset(_ context.Context, req ports.ResetRequest) (ports.ResetReply, error) {
	c.resetCalls = append(c.resetCalls, req)
	if c.resetErr != nil {
		return ports.ResetReply{}, c.resetErr
	}
	if len(c.resets) == 0 {
		return ports.ResetReply{}, errors.New("unexpected reset")
	}
	reply := c.resets[0]
	c.resets = c.resets[1:]
	return reply, nil
}

func (c *scriptedClient) Step(_ context.Context, req ports.StepRequest) (ports.StepReply, error) {
	c.stepCalls = append(c.stepCalls, req)
	if len(c.stepErrs) > 0 {
		err := c.stepErrs[0]
		c.stepErrs = c.stepErrs[1:]
		if err != nil {
			return ports.StepReply{}, err
		}
	}
	if len(c.steps) == 0 {
		return ports.StepReply{}, errors.New("unexpected step")
	}
	reply := c.steps[0]
	c.steps = c.steps[1:]
	return reply, nil
}

func (c *scriptedClient) Close(_ context.Context, req ports.CloseRequest) error {
	c.closeCalls = append(c.closeCalls, req)
	return c.closeErr
}

func resetReply(id string) ports.ResetReply {
	return ports.ResetReply{EpisodeID: domain.EpisodeID(id), Observation: observationJSON(1), Info: map[string]any{"flight": 0}}
}

func fullBatch(n int, reward float64) ports.StepReply {
	return ports.StepReply{Observations: observations(n, 2), Reward: float(reward)}
}
