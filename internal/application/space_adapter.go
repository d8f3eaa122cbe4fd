package application

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bnema/studentgym/internal/domain"
)

// SpaceAdapter converts between domain values and the wire representation of actions and observations.
type SpaceAdapter struct{}

func (SpaceAdapter) EncodeAction(action domain.Action) (int, error) {
	if !domain.ActionSpace.Contains(action) {
		return 0, fmt.Errorf("%w: %d is outside %d discrete actions", domain.ErrInvalidAction, int(action), domain.ActionSpace.N)
	}
	return int(action), nil
}

// DecodeObservation accepts only a JSON array of exactly nine numbers.
func (SpaceAdapter) DecodeObservation(payload json.RawMessage) (domain.Observation, error) {
	var obs domain.Observation

	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return obs, domain.NewProtocolError("observation", "expected an array of %d numbers", domain.ObservationSize)
	}

	var elements []json.RawMessage
	if err := json.Unmarshal(trimmed, &elements); err != nil {
		return obs, domain.NewProtocolError("observation", "decode array: %v", err)
	}
	if len(elements) != domain.ObservationSize {
		return obs, domain.NewProtocolError("observation", "expected %d values, got %d", domain.ObservationSize, len(elements))
	}

	for i, element := range elements {
		value, err := decodeNumber(element)
		if err != nil {
			return domain.Observation{}, domain.NewProtocolError("observation", "%s (position %d): %v", domain.ObservationFieldNames[i], i, err)
		}
		obs[i] = value
	}

	return obs, nil
}

func (s SpaceAdapter) DecodeObservations(payloads []json.RawMessage) ([]domain.Observation, error) {
	observations := make([]domain.Observation, 0, len(payloads))
	for i, payload := range payloads {
		obs, err := s.DecodeObservation(payload)
		if err != nil {
			return nil, fmt.Errorf("tick %d: %w", i, err)
		}
		observations = append(observations, obs)
	}
	return observations, nil
}

func decodeNumber(raw json.RawMessage) (float64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0, errors.New("missing value")
	}
	if c := raw[0]; c != '-' && (c < '0' || c > '9') {
		return 0, fmt.Errorf("expected number, got %s", raw)
	}

	var value float64
	if err := json.Unmarshal(raw, &value); err != nil {
		return 0, err
	}
	return value, nil
}
