package application

import (
	"encoding/json"
	"testing"

	"github.com/bnema/studentgym/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpaceAdapterEncodeAction(t *testing.T) {
	t.Parallel()

	var spaces SpaceAdapter
	for _, action := range []domain.Action{domain.ActionNoop, domain.ActionRepair, domain.ActionSell} {
		code, err := spaces.EncodeAction(action)
		require.NoError(t, err)
		assert.Equal(t, int(action), code)
	}

	for _, action := range []domain.Action{-1, 3, 42} {
		_, err := spaces.EncodeAction(action)
		assert.ErrorIs(t, err, domain.ErrInvalidAction)
	}
}

func TestSpaceAdapterDecodeObservation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		payload string
		wantErr bool
	}{
		{name: "nine numbers", payload: `[1, 2.5, -3, 4e2, 0, 6, 7, 1, -0.25]`},
		{name: "eight numbers", payload: `[1,2,3,4,5,6,7,8]`, wantErr: true},
		{name: "ten numbers", payload: `[1,2,3,4,5,6,7,8,9,10]`, wantErr: true},
		{name: "null value", payload: `[1,2,3,4,5,6,7,8,null]`, wantErr: true},
		{name: "string value", payload: `[1,2,3,4,5,6,7,8,"9"]`, wantErr: true},
		{name: "boolean value", payload: `[1,2,3,4,5,6,7,8,true]`, wantErr: true},
		{name: "object", payload: `{"HPC_Tout": 1}`, wantErr: true},
		{name: "empty", payload: ``, wantErr: true},
		{name: "overflow", payload: `[1,2,3,4,5,6,7,8,1e400]`, wantErr: true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			obs, err := SpaceAdapter{}.DecodeObservation(json.RawMessage(tc.payload))
			if tc.wantErr {
				assert.ErrorIs(t, err, domain.ErrProtocol)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, domain.Observation{1, 2.5, -3, 400, 0, 6, 7, 1, -0.25}, obs)
		})
	}
}

func TestSpaceAdapterDecodeObservationsReportsTick(t *testing.T) {
	t.Parallel()

	payloads := observations(3, 0)
	payloads[2] = json.RawMessage(`[1]`)

	_, err := SpaceAdapter{}.DecodeObservations(payloads)
	require.ErrorIs(t, err, domain.ErrProtocol)
	assert.ErrorContains(t, err, "tick 2")
}
