package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPolicy(t *testing.T) {
	e := newTestEnv(t, 2)
	space := e.ActionSpace()

	tests := []struct {
		name    string
		policy  string
		depth   float64
		wantErr bool
	}{
		{name: "random", policy: PolicyRandom},
		{name: "fixed depth", policy: PolicyFixedDepth, depth: 1.5},
		{name: "flat", policy: PolicyFlat},
		{name: "negative depth rejected", policy: PolicyFixedDepth, depth: -1, wantErr: true},
		{name: "unknown rejected", policy: "greedy", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPolicy(tt.policy, space, tt.depth, 1)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, p)
		})
	}
}

func TestFixedDepthPolicyClampsToSpace(t *testing.T) {
	e := newTestEnv(t, 3)
	space := e.ActionSpace()
	p := NewFixedDepthPolicy(space, space.High[0]+10)

	action, err := p.Act(e.State())
	require.NoError(t, err)
	require.Len(t, action, 3)
	for _, row := range action {
		assert.True(t, space.Contains(row))
		assert.Equal(t, space.High[0], row[0])
		assert.Equal(t, space.High[1], row[1])
	}
}

func TestRandomPolicyStaysInSpace(t *testing.T) {
	e := newTestEnv(t, 5)
	space := e.ActionSpace()
	p := NewRandomPolicy(space, 3)

	action, err := p.Act(e.State())
	require.NoError(t, err)
	require.Len(t, action, 5)
	for _, row := range action {
		assert.True(t, space.Contains(row))
	}
}
