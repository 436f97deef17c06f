package monitor

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonitorCounts(t *testing.T) {
	m := New(DefaultConfig())

	m.RunStarted()
	m.ObserveSteps(200)
	m.ObserveSteps(200)
	m.ObserveEpisode(12.5, 3, 0.05)
	m.ObserveEpisode(-4, 0, 0.04)
	m.RunFinished()

	steps := testutil.ToFloat64(m.stepsTotal)
	assert.Equal(t, 400.0, steps)
	episodes := testutil.ToFloat64(m.episodesTotal)
	assert.Equal(t, 2.0, episodes)
	active := testutil.ToFloat64(m.runsActive)
	assert.Equal(t, 0.0, active)
}

func TestMetricsEndpoint(t *testing.T) {
	m := New(DefaultConfig())
	m.ObserveSteps(7)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "mktsim_run_steps_total 7")
}
