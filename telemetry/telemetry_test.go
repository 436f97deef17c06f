package telemetry

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcastReachesSubscribers(t *testing.T) {
	b := NewBroadcaster(nil)
	srv := httptest.NewServer(b)
	defer srv.Close()
	defer b.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	// registration happens in the upgrade handler; wait for it
	require.Eventually(t, func() bool { return b.ClientCount() == 1 },
		time.Second, 10*time.Millisecond)

	sent := EpisodeSummary{
		RunID:      "run-1",
		Episode:    3,
		Steps:      200,
		MeanReward: 1.25,
	}
	b.Publish(sent)

	var got EpisodeSummary
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, sent.RunID, got.RunID)
	assert.Equal(t, sent.Episode, got.Episode)
	assert.Equal(t, sent.MeanReward, got.MeanReward)
}

func TestDisconnectedClientIsDropped(t *testing.T) {
	b := NewBroadcaster(nil)
	srv := httptest.NewServer(b)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return b.ClientCount() == 1 },
		time.Second, 10*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return b.ClientCount() == 0 },
		2*time.Second, 10*time.Millisecond)
}
