package ws

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := NewHub()
	router := gin.New()
	router.GET("/ws/workflow-runs/:id", hub.ServeRunProgress)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return hub, server
}

func dial(t *testing.T, server *httptest.Server, runID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/workflow-runs/" + runID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForSubscribers(t *testing.T, hub *Hub, runID string, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.SubscriberCount(runID) == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected %d subscribers for run %s, have %d", want, runID, hub.SubscriberCount(runID))
}

func TestHubDeliversProgressFrames(t *testing.T) {
	hub, server := newTestServer(t)

	conn := dial(t, server, "run-1")
	waitForSubscribers(t, hub, "run-1", 1)

	hub.BroadcastRunProgress("run-1", map[string]interface{}{
		"run_id": "run-1",
		"state":  "running",
		"step":   1,
	})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	var frame map[string]interface{}
	require.NoError(t, json.Unmarshal(payload, &frame))
	assert.Equal(t, "run-1", frame["run_id"])
	assert.Equal(t, "running", frame["state"])
}

func TestHubScopesFramesToRun(t *testing.T) {
	hub, server := newTestServer(t)

	conn := dial(t, server, "run-a")
	waitForSubscribers(t, hub, "run-a", 1)

	// A frame for a different run must not reach this subscriber.
	hub.BroadcastRunProgress("run-b", map[string]interface{}{"run_id": "run-b"})
	hub.BroadcastRunProgress("run-a", map[string]interface{}{"run_id": "run-a"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	var frame map[string]interface{}
	require.NoError(t, json.Unmarshal(payload, &frame))
	assert.Equal(t, "run-a", frame["run_id"])
}

func TestHubCleansUpOnDisconnect(t *testing.T) {
	hub, server := newTestServer(t)

	conn := dial(t, server, "run-1")
	waitForSubscribers(t, hub, "run-1", 1)

	conn.Close()
	waitForSubscribers(t, hub, "run-1", 0)
}
