package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"learnpath/internal/auth"
	"learnpath/internal/logger"
)

// startHub serves the hub with the user id taken from the X-User header.
func startHub(t *testing.T) (*Hub, string) {
	t.Helper()
	hub := NewHub([]string{"*"}, logger.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id, err := strconv.ParseUint(r.Header.Get("X-User"), 10, 64); err == nil {
			r = r.WithContext(auth.WithUserID(r.Context(), uint(id)))
		}
		hub.HandleWebSocket(w, r)
	}))
	t.Cleanup(srv.Close)
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url, user string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, http.Header{"X-User": []string{user}})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestSendToUserReachesOnlyThatUser(t *testing.T) {
	hub, url := startHub(t)

	a1 := dial(t, url, "1")
	a2 := dial(t, url, "1")
	b := dial(t, url, "2")
	require.Eventually(t, func() bool {
		return hub.ConnectedClients(1) == 2 && hub.ConnectedClients(2) == 1
	}, time.Second, 10*time.Millisecond)

	hub.SendToUser(1, "step_completed", map[string]int{"progressId": 5})

	for _, conn := range []*websocket.Conn{a1, a2} {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)

		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		assert.Equal(t, "step_completed", msg.Type)
		assert.Equal(t, map[string]interface{}{"progressId": float64(5)}, msg.Data)
	}

	require.NoError(t, b.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	_, _, err := b.ReadMessage()
	assert.Error(t, err, "user 2 receives nothing")
}

func TestDisconnectUnregisters(t *testing.T) {
	hub, url := startHub(t)

	conn := dial(t, url, "3")
	require.Eventually(t, func() bool { return hub.ConnectedClients(3) == 1 }, time.Second, 10*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return hub.ConnectedClients(3) == 0 }, time.Second, 10*time.Millisecond)
}

func TestUnauthenticatedUpgradeRejected(t *testing.T) {
	_, url := startHub(t)

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
