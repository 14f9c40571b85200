package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fixedpronos/prono_server/internal/pkg/pubsub"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// startServer registers every upgraded connection for userID and keeps it until the test ends.
func startServer(t *testing.T, hub *Hub, userID int64) string {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := &Client{UserID: userID, Conn: conn}
		hub.Register(client)
		defer hub.Unregister(client)

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(server.Close)

	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHub_Empty(t *testing.T) {
	hub := NewHub()

	assert.Equal(t, 0, hub.ConnectionCount())
	assert.False(t, hub.IsOnline(123))
	assert.NoError(t, hub.SendToUser(123, &Message{Type: "test"}))
}

func TestHub_SendToUser(t *testing.T) {
	hub := NewHub()
	url := startServer(t, hub, 100)

	conn1 := dial(t, url)
	conn2 := dial(t, url)

	require.Eventually(t, func() bool { return hub.ConnectionCount() == 2 }, time.Second, 10*time.Millisecond)
	assert.True(t, hub.IsOnline(100))

	require.NoError(t, hub.SendToUser(100, &Message{Type: "ping", Data: "hello"}))

	for _, conn := range []*websocket.Conn{conn1, conn2} {
		var msg Message
		conn.SetReadDeadline(time.Now().Add(time.Second))
		require.NoError(t, conn.ReadJSON(&msg))
		assert.Equal(t, "ping", msg.Type)
		assert.Equal(t, "hello", msg.Data)
	}
}

func TestHub_Unregister(t *testing.T) {
	hub := NewHub()
	url := startServer(t, hub, 7)

	conn := dial(t, url)
	require.Eventually(t, func() bool { return hub.IsOnline(7) }, time.Second, 10*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return !hub.IsOnline(7) }, time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, hub.ConnectionCount())
}

func TestHub_HandlePaymentEvent(t *testing.T) {
	hub := NewHub()
	url := startServer(t, hub, 55)

	conn := dial(t, url)
	require.Eventually(t, func() bool { return hub.IsOnline(55) }, time.Second, 10*time.Millisecond)

	hub.HandlePaymentEvent(&pubsub.PaymentEvent{
		Type:      pubsub.TypePaymentStatus,
		UserID:    55,
		PaymentID: "pay-55",
		Status:    "approved",
	})

	var msg struct {
		Type string              `json:"type"`
		Data pubsub.PaymentEvent `json:"data"`
	}
	conn.SetReadDeadline(time.Now().Add(time.Second))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, pubsub.TypePaymentStatus, msg.Type)
	assert.Equal(t, "pay-55", msg.Data.PaymentID)
	assert.Equal(t, "approved", msg.Data.Status)
}

func TestHub_HandlePaymentEvent_OtherUserOffline(t *testing.T) {
	hub := NewHub()

	assert.NotPanics(t, func() {
		hub.HandlePaymentEvent(&pubsub.PaymentEvent{UserID: 999, PaymentID: "p"})
	})
}
