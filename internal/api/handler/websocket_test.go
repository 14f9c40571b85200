package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fixedpronos/prono_server/internal/pkg/jwt"
	"github.com/fixedpronos/prono_server/internal/pkg/pubsub"
	"github.com/fixedpronos/prono_server/internal/pkg/ws"
)

const testWSSecret = "ws-test-secret"

func startWebSocketServer(t *testing.T, hub *ws.Hub, origins []string) string {
	t.Helper()

	router := gin.New()
	router.GET("/ws", NewWebSocketHandler(hub, testWSSecret, origins).Handle)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
}

func TestWebSocketHandler_ForwardsPaymentEvents(t *testing.T) {
	hub := ws.NewHub()
	url := startWebSocketServer(t, hub, nil)

	token, err := jwt.GenerateToken(7, testWSSecret, 1)
	require.NoError(t, err)

	conn, _, err := websocket.DefaultDialer.Dial(url+"?token="+token, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.IsOnline(7) }, time.Second, 10*time.Millisecond)

	hub.HandlePaymentEvent(&pubsub.PaymentEvent{
		Type:      pubsub.TypePaymentStatus,
		UserID:    7,
		PaymentID: "pay_1",
		Status:    "approved",
		Plan:      "pro",
	})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg struct {
		Type string              `json:"type"`
		Data pubsub.PaymentEvent `json:"data"`
	}
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, pubsub.TypePaymentStatus, msg.Type)
	assert.Equal(t, "pay_1", msg.Data.PaymentID)
	assert.Equal(t, "approved", msg.Data.Status)

	conn.Close()
	assert.Eventually(t, func() bool { return !hub.IsOnline(7) }, time.Second, 10*time.Millisecond)
}

func TestWebSocketHandler_RejectsBadTokens(t *testing.T) {
	hub := ws.NewHub()
	url := startWebSocketServer(t, hub, nil)

	expired, err := jwt.GenerateToken(7, testWSSecret, 0)
	require.NoError(t, err)
	wrongSecret, err := jwt.GenerateToken(7, "other-secret", 1)
	require.NoError(t, err)

	tests := []struct {
		name    string
		query   string
		message string
	}{
		{name: "missing", query: "", message: "missing token"},
		{name: "garbage", query: "?token=garbage", message: jwt.ErrInvalidToken.Error()},
		{name: "wrong secret", query: "?token=" + wrongSecret, message: jwt.ErrInvalidToken.Error()},
		{name: "expired", query: "?token=" + expired, message: jwt.ErrExpiredToken.Error()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, resp, err := websocket.DefaultDialer.Dial(url+tt.query, nil)
			require.Error(t, err)
			require.NotNil(t, resp)
			defer resp.Body.Close()
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

			var body map[string]string
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.message, body["error"])
		})
	}
	assert.Zero(t, hub.ConnectionCount())
}

func TestWebSocketHandler_ChecksOrigin(t *testing.T) {
	hub := ws.NewHub()
	url := startWebSocketServer(t, hub, []string{"https://fixedpronos.com"})

	token, err := jwt.GenerateToken(7, testWSSecret, 1)
	require.NoError(t, err)

	header := http.Header{}
	header.Set("Origin", "https://evil.example")
	_, _, err = websocket.DefaultDialer.Dial(url+"?token="+token, header)
	assert.Error(t, err)

	header.Set("Origin", "https://fixedpronos.com")
	conn, _, err := websocket.DefaultDialer.Dial(url+"?token="+token, header)
	require.NoError(t, err)
	conn.Close()
}
