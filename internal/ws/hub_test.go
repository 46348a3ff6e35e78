package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"coinvest/config"
	"coinvest/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubRoutesByUser(t *testing.T) {
	h := NewHub()
	a1, a2, b := NewClient(1, "USER"), NewClient(1, "USER"), NewClient(2, "USER")
	h.Register(a1)
	h.Register(a2)
	h.Register(b)
	assert.Equal(t, 3, h.ClientCount())

	h.SendToUser(1, map[string]string{"type": "ping"})
	assert.Len(t, a1.Send, 1)
	assert.Len(t, a2.Send, 1)
	assert.Len(t, b.Send, 0)

	h.Broadcast(map[string]string{"type": "ticker"})
	assert.Len(t, a1.Send, 2)
	assert.Len(t, a2.Send, 2)
	assert.Len(t, b.Send, 1)
	assert.JSONEq(t, `{"type":"ticker"}`, string(<-b.Send))
	for _, c := range []*Client{a1, a2} {
		assert.JSONEq(t, `{"type":"ping"}`, string(<-c.Send))
		assert.JSONEq(t, `{"type":"ticker"}`, string(<-c.Send))
	}

	a1.Close()
	a1.Close()
	assert.Equal(t, 2, h.ClientCount())
	h.SendToUser(1, map[string]string{"type": "after-close"})
	assert.Len(t, a2.Send, 1)
	assert.Len(t, a1.Send, 0)
	assert.JSONEq(t, `{"type":"after-close"}`, string(<-a2.Send))
}

func TestSlowClientDropsMessages(t *testing.T) {
	h := NewHub()
	c := NewClient(1, "USER")
	h.Register(c)
	for i := 0; i < sendBuffer+10; i++ {
		h.SendToUser(1, i)
	}
	assert.Len(t, c.Send, sendBuffer)
}

func TestUpgradeNotificationsWS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.JWTConfig{AccessSecret: "s", AccessExpiry: time.Minute}
	hub := NewHub()
	r := gin.New()
	r.GET("/ws/notifications", UpgradeNotificationsWS(cfg, hub))
	srv := httptest.NewServer(r)
	defer srv.Close()
	base := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/notifications"

	_, resp, err := websocket.DefaultDialer.Dial(base, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	token, err := auth.GenerateAccessToken(cfg, 7, "u@example.com", "USER")
	require.NoError(t, err)
	conn, _, err := websocket.DefaultDialer.Dial(base+"?token="+token, nil)
	require.NoError(t, err)
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"connected"}`, string(msg))

	hub.SendToUser(7, map[string]interface{}{"type": "notification", "title": "Deposit completed"})
	_, msg, err = conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(msg), "Deposit completed")
}
