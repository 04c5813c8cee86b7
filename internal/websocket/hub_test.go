package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"intercompany/internal/access"
	"intercompany/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	secret   = []byte("test-secret")
	companyA = uuid.New()
	companyB = uuid.New()
)

// users maps token subjects to the companies they may see.
type users map[string]access.Actor

func (u users) ResolveActor(_ context.Context, userID string) (access.Actor, *model.User, error) {
	actor, ok := u[userID]
	if !ok {
		return access.Actor{}, nil, errors.New("user not found")
	}
	return actor, &model.User{}, nil
}

var directory = users{
	"user-a": access.ForUser(uuid.New(), companyA),
	"user-b": access.ForUser(uuid.New(), companyB),
}

type companyEvent struct {
	Name      string `json:"name"`
	CompanyID string `json:"company_id"`
}

func (e companyEvent) OwnerCompanyID() string { return e.CompanyID }

func signed(t *testing.T, sub, role string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  sub,
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	}).SignedString(secret)
	require.NoError(t, err)
	return token
}

func newServer(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := NewHub(zerolog.Nop())
	go hub.Run()

	router := gin.New()
	router.GET("/ws", func(c *gin.Context) { ServeWs(hub, c, secret, directory) })
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return hub, srv
}

func TestServeWs_Rejects(t *testing.T) {
	_, srv := newServer(t)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"

	_, res, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

	_, res, err = websocket.DefaultDialer.Dial(url+"?token=garbage", nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

	_, res, err = websocket.DefaultDialer.Dial(url+"?token="+signed(t, "user-a", "viewer"), nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)

	_, res, err = websocket.DefaultDialer.Dial(url+"?token="+signed(t, "ghost", model.RoleAdmin), nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func dial(t *testing.T, srv *httptest.Server, sub string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + signed(t, sub, model.RoleAccountant)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func next(t *testing.T, conn *websocket.Conn) (string, map[string]string) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var event struct {
		Type    string            `json:"type"`
		Payload map[string]string `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(data, &event))
	return event.Type, event.Payload
}

func TestHub_BroadcastsEvents(t *testing.T) {
	hub, srv := newServer(t)
	connA := dial(t, srv, "user-a")
	connB := dial(t, srv, "user-b")
	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, time.Second, 10*time.Millisecond)

	hub.Publish("mirror.created", companyEvent{Name: "BILL/2024/0001", CompanyID: companyB.String()})
	typ, payload := next(t, connB)
	assert.Equal(t, "mirror.created", typ)
	assert.Equal(t, "BILL/2024/0001", payload["name"])

	hub.Publish("maintenance", map[string]string{"name": "restart"})
	typ, _ = next(t, connB)
	assert.Equal(t, "maintenance", typ)

	// company A never sees B's document
	typ, payload = next(t, connA)
	assert.Equal(t, "maintenance", typ)
	assert.Equal(t, "restart", payload["name"])
}
