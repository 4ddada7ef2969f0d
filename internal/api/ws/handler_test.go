package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/labmat/internal/domain/content"
	"github.com/GriffinCanCode/labmat/internal/domain/execution"
	"github.com/GriffinCanCode/labmat/internal/domain/session"
)

type stubExecutor struct{}

func (stubExecutor) Execute(context.Context, string) (*execution.Response, error) {
	return &execution.Response{Success: true}, nil
}

type countingObserver struct {
	mu       sync.Mutex
	open     int
	messages map[string]int
}

func (o *countingObserver) IncWSConnections() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.open++
}

func (o *countingObserver) DecWSConnections() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.open--
}

func (o *countingObserver) RecordWSMessage(direction, msgType string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.messages == nil {
		o.messages = make(map[string]int)
	}
	o.messages[direction+":"+msgType]++
}

func (o *countingObserver) connections() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.open
}

func setup(t *testing.T) (*session.Coordinator, *countingObserver, *websocket.Conn) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := content.Embedded(nil)
	require.NoError(t, err)
	coord := session.New(store, stubExecutor{})
	obs := &countingObserver{}

	router := gin.New()
	router.GET("/stream", NewHandler(coord, WithObserver(obs)).HandleConnection)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return coord, obs, conn
}

// next reads frames until one of type kind arrives.
func next(t *testing.T, conn *websocket.Conn, kind string) Frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		var f Frame
		require.NoError(t, json.Unmarshal(data, &f))
		if f.Type == kind {
			return f
		}
	}
}

func TestWelcomeFrame(t *testing.T) {
	_, obs, conn := setup(t)

	f := next(t, conn, "system")
	assert.NotEmpty(t, f.ConnectionID)
	require.NotNil(t, f.Session)
	assert.Equal(t, session.ReadyText, f.Session.Console.Text)
	assert.Equal(t, 1, obs.connections())
}

func TestStreamsStateAndNotifications(t *testing.T) {
	coord, _, conn := setup(t)
	next(t, conn, "system")

	require.NoError(t, coord.SelectPractical(4))

	state := next(t, conn, "state")
	require.NotNil(t, state.Session)
	require.NotNil(t, state.Session.SelectedPracticalID)
	assert.Equal(t, 4, *state.Session.SelectedPracticalID)
	assert.NotEmpty(t, state.ID)

	note := next(t, conn, "notification")
	require.NotNil(t, note.Notification)
	assert.Equal(t, session.Notification{Level: session.LevelSuccess, Message: "Loaded Practical 4"}, *note.Notification)
}

func TestClientMessages(t *testing.T) {
	coord, _, conn := setup(t)
	next(t, conn, "system")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)))
	next(t, conn, "pong")

	coord.SetEditorText("bode(G)")
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"snapshot"}`)))
	snap := next(t, conn, "snapshot")
	require.NotNil(t, snap.Session)
	assert.Equal(t, "bode(G)", snap.Session.EditorText)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"chat"}`)))
	assert.Equal(t, "unknown message type", next(t, conn, "error").Message)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`not json`)))
	assert.Equal(t, "malformed message", next(t, conn, "error").Message)
}

func TestDisconnectReleasesSubscription(t *testing.T) {
	coord, obs, conn := setup(t)
	next(t, conn, "system")

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	conn.Close()

	assert.Eventually(t, func() bool {
		return obs.connections() == 0
	}, 2*time.Second, 10*time.Millisecond)

	// Publishing after disconnect must not block or panic.
	coord.SetEditorText("x")
}
