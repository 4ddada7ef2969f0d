package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/labmat/internal/domain/session"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	maxMessageSize = 4096
	replyBuffer    = 8
)

// Frame is one server-to-client message.
type Frame struct {
	Type         string                `json:"type"`
	ID           string                `json:"id,omitempty"`
	ConnectionID string                `json:"connectionId,omitempty"`
	Version      uint64                `json:"version,omitempty"`
	Message      string                `json:"message,omitempty"`
	Notification *session.Notification `json:"notification,omitempty"`
	Session      *session.Snapshot     `json:"session,omitempty"`
	Timestamp    int64                 `json:"timestamp"`
}

type clientMessage struct {
	Type string `json:"type"`
}

// Observer receives connection metrics.
type Observer interface {
	IncWSConnections()
	DecWSConnections()
	RecordWSMessage(direction, msgType string)
}

type nopObserver struct{}

func (nopObserver) IncWSConnections()              {}
func (nopObserver) DecWSConnections()              {}
func (nopObserver) RecordWSMessage(string, string) {}

// Option configures a Handler.
type Option func(*Handler)

// WithObserver attaches connection metrics.
func WithObserver(o Observer) Option {
	return func(h *Handler) { h.observer = o }
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(h *Handler) { h.log = log }
}

// WithPingInterval sets how often idle connections are pinged.
func WithPingInterval(d time.Duration) Option {
	return func(h *Handler) { h.pingInterval = d }
}

// WithCheckOrigin overrides the upgrade origin check.
func WithCheckOrigin(fn func(r *http.Request) bool) Option {
	return func(h *Handler) { h.upgrader.CheckOrigin = fn }
}

// Handler manages WebSocket connections
type Handler struct {
	session      *session.Coordinator
	observer     Observer
	log          *zap.Logger
	upgrader     websocket.Upgrader
	pingInterval time.Duration
	eventBuffer  int
}

// NewHandler creates a new WebSocket handler
func NewHandler(coordinator *session.Coordinator, opts ...Option) *Handler {
	h := &Handler{
		session:  coordinator,
		observer: nopObserver{},
		log:      zap.NewNop(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		pingInterval: pongWait * 9 / 10,
		eventBuffer:  64,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// HandleConnection upgrades the request and streams session events until
// the client goes away.
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	connID := uuid.NewString()
	log := h.log.With(zap.String("conn_id", connID))
	log.Info("websocket connected", zap.String("remote", c.ClientIP()))

	h.observer.IncWSConnections()
	defer h.observer.DecWSConnections()

	events, unsubscribe := h.session.Subscribe(h.eventBuffer)
	defer unsubscribe()

	replies := make(chan Frame, replyBuffer)
	done := make(chan struct{})

	snap := h.session.Snapshot()
	replies <- Frame{Type: "system", ConnectionID: connID, Message: "connected", Version: snap.Version, Session: &snap}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		h.writeLoop(conn, events, replies, done, log)
	}()

	h.readLoop(conn, replies, log)
	close(done)
	wg.Wait()
	conn.Close()
	log.Info("websocket disconnected")
}

func (h *Handler) readLoop(conn *websocket.Conn, replies chan<- Frame, log *zap.Logger) {
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("websocket read error", zap.Error(err))
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))

		var msg clientMessage
		if err := sonic.Unmarshal(data, &msg); err != nil {
			h.reply(replies, Frame{Type: "error", Message: "malformed message"})
			continue
		}
		h.observer.RecordWSMessage("in", msg.Type)

		switch msg.Type {
		case "ping":
			h.reply(replies, Frame{Type: "pong"})
		case "snapshot":
			snap := h.session.Snapshot()
			h.reply(replies, Frame{Type: "snapshot", Version: snap.Version, Session: &snap})
		default:
			h.reply(replies, Frame{Type: "error", Message: "unknown message type"})
		}
	}
}

// reply queues f unless the writer is backed up.
func (h *Handler) reply(replies chan<- Frame, f Frame) {
	select {
	case replies <- f:
	default:
		h.log.Debug("websocket reply dropped", zap.String("type", f.Type))
	}
}

func (h *Handler) writeLoop(conn *websocket.Conn, events <-chan session.Event, replies <-chan Frame, done <-chan struct{}, log *zap.Logger) {
	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	for {
		var frame Frame
		select {
		case <-done:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		case e, ok := <-events:
			if !ok {
				conn.Close()
				return
			}
			frame = h.eventFrame(e)
		case frame = <-replies:
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.Debug("websocket ping failed", zap.Error(err))
				conn.Close()
				return
			}
			continue
		}

		if err := h.write(conn, frame); err != nil {
			log.Debug("websocket write failed", zap.Error(err))
			// Closing unblocks the reader, which ends the connection.
			conn.Close()
			return
		}
	}
}

func (h *Handler) eventFrame(e session.Event) Frame {
	f := Frame{Type: string(e.Kind), ID: e.ID, Version: e.Version, Timestamp: e.Time.Unix()}
	switch e.Kind {
	case session.EventNotification:
		f.Notification = e.Notification
	case session.EventState:
		snap := h.session.Snapshot()
		f.Session = &snap
		f.Version = snap.Version
	}
	return f
}

func (h *Handler) write(conn *websocket.Conn, f Frame) error {
	if f.Timestamp == 0 {
		f.Timestamp = time.Now().Unix()
	}
	data, err := sonic.Marshal(f)
	if err != nil {
		return err
	}
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return err
	}
	h.observer.RecordWSMessage("out", f.Type)
	return nil
}
