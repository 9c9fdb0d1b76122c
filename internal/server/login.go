package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/desertthunder/hifi/internal/models"
	"github.com/desertthunder/hifi/internal/shared"
	"github.com/desertthunder/hifi/internal/tasks"
)

// LoginPath is where the login bridge is served.
const LoginPath = "/ws/run-login"

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// LoginHandler streams a login task's output to a websocket client, one text frame per line.
type LoginHandler struct {
	bridge  *tasks.LoginBridge
	metrics *Metrics
	logger  *log.Logger

	mu       sync.Mutex
	closed   bool
	stop     chan struct{}
	sessions sync.WaitGroup
}

// NewLoginHandler creates the websocket endpoint. metrics and logger may be nil.
func NewLoginHandler(bridge *tasks.LoginBridge, metrics *Metrics, logger *log.Logger) *LoginHandler {
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	return &LoginHandler{bridge: bridge, metrics: metrics, logger: logger, stop: make(chan struct{})}
}

// Shutdown refuses new sessions, cancels the running ones and waits until every
// login task has exited or ctx is done.
func (h *LoginHandler) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	if !h.closed {
		h.closed = true
		close(h.stop)
	}
	h.mu.Unlock()

	done := make(chan struct{})
	go func() {
		h.sessions.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("login sessions still running: %w", ctx.Err())
	}
}

// enter registers a session unless the handler is shutting down.
func (h *LoginHandler) enter() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.sessions.Add(1)
	return true
}

// Routes returns the HTTP routes this handler serves.
func (h *LoginHandler) Routes() []string {
	return []string{http.MethodGet + " " + LoginPath}
}

// ServeHTTP upgrades the connection and runs one login task for it.
//
// A client disconnect or [LoginHandler.Shutdown] cancels the task. The connection is
// closed with a normal close frame once the task has exited and its output has been drained.
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.enter() {
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Detail: "Server is shutting down"})
		return
	}
	defer h.sessions.Done()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	defer conn.Close()

	logger := h.logger.With("remote", r.RemoteAddr, "request_id", RequestID(r.Context()))
	logger.Info("login session opened")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	go func() {
		select {
		case <-h.stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	// The client never sends anything meaningful; reading is how a disconnect is noticed.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	sink := func(line string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteMessage(websocket.TextMessage, []byte(line))
	}

	res := h.bridge.Run(ctx, models.SourceWebsocket, sink, nil)
	if h.metrics != nil {
		h.metrics.ObserveLogin(res)
	}

	if res.SinkErr == nil {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		if err := conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait)); err != nil {
			logger.Debug("failed to send close frame", "error", err)
		}
	}
	logger.Info("login session closed", "lines", res.Lines)
}
