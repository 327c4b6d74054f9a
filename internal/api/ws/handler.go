// Package ws is the WebSocket gateway. It only translates wire messages
// to and from the pipeline operations; no scoring logic lives here.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"poise/internal/metrics"
	"poise/internal/services/analyzer"
	"poise/pkg/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1 << 20,
	WriteBufferSize: 1 << 16,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Handler serves one analysis session per WebSocket connection
type Handler struct {
	service *analyzer.Service
	log     *logger.Logger
}

// NewHandler creates the WebSocket gateway
func NewHandler(service *analyzer.Service) *Handler {
	return &Handler{
		service: service,
		log:     logger.Get().With("component", "ws_handler"),
	}
}

// ServeHTTP upgrades the connection and runs the message loop
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warnw("WebSocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	metrics.WebSocketConnections.Inc()
	defer metrics.WebSocketConnections.Dec()

	h.runLoop(r.Context(), conn)
}

// runLoop processes messages until the client disconnects. A session
// started on this connection is cleaned up if the client goes away
// without ending it.
func (h *Handler) runLoop(ctx context.Context, conn *websocket.Conn) {
	var sessionID string
	defer func() {
		if sessionID != "" {
			h.service.Cleanup(sessionID)
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.Warnw("WebSocket read failed", "session_id", sessionID, "error", err)
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			h.send(conn, ServerMessage{Type: MsgError, Code: "invalid_input", Message: "malformed message"})
			continue
		}

		switch msg.Type {
		case MsgStartSession:
			id, err := h.service.StartSession(ctx, msg.SessionID, msg.Config.Domain())
			if err != nil {
				h.sendError(conn, msg.SessionID, err)
				continue
			}
			sessionID = id
			h.send(conn, ServerMessage{Type: MsgSessionStarted, SessionID: id})

		case MsgFrame:
			id := h.target(msg.SessionID, sessionID)
			video, err := msg.Video.Decode()
			if err != nil {
				h.sendError(conn, id, err)
				continue
			}
			audio, err := msg.Audio.Decode()
			if err != nil {
				h.sendError(conn, id, err)
				continue
			}
			ts := time.Now()
			if msg.Timestamp > 0 {
				ts = time.UnixMilli(msg.Timestamp)
			}
			fb, err := h.service.ProcessFrame(ctx, id, video, audio, ts)
			if err != nil {
				h.sendError(conn, id, err)
				continue
			}
			if fb != nil {
				h.send(conn, ServerMessage{Type: MsgLiveFeedback, SessionID: id, Payload: fb})
			}

		case MsgEndSession:
			id := h.target(msg.SessionID, sessionID)
			report, err := h.service.EndSession(ctx, id)
			if err != nil {
				h.sendError(conn, id, err)
				continue
			}
			if id == sessionID {
				sessionID = ""
			}
			h.send(conn, ServerMessage{Type: MsgReport, SessionID: id, Payload: report})

		case MsgGetMetrics:
			snap := h.service.PerformanceMetrics(msg.SessionID)
			h.send(conn, ServerMessage{Type: MsgMetrics, SessionID: msg.SessionID, Payload: snap})

		default:
			h.send(conn, ServerMessage{Type: MsgError, Code: "invalid_input", Message: "unknown message type"})
		}
	}
}

// target picks the explicit session id or falls back to the one started
// on this connection.
func (h *Handler) target(explicit, connection string) string {
	if explicit != "" {
		return explicit
	}
	return connection
}

func (h *Handler) sendError(conn *websocket.Conn, sessionID string, err error) {
	h.send(conn, ServerMessage{
		Type:      MsgError,
		SessionID: sessionID,
		Code:      errorCode(err),
		Message:   err.Error(),
	})
}

func (h *Handler) send(conn *websocket.Conn, msg ServerMessage) {
	if err := conn.WriteJSON(msg); err != nil {
		h.log.Warnw("WebSocket write failed", "error", err)
	}
}
