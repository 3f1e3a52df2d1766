// Package ws provides the WebSocket ingress: whole replies are pushed to
// every connection bound to the session.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/xiaot623/arrifai/internal/config"
	"github.com/xiaot623/arrifai/internal/hub"
	"github.com/xiaot623/arrifai/internal/protocol"
	"github.com/xiaot623/arrifai/internal/service"
)

// Server handles WebSocket connections.
type Server struct {
	cfg      *config.Config
	hub      *hub.Hub
	service  *service.Service
	upgrader websocket.Upgrader
}

// NewServer creates a new WebSocket server.
func NewServer(cfg *config.Config, h *hub.Hub, svc *service.Service) *Server {
	return &Server{
		cfg:     cfg,
		hub:     h,
		service: svc,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// HandleWebSocket handles WebSocket upgrade and connection lifecycle.
func (s *Server) HandleWebSocket(c echo.Context) error {
	ws, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Warn("failed to upgrade websocket", "error", err)
		return err
	}

	conn := s.hub.NewConnection(ws)
	s.hub.Register(conn)

	ws.SetReadLimit(s.cfg.WSMaxMessageSize)

	// Chat turns started on this connection are canceled when it goes away.
	ctx, cancel := context.WithCancel(context.Background())

	go s.writePump(conn)
	go s.readPump(ctx, cancel, conn)

	return nil
}

// readPump reads messages from the WebSocket connection.
func (s *Server) readPump(ctx context.Context, cancel context.CancelFunc, conn *hub.Connection) {
	defer func() {
		cancel()
		s.hub.Unregister(conn)
		conn.Close()
	}()

	conn.SetReadDeadline(time.Now().Add(s.cfg.WSReadTimeout))
	conn.Conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(s.cfg.WSReadTimeout))
		return nil
	})

	for {
		_, message, err := conn.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Warn("websocket read error", "conn_id", conn.ID, "error", err)
			}
			break
		}

		s.handleMessage(ctx, conn, message)
	}
}

// writePump writes messages to the WebSocket connection.
func (s *Server) writePump(conn *hub.Connection) {
	ticker := time.NewTicker(s.cfg.WSPingInterval)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			conn.SetWriteDeadline(time.Now().Add(s.cfg.WSWriteTimeout))
			if !ok {
				// Hub closed the channel
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				slog.Warn("failed to write websocket message", "conn_id", conn.ID, "error", err)
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(s.cfg.WSWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage dispatches incoming messages to appropriate handlers.
func (s *Server) handleMessage(ctx context.Context, conn *hub.Connection, data []byte) {
	var baseMsg protocol.BaseMessage
	if err := json.Unmarshal(data, &baseMsg); err != nil {
		s.sendError(conn, "", protocol.ErrorCodeInvalidMessage, "invalid JSON message")
		return
	}

	switch baseMsg.Type {
	case protocol.TypeHello:
		s.handleHello(conn, data)
	case protocol.TypeChat:
		s.handleChat(ctx, conn, data)
	case protocol.TypeReset:
		s.handleReset(ctx, conn, data)
	default:
		s.sendError(conn, baseMsg.RequestID, protocol.ErrorCodeInvalidMessage, "unknown message type: "+baseMsg.Type)
	}
}

// handleHello binds the connection to a session.
func (s *Server) handleHello(conn *hub.Connection, data []byte) {
	var msg protocol.HelloMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.sendError(conn, "", protocol.ErrorCodeInvalidMessage, "invalid hello message")
		return
	}

	sessionID := msg.SessionID
	if sessionID == "" {
		sessionID = "sess_" + uuid.New().String()[:8]
	}
	s.hub.BindSession(conn, sessionID)

	ack := protocol.HelloAckMessage{
		BaseMessage: protocol.BaseMessage{
			Type:      protocol.TypeHelloAck,
			Ts:        time.Now().UnixMilli(),
			RequestID: msg.RequestID,
			SessionID: sessionID,
		},
	}
	s.hub.SendJSONToConnection(conn, ack)

	slog.Info("websocket session bound", "conn_id", conn.ID, "session_id", sessionID)
}

// sessionFor resolves the session of a client message. A message naming
// another session moves the connection there, so the sender keeps receiving
// the replies of the session it talks to.
func (s *Server) sessionFor(conn *hub.Connection, requested string) string {
	current := conn.SessionID()
	if requested == "" || requested == current {
		return current
	}
	s.hub.BindSession(conn, requested)
	return requested
}

// handleChat runs one chat turn without blocking the read loop.
func (s *Server) handleChat(ctx context.Context, conn *hub.Connection, data []byte) {
	var msg protocol.ChatMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.sendError(conn, "", protocol.ErrorCodeInvalidMessage, "invalid chat message")
		return
	}

	sessionID := s.sessionFor(conn, msg.SessionID)
	if sessionID == "" {
		s.sendError(conn, msg.RequestID, protocol.ErrorCodeSessionRequired, "must send hello first")
		return
	}

	go func() {
		res, err := s.service.Chat(ctx, service.ChatRequest{
			SessionID: sessionID,
			Message:   msg.Message,
			Source:    "ws",
		})
		if err != nil {
			code := protocol.ErrorCodeInternalError
			if errors.Is(err, service.ErrRejected) || errors.Is(err, service.ErrEmptyMessage) {
				code = protocol.ErrorCodeRejected
			} else {
				slog.Error("websocket chat failed", "session_id", sessionID, "error", err)
			}
			s.sendErrorToSession(sessionID, msg.RequestID, code, err.Error())
			return
		}

		reply := protocol.ReplyMessage{
			BaseMessage: protocol.BaseMessage{
				Type:      protocol.TypeReply,
				Ts:        time.Now().UnixMilli(),
				RequestID: msg.RequestID,
				SessionID: sessionID,
			},
			Reply: res.Reply,
			Error: string(res.Failure),
		}
		if err := s.hub.BroadcastJSON(sessionID, reply); err != nil {
			slog.Error("failed to broadcast reply", "session_id", sessionID, "error", err)
		}
	}()
}

// handleReset clears the session transcript.
func (s *Server) handleReset(ctx context.Context, conn *hub.Connection, data []byte) {
	var msg protocol.ResetMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.sendError(conn, "", protocol.ErrorCodeInvalidMessage, "invalid reset message")
		return
	}

	sessionID := s.sessionFor(conn, msg.SessionID)
	if sessionID == "" {
		s.sendError(conn, msg.RequestID, protocol.ErrorCodeSessionRequired, "must send hello first")
		return
	}

	cleared := s.service.DeleteSession(ctx, sessionID)
	text := fmt.Sprintf("Session %s cleared", sessionID)
	if !cleared {
		text = fmt.Sprintf("Session %s not found", sessionID)
	}

	ack := protocol.ResetAckMessage{
		BaseMessage: protocol.BaseMessage{
			Type:      protocol.TypeResetAck,
			Ts:        time.Now().UnixMilli(),
			RequestID: msg.RequestID,
			SessionID: sessionID,
		},
		Cleared: cleared,
		Message: text,
	}
	s.hub.BroadcastJSON(sessionID, ack)
}

// sendError sends an error message to a connection.
func (s *Server) sendError(conn *hub.Connection, requestID, code, message string) {
	errMsg := protocol.ErrorMessage{
		BaseMessage: protocol.BaseMessage{
			Type:      protocol.TypeError,
			Ts:        time.Now().UnixMilli(),
			RequestID: requestID,
			SessionID: conn.SessionID(),
		},
		Code:    code,
		Message: message,
	}
	s.hub.SendJSONToConnection(conn, errMsg)
}

// sendErrorToSession sends an error message to all connections of a session.
func (s *Server) sendErrorToSession(sessionID, requestID, code, message string) {
	errMsg := protocol.ErrorMessage{
		BaseMessage: protocol.BaseMessage{
			Type:      protocol.TypeError,
			Ts:        time.Now().UnixMilli(),
			RequestID: requestID,
			SessionID: sessionID,
		},
		Code:    code,
		Message: message,
	}
	s.hub.BroadcastJSON(sessionID, errMsg)
}
