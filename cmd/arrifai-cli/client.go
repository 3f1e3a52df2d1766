package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/xiaot623/arrifai/internal/protocol"
)

// Client is a WebSocket chat client.
type Client struct {
	conn      *websocket.Conn
	sessionID string
	done      chan struct{}
}

// NewClient creates a new client and connects to the server.
func NewClient(addr string) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.Dial(addr, nil)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}

	return &Client{
		conn: conn,
		done: make(chan struct{}),
	}, nil
}

// Close closes the client connection.
func (c *Client) Close() error {
	close(c.done)
	return c.conn.Close()
}

// SessionID returns the session bound by the last hello.
func (c *Client) SessionID() string {
	return c.sessionID
}

// SendHello sends a hello message and waits for hello_ack.
func (c *Client) SendHello(sessionID string) error {
	msg := protocol.HelloMessage{
		BaseMessage: protocol.BaseMessage{
			Type:      protocol.TypeHello,
			Ts:        time.Now().UnixMilli(),
			SessionID: sessionID,
		},
		ClientMeta: map[string]string{
			"client": "arrifai-cli",
		},
	}

	if err := c.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("write hello: %w", err)
	}

	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("read hello_ack: %w", err)
	}

	var base protocol.BaseMessage
	if err := json.Unmarshal(data, &base); err != nil {
		return fmt.Errorf("unmarshal hello_ack: %w", err)
	}

	if base.Type == protocol.TypeError {
		var errMsg protocol.ErrorMessage
		json.Unmarshal(data, &errMsg)
		return fmt.Errorf("hello failed: %s - %s", errMsg.Code, errMsg.Message)
	}

	if base.Type != protocol.TypeHelloAck {
		return fmt.Errorf("expected hello_ack, got: %s", base.Type)
	}

	c.sessionID = base.SessionID
	return nil
}

// SendChat sends one chat turn and returns its request id.
func (c *Client) SendChat(content string) (string, error) {
	requestID := "req_" + uuid.New().String()[:8]
	msg := protocol.ChatMessage{
		BaseMessage: protocol.BaseMessage{
			Type:      protocol.TypeChat,
			Ts:        time.Now().UnixMilli(),
			SessionID: c.sessionID,
			RequestID: requestID,
		},
		Message: content,
	}
	return requestID, c.conn.WriteJSON(msg)
}

// SendReset asks the server to clear the session.
func (c *Client) SendReset() error {
	msg := protocol.ResetMessage{
		BaseMessage: protocol.BaseMessage{
			Type:      protocol.TypeReset,
			Ts:        time.Now().UnixMilli(),
			SessionID: c.sessionID,
		},
	}
	return c.conn.WriteJSON(msg)
}

// ReadMessages prints server messages to out until the connection closes.
func (c *Client) ReadMessages(out io.Writer) {
	for {
		select {
		case <-c.done:
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
					slog.Debug("read error", "error", err)
				}
				return
			}
			fmt.Fprint(out, render(data))
		}
	}
}

// render formats one server message for the terminal.
func render(data []byte) string {
	var base protocol.BaseMessage
	if err := json.Unmarshal(data, &base); err != nil {
		return fmt.Sprintf("\n[?] %s\n", data)
	}

	switch base.Type {
	case protocol.TypeReply:
		var msg protocol.ReplyMessage
		json.Unmarshal(data, &msg)
		if msg.Error != "" {
			return fmt.Sprintf("\nARRIFAI (%s): %s\n", msg.Error, msg.Reply)
		}
		return fmt.Sprintf("\nARRIFAI: %s\n", msg.Reply)
	case protocol.TypeResetAck:
		var msg protocol.ResetAckMessage
		json.Unmarshal(data, &msg)
		return fmt.Sprintf("\n%s\n", msg.Message)
	case protocol.TypeError:
		var msg protocol.ErrorMessage
		json.Unmarshal(data, &msg)
		return fmt.Sprintf("\n[error] %s: %s\n", msg.Code, msg.Message)
	default:
		var pretty map[string]interface{}
		json.Unmarshal(data, &pretty)
		formatted, _ := json.MarshalIndent(pretty, "", "  ")
		return fmt.Sprintf("\n[%s] Received:\n%s\n", base.Type, formatted)
	}
}
