// Package protocol defines the WebSocket message protocol between clients and the relay.
package protocol

// Message types from client to server
const (
	TypeHello = "hello"
	TypeChat  = "chat"
	TypeReset = "reset"
)

// Message types from server to client
const (
	TypeHelloAck = "hello_ack"
	TypeReply    = "reply"
	TypeResetAck = "reset_ack"
	TypeError    = "error"
)

// BaseMessage contains common fields for all messages.
type BaseMessage struct {
	Type      string `json:"type"`
	Ts        int64  `json:"ts"`
	RequestID string `json:"request_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

// HelloMessage is sent by the client to bind the connection to a session.
// An empty session id asks the server to pick one.
type HelloMessage struct {
	BaseMessage
	ClientMeta map[string]string `json:"client_meta,omitempty"`
}

// HelloAckMessage is sent by the server after a successful hello.
type HelloAckMessage struct {
	BaseMessage
}

// ChatMessage is one user turn.
type ChatMessage struct {
	BaseMessage
	Message string `json:"message"`
}

// ReplyMessage carries the assistant reply to every connection of the session.
// Error holds the failure kind when the provider call failed; Reply then holds
// the apology text.
type ReplyMessage struct {
	BaseMessage
	Reply string `json:"reply"`
	Error string `json:"error,omitempty"`
}

// ResetMessage asks the server to clear the session transcript.
type ResetMessage struct {
	BaseMessage
}

// ResetAckMessage reports the outcome of a reset.
type ResetAckMessage struct {
	BaseMessage
	Cleared bool   `json:"cleared"`
	Message string `json:"message"`
}

// ErrorMessage is sent by the server when a client message cannot be handled.
type ErrorMessage struct {
	BaseMessage
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes
const (
	ErrorCodeInvalidMessage  = "invalid_message"
	ErrorCodeSessionRequired = "session_required"
	ErrorCodeRejected        = "rejected"
	ErrorCodeInternalError   = "internal_error"
)
